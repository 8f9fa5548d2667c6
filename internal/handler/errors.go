package handler

import (
	"errors"
	"net/http"
	"strconv"

	"eloboost/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByKind = map[domain.Kind]int{
	domain.KindValidation:   http.StatusBadRequest,
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindUnauthorized: http.StatusUnauthorized,
	domain.KindForbidden:    http.StatusForbidden,
	domain.KindConflict:     http.StatusConflict,
}

// respondError writes err as {"error": msg}. Internal errors are logged and rendered
// generically.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		if status, ok := statusByKind[de.Kind]; ok {
			body := gin.H{"error": de.Message}
			if domain.Retryable(err) {
				body["retryable"] = true
			}
			c.JSON(status, body)
			return
		}
	}
	log.Error("request failed",
		zap.String("method", c.Request.Method), zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error, please retry", "retryable": true})
}

func paging(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func named(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.Named("http")
}
