package handler

import (
	"net/http"

	"eloboost/internal/middleware"
	"eloboost/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MeHandler struct {
	users *repository.UserRepository
	log   *zap.Logger
}

func NewMeHandler(users *repository.UserRepository, logger *zap.Logger) *MeHandler {
	return &MeHandler{users: users, log: named(logger)}
}

func (h *MeHandler) Get(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), middleware.GetCaller(c).UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// UpdateFCMToken stores the device token used for push when the user has no live connection.
func (h *MeHandler) UpdateFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"fcm_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.UpdateFCMToken(c.Request.Context(), middleware.GetCaller(c).UserID, req.Token); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
