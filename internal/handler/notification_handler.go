package handler

import (
	"net/http"

	"eloboost/internal/middleware"
	"eloboost/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	dispatch *service.Dispatcher
	log      *zap.Logger
}

func NewNotificationHandler(dispatch *service.Dispatcher, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{dispatch: dispatch, log: named(logger)}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit, offset := paging(c)
	list, unread, err := h.dispatch.ListNotifications(c.Request.Context(), middleware.GetCaller(c), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.dispatch.MarkRead(c.Request.Context(), middleware.GetCaller(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
