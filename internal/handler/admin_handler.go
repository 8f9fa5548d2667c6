package handler

import (
	"net/http"
	"strconv"

	"eloboost/internal/middleware"
	"eloboost/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	orders *service.OrderService
	ledger *service.LedgerService
	log    *zap.Logger
}

func NewAdminHandler(orders *service.OrderService, ledger *service.LedgerService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{orders: orders, ledger: ledger, log: named(logger)}
}

func (h *AdminHandler) ListPayouts(c *gin.Context) {
	var partnerID *uint
	if raw := c.Query("partner_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partner_id"})
			return
		}
		pid := uint(id)
		partnerID = &pid
	}
	limit, offset := paging(c)
	list, err := h.ledger.ListPayouts(c.Request.Context(), middleware.GetCaller(c), c.Query("status"), partnerID, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": list})
}

func (h *AdminHandler) ApprovePayout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	caller := middleware.GetCaller(c)
	h.log.Info("admin approving payout", zap.Uint("payout_id", id), zap.Uint("admin_id", caller.UserID))
	p, err := h.ledger.ApprovePayout(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payout": p})
}

func (h *AdminHandler) DeclinePayout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	caller := middleware.GetCaller(c)
	h.log.Info("admin declining payout", zap.Uint("payout_id", id), zap.Uint("admin_id", caller.UserID))
	p, err := h.ledger.DeclinePayout(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payout": p})
}

func (h *AdminHandler) SetOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.orders.AdminSetStatus(c.Request.Context(), middleware.GetCaller(c), c.Param("boost_id"), req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *AdminHandler) PostTransactions(c *gin.Context) {
	var req struct {
		Entries []service.TransactionInput `json:"entries" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.ledger.PostTransactions(c.Request.Context(), middleware.GetCaller(c), req.Entries)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transactions": list})
}
