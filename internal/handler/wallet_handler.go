package handler

import (
	"net/http"

	"eloboost/internal/middleware"
	"eloboost/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WalletHandler struct {
	ledger *service.LedgerService
	log    *zap.Logger
}

func NewWalletHandler(ledger *service.LedgerService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{ledger: ledger, log: named(logger)}
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	w, err := h.ledger.GetWallet(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": w})
}

func (h *WalletHandler) GetTransactions(c *gin.Context) {
	limit, offset := paging(c)
	list, err := h.ledger.ListTransactions(c.Request.Context(), middleware.GetCaller(c), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}

// RequestPayout earmarks part of the partner's balance for withdrawal.
func (h *WalletHandler) RequestPayout(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.ledger.RequestPayout(c.Request.Context(), middleware.GetCaller(c), req.Amount)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payout": p})
}

func (h *WalletHandler) ListPayouts(c *gin.Context) {
	limit, offset := paging(c)
	list, err := h.ledger.ListPayouts(c.Request.Context(), middleware.GetCaller(c), c.Query("status"), nil, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": list})
}
