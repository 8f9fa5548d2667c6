package handler

import (
	"errors"
	"io"
	"net/http"

	"eloboost/internal/domain"
	"eloboost/internal/service"
	"eloboost/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentWebhookHandler struct {
	orders   *service.OrderService
	verifier *payment.Verifier
	log      *zap.Logger
}

func NewPaymentWebhookHandler(orders *service.OrderService, verifier *payment.Verifier, logger *zap.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{orders: orders, verifier: verifier, log: named(logger)}
}

// Handle records a verified successful payment against its order. Redeliveries of a callback
// for an order that is already paid are acknowledged without changes.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	cb, err := h.verifier.Verify(body, c.GetHeader(payment.SignatureHeader))
	switch {
	case errors.Is(err, payment.ErrNotConfigured), errors.Is(err, payment.ErrInvalidSignature):
		h.log.Warn("payment callback rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !cb.Succeeded() {
		h.log.Info("payment callback not successful",
			zap.String("boost_id", cb.BoostID), zap.String("status", cb.Status))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	_, err = h.orders.RecordPayment(c.Request.Context(), domain.SystemCaller(), cb.BoostID, cb.AssignPartner)
	if err != nil && domain.KindOf(err) == domain.KindConflict && !domain.Retryable(err) {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("payment recorded", zap.String("boost_id", cb.BoostID), zap.String("reference", cb.Reference))
	c.JSON(http.StatusOK, gin.H{"received": true})
}
