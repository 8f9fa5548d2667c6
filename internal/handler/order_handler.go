package handler

import (
	"encoding/json"
	"net/http"

	"eloboost/internal/domain"
	"eloboost/internal/middleware"
	"eloboost/internal/models"
	"eloboost/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders *service.OrderService
	log    *zap.Logger
}

func NewOrderHandler(orders *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: named(logger)}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req struct {
		Type    string          `json:"type" binding:"required"`
		Price   decimal.Decimal `json:"price"`
		Details json.RawMessage `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.orders.CreateOrder(c.Request.Context(), middleware.GetCaller(c), service.CreateOrderInput{
		Type:    req.Type,
		Price:   req.Price,
		Details: req.Details,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": o})
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	limit, offset := paging(c)
	list, err := h.orders.ListMyOrders(c.Request.Context(), middleware.GetCaller(c), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *OrderHandler) ListAvailable(c *gin.Context) {
	limit, offset := paging(c)
	list, err := h.orders.ListAvailable(c.Request.Context(), middleware.GetCaller(c), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.orders.GetOrder(c.Request.Context(), middleware.GetCaller(c), c.Param("boost_id"))
	h.respondOrder(c, o, err)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orders.DeleteOrder(c.Request.Context(), middleware.GetCaller(c), c.Param("boost_id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// RecordPayment is the owner/admin path; the gateway uses the signed webhook instead.
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	var req struct {
		AssignPartner *uint `json:"assign_partner"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	o, err := h.orders.RecordPayment(c.Request.Context(), middleware.GetCaller(c), c.Param("boost_id"), req.AssignPartner)
	h.respondOrder(c, o, err)
}

type orderAction func(ctx *gin.Context, caller domain.Caller, boostID string) (*models.Order, error)

// action adapts a single-order transition to a handler.
func (h *OrderHandler) action(fn orderAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := fn(c, middleware.GetCaller(c), c.Param("boost_id"))
		h.respondOrder(c, o, err)
	}
}

func (h *OrderHandler) Accept() gin.HandlerFunc {
	return h.action(func(c *gin.Context, caller domain.Caller, id string) (*models.Order, error) {
		return h.orders.AcceptOrder(c.Request.Context(), caller, id)
	})
}

func (h *OrderHandler) Complete() gin.HandlerFunc {
	return h.action(func(c *gin.Context, caller domain.Caller, id string) (*models.Order, error) {
		return h.orders.CompleteOrder(c.Request.Context(), caller, id)
	})
}

func (h *OrderHandler) Cancel() gin.HandlerFunc {
	return h.action(func(c *gin.Context, caller domain.Caller, id string) (*models.Order, error) {
		return h.orders.CancelOrder(c.Request.Context(), caller, id)
	})
}

func (h *OrderHandler) Refuse() gin.HandlerFunc {
	return h.action(func(c *gin.Context, caller domain.Caller, id string) (*models.Order, error) {
		return h.orders.RefuseOrder(c.Request.Context(), caller, id)
	})
}

func (h *OrderHandler) Renew() gin.HandlerFunc {
	return h.action(func(c *gin.Context, caller domain.Caller, id string) (*models.Order, error) {
		return h.orders.RenewOrder(c.Request.Context(), caller, id)
	})
}

func (h *OrderHandler) Recover() gin.HandlerFunc {
	return h.action(func(c *gin.Context, caller domain.Caller, id string) (*models.Order, error) {
		return h.orders.RecoverOrder(c.Request.Context(), caller, id)
	})
}

func (h *OrderHandler) respondOrder(c *gin.Context, o *models.Order, err error) {
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}
