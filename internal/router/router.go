package router

import (
	"net/http"

	"eloboost/config"
	"eloboost/internal/domain"
	"eloboost/internal/handler"
	"eloboost/internal/middleware"
	"eloboost/internal/repository"
	"eloboost/internal/service"
	"eloboost/internal/ws"
	"eloboost/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Setup builds the HTTP engine. The hub and dispatcher are owned by the caller so it can drain
// pending deliveries on shutdown.
func Setup(cfg *config.Config, db *gorm.DB, logger *zap.Logger, hub *ws.Hub, dispatch *service.Dispatcher, limiter middleware.Limiter) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	rateLimit := middleware.RateLimit(limiter, logger.Named("ratelimit"))

	// Repositories
	uow := repository.NewUnitOfWork(db)
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	// Services
	orderSvc := service.NewOrderService(uow, orderRepo, conversationRepo, userRepo, dispatch, logger)
	ledgerSvc := service.NewLedgerService(uow, walletRepo, payoutRepo, transactionRepo, dispatch, logger)

	// Handlers
	orderHandler := handler.NewOrderHandler(orderSvc, logger)
	walletHandler := handler.NewWalletHandler(ledgerSvc, logger)
	notificationHandler := handler.NewNotificationHandler(dispatch, logger)
	adminHandler := handler.NewAdminHandler(orderSvc, ledgerSvc, logger)
	meHandler := handler.NewMeHandler(userRepo, logger)
	webhookHandler := handler.NewPaymentWebhookHandler(orderSvc, payment.NewVerifier(cfg.Payment.WebhookSecret), logger)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": hub.ClientCount()})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/webhooks/payment", rateLimit, webhookHandler.Handle)

		authed := api.Group("")
		authed.Use(middleware.AuthRequired(&cfg.JWT), rateLimit)

		me := authed.Group("/me")
		{
			me.GET("", meHandler.Get)
			me.PUT("/fcm-token", meHandler.UpdateFCMToken)
		}

		orders := authed.Group("/orders")
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.ListMine)
			orders.GET("/available", middleware.RequireRole(domain.RolePartner), orderHandler.ListAvailable)
			orders.GET("/:boost_id", orderHandler.Get)
			orders.DELETE("/:boost_id", orderHandler.Delete)
			orders.POST("/:boost_id/payment", orderHandler.RecordPayment)
			orders.POST("/:boost_id/accept", orderHandler.Accept())
			orders.POST("/:boost_id/complete", orderHandler.Complete())
			orders.POST("/:boost_id/cancel", orderHandler.Cancel())
			orders.POST("/:boost_id/refuse", orderHandler.Refuse())
			orders.POST("/:boost_id/renew", orderHandler.Renew())
			orders.POST("/:boost_id/recover", orderHandler.Recover())
		}

		authed.GET("/wallet", walletHandler.GetWallet)
		authed.GET("/wallet/transactions", walletHandler.GetTransactions)
		authed.POST("/payouts", middleware.RequireRole(domain.RolePartner), walletHandler.RequestPayout)
		authed.GET("/payouts", walletHandler.ListPayouts)

		authed.GET("/notifications", notificationHandler.List)
		authed.PUT("/notifications/:id/read", notificationHandler.MarkRead)

		admin := authed.Group("/admin")
		admin.Use(middleware.AdminRequired())
		{
			admin.GET("/payouts", adminHandler.ListPayouts)
			admin.POST("/payouts/:id/approve", adminHandler.ApprovePayout)
			admin.POST("/payouts/:id/decline", adminHandler.DeclinePayout)
			admin.POST("/orders/:boost_id/status", adminHandler.SetOrderStatus)
			admin.POST("/transactions", adminHandler.PostTransactions)
		}
	}

	r.GET("/ws", ws.Serve(&cfg.JWT, cfg.Realtime, hub))
	return r
}
