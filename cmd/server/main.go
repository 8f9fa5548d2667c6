package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eloboost/config"
	"eloboost/internal/database"
	"eloboost/internal/middleware"
	"eloboost/internal/repository"
	"eloboost/internal/router"
	"eloboost/internal/service"
	"eloboost/internal/ws"
	"eloboost/pkg/eventbus"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.Server.Env)
	defer func() { _ = logger.Sync() }()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	limiter, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()

	var bus eventbus.Publisher = eventbus.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := eventbus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, nil)
		if err != nil {
			logger.Fatal("kafka", zap.Error(err))
		}
		bus = kp
		logger.Info("domain events enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	var push service.Pusher
	if fcm := service.NewFCMService(cfg.Firebase.ServiceAccountPath, logger); fcm != nil {
		push = fcm
		logger.Info("push notifications enabled")
	} else {
		logger.Info("push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}

	hub := ws.NewHub(logger)
	dispatch := service.NewDispatcher(repository.NewNotificationRepository(db), repository.NewUserRepository(db), hub, push, bus, logger)

	engine := router.Setup(cfg, db, logger, hub, dispatch, limiter)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	dispatch.Wait()
	if err := bus.Close(); err != nil {
		logger.Warn("event bus close", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

// newLimiter prefers a Redis limiter shared across instances and falls back to a per-process one.
func newLimiter(cfg *config.Config, logger *zap.Logger) (middleware.Limiter, func()) {
	if cfg.Redis.URL != "" {
		rdb, err := middleware.ConnectRedis(cfg.Redis.URL)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err = rdb.Ping(ctx).Err()
			cancel()
		}
		if err == nil {
			logger.Info("rate limiting via redis")
			return middleware.NewRedisRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, "eloboost:rl"),
				func() { _ = rdb.Close() }
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		logger.Warn("redis unavailable, rate limiting in memory", zap.Error(err))
	}
	l := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	return l, l.Close
}
