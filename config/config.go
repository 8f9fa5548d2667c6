package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Payment   PaymentConfig
	Firebase  FirebaseConfig
	Realtime  RealtimeConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig holds the secret shared with the external auth service that issues access tokens.
type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

type RedisConfig struct {
	URL string // redis://… or host:port; empty disables Redis
}

type KafkaConfig struct {
	Brokers []string // empty disables the event bus
	Topic   string
}

type PaymentConfig struct {
	WebhookSecret string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type RealtimeConfig struct {
	SendBuffer   int
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from the environment. A .env file in the working directory is
// loaded first when present; variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8099"),
			Env:          env("APP_ENV", "development"),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          env("DB_DRIVER", "mysql"),
			DSN:             env("DB_DSN", "eloboost:eloboost@tcp(localhost:3306)/eloboost?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret: env("JWT_ACCESS_SECRET", "change-me-in-production"),
			AccessExpiry: envDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			Issuer:       env("JWT_ISSUER", "eloboost"),
		},
		Redis: RedisConfig{
			URL: env("REDIS_URL", ""),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   env("KAFKA_TOPIC", "eloboost.events"),
		},
		Payment: PaymentConfig{
			WebhookSecret: env("PAYMENT_WEBHOOK_SECRET", ""),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: env("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		},
		Realtime: RealtimeConfig{
			SendBuffer:   envInt("WS_SEND_BUFFER", 256),
			PingInterval: envDuration("WS_PING_INTERVAL", 54*time.Second),
			PongWait:     envDuration("WS_PONG_WAIT", 60*time.Second),
			WriteWait:    envDuration("WS_WRITE_WAIT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			Requests: envInt("RATE_LIMIT_REQUESTS", 100),
			Window:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
