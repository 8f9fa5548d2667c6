package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eloboost/config"
	"eloboost/internal/auth"
	"eloboost/internal/domain"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredSetsCaller(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Minute, Issuer: "eloboost"}
	r := gin.New()
	var seen domain.Caller
	r.GET("/x", AuthRequired(cfg), func(c *gin.Context) {
		seen = GetCaller(c)
		c.Status(http.StatusNoContent)
	})

	if w := serve(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: %d", w.Code)
	}
	if w := serve(r, "Token abc"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad scheme: %d", w.Code)
	}
	if w := serve(r, "Bearer nope"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}
	tok, _ := auth.GenerateAccessToken(cfg, 9, domain.RolePartner)
	if w := serve(r, "Bearer "+tok); w.Code != http.StatusNoContent {
		t.Fatalf("valid token: %d", w.Code)
	}
	if seen.UserID != 9 || !seen.IsPartner() {
		t.Fatalf("caller = %+v", seen)
	}
}

func TestRoleGates(t *testing.T) {
	withCaller := func(caller domain.Caller) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set(callerKey, caller) }
	}
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	cases := []struct {
		name   string
		caller domain.Caller
		gate   gin.HandlerFunc
		want   int
	}{
		{"anonymous", domain.Caller{}, RequireRole(domain.RolePartner), http.StatusUnauthorized},
		{"wrong role", domain.NewCaller(1, domain.RoleClient), RequireRole(domain.RolePartner), http.StatusForbidden},
		{"partner", domain.NewCaller(1, domain.RolePartner), RequireRole(domain.RolePartner, domain.RoleAdmin), http.StatusNoContent},
		{"admin gate denies partner", domain.NewCaller(1, domain.RolePartner), AdminRequired(), http.StatusForbidden},
		{"admin gate", domain.NewCaller(1, domain.RoleAdmin), AdminRequired(), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", withCaller(tc.caller), tc.gate, ok)
			if w := serve(r, ""); w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestInMemoryRateLimiter(t *testing.T) {
	l := NewInMemoryRateLimiter(2, time.Minute)
	defer l.Close()
	r := gin.New()
	r.Use(RateLimit(l, nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		if w := serve(r, ""); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	w := serve(r, "")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("X-RateLimit-Limit") != "2" {
		t.Fatalf("third request: %d %v", w.Code, w.Header())
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) { return false, errors.New("redis down") }
func (brokenLimiter) Limit() int                                   { return 1 }

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(brokenLimiter{}, nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	if w := serve(r, ""); w.Code != http.StatusNoContent {
		t.Fatalf("limiter errors must not block traffic, got %d", w.Code)
	}
}
