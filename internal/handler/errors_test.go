package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"eloboost/internal/domain"

	"github.com/gin-gonic/gin"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name      string
		err       error
		status    int
		message   string
		retryable bool
	}{
		{"validation", domain.ErrInsufficientBalance, http.StatusBadRequest, "insufficient balance", false},
		{"not found", domain.ErrOrderNotFound, http.StatusNotFound, "order not found", false},
		{"forbidden", domain.Forbidden("partner role required"), http.StatusForbidden, "partner role required", false},
		{"conflict", domain.ErrAlreadyProcessed, http.StatusConflict, "payout already processed", false},
		{"wrapped write conflict", fmt.Errorf("approve: %w", domain.ErrWriteConflict), http.StatusConflict, "concurrent update, please retry", true},
		{"internal", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal error, please retry", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			respondError(c, named(nil), tc.err)

			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			var body struct {
				Error     string `json:"error"`
				Retryable bool   `json:"retryable"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tc.message || body.Retryable != tc.retryable {
				t.Fatalf("body = %+v", body)
			}
		})
	}
}

func TestIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for raw, ok := range map[string]bool{"12": true, "0": false, "-1": false, "x": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}
		if _, got := idParam(c, "id"); got != ok {
			t.Fatalf("idParam(%q) = %v, want %v", raw, got, ok)
		}
	}
}
