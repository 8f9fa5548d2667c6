package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPending, OrderStatusWaiting, true},
		{OrderStatusPending, OrderStatusInActive, true},
		{OrderStatusPending, OrderStatusInProgress, false},
		{OrderStatusWaiting, OrderStatusInProgress, true},
		{OrderStatusWaiting, OrderStatusInActive, true},
		{OrderStatusInActive, OrderStatusInProgress, true},
		{OrderStatusInActive, OrderStatusWaiting, false},
		{OrderStatusInProgress, OrderStatusCompleted, true},
		{OrderStatusInProgress, OrderStatusCancel, true},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCancel, OrderStatusInActive, false},
	}
	for _, tc := range cases {
		t.Run(tc.from+"->"+tc.to, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", ErrAlreadyProcessed)
	if KindOf(wrapped) != KindConflict {
		t.Fatalf("expected conflict kind, got %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, ErrAlreadyProcessed) {
		t.Fatalf("errors.Is should match sentinel through wrapping")
	}
	if Retryable(ErrAlreadyProcessed) {
		t.Fatalf("already processed must not be retryable")
	}
	if !Retryable(ErrWriteConflict) {
		t.Fatalf("write conflict must be retryable")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("plain errors are internal")
	}
	internal := Internal(errors.New("db down"))
	var de *Error
	if !errors.As(internal, &de) || de.Message != "internal error" {
		t.Fatalf("internal error should carry a generic message, got %v", internal)
	}
	if Internal(ErrOrderNotFound) != error(ErrOrderNotFound) {
		t.Fatalf("Internal must not rewrap domain errors")
	}
}

func TestCaller(t *testing.T) {
	c := NewCaller(7, RolePartner)
	id := uint(7)
	other := uint(8)
	if !c.IsPartner() || c.IsAdmin() {
		t.Fatalf("unexpected roles for %+v", c)
	}
	if !c.Is(&id) || c.Is(&other) || c.Is(nil) {
		t.Fatalf("Is mismatch")
	}
	if (Caller{}).Authenticated() {
		t.Fatalf("zero caller must not be authenticated")
	}
	if !SystemCaller().Authenticated() {
		t.Fatalf("system caller is authenticated")
	}
}
