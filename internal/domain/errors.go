package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is a typed domain error. Message is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two domain errors of the same kind and message, so sentinels work with errors.Is
// even after being re-wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func Validation(msg string) error   { return &Error{Kind: KindValidation, Message: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }

// Internal wraps an infrastructure failure. The message shown to callers stays generic.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

var (
	ErrInsufficientBalance = &Error{Kind: KindValidation, Message: "insufficient balance"}
	ErrInvalidAmount       = &Error{Kind: KindValidation, Message: "amount must be greater than zero"}
	ErrWalletNotFound      = &Error{Kind: KindNotFound, Message: "wallet not found"}
	ErrPayoutNotFound      = &Error{Kind: KindNotFound, Message: "payout not found"}
	ErrOrderNotFound       = &Error{Kind: KindNotFound, Message: "order not found"}
	ErrAlreadyProcessed    = &Error{Kind: KindConflict, Message: "payout already processed"}
	ErrAlreadyAssigned     = &Error{Kind: KindConflict, Message: "order already assigned"}
	ErrWriteConflict       = &Error{Kind: KindConflict, Message: "concurrent update, please retry"}
	ErrInvalidTransition   = &Error{Kind: KindConflict, Message: "order status does not allow this action"}
	ErrUnauthenticated     = &Error{Kind: KindUnauthorized, Message: "authentication required"}
)

// KindOf returns the kind of err, or KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Retryable reports whether the caller may resubmit the same request unchanged.
func Retryable(err error) bool {
	if errors.Is(err, ErrWriteConflict) {
		return true
	}
	return KindOf(err) == KindInternal
}
