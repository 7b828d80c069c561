package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error into one of the expected,
// recoverable conditions the API reports to callers.
type Kind string

const (
	KindQuotaExceeded     Kind = "QUOTA_EXCEEDED"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindInvalidAmount     Kind = "INVALID_AMOUNT"
	KindNotFound          Kind = "NOT_FOUND"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindValidation        Kind = "VALIDATION_FAILED"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// Error is a structured application error.
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by Kind so callers can use errors.Is with the
// sentinel constructors below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to an error of the given kind.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func QuotaExceeded(message string) *Error {
	return New(KindQuotaExceeded, message)
}

func InvalidTransition(message string) *Error {
	return New(KindInvalidTransition, message)
}

func InsufficientFunds(message string) *Error {
	return New(KindInsufficientFunds, message)
}

func InvalidAmount(message string) *Error {
	return New(KindInvalidAmount, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Internal wraps an infrastructure failure. These are the only errors
// treated as fatal; everything else is reported to the caller verbatim.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the Kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the status code controllers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindQuotaExceeded:
		return http.StatusForbidden
	case KindInvalidTransition:
		return http.StatusConflict
	case KindInsufficientFunds:
		return http.StatusPaymentRequired
	case KindInvalidAmount, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
