package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindQuotaExceeded, KindOf(QuotaExceeded("monthly listings used up")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("listing not found")))

	// wrapped errors keep their kind through the chain
	wrapped := fmt.Errorf("creating listing: %w", QuotaExceeded("limit reached"))
	assert.Equal(t, KindQuotaExceeded, KindOf(wrapped))

	// foreign errors default to internal
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestErrorIs(t *testing.T) {
	err := InvalidTransition("cannot accept a completed reservation")

	assert.True(t, errors.Is(err, InvalidTransition("any message")))
	assert.False(t, errors.Is(err, NotFound("any message")))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("record not found")
	err := Wrap(cause, KindNotFound, "reservation 42")

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "record not found")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"quota exceeded", QuotaExceeded("x"), http.StatusForbidden},
		{"invalid transition", InvalidTransition("x"), http.StatusConflict},
		{"insufficient funds", InsufficientFunds("x"), http.StatusPaymentRequired},
		{"invalid amount", InvalidAmount("x"), http.StatusBadRequest},
		{"validation", Validation("x"), http.StatusBadRequest},
		{"not found", NotFound("x"), http.StatusNotFound},
		{"unauthorized", Unauthorized("x"), http.StatusForbidden},
		{"internal", Internal(errors.New("db down")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
