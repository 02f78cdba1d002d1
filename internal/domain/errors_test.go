package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("trade 9: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"invalid state", fmt.Errorf("trade already closed: %w", ErrInvalidState), http.StatusBadRequest, "INVALID_STATE"},
		{"invalid input", fmt.Errorf("%w: bad direction", ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{"conflict", ErrConflict, http.StatusConflict, "CONFLICT"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.code, ErrorCode(tt.err))
		})
	}
}

func TestHTTPStatus_DoubleWrapped(t *testing.T) {
	inner := errors.New("percentage undefined")
	err := fmt.Errorf("failed to close trade: %w", fmt.Errorf("%w: %w", ErrInvalidInput, inner))

	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	assert.ErrorIs(t, err, inner)
}
