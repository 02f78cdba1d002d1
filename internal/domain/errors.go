// Package domain holds the error taxonomy shared by every layer of the journal.
package domain

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by every module. Wrap with fmt.Errorf("...: %w", ErrX)
// and test with errors.Is.
var (
	// ErrNotFound - referenced trade, portfolio or user does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidState - transition not allowed from the current lifecycle state
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidInput - malformed or out-of-range input, rejected before mutation
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict - uniqueness violation (email, username)
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized - missing or bad credentials
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden - authenticated but not allowed to act on the resource
	ErrForbidden = errors.New("forbidden")
)

// HTTPStatus maps an error onto the status code a handler should respond with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the machine readable code rendered in error responses.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	default:
		return "INTERNAL_ERROR"
	}
}
