// Package api holds the JSON request/response helpers shared by the HTTP handlers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError renders err with the status and code of its domain class.
// Internal errors are logged and their details hidden from the client.
func WriteError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := domain.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		message = "internal server error"
	}

	WriteJSON(w, log, status, ErrorResponse{Error: ErrorBody{
		Code:    domain.ErrorCode(err),
		Message: message,
	}})
}

// DecodeJSON decodes the request body into v. Unknown fields are rejected.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// URLParamInt64 parses a positive integer path parameter
func URLParamInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, name, raw)
	}
	return id, nil
}

// QueryInt parses an optional non-negative integer query parameter
func QueryInt(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, name, raw)
	}
	return v, nil
}
