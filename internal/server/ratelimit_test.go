package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/tradebook/internal/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, 2, zerolog.Nop())
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/portfolios", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5001").Code)

	w := call("10.0.0.1:5002")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000").Code, "other clients keep their own bucket")
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10, zerolog.Nop())
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }

	rl.getVisitor("a")
	current = current.Add(2 * time.Minute)
	rl.getVisitor("b")
	current = current.Add(2 * time.Minute)

	assert.Equal(t, 1, rl.Cleanup())
	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "b")
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:41000"
	assert.Equal(t, "192.168.1.9", clientKey(req))

	req.RemoteAddr = "192.168.1.9"
	assert.Equal(t, "192.168.1.9", clientKey(req))
}
