package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/di"
	"github.com/aristath/tradebook/internal/modules/analytics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *apiClient {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:             dir,
		Port:                8001,
		JWTSecret:           "test-secret",
		TokenTTL:            time.Minute,
		CORSOrigins:         []string{"*"},
		RateLimitRPS:        1000,
		RateLimitBurst:      1000,
		MaintenanceSchedule: "0 0 3 * * *",
		Attachments: &config.AttachmentConfig{
			Backend: config.AttachmentBackendLocal,
			Dir:     filepath.Join(dir, "uploads"),
		},
	}
	container, err := di.Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })
	container.UserService.SetHashCost(bcrypt.MinCost)

	s := New(Config{Log: zerolog.Nop(), Config: cfg, Container: container})
	return &apiClient{t: t, handler: s.Handler()}
}

func (c *apiClient) do(method, path, token, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

func (c *apiClient) register(username string) string {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"email": "%s@example.com", "username": %q, "password": "secret-pass"}`, username, username))
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/auth/login", "", fmt.Sprintf(`{"username": %q, "password": "secret-pass"}`, username))
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &tok))
	require.NotEmpty(c.t, tok.AccessToken)
	return tok.AccessToken
}

func decodeID(t *testing.T, w *httptest.ResponseRecorder) int64 {
	t.Helper()
	var body struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Positive(t, body.ID)
	return body.ID
}

func TestServer_JournalFlow(t *testing.T) {
	c := newTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")

	w := c.do(http.MethodPost, "/api/portfolios", alice, `{"name": "Swing", "initial_balance": 10000}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	portfolioID := decodeID(t, w)

	for _, exit := range []float64{110, 95} {
		w = c.do(http.MethodPost, "/api/trades", alice, fmt.Sprintf(
			`{"portfolio_id": %d, "symbol": "aapl", "trade_type": "long", "entry_price": 100, "entry_date": "2024-03-01T14:30:00Z", "quantity": 10}`,
			portfolioID))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		tradeID := decodeID(t, w)

		w = c.do(http.MethodPost, fmt.Sprintf("/api/trades/%d/close", tradeID), alice, fmt.Sprintf(`{"exit_price": %g}`, exit))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = c.do(http.MethodGet, fmt.Sprintf("/api/analytics/portfolio/%d", portfolioID), alice, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats analytics.PortfolioAnalytics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalTrades)
	assert.InDelta(t, 50.0, stats.TotalProfitLoss, 1e-9)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)

	// Another user can neither read nor delete alice's portfolio
	w = c.do(http.MethodGet, fmt.Sprintf("/api/analytics/portfolio/%d", portfolioID), bob, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = c.do(http.MethodDelete, fmt.Sprintf("/api/portfolios/%d", portfolioID), bob, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = c.do(http.MethodDelete, fmt.Sprintf("/api/portfolios/%d", portfolioID), alice, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = c.do(http.MethodGet, fmt.Sprintf("/api/trades/portfolio/%d", portfolioID), alice, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_AuthAndAdminRoutes(t *testing.T) {
	c := newTestServer(t)
	admin := c.register("root")
	user := c.register("trader")

	w := c.do(http.MethodGet, "/api/portfolios", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodGet, "/api/portfolios", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodGet, "/api/system/status", user, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = c.do(http.MethodGet, "/api/users", user, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = c.do(http.MethodGet, "/api/users", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "trader")
	assert.NotContains(t, w.Body.String(), "secret-pass")
}

func TestServer_HealthAndMetrics(t *testing.T) {
	c := newTestServer(t)

	w := c.do(http.MethodGet, "/api/system/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = c.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tradebook_http_requests_total")
	assert.Contains(t, w.Body.String(), `route="/api/system/health"`)
}
