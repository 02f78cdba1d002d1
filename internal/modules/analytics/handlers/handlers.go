// Package handlers provides HTTP handlers for portfolio analytics.
package handlers

import (
	"context"
	"net/http"

	"github.com/aristath/tradebook/internal/api"
	"github.com/aristath/tradebook/internal/auth"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/analytics"
	"github.com/rs/zerolog"
)

// Authorizer checks that the caller owns the portfolio
type Authorizer interface {
	CanAccessPortfolio(ctx context.Context, portfolioID, userID int64) error
}

// Handler handles analytics HTTP requests
type Handler struct {
	service    *analytics.Service
	authorizer Authorizer
	log        zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, authorizer Authorizer, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		authorizer: authorizer,
		log:        log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleGetPortfolioAnalytics handles GET /api/analytics/portfolio/{id}
func (h *Handler) HandleGetPortfolioAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	result, err := h.service.PortfolioAnalytics(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, result)
}

// HandleGetAnalyticsBySymbol handles GET /api/analytics/portfolio/{id}/by-symbol
func (h *Handler) HandleGetAnalyticsBySymbol(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	result, err := h.service.AnalyticsBySymbol(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, result)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := api.URLParamInt64(r, "id")
	if err != nil {
		api.WriteError(w, h.log, err)
		return 0, false
	}
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		api.WriteError(w, h.log, domain.ErrUnauthorized)
		return 0, false
	}
	if err := h.authorizer.CanAccessPortfolio(r.Context(), id, user.UserID); err != nil {
		api.WriteError(w, h.log, err)
		return 0, false
	}
	return id, true
}
