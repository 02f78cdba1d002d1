// Package handlers provides HTTP handlers for portfolio management.
package handlers

import (
	"context"
	"net/http"

	"github.com/aristath/tradebook/internal/api"
	"github.com/aristath/tradebook/internal/auth"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// Authorizer checks that the caller owns the portfolio
type Authorizer interface {
	CanAccessPortfolio(ctx context.Context, portfolioID, userID int64) error
}

// Handler handles portfolio HTTP requests
type Handler struct {
	service    *portfolio.PortfolioService
	authorizer Authorizer
	log        zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.PortfolioService, authorizer Authorizer, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		authorizer: authorizer,
		log:        log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleListPortfolios returns the caller's portfolios
// GET /api/portfolios
func (h *Handler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		api.WriteError(w, h.log, domain.ErrUnauthorized)
		return
	}

	portfolios, err := h.service.ListByUser(r.Context(), user.UserID)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, portfolios)
}

// HandleCreatePortfolio creates a portfolio owned by the caller
// POST /api/portfolios
func (h *Handler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		api.WriteError(w, h.log, domain.ErrUnauthorized)
		return
	}

	var req portfolio.PortfolioCreate
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	p, err := h.service.Create(r.Context(), user.UserID, req)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusCreated, p)
}

// HandleGetPortfolio returns one portfolio
// GET /api/portfolios/{id}
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, p)
}

// HandleUpdatePortfolio applies a partial edit
// PATCH /api/portfolios/{id}
func (h *Handler) HandleUpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req portfolio.PortfolioUpdate
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, p)
}

// HandleDeletePortfolio removes a portfolio and its trades
// DELETE /api/portfolios/{id}
func (h *Handler) HandleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
