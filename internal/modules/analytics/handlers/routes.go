package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics/portfolio/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGetPortfolioAnalytics)
		r.Get("/by-symbol", h.HandleGetAnalyticsBySymbol)
	})
}
