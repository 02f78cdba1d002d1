package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.HandleListPortfolios)
		r.Post("/", h.HandleCreatePortfolio)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetPortfolio)
			r.Patch("/", h.HandleUpdatePortfolio)
			r.Delete("/", h.HandleDeletePortfolio)
		})
	})
}
