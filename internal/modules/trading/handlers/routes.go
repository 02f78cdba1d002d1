package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes
func (h *TradingHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Post("/", h.HandleCreateTrade)
		r.Get("/portfolio/{portfolioID}", h.HandleListTrades)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetTrade)
			r.Patch("/", h.HandleUpdateTrade)
			r.Delete("/", h.HandleDeleteTrade)
			r.Post("/close", h.HandleCloseTrade)
			r.Post("/screenshot", h.HandleUploadScreenshot)
		})
	})
}
