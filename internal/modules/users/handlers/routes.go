package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterPublicRoutes registers routes that need no token
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
}

// RegisterRoutes registers routes that run behind authentication
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.HandleMe)

	r.Route("/users", func(r chi.Router) {
		if h.requireAdmin != nil {
			r.Use(h.requireAdmin)
		}
		r.Get("/", h.HandleListUsers)
		r.Get("/{id}", h.HandleGetUser)
		r.Patch("/{id}", h.HandleUpdateUser)
		r.Delete("/{id}", h.HandleDeleteUser)
	})
}
