package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all optimization routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimization", func(r chi.Router) {
		r.Post("/simulate", h.HandleSimulate)
		r.Post("/stats", h.HandleStats)
		r.Get("/technical/{symbol}", h.HandleTechnical)
	})
}
