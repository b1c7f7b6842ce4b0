package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chart routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/charts", func(r chi.Router) {
		r.Post("/weights", h.HandleWeights)
		r.Get("/scores/{symbol}/{model}", h.HandleScores)
		r.Get("/prices/{symbol}", h.HandlePrices)
	})
}
