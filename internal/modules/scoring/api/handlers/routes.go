package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all scoring routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/scoring", func(r chi.Router) {
		r.Post("/evaluate", h.HandleEvaluate) // Score supplied statements
		r.Get("/{symbol}", h.HandleGetScores)
		r.Get("/{symbol}/{model}", h.HandleGetModelScores)
	})
}
