package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers commentary routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/commentary", func(r chi.Router) {
		r.Post("/scores/{symbol}", h.HandleScoreCommentary)
		r.Post("/optimization", h.HandleRunCommentary)
	})
}
