package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers fund and company routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/funds", func(r chi.Router) {
		r.Post("/holdings", h.HandleHoldingsBatch) // Sequential batch fetch
		r.Get("/{fund}/holdings", h.HandleFundHoldings)
	})

	r.Route("/companies/{symbol}", func(r chi.Router) {
		r.Get("/ownership", h.HandleOwnership)
		r.Get("/valuation", h.HandleValuation)
	})
}
