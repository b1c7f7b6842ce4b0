// Package server provides the HTTP server and routing for FinLens.
package server

import (
	"net/http"

	"github.com/aristath/finlens/internal/utils"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "finlens",
	}

	utils.WriteJSON(w, http.StatusOK, response, s.log)
}
