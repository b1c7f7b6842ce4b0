package utils

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/domain"
)

// WriteJSON writes data as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteData wraps data in the {"data": ..., "metadata": {...}} envelope
func WriteData(w http.ResponseWriter, data interface{}, log zerolog.Logger) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}, log)
}

// StatusForError maps a domain error kind to an HTTP status
func StatusForError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInsufficientData, domain.KindDegenerateRatio:
		return http.StatusUnprocessableEntity
	case domain.KindProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes {"error": ..., "kind": ...} with the status for err
func WriteError(w http.ResponseWriter, err error, log zerolog.Logger) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	} else {
		log.Debug().Err(err).Msg("Request rejected")
	}

	WriteJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"kind":  domain.KindOf(err).String(),
	}, log)
}

// Finite returns a pointer to v, or nil when v is NaN or infinite.
// JSON has no encoding for non-finite numbers; nil becomes null.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
