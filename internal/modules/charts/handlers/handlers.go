// Package handlers provides HTTP handlers for chart rendering.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/modules/optimization"
	"github.com/aristath/finlens/internal/modules/scoring"
	"github.com/aristath/finlens/internal/utils"
)

// Renderer is the subset of charts.Service used by the handlers
type Renderer interface {
	WeightsChart(series optimization.StackedSeries) ([]byte, error)
	ScoreChart(symbol string, model scoring.Model, records []scoring.ScoreRecord) ([]byte, error)
	PriceChart(series domain.PriceSeries) ([]byte, error)
}

// ScoreSource provides a single model's score series
type ScoreSource interface {
	ScoreModel(ctx context.Context, symbol string, model scoring.Model, period domain.PeriodKind) (*scoring.Report, error)
}

// Handler serves PNG charts
type Handler struct {
	renderer Renderer
	scores   ScoreSource
	prices   optimization.PriceSource
	now      func() time.Time
	log      zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(renderer Renderer, scores ScoreSource, prices optimization.PriceSource, log zerolog.Logger) *Handler {
	return &Handler{
		renderer: renderer,
		scores:   scores,
		prices:   prices,
		now:      time.Now,
		log:      log.With().Str("handler", "charts").Logger(),
	}
}

// HandleWeights handles POST /api/charts/weights.
// The body is the stacked series returned by /api/optimization/simulate.
func (h *Handler) HandleWeights(w http.ResponseWriter, r *http.Request) {
	var series optimization.StackedSeries
	if err := json.NewDecoder(r.Body).Decode(&series); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	png, err := h.renderer.WeightsChart(series)
	h.writePNG(w, png, err)
}

// HandleScores handles GET /api/charts/scores/{symbol}/{model}
func (h *Handler) HandleScores(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))
	model, err := scoring.ParseModel(chi.URLParam(r, "model"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.scores.ScoreModel(r.Context(), symbol, model, domain.PeriodYear)
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	png, err := h.renderer.ScoreChart(symbol, model, report.Records)
	h.writePNG(w, png, err)
}

// HandlePrices handles GET /api/charts/prices/{symbol}?days=365
func (h *Handler) HandlePrices(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))
	days := 365
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		d, err := strconv.Atoi(daysStr)
		if err != nil || d < 2 || d > 3650 {
			http.Error(w, "days must be between 2 and 3650", http.StatusBadRequest)
			return
		}
		days = d
	}

	end := h.now().UTC().Truncate(24 * time.Hour)
	series, err := h.prices.FetchPriceHistory(r.Context(), symbol, end.AddDate(0, 0, -days), end)
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	png, err := h.renderer.PriceChart(series)
	h.writePNG(w, png, err)
}

func (h *Handler) writePNG(w http.ResponseWriter, png []byte, err error) {
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.Error().Err(err).Msg("Failed to write chart")
	}
}
