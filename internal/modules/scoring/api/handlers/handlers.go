// Package handlers provides HTTP handlers for scoring API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/modules/scoring"
	"github.com/aristath/finlens/internal/utils"
)

// ScoringService is the subset of scoring.Service used by the handlers
type ScoringService interface {
	Score(ctx context.Context, symbol string, period domain.PeriodKind) (*scoring.Report, error)
	ScoreModel(ctx context.Context, symbol string, model scoring.Model, period domain.PeriodKind) (*scoring.Report, error)
	Refresh(ctx context.Context, symbol string, period domain.PeriodKind) error
}

// Handlers provides HTTP handlers for scoring module
type Handlers struct {
	service ScoringService
	log     zerolog.Logger
}

// NewHandlers creates a new scoring handlers instance
func NewHandlers(service ScoringService, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("module", "scoring_handlers").Logger(),
	}
}

// EvaluateRequest scores caller-supplied statements
type EvaluateRequest struct {
	Symbol string                `json:"symbol"`
	Models []string              `json:"models,omitempty"`
	Rows   []domain.StatementRow `json:"rows"`
}

// HandleGetScores handles GET /api/scoring/{symbol}
func (h *Handlers) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))
	period, ok := parsePeriod(r)
	if !ok {
		http.Error(w, "period must be year or quarter", http.StatusBadRequest)
		return
	}
	if !h.refresh(w, r, symbol, period) {
		return
	}

	report, err := h.service.Score(r.Context(), symbol, period)
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	utils.WriteData(w, report, h.log)
}

// HandleGetModelScores handles GET /api/scoring/{symbol}/{model}
func (h *Handlers) HandleGetModelScores(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))
	model, err := scoring.ParseModel(chi.URLParam(r, "model"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	period, ok := parsePeriod(r)
	if !ok {
		http.Error(w, "period must be year or quarter", http.StatusBadRequest)
		return
	}
	if !h.refresh(w, r, symbol, period) {
		return
	}

	report, err := h.service.ScoreModel(r.Context(), symbol, model, period)
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	utils.WriteData(w, map[string]interface{}{
		"symbol":  report.Symbol,
		"model":   model,
		"title":   model.Title(),
		"periods": report.Periods,
		"records": report.Records,
		"missing": report.Missing,
	}, h.log)
}

// HandleEvaluate handles POST /api/scoring/evaluate
// Scores statements supplied in the request body instead of fetching them.
func (h *Handlers) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Rows) == 0 {
		http.Error(w, "rows is required", http.StatusBadRequest)
		return
	}
	for _, row := range req.Rows {
		if row.Quarter < 0 || row.Quarter > 4 {
			http.Error(w, "quarter must be between 1 and 4, or omitted for annual rows", http.StatusBadRequest)
			return
		}
	}

	models := scoring.Models
	if len(req.Models) > 0 {
		models = nil
		for _, name := range req.Models {
			m, err := scoring.ParseModel(name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			models = append(models, m)
		}
	}

	st := domain.NewStatements(req.Symbol, req.Rows)
	var records []scoring.ScoreRecord
	for _, m := range models {
		records = append(records, scoring.Series(m, st)...)
	}

	utils.WriteData(w, scoring.Report{
		Symbol:  st.Symbol,
		Years:   st.Years(),
		Periods: st.Periods(),
		Records: records,
	}, h.log)
}

// refresh handles ?refresh=true by dropping the memoized statements first.
// It reports false when the response has already been written.
func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request, symbol string, period domain.PeriodKind) bool {
	raw := r.URL.Query().Get("refresh")
	if raw == "" {
		return true
	}
	refresh, err := strconv.ParseBool(raw)
	if err != nil {
		http.Error(w, "refresh must be a boolean", http.StatusBadRequest)
		return false
	}
	if !refresh {
		return true
	}
	if err := h.service.Refresh(r.Context(), symbol, period); err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to refresh statements, serving cached data")
	}
	return true
}

func parsePeriod(r *http.Request) (domain.PeriodKind, bool) {
	switch p := domain.PeriodKind(r.URL.Query().Get("period")); p {
	case "", domain.PeriodYear:
		return domain.PeriodYear, true
	case domain.PeriodQuarter:
		return p, true
	default:
		return "", false
	}
}
