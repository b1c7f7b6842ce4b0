// Package handlers provides HTTP handlers for AI commentary.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/modules/commentary"
	"github.com/aristath/finlens/internal/modules/optimization"
	"github.com/aristath/finlens/internal/utils"
)

// CommentaryService is the subset of commentary.Service used by the handlers
type CommentaryService interface {
	ScoreCommentary(ctx context.Context, symbol string, period domain.PeriodKind) (*commentary.Commentary, error)
	RunCommentary(ctx context.Context, run *optimization.Run) (*commentary.Commentary, error)
}

// Simulator runs an optimization for run commentary
type Simulator interface {
	Simulate(ctx context.Context, req optimization.SimulateRequest) (*optimization.Run, error)
}

// Handler handles commentary HTTP requests
type Handler struct {
	service   CommentaryService
	simulator Simulator
	log       zerolog.Logger
}

// NewHandler creates a new commentary handler
func NewHandler(service CommentaryService, simulator Simulator, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		simulator: simulator,
		log:       log.With().Str("handler", "commentary").Logger(),
	}
}

type runRequest struct {
	Symbols []string `json:"symbols"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	NAV     float64  `json:"nav"`
	Seed    *uint64  `json:"seed,omitempty"`
}

// HandleScoreCommentary handles POST /api/commentary/scores/{symbol}
func (h *Handler) HandleScoreCommentary(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))
	period := domain.PeriodKind(r.URL.Query().Get("period"))
	if period == "" {
		period = domain.PeriodYear
	}
	if period != domain.PeriodYear && period != domain.PeriodQuarter {
		http.Error(w, "period must be year or quarter", http.StatusBadRequest)
		return
	}

	out, err := h.service.ScoreCommentary(r.Context(), symbol, period)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteData(w, out, h.log)
}

// HandleRunCommentary handles POST /api/commentary/optimization
func (h *Handler) HandleRunCommentary(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	symbols := utils.ParseSymbols(strings.Join(req.Symbols, ","))
	if len(symbols) == 0 {
		http.Error(w, "symbols are required", http.StatusBadRequest)
		return
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if req.End != "" {
		t, err := time.Parse(domain.DateLayout, req.End)
		if err != nil {
			http.Error(w, "end must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end = t
	}
	start := end.AddDate(-1, 0, 0)
	if req.Start != "" {
		t, err := time.Parse(domain.DateLayout, req.Start)
		if err != nil {
			http.Error(w, "start must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		start = t
	}
	if !start.Before(end) {
		http.Error(w, "start must be before end", http.StatusBadRequest)
		return
	}

	run, err := h.simulator.Simulate(r.Context(), optimization.SimulateRequest{
		Symbols: symbols,
		Start:   start,
		End:     end,
		NAV:     req.NAV,
		Seed:    req.Seed,
	})
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	out, err := h.service.RunCommentary(r.Context(), run)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteData(w, out, h.log)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, commentary.ErrDisabled) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	utils.WriteError(w, err, h.log)
}
