// Package handlers provides HTTP handlers for portfolio optimization.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/modules/optimization"
	"github.com/aristath/finlens/internal/utils"
)

// defaultLookback is the history window used when a request gives no start date
const defaultLookback = 365 * 24 * time.Hour

// OptimizationService is the subset of optimization.Service used by the handlers
type OptimizationService interface {
	Simulate(ctx context.Context, req optimization.SimulateRequest) (*optimization.Run, error)
	Stats(ctx context.Context, symbols []string, start, end time.Time) ([]optimization.SymbolStats, map[string]string, error)
	Technical(ctx context.Context, symbol string, start, end time.Time) (*optimization.TechnicalReport, error)
}

// Handler handles optimization HTTP requests
type Handler struct {
	service OptimizationService
	log     zerolog.Logger
	now     func() time.Time
}

// NewHandler creates a new optimization handler
func NewHandler(service OptimizationService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "optimization").Logger(),
		now:     time.Now,
	}
}

type simulateRequest struct {
	Symbols       []string `json:"symbols"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	NAV           float64  `json:"nav"`
	NumPortfolios int      `json:"num_portfolios"`
	RiskFreeRate  *float64 `json:"risk_free_rate"`
	Seed          *uint64  `json:"seed"`
	KeepTrials    bool     `json:"keep_trials"`
}

type statsRequest struct {
	Symbols []string `json:"symbols"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
}

// allocationResponse mirrors optimization.Allocation with a nullable Sharpe
type allocationResponse struct {
	Strategy           optimization.Strategy   `json:"strategy"`
	Label              string                  `json:"label"`
	Positions          []optimization.Position `json:"positions"`
	ExpectedReturn     float64                 `json:"expected_return"`
	ExpectedVolatility float64                 `json:"expected_volatility"`
	Sharpe             *float64                `json:"sharpe"`
}

type trialResponse struct {
	Weights            []float64 `json:"weights"`
	ExpectedReturn     float64   `json:"expected_return"`
	ExpectedVolatility float64   `json:"expected_volatility"`
	Sharpe             *float64  `json:"sharpe"`
}

type runResponse struct {
	ID          string                     `json:"id"`
	CreatedAt   time.Time                  `json:"created_at"`
	Start       string                     `json:"start"`
	End         string                     `json:"end"`
	Symbols     []string                   `json:"symbols"`
	NAV         float64                    `json:"nav"`
	Stats       []optimization.SymbolStats `json:"stats"`
	Allocations []allocationResponse       `json:"allocations"`
	Summary     optimization.SharpeSummary `json:"summary"`
	Stacked     optimization.StackedSeries `json:"stacked"`
	Trials      []trialResponse            `json:"trials,omitempty"`
	Skipped     map[string]string          `json:"skipped,omitempty"`
}

// HandleSimulate handles POST /api/optimization/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Symbols) == 0 {
		http.Error(w, "symbols is required", http.StatusBadRequest)
		return
	}
	if req.NAV < 0 {
		http.Error(w, "nav must not be negative", http.StatusBadRequest)
		return
	}
	if req.NumPortfolios < 0 {
		http.Error(w, "num_portfolios must not be negative", http.StatusBadRequest)
		return
	}

	start, end, err := h.parseRange(req.Start, req.End)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	nav := req.NAV
	if nav == 0 {
		nav = 1
	}

	run, err := h.service.Simulate(r.Context(), optimization.SimulateRequest{
		Symbols:       req.Symbols,
		Start:         start,
		End:           end,
		NAV:           nav,
		NumPortfolios: req.NumPortfolios,
		RiskFreeRate:  req.RiskFreeRate,
		Seed:          req.Seed,
		KeepTrials:    req.KeepTrials,
	})
	if errors.Is(err, optimization.ErrTooManyPortfolios) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	utils.WriteData(w, toRunResponse(run), h.log)
}

// HandleStats handles POST /api/optimization/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Symbols) == 0 {
		http.Error(w, "symbols is required", http.StatusBadRequest)
		return
	}

	start, end, err := h.parseRange(req.Start, req.End)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stats, skipped, err := h.service.Stats(r.Context(), req.Symbols, start, end)
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	utils.WriteData(w, map[string]interface{}{
		"stats":   stats,
		"skipped": skipped,
	}, h.log)
}

// HandleTechnical handles GET /api/optimization/technical/{symbol}
func (h *Handler) HandleTechnical(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	start, end, err := h.parseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.service.Technical(r.Context(), symbol, start, end)
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	utils.WriteData(w, report, h.log)
}

// parseRange parses YYYY-MM-DD bounds. A missing end is today and a missing
// start is one year before end.
func (h *Handler) parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	end := h.now().UTC().Truncate(24 * time.Hour)
	if endStr != "" {
		parsed, err := time.Parse(domain.DateLayout, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q, expected YYYY-MM-DD", endStr)
		}
		end = parsed
	}

	start := end.Add(-defaultLookback)
	if startStr != "" {
		parsed, err := time.Parse(domain.DateLayout, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", startStr)
		}
		start = parsed
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start must be before end")
	}
	return start, end, nil
}

func toRunResponse(run *optimization.Run) runResponse {
	res := run.Result
	out := runResponse{
		ID:        run.ID,
		CreatedAt: run.CreatedAt,
		Start:     run.Start.Format(domain.DateLayout),
		End:       run.End.Format(domain.DateLayout),
		Symbols:   res.Symbols,
		NAV:       res.NAV,
		Stats:     res.Stats,
		Summary:   res.Summary,
		Stacked:   run.Stacked,
		Skipped:   run.Skipped,
	}

	for _, a := range res.Allocations {
		out.Allocations = append(out.Allocations, allocationResponse{
			Strategy:           a.Strategy,
			Label:              a.Label,
			Positions:          a.Positions,
			ExpectedReturn:     a.ExpectedReturn,
			ExpectedVolatility: a.ExpectedVolatility,
			Sharpe:             utils.Finite(a.Sharpe),
		})
	}
	for _, t := range res.Trials {
		out.Trials = append(out.Trials, trialResponse{
			Weights:            t.Weights,
			ExpectedReturn:     t.ExpectedReturn,
			ExpectedVolatility: t.ExpectedVolatility,
			Sharpe:             utils.Finite(t.Sharpe),
		})
	}
	return out
}
