// Package handlers provides HTTP handlers for fund holdings and company
// ownership and valuation data.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/clients/marketdata"
	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/utils"
)

// maxBatchFunds bounds a single batch request
const maxBatchFunds = 50

// MarketData is the subset of the market data client used by the handlers
type MarketData interface {
	FetchFundHoldings(ctx context.Context, fundCode string) ([]domain.Holding, error)
	FetchHoldingsBatch(ctx context.Context, fundCodes []string) (*marketdata.BatchResult, error)
	FetchOwnership(ctx context.Context, symbol string) ([]domain.OwnershipEntry, error)
	FetchValuationEstimates(ctx context.Context, symbol string) ([]domain.ValuationEstimate, error)
}

// Handler serves provider data in canonical form
type Handler struct {
	client MarketData
	log    zerolog.Logger
}

// NewHandler creates a new market data handler
func NewHandler(client MarketData, log zerolog.Logger) *Handler {
	return &Handler{
		client: client,
		log:    log.With().Str("handler", "market").Logger(),
	}
}

type batchRequest struct {
	Funds []string `json:"funds"`
}

// HandleFundHoldings handles GET /api/funds/{fund}/holdings
func (h *Handler) HandleFundHoldings(w http.ResponseWriter, r *http.Request) {
	fund := domain.NormalizeSymbol(chi.URLParam(r, "fund"))

	holdings, err := h.client.FetchFundHoldings(r.Context(), fund)
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	utils.WriteData(w, map[string]interface{}{
		"fund":     fund,
		"holdings": holdings,
	}, h.log)
}

// HandleHoldingsBatch handles POST /api/funds/holdings
func (h *Handler) HandleHoldingsBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	funds := utils.ParseSymbols(strings.Join(req.Funds, ","))
	if len(funds) == 0 {
		http.Error(w, "funds are required", http.StatusBadRequest)
		return
	}
	if len(funds) > maxBatchFunds {
		http.Error(w, "too many funds in one batch", http.StatusBadRequest)
		return
	}

	result, err := h.client.FetchHoldingsBatch(r.Context(), funds)
	if err != nil {
		if result == nil {
			utils.WriteError(w, err, h.log)
			return
		}
		// cancelled part-way: report what was fetched
		h.log.Warn().Err(err).Int("fetched", len(result.Holdings)).Msg("Holdings batch interrupted")
	}

	utils.WriteData(w, result, h.log)
}

// HandleOwnership handles GET /api/companies/{symbol}/ownership
func (h *Handler) HandleOwnership(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))

	entries, err := h.client.FetchOwnership(r.Context(), symbol)
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	utils.WriteData(w, map[string]interface{}{
		"symbol":       symbol,
		"shareholders": entries,
	}, h.log)
}

// HandleValuation handles GET /api/companies/{symbol}/valuation
func (h *Handler) HandleValuation(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))

	estimates, err := h.client.FetchValuationEstimates(r.Context(), symbol)
	if err != nil {
		utils.WriteError(w, err, h.log)
		return
	}

	utils.WriteData(w, map[string]interface{}{
		"symbol":    symbol,
		"estimates": estimates,
	}, h.log)
}
