package optimization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/memo"
	"github.com/aristath/finlens/internal/utils"
	"github.com/aristath/finlens/pkg/formulas"
)

// PriceSource fetches daily close history for a symbol
type PriceSource interface {
	FetchPriceHistory(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
}

// SimulateRequest describes one optimization run
type SimulateRequest struct {
	Symbols       []string
	Start         time.Time
	End           time.Time
	NAV           float64
	NumPortfolios int
	RiskFreeRate  *float64
	Seed          *uint64
	KeepTrials    bool
}

// Run is a completed optimization
type Run struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Result      *SimulationResult `json:"result"`
	Stacked     StackedSeries     `json:"stacked"`
	Correlation [][]float64       `json:"correlation,omitempty"` // daily log returns, indexed like Result.Symbols
	Skipped     map[string]string `json:"skipped,omitempty"`     // symbol -> reason
}

// TechnicalReport is the risk and indicator view of a single symbol
type TechnicalReport struct {
	Symbol       string                      `json:"symbol"`
	Observations int                         `json:"observations"`
	Snapshot     *formulas.TechnicalSnapshot `json:"snapshot"`
	Drawdown     *formulas.DrawdownMetrics   `json:"drawdown"`
	Sharpe       *float64                    `json:"sharpe"`
	Sortino      *float64                    `json:"sortino"`
	Volatility   float64                     `json:"volatility"`
}

// Service loads prices and runs the optimizer
type Service struct {
	prices       PriceSource
	memo         *memo.Memoizer
	riskFreeRate float64
	numTrials    int
	maxTrials    int
	log          zerolog.Logger
}

// NewService creates a new optimization service
func NewService(prices PriceSource, memoizer *memo.Memoizer, riskFreeRate float64, numTrials int, log zerolog.Logger) *Service {
	return &Service{
		prices:       prices,
		memo:         memoizer,
		riskFreeRate: riskFreeRate,
		numTrials:    numTrials,
		maxTrials:    MaxNumPortfolios,
		log:          log.With().Str("service", "optimization").Logger(),
	}
}

// SetMaxPortfolios changes the per-run trial limit. n <= 0 restores MaxNumPortfolios.
func (s *Service) SetMaxPortfolios(n int) {
	if n <= 0 {
		n = MaxNumPortfolios
	}
	s.maxTrials = n
}

// LoadMatrix fetches and aligns the symbols' closes.
// Symbols without at least two prices are reported in skipped instead of failing the batch.
func (s *Service) LoadMatrix(ctx context.Context, symbols []string, start, end time.Time) (domain.PriceMatrix, map[string]string, error) {
	skipped := make(map[string]string)
	var series []domain.PriceSeries

	for _, raw := range symbols {
		symbol := domain.NormalizeSymbol(raw)
		if symbol == "" {
			continue
		}

		ps, err := memo.Do(ctx, s.memo, "optimization.priceHistory", []interface{}{symbol, start, end},
			func(ctx context.Context) (domain.PriceSeries, error) {
				return s.prices.FetchPriceHistory(ctx, symbol, start, end)
			})
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Str("kind", domain.KindOf(err).String()).Msg("Skipping symbol")
			skipped[symbol] = domain.KindOf(err).String()
			continue
		}
		if ps.Len() < 2 {
			skipped[symbol] = domain.KindInsufficientData.String()
			continue
		}
		series = append(series, ps)
	}

	if len(series) == 0 {
		return domain.PriceMatrix{}, skipped, domain.InsufficientData("loadMatrix", "no symbol has enough price history")
	}

	m := domain.AlignSeries(series)
	s.log.Debug().
		Int("symbols", len(m.Symbols)).
		Int("rows", m.NumRows()).
		Int("skipped", len(skipped)).
		Msg("Aligned price matrix")

	return m, skipped, nil
}

// Stats computes annualized statistics for the symbols over [start, end]
func (s *Service) Stats(ctx context.Context, symbols []string, start, end time.Time) ([]SymbolStats, map[string]string, error) {
	m, skipped, err := s.LoadMatrix(ctx, symbols, start, end)
	if err != nil {
		return nil, skipped, err
	}
	stats, err := ComputeAnnualizedStats(m, DefaultPeriodsPerYear)
	return stats, skipped, err
}

// Simulate runs the Monte-Carlo search for req
func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (*Run, error) {
	if len(req.Symbols) == 0 {
		return nil, domain.InsufficientData("simulate", "no symbols requested")
	}
	if req.NumPortfolios > s.maxTrials {
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", ErrTooManyPortfolios, req.NumPortfolios, s.maxTrials)
	}
	defer utils.OperationTimer("optimization.simulate", s.log)()

	s.log.Info().
		Strs("symbols", req.Symbols).
		Float64("nav", req.NAV).
		Msg("Starting portfolio simulation")

	m, skipped, err := s.LoadMatrix(ctx, req.Symbols, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	opts := DefaultSimulationOptions()
	opts.NAV = req.NAV
	opts.NumPortfolios = min(s.numTrials, s.maxTrials)
	opts.RiskFreeRate = s.riskFreeRate
	opts.KeepTrials = req.KeepTrials
	if req.NumPortfolios > 0 {
		opts.NumPortfolios = req.NumPortfolios
	}
	if req.RiskFreeRate != nil {
		opts.RiskFreeRate = *req.RiskFreeRate
	}
	if req.Seed != nil {
		opts.Rand = NewSeededRand(*req.Seed)
	}

	result, err := SimulatePortfolios(m.Symbols, m, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate portfolios: %w", err)
	}

	run := &Run{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Start:     req.Start,
		End:       req.End,
		Result:    result,
		Stacked:   StackedWeights(result.Allocations),
	}
	if len(skipped) > 0 {
		run.Skipped = skipped
	}
	if corr, err := ComputeCorrelations(m); err == nil {
		run.Correlation = corr
	}

	optimal, _ := result.Allocation(MaxSharpe)
	s.log.Info().
		Str("run_id", run.ID).
		Int("trials", opts.NumPortfolios).
		Float64("optimal_return", optimal.ExpectedReturn).
		Float64("optimal_volatility", optimal.ExpectedVolatility).
		Msg("Portfolio simulation completed")

	return run, nil
}

// Technical builds the indicator and risk report for one symbol
func (s *Service) Technical(ctx context.Context, symbol string, start, end time.Time) (*TechnicalReport, error) {
	m, _, err := s.LoadMatrix(ctx, []string{symbol}, start, end)
	if err != nil {
		return nil, err
	}

	closes := m.Column(0)
	returns := formulas.CalculateReturns(closes)

	return &TechnicalReport{
		Symbol:       m.Symbols[0],
		Observations: len(closes),
		Snapshot:     formulas.CalculateTechnicalSnapshot(closes),
		Drawdown:     formulas.CalculateDrawdownMetrics(closes),
		Sharpe:       formulas.CalculateSharpeRatio(returns, s.riskFreeRate, DefaultPeriodsPerYear),
		Sortino:      formulas.CalculateSortinoRatio(returns, s.riskFreeRate, 0, DefaultPeriodsPerYear),
		Volatility:   formulas.AnnualizedVolatility(returns),
	}, nil
}

// ChainedPriceSource asks each source in turn and returns the first non-empty series
type ChainedPriceSource struct {
	sources []PriceSource
	log     zerolog.Logger
}

// NewChainedPriceSource creates a fallback chain; nil sources are ignored
func NewChainedPriceSource(log zerolog.Logger, sources ...PriceSource) *ChainedPriceSource {
	c := &ChainedPriceSource{log: log.With().Str("component", "price_source").Logger()}
	for _, src := range sources {
		if src != nil {
			c.sources = append(c.sources, src)
		}
	}
	return c
}

// FetchPriceHistory implements PriceSource
func (c *ChainedPriceSource) FetchPriceHistory(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	var errs []error
	for i, src := range c.sources {
		ps, err := src.FetchPriceHistory(ctx, symbol, start, end)
		if err != nil {
			errs = append(errs, err)
			c.log.Debug().Err(err).Int("source", i).Str("symbol", symbol).Msg("Price source failed, trying next")
			continue
		}
		if ps.Len() > 0 {
			return ps, nil
		}
	}

	if len(errs) > 0 {
		return domain.PriceSeries{Symbol: symbol}, domain.ProviderFailure("fetchPriceHistory", errors.Join(errs...))
	}
	return domain.PriceSeries{Symbol: symbol}, nil
}
