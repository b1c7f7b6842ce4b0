package optimization

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/pkg/formulas"
)

// Strategy identifies one of the reference portfolios picked from a simulation
type Strategy string

const (
	MaxSharpe Strategy = "max_sharpe"
	MaxReturn Strategy = "max_return"
	MinRisk   Strategy = "min_risk"
)

// Strategies lists the reference portfolios in presentation order
var Strategies = []Strategy{MaxSharpe, MaxReturn, MinRisk}

// Label returns the display name of the strategy
func (s Strategy) Label() string {
	switch s {
	case MaxSharpe:
		return "Optimal"
	case MaxReturn:
		return "Aggressive"
	case MinRisk:
		return "Defensive"
	default:
		return string(s)
	}
}

// Simulation defaults
const (
	DefaultNumPortfolios = 1000
	DefaultRiskFreeRate  = 0.05
	// MaxNumPortfolios bounds a single run unless the service is configured otherwise
	MaxNumPortfolios = 100000
)

// ErrTooManyPortfolios is returned when a run asks for more trials than allowed
var ErrTooManyPortfolios = errors.New("too many portfolios requested")

// SimulationOptions controls SimulatePortfolios
type SimulationOptions struct {
	NumPortfolios  int
	RiskFreeRate   float64
	NAV            float64
	PeriodsPerYear int
	// Rand is the weight source. nil draws from a randomly seeded generator.
	Rand *rand.Rand
	// KeepTrials retains every sampled point in the result.
	KeepTrials bool
}

// DefaultSimulationOptions returns 1000 trials at a 5% risk-free rate and NAV 1
func DefaultSimulationOptions() SimulationOptions {
	return SimulationOptions{
		NumPortfolios:  DefaultNumPortfolios,
		RiskFreeRate:   DefaultRiskFreeRate,
		NAV:            1,
		PeriodsPerYear: DefaultPeriodsPerYear,
	}
}

// NewSeededRand returns a deterministic weight source
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Trial is one sampled portfolio on the risk/return plane
type Trial struct {
	Weights            []float64 `json:"weights"`
	ExpectedReturn     float64   `json:"expected_return"`
	ExpectedVolatility float64   `json:"expected_volatility"`
	Sharpe             float64   `json:"sharpe"`
}

// Position is one symbol's share of an allocation
type Position struct {
	Symbol        string  `json:"symbol"`
	Weight        float64 `json:"weight"`         // Raw weight, positions sum to 1
	RoundedWeight float64 `json:"rounded_weight"` // Weight rounded to 2 decimals
	Amount        float64 `json:"amount"`         // RoundedWeight × NAV
}

// Allocation is a reference portfolio selected from the trials
type Allocation struct {
	Strategy           Strategy   `json:"strategy"`
	Label              string     `json:"label"`
	Positions          []Position `json:"positions"`
	ExpectedReturn     float64    `json:"expected_return"`
	ExpectedVolatility float64    `json:"expected_volatility"`
	Sharpe             float64    `json:"sharpe"`
	TrialIndex         int        `json:"trial_index"`
}

// Weights returns the raw weights keyed by symbol
func (a Allocation) Weights() map[string]float64 {
	out := make(map[string]float64, len(a.Positions))
	for _, p := range a.Positions {
		out[p.Symbol] = p.Weight
	}
	return out
}

// Amounts returns the NAV-scaled amounts keyed by symbol
func (a Allocation) Amounts() map[string]float64 {
	out := make(map[string]float64, len(a.Positions))
	for _, p := range a.Positions {
		out[p.Symbol] = p.Amount
	}
	return out
}

// SharpeSummary describes the distribution of finite trial Sharpe ratios
type SharpeSummary struct {
	Finite int     `json:"finite"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	P5     float64 `json:"p5"`
	P95    float64 `json:"p95"`
}

// SimulationResult holds the three reference portfolios of a run
type SimulationResult struct {
	Symbols     []string      `json:"symbols"`
	NAV         float64       `json:"nav"`
	Stats       []SymbolStats `json:"stats"`
	Allocations []Allocation  `json:"allocations"`
	Summary     SharpeSummary `json:"summary"`
	Trials      []Trial       `json:"trials,omitempty"`
}

// Allocation returns the portfolio selected for strategy s
func (r *SimulationResult) Allocation(s Strategy) (Allocation, bool) {
	for _, a := range r.Allocations {
		if a.Strategy == s {
			return a, true
		}
	}
	return Allocation{}, false
}

// SimulatePortfolios searches random weight vectors and selects the maximum
// Sharpe, maximum return and minimum volatility portfolios.
//
// Each trial draws independent uniform weights and normalizes them to sum to 1.
// This is not uniform over the simplex and favors balanced portfolios.
//
//	expectedReturn     = Σ w_i × annualReturn_i
//	expectedVolatility = sqrt(wᵀ (Cov(daily log returns) × periodsPerYear) w)
//	sharpe             = (expectedReturn - riskFreeRate) / expectedVolatility
//
// expectedReturn comes from the per-symbol annualized returns while the
// volatility comes from the scaled daily covariance. Zero volatility yields an
// infinite or NaN Sharpe ratio, which callers must guard before display.
func SimulatePortfolios(symbols []string, m domain.PriceMatrix, opts SimulationOptions) (*SimulationResult, error) {
	if len(symbols) == 0 {
		symbols = m.Symbols
	}
	if len(symbols) == 0 {
		return nil, domain.InsufficientData("simulatePortfolios", "no symbols")
	}
	if len(symbols) != len(m.Symbols) {
		return nil, fmt.Errorf("simulatePortfolios: %d symbols for %d price columns", len(symbols), len(m.Symbols))
	}
	if opts.NumPortfolios <= 0 {
		opts.NumPortfolios = DefaultNumPortfolios
	}
	if opts.PeriodsPerYear <= 0 {
		opts.PeriodsPerYear = DefaultPeriodsPerYear
	}
	if opts.NAV <= 0 {
		opts.NAV = 1
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	symbolStats, err := ComputeAnnualizedStats(m, opts.PeriodsPerYear)
	if err != nil {
		return nil, err
	}

	cov := annualizedCovariance(logReturnMatrix(m), float64(opts.PeriodsPerYear))

	n := len(symbols)
	annualReturns := make([]float64, n)
	for j, s := range symbolStats {
		annualReturns[j] = s.AnnualReturn
	}

	// Only the extremal trials and the Sharpe values are retained unless every
	// trial is asked for.
	var trials []Trial
	if opts.KeepTrials {
		trials = make([]Trial, 0, opts.NumPortfolios)
	}
	sharpes := make([]float64, opts.NumPortfolios)
	var best [3]Trial
	var bestIndex [3]int
	for i := 0; i < opts.NumPortfolios; i++ {
		t := evaluate(drawWeights(rng, n), annualReturns, cov, opts.RiskFreeRate)
		sharpes[i] = t.Sharpe
		if opts.KeepTrials {
			trials = append(trials, t)
		}
		if i == 0 {
			best = [3]Trial{t, t, t}
			continue
		}
		if greater(t.Sharpe, best[0].Sharpe) {
			best[0], bestIndex[0] = t, i
		}
		if greater(t.ExpectedReturn, best[1].ExpectedReturn) {
			best[1], bestIndex[1] = t, i
		}
		if greater(-t.ExpectedVolatility, -best[2].ExpectedVolatility) {
			best[2], bestIndex[2] = t, i
		}
	}

	result := &SimulationResult{
		Symbols: symbols,
		NAV:     opts.NAV,
		Stats:   symbolStats,
		Summary: summarizeSharpe(sharpes),
	}
	for k, strategy := range []Strategy{MaxSharpe, MaxReturn, MinRisk} {
		result.Allocations = append(result.Allocations, buildAllocation(strategy, bestIndex[k], best[k], symbols, opts.NAV))
	}
	if opts.KeepTrials {
		result.Trials = trials
	}

	return result, nil
}

// annualizedCovariance returns Cov(returns) × periodsPerYear
func annualizedCovariance(returns [][]float64, periodsPerYear float64) *mat.SymDense {
	n := len(returns)
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, formulas.Variance(returns[i])*periodsPerYear)
		for j := i + 1; j < n; j++ {
			cov.SetSym(i, j, formulas.Covariance(returns[i], returns[j])*periodsPerYear)
		}
	}
	return cov
}

func drawWeights(rng *rand.Rand, n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}

	sum := 0.0
	for i := range w {
		w[i] = rng.Float64()
		sum += w[i]
	}
	if sum == 0 {
		for i := range w {
			w[i] = 1 / float64(n)
		}
		return w
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func evaluate(w, annualReturns []float64, cov *mat.SymDense, riskFreeRate float64) Trial {
	expReturn := 0.0
	for i, wi := range w {
		expReturn += wi * annualReturns[i]
	}

	v := mat.NewVecDense(len(w), w)
	variance := mat.Inner(v, cov, v)
	vol := math.Sqrt(math.Max(variance, 0))

	return Trial{
		Weights:            w,
		ExpectedReturn:     expReturn,
		ExpectedVolatility: vol,
		Sharpe:             (expReturn - riskFreeRate) / vol,
	}
}

// greater orders NaN below every other value
func greater(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}

func buildAllocation(s Strategy, index int, t Trial, symbols []string, nav float64) Allocation {
	navDec := decimal.NewFromFloat(nav)
	positions := make([]Position, len(symbols))
	for i, symbol := range symbols {
		rounded := decimal.NewFromFloat(t.Weights[i]).Round(2)
		positions[i] = Position{
			Symbol:        symbol,
			Weight:        t.Weights[i],
			RoundedWeight: rounded.InexactFloat64(),
			Amount:        rounded.Mul(navDec).Round(2).InexactFloat64(),
		}
	}

	return Allocation{
		Strategy:           s,
		Label:              s.Label(),
		Positions:          positions,
		ExpectedReturn:     t.ExpectedReturn,
		ExpectedVolatility: t.ExpectedVolatility,
		Sharpe:             t.Sharpe,
		TrialIndex:         index,
	}
}

func summarizeSharpe(sharpes []float64) SharpeSummary {
	finite := make([]float64, 0, len(sharpes))
	for _, v := range sharpes {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}

	summary := SharpeSummary{Finite: len(finite)}
	if len(finite) == 0 {
		return summary
	}

	summary.Mean, _ = stats.Mean(finite)
	summary.Median, _ = stats.Median(finite)
	summary.P5, _ = stats.Percentile(finite, 5)
	summary.P95, _ = stats.Percentile(finite, 95)
	if len(finite) > 1 {
		summary.StdDev, _ = stats.StandardDeviationSample(finite)
	}
	return summary
}
