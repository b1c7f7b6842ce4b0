// Package optimization provides the annualized risk/return statistics and the
// Monte-Carlo portfolio weight search.
package optimization

import (
	"math"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/pkg/formulas"
)

// DefaultPeriodsPerYear annualizes daily observations
const DefaultPeriodsPerYear = formulas.TradingDaysPerYear

// SymbolStats are the annualized statistics of one column of a price matrix
type SymbolStats struct {
	Symbol       string  `json:"symbol"`
	Observations int     `json:"observations"`
	DailyMean    float64 `json:"daily_mean"`
	DailyStd     float64 `json:"daily_std"`
	AnnualReturn float64 `json:"annual_return"`
	AnnualRisk   float64 `json:"annual_risk"`
	Sharpe       float64 `json:"sharpe"`
}

// ComputeAnnualizedStats computes per-symbol annualized return, risk and Sharpe.
//
//	r_t          = ln(p_t / p_{t-1})
//	annualReturn = (1 + mean(r))^periodsPerYear - 1
//	annualRisk   = sqrt(std(r)) * sqrt(periodsPerYear)
//	sharpe       = annualReturn / annualRisk, 0 when annualRisk is 0
//
// The risk formula takes the square root of the daily standard deviation, not of
// the variance. It is kept as-is so results match the figures analysts already use.
//
// Returns a KindInsufficientData error when the matrix has fewer than two rows.
func ComputeAnnualizedStats(m domain.PriceMatrix, periodsPerYear int) ([]SymbolStats, error) {
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}
	if m.NumRows() < 2 {
		return nil, domain.InsufficientData("computeAnnualizedStats", "need at least 2 aligned price rows, got %d", m.NumRows())
	}

	ppy := float64(periodsPerYear)
	stats := make([]SymbolStats, len(m.Symbols))
	for j, symbol := range m.Symbols {
		returns := formulas.CalculateLogReturns(m.Column(j))
		dailyMean := formulas.Mean(returns)
		dailyStd := formulas.StdDev(returns)

		annualReturn := math.Pow(1+dailyMean, ppy) - 1
		annualRisk := math.Sqrt(dailyStd) * math.Sqrt(ppy)

		sharpe := 0.0
		if annualRisk != 0 {
			sharpe = annualReturn / annualRisk
		}

		stats[j] = SymbolStats{
			Symbol:       symbol,
			Observations: len(returns),
			DailyMean:    dailyMean,
			DailyStd:     dailyStd,
			AnnualReturn: annualReturn,
			AnnualRisk:   annualRisk,
			Sharpe:       sharpe,
		}
	}

	return stats, nil
}

// ComputeCorrelations returns the pairwise Pearson correlation of the symbols'
// daily log returns, indexed like m.Symbols. The diagonal is 1.
func ComputeCorrelations(m domain.PriceMatrix) ([][]float64, error) {
	if m.NumRows() < 3 {
		return nil, domain.InsufficientData("computeCorrelations", "need at least 3 aligned price rows, got %d", m.NumRows())
	}

	returns := logReturnMatrix(m)
	n := len(returns)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		out[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := formulas.Correlation(returns[i], returns[j])
			if math.IsNaN(c) {
				c = 0
			}
			out[i][j], out[j][i] = c, c
		}
	}
	return out, nil
}

// logReturnMatrix returns the log returns of every column, one slice per symbol
func logReturnMatrix(m domain.PriceMatrix) [][]float64 {
	out := make([][]float64, len(m.Symbols))
	for j := range m.Symbols {
		out[j] = formulas.CalculateLogReturns(m.Column(j))
	}
	return out
}
