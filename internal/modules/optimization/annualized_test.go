package optimization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/finlens/internal/domain"
)

func TestComputeAnnualizedStats_HigherDriftHasHigherReturn(t *testing.T) {
	m := domain.NewPriceMatrixFromColumns(
		[]string{"AAA", "BBB"},
		[][]float64{{100, 102, 101, 105}, {50, 49, 52, 51}},
	)

	stats, err := ComputeAnnualizedStats(m, 252)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "AAA", stats[0].Symbol)
	assert.Equal(t, 3, stats[0].Observations)
	assert.Greater(t, stats[0].AnnualReturn, stats[1].AnnualReturn)
}

func TestComputeAnnualizedStats_Formula(t *testing.T) {
	prices := []float64{100, 102, 101, 105}
	m := domain.NewPriceMatrixFromColumns([]string{"AAA"}, [][]float64{prices})

	stats, err := ComputeAnnualizedStats(m, 252)
	require.NoError(t, err)

	r := []float64{math.Log(102.0 / 100), math.Log(101.0 / 102), math.Log(105.0 / 101)}
	mean := (r[0] + r[1] + r[2]) / 3
	ss := 0.0
	for _, x := range r {
		ss += (x - mean) * (x - mean)
	}
	std := math.Sqrt(ss / 2)

	expectedReturn := math.Pow(1+mean, 252) - 1
	expectedRisk := math.Sqrt(std) * math.Sqrt(252)

	assert.InDelta(t, mean, stats[0].DailyMean, 1e-12)
	assert.InDelta(t, std, stats[0].DailyStd, 1e-12)
	assert.InDelta(t, expectedReturn, stats[0].AnnualReturn, 1e-9)
	assert.InDelta(t, expectedRisk, stats[0].AnnualRisk, 1e-9)
	assert.InDelta(t, expectedReturn/expectedRisk, stats[0].Sharpe, 1e-9)
}

func TestComputeAnnualizedStats_FlatPricesHaveZeroSharpe(t *testing.T) {
	m := domain.NewPriceMatrixFromColumns([]string{"FLAT"}, [][]float64{{10, 10, 10, 10}})

	stats, err := ComputeAnnualizedStats(m, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats[0].AnnualRisk)
	assert.Equal(t, 0.0, stats[0].Sharpe)
	assert.Equal(t, 0.0, stats[0].AnnualReturn)
}

func TestComputeAnnualizedStats_InsufficientData(t *testing.T) {
	tests := []struct {
		name    string
		columns [][]float64
	}{
		{"no rows", [][]float64{{}}},
		{"single row", [][]float64{{100}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := domain.NewPriceMatrixFromColumns([]string{"AAA"}, tt.columns)
			_, err := ComputeAnnualizedStats(m, 252)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInsufficientData)
			assert.Equal(t, domain.KindInsufficientData, domain.KindOf(err))
		})
	}
}

func TestComputeCorrelations(t *testing.T) {
	m := domain.NewPriceMatrixFromColumns(
		[]string{"AAA", "DBL", "FLAT"},
		[][]float64{
			{100, 102, 101, 105, 104},
			{200, 204, 202, 210, 208},
			{10, 10, 10, 10, 10},
		},
	)

	corr, err := ComputeCorrelations(m)
	require.NoError(t, err)
	require.Len(t, corr, 3)

	for i := range corr {
		assert.Equal(t, 1.0, corr[i][i])
	}
	assert.InDelta(t, 1.0, corr[0][1], 1e-9)
	assert.Equal(t, corr[0][1], corr[1][0])
	// a constant series has no variance to correlate against
	assert.Equal(t, 0.0, corr[0][2])

	_, err = ComputeCorrelations(domain.NewPriceMatrixFromColumns([]string{"AAA"}, [][]float64{{1, 2}}))
	assert.Equal(t, domain.KindInsufficientData, domain.KindOf(err))
}

func TestAnnualizedCovariance_MatchesGonum(t *testing.T) {
	returns := [][]float64{
		{0.01, -0.02, 0.015, 0.003},
		{0.02, -0.01, 0.005, -0.004},
	}

	data := mat.NewDense(4, 2, nil)
	for j, col := range returns {
		for i, r := range col {
			data.Set(i, j, r)
		}
	}
	want := mat.NewSymDense(2, nil)
	stat.CovarianceMatrix(want, data, nil)
	want.ScaleSym(252, want)

	got := annualizedCovariance(returns, 252)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}
