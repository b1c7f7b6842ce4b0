package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/modules/optimization"
	"github.com/aristath/finlens/internal/modules/scoring"
)

var pngMagic = []byte("\x89PNG")

func score(v float64) *float64 { return &v }

func TestWeightsChart(t *testing.T) {
	svc := NewService(zerolog.Nop())

	png, err := svc.WeightsChart(optimization.StackedSeries{
		Labels:  []string{"Optimal", "Aggressive", "Defensive"},
		Symbols: []string{"FPT", "VNM"},
		Percent: [][]float64{{60, 40}, {90, 10}, {30, 70}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestWeightsChart_Invalid(t *testing.T) {
	svc := NewService(zerolog.Nop())

	_, err := svc.WeightsChart(optimization.StackedSeries{})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = svc.WeightsChart(optimization.StackedSeries{
		Labels:  []string{"Optimal", "Aggressive"},
		Symbols: []string{"FPT"},
		Percent: [][]float64{{100}},
	})
	assert.Error(t, err)
}

func TestScoreChart(t *testing.T) {
	svc := NewService(zerolog.Nop())
	records := []scoring.ScoreRecord{
		{FiscalYear: 2021, Model: scoring.ModelFScore, Score: score(5)},
		{FiscalYear: 2022, Model: scoring.ModelFScore, ErrorKind: domain.KindDegenerateRatio},
		{FiscalYear: 2023, Model: scoring.ModelFScore, Score: score(7)},
		{FiscalYear: 2023, Model: scoring.ModelZScore, Score: score(2.4)},
	}

	png, err := svc.ScoreChart("vnm", scoring.ModelFScore, records)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	_, err = svc.ScoreChart("vnm", scoring.ModelMScore, records)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestPriceChart(t *testing.T) {
	svc := NewService(zerolog.Nop())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, 60)
	for i := range points {
		points[i] = domain.PricePoint{Date: start.AddDate(0, 0, i), Close: 100 + float64(i%7)}
	}

	png, err := svc.PriceChart(domain.NewPriceSeries("FPT", points))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	_, err = svc.PriceChart(domain.NewPriceSeries("FPT", points[:1]))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestBounds(t *testing.T) {
	lo, hi := bounds([]float64{10, 20, 15})
	assert.InDelta(t, 9.5, lo, 1e-9)
	assert.InDelta(t, 20.5, hi, 1e-9)

	lo, hi = bounds([]float64{100, 100})
	assert.InDelta(t, 95, lo, 1e-9)
	assert.InDelta(t, 105, hi, 1e-9)
}
