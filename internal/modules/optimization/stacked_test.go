package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackedWeights(t *testing.T) {
	allocations := []Allocation{
		{
			Label: "Optimal",
			Positions: []Position{
				{Symbol: "FPT", Amount: 600},
				{Symbol: "VNM", Amount: 400},
			},
		},
		{
			Label: "Defensive",
			Positions: []Position{
				{Symbol: "FPT", Amount: 250},
				{Symbol: "VNM", Amount: 750},
			},
		},
		{
			Label: "Empty",
			Positions: []Position{
				{Symbol: "FPT", Amount: 0},
				{Symbol: "VNM", Amount: 0},
			},
		},
	}

	series := StackedWeights(allocations)

	assert.Equal(t, []string{"Optimal", "Defensive", "Empty"}, series.Labels)
	assert.Equal(t, []string{"FPT", "VNM"}, series.Symbols)
	require.Len(t, series.Percent, 3)
	assert.InDeltaSlice(t, []float64{60, 40}, series.Percent[0], 1e-9)
	assert.InDeltaSlice(t, []float64{25, 75}, series.Percent[1], 1e-9)
	assert.Equal(t, []float64{0, 0}, series.Percent[2])
}

func TestStackedWeights_Empty(t *testing.T) {
	series := StackedWeights(nil)
	assert.Empty(t, series.Labels)
	assert.Empty(t, series.Percent)
}
