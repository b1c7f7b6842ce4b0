package formulas

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown     float64 `json:"max_drawdown"`     // Positive fraction, 0.25 = 25% below peak
	CurrentDrawdown float64 `json:"current_drawdown"` // Current distance from peak
	DaysInDrawdown  int     `json:"days_in_drawdown"` // Observations since peak
	PeakValue       float64 `json:"peak_value"`
	CurrentValue    float64 `json:"current_value"`
}

// CalculateDrawdownMetrics calculates max and current drawdown plus time since peak
func CalculateDrawdownMetrics(prices []float64) *DrawdownMetrics {
	if len(prices) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := prices[0]
	peakIndex := 0

	for i, price := range prices {
		if price > peak {
			peak = price
			peakIndex = i
		}
		if peak > 0 {
			if drawdown := (peak - price) / peak; drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	currentValue := prices[len(prices)-1]
	currentDrawdown := 0.0
	if peak > 0 {
		currentDrawdown = (peak - currentValue) / peak
	}

	return &DrawdownMetrics{
		MaxDrawdown:     maxDrawdown,
		CurrentDrawdown: currentDrawdown,
		DaysInDrawdown:  len(prices) - 1 - peakIndex,
		PeakValue:       peak,
		CurrentValue:    currentValue,
	}
}
