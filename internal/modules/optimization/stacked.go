package optimization

// StackedSeries is chart-ready percent-of-total data, one row per strategy
type StackedSeries struct {
	Labels  []string    `json:"labels"`
	Symbols []string    `json:"symbols"`
	Percent [][]float64 `json:"percent"` // Percent[strategy][symbol]
}

// StackedWeights converts allocations into the percentage each symbol
// contributes to its strategy's total amount. Symbols are taken from the first
// allocation. A strategy whose amounts sum to zero yields a row of zeros.
func StackedWeights(allocations []Allocation) StackedSeries {
	out := StackedSeries{}
	if len(allocations) == 0 {
		return out
	}

	for _, p := range allocations[0].Positions {
		out.Symbols = append(out.Symbols, p.Symbol)
	}

	for _, a := range allocations {
		out.Labels = append(out.Labels, a.Label)

		amounts := a.Amounts()
		total := 0.0
		for _, symbol := range out.Symbols {
			total += amounts[symbol]
		}

		row := make([]float64, len(out.Symbols))
		if total != 0 {
			for i, symbol := range out.Symbols {
				row[i] = amounts[symbol] / total * 100
			}
		}
		out.Percent = append(out.Percent, row)
	}

	return out
}
