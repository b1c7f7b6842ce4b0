package scoring

import "github.com/aristath/finlens/internal/domain"

// Z-Score components
const (
	ZWorkingCapital    = "working_capital_to_assets"
	ZRetainedEarnings  = "retained_earnings_to_assets"
	ZEBIT              = "ebit_to_assets"
	ZEquityLiabilities = "equity_to_liabilities"
	ZSales             = "sales_to_assets"
)

// zTerms are the coefficients of Z = 1.2A + 1.4B + 3.3C + 0.6D + 1.0E
var zTerms = []struct {
	component string
	weight    float64
}{
	{ZWorkingCapital, 1.2},
	{ZRetainedEarnings, 1.4},
	{ZEBIT, 3.3},
	{ZEquityLiabilities, 0.6},
	{ZSales, 1.0},
}

// Z-Score zone boundaries
const (
	ZDistressBelow = 1.81
	ZSafeAbove     = 2.99
)

// ComputeZScore computes the Altman Z-Score.
//
//	A = (current assets - current liabilities) / total assets
//	B = retained earnings / total assets
//	C = EBIT / total assets
//	D = owners' equity / total liabilities
//	E = revenue / total assets
//
// D uses book equity. Only the current year's figures enter the formula, but a
// prior year is still required so that every comparative model covers the same years.
func ComputeZScore(yearIndex int, s domain.Statements) (Result, error) {
	cur, _, err := years(ModelZScore, yearIndex, s, true)
	if err != nil {
		return Result{}, err
	}

	c := newCalc(ModelZScore)
	assets := c.item(cur, domain.ItemTotalAssets)
	workingCapital := c.item(cur, domain.ItemCurrentAssets) - c.item(cur, domain.ItemCurrentLiabilities)

	components := map[string]float64{
		ZWorkingCapital:    c.div(workingCapital, assets, "working capital/assets"),
		ZRetainedEarnings:  c.div(c.item(cur, domain.ItemRetainedEarnings), assets, "retained earnings/assets"),
		ZEBIT:              c.div(c.ebit(cur), assets, "ebit/assets"),
		ZEquityLiabilities: c.div(c.item(cur, domain.ItemEquity), c.item(cur, domain.ItemTotalLiabilities), "equity/liabilities"),
		ZSales:             c.div(c.item(cur, domain.ItemRevenue), assets, "sales/assets"),
	}
	if c.err != nil {
		return Result{}, c.err
	}

	z := 0.0
	for _, term := range zTerms {
		z += term.weight * components[term.component]
	}

	return Result{
		Score:          z,
		Components:     components,
		Classification: ClassifyZScore(z),
	}, nil
}

// ClassifyZScore partitions Z into distress (< 1.81), grey (1.81 to 2.99) and safe (> 2.99)
func ClassifyZScore(z float64) string {
	switch {
	case z < ZDistressBelow:
		return "distress"
	case z <= ZSafeAbove:
		return "grey"
	default:
		return "safe"
	}
}
