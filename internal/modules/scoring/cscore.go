package scoring

import "github.com/aristath/finlens/internal/domain"

// C-Score red flags
const (
	FlagAccrualsExceedCFO = "accruals_exceed_cfo"
	FlagLeverageUp        = "leverage_increased"
	FlagLiquidityDown     = "liquidity_decreased"
	FlagSharesUp          = "share_count_increased"
	FlagGrossMarginDown   = "gross_margin_decreased"
)

// ComputeCScore counts five red flags, 0 to 5:
// net profit above operating cash flow, liabilities/assets up, current ratio
// down, shares outstanding up and gross margin down.
// Classification is low (<=1), medium (2-3) or high (>=4) risk.
func ComputeCScore(yearIndex int, s domain.Statements) (Result, error) {
	cur, prev, err := years(ModelCScore, yearIndex, s, true)
	if err != nil {
		return Result{}, err
	}

	c := newCalc(ModelCScore)
	netProfit := c.item(cur, domain.ItemNetProfit)
	cfo := c.item(cur, domain.ItemOperatingCashFlow)

	leverage := c.div(c.item(cur, domain.ItemTotalLiabilities), c.item(cur, domain.ItemTotalAssets), "leverage")
	leveragePrev := c.div(c.item(prev, domain.ItemTotalLiabilities), c.item(prev, domain.ItemTotalAssets), "prior leverage")

	liquidity := c.div(c.item(cur, domain.ItemCurrentAssets), c.item(cur, domain.ItemCurrentLiabilities), "current ratio")
	liquidityPrev := c.div(c.item(prev, domain.ItemCurrentAssets), c.item(prev, domain.ItemCurrentLiabilities), "prior current ratio")

	shares, sharesPrev := c.item(cur, domain.ItemSharesOutstanding), c.item(prev, domain.ItemSharesOutstanding)

	margin := c.div(c.grossProfit(cur), c.item(cur, domain.ItemRevenue), "gross margin")
	marginPrev := c.div(c.grossProfit(prev), c.item(prev, domain.ItemRevenue), "prior gross margin")

	if c.err != nil {
		return Result{}, c.err
	}

	components := map[string]float64{
		FlagAccrualsExceedCFO: flag(netProfit > cfo),
		FlagLeverageUp:        flag(leverage > leveragePrev),
		FlagLiquidityDown:     flag(liquidity < liquidityPrev),
		FlagSharesUp:          flag(shares > sharesPrev),
		FlagGrossMarginDown:   flag(margin < marginPrev),
	}
	score := sum(components)

	return Result{
		Score:          score,
		Components:     components,
		Classification: ClassifyCScore(score),
	}, nil
}

// ClassifyCScore buckets a C-Score into low, medium or high risk
func ClassifyCScore(score float64) string {
	switch {
	case score <= 1:
		return "low"
	case score <= 3:
		return "medium"
	default:
		return "high"
	}
}
