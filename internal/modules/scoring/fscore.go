package scoring

import "github.com/aristath/finlens/internal/domain"

// F-Score signal names
const (
	SignalROAPositive       = "roa_positive"
	SignalROAImproved       = "roa_improved"
	SignalCFOPositive       = "cfo_positive"
	SignalCFOExceedsROA     = "cfo_exceeds_roa"
	SignalLeverageDecreased = "leverage_decreased"
	SignalCurrentRatioUp    = "current_ratio_improved"
	SignalNoNewShares       = "no_new_shares"
	SignalGrossMarginUp     = "gross_margin_improved"
	SignalAssetTurnoverUp   = "asset_turnover_improved"
)

// ComputeFScore computes the Piotroski F-Score: the count of nine binary
// signals, 0 to 9. Classification is strong (>=7), moderate (4-6) or weak (<=3).
func ComputeFScore(yearIndex int, s domain.Statements) (Result, error) {
	cur, prev, err := years(ModelFScore, yearIndex, s, true)
	if err != nil {
		return Result{}, err
	}

	c := newCalc(ModelFScore)
	assets, assetsPrev := c.item(cur, domain.ItemTotalAssets), c.item(prev, domain.ItemTotalAssets)
	revenue, revenuePrev := c.item(cur, domain.ItemRevenue), c.item(prev, domain.ItemRevenue)

	roa := c.div(c.item(cur, domain.ItemNetProfit), assets, "roa")
	roaPrev := c.div(c.item(prev, domain.ItemNetProfit), assetsPrev, "prior roa")
	cfo := c.item(cur, domain.ItemOperatingCashFlow)
	cfoToAssets := c.div(cfo, assets, "cfo/assets")

	leverage := c.div(c.item(cur, domain.ItemTotalLiabilities), assets, "leverage")
	leveragePrev := c.div(c.item(prev, domain.ItemTotalLiabilities), assetsPrev, "prior leverage")

	currentRatio := c.div(c.item(cur, domain.ItemCurrentAssets), c.item(cur, domain.ItemCurrentLiabilities), "current ratio")
	currentRatioPrev := c.div(c.item(prev, domain.ItemCurrentAssets), c.item(prev, domain.ItemCurrentLiabilities), "prior current ratio")

	shares, sharesPrev := c.item(cur, domain.ItemSharesOutstanding), c.item(prev, domain.ItemSharesOutstanding)

	grossMargin := c.div(c.grossProfit(cur), revenue, "gross margin")
	grossMarginPrev := c.div(c.grossProfit(prev), revenuePrev, "prior gross margin")

	turnover := c.div(revenue, assets, "asset turnover")
	turnoverPrev := c.div(revenuePrev, assetsPrev, "prior asset turnover")

	if c.err != nil {
		return Result{}, c.err
	}

	components := map[string]float64{
		SignalROAPositive:       flag(roa > 0),
		SignalROAImproved:       flag(roa > roaPrev),
		SignalCFOPositive:       flag(cfo > 0),
		SignalCFOExceedsROA:     flag(cfoToAssets > roa),
		SignalLeverageDecreased: flag(leverage < leveragePrev),
		SignalCurrentRatioUp:    flag(currentRatio > currentRatioPrev),
		SignalNoNewShares:       flag(shares <= sharesPrev),
		SignalGrossMarginUp:     flag(grossMargin > grossMarginPrev),
		SignalAssetTurnoverUp:   flag(turnover > turnoverPrev),
	}
	score := sum(components)

	return Result{
		Score:          score,
		Components:     components,
		Classification: ClassifyFScore(score),
	}, nil
}

// ClassifyFScore buckets an F-Score
func ClassifyFScore(score float64) string {
	switch {
	case score >= 7:
		return "strong"
	case score >= 4:
		return "moderate"
	default:
		return "weak"
	}
}
