package scoring

import "github.com/aristath/finlens/internal/domain"

// Beneish sub-indices
const (
	MDSRI = "dsri"
	MGMI  = "gmi"
	MAQI  = "aqi"
	MSGI  = "sgi"
	MDEPI = "depi"
	MSGAI = "sgai"
	MTATA = "tata"
	MLVGI = "lvgi"
)

// MIntercept is the constant term of the eight-variable Beneish model
const MIntercept = -4.84

// MThreshold separates elevated from low manipulation risk
const MThreshold = -1.78

var mTerms = []struct {
	component string
	weight    float64
}{
	{MDSRI, 0.92},
	{MGMI, 0.528},
	{MAQI, 0.404},
	{MSGI, 0.892},
	{MDEPI, 0.115},
	{MSGAI, -0.172},
	{MTATA, 4.679},
	{MLVGI, -0.327},
}

// ComputeMScore computes the Beneish M-Score from eight year-over-year indices
// (t is the current year, t-1 the prior one):
//
//	DSRI = (receivables/revenue)_t / (receivables/revenue)_t-1
//	GMI  = gross margin_t-1 / gross margin_t
//	AQI  = (1 - (current assets + fixed assets)/total assets)_t / (same)_t-1
//	SGI  = revenue_t / revenue_t-1
//	DEPI = (dep/(dep + fixed assets))_t-1 / (dep/(dep + fixed assets))_t
//	SGAI = (SG&A/revenue)_t / (SG&A/revenue)_t-1
//	TATA = (net profit - operating cash flow)_t / total assets_t
//	LVGI = (liabilities/total assets)_t / (liabilities/total assets)_t-1
//
//	M = -4.84 + 0.92 DSRI + 0.528 GMI + 0.404 AQI + 0.892 SGI + 0.115 DEPI
//	    - 0.172 SGAI + 4.679 TATA - 0.327 LVGI
//
// M > -1.78 is classified as "elevated" manipulation risk, otherwise "low".
func ComputeMScore(yearIndex int, s domain.Statements) (Result, error) {
	cur, prev, err := years(ModelMScore, yearIndex, s, true)
	if err != nil {
		return Result{}, err
	}

	c := newCalc(ModelMScore)
	revenue, revenuePrev := c.item(cur, domain.ItemRevenue), c.item(prev, domain.ItemRevenue)
	assets, assetsPrev := c.item(cur, domain.ItemTotalAssets), c.item(prev, domain.ItemTotalAssets)
	fixed, fixedPrev := c.item(cur, domain.ItemFixedAssets), c.item(prev, domain.ItemFixedAssets)
	dep, depPrev := c.expense(cur, domain.ItemDepreciation), c.expense(prev, domain.ItemDepreciation)

	receivablesDays := c.div(c.item(cur, domain.ItemReceivables), revenue, "receivables/revenue")
	receivablesDaysPrev := c.div(c.item(prev, domain.ItemReceivables), revenuePrev, "prior receivables/revenue")

	margin := c.div(c.grossProfit(cur), revenue, "gross margin")
	marginPrev := c.div(c.grossProfit(prev), revenuePrev, "prior gross margin")

	quality := 1 - c.div(c.item(cur, domain.ItemCurrentAssets)+fixed, assets, "asset quality")
	qualityPrev := 1 - c.div(c.item(prev, domain.ItemCurrentAssets)+fixedPrev, assetsPrev, "prior asset quality")

	depRate := c.div(dep, dep+fixed, "depreciation rate")
	depRatePrev := c.div(depPrev, depPrev+fixedPrev, "prior depreciation rate")

	sga := c.div(c.expense(cur, domain.ItemSellingGeneralAdm), revenue, "sga/revenue")
	sgaPrev := c.div(c.expense(prev, domain.ItemSellingGeneralAdm), revenuePrev, "prior sga/revenue")

	leverage := c.div(c.item(cur, domain.ItemTotalLiabilities), assets, "leverage")
	leveragePrev := c.div(c.item(prev, domain.ItemTotalLiabilities), assetsPrev, "prior leverage")

	accruals := c.item(cur, domain.ItemNetProfit) - c.item(cur, domain.ItemOperatingCashFlow)

	components := map[string]float64{
		MDSRI: c.div(receivablesDays, receivablesDaysPrev, "dsri"),
		MGMI:  c.div(marginPrev, margin, "gmi"),
		MAQI:  c.div(quality, qualityPrev, "aqi"),
		MSGI:  c.div(revenue, revenuePrev, "sgi"),
		MDEPI: c.div(depRatePrev, depRate, "depi"),
		MSGAI: c.div(sga, sgaPrev, "sgai"),
		MTATA: c.div(accruals, assets, "tata"),
		MLVGI: c.div(leverage, leveragePrev, "lvgi"),
	}
	if c.err != nil {
		return Result{}, c.err
	}

	m := MIntercept
	for _, term := range mTerms {
		m += term.weight * components[term.component]
	}

	return Result{
		Score:          m,
		Components:     components,
		Classification: ClassifyMScore(m),
	}, nil
}

// ClassifyMScore flags scores above -1.78 as elevated manipulation risk
func ClassifyMScore(m float64) string {
	if m > MThreshold {
		return "elevated"
	}
	return "low"
}
