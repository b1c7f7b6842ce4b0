package scoring

import "github.com/aristath/finlens/internal/domain"

// DuPont factors
const (
	DuPontNetMargin       = "net_margin"
	DuPontAssetTurnover   = "asset_turnover"
	DuPontEquityMultiple  = "equity_multiplier"
	DuPontTaxBurden       = "tax_burden"
	DuPontInterestBurden  = "interest_burden"
	DuPontOperatingMargin = "operating_margin"
	DuPontROE             = "roe"
	DuPontROEExtended     = "roe_extended"
)

// ComputeDuPont decomposes return on equity for the current year only.
//
//	basic:    ROE = (net profit/revenue) × (revenue/assets) × (assets/equity)
//	extended: ROE = (net profit/pre-tax) × (pre-tax/EBIT) × (EBIT/revenue)
//	                × (revenue/assets) × (assets/equity)
//
// The score is the basic ROE. The extended factors are added when pre-tax profit
// and EBIT are available and non-zero; otherwise only the basic factors are
// returned. DuPont is descriptive and has no classification.
func ComputeDuPont(yearIndex int, s domain.Statements) (Result, error) {
	cur, _, err := years(ModelDuPont, yearIndex, s, false)
	if err != nil {
		return Result{}, err
	}

	c := newCalc(ModelDuPont)
	netProfit := c.item(cur, domain.ItemNetProfit)
	revenue := c.item(cur, domain.ItemRevenue)
	assets := c.item(cur, domain.ItemTotalAssets)

	margin := c.div(netProfit, revenue, "net margin")
	turnover := c.div(revenue, assets, "asset turnover")
	multiplier := c.div(assets, c.item(cur, domain.ItemEquity), "equity multiplier")
	if c.err != nil {
		return Result{}, c.err
	}

	roe := margin * turnover * multiplier
	components := map[string]float64{
		DuPontNetMargin:      margin,
		DuPontAssetTurnover:  turnover,
		DuPontEquityMultiple: multiplier,
		DuPontROE:            roe,
	}

	ext := newCalc(ModelDuPont)
	preTax := ext.item(cur, domain.ItemPreTaxProfit)
	ebit := ext.ebit(cur)
	taxBurden := ext.div(netProfit, preTax, "tax burden")
	interestBurden := ext.div(preTax, ebit, "interest burden")
	operatingMargin := ext.div(ebit, revenue, "operating margin")
	if ext.err == nil {
		components[DuPontTaxBurden] = taxBurden
		components[DuPontInterestBurden] = interestBurden
		components[DuPontOperatingMargin] = operatingMargin
		components[DuPontROEExtended] = taxBurden * interestBurden * operatingMargin * turnover * multiplier
	}

	return Result{Score: roe, Components: components}, nil
}
