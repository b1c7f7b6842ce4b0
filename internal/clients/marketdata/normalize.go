package marketdata

import (
	"strings"
	"time"
	"unicode"

	"github.com/aristath/finlens/internal/domain"
)

// statementAliases maps provider line item labels onto canonical item names.
// Labels are compared after lower-casing and stripping non-alphanumerics.
var statementAliases = map[string]string{
	"revenue":                  domain.ItemRevenue,
	"netrevenue":               domain.ItemRevenue,
	"netsales":                 domain.ItemRevenue,
	"costofgoodsold":           domain.ItemCostOfGoodsSold,
	"costofgoodssold":          domain.ItemCostOfGoodsSold,
	"grossprofit":              domain.ItemGrossProfit,
	"sga":                      domain.ItemSellingGeneralAdm,
	"sellinggeneraladmin":      domain.ItemSellingGeneralAdm,
	"depreciation":             domain.ItemDepreciation,
	"depreciationamortization": domain.ItemDepreciation,
	"interestexpense":          domain.ItemInterestExpense,
	"ebit":                     domain.ItemEBIT,
	"operatingprofit":          domain.ItemEBIT,
	"pretaxprofit":             domain.ItemPreTaxProfit,
	"profitbeforetax":          domain.ItemPreTaxProfit,
	"posttaxprofit":            domain.ItemNetProfit,
	"netprofit":                domain.ItemNetProfit,
	"netincome":                domain.ItemNetProfit,

	"asset":               domain.ItemTotalAssets,
	"totalasset":          domain.ItemTotalAssets,
	"totalassets":         domain.ItemTotalAssets,
	"shortasset":          domain.ItemCurrentAssets,
	"currentassets":       domain.ItemCurrentAssets,
	"shortliabilities":    domain.ItemCurrentLiabilities,
	"currentliabilities":  domain.ItemCurrentLiabilities,
	"debt":                domain.ItemTotalLiabilities,
	"liabilities":         domain.ItemTotalLiabilities,
	"totalliabilities":    domain.ItemTotalLiabilities,
	"longdebt":            domain.ItemLongTermDebt,
	"longtermdebt":        domain.ItemLongTermDebt,
	"equity":              domain.ItemEquity,
	"ownersequity":        domain.ItemEquity,
	"undistributedincome": domain.ItemRetainedEarnings,
	"retainedearnings":    domain.ItemRetainedEarnings,
	"shortreceivable":     domain.ItemReceivables,
	"receivables":         domain.ItemReceivables,
	"fixedasset":          domain.ItemFixedAssets,
	"fixedassets":         domain.ItemFixedAssets,
	"shortinvest":         domain.ItemShortTermInvest,
	"shareoutstanding":    domain.ItemSharesOutstanding,
	"sharesoutstanding":   domain.ItemSharesOutstanding,

	"fromsale":             domain.ItemOperatingCashFlow,
	"operatingcashflow":    domain.ItemOperatingCashFlow,
	"netcashfromoperating": domain.ItemOperatingCashFlow,
}

func aliasKey(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// canonicalItem maps a provider label to its canonical name.
// Unknown labels are kept, lower-cased and snake_cased.
func canonicalItem(label string) string {
	if item, ok := statementAliases[aliasKey(label)]; ok {
		return item
	}
	return toSnake(label)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case r == ' ' || r == '-':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// parseDate accepts the date formats seen across provider endpoints
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// firstString returns the first non-empty value
func firstString(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// firstFloat returns the first non-nil value, or 0
func firstFloat(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
