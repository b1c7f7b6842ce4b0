package domain

import (
	"fmt"
	"sort"
)

// StatementKind identifies one of the three financial statements
type StatementKind string

const (
	IncomeStatement StatementKind = "income_statement"
	BalanceSheet    StatementKind = "balance_sheet"
	CashFlow        StatementKind = "cash_flow"
)

// Valid reports whether k is a known statement kind
func (k StatementKind) Valid() bool {
	switch k {
	case IncomeStatement, BalanceSheet, CashFlow:
		return true
	}
	return false
}

// PeriodKind is the reporting frequency requested from a provider
type PeriodKind string

const (
	PeriodYear    PeriodKind = "year"
	PeriodQuarter PeriodKind = "quarter"
)

// Canonical line item names. Providers map their own labels onto these.
const (
	ItemRevenue           = "revenue"
	ItemCostOfGoodsSold   = "cost_of_goods_sold"
	ItemGrossProfit       = "gross_profit"
	ItemSellingGeneralAdm = "selling_general_admin"
	ItemDepreciation      = "depreciation"
	ItemInterestExpense   = "interest_expense"
	ItemEBIT              = "ebit"
	ItemPreTaxProfit      = "profit_before_tax"
	ItemNetProfit         = "net_profit"

	ItemTotalAssets        = "total_assets"
	ItemCurrentAssets      = "current_assets"
	ItemCurrentLiabilities = "current_liabilities"
	ItemTotalLiabilities   = "total_liabilities"
	ItemLongTermDebt       = "long_term_debt"
	ItemEquity             = "owners_equity"
	ItemRetainedEarnings   = "retained_earnings"
	ItemReceivables        = "receivables"
	ItemFixedAssets        = "fixed_assets"
	ItemShortTermInvest    = "short_term_investments"
	ItemSharesOutstanding  = "shares_outstanding"

	ItemOperatingCashFlow = "operating_cash_flow"
)

// Period identifies one reporting period. Quarter is 0 for an annual report.
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter,omitempty"`
}

// IsQuarter reports whether p is a quarterly period
func (p Period) IsQuarter() bool {
	return p.Quarter > 0
}

// Before orders periods by year, then quarter
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Quarter < o.Quarter
}

// Previous returns the period immediately before p: the prior year for annual
// periods, the prior quarter (Q4 of the prior year for Q1) for quarterly ones.
func (p Period) Previous() Period {
	if !p.IsQuarter() {
		return Period{Year: p.Year - 1}
	}
	if p.Quarter == 1 {
		return Period{Year: p.Year - 1, Quarter: 4}
	}
	return Period{Year: p.Year, Quarter: p.Quarter - 1}
}

// String renders 2024 or 2024Q3
func (p Period) String() string {
	if p.IsQuarter() {
		return fmt.Sprintf("%dQ%d", p.Year, p.Quarter)
	}
	return fmt.Sprintf("%d", p.Year)
}

// StatementRow is one reporting period of one statement
type StatementRow struct {
	Kind       StatementKind      `json:"kind"`
	FiscalYear int                `json:"fiscal_year"`
	Quarter    int                `json:"quarter,omitempty"` // 1-4, 0 for annual rows
	Items      map[string]float64 `json:"items"`
}

// Period returns the row's reporting period
func (r StatementRow) Period() Period {
	return Period{Year: r.FiscalYear, Quarter: r.Quarter}
}

// Value returns a line item and whether it is present
func (r StatementRow) Value(item string) (float64, bool) {
	if r.Items == nil {
		return 0, false
	}
	v, ok := r.Items[item]
	return v, ok
}

// Statements joins the three statements of one company by reporting period
type Statements struct {
	Symbol  string `json:"symbol"`
	periods []Period
	rows    map[Period]map[StatementKind]StatementRow
}

// NewStatements indexes rows by period, ascending.
// Rows of unknown kind are ignored. A later duplicate of (period, kind) wins.
func NewStatements(symbol string, rows []StatementRow) Statements {
	s := Statements{
		Symbol: NormalizeSymbol(symbol),
		rows:   make(map[Period]map[StatementKind]StatementRow),
	}
	for _, r := range rows {
		if !r.Kind.Valid() {
			continue
		}
		p := r.Period()
		byKind, ok := s.rows[p]
		if !ok {
			byKind = make(map[StatementKind]StatementRow, 3)
			s.rows[p] = byKind
			s.periods = append(s.periods, p)
		}
		byKind[r.Kind] = r
	}
	sort.Slice(s.periods, func(i, j int) bool { return s.periods[i].Before(s.periods[j]) })
	return s
}

// Periods returns the reporting periods, ascending. Index i of this slice is year index i.
func (s Statements) Periods() []Period {
	out := make([]Period, len(s.periods))
	copy(out, s.periods)
	return out
}

// Years returns the fiscal year of each period, ascending.
// Quarterly statements repeat a year once per quarter.
func (s Statements) Years() []int {
	out := make([]int, len(s.periods))
	for i, p := range s.periods {
		out[i] = p.Year
	}
	return out
}

// Len returns the number of periods
func (s Statements) Len() int {
	return len(s.periods)
}

// Year returns the joined view of period index i. ok is false when i is out of range.
func (s Statements) Year(i int) (FiscalYear, bool) {
	if i < 0 || i >= len(s.periods) {
		return FiscalYear{}, false
	}
	p := s.periods[i]
	return FiscalYear{Year: p.Year, Quarter: p.Quarter, rows: s.rows[p]}, true
}

// Rows returns every statement row, ascending by period
func (s Statements) Rows() []StatementRow {
	var out []StatementRow
	for _, p := range s.periods {
		for _, k := range []StatementKind{IncomeStatement, BalanceSheet, CashFlow} {
			if r, ok := s.rows[p][k]; ok {
				out = append(out, r)
			}
		}
	}
	return out
}

// FiscalYear is the joined income, balance and cash-flow rows of one period
type FiscalYear struct {
	Year    int
	Quarter int
	rows    map[StatementKind]StatementRow
}

// Period returns the reporting period of f
func (f FiscalYear) Period() Period {
	return Period{Year: f.Year, Quarter: f.Quarter}
}

// Has reports whether the statement of kind k is present for this period
func (f FiscalYear) Has(k StatementKind) bool {
	_, ok := f.rows[k]
	return ok
}

// Value looks an item up in the income statement, then the balance sheet, then cash flow.
func (f FiscalYear) Value(item string) (float64, bool) {
	for _, k := range []StatementKind{IncomeStatement, BalanceSheet, CashFlow} {
		if r, ok := f.rows[k]; ok {
			if v, ok := r.Value(item); ok {
				return v, true
			}
		}
	}
	return 0, false
}
