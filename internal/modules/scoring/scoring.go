// Package scoring computes financial-health models over a company's annual
// statements: Piotroski F, Altman Z, Beneish M, DuPont and the C-Score.
//
// Every model maps (yearIndex, statements) to a Result. Models that compare a
// year with the previous one need yearIndex >= 1; DuPont only reads the current
// year. A missing line item or a zero denominator makes that year undefined and
// is reported as a *domain.Error, never a panic.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/finlens/internal/domain"
)

// Model identifies a scoring model
type Model string

const (
	ModelFScore Model = "fscore"
	ModelZScore Model = "zscore"
	ModelMScore Model = "mscore"
	ModelDuPont Model = "dupont"
	ModelCScore Model = "cscore"
)

// Models lists every model in presentation order
var Models = []Model{ModelFScore, ModelZScore, ModelMScore, ModelDuPont, ModelCScore}

// ParseModel accepts a model name case-insensitively
func ParseModel(name string) (Model, error) {
	m := Model(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Models {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown scoring model %q", name)
}

// NeedsPriorYear reports whether the model compares against the previous fiscal year
func (m Model) NeedsPriorYear() bool {
	return m != ModelDuPont
}

// Title returns the display name of the model
func (m Model) Title() string {
	switch m {
	case ModelFScore:
		return "Piotroski F-Score"
	case ModelZScore:
		return "Altman Z-Score"
	case ModelMScore:
		return "Beneish M-Score"
	case ModelDuPont:
		return "DuPont ROE"
	case ModelCScore:
		return "C-Score"
	default:
		return string(m)
	}
}

// Result is one model evaluated for one fiscal year
type Result struct {
	Score          float64            `json:"score"`
	Components     map[string]float64 `json:"components"`
	Classification string             `json:"classification,omitempty"`
}

// ScoreFunc is the common shape of the Compute* functions
type ScoreFunc func(yearIndex int, s domain.Statements) (Result, error)

// Func returns the Compute function of model m
func (m Model) Func() ScoreFunc {
	switch m {
	case ModelFScore:
		return ComputeFScore
	case ModelZScore:
		return ComputeZScore
	case ModelMScore:
		return ComputeMScore
	case ModelDuPont:
		return ComputeDuPont
	case ModelCScore:
		return ComputeCScore
	default:
		return nil
	}
}

// calc reads line items and divides, keeping the first failure.
// Once err is set every further call returns 0.
type calc struct {
	op  string
	err error
}

func newCalc(model Model) *calc {
	return &calc{op: string(model)}
}

// item reads a required line item
func (c *calc) item(y domain.FiscalYear, name string) float64 {
	if c.err != nil {
		return 0
	}
	v, ok := y.Value(name)
	if !ok {
		c.err = domain.InsufficientData(c.op, "fiscal year %d: missing %s", y.Year, name)
		return 0
	}
	return v
}

// expense reads a cost line item as a positive amount; providers report costs with either sign
func (c *calc) expense(y domain.FiscalYear, name string) float64 {
	return math.Abs(c.item(y, name))
}

// grossProfit uses the reported gross profit, else revenue less cost of goods sold
func (c *calc) grossProfit(y domain.FiscalYear) float64 {
	if c.err != nil {
		return 0
	}
	if v, ok := y.Value(domain.ItemGrossProfit); ok {
		return v
	}
	return c.item(y, domain.ItemRevenue) - c.expense(y, domain.ItemCostOfGoodsSold)
}

// ebit uses the reported EBIT, else pre-tax profit plus interest expense
func (c *calc) ebit(y domain.FiscalYear) float64 {
	if c.err != nil {
		return 0
	}
	if v, ok := y.Value(domain.ItemEBIT); ok {
		return v
	}
	return c.item(y, domain.ItemPreTaxProfit) + c.expense(y, domain.ItemInterestExpense)
}

// div returns num/den, failing with a degenerate ratio when den is zero
func (c *calc) div(num, den float64, ratio string) float64 {
	if c.err != nil {
		return 0
	}
	if den == 0 {
		c.err = domain.DegenerateRatio(c.op, "%s: zero denominator", ratio)
		return 0
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.err = domain.DegenerateRatio(c.op, "%s: non-finite result", ratio)
		return 0
	}
	return v
}

// years resolves the current period and, when needPrior is set, the one
// immediately before it. A gap in the reporting history is insufficient data.
func years(model Model, yearIndex int, s domain.Statements, needPrior bool) (cur, prev domain.FiscalYear, err error) {
	if needPrior && yearIndex < 1 {
		return cur, prev, domain.InsufficientData(string(model), "year index %d has no prior year", yearIndex)
	}
	cur, ok := s.Year(yearIndex)
	if !ok {
		return cur, prev, domain.InsufficientData(string(model), "year index %d out of range (%d years)", yearIndex, s.Len())
	}
	if needPrior {
		prev, _ = s.Year(yearIndex - 1)
		if want := cur.Period().Previous(); prev.Period() != want {
			return cur, prev, domain.InsufficientData(string(model), "%s has no %s statements (prior available: %s)",
				cur.Period(), want, prev.Period())
		}
	}
	return cur, prev, nil
}

func flag(cond bool) float64 {
	if cond {
		return 1
	}
	return 0
}

func sum(components map[string]float64) float64 {
	total := 0.0
	for _, v := range components {
		total += v
	}
	return total
}
