package scoring

import (
	"github.com/aristath/finlens/internal/domain"
)

// ScoreRecord is one model evaluated for one reporting period.
// An undefined period has a nil Score and a non-zero ErrorKind.
type ScoreRecord struct {
	FiscalYear     int                `json:"fiscal_year"`
	Quarter        int                `json:"quarter,omitempty"`
	Model          Model              `json:"model"`
	Score          *float64           `json:"score"`
	Components     map[string]float64 `json:"components,omitempty"`
	Classification string             `json:"classification,omitempty"`
	ErrorKind      domain.ErrorKind   `json:"error_kind,omitempty"`
	Reason         string             `json:"reason,omitempty"`
}

// Defined reports whether the record carries a score
func (r ScoreRecord) Defined() bool {
	return r.Score != nil
}

// Period returns the reporting period the record was scored on
func (r ScoreRecord) Period() domain.Period {
	return domain.Period{Year: r.FiscalYear, Quarter: r.Quarter}
}

// Series evaluates model m for every year it can be computed on.
// The first year is skipped for models that need a prior year. Years that fail
// are kept as undefined records so a batch still shows partial results.
func Series(m Model, s domain.Statements) []ScoreRecord {
	fn := m.Func()
	if fn == nil {
		return nil
	}

	first := 0
	if m.NeedsPriorYear() {
		first = 1
	}

	periods := s.Periods()
	var records []ScoreRecord
	for i := first; i < len(periods); i++ {
		rec := ScoreRecord{FiscalYear: periods[i].Year, Quarter: periods[i].Quarter, Model: m}

		res, err := fn(i, s)
		if err != nil {
			rec.ErrorKind = domain.KindOf(err)
			rec.Reason = err.Error()
		} else {
			score := res.Score
			rec.Score = &score
			rec.Components = res.Components
			rec.Classification = res.Classification
		}
		records = append(records, rec)
	}
	return records
}

// ScoreAll evaluates every model, grouped by model and ascending by year
func ScoreAll(s domain.Statements) []ScoreRecord {
	var records []ScoreRecord
	for _, m := range Models {
		records = append(records, Series(m, s)...)
	}
	return records
}
