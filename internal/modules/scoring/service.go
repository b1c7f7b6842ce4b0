package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/memo"
	"github.com/aristath/finlens/internal/utils"
)

// StatementSource fetches one statement kind for a company, in any year order
type StatementSource interface {
	FetchFinancialStatements(ctx context.Context, symbol string, kind domain.StatementKind, period domain.PeriodKind) ([]domain.StatementRow, error)
}

// Report is the scored view of one company
type Report struct {
	Symbol  string          `json:"symbol"`
	Years   []int           `json:"years"`
	Periods []domain.Period `json:"periods"`
	Records []ScoreRecord   `json:"records"`
	// Missing lists statement kinds the provider could not supply
	Missing []domain.StatementKind `json:"missing,omitempty"`
}

// statementKinds are fetched for every company, in this order
var statementKinds = []domain.StatementKind{domain.IncomeStatement, domain.BalanceSheet, domain.CashFlow}

// memoStatements names the memoized statement fetch
const memoStatements = "scoring.statements"

// Service fetches statements and runs the scoring models
type Service struct {
	source StatementSource
	memo   *memo.Memoizer
	log    zerolog.Logger
}

// NewService creates a new scoring service
func NewService(source StatementSource, memoizer *memo.Memoizer, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		memo:   memoizer,
		log:    log.With().Str("service", "scoring").Logger(),
	}
}

// Statements fetches and joins the three statements of symbol.
// A kind the provider fails on is logged and left out; the call fails only
// when no statement could be fetched at all.
func (s *Service) Statements(ctx context.Context, symbol string, period domain.PeriodKind) (domain.Statements, []domain.StatementKind, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if period == "" {
		period = domain.PeriodYear
	}

	var (
		rows    []domain.StatementRow
		missing []domain.StatementKind
		errs    []error
	)
	for _, kind := range statementKinds {
		fetched, err := memo.Do(ctx, s.memo, memoStatements, []interface{}{symbol, string(kind), string(period)},
			func(ctx context.Context) ([]domain.StatementRow, error) {
				return s.source.FetchFinancialStatements(ctx, symbol, kind, period)
			})
		if err != nil {
			s.log.Warn().Err(err).
				Str("symbol", symbol).
				Str("kind", string(kind)).
				Str("error_kind", domain.KindOf(err).String()).
				Msg("Failed to fetch statement")
			missing = append(missing, kind)
			errs = append(errs, err)
			continue
		}
		if len(fetched) == 0 {
			missing = append(missing, kind)
		}
		rows = append(rows, fetched...)
	}

	if len(rows) == 0 {
		if len(errs) > 0 {
			return domain.Statements{}, missing, domain.ProviderFailure("statements", errors.Join(errs...))
		}
		return domain.Statements{}, missing, domain.InsufficientData("statements", "no statements for %s", symbol)
	}

	return domain.NewStatements(symbol, rows), missing, nil
}

// Refresh drops symbol's memoized statements so the next score refetches them
func (s *Service) Refresh(ctx context.Context, symbol string, period domain.PeriodKind) error {
	symbol = domain.NormalizeSymbol(symbol)
	if period == "" {
		period = domain.PeriodYear
	}

	var errs []error
	for _, kind := range statementKinds {
		if err := s.memo.Invalidate(ctx, memoStatements, symbol, string(kind), string(period)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to refresh %s statements: %w", symbol, err)
	}

	s.log.Debug().Str("symbol", symbol).Str("period", string(period)).Msg("Dropped memoized statements")
	return nil
}

// Score runs every model over symbol's statements
func (s *Service) Score(ctx context.Context, symbol string, period domain.PeriodKind) (*Report, error) {
	defer utils.OperationTimer("scoring.score", s.log)()

	st, missing, err := s.Statements(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	return s.report(st, missing, ScoreAll(st)), nil
}

// ScoreModel runs a single model over symbol's statements
func (s *Service) ScoreModel(ctx context.Context, symbol string, model Model, period domain.PeriodKind) (*Report, error) {
	st, missing, err := s.Statements(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	return s.report(st, missing, Series(model, st)), nil
}

func (s *Service) report(st domain.Statements, missing []domain.StatementKind, records []ScoreRecord) *Report {
	undefined := 0
	for _, r := range records {
		if !r.Defined() {
			undefined++
		}
	}
	s.log.Debug().
		Str("symbol", st.Symbol).
		Int("years", st.Len()).
		Int("records", len(records)).
		Int("undefined", undefined).
		Msg("Scored statements")

	return &Report{
		Symbol:  st.Symbol,
		Years:   st.Years(),
		Periods: st.Periods(),
		Records: records,
		Missing: missing,
	}
}
