package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/memo"
)

type MockStatementSource struct {
	mock.Mock
}

func (m *MockStatementSource) FetchFinancialStatements(ctx context.Context, symbol string, kind domain.StatementKind, period domain.PeriodKind) ([]domain.StatementRow, error) {
	args := m.Called(ctx, symbol, kind, period)
	rows, _ := args.Get(0).([]domain.StatementRow)
	return rows, args.Error(1)
}

// rowsOfKind returns the rows of one statement kind, most recent year first as providers do
func rowsOfKind(kind domain.StatementKind) []domain.StatementRow {
	var out []domain.StatementRow
	for _, year := range []int{2023, 2022, 2021} {
		var items map[string]float64
		switch year {
		case 2021:
			items = year2021()
		case 2022:
			items = year2022()
		case 2023:
			items = year2023()
		}
		for _, r := range yearRows(year, items) {
			if r.Kind == kind {
				out = append(out, r)
			}
		}
	}
	return out
}

func TestService_Score(t *testing.T) {
	src := new(MockStatementSource)
	for _, kind := range []domain.StatementKind{domain.IncomeStatement, domain.BalanceSheet, domain.CashFlow} {
		src.On("FetchFinancialStatements", mock.Anything, "FPT", kind, domain.PeriodYear).Return(rowsOfKind(kind), nil)
	}

	svc := NewService(src, nil, zerolog.Nop())
	report, err := svc.Score(context.Background(), "fpt", "")
	require.NoError(t, err)

	assert.Equal(t, "FPT", report.Symbol)
	assert.Equal(t, []int{2021, 2022, 2023}, report.Years)
	assert.Len(t, report.Records, 11)
	assert.Empty(t, report.Missing)
	src.AssertExpectations(t)
}

func TestService_MissingStatementKind(t *testing.T) {
	src := new(MockStatementSource)
	src.On("FetchFinancialStatements", mock.Anything, "FPT", domain.IncomeStatement, domain.PeriodYear).
		Return(rowsOfKind(domain.IncomeStatement), nil)
	src.On("FetchFinancialStatements", mock.Anything, "FPT", domain.BalanceSheet, domain.PeriodYear).
		Return(rowsOfKind(domain.BalanceSheet), nil)
	src.On("FetchFinancialStatements", mock.Anything, "FPT", domain.CashFlow, domain.PeriodYear).
		Return(nil, domain.ProviderFailure("fetch", errors.New("timeout")))

	svc := NewService(src, nil, zerolog.Nop())
	report, err := svc.ScoreModel(context.Background(), "FPT", ModelFScore, domain.PeriodYear)
	require.NoError(t, err)

	assert.Equal(t, []domain.StatementKind{domain.CashFlow}, report.Missing)
	require.Len(t, report.Records, 2)
	for _, r := range report.Records {
		assert.False(t, r.Defined())
		assert.Equal(t, domain.KindInsufficientData, r.ErrorKind)
	}

	dupont, err := svc.ScoreModel(context.Background(), "FPT", ModelDuPont, domain.PeriodYear)
	require.NoError(t, err)
	for _, r := range dupont.Records {
		assert.True(t, r.Defined())
	}
}

func TestService_AllKindsFail(t *testing.T) {
	src := new(MockStatementSource)
	src.On("FetchFinancialStatements", mock.Anything, "FPT", mock.Anything, domain.PeriodYear).
		Return(nil, domain.ProviderFailure("fetch", errors.New("503")))

	svc := NewService(src, nil, zerolog.Nop())
	_, err := svc.Score(context.Background(), "FPT", domain.PeriodYear)
	assert.True(t, errors.Is(err, domain.ErrProviderFailure))
}

func TestService_NoStatements(t *testing.T) {
	src := new(MockStatementSource)
	src.On("FetchFinancialStatements", mock.Anything, "XYZ", mock.Anything, domain.PeriodYear).
		Return([]domain.StatementRow{}, nil)

	svc := NewService(src, nil, zerolog.Nop())
	_, err := svc.Score(context.Background(), "XYZ", domain.PeriodYear)
	assert.Equal(t, domain.KindInsufficientData, domain.KindOf(err))
}

func TestService_StatementsAreMemoized(t *testing.T) {
	src := new(MockStatementSource)
	for _, kind := range []domain.StatementKind{domain.IncomeStatement, domain.BalanceSheet, domain.CashFlow} {
		src.On("FetchFinancialStatements", mock.Anything, "FPT", kind, domain.PeriodYear).Return(rowsOfKind(kind), nil).Once()
	}

	cache, err := memo.NewLRU(64)
	require.NoError(t, err)
	svc := NewService(src, memo.NewMemoizer(cache, time.Hour, zerolog.Nop()), zerolog.Nop())

	first, err := svc.Score(context.Background(), "FPT", domain.PeriodYear)
	require.NoError(t, err)
	second, err := svc.Score(context.Background(), "FPT", domain.PeriodYear)
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	src.AssertNumberOfCalls(t, "FetchFinancialStatements", 3)
}

func TestService_QuarterlyStatements(t *testing.T) {
	src := new(MockStatementSource)
	for _, kind := range []domain.StatementKind{domain.IncomeStatement, domain.BalanceSheet, domain.CashFlow} {
		var rows []domain.StatementRow
		// most recent first, as providers return them
		for q, items := range map[int]map[string]float64{2: year2023(), 1: year2022()} {
			for _, r := range yearRows(2024, items) {
				if r.Kind == kind {
					r.Quarter = q
					rows = append(rows, r)
				}
			}
		}
		src.On("FetchFinancialStatements", mock.Anything, "FPT", kind, domain.PeriodQuarter).Return(rows, nil)
	}

	svc := NewService(src, nil, zerolog.Nop())
	report, err := svc.ScoreModel(context.Background(), "FPT", ModelFScore, domain.PeriodQuarter)
	require.NoError(t, err)

	assert.Equal(t, []domain.Period{{Year: 2024, Quarter: 1}, {Year: 2024, Quarter: 2}}, report.Periods)
	require.Len(t, report.Records, 1)
	assert.Equal(t, 2024, report.Records[0].FiscalYear)
	assert.Equal(t, 2, report.Records[0].Quarter)
	assert.True(t, report.Records[0].Defined(), report.Records[0].Reason)
}

func TestService_RefreshRefetchesStatements(t *testing.T) {
	src := new(MockStatementSource)
	for _, kind := range []domain.StatementKind{domain.IncomeStatement, domain.BalanceSheet, domain.CashFlow} {
		src.On("FetchFinancialStatements", mock.Anything, "FPT", kind, domain.PeriodYear).Return(rowsOfKind(kind), nil)
	}

	cache, err := memo.NewLRU(64)
	require.NoError(t, err)
	svc := NewService(src, memo.NewMemoizer(cache, time.Hour, zerolog.Nop()), zerolog.Nop())
	ctx := context.Background()

	_, err = svc.Score(ctx, "FPT", domain.PeriodYear)
	require.NoError(t, err)
	_, err = svc.Score(ctx, "FPT", domain.PeriodYear)
	require.NoError(t, err)
	src.AssertNumberOfCalls(t, "FetchFinancialStatements", 3)

	require.NoError(t, svc.Refresh(ctx, "fpt", ""))
	_, err = svc.Score(ctx, "FPT", domain.PeriodYear)
	require.NoError(t, err)
	src.AssertNumberOfCalls(t, "FetchFinancialStatements", 6)
}

func TestService_RefreshWithoutCache(t *testing.T) {
	svc := NewService(new(MockStatementSource), nil, zerolog.Nop())
	assert.NoError(t, svc.Refresh(context.Background(), "FPT", domain.PeriodQuarter))
}
