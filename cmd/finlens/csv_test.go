package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finlens/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLoadPrices(t *testing.T) {
	in := `date,symbol,close
2024-01-03,fpt,101
2024-01-02,FPT,100
2024-01-02,VNM,70
2024-01-03,VNM,0
2024-01-04,VNM,71
`
	book, err := loadPrices(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"FPT", "VNM"}, book.Symbols())

	want := domain.PriceSeries{
		Symbol: "FPT",
		Points: []domain.PricePoint{
			{Date: day("2024-01-02"), Close: 100},
			{Date: day("2024-01-03"), Close: 101},
		},
	}
	if diff := cmp.Diff(want, book["FPT"]); diff != "" {
		t.Errorf("FPT series mismatch (-want +got):\n%s", diff)
	}

	// Non-positive closes are dropped
	assert.Equal(t, 2, book["VNM"].Len())

	start, end := book.Span()
	assert.Equal(t, day("2024-01-02"), start)
	assert.Equal(t, day("2024-01-04"), end)
}

func TestLoadPrices_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "bad date", in: "date,symbol,close\n02/01/2024,FPT,100\n"},
		{name: "missing symbol", in: "date,symbol,close\n2024-01-02,,100\n"},
		{name: "bad close", in: "date,symbol,close\n2024-01-02,FPT,abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadPrices(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestPriceBook_FetchPriceHistory(t *testing.T) {
	book, err := loadPrices(strings.NewReader("date,symbol,close\n2024-01-02,FPT,100\n2024-01-03,FPT,101\n2024-01-04,FPT,102\n"))
	require.NoError(t, err)

	series, err := book.FetchPriceHistory(context.Background(), " fpt ", day("2024-01-03"), day("2024-01-04"))
	require.NoError(t, err)
	assert.Equal(t, []float64{101, 102}, series.Closes())

	_, err = book.FetchPriceHistory(context.Background(), "HPG", day("2024-01-01"), day("2024-12-31"))
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientData, domain.KindOf(err))
}

func TestLoadStatements(t *testing.T) {
	in := `year,kind,item,value
2023,income_statement,revenue,1200
2022,income_statement,revenue,1000
2023,balance_sheet,total_assets,1100
2023,cash_flow,operating_cash_flow,120
`
	st, err := loadStatements(strings.NewReader(in), "fpt")
	require.NoError(t, err)

	assert.Equal(t, "FPT", st.Symbol)
	assert.Equal(t, []int{2022, 2023}, st.Years())

	y, ok := st.Year(1)
	require.True(t, ok)
	assert.True(t, y.Has(domain.IncomeStatement))
	assert.True(t, y.Has(domain.BalanceSheet))
	assert.True(t, y.Has(domain.CashFlow))

	v, ok := y.Value(domain.ItemOperatingCashFlow)
	require.True(t, ok)
	assert.Equal(t, 120.0, v)
}

func TestLoadStatements_Quarterly(t *testing.T) {
	in := `year,quarter,kind,item,value
2024,2,income_statement,revenue,200
2024,1,income_statement,revenue,100
2023,4,income_statement,revenue,90
`
	st, err := loadStatements(strings.NewReader(in), "FPT")
	require.NoError(t, err)

	want := []domain.Period{{Year: 2023, Quarter: 4}, {Year: 2024, Quarter: 1}, {Year: 2024, Quarter: 2}}
	if diff := cmp.Diff(want, st.Periods()); diff != "" {
		t.Errorf("periods mismatch (-want +got):\n%s", diff)
	}

	y, ok := st.Year(2)
	require.True(t, ok)
	v, ok := y.Value(domain.ItemRevenue)
	require.True(t, ok)
	assert.Equal(t, 200.0, v)
}

func TestLoadStatements_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "unknown kind", in: "year,kind,item,value\n2023,notes,revenue,1\n"},
		{name: "zero year", in: "year,kind,item,value\n0,income_statement,revenue,1\n"},
		{name: "quarter out of range", in: "year,quarter,kind,item,value\n2024,5,income_statement,revenue,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadStatements(strings.NewReader(tt.in), "FPT")
			assert.Error(t, err)
		})
	}
}
