package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/aristath/finlens/internal/domain"
)

// priceRow is one line of a prices file: date,symbol,close
type priceRow struct {
	Date   string  `csv:"date"`
	Symbol string  `csv:"symbol"`
	Close  float64 `csv:"close"`
}

// statementRow is one line of a statements file: year,kind,item,value with
// an optional quarter column for quarterly reports
type statementRow struct {
	Year    int     `csv:"year"`
	Quarter int     `csv:"quarter"`
	Kind    string  `csv:"kind"`
	Item    string  `csv:"item"`
	Value   float64 `csv:"value"`
}

// priceBook holds the series loaded from a prices file, keyed by symbol.
// It serves as the optimizer's price source.
type priceBook map[string]domain.PriceSeries

func loadPrices(r io.Reader) (priceBook, error) {
	var rows []priceRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse prices: %w", err)
	}

	points := make(map[string][]domain.PricePoint)
	for i, row := range rows {
		date, err := time.Parse(domain.DateLayout, strings.TrimSpace(row.Date))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", i+2, row.Date, err)
		}
		symbol := domain.NormalizeSymbol(row.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("line %d: missing symbol", i+2)
		}
		points[symbol] = append(points[symbol], domain.PricePoint{Date: date, Close: row.Close})
	}

	book := make(priceBook, len(points))
	for symbol, pts := range points {
		book[symbol] = domain.NewPriceSeries(symbol, pts)
	}
	return book, nil
}

func loadPricesFile(path string) (priceBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadPrices(f)
}

// Symbols returns the loaded symbols in sorted order
func (b priceBook) Symbols() []string {
	out := make([]string, 0, len(b))
	for symbol := range b {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Span returns the first and last date across all series
func (b priceBook) Span() (time.Time, time.Time) {
	var start, end time.Time
	for _, s := range b {
		if s.Len() == 0 {
			continue
		}
		first, last := s.Points[0].Date, s.Points[s.Len()-1].Date
		if start.IsZero() || first.Before(start) {
			start = first
		}
		if last.After(end) {
			end = last
		}
	}
	return start, end
}

// FetchPriceHistory implements optimization.PriceSource
func (b priceBook) FetchPriceHistory(_ context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	series, ok := b[domain.NormalizeSymbol(symbol)]
	if !ok {
		return domain.PriceSeries{}, domain.InsufficientData("csv", "no prices for %s", symbol)
	}

	var pts []domain.PricePoint
	for _, p := range series.Points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		pts = append(pts, p)
	}
	return domain.PriceSeries{Symbol: series.Symbol, Points: pts}, nil
}

func loadStatements(r io.Reader, symbol string) (domain.Statements, error) {
	var rows []statementRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return domain.Statements{}, fmt.Errorf("failed to parse statements: %w", err)
	}

	type rowKey struct {
		kind   domain.StatementKind
		period domain.Period
	}
	grouped := make(map[rowKey]map[string]float64)
	for i, row := range rows {
		kind := domain.StatementKind(strings.TrimSpace(row.Kind))
		if !kind.Valid() {
			return domain.Statements{}, fmt.Errorf("line %d: unknown statement kind %q", i+2, row.Kind)
		}
		if row.Year <= 0 {
			return domain.Statements{}, fmt.Errorf("line %d: invalid year %d", i+2, row.Year)
		}
		if row.Quarter < 0 || row.Quarter > 4 {
			return domain.Statements{}, fmt.Errorf("line %d: invalid quarter %d", i+2, row.Quarter)
		}
		k := rowKey{kind: kind, period: domain.Period{Year: row.Year, Quarter: row.Quarter}}
		if grouped[k] == nil {
			grouped[k] = make(map[string]float64)
		}
		grouped[k][strings.TrimSpace(row.Item)] = row.Value
	}

	out := make([]domain.StatementRow, 0, len(grouped))
	for k, items := range grouped {
		out = append(out, domain.StatementRow{Kind: k.kind, FiscalYear: k.period.Year, Quarter: k.period.Quarter, Items: items})
	}
	return domain.NewStatements(symbol, out), nil
}

func loadStatementsFile(path, symbol string) (domain.Statements, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Statements{}, err
	}
	defer f.Close()
	return loadStatements(f, symbol)
}
