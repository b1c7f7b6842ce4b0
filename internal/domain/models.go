// Package domain provides core domain models and types.
package domain

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// PricePoint is one daily close
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is the close history of one symbol, dates strictly increasing
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NewPriceSeries builds a series sorted by date.
// Non-positive closes are dropped. When a date repeats the later point wins.
func NewPriceSeries(symbol string, points []PricePoint) PriceSeries {
	byDay := make(map[string]PricePoint, len(points))
	for _, p := range points {
		if p.Close <= 0 || p.Date.IsZero() {
			continue
		}
		day := p.Date.UTC().Truncate(24 * time.Hour)
		byDay[day.Format(DateLayout)] = PricePoint{Date: day, Close: p.Close}
	}

	clean := make([]PricePoint, 0, len(byDay))
	for _, p := range byDay {
		clean = append(clean, p)
	}
	sort.Slice(clean, func(i, j int) bool { return clean[i].Date.Before(clean[j].Date) })

	return PriceSeries{Symbol: NormalizeSymbol(symbol), Points: clean}
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Closes returns the close prices in date order
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// PriceMatrix holds aligned closes: Rows[t][j] is the close of Symbols[j] on Dates[t].
type PriceMatrix struct {
	Symbols []string    `json:"symbols"`
	Dates   []time.Time `json:"dates"`
	Rows    [][]float64 `json:"rows"`
}

// AlignSeries inner-joins the series on calendar date (UTC). Dates missing from any series are dropped.
func AlignSeries(series []PriceSeries) PriceMatrix {
	m := PriceMatrix{Symbols: make([]string, len(series))}
	if len(series) == 0 {
		return m
	}

	type aligned struct {
		date   time.Time
		closes []float64
		seen   int
	}
	byDay := make(map[string]*aligned)
	for j, s := range series {
		m.Symbols[j] = s.Symbol
		for _, p := range s.Points {
			d := p.Date.UTC()
			key := d.Format(DateLayout)
			row, ok := byDay[key]
			if !ok {
				row = &aligned{date: d.Truncate(24 * time.Hour), closes: make([]float64, len(series))}
				byDay[key] = row
			}
			if row.closes[j] == 0 {
				row.seen++
			}
			row.closes[j] = p.Close
		}
	}

	rows := make([]*aligned, 0, len(byDay))
	for _, row := range byDay {
		if row.seen == len(series) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	m.Dates = make([]time.Time, len(rows))
	m.Rows = make([][]float64, len(rows))
	for i, row := range rows {
		m.Dates[i] = row.date
		m.Rows[i] = row.closes
	}
	return m
}

// NewPriceMatrixFromColumns builds an undated matrix from per-symbol close columns.
// Columns are truncated to the shortest one.
func NewPriceMatrixFromColumns(symbols []string, columns [][]float64) PriceMatrix {
	n := 0
	for j, col := range columns {
		if j == 0 || len(col) < n {
			n = len(col)
		}
	}

	rows := make([][]float64, n)
	for t := 0; t < n; t++ {
		rows[t] = make([]float64, len(columns))
		for j, col := range columns {
			rows[t][j] = col[t]
		}
	}
	return PriceMatrix{Symbols: symbols, Rows: rows}
}

// NumRows returns the number of aligned observations
func (m PriceMatrix) NumRows() int {
	return len(m.Rows)
}

// Column returns the close series of symbol index j
func (m PriceMatrix) Column(j int) []float64 {
	col := make([]float64, len(m.Rows))
	for t, row := range m.Rows {
		col[t] = row[j]
	}
	return col
}

// Holding is one line of a fund portfolio in canonical form
type Holding struct {
	FundCode    string    `json:"fund_code"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	WeightPct   float64   `json:"weight_pct"`
	MarketValue float64   `json:"market_value,omitempty"`
	ReportDate  time.Time `json:"report_date"`
}

// OwnershipEntry is one shareholder of a listed company
type OwnershipEntry struct {
	Symbol       string    `json:"symbol"`
	Holder       string    `json:"holder"`
	HolderType   string    `json:"holder_type,omitempty"`
	Shares       float64   `json:"shares"`
	OwnershipPct float64   `json:"ownership_pct"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValuationEstimate is a broker's price target for a company
type ValuationEstimate struct {
	Symbol         string    `json:"symbol"`
	Firm           string    `json:"firm"`
	TargetPrice    float64   `json:"target_price"`
	Recommendation string    `json:"recommendation,omitempty"`
	ReportDate     time.Time `json:"report_date"`
}
