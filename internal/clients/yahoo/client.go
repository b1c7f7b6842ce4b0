// Package yahoo provides a secondary price source backed by Yahoo Finance.
package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/aristath/finlens/internal/domain"
)

// Client fetches daily closes through go-yfinance
type Client struct {
	suffix string
	log    zerolog.Logger
}

// NewClient creates a Yahoo Finance price client.
// suffix is the exchange suffix appended to bare tickers (".VN" for HOSE).
func NewClient(suffix string, log zerolog.Logger) *Client {
	return &Client{
		suffix: suffix,
		log:    log.With().Str("client", "yahoo").Logger(),
	}
}

// toYahoo converts a local ticker into Yahoo format.
// Symbols that already carry a suffix or an index prefix pass through unchanged.
func (c *Client) toYahoo(symbol string) string {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" || c.suffix == "" {
		return symbol
	}
	if strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^") {
		return symbol
	}
	return symbol + c.suffix
}

// periodFor returns the shortest Yahoo history period reaching back to start
func periodFor(start, now time.Time) string {
	age := now.Sub(start)
	switch {
	case age <= 365*24*time.Hour:
		return "1y"
	case age <= 2*365*24*time.Hour:
		return "2y"
	case age <= 5*365*24*time.Hour:
		return "5y"
	case age <= 10*365*24*time.Hour:
		return "10y"
	default:
		return "max"
	}
}

// FetchPriceHistory fetches adjusted daily closes of symbol between start and end (inclusive)
func (c *Client) FetchPriceHistory(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return domain.PriceSeries{}, err
	}

	yahooSymbol := c.toYahoo(symbol)

	t, err := ticker.New(yahooSymbol)
	if err != nil {
		return domain.PriceSeries{}, domain.ProviderFailure("yahoo", fmt.Errorf("failed to create ticker: %w", err))
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     periodFor(start, time.Now()),
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return domain.PriceSeries{}, domain.ProviderFailure("yahoo", fmt.Errorf("failed to get historical prices: %w", err))
	}

	from := start.Truncate(24 * time.Hour)
	to := end.Truncate(24 * time.Hour).Add(24 * time.Hour)

	points := make([]domain.PricePoint, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.Before(from) || !bar.Date.Before(to) {
			continue
		}
		points = append(points, domain.PricePoint{Date: bar.Date, Close: bar.Close})
	}

	c.log.Debug().
		Str("symbol", yahooSymbol).
		Int("bars", len(bars)).
		Int("kept", len(points)).
		Msg("Fetched historical prices from Yahoo Finance")

	return domain.NewPriceSeries(symbol, points), nil
}
