// Package marketdata provides a client for the Vietnamese market data API
// (prices, financial statements, fund holdings, ownership and valuation).
// Responses are normalized into the canonical domain types and cached in the
// client data repository; when the API fails, stale cached data is returned.
package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/clientdata"
	"github.com/aristath/finlens/internal/domain"
)

const (
	defaultBaseURL = "https://api.finlens.vn/v1"
	// DefaultDelay spaces out the calls of a batch fetch
	DefaultDelay = 120 * time.Millisecond
)

// Client is the market data API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cacheRepo  *clientdata.Repository
	delay      time.Duration
	log        zerolog.Logger
}

// NewClient creates a new market data client.
// An empty baseURL uses the default endpoint. cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, delay time.Duration, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if delay < 0 {
		delay = 0
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cacheRepo: cacheRepo,
		delay:     delay,
		log:       log.With().Str("client", "marketdata").Logger(),
	}
}

// envelope is the {"data": [...]} wrapper used by every endpoint
type envelope[T any] struct {
	Data []T `json:"data"`
}

type priceRecord struct {
	TradingDate string   `json:"tradingDate"`
	Date        string   `json:"date"`
	Close       *float64 `json:"close"`
	ClosePrice  *float64 `json:"closePrice"`
}

type statementRecord struct {
	Year    int                `json:"year"`
	Quarter int                `json:"quarter"`
	Items   map[string]float64 `json:"items"`
}

type holdingRecord struct {
	StockCode       string   `json:"stockCode"`
	Ticker          string   `json:"ticker"`
	Name            string   `json:"name"`
	Industry        string   `json:"industry"`
	AssetPercent    *float64 `json:"assetPercent"`
	NetAssetPercent *float64 `json:"netAssetPercent"`
	MarketValue     *float64 `json:"marketValue"`
	UpdateAt        string   `json:"updateAt"`
	ReportDate      string   `json:"reportDate"`
}

type shareholderRecord struct {
	Name       string   `json:"name"`
	Holder     string   `json:"holder"`
	Type       string   `json:"type"`
	Quantity   *float64 `json:"quantity"`
	Shares     *float64 `json:"shares"`
	OwnPercent *float64 `json:"ownPercent"`
	UpdateDate string   `json:"updateDate"`
}

type valuationRecord struct {
	Firm           string   `json:"firm"`
	Broker         string   `json:"broker"`
	TargetPrice    *float64 `json:"targetPrice"`
	Recommendation string   `json:"recommendation"`
	ReportDate     string   `json:"reportDate"`
}

// FetchPriceHistory fetches daily closes of symbol between start and end (inclusive).
// Rows with a bad date or a non-positive close are dropped.
func (c *Client) FetchPriceHistory(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	symbol = domain.NormalizeSymbol(symbol)
	from, to := start.Format(domain.DateLayout), end.Format(domain.DateLayout)
	query := url.Values{"from": {from}, "to": {to}}

	return fetchCached(ctx, c, clientdata.TablePriceHistory, clientdata.Key(symbol, from, to), clientdata.TTLPriceHistory,
		"/stock/"+url.PathEscape(symbol)+"/prices", query,
		func(body []byte) (domain.PriceSeries, error) {
			var resp envelope[priceRecord]
			if err := json.Unmarshal(body, &resp); err != nil {
				return domain.PriceSeries{}, err
			}

			points := make([]domain.PricePoint, 0, len(resp.Data))
			for _, r := range resp.Data {
				date, ok := parseDate(firstString(r.TradingDate, r.Date))
				if !ok {
					continue
				}
				points = append(points, domain.PricePoint{Date: date, Close: firstFloat(r.Close, r.ClosePrice)})
			}
			return domain.NewPriceSeries(symbol, points), nil
		})
}

// FetchFinancialStatements fetches one statement kind. Rows are returned in
// provider order, most recent first; line items carry canonical names.
// Quarterly rows keep their quarter; rows without a valid quarter are dropped.
func (c *Client) FetchFinancialStatements(ctx context.Context, symbol string, kind domain.StatementKind, period domain.PeriodKind) ([]domain.StatementRow, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid statement kind %q", kind)
	}
	symbol = domain.NormalizeSymbol(symbol)
	if period == "" {
		period = domain.PeriodYear
	}

	return fetchCached(ctx, c, clientdata.TableFinancialStatements, clientdata.Key(symbol, string(kind), string(period)), clientdata.TTLFinancialStatements,
		"/finance/"+url.PathEscape(symbol)+"/"+string(kind), url.Values{"period": {string(period)}},
		func(body []byte) ([]domain.StatementRow, error) {
			var resp envelope[statementRecord]
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, err
			}

			rows := make([]domain.StatementRow, 0, len(resp.Data))
			for _, r := range resp.Data {
				if r.Year == 0 {
					continue
				}
				quarter := 0
				if period == domain.PeriodQuarter {
					if r.Quarter < 1 || r.Quarter > 4 {
						continue
					}
					quarter = r.Quarter
				}
				items := make(map[string]float64, len(r.Items))
				for label, v := range r.Items {
					items[canonicalItem(label)] = v
				}
				rows = append(rows, domain.StatementRow{Kind: kind, FiscalYear: r.Year, Quarter: quarter, Items: items})
			}
			return rows, nil
		})
}

// FetchFundHoldings fetches the latest portfolio of a fund.
// Holdings are sorted by weight, largest first.
func (c *Client) FetchFundHoldings(ctx context.Context, fundCode string) ([]domain.Holding, error) {
	fundCode = domain.NormalizeSymbol(fundCode)

	return fetchCached(ctx, c, clientdata.TableFundHoldings, fundCode, clientdata.TTLFundHoldings,
		"/fund/"+url.PathEscape(fundCode)+"/holdings", nil,
		func(body []byte) ([]domain.Holding, error) {
			var resp envelope[holdingRecord]
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, err
			}

			holdings := make([]domain.Holding, 0, len(resp.Data))
			for _, r := range resp.Data {
				symbol := domain.NormalizeSymbol(firstString(r.StockCode, r.Ticker))
				if symbol == "" {
					continue
				}
				reportDate, _ := parseDate(firstString(r.ReportDate, r.UpdateAt))
				holdings = append(holdings, domain.Holding{
					FundCode:    fundCode,
					Symbol:      symbol,
					Name:        r.Name,
					Industry:    r.Industry,
					WeightPct:   firstFloat(r.NetAssetPercent, r.AssetPercent),
					MarketValue: firstFloat(r.MarketValue),
					ReportDate:  reportDate,
				})
			}
			sort.SliceStable(holdings, func(i, j int) bool { return holdings[i].WeightPct > holdings[j].WeightPct })
			return holdings, nil
		})
}

// BatchResult is the outcome of FetchHoldingsBatch
type BatchResult struct {
	Holdings map[string][]domain.Holding `json:"holdings"`
	Failed   map[string]string           `json:"failed,omitempty"` // fund code -> error
}

// FetchHoldingsBatch fetches several funds one after another, waiting the
// configured delay between calls. A failed fund does not stop the batch.
// Cancelling ctx stops the batch and returns what was fetched so far.
func (c *Client) FetchHoldingsBatch(ctx context.Context, fundCodes []string) (*BatchResult, error) {
	result := &BatchResult{
		Holdings: make(map[string][]domain.Holding, len(fundCodes)),
		Failed:   make(map[string]string),
	}

	for i, code := range fundCodes {
		if i > 0 && c.delay > 0 {
			timer := time.NewTimer(c.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}

		code = domain.NormalizeSymbol(code)
		holdings, err := c.FetchFundHoldings(ctx, code)
		if err != nil {
			result.Failed[code] = err.Error()
			continue
		}
		result.Holdings[code] = holdings
	}

	c.log.Info().
		Int("funds", len(fundCodes)).
		Int("failed", len(result.Failed)).
		Msg("Fetched fund holdings batch")

	return result, nil
}

// FetchOwnership fetches the major shareholders of a company
func (c *Client) FetchOwnership(ctx context.Context, symbol string) ([]domain.OwnershipEntry, error) {
	symbol = domain.NormalizeSymbol(symbol)

	return fetchCached(ctx, c, clientdata.TableOwnership, symbol, clientdata.TTLOwnership,
		"/stock/"+url.PathEscape(symbol)+"/shareholders", nil,
		func(body []byte) ([]domain.OwnershipEntry, error) {
			var resp envelope[shareholderRecord]
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, err
			}

			entries := make([]domain.OwnershipEntry, 0, len(resp.Data))
			for _, r := range resp.Data {
				holder := firstString(r.Name, r.Holder)
				if holder == "" {
					continue
				}
				updated, _ := parseDate(r.UpdateDate)
				pct := firstFloat(r.OwnPercent)
				// some endpoints report fractions instead of percentages
				if pct > 0 && pct <= 1 {
					pct *= 100
				}
				entries = append(entries, domain.OwnershipEntry{
					Symbol:       symbol,
					Holder:       holder,
					HolderType:   r.Type,
					Shares:       firstFloat(r.Quantity, r.Shares),
					OwnershipPct: pct,
					UpdatedAt:    updated,
				})
			}
			return entries, nil
		})
}

// FetchValuationEstimates fetches broker price targets for a company, newest first
func (c *Client) FetchValuationEstimates(ctx context.Context, symbol string) ([]domain.ValuationEstimate, error) {
	symbol = domain.NormalizeSymbol(symbol)

	return fetchCached(ctx, c, clientdata.TableValuation, symbol, clientdata.TTLValuation,
		"/stock/"+url.PathEscape(symbol)+"/valuation", nil,
		func(body []byte) ([]domain.ValuationEstimate, error) {
			var resp envelope[valuationRecord]
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, err
			}

			estimates := make([]domain.ValuationEstimate, 0, len(resp.Data))
			for _, r := range resp.Data {
				target := firstFloat(r.TargetPrice)
				if target <= 0 {
					continue
				}
				reportDate, _ := parseDate(r.ReportDate)
				estimates = append(estimates, domain.ValuationEstimate{
					Symbol:         symbol,
					Firm:           firstString(r.Firm, r.Broker),
					TargetPrice:    target,
					Recommendation: r.Recommendation,
					ReportDate:     reportDate,
				})
			}
			sort.SliceStable(estimates, func(i, j int) bool { return estimates[i].ReportDate.After(estimates[j].ReportDate) })
			return estimates, nil
		})
}

// fetchCached serves key from the cache when fresh, otherwise calls the API and
// stores the normalized result. When the call fails, stale cached data is
// returned instead; with no cached copy the failure is a KindProviderFailure error.
func fetchCached[T any](ctx context.Context, c *Client, table, key string, ttl time.Duration, path string, query url.Values, decode func([]byte) (T, error)) (T, error) {
	if cached, ok := fromCache[T](ctx, c, table, key, false); ok {
		c.log.Debug().Str("table", table).Str("key", key).Msg("Cache hit")
		return cached, nil
	}

	body, err := c.get(ctx, path, query)
	var value T
	if err == nil {
		value, err = decode(body)
		if err != nil {
			err = fmt.Errorf("failed to parse response: %w", err)
		}
	}

	if err != nil {
		if stale, ok := fromCache[T](ctx, c, table, key, true); ok {
			c.log.Warn().
				Err(err).
				Str("table", table).
				Str("key", key).
				Msg("API failed, using stale cached data")
			return stale, nil
		}
		c.log.Error().Err(err).Str("path", path).Msg("Market data request failed")
		var zero T
		return zero, domain.ProviderFailure(path, err)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(ctx, table, key, value, ttl); err != nil {
			c.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache response")
		}
	}

	return value, nil
}

// fromCache decodes a cached payload. stale=true ignores expiry.
func fromCache[T any](ctx context.Context, c *Client, table, key string, stale bool) (T, bool) {
	var value T
	if c.cacheRepo == nil {
		return value, false
	}

	get := c.cacheRepo.GetIfFresh
	if stale {
		get = c.cacheRepo.Get
	}

	data, err := get(ctx, table, key)
	if err != nil || data == nil {
		return value, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		c.log.Debug().Err(err).Str("table", table).Str("key", key).Msg("Discarding unreadable cache entry")
		return value, false
	}
	return value, true
}

// get performs a GET request and returns the body of a 200 response
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", u).Msg("Fetching")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
