// Package charts renders optimization and scoring results as PNG charts.
package charts

import (
	"fmt"

	"github.com/rs/zerolog"
	gocharts "github.com/vicanso/go-charts/v2"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/modules/optimization"
	"github.com/aristath/finlens/internal/modules/scoring"
	"github.com/aristath/finlens/pkg/formulas"
)

// Default image size in pixels
const (
	DefaultWidth  = 900
	DefaultHeight = 540
)

// Service renders charts
type Service struct {
	width  int
	height int
	log    zerolog.Logger
}

// NewService creates a new charts service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		width:  DefaultWidth,
		height: DefaultHeight,
		log:    log.With().Str("service", "charts").Logger(),
	}
}

func (s *Service) sizeOptions() []gocharts.OptionFunc {
	return []gocharts.OptionFunc{
		gocharts.ThemeOptionFunc(gocharts.ThemeLight),
		gocharts.WidthOptionFunc(s.width),
		gocharts.HeightOptionFunc(s.height),
	}
}

// WeightsChart renders the percent-of-total weights of each strategy as
// grouped bars, one series per symbol.
func (s *Service) WeightsChart(series optimization.StackedSeries) ([]byte, error) {
	if len(series.Labels) == 0 || len(series.Symbols) == 0 {
		return nil, domain.InsufficientData("charts", "no allocations to chart")
	}
	if len(series.Percent) != len(series.Labels) {
		return nil, fmt.Errorf("stacked series has %d rows for %d labels", len(series.Percent), len(series.Labels))
	}

	values := make([][]float64, len(series.Symbols))
	for j := range series.Symbols {
		values[j] = make([]float64, len(series.Labels))
		for i, row := range series.Percent {
			if j < len(row) {
				values[j][i] = row[j]
			}
		}
	}

	yMin, yMax := 0.0, 100.0
	opts := append(s.sizeOptions(),
		gocharts.TitleTextOptionFunc("Portfolio weights", "% of NAV per strategy"),
		gocharts.XAxisDataOptionFunc(series.Labels),
		gocharts.YAxisOptionFunc(gocharts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		gocharts.LegendOptionFunc(gocharts.LegendOption{Data: series.Symbols, Top: gocharts.PositionBottom}),
	)

	return s.render("weights", func() (*gocharts.Painter, error) {
		return gocharts.BarRender(values, opts...)
	})
}

// ScoreChart renders one model's score across fiscal years. Undefined years are left out.
func (s *Service) ScoreChart(symbol string, model scoring.Model, records []scoring.ScoreRecord) ([]byte, error) {
	var (
		years  []string
		scores []float64
	)
	for _, r := range records {
		if r.Model != model || !r.Defined() {
			continue
		}
		years = append(years, r.Period().String())
		scores = append(scores, *r.Score)
	}
	if len(scores) == 0 {
		return nil, domain.InsufficientData("charts", "%s has no defined %s scores", symbol, model)
	}

	opts := append(s.sizeOptions(),
		gocharts.TitleTextOptionFunc(fmt.Sprintf("%s • %s", domain.NormalizeSymbol(symbol), model.Title())),
		gocharts.XAxisOptionFunc(gocharts.XAxisOption{Data: years, BoundaryGap: gocharts.FalseFlag()}),
	)
	if lo, hi, ok := modelRange(model); ok {
		opts = append(opts, gocharts.YAxisOptionFunc(gocharts.YAxisOption{Min: &lo, Max: &hi}))
	}

	return s.render("scores", func() (*gocharts.Painter, error) {
		return gocharts.LineRender([][]float64{scores}, opts...)
	})
}

// PriceChart renders the close history with SMA(20) and SMA(50) overlays
func (s *Service) PriceChart(series domain.PriceSeries) ([]byte, error) {
	if series.Len() < 2 {
		return nil, domain.InsufficientData("charts", "%s has %d prices, need at least 2", series.Symbol, series.Len())
	}

	closes := series.Closes()
	dates := make([]string, len(series.Points))
	for i, p := range series.Points {
		dates[i] = p.Date.Format(domain.DateLayout)
	}

	values := [][]float64{closes}
	names := []string{"Close"}
	for _, length := range []int{20, 50} {
		if len(closes) >= length {
			values = append(values, formulas.MovingAverageSeries(closes, length))
			names = append(names, fmt.Sprintf("SMA %d", length))
		}
	}

	yMin, yMax := bounds(closes)
	opts := append(s.sizeOptions(),
		gocharts.TitleTextOptionFunc(series.Symbol),
		gocharts.XAxisOptionFunc(gocharts.XAxisOption{Data: dates, BoundaryGap: gocharts.FalseFlag(), SplitNumber: 8}),
		gocharts.YAxisOptionFunc(gocharts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		gocharts.LegendOptionFunc(gocharts.LegendOption{Data: names}),
	)

	return s.render("prices", func() (*gocharts.Painter, error) {
		return gocharts.LineRender(values, opts...)
	})
}

func (s *Service) render(kind string, fn func() (*gocharts.Painter, error)) ([]byte, error) {
	painter, err := fn()
	if err != nil {
		return nil, fmt.Errorf("failed to render %s chart: %w", kind, err)
	}

	buf, err := painter.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s chart: %w", kind, err)
	}

	s.log.Debug().Str("chart", kind).Int("bytes", len(buf)).Msg("Rendered chart")
	return buf, nil
}

// modelRange returns the fixed axis range of bounded scores
func modelRange(model scoring.Model) (float64, float64, bool) {
	switch model {
	case scoring.ModelFScore:
		return 0, 9, true
	case scoring.ModelCScore:
		return 0, 5, true
	default:
		return 0, 0, false
	}
}

// bounds pads the value range by 5% on each side
func bounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = hi * 0.05
	}
	return lo - pad, hi + pad
}
