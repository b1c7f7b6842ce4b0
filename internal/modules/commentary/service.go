// Package commentary turns score reports and optimization runs into short
// analyst-style narratives using a chat model.
package commentary

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/modules/optimization"
	"github.com/aristath/finlens/internal/modules/scoring"
)

// ErrDisabled is returned when no chat model is configured
var ErrDisabled = errors.New("commentary is disabled: no chat model configured")

// Narrator produces text from a system and a user prompt
type Narrator interface {
	Enabled() bool
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ScoreSource provides score reports
type ScoreSource interface {
	Score(ctx context.Context, symbol string, period domain.PeriodKind) (*scoring.Report, error)
}

// Commentary is a generated narrative
type Commentary struct {
	Subject     string    `json:"subject"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

const scoreSystemPrompt = `You are a financial analyst covering Vietnamese listed companies.
You receive accounting-model scores per fiscal year: Piotroski F-Score (0-9, higher is healthier),
Altman Z-Score (distress below 1.81, safe above 2.99), Beneish M-Score (above -1.78 suggests earnings manipulation),
DuPont ROE decomposition and a conservatism C-Score (0-5, higher is more aggressive accounting).
Write 3 short paragraphs in plain text: overall health, trend across years, and red flags.
Do not invent numbers that are not in the data. Mention years that could not be scored.`

const runSystemPrompt = `You are a portfolio strategist. You receive the result of a Monte Carlo portfolio search
over Vietnamese equities: per-symbol annualized statistics and three reference portfolios
(Optimal = max Sharpe, Aggressive = max return, Defensive = min volatility).
Write 2 short paragraphs in plain text comparing the portfolios and naming concentration risks.
Do not give personalised investment advice.`

// Service builds prompts and asks the narrator for commentary
type Service struct {
	narrator Narrator
	scores   ScoreSource
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates a new commentary service
func NewService(narrator Narrator, scores ScoreSource, log zerolog.Logger) *Service {
	return &Service{
		narrator: narrator,
		scores:   scores,
		now:      time.Now,
		log:      log.With().Str("service", "commentary").Logger(),
	}
}

// ScoreCommentary scores symbol and narrates the report
func (s *Service) ScoreCommentary(ctx context.Context, symbol string, period domain.PeriodKind) (*Commentary, error) {
	if !s.narrator.Enabled() {
		return nil, ErrDisabled
	}

	report, err := s.scores.Score(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	text, err := s.narrator.Complete(ctx, scoreSystemPrompt, ScorePrompt(report))
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("symbol", report.Symbol).Msg("Generated score commentary")
	return &Commentary{Subject: report.Symbol, Text: text, GeneratedAt: s.now().UTC()}, nil
}

// RunCommentary narrates a completed optimization run
func (s *Service) RunCommentary(ctx context.Context, run *optimization.Run) (*Commentary, error) {
	if !s.narrator.Enabled() {
		return nil, ErrDisabled
	}
	if run == nil || run.Result == nil {
		return nil, fmt.Errorf("no optimization result to describe")
	}

	text, err := s.narrator.Complete(ctx, runSystemPrompt, RunPrompt(run))
	if err != nil {
		return nil, err
	}

	return &Commentary{Subject: run.ID, Text: text, GeneratedAt: s.now().UTC()}, nil
}

// ScorePrompt renders a report as a compact, year-ordered table
func ScorePrompt(report *scoring.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", report.Symbol)
	if len(report.Missing) > 0 {
		missing := make([]string, len(report.Missing))
		for i, k := range report.Missing {
			missing[i] = string(k)
		}
		fmt.Fprintf(&b, "Unavailable statements: %s\n", strings.Join(missing, ", "))
	}

	for _, model := range scoring.Models {
		fmt.Fprintf(&b, "\n%s:\n", model.Title())
		for _, r := range report.Records {
			if r.Model != model {
				continue
			}
			if !r.Defined() {
				fmt.Fprintf(&b, "  %s: not available (%s)\n", r.Period(), r.Reason)
				continue
			}
			fmt.Fprintf(&b, "  %s: %s", r.Period(), formatNumber(*r.Score))
			if r.Classification != "" {
				fmt.Fprintf(&b, " [%s]", r.Classification)
			}
			if len(r.Components) > 0 {
				fmt.Fprintf(&b, " %s", formatComponents(r.Components))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RunPrompt renders an optimization run
func RunPrompt(run *optimization.Run) string {
	var b strings.Builder
	res := run.Result
	fmt.Fprintf(&b, "Period: %s to %s, NAV %.0f\n", run.Start.Format(domain.DateLayout), run.End.Format(domain.DateLayout), res.NAV)

	b.WriteString("\nSymbols:\n")
	for _, st := range res.Stats {
		fmt.Fprintf(&b, "  %s: annual return %s, annual risk %s, sharpe %s\n",
			st.Symbol, formatNumber(st.AnnualReturn), formatNumber(st.AnnualRisk), formatNumber(st.Sharpe))
	}

	b.WriteString("\nPortfolios:\n")
	for _, a := range res.Allocations {
		fmt.Fprintf(&b, "  %s: return %s, volatility %s, sharpe %s;",
			a.Label, formatNumber(a.ExpectedReturn), formatNumber(a.ExpectedVolatility), formatNumber(a.Sharpe))
		for _, p := range a.Positions {
			fmt.Fprintf(&b, " %s %.0f%%", p.Symbol, p.RoundedWeight*100)
		}
		b.WriteString("\n")
	}

	if len(run.Skipped) > 0 {
		skipped := make([]string, 0, len(run.Skipped))
		for symbol := range run.Skipped {
			skipped = append(skipped, symbol)
		}
		sort.Strings(skipped)
		fmt.Fprintf(&b, "\nExcluded for missing data: %s\n", strings.Join(skipped, ", "))
	}
	return b.String()
}

func formatComponents(components map[string]float64) string {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + formatNumber(components[name])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 0):
		return "unbounded"
	default:
		return fmt.Sprintf("%.4g", v)
	}
}
