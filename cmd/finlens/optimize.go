package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/finlens/internal/domain"
	"github.com/aristath/finlens/internal/modules/optimization"
)

// simulationFlags are shared by optimize and chart weights
type simulationFlags struct {
	prices  string
	symbols []string
	start   string
	end     string
	nav     float64
	seed    uint64
}

func (a *app) addSimulationFlags(cmd *cobra.Command, f *simulationFlags) {
	cmd.Flags().StringVar(&f.prices, "prices", "", "Prices CSV with columns date,symbol,close")
	cmd.Flags().StringSliceVar(&f.symbols, "symbols", nil, "Symbols to include (default: every symbol in the file)")
	cmd.Flags().StringVar(&f.start, "start", "", "First date YYYY-MM-DD (default: earliest in the file)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last date YYYY-MM-DD (default: latest in the file)")
	cmd.Flags().Float64Var(&f.nav, "nav", 0, "Net asset value used to size positions")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Seed for a reproducible run")
	cmd.MarkFlagRequired("prices")

	a.v.BindEnv("optimizer.risk_free_rate", "RISK_FREE_RATE")
	a.v.SetDefault("optimizer.risk_free_rate", 0.05)
	cmd.Flags().Float64("rf", 0.05, "Annual risk-free rate")

	a.v.BindEnv("optimizer.num_portfolios", "NUM_PORTFOLIOS")
	a.v.SetDefault("optimizer.num_portfolios", 1000)
	cmd.Flags().Int("n", 1000, "Number of random portfolios")

	a.v.BindEnv("optimizer.max_portfolios", "MAX_PORTFOLIOS")
	a.v.SetDefault("optimizer.max_portfolios", optimization.MaxNumPortfolios)
}

// bindSimulationFlags points viper at the flags of the command being run.
// optimize and chart weights share keys, so binding happens per run.
func (a *app) bindSimulationFlags(cmd *cobra.Command) error {
	if err := a.v.BindPFlag("optimizer.risk_free_rate", cmd.Flags().Lookup("rf")); err != nil {
		return err
	}
	return a.v.BindPFlag("optimizer.num_portfolios", cmd.Flags().Lookup("n"))
}

// simulate loads the prices file and runs the optimizer
func (a *app) simulate(ctx context.Context, cmd *cobra.Command, f *simulationFlags) (*optimization.Run, error) {
	if err := a.bindSimulationFlags(cmd); err != nil {
		return nil, err
	}

	book, err := loadPricesFile(f.prices)
	if err != nil {
		return nil, err
	}

	start, end := book.Span()
	if f.start != "" {
		if start, err = time.Parse(domain.DateLayout, f.start); err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if f.end != "" {
		if end, err = time.Parse(domain.DateLayout, f.end); err != nil {
			return nil, fmt.Errorf("invalid --end: %w", err)
		}
	}
	if end.Before(start) {
		return nil, fmt.Errorf("--end must not be before --start")
	}
	if f.nav < 0 {
		return nil, fmt.Errorf("--nav must not be negative")
	}

	symbols := f.symbols
	if len(symbols) == 0 {
		symbols = book.Symbols()
	}

	numPortfolios := a.v.GetInt("optimizer.num_portfolios")
	if numPortfolios <= 0 {
		return nil, fmt.Errorf("--n must be positive")
	}
	rf := a.v.GetFloat64("optimizer.risk_free_rate")

	service := optimization.NewService(book, a.memoizer(), rf, numPortfolios, a.log)
	service.SetMaxPortfolios(a.v.GetInt("optimizer.max_portfolios"))

	req := optimization.SimulateRequest{
		Symbols:       symbols,
		Start:         start,
		End:           end,
		NAV:           f.nav,
		NumPortfolios: numPortfolios,
		RiskFreeRate:  &rf,
	}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		req.Seed = &seed
	}

	return service.Simulate(ctx, req)
}

func (a *app) newOptimizeCmd() *cobra.Command {
	f := &simulationFlags{}

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run the Monte-Carlo portfolio optimizer on a prices file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := a.simulate(cmd.Context(), cmd, f)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), run)
		},
	}
	a.addSimulationFlags(cmd, f)

	return cmd
}
