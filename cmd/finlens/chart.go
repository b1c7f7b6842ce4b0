package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/finlens/internal/modules/charts"
	"github.com/aristath/finlens/internal/modules/scoring"
)

func (a *app) newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render PNG charts",
	}

	cmd.AddCommand(a.newChartWeightsCmd())
	cmd.AddCommand(a.newChartScoresCmd())

	return cmd
}

func (a *app) newChartWeightsCmd() *cobra.Command {
	f := &simulationFlags{}
	var out string

	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Optimize a prices file and chart the strategy weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := a.simulate(cmd.Context(), cmd, f)
			if err != nil {
				return err
			}

			png, err := charts.NewService(a.log).WeightsChart(run.Stacked)
			if err != nil {
				return err
			}
			return writeFile(cmd, out, png)
		},
	}
	a.addSimulationFlags(cmd, f)
	cmd.Flags().StringVar(&out, "out", "weights.png", "Output PNG path")

	return cmd
}

func (a *app) newChartScoresCmd() *cobra.Command {
	var (
		statements string
		symbol     string
		model      string
		out        string
	)

	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Chart one model's scores from a statements file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := scoring.ParseModel(model)
			if err != nil {
				return err
			}
			st, err := loadStatementsFile(statements, symbol)
			if err != nil {
				return err
			}

			png, err := charts.NewService(a.log).ScoreChart(st.Symbol, m, scoring.Series(m, st))
			if err != nil {
				return err
			}
			return writeFile(cmd, out, png)
		},
	}
	cmd.Flags().StringVar(&statements, "statements", "", "Statements CSV with columns year,kind,item,value and an optional quarter")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Symbol to title the chart with")
	cmd.Flags().StringVar(&model, "model", string(scoring.ModelFScore), "Model to chart")
	cmd.Flags().StringVar(&out, "out", "scores.png", "Output PNG path")
	cmd.MarkFlagRequired("statements")

	return cmd
}

func writeFile(cmd *cobra.Command, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(data))
	return nil
}
