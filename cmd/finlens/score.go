package main

import (
	"github.com/spf13/cobra"

	"github.com/aristath/finlens/internal/modules/scoring"
)

func (a *app) newScoreCmd() *cobra.Command {
	var (
		statements string
		symbol     string
		models     []string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a statements file with the financial health models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := scoring.Models
			if len(models) > 0 {
				selected = nil
				for _, name := range models {
					m, err := scoring.ParseModel(name)
					if err != nil {
						return err
					}
					selected = append(selected, m)
				}
			}

			st, err := loadStatementsFile(statements, symbol)
			if err != nil {
				return err
			}

			var records []scoring.ScoreRecord
			for _, m := range selected {
				records = append(records, scoring.Series(m, st)...)
			}

			a.log.Debug().
				Str("symbol", st.Symbol).
				Int("years", st.Len()).
				Int("records", len(records)).
				Msg("Scored statements")

			return writeJSON(cmd.OutOrStdout(), scoring.Report{
				Symbol:  st.Symbol,
				Years:   st.Years(),
				Periods: st.Periods(),
				Records: records,
			})
		},
	}

	cmd.Flags().StringVar(&statements, "statements", "", "Statements CSV with columns year,kind,item,value and an optional quarter")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Symbol to label the report with")
	cmd.Flags().StringSliceVar(&models, "models", nil, "Models to run (default: all)")
	cmd.MarkFlagRequired("statements")

	return cmd
}
