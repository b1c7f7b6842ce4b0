package main

import (
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aristath/finlens/internal/memo"
	"github.com/aristath/finlens/pkg/logger"
)

const version = "1.0.0"

// app carries the state shared by all subcommands
type app struct {
	v   *viper.Viper
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:           "finlens",
		Version:       version,
		Short:         "FinLens analyses Vietnamese equities",
		Long:          `Monte-Carlo portfolio optimization and financial health scoring (Piotroski F, Altman Z, Beneish M, DuPont, C-Score) on local CSV data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log = logger.New(logger.Config{
				Level:  a.v.GetString("log.level"),
				Pretty: true,
				Output: cmd.ErrOrStderr(),
			})
		},
	}

	// Logging configuration
	a.v.BindEnv("log.level", "LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warn", "Logging level")
	a.v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(a.newOptimizeCmd())
	rootCmd.AddCommand(a.newScoreCmd())
	rootCmd.AddCommand(a.newChartCmd())

	return rootCmd
}

// memoizer returns an in-process cache for a single command run
func (a *app) memoizer() *memo.Memoizer {
	cache, err := memo.NewLRU(256)
	if err != nil {
		a.log.Warn().Err(err).Msg("Memo cache unavailable, computing without it")
		return memo.NewMemoizer(nil, 0, a.log)
	}
	return memo.NewMemoizer(cache, time.Hour, a.log)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
