package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/FJORD/internal/logging"
)

var (
	logLevel  string
	logFormat string
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fjord",
	Short: "Black-box parameter solver service",
	Long: `FJORD searches for optimal parameter assignments of black-box
objective functions using interchangeable strategies: grid search, random
search, Nelder-Mead simplex, particle swarm and coupled simulated annealing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(&logging.Config{
			Level:  logLevel,
			Format: logFormat,
			Output: "stderr",
		})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (json, console)")
}
