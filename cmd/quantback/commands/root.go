package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quantback",
	Short: "Score-to-signal backtesting for A-share strategies",
	Long: `quantback turns model scores into trading signals and replays them
against a simulated portfolio with A-share transaction costs.

Usage:
  go run ./cmd/quantback [command]

Examples:
  go run ./cmd/quantback signals generate --strategy strategies/topk.yaml --model m1 --from 2024-01-01 --to 2024-06-30
  go run ./cmd/quantback backtest run --strategy strategies/topk.yaml --model m1 --from 2024-01-01 --to 2024-06-30
  go run ./cmd/quantback sweep --strategy a.yaml --strategy b.yaml --model m1 --from 2024-01-01`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
