package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	sweepFile string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moneyrobot",
	Short: "Market data labeling and warehouse load pipeline",
	Long: `moneyrobot builds supervised training datasets from daily price
history and ships them to the warehouse.

For every configured (ticker, strategy, shift, move) combination it
labels the history, enriches it with technical indicators, and writes
one TRAIN and one TEST table.

Usage:
  go run ./cmd/moneyrobot [command]

Examples:
  go run ./cmd/moneyrobot sweep
  go run ./cmd/moneyrobot sweep --config my_sweep.yaml
  go run ./cmd/moneyrobot schedule
  go run ./cmd/moneyrobot api
  go run ./cmd/moneyrobot test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&sweepFile, "config", "sweep.yaml", "sweep definition file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
