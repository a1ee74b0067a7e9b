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
	Use:   "b3monitor",
	Short: "Monitor de Ações Brasileiras - value screen over brapi.dev quotes",
	Long: `b3monitor fetches B3 quotes from brapi.dev, derives valuation ratios
(Graham number, Debt/Equity, PEG, EV/EBITDA) and keeps the stocks that
pass a fixed value screen.

Usage:
  go run ./cmd/b3monitor [command]

Examples:
  go run ./cmd/b3monitor screen
  go run ./cmd/b3monitor screen --all --symbols PETR4,VALE3
  go run ./cmd/b3monitor ratios BBAS3 ITSA4
  go run ./cmd/b3monitor serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "screen thresholds YAML (default: STRATEGY_FILE or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
