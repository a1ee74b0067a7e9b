package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/b3monitor/internal/report"
	"github.com/wonny/b3monitor/internal/selection"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Fetch quotes, apply the value screen and print the table",
	Long: `Fetches the brapi.dev ticker list (or --symbols), derives the ratios
and prints the stocks passing the screen:

  P/L > 0, P/VP <= 1, ROE >= 15%, Dívida/Patrimônio < 1,
  PEG <= 1, EV/EBITDA <= 10

Checks whose inputs are missing are skipped.

Example:
  go run ./cmd/b3monitor screen
  go run ./cmd/b3monitor screen --all --rank
  go run ./cmd/b3monitor screen --symbols PETR4,VALE3 --json
  go run ./cmd/b3monitor screen --html out.html`,
	RunE: runScreen,
}

var (
	screenJSON    bool
	screenAll     bool
	screenRank    bool
	screenSymbols []string
	screenHTML    string
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "print JSON instead of a table")
	screenCmd.Flags().BoolVar(&screenAll, "all", false, "include rejected stocks with the failing check")
	screenCmd.Flags().BoolVar(&screenRank, "rank", false, "order admitted stocks by Graham discount")
	screenCmd.Flags().StringSliceVar(&screenSymbols, "symbols", nil, "tickers to fetch instead of the brapi list")
	screenCmd.Flags().StringVar(&screenHTML, "html", "", "also write the HTML page to this file")
}

func runScreen(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	stocks, err := a.brapi.Snapshot(ctx, parseSymbols(screenSymbols...))
	if err != nil {
		PrintError(cmd.ErrOrStderr(), fmt.Sprintf("quote fetch failed: %v", err))
		return err
	}

	result := a.screener.Screen(ctx, stocks)

	rows := result.Rows(screenAll)
	if screenRank {
		rows = selection.Rank(result.Admitted)
		if screenAll {
			rows = append(rows, result.Rejected...)
		}
	}

	if screenHTML != "" {
		if err := writeHTMLFile(screenHTML, report.Page{
			TakenAt: time.Now(),
			Rows:    rows,
			Options: report.TableOptions{ShowRank: screenRank, ShowReason: screenAll},
			Reasons: result.Reasons,
		}); err != nil {
			return err
		}
	}

	if screenJSON {
		return report.WriteJSON(out, rows)
	}

	PrintHeader(out, report.Title)
	if err := report.WriteTable(out, rows, report.TableOptions{ShowRank: screenRank, ShowReason: screenAll}); err != nil {
		return err
	}
	PrintSeparator(out)
	PrintSuccess(out, fmt.Sprintf("%d of %d stocks passed the screen", len(result.Admitted), len(stocks)))
	for _, reason := range reasonOrder(result.Reasons) {
		PrintKV(out, reason, fmt.Sprintf("%d rejected", result.Reasons[reason]))
	}
	if screenHTML != "" {
		PrintInfo(out, "HTML written to "+screenHTML)
	}
	return nil
}

func writeHTMLFile(path string, page report.Page) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteHTML(f, page); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
