package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/b3monitor/internal/metrics"
	"github.com/wonny/b3monitor/internal/report"
)

var ratiosCmd = &cobra.Command{
	Use:   "ratios SYMBOL...",
	Short: "Print every ratio and the screen verdict for the given tickers",
	Example: `  go run ./cmd/b3monitor ratios BBAS3
  go run ./cmd/b3monitor ratios PETR4,VALE3 ITSA4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRatios,
}

func init() {
	rootCmd.AddCommand(ratiosCmd)
}

func runRatios(cmd *cobra.Command, args []string) error {
	symbols := parseSymbols(args...)
	if len(symbols) == 0 {
		return fmt.Errorf("no valid symbols in %v", args)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	stocks, err := a.brapi.FetchQuotes(ctx, symbols)
	if err != nil {
		PrintError(cmd.ErrOrStderr(), fmt.Sprintf("quote fetch failed: %v", err))
		return err
	}

	result := a.screener.Screen(ctx, stocks)

	for _, symbol := range symbols {
		row, ok := result.Find(symbol)
		if !ok {
			PrintWarning(out, symbol+": not returned by brapi")
			continue
		}

		s, r := row.Stock, row.Ratios
		PrintHeader(out, s.Symbol)
		PrintKV(out, "Preço", report.Format(s.RegularMarketPrice))
		PrintKV(out, "P/L", report.Format(s.PriceEarnings))
		PrintKV(out, "P/VP", report.Format(s.PriceBookValue))
		PrintKV(out, "DY%", report.Format(s.DividendYield))
		PrintKV(out, "ROE%", report.Format(s.ROE))
		PrintKV(out, "Dívida/Patrimônio", report.Format(r.DebtEquity))
		PrintKV(out, "PEG", report.Format(r.PEG))
		PrintKV(out, "EV/EBITDA", report.Format(r.EVEBITDA))
		PrintKV(out, "Graham", report.Format(r.IntrinsicValue))
		PrintSeparator(out)

		if row.Admitted {
			PrintSuccess(out, "passes the screen")
		} else {
			PrintError(out, fmt.Sprintf("rejected: %s", describeReason(row.Reason, a.screener.Thresholds())))
		}
	}

	return nil
}

// describeReason spells out the failed check with its threshold
func describeReason(reason string, t metrics.Thresholds) string {
	switch reason {
	case metrics.ReasonPE:
		return fmt.Sprintf("P/L <= %g", t.MinPE)
	case metrics.ReasonPVP:
		return fmt.Sprintf("P/VP > %g", t.MaxPVP)
	case metrics.ReasonROE:
		return fmt.Sprintf("ROE < %g%%", t.MinROE)
	case metrics.ReasonDebtEquity:
		return fmt.Sprintf("Dívida/Patrimônio >= %g", t.MaxDebtEquity)
	case metrics.ReasonPEG:
		return fmt.Sprintf("PEG > %g", t.MaxPEG)
	case metrics.ReasonEVEBITDA:
		return fmt.Sprintf("EV/EBITDA > %g", t.MaxEVEBITDA)
	default:
		return reason
	}
}

// reasonOrder lists the reasons present in counts, in check order
func reasonOrder(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for _, reason := range metrics.Reasons {
		if counts[reason] > 0 {
			out = append(out, reason)
		}
	}
	return out
}
