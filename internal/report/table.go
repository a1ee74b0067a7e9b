package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wonny/b3monitor/internal/selection"
)

// Column headers, in display order
var Columns = []string{
	"Ticker", "Preço", "P/L", "P/VP", "DY%", "ROE%",
	"Dívida/Patrimônio", "PEG", "EV/EBITDA", "Graham",
}

const (
	columnRank   = "#"
	columnReason = "Motivo"
)

// TableOptions selects the optional columns
type TableOptions struct {
	ShowRank   bool
	ShowReason bool
}

// Headers returns the header row for opts
func Headers(opts TableOptions) []string {
	headers := make([]string, 0, len(Columns)+2)
	if opts.ShowRank {
		headers = append(headers, columnRank)
	}
	headers = append(headers, Columns...)
	if opts.ShowReason {
		headers = append(headers, columnReason)
	}
	return headers
}

// Cells returns the formatted cells of row for opts
func Cells(row selection.Row, opts TableOptions) []string {
	s := row.Stock
	r := row.Ratios

	cells := make([]string, 0, len(Columns)+2)
	if opts.ShowRank {
		rank := Placeholder
		if row.Rank > 0 {
			rank = strconv.Itoa(row.Rank)
		}
		cells = append(cells, rank)
	}
	cells = append(cells,
		s.Symbol,
		Format(s.RegularMarketPrice),
		Format(s.PriceEarnings),
		Format(s.PriceBookValue),
		Format(s.DividendYield),
		Format(s.ROE),
		Format(r.DebtEquity),
		Format(r.PEG),
		Format(r.EVEBITDA),
		Format(r.IntrinsicValue),
	)
	if opts.ShowReason {
		reason := row.Reason
		if reason == "" {
			reason = Placeholder
		}
		cells = append(cells, reason)
	}
	return cells
}

// WriteTable writes rows as an aligned text table
func WriteTable(w io.Writer, rows []selection.Row, opts TableOptions) error {
	headers := Headers(opts)
	body := make([][]string, len(rows))

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for i, row := range rows {
		body[i] = Cells(row, opts)
		for j, cell := range body[i] {
			if n := utf8.RuneCountInString(cell); n > widths[j] {
				widths[j] = n
			}
		}
	}

	if err := writeLine(w, headers, widths); err != nil {
		return err
	}

	total := 0
	for _, width := range widths {
		total += width + 2
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("─", total-2)); err != nil {
		return err
	}

	for _, cells := range body {
		if err := writeLine(w, cells, widths); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, cells []string, widths []int) error {
	var b strings.Builder
	for i, cell := range cells {
		if i == len(cells)-1 {
			b.WriteString(cell)
			break
		}
		fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
	}
	_, err := fmt.Fprintln(w, b.String())
	return err
}
