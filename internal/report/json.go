package report

import (
	"encoding/json"
	"io"

	"github.com/wonny/b3monitor/internal/selection"
)

// WriteJSON writes rows as an indented JSON array. Absent values are
// null in "ratios" and omitted in "stock".
func WriteJSON(w io.Writer, rows []selection.Row) error {
	if rows == nil {
		rows = []selection.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
