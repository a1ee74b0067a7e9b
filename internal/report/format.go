// Package report renders screened rows as a text table, an HTML page or JSON.
package report

import (
	"math"

	"github.com/shopspring/decimal"
)

// Placeholder stands in for an absent value
const Placeholder = "-"

// Format renders v with two decimals, rounding half away from zero on
// the shortest decimal form of v (1.005 -> "1.01")
func Format(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Placeholder
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}
