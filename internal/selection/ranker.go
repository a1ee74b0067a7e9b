package selection

import (
	"sort"
)

// Rank orders admitted rows by Graham discount (intrinsic value over
// price), largest first, and numbers them from 1. Rows without both
// values keep their relative order at the end. rows is not modified.
func Rank(rows []Row) []Row {
	ranked := make([]Row, len(rows))
	copy(ranked, rows)

	sort.SliceStable(ranked, func(i, j int) bool {
		di, okI := Discount(ranked[i])
		dj, okJ := Discount(ranked[j])
		if okI != okJ {
			return okI
		}
		return okI && di > dj
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Discount is IntrinsicValue / price; above 1 means trading below the
// Graham number
func Discount(row Row) (float64, bool) {
	price := row.Stock.RegularMarketPrice
	iv := row.Ratios.IntrinsicValue
	if price == nil || iv == nil || *price <= 0 {
		return 0, false
	}
	return *iv / *price, true
}
