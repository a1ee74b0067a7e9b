package contracts

import (
	"errors"
	"fmt"
	"math"
)

// Stock is one company's market/fundamental snapshot as normalized from
// the quote source.
// ⭐ SSOT: the single normalized shape shared by fetch, metrics and report
//
// Every numeric field is optional: nil means "unknown", never zero.
// Present values are always finite; producers build them with Float.
type Stock struct {
	Symbol             string   `json:"symbol"`
	RegularMarketPrice *float64 `json:"regularMarketPrice,omitempty"`
	PriceEarnings      *float64 `json:"priceEarnings,omitempty"`
	PriceBookValue     *float64 `json:"priceBookValue,omitempty"`
	DividendYield      *float64 `json:"dividendYield,omitempty"` // unit as supplied upstream
	ROE                *float64 `json:"roe,omitempty"`           // percent, 18.5 = 18.5%
	GrossDebt          *float64 `json:"grossDebt,omitempty"`
	Equity             *float64 `json:"equity,omitempty"`
	EarningsPerShare   *float64 `json:"earningsPerShare,omitempty"`
	BookValuePerShare  *float64 `json:"bookValuePerShare,omitempty"`
	ProfitGrowth5y     *float64 `json:"profitGrowth5y,omitempty"` // percent
	EBITDA             *float64 `json:"ebitda,omitempty"`
	MarketCap          *float64 `json:"marketCap,omitempty"`
}

// ErrEmptySymbol is returned by Validate for a stock without ticker
var ErrEmptySymbol = errors.New("stock symbol is empty")

// Float returns a pointer to v, or nil when v is NaN or infinite
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Validate checks the producer-side invariants: a ticker and finite values
func (s Stock) Validate() error {
	if s.Symbol == "" {
		return ErrEmptySymbol
	}
	for name, v := range s.fields() {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("stock %s: field %s is not finite", s.Symbol, name)
		}
	}
	return nil
}

// Known counts how many optional fields are present
func (s Stock) Known() int {
	n := 0
	for _, v := range s.fields() {
		if v != nil {
			n++
		}
	}
	return n
}

func (s Stock) fields() map[string]*float64 {
	return map[string]*float64{
		"regularMarketPrice": s.RegularMarketPrice,
		"priceEarnings":      s.PriceEarnings,
		"priceBookValue":     s.PriceBookValue,
		"dividendYield":      s.DividendYield,
		"roe":                s.ROE,
		"grossDebt":          s.GrossDebt,
		"equity":             s.Equity,
		"earningsPerShare":   s.EarningsPerShare,
		"bookValuePerShare":  s.BookValuePerShare,
		"profitGrowth5y":     s.ProfitGrowth5y,
		"ebitda":             s.EBITDA,
		"marketCap":          s.MarketCap,
	}
}
