// Package metrics computes valuation ratios over a contracts.Stock and the
// default value screen built on them.
//
// Every function is pure: no state, no I/O, no mutation of the input.
// A ratio that cannot be computed is reported with ok == false; a value
// returned with ok == true is always finite.
package metrics

import (
	"math"

	"github.com/wonny/b3monitor/internal/contracts"
)

// grahamMultiplier is 15 (max P/E) × 1.5 (max P/VP)
const grahamMultiplier = 22.5

// IntrinsicValue is the Graham number sqrt(22.5 × EPS × BVPS).
// Absent when either input is absent or the radicand is negative.
func IntrinsicValue(s contracts.Stock) (float64, bool) {
	if s.EarningsPerShare == nil || s.BookValuePerShare == nil {
		return 0, false
	}
	radicand := grahamMultiplier * *s.EarningsPerShare * *s.BookValuePerShare
	if radicand < 0 {
		return 0, false
	}
	return finite(math.Sqrt(radicand))
}

// DebtEquity is gross debt over shareholder equity
func DebtEquity(s contracts.Stock) (float64, bool) {
	if s.GrossDebt == nil {
		return 0, false
	}
	return divide(*s.GrossDebt, s.Equity)
}

// PEGRatio is P/E over the 5y profit growth (percent)
func PEGRatio(s contracts.Stock) (float64, bool) {
	if s.PriceEarnings == nil {
		return 0, false
	}
	return divide(*s.PriceEarnings, s.ProfitGrowth5y)
}

// EVEBITDA is (market cap + gross debt) over EBITDA. A missing gross
// debt is read as debt-free.
func EVEBITDA(s contracts.Stock) (float64, bool) {
	if s.MarketCap == nil {
		return 0, false
	}
	ev := *s.MarketCap
	if s.GrossDebt != nil {
		ev += *s.GrossDebt
	}
	return divide(ev, s.EBITDA)
}

// Ratios bundles the derived ratios of one stock for display.
// nil means "not computable".
type Ratios struct {
	DebtEquity     *float64 `json:"debtEquity"`
	PEG            *float64 `json:"peg"`
	EVEBITDA       *float64 `json:"evEbitda"`
	IntrinsicValue *float64 `json:"intrinsicValue"`
}

// Compute evaluates every ratio of s
func Compute(s contracts.Stock) Ratios {
	return Ratios{
		DebtEquity:     optional(DebtEquity(s)),
		PEG:            optional(PEGRatio(s)),
		EVEBITDA:       optional(EVEBITDA(s)),
		IntrinsicValue: optional(IntrinsicValue(s)),
	}
}

func divide(num float64, den *float64) (float64, bool) {
	if den == nil || *den == 0 {
		return 0, false
	}
	return finite(num / *den)
}

// finite drops overflow results (huge inputs) to absent
func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
