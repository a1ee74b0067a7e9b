package metrics

import (
	"github.com/wonny/b3monitor/internal/contracts"
)

// Rejection reasons, in check order
const (
	ReasonPE         = "pe"
	ReasonPVP        = "pvp"
	ReasonROE        = "roe"
	ReasonDebtEquity = "debt_equity"
	ReasonPEG        = "peg"
	ReasonEVEBITDA   = "ev_ebitda"
)

// Reasons lists every rejection reason in check order
var Reasons = []string{ReasonPE, ReasonPVP, ReasonROE, ReasonDebtEquity, ReasonPEG, ReasonEVEBITDA}

// Thresholds parameterizes the value screen. A check only runs when
// every input it needs is present; partial data never rejects.
type Thresholds struct {
	MinPE         float64 `json:"pe_min_exclusive"`          // reject P/E <= MinPE
	MaxPVP        float64 `json:"pvp_max"`                   // reject P/VP > MaxPVP
	MinROE        float64 `json:"roe_min"`                   // reject ROE < MinROE
	MaxDebtEquity float64 `json:"debt_equity_max_exclusive"` // reject D/E >= MaxDebtEquity
	MaxPEG        float64 `json:"peg_max"`                   // reject PEG > MaxPEG
	MaxEVEBITDA   float64 `json:"ev_ebitda_max"`             // reject EV/EBITDA > MaxEVEBITDA
}

// DefaultThresholds is the fixed value-investing screen
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPE:         0,
		MaxPVP:        1,
		MinROE:        15,
		MaxDebtEquity: 1,
		MaxPEG:        1,
		MaxEVEBITDA:   10,
	}
}

// Check returns the first failing check, or "" when s is admitted
func (t Thresholds) Check(s contracts.Stock) string {
	if s.PriceEarnings != nil && *s.PriceEarnings <= t.MinPE {
		return ReasonPE
	}

	if s.PriceBookValue != nil && *s.PriceBookValue > t.MaxPVP {
		return ReasonPVP
	}

	if s.ROE != nil && *s.ROE < t.MinROE {
		return ReasonROE
	}

	if de, ok := DebtEquity(s); ok && de >= t.MaxDebtEquity {
		return ReasonDebtEquity
	}

	if peg, ok := PEGRatio(s); ok && peg > t.MaxPEG {
		return ReasonPEG
	}

	if ev, ok := EVEBITDA(s); ok && ev > t.MaxEVEBITDA {
		return ReasonEVEBITDA
	}

	return ""
}

// Passes reports whether s survives the screen
func (t Thresholds) Passes(s contracts.Stock) bool {
	return t.Check(s) == ""
}

// PassesDefaultFilters applies DefaultThresholds
func PassesDefaultFilters(s contracts.Stock) bool {
	return DefaultThresholds().Passes(s)
}
