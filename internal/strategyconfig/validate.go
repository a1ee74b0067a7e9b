package strategyconfig

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패: the field path and what is wrong with it
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every threshold that is set
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	fields := []struct {
		name string
		v    *float64
	}{
		{"screen.pe_min_exclusive", cfg.Screen.PEMinExclusive},
		{"screen.pvp_max", cfg.Screen.PVPMax},
		{"screen.roe_min", cfg.Screen.ROEMin},
		{"screen.debt_equity_max_exclusive", cfg.Screen.DebtEquityMaxExclusive},
		{"screen.peg_max", cfg.Screen.PEGMax},
		{"screen.ev_ebitda_max", cfg.Screen.EVEBITDAMax},
	}
	for _, f := range fields {
		if f.v == nil {
			continue
		}
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			return ValidationError{f.name, "must be a finite number"}
		}
	}

	// a ceiling below zero would reject every stock with that ratio
	if v := cfg.Screen.PVPMax; v != nil && *v < 0 {
		return ValidationError{"screen.pvp_max", "must be >= 0"}
	}
	if v := cfg.Screen.DebtEquityMaxExclusive; v != nil && *v <= 0 {
		return ValidationError{"screen.debt_equity_max_exclusive", "must be > 0"}
	}

	return nil
}
