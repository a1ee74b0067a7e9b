package strategyconfig

import "github.com/wonny/b3monitor/internal/metrics"

// Config is a screen override file.
// Keys left out of the file keep the default screen values.
type Config struct {
	Meta   Meta   `yaml:"meta" json:"meta"`
	Screen Screen `yaml:"screen" json:"screen"`
}

// Meta identifies the strategy in logs
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Notes      string `yaml:"notes" json:"notes,omitempty"`
}

// Screen mirrors metrics.Thresholds with optional fields
type Screen struct {
	PEMinExclusive         *float64 `yaml:"pe_min_exclusive" json:"pe_min_exclusive,omitempty"`
	PVPMax                 *float64 `yaml:"pvp_max" json:"pvp_max,omitempty"`
	ROEMin                 *float64 `yaml:"roe_min" json:"roe_min,omitempty"`
	DebtEquityMaxExclusive *float64 `yaml:"debt_equity_max_exclusive" json:"debt_equity_max_exclusive,omitempty"`
	PEGMax                 *float64 `yaml:"peg_max" json:"peg_max,omitempty"`
	EVEBITDAMax            *float64 `yaml:"ev_ebitda_max" json:"ev_ebitda_max,omitempty"`
}

// Default returns the config matching metrics.DefaultThresholds
func Default() *Config {
	return &Config{Meta: Meta{StrategyID: "b3_value_default"}}
}

// Thresholds overlays the file values on the default screen
func (c *Config) Thresholds() metrics.Thresholds {
	t := metrics.DefaultThresholds()
	overlay(&t.MinPE, c.Screen.PEMinExclusive)
	overlay(&t.MaxPVP, c.Screen.PVPMax)
	overlay(&t.MinROE, c.Screen.ROEMin)
	overlay(&t.MaxDebtEquity, c.Screen.DebtEquityMaxExclusive)
	overlay(&t.MaxPEG, c.Screen.PEGMax)
	overlay(&t.MaxEVEBITDA, c.Screen.EVEBITDAMax)
	return t
}

func overlay(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
