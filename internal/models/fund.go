// Package models defines data structures for navcast
package models

import "strings"

// ReturnStrategyKind tags how a holding's percent change is derived.
type ReturnStrategyKind string

const (
	// StrategyDirect uses the instrument's own percent change.
	StrategyDirect ReturnStrategyKind = "direct"
	// StrategyCurrencyAdjusted compounds the instrument's move with an FX pair move.
	StrategyCurrencyAdjusted ReturnStrategyKind = "currency_adjusted"
)

// ReturnStrategy is resolved once per holding when funds are loaded.
type ReturnStrategy struct {
	Kind     ReturnStrategyKind `json:"kind"`
	FXSymbol string             `json:"fx_symbol,omitempty"`
}

// WeightMode selects how a fund's normalisation denominator is obtained.
type WeightMode string

const (
	// WeightModeFixed uses the declared total_weight (conventionally 100).
	WeightModeFixed WeightMode = "fixed"
	// WeightModeDynamic uses the sum of holding and fixed component weights.
	WeightModeDynamic WeightMode = "dynamic"
)

// Holding is a disclosed market position of a fund.
type Holding struct {
	Symbol            string         `toml:"symbol" json:"symbol"`
	Weight            float64        `toml:"weight" json:"weight"` // percentage points, 0-100
	DisplayName       string         `toml:"name" json:"display_name,omitempty"`
	IsForeignCurrency bool           `toml:"is_foreign_currency" json:"is_foreign_currency"`
	Strategy          ReturnStrategy `toml:"-" json:"strategy"`
}

// Label returns the display name, or the symbol without its ".IS" exchange suffix.
func (h Holding) Label() string {
	if h.DisplayName != "" {
		return h.DisplayName
	}
	return strings.TrimSuffix(h.Symbol, ".IS")
}

// FixedComponent is a non-market sleeve (cash, repo, money market) accrued by day count.
type FixedComponent struct {
	Name              string  `toml:"name" json:"name"`
	Weight            float64 `toml:"weight" json:"weight"`
	AnnualRatePercent float64 `toml:"annual_rate" json:"annual_rate_percent"`
}

// FundConfig is the portfolio definition of a single fund.
type FundConfig struct {
	Code           string           `toml:"code" json:"code"`
	Name           string           `toml:"name" json:"name,omitempty"`
	TotalWeight    float64          `toml:"total_weight" json:"total_weight"`
	WeightMode     WeightMode       `toml:"weight_mode" json:"weight_mode"`
	FXSymbol       string           `toml:"fx_symbol" json:"fx_symbol,omitempty"`
	ScanWindowDays int              `toml:"scan_window_days" json:"scan_window_days,omitempty"`
	Holdings       []Holding        `toml:"holdings" json:"holdings"`
	Fixed          []FixedComponent `toml:"fixed" json:"fixed,omitempty"`

	// Warnings collected while validating the definition (e.g. weight drift).
	Warnings []string `toml:"-" json:"warnings,omitempty"`
}

// DeclaredWeight sums the weights of all holdings and fixed components.
func (f FundConfig) DeclaredWeight() float64 {
	var sum float64
	for _, h := range f.Holdings {
		sum += h.Weight
	}
	for _, fc := range f.Fixed {
		sum += fc.Weight
	}
	return sum
}
