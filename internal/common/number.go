package common

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseLocaleNumber parses a Turkish-formatted decimal string, where "." groups
// thousands and "," separates decimals ("2.769,7345" -> 2769.7345).
// Empty or malformed input yields NaN; check the result with IsAvailable.
func ParseLocaleNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}

// IsAvailable reports whether v holds a usable number.
func IsAvailable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
