package common

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatLocale renders v with fixed decimals in Turkish notation:
// "." groups thousands and "," separates decimals. NaN and Inf render as "-".
func FormatLocale(v float64, places int32) string {
	if !IsAvailable(v) {
		return "-"
	}
	s := decimal.NewFromFloat(v).StringFixed(places)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// FormatPrice renders a fund price with four decimals, e.g. 2.769,7345.
func FormatPrice(v float64) string {
	return FormatLocale(v, 4)
}

// FormatSignedPct renders a percent move with an explicit sign, e.g. +%0,80.
func FormatSignedPct(v float64) string {
	if !IsAvailable(v) {
		return "-"
	}
	s := FormatLocale(v, 2)
	if strings.HasPrefix(s, "-") {
		return "-%" + s[1:]
	}
	return "+%" + s
}
