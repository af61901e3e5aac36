// Package money parses and formats currency cells.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse reads a currency cell like "$1,234.56" or "(45.67)". A value wrapped
// in parentheses is negative. Anything that is not a plain decimal number,
// including exponent forms like "1e6" and unbalanced parentheses, yields zero.
func Parse(s string) decimal.Decimal {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero
	}

	negative := false
	if len(cleaned) >= 2 && strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}

	if HasExponent(cleaned) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return d.Abs().Neg()
	}
	return d
}

// HasExponent reports whether s uses exponent notation. Such values can
// expand to arbitrarily many digits when formatted.
func HasExponent(s string) bool {
	return strings.ContainsAny(s, "eE")
}

// Format renders d with two decimals, or "" for zero.
func Format(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
