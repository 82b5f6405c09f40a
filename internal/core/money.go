// Package core provides amount and quantity parsing helpers.
//
// Export files are noisy: numeric cells can be blank, carry a unit suffix or
// hold garbage. These helpers never fail; they return a definite value and
// fall back to zero when nothing numeric can be read.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a monetary cell to a decimal.
//
// Surrounding whitespace is ignored and the longest leading numeric prefix is
// used, so trailing text is tolerated. Anything without a leading number
// yields zero.
//
// Examples:
//
//	ParseAmount("12.50")     -> 12.5
//	ParseAmount(" 7 USD")    -> 7
//	ParseAmount("-3.25")     -> -3.25
//	ParseAmount("$4.00")     -> 0
//	ParseAmount("")          -> 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	prefix := numericPrefix(s, true)
	if prefix == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity converts a quantity cell to a non-negative integer.
//
// The leading integer part is used ("2.7" reads as 2, "3 pcs" as 3).
// Unreadable and negative values yield zero.
func ParseQuantity(s string) int {
	prefix := numericPrefix(strings.TrimSpace(s), false)
	if prefix == "" {
		return 0
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// numericPrefix returns the leading signed number of s, or "" when s does not
// start with one. Fractions are only accepted when allowFraction is set.
func numericPrefix(s string, allowFraction bool) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if allowFraction && i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			frac++
		}
		if frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	return strings.TrimPrefix(s[:i], "+")
}

// roundTo rounds v to the given number of decimal places, half away from zero.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
