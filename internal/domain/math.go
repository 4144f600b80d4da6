package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	moneyPrecision   = 2
	percentPrecision = 2
)

var hundred = decimal.NewFromInt(100)

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
// A decimal comma ("12,50") is accepted as typed into Brazilian forms.
func SafeParse(value string) decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero
	}
	if !strings.Contains(value, ".") {
		value = strings.Replace(value, ",", ".", 1)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SafeDiv divides a by b, returning zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// FormatMoney renders an amount with two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyPrecision)
}

// FormatPercent renders a 0-1 fraction as a percentage string, e.g. 0.1234 -> "12.34%".
func FormatPercent(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).StringFixed(percentPrecision) + "%"
}

// FormatUnits renders a unit count without trailing zeros.
func FormatUnits(d decimal.Decimal) string {
	return d.String()
}
