package utils

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with two decimals and thousands separators,
// followed by the currency code when one is given: "1,234.50 USD".
func FormatMoney(amount float64, currency string) string {
	if !isFinite(amount) {
		return notAvailable
	}
	s := groupThousands(decimal.NewFromFloat(amount).StringFixed(2))
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// FormatCompact renders large amounts with a K/M/B/T suffix: "1.50B".
func FormatCompact(amount float64) string {
	if !isFinite(amount) {
		return notAvailable
	}
	abs := math.Abs(amount)
	d := decimal.NewFromFloat(amount)
	switch {
	case abs >= 1e12:
		return d.Div(decimal.New(1, 12)).StringFixed(2) + "T"
	case abs >= 1e9:
		return d.Div(decimal.New(1, 9)).StringFixed(2) + "B"
	case abs >= 1e6:
		return d.Div(decimal.New(1, 6)).StringFixed(2) + "M"
	case abs >= 1e3:
		return d.Div(decimal.New(1, 3)).StringFixed(2) + "K"
	default:
		return d.StringFixed(2)
	}
}

// FormatPercent renders a ratio as a percentage with one decimal: 0.317 -> "31.7%".
func FormatPercent(ratio float64) string {
	if !isFinite(ratio) {
		return notAvailable
	}
	return decimal.NewFromFloat(ratio).Shift(2).StringFixed(1) + "%"
}

// notAvailable is rendered for NaN and infinite amounts.
const notAvailable = "n/a"

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
