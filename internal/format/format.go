// Package format renders amounts for display surfaces: CSV exports, alert
// messages, API labels. Engine values stay full precision; rounding and
// symbols happen here only.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// FormatCurrency renders an amount with a currency symbol when one is
// known, or a trailing currency code otherwise. Zero renders as
// "0.00 <code>" regardless of symbol.
func FormatCurrency(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}
	if amount.IsZero() {
		return "0.00 " + code
	}

	formatted := groupThousands(amount.StringFixed(2))
	if symbol, ok := currencySymbols[code]; ok {
		return symbol + formatted
	}
	return formatted + " " + code
}

// FormatCredits renders a credit amount, abbreviating large values with K/M
// suffixes.
func FormatCredits(credits decimal.Decimal) string {
	switch {
	case credits.IsZero():
		return "0.00"
	case credits.GreaterThanOrEqual(million):
		return credits.Div(million).StringFixed(2) + "M"
	case credits.GreaterThanOrEqual(thousand):
		return credits.Div(thousand).StringFixed(2) + "K"
	default:
		return groupThousands(credits.StringFixed(2))
	}
}

// groupThousands inserts comma separators into a fixed-point decimal string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
