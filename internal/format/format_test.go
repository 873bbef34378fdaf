package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"usd symbol", "1234.5", "USD", "$1,234.50"},
		{"eur symbol", "99.999", "EUR", "€100.00"},
		{"gbp symbol", "5", "GBP", "£5.00"},
		{"jpy symbol", "1000000", "JPY", "¥1,000,000.00"},
		{"unknown code trails", "42", "CHF", "42.00 CHF"},
		{"zero keeps code", "0", "EUR", "0.00 EUR"},
		{"negative", "-1234.5", "USD", "$-1,234.50"},
		{"empty code defaults usd", "10", "", "$10.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.want, FormatCurrency(amount, tt.currency))
		})
	}
}

func TestFormatCredits(t *testing.T) {
	tests := []struct {
		name    string
		credits string
		want    string
	}{
		{"zero", "0", "0.00"},
		{"small", "123.456", "123.46"},
		{"grouped", "999.99", "999.99"},
		{"thousands", "1500", "1.50K"},
		{"millions", "2500000", "2.50M"},
		{"exactly one thousand", "1000", "1.00K"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credits := decimal.RequireFromString(tt.credits)
			assert.Equal(t, tt.want, FormatCredits(credits))
		})
	}
}
