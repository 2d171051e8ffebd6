package ledger

import (
	"math"
	"testing"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		curr Currency
		want string
	}{
		{"lira", "12.5", CurrencyTRY, "₺12,50"},
		{"grouping", "12345.678", CurrencyTRY, "₺12.345,68"},
		{"dollar", "600", CurrencyUSD, "$600,00"},
		{"euro negative", "-50.1", CurrencyEUR, "-€50,10"},
		{"foreign", "7", Currency("GBP"), "7,00 GBP"},
		{"unknown code", "7.005", Currency("XYZ"), "7,00 XYZ"},
		{"no currency", "3", "", "3,00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatAmount(decimal.MustParse(tc.in), tc.curr))
		})
	}
}

func TestFormatFloat_NonFinite(t *testing.T) {
	assert.Equal(t, "", FormatFloat(math.NaN(), CurrencyTRY))
	assert.Equal(t, "₺1,25", FormatFloat(1.25, CurrencyTRY))
}
