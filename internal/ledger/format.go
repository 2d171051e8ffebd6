package ledger

import (
	"github.com/govalues/decimal"
	"github.com/govalues/money"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var trPrinter = message.NewPrinter(language.Turkish)

var symbols = map[Currency]string{
	CurrencyTRY: "₺",
	CurrencyUSD: "$",
	CurrencyEUR: "€",
}

// Symbol returns the display symbol for c, or "" for unsupported codes.
func Symbol(c Currency) string { return symbols[c] }

// FormatAmount renders d for display with Turkish digit grouping and two
// decimals, e.g. "₺1.234,56". Currencies outside the supported set fall
// back to "1.234,56 XYZ".
func FormatAmount(d decimal.Decimal, c Currency) string {
	rounded := roundForDisplay(d, c)
	sign := ""
	if rounded.Sign() < 0 {
		sign = "-"
		rounded = rounded.Abs()
	}
	f, _ := rounded.Float64()
	digits := trPrinter.Sprintf("%.2f", f)
	if sym, ok := symbols[c]; ok {
		return sign + sym + digits
	}
	if c == "" {
		return sign + digits
	}
	return sign + digits + " " + string(c)
}

// FormatFloat is FormatAmount for a raw stored amount. Non-finite values
// render as an empty string.
func FormatFloat(f float64, c Currency) string {
	d, err := decimal.NewFromFloat64(f)
	if err != nil {
		return ""
	}
	return FormatAmount(d, c)
}

func roundForDisplay(d decimal.Decimal, c Currency) decimal.Decimal {
	if curr, err := money.ParseCurr(string(c)); err == nil {
		if a, err := money.NewAmountFromDecimal(curr, d); err == nil {
			return a.RoundToCurr().Decimal().Round(2)
		}
	}
	return d.Round(2)
}
