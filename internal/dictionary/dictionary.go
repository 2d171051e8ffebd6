// Package dictionary holds the fixed option lists the front end renders in
// pickers, with Turkish labels.
package dictionary

import "github.com/tinoosan/ermay/internal/ledger"

type CurrencyDef struct {
	Code   ledger.Currency `json:"code"`
	Symbol string          `json:"symbol"`
	Label  string          `json:"label"`
	// Seeded currencies always appear on a balance, even at zero.
	Seeded bool `json:"seeded"`
}

type PaymentMethodDef struct {
	Code  ledger.PaymentMethod `json:"code"`
	Label string               `json:"label"`
	// NeedsCheck means check details (serial number, bank, due date) are required.
	NeedsCheck bool `json:"needs_check"`
	// AllowsTransfer means bank transfer details may be attached.
	AllowsTransfer bool `json:"allows_transfer"`
}

var currencyLabels = map[ledger.Currency]string{
	ledger.CurrencyTRY: "Türk Lirası",
	ledger.CurrencyUSD: "Amerikan Doları",
	ledger.CurrencyEUR: "Euro",
}

var methodLabels = map[ledger.PaymentMethod]string{
	ledger.MethodCash:           "Nakit",
	ledger.MethodBankTransfer:   "Havale / EFT",
	ledger.MethodCreditCard:     "Kredi Kartı",
	ledger.MethodCheck:          "Çek",
	ledger.MethodPromissoryNote: "Senet",
}

// Currencies returns the supported currencies in display order.
func Currencies() []CurrencyDef {
	seeded := ledger.ComputeBalances(nil, nil)
	out := make([]CurrencyDef, 0, len(ledger.Currencies))
	for _, c := range ledger.Currencies {
		_, isSeeded := seeded[c]
		out = append(out, CurrencyDef{Code: c, Symbol: ledger.Symbol(c), Label: currencyLabels[c], Seeded: isSeeded})
	}
	return out
}

func PaymentMethods() []PaymentMethodDef {
	out := make([]PaymentMethodDef, 0, len(ledger.PaymentMethods))
	for _, m := range ledger.PaymentMethods {
		out = append(out, PaymentMethodDef{
			Code:           m,
			Label:          methodLabels[m],
			NeedsCheck:     m == ledger.MethodCheck || m == ledger.MethodPromissoryNote,
			AllowsTransfer: m == ledger.MethodBankTransfer,
		})
	}
	return out
}

// MethodLabel returns the Turkish label for m, or the raw code when unknown.
func MethodLabel(m ledger.PaymentMethod) string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}
