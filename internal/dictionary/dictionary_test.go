package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/ermay/internal/ledger"
)

func TestCurrencies(t *testing.T) {
	got := Currencies()
	require.Len(t, got, 3)
	assert.Equal(t, ledger.CurrencyTRY, got[0].Code)
	assert.Equal(t, "₺", got[0].Symbol)
	assert.True(t, got[0].Seeded)
	assert.True(t, got[1].Seeded)
	assert.Equal(t, ledger.CurrencyEUR, got[2].Code)
	assert.False(t, got[2].Seeded)
}

func TestPaymentMethods(t *testing.T) {
	got := PaymentMethods()
	require.Len(t, got, len(ledger.PaymentMethods))
	for _, m := range got {
		assert.NotEmpty(t, m.Label, m.Code)
		assert.Equal(t, m.Code == ledger.MethodCheck || m.Code == ledger.MethodPromissoryNote, m.NeedsCheck, m.Code)
	}
	assert.Equal(t, "Senet", MethodLabel(ledger.MethodPromissoryNote))
	assert.Equal(t, "barter", MethodLabel("barter"))
}
