package ledger

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sale(amount float64, curr Currency, date string) Debit {
	return Debit{ID: uuid.New(), Kind: TypeSale, Amount: amount, Currency: curr, Date: date}
}

func payment(amount float64, curr Currency, date string) Credit {
	return Credit{ID: uuid.New(), Kind: TypePayment, Amount: amount, Currency: curr, Date: date, Method: MethodCash}
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	w := decimal.MustParse(want)
	assert.Zerof(t, w.Cmp(got), "want %s, got %s", w, got)
}

func TestComputeBalances_Empty(t *testing.T) {
	b := ComputeBalances(nil, nil)
	require.Len(t, b, 2)
	assertAmount(t, "0", b[CurrencyTRY])
	assertAmount(t, "0", b[CurrencyUSD])
	_, hasEUR := b[CurrencyEUR]
	assert.False(t, hasEUR)
}

func TestComputeBalances_SingleCurrencySum(t *testing.T) {
	debits := []Debit{sale(100.10, CurrencyTRY, "2024-01-01"), sale(250, CurrencyTRY, ""), sale(0.2, CurrencyTRY, "x")}
	credits := []Credit{payment(50.05, CurrencyTRY, "2024-01-03"), payment(0.1, CurrencyTRY, "2024-01-04")}
	b := ComputeBalances(debits, credits)
	assertAmount(t, "300.15", b[CurrencyTRY])
	assertAmount(t, "0", b[CurrencyUSD])
}

func TestComputeBalances_CurrencyIsolation(t *testing.T) {
	b := ComputeBalances(
		[]Debit{sale(100, CurrencyUSD, "2024-01-01")},
		[]Credit{payment(50, CurrencyTRY, "2024-01-01")},
	)
	assertAmount(t, "100", b[CurrencyUSD])
	assertAmount(t, "-50", b[CurrencyTRY])
}

func TestComputeBalances_EURAndForeignCodes(t *testing.T) {
	b := ComputeBalances(
		[]Debit{sale(10, CurrencyEUR, ""), sale(7, Currency("GBP"), "")},
		[]Credit{payment(3, CurrencyEUR, "")},
	)
	assertAmount(t, "7", b[CurrencyEUR])
	assertAmount(t, "7", b["GBP"])
	assert.Equal(t, []Currency{CurrencyTRY, CurrencyUSD, CurrencyEUR, "GBP"}, b.Currencies())
}

func TestComputeBalances_SkipsMalformed(t *testing.T) {
	bad := []Debit{
		sale(math.NaN(), CurrencyTRY, "2024-01-01"),
		sale(math.Inf(1), CurrencyUSD, "2024-01-01"),
		sale(40, "", "2024-01-01"),
	}
	var skipped []Skipped
	var b Balances
	require.NotPanics(t, func() {
		b = ComputeBalances(bad, []Credit{payment(math.Inf(-1), CurrencyTRY, "")}, WithSkipHook(func(s Skipped) {
			skipped = append(skipped, s)
		}))
	})
	assertAmount(t, "0", b[CurrencyTRY])
	assertAmount(t, "0", b[CurrencyUSD])
	require.Len(t, b, 2)
	require.Len(t, skipped, 4)
	assert.Equal(t, SkipInvalidAmount, skipped[0].Reason)
	assert.Equal(t, SkipInvalidAmount, skipped[1].Reason)
	assert.Equal(t, SkipMissingCurrency, skipped[2].Reason)
	assert.Equal(t, TypePayment, skipped[3].Kind)
}

func TestComputeBalances_HookDoesNotChangeResult(t *testing.T) {
	debits := []Debit{sale(math.NaN(), CurrencyTRY, ""), sale(5, CurrencyTRY, "")}
	plain := ComputeBalances(debits, nil)
	hooked := ComputeBalances(debits, nil, WithSkipHook(func(Skipped) {}))
	assert.Equal(t, plain, hooked)
}

func TestComputeBalances_Idempotent(t *testing.T) {
	debits := []Debit{sale(1000, CurrencyTRY, "2024-03-01"), sale(12.5, CurrencyUSD, "")}
	credits := []Credit{payment(400, CurrencyTRY, "2024-03-05")}
	first := ComputeBalances(debits, credits)
	second := ComputeBalances(debits, credits)
	assert.Equal(t, first, second)
	assert.Len(t, debits, 2)
	assert.Equal(t, 1000.0, debits[0].Amount)
}

func TestComputeBalances_Scenario(t *testing.T) {
	b := ComputeBalances(
		[]Debit{sale(1000, CurrencyTRY, "2024-03-01")},
		[]Credit{payment(400, CurrencyTRY, "2024-03-05")},
	)
	require.Len(t, b, 2)
	assertAmount(t, "600", b[CurrencyTRY])
	assertAmount(t, "0", b[CurrencyUSD])
}

func TestBalances_Merge(t *testing.T) {
	total := Balances{}
	total.Merge(ComputeBalances([]Debit{sale(10, CurrencyTRY, "")}, nil))
	total.Merge(ComputeBalances([]Debit{sale(5, CurrencyTRY, ""), sale(1, CurrencyEUR, "")}, nil))
	assertAmount(t, "15", total.Get(CurrencyTRY))
	assertAmount(t, "1", total.Get(CurrencyEUR))
	assertAmount(t, "0", total.Get(CurrencyUSD))
}

func TestComputeBalances_OutOfRangeAmounts(t *testing.T) {
	var skipped []Skipped
	hook := WithSkipHook(func(s Skipped) { skipped = append(skipped, s) })

	b := ComputeBalances([]Debit{sale(1e19, CurrencyTRY, ""), sale(1.5e-20, CurrencyTRY, ""), sale(5, CurrencyTRY, "")}, nil, hook)
	assertAmount(t, "5", b[CurrencyTRY])
	require.Len(t, skipped, 2)
	assert.Equal(t, SkipOutOfRange, skipped[0].Reason)
	assert.Equal(t, SkipOutOfRange, skipped[1].Reason)

	skipped = nil
	b = ComputeBalances([]Debit{sale(9e18, CurrencyUSD, ""), sale(9e18, CurrencyUSD, "")}, nil, hook)
	assertAmount(t, "9000000000000000000", b[CurrencyUSD])
	require.Len(t, skipped, 1)
	assert.Equal(t, SkipOverflow, skipped[0].Reason)
}

func TestComputeBalances_SumsWithoutRounding(t *testing.T) {
	var skipped []Skipped
	hook := WithSkipHook(func(s Skipped) { skipped = append(skipped, s) })
	b := ComputeBalances(
		[]Debit{sale(1e15, CurrencyTRY, ""), sale(0.01, CurrencyTRY, "")},
		[]Credit{payment(0.005, CurrencyTRY, "")},
		hook,
	)
	assert.Empty(t, skipped)
	assertAmount(t, "1000000000000000.005", b[CurrencyTRY])

	// 20 significant digits would need rounding
	b = ComputeBalances([]Debit{sale(1e15, CurrencyTRY, ""), sale(0.0001, CurrencyTRY, "")}, nil, hook)
	assertAmount(t, "1000000000000000", b[CurrencyTRY])
	require.Len(t, skipped, 1)
	assert.Equal(t, SkipOverflow, skipped[0].Reason)
}

func TestExactAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want bool
	}{
		{0.1, true},
		{1000, true},
		{-42.5, true},
		{9e18, true},
		{MaxAmount, true},
		{1.5e-18, true},
		{123.456789012, true},
		{1e19, false},
		{2e19, false},
		{1.5e-20, false},
		{math.NaN(), false},
		{math.Inf(-1), false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, ExactAmount(tc.in), "ExactAmount(%v)", tc.in)
	}
}
