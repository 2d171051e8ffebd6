package ledger

import (
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// Balances maps a currency to a party's signed running total.
// Positive means more was invoiced than settled.
type Balances map[Currency]decimal.Decimal

// seeded are pre-filled with zero so an empty ledger still shows them.
// EUR is supported but only appears once a record uses it.
var seeded = []Currency{CurrencyTRY, CurrencyUSD}

// SkipReason says why a record did not contribute to a balance.
type SkipReason string

const (
	SkipInvalidAmount   SkipReason = "invalid_amount"
	SkipMissingCurrency SkipReason = "missing_currency"
	// SkipOutOfRange marks a finite amount the decimal type cannot hold
	// exactly (see ExactAmount). New records are rejected before storage.
	SkipOutOfRange SkipReason = "out_of_range"
	// SkipOverflow marks a record whose running sum no longer fits 19 digits
	// exactly.
	SkipOverflow SkipReason = "overflow"
)

// Skipped describes a record left out of ComputeBalances.
type Skipped struct {
	ID     uuid.UUID
	Kind   TransactionType
	Reason SkipReason
}

type balanceOptions struct {
	onSkip func(Skipped)
}

// BalanceOption configures ComputeBalances.
type BalanceOption func(*balanceOptions)

// WithSkipHook registers fn to observe records that were skipped.
// The hook never changes the returned balances.
func WithSkipHook(fn func(Skipped)) BalanceOption {
	return func(o *balanceOptions) { o.onSkip = fn }
}

// ComputeBalances folds debits (added) and credits (subtracted) into a
// per-currency total. Records with a non-finite amount or no currency are
// skipped. Dates are ignored. Values are not rounded: a finite amount or sum
// outside the exact decimal range is skipped with its own reason instead.
func ComputeBalances(debits []Debit, credits []Credit, opts ...BalanceOption) Balances {
	var o balanceOptions
	for _, opt := range opts {
		opt(&o)
	}
	out := make(Balances, len(seeded)+1)
	for _, c := range seeded {
		out[c] = decimal.Zero
	}
	for _, d := range debits {
		out.apply(&o, d.ID, d.Kind, d.Currency, d.Amount, false)
	}
	for _, c := range credits {
		out.apply(&o, c.ID, c.Kind, c.Currency, c.Amount, true)
	}
	return out
}

func (b Balances) apply(o *balanceOptions, id uuid.UUID, kind TransactionType, curr Currency, amount float64, negate bool) {
	skip := func(r SkipReason) {
		if o.onSkip != nil {
			o.onSkip(Skipped{ID: id, Kind: kind, Reason: r})
		}
	}
	if curr == "" {
		skip(SkipMissingCurrency)
		return
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		skip(SkipInvalidAmount)
		return
	}
	if !ExactAmount(amount) {
		skip(SkipOutOfRange)
		return
	}
	amt, err := decimal.NewFromFloat64(amount)
	if err != nil {
		skip(SkipOutOfRange)
		return
	}
	cur, ok := b[curr]
	if !ok {
		cur = decimal.Zero
	}
	var next decimal.Decimal
	// fail instead of rounding below the finer scale
	scale := max(cur.Scale(), amt.Scale())
	if negate {
		next, err = cur.SubExact(amt, scale)
	} else {
		next, err = cur.AddExact(amt, scale)
	}
	if err != nil {
		skip(SkipOverflow)
		return
	}
	b[curr] = next
}

// Get returns the balance for c, zero when absent.
func (b Balances) Get(c Currency) decimal.Decimal {
	if v, ok := b[c]; ok {
		return v
	}
	return decimal.Zero
}

// Currencies returns the currencies present in b: supported ones first in
// their display order, then any others sorted by code.
func (b Balances) Currencies() []Currency {
	out := make([]Currency, 0, len(b))
	for _, c := range Currencies {
		if _, ok := b[c]; ok {
			out = append(out, c)
		}
	}
	extra := make([]Currency, 0)
	for c := range b {
		if !c.IsKnown() {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Merge adds every total in other into b. Used to aggregate many parties.
// A total that would not fit exactly leaves b unchanged for that currency.
func (b Balances) Merge(other Balances) {
	for c, v := range other {
		cur, ok := b[c]
		if !ok {
			b[c] = v
			continue
		}
		if sum, err := cur.AddExact(v, max(cur.Scale(), v.Scale())); err == nil {
			b[c] = sum
		}
	}
}
