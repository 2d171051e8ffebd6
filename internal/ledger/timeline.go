package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnifiedTransaction is a debit or a credit tagged for display in a
// party's statement. Exactly one of Debit and Credit is set.
type UnifiedTransaction struct {
	Type   TransactionType
	Debit  *Debit
	Credit *Credit
}

func (u UnifiedTransaction) ID() uuid.UUID {
	if u.Debit != nil {
		return u.Debit.ID
	}
	return u.Credit.ID
}

func (u UnifiedTransaction) Date() string {
	if u.Debit != nil {
		return u.Debit.Date
	}
	return u.Credit.Date
}

func (u UnifiedTransaction) Amount() float64 {
	if u.Debit != nil {
		return u.Debit.Amount
	}
	return u.Credit.Amount
}

func (u UnifiedTransaction) Currency() Currency {
	if u.Debit != nil {
		return u.Debit.Currency
	}
	return u.Credit.Currency
}

// IsDebit reports whether the transaction wraps a debit record.
func (u UnifiedTransaction) IsDebit() bool { return u.Debit != nil }

// dateLayouts are the ISO-8601 shapes accepted for record dates. Inputs
// without a zone are read as UTC. Fractional seconds are accepted after the
// seconds field by time.Parse.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses an ISO-8601 record date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BuildUnifiedTimeline tags debits with debitTag and credits with
// creditTag, concatenates them in that order, and sorts ascending by date.
// The sort is stable: two records with unparseable dates keep their order,
// a record with an unparseable date goes after every dated one, equal dates
// keep encounter order.
func BuildUnifiedTimeline(debits []Debit, credits []Credit, debitTag, creditTag TransactionType) []UnifiedTransaction {
	type keyed struct {
		tx    UnifiedTransaction
		at    time.Time
		valid bool
	}
	items := make([]keyed, 0, len(debits)+len(credits))
	for i := range debits {
		d := debits[i]
		at, ok := ParseDate(d.Date)
		items = append(items, keyed{tx: UnifiedTransaction{Type: debitTag, Debit: &d}, at: at, valid: ok})
	}
	for i := range credits {
		c := credits[i]
		at, ok := ParseDate(c.Date)
		items = append(items, keyed{tx: UnifiedTransaction{Type: creditTag, Credit: &c}, at: at, valid: ok})
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case !a.valid && !b.valid:
			return 0
		case !a.valid:
			return 1
		case !b.valid:
			return -1
		}
		return a.at.Compare(b.at)
	})
	out := make([]UnifiedTransaction, len(items))
	for i, it := range items {
		out[i] = it.tx
	}
	return out
}
