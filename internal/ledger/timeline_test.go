package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(txs []UnifiedTransaction) []uuid.UUID {
	out := make([]uuid.UUID, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID()
	}
	return out
}

func TestBuildUnifiedTimeline_Empty(t *testing.T) {
	out := BuildUnifiedTimeline(nil, nil, TypeSale, TypePayment)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestBuildUnifiedTimeline_InvalidDatesLast(t *testing.T) {
	a := sale(1, CurrencyTRY, "2024-01-01")
	b := sale(2, CurrencyTRY, "not-a-date")
	c := payment(3, CurrencyTRY, "2023-06-15")
	out := BuildUnifiedTimeline([]Debit{a, b}, []Credit{c}, TypeSale, TypePayment)
	assert.Equal(t, []uuid.UUID{c.ID, a.ID, b.ID}, ids(out))
	assert.Equal(t, TypePayment, out[0].Type)
	assert.Equal(t, TypeSale, out[1].Type)
	assert.Equal(t, TypeSale, out[2].Type)
}

func TestBuildUnifiedTimeline_InvalidKeepRelativeOrder(t *testing.T) {
	x := sale(1, CurrencyTRY, "")
	y := sale(2, CurrencyTRY, "2024-02-30")
	z := payment(3, CurrencyTRY, "garbage")
	w := payment(4, CurrencyTRY, "2024-05-01")
	out := BuildUnifiedTimeline([]Debit{x, y}, []Credit{z, w}, TypeSale, TypePayment)
	assert.Equal(t, []uuid.UUID{w.ID, x.ID, y.ID, z.ID}, ids(out))
}

func TestBuildUnifiedTimeline_StableForEqualDates(t *testing.T) {
	d1 := sale(1, CurrencyTRY, "2024-03-01")
	d2 := sale(1, CurrencyTRY, "2024-03-01")
	c1 := payment(1, CurrencyTRY, "2024-03-01")
	out := BuildUnifiedTimeline([]Debit{d1, d2}, []Credit{c1}, TypeSale, TypePayment)
	assert.Equal(t, []uuid.UUID{d1.ID, d2.ID, c1.ID}, ids(out))
}

func TestBuildUnifiedTimeline_DuplicatesRetained(t *testing.T) {
	d := sale(1, CurrencyTRY, "2024-03-01")
	out := BuildUnifiedTimeline([]Debit{d, d}, nil, TypeSale, TypePayment)
	require.Len(t, out, 2)
	assert.Equal(t, d.ID, out[0].ID())
	assert.Equal(t, d.ID, out[1].ID())
}

func TestBuildUnifiedTimeline_MixedISOShapes(t *testing.T) {
	early := payment(1, CurrencyTRY, "2024-03-01T08:00:00+03:00")
	midnight := sale(1, CurrencyTRY, "2024-03-01")
	later := sale(1, CurrencyTRY, "2024-03-01T09:30:00.123Z")
	out := BuildUnifiedTimeline([]Debit{later, midnight}, []Credit{early}, TypeSale, TypePayment)
	assert.Equal(t, []uuid.UUID{midnight.ID, early.ID, later.ID}, ids(out))
}

func TestBuildUnifiedTimeline_SupplierTags(t *testing.T) {
	p := Debit{ID: uuid.New(), Kind: TypePurchase, Amount: 1000, Currency: CurrencyTRY, Date: "2024-03-01"}
	pay := Credit{ID: uuid.New(), Kind: TypePaymentToSupplier, Amount: 400, Currency: CurrencyTRY, Date: "2024-03-05"}
	debitTag, creditTag := TagsFor(PartySupplier)
	out := BuildUnifiedTimeline([]Debit{p}, []Credit{pay}, debitTag, creditTag)
	require.Len(t, out, 2)
	assert.Equal(t, TypePurchase, out[0].Type)
	assert.True(t, out[0].IsDebit())
	assert.Equal(t, TypePaymentToSupplier, out[1].Type)
	assert.Equal(t, 400.0, out[1].Amount())
}

func TestBuildUnifiedTimeline_Scenario(t *testing.T) {
	d := sale(1000, CurrencyTRY, "2024-03-01")
	c := payment(400, CurrencyTRY, "2024-03-05")
	out := BuildUnifiedTimeline([]Debit{d}, []Credit{c}, TypeSale, TypePayment)
	require.Len(t, out, 2)
	assert.Equal(t, UnifiedTransaction{Type: TypeSale, Debit: &d}, out[0])
	assert.Equal(t, UnifiedTransaction{Type: TypePayment, Credit: &c}, out[1])
}

func TestBuildUnifiedTimeline_DoesNotAliasInput(t *testing.T) {
	debits := []Debit{sale(10, CurrencyTRY, "2024-01-01")}
	out := BuildUnifiedTimeline(debits, nil, TypeSale, TypePayment)
	out[0].Debit.Amount = 99
	assert.Equal(t, 10.0, debits[0].Amount)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-01-01", true},
		{"2024-01-01T10:00:00Z", true},
		{"2024-01-01T10:00:00.5+03:00", true},
		{"2024-01-01T10:00:00", true},
		{"2024-01-01T10:00", true},
		{" 2024-01-01 ", true},
		{"2024-13-01", false},
		{"2024-02-30", false},
		{"01/02/2024", false},
		{"", false},
		{"not-a-date", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			_, ok := ParseDate(tc.in)
			assert.Equal(t, tc.want, ok)
		})
	}
}
