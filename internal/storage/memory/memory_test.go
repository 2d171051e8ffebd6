package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/ermay/internal/errs"
	"github.com/tinoosan/ermay/internal/ledger"
)

func TestStore_OwnerScopingAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner, other := uuid.New(), uuid.New()

	zeyno, err := s.CreateParty(ctx, ledger.Party{ID: uuid.New(), OwnerID: owner, Kind: ledger.PartyCustomer, Name: "zeynep"})
	require.NoError(t, err)
	_, err = s.CreateParty(ctx, ledger.Party{ID: uuid.New(), OwnerID: owner, Kind: ledger.PartyCustomer, Name: "Ahmet"})
	require.NoError(t, err)
	_, err = s.CreateParty(ctx, ledger.Party{ID: uuid.New(), OwnerID: other, Kind: ledger.PartyCustomer, Name: "Başka"})
	require.NoError(t, err)

	list, err := s.ListParties(ctx, owner, ledger.PartyCustomer)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ahmet", list[0].Name)

	_, err = s.GetParty(ctx, other, zeyno.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	// later dates inserted first stay in insertion order
	for _, date := range []string{"2024-05-01", "2024-01-01"} {
		_, err := s.CreateDebit(ctx, ledger.Debit{ID: uuid.New(), OwnerID: owner, PartyID: zeyno.ID, Kind: ledger.TypeSale, Date: date, Amount: 1, Currency: ledger.CurrencyTRY})
		require.NoError(t, err)
	}
	debits, err := s.ListDebits(ctx, owner, ledger.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, debits, 2)
	assert.Equal(t, "2024-05-01", debits[0].Date)

	none, err := s.ListDebits(ctx, other, ledger.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := s.CountRecords(ctx, owner, zeyno.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.ErrorIs(t, s.DeleteDebit(ctx, other, debits[0].ID), errs.ErrNotFound)
	require.NoError(t, s.DeleteDebit(ctx, owner, debits[0].ID))
	debits, err = s.ListDebits(ctx, owner, ledger.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, debits, 1)
}

func TestStore_RecordsDoNotAlias(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := uuid.New()
	c := ledger.Credit{
		ID: uuid.New(), OwnerID: owner, PartyID: uuid.New(), Kind: ledger.TypePayment,
		Date: "2024-01-01", Amount: 5, Currency: ledger.CurrencyTRY, Method: ledger.MethodCheck,
		Check: &ledger.CheckDetails{SerialNumber: "A1"},
	}
	_, err := s.CreateCredit(ctx, c)
	require.NoError(t, err)
	c.Check.SerialNumber = "changed"

	got, err := s.GetCredit(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", got.Check.SerialNumber)

	got.Check.SerialNumber = "again"
	again, err := s.GetCredit(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", again.Check.SerialNumber)

	_, err = s.CreateCredit(ctx, ledger.Credit{ID: c.ID, OwnerID: owner})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestStore_IdempotencyFirstWins(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner, first, second := uuid.New(), uuid.New(), uuid.New()

	bound, reserved, err := s.ReserveIdempotencyKey(ctx, owner, "k", first)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, first, bound)

	bound, reserved, err = s.ReserveIdempotencyKey(ctx, owner, "k", second)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, first, bound)

	_, reserved, _ = s.ReserveIdempotencyKey(ctx, uuid.New(), "k", second)
	assert.True(t, reserved, "keys are per owner")

	// only the holder can release
	require.NoError(t, s.ReleaseIdempotencyKey(ctx, owner, "k", second))
	_, reserved, _ = s.ReserveIdempotencyKey(ctx, owner, "k", second)
	assert.False(t, reserved)
	require.NoError(t, s.ReleaseIdempotencyKey(ctx, owner, "k", first))
	bound, reserved, _ = s.ReserveIdempotencyKey(ctx, owner, "k", second)
	assert.True(t, reserved)
	assert.Equal(t, second, bound)

	s.Reset()
	_, reserved, _ = s.ReserveIdempotencyKey(ctx, owner, "k", first)
	assert.True(t, reserved)
}
