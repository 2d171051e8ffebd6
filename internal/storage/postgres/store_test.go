package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/ermay/internal/errs"
	"github.com/tinoosan/ermay/internal/ledger"
	"github.com/tinoosan/ermay/internal/meta"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

// openFresh applies the init migration, truncates all tables and returns an
// open store.
func openFresh(t *testing.T) *Store {
	t.Helper()
	dsn := getTestDSN(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	// resolve relative to this file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	b, err := os.ReadFile(filepath.Join(repoRoot, "db", "migrations", "0001_init.sql"))
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, string(b))
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `truncate table record_idempotency, credits, debits, parties cascade`)
	require.NoError(t, err)
	return s
}

func TestStore_PartiesAndRecords(t *testing.T) {
	s := openFresh(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Ready(ctx))

	owner := uuid.New()
	usd := ledger.CurrencyUSD
	tax := "1234567890"
	cust := ledger.Party{
		ID: uuid.New(), OwnerID: owner, Kind: ledger.PartyCustomer, Name: "Öz Gıda",
		TaxNumber: &tax, DefaultCurrency: &usd,
		Metadata:  meta.Metadata{"region": "ege"}, CreatedAt: time.Now().UTC(),
	}
	_, err := s.CreateParty(ctx, cust)
	require.NoError(t, err)

	got, err := s.GetParty(ctx, owner, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, "Öz Gıda", got.Name)
	require.NotNil(t, got.DefaultCurrency)
	assert.Equal(t, ledger.CurrencyUSD, *got.DefaultCurrency)
	assert.Equal(t, "ege", got.Metadata["region"])

	_, err = s.GetParty(ctx, uuid.New(), cust.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	got.Name = "Öz Gıda Ltd."
	_, err = s.UpdateParty(ctx, got)
	require.NoError(t, err)
	list, err := s.ListParties(ctx, owner, ledger.PartyCustomer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Öz Gıda Ltd.", list[0].Name)

	vat := 20.0
	sale := ledger.Debit{
		ID: uuid.New(), OwnerID: owner, PartyID: cust.ID, Kind: ledger.TypeSale,
		Date: "2024-03-01", Amount: 1000, Currency: ledger.CurrencyTRY,
		Items:     []ledger.LineItem{{Description: "Un", Quantity: 10, Unit: "çuval", UnitPrice: 100, VATRate: &vat}},
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.CreateDebit(ctx, sale)
	require.NoError(t, err)
	pay := ledger.Credit{
		ID: uuid.New(), OwnerID: owner, PartyID: cust.ID, Kind: ledger.TypePayment,
		Date: "2024-03-05", Amount: 400, Currency: ledger.CurrencyTRY, Method: ledger.MethodCheck,
		Check:     &ledger.CheckDetails{SerialNumber: "C-1", Bank: "Ziraat", DueDate: "2024-05-01"},
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.CreateCredit(ctx, pay)
	require.NoError(t, err)

	pid := cust.ID
	debits, err := s.ListDebits(ctx, owner, ledger.RecordFilter{PartyID: &pid, Kind: ledger.TypeSale})
	require.NoError(t, err)
	require.Len(t, debits, 1)
	require.Len(t, debits[0].Items, 1)
	assert.Equal(t, "çuval", debits[0].Items[0].Unit)

	credits, err := s.ListCredits(ctx, owner, ledger.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, credits, 1)
	require.NotNil(t, credits[0].Check)
	assert.Equal(t, "C-1", credits[0].Check.SerialNumber)
	assert.Nil(t, credits[0].Transfer)

	n, err := s.CountRecords(ctx, owner, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	bal := ledger.ComputeBalances(debits, credits)
	assert.Equal(t, "600", bal.Get(ledger.CurrencyTRY).String())

	// parties with records cannot be removed
	assert.ErrorIs(t, s.DeleteParty(ctx, owner, cust.ID), errs.ErrPartyInUse)
	require.NoError(t, s.DeleteDebit(ctx, owner, sale.ID))
	require.NoError(t, s.DeleteCredit(ctx, owner, pay.ID))
	require.NoError(t, s.DeleteParty(ctx, owner, cust.ID))
}

func TestStore_Idempotency(t *testing.T) {
	s := openFresh(t)
	ctx := context.Background()
	owner, first, second := uuid.New(), uuid.New(), uuid.New()

	bound, reserved, err := s.ReserveIdempotencyKey(ctx, owner, "k1", first)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, first, bound)

	bound, reserved, err = s.ReserveIdempotencyKey(ctx, owner, "k1", second)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, first, bound)

	require.NoError(t, s.ReleaseIdempotencyKey(ctx, owner, "k1", second))
	_, reserved, err = s.ReserveIdempotencyKey(ctx, owner, "k1", second)
	require.NoError(t, err)
	assert.False(t, reserved, "release by a non-holder is a no-op")

	require.NoError(t, s.ReleaseIdempotencyKey(ctx, owner, "k1", first))
	bound, reserved, err = s.ReserveIdempotencyKey(ctx, owner, "k1", second)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, second, bound)
}
