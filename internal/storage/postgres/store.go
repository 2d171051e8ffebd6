// Package postgres provides a pgx-backed store that satisfies the repository
// and writer interfaces of the party, record and statement services.
//
// The schema lives in db/migrations. This package only maps between domain
// types and rows; validation happens in the services.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/ermay/internal/errs"
	"github.com/tinoosan/ermay/internal/ledger"
	"github.com/tinoosan/ermay/internal/meta"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.Open: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// mapWriteErr turns constraint violations into domain errors.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, errs.ErrConflict)
		}
	}
	return err
}

// --- Parties ---

const partyColumns = `id, owner_id, kind, name, phone, email, address, tax_office, tax_number, default_currency, metadata, created_at`

func scanParty(r rowScanner) (ledger.Party, error) {
	var p ledger.Party
	var curr *string
	var md []byte
	if err := r.Scan(&p.ID, &p.OwnerID, &p.Kind, &p.Name, &p.Phone, &p.Email, &p.Address, &p.TaxOffice, &p.TaxNumber, &curr, &md, &p.CreatedAt); err != nil {
		return ledger.Party{}, err
	}
	if curr != nil {
		c := ledger.Currency(*curr)
		p.DefaultCurrency = &c
	}
	p.Metadata = meta.Metadata{}
	if len(md) > 0 {
		if err := p.Metadata.UnmarshalJSON(md); err != nil {
			return ledger.Party{}, fmt.Errorf("party %s metadata: %w", p.ID, err)
		}
	}
	return p, nil
}

func currencyArg(c *ledger.Currency) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func (s *Store) ListParties(ctx context.Context, ownerID uuid.UUID, kind ledger.PartyKind) ([]ledger.Party, error) {
	rows, err := s.pool.Query(ctx, `
		select `+partyColumns+`
		from parties
		where owner_id = $1 and ($2 = '' or kind = $2)
		order by lower(name), id
	`, ownerID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Party, 0)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetParty(ctx context.Context, ownerID, partyID uuid.UUID) (ledger.Party, error) {
	p, err := scanParty(s.pool.QueryRow(ctx, `
		select `+partyColumns+`
		from parties
		where id = $1 and owner_id = $2
	`, partyID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Party{}, fmt.Errorf("party %s: %w", partyID, errs.ErrNotFound)
	}
	return p, err
}

// CountRecords counts debits and credits that reference the party.
func (s *Store) CountRecords(ctx context.Context, ownerID, partyID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		select (select count(*) from debits where owner_id = $1 and party_id = $2)
		     + (select count(*) from credits where owner_id = $1 and party_id = $2)
	`, ownerID, partyID).Scan(&n)
	return n, err
}

func (s *Store) CreateParty(ctx context.Context, p ledger.Party) (ledger.Party, error) {
	md, err := p.Metadata.MarshalStableJSON()
	if err != nil {
		return ledger.Party{}, err
	}
	_, err = s.pool.Exec(ctx, `
		insert into parties (`+partyColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, p.ID, p.OwnerID, p.Kind, p.Name, p.Phone, p.Email, p.Address, p.TaxOffice, p.TaxNumber, currencyArg(p.DefaultCurrency), md, p.CreatedAt)
	if err != nil {
		return ledger.Party{}, mapWriteErr(err)
	}
	return p, nil
}

// UpdateParty updates the descriptive fields. Kind and created_at never change.
func (s *Store) UpdateParty(ctx context.Context, p ledger.Party) (ledger.Party, error) {
	md, err := p.Metadata.MarshalStableJSON()
	if err != nil {
		return ledger.Party{}, err
	}
	ct, err := s.pool.Exec(ctx, `
		update parties
		set name=$1, phone=$2, email=$3, address=$4, tax_office=$5, tax_number=$6, default_currency=$7, metadata=$8
		where id=$9 and owner_id=$10
	`, p.Name, p.Phone, p.Email, p.Address, p.TaxOffice, p.TaxNumber, currencyArg(p.DefaultCurrency), md, p.ID, p.OwnerID)
	if err != nil {
		return ledger.Party{}, mapWriteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.Party{}, errs.ErrNotFound
	}
	return p, nil
}

func (s *Store) DeleteParty(ctx context.Context, ownerID, partyID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from parties where id=$1 and owner_id=$2`, partyID, ownerID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("party %s: %w", partyID, errs.ErrPartyInUse)
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Debits ---

const debitColumns = `id, owner_id, party_id, kind, date, amount, currency, description, invoice_no, items, created_at`

func scanDebit(r rowScanner) (ledger.Debit, error) {
	var d ledger.Debit
	var items []byte
	if err := r.Scan(&d.ID, &d.OwnerID, &d.PartyID, &d.Kind, &d.Date, &d.Amount, &d.Currency, &d.Description, &d.InvoiceNo, &items, &d.CreatedAt); err != nil {
		return ledger.Debit{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &d.Items); err != nil {
			return ledger.Debit{}, fmt.Errorf("debit %s items: %w", d.ID, err)
		}
	}
	return d, nil
}

func itemsArg(items []ledger.LineItem) ([]byte, error) {
	if items == nil {
		items = []ledger.LineItem{}
	}
	return json.Marshal(items)
}

// filterArgs renders a RecordFilter as nullable query args.
func filterArgs(f ledger.RecordFilter) (*uuid.UUID, string) {
	return f.PartyID, string(f.Kind)
}

func (s *Store) ListDebits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Debit, error) {
	pid, kind := filterArgs(f)
	rows, err := s.pool.Query(ctx, `
		select `+debitColumns+`
		from debits
		where owner_id = $1
		  and ($2::uuid is null or party_id = $2)
		  and ($3 = '' or kind = $3)
		order by seq
	`, ownerID, pid, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Debit, 0)
	for rows.Next() {
		d, err := scanDebit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDebit(ctx context.Context, ownerID, id uuid.UUID) (ledger.Debit, error) {
	d, err := scanDebit(s.pool.QueryRow(ctx, `
		select `+debitColumns+` from debits where id = $1 and owner_id = $2
	`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Debit{}, fmt.Errorf("debit %s: %w", id, errs.ErrNotFound)
	}
	return d, err
}

func (s *Store) CreateDebit(ctx context.Context, d ledger.Debit) (ledger.Debit, error) {
	items, err := itemsArg(d.Items)
	if err != nil {
		return ledger.Debit{}, err
	}
	_, err = s.pool.Exec(ctx, `
		insert into debits (`+debitColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, d.ID, d.OwnerID, d.PartyID, d.Kind, d.Date, d.Amount, d.Currency, d.Description, d.InvoiceNo, items, d.CreatedAt)
	if err != nil {
		return ledger.Debit{}, mapWriteErr(err)
	}
	return d, nil
}

func (s *Store) UpdateDebit(ctx context.Context, d ledger.Debit) (ledger.Debit, error) {
	items, err := itemsArg(d.Items)
	if err != nil {
		return ledger.Debit{}, err
	}
	ct, err := s.pool.Exec(ctx, `
		update debits
		set party_id=$1, date=$2, amount=$3, currency=$4, description=$5, invoice_no=$6, items=$7
		where id=$8 and owner_id=$9
	`, d.PartyID, d.Date, d.Amount, d.Currency, d.Description, d.InvoiceNo, items, d.ID, d.OwnerID)
	if err != nil {
		return ledger.Debit{}, mapWriteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.Debit{}, errs.ErrNotFound
	}
	return d, nil
}

func (s *Store) DeleteDebit(ctx context.Context, ownerID, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from debits where id=$1 and owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Credits ---

const creditColumns = `id, owner_id, party_id, kind, date, amount, currency, method, description, check_details, transfer_details, created_at`

func scanCredit(r rowScanner) (ledger.Credit, error) {
	var c ledger.Credit
	var chk, tr []byte
	if err := r.Scan(&c.ID, &c.OwnerID, &c.PartyID, &c.Kind, &c.Date, &c.Amount, &c.Currency, &c.Method, &c.Description, &chk, &tr, &c.CreatedAt); err != nil {
		return ledger.Credit{}, err
	}
	if len(chk) > 0 {
		c.Check = &ledger.CheckDetails{}
		if err := json.Unmarshal(chk, c.Check); err != nil {
			return ledger.Credit{}, fmt.Errorf("credit %s check: %w", c.ID, err)
		}
	}
	if len(tr) > 0 {
		c.Transfer = &ledger.TransferDetails{}
		if err := json.Unmarshal(tr, c.Transfer); err != nil {
			return ledger.Credit{}, fmt.Errorf("credit %s transfer: %w", c.ID, err)
		}
	}
	return c, nil
}

// jsonArg encodes v, or returns nil for a nil pointer so the column is NULL.
func jsonArg[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func detailArgs(c ledger.Credit) (chk, tr []byte, err error) {
	if chk, err = jsonArg(c.Check); err != nil {
		return nil, nil, err
	}
	if tr, err = jsonArg(c.Transfer); err != nil {
		return nil, nil, err
	}
	return chk, tr, nil
}

func (s *Store) ListCredits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Credit, error) {
	pid, kind := filterArgs(f)
	rows, err := s.pool.Query(ctx, `
		select `+creditColumns+`
		from credits
		where owner_id = $1
		  and ($2::uuid is null or party_id = $2)
		  and ($3 = '' or kind = $3)
		order by seq
	`, ownerID, pid, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Credit, 0)
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCredit(ctx context.Context, ownerID, id uuid.UUID) (ledger.Credit, error) {
	c, err := scanCredit(s.pool.QueryRow(ctx, `
		select `+creditColumns+` from credits where id = $1 and owner_id = $2
	`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Credit{}, fmt.Errorf("credit %s: %w", id, errs.ErrNotFound)
	}
	return c, err
}

func (s *Store) CreateCredit(ctx context.Context, c ledger.Credit) (ledger.Credit, error) {
	chk, tr, err := detailArgs(c)
	if err != nil {
		return ledger.Credit{}, err
	}
	_, err = s.pool.Exec(ctx, `
		insert into credits (`+creditColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, c.ID, c.OwnerID, c.PartyID, c.Kind, c.Date, c.Amount, c.Currency, c.Method, c.Description, chk, tr, c.CreatedAt)
	if err != nil {
		return ledger.Credit{}, mapWriteErr(err)
	}
	return c, nil
}

func (s *Store) UpdateCredit(ctx context.Context, c ledger.Credit) (ledger.Credit, error) {
	chk, tr, err := detailArgs(c)
	if err != nil {
		return ledger.Credit{}, err
	}
	ct, err := s.pool.Exec(ctx, `
		update credits
		set party_id=$1, date=$2, amount=$3, currency=$4, method=$5, description=$6, check_details=$7, transfer_details=$8
		where id=$9 and owner_id=$10
	`, c.PartyID, c.Date, c.Amount, c.Currency, c.Method, c.Description, chk, tr, c.ID, c.OwnerID)
	if err != nil {
		return ledger.Credit{}, mapWriteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.Credit{}, errs.ErrNotFound
	}
	return c, nil
}

func (s *Store) DeleteCredit(ctx context.Context, ownerID, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from credits where id=$1 and owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Idempotency ---

// ReserveIdempotencyKey binds (owner, key) to recordID unless a row exists,
// in which case the bound record id is returned with reserved=false.
func (s *Store) ReserveIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string, recordID uuid.UUID) (uuid.UUID, bool, error) {
	ct, err := s.pool.Exec(ctx, `
		insert into record_idempotency (owner_id, key, record_id)
		values ($1,$2,$3)
		on conflict (owner_id, key) do nothing
	`, ownerID, key, recordID)
	if err != nil {
		return uuid.Nil, false, err
	}
	if ct.RowsAffected() == 1 {
		return recordID, true, nil
	}
	var id uuid.UUID
	err = s.pool.QueryRow(ctx, `
		select record_id from record_idempotency where owner_id=$1 and key=$2
	`, ownerID, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// released between the insert and the select
		return s.ReserveIdempotencyKey(ctx, ownerID, key, recordID)
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, false, nil
}

// ReleaseIdempotencyKey frees a key whose record was never written.
func (s *Store) ReleaseIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string, recordID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		delete from record_idempotency where owner_id=$1 and key=$2 and record_id=$3
	`, ownerID, key, recordID)
	return err
}
