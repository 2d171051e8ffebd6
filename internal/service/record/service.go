// Package record validates and persists debits (sales, purchases) and
// credits (payments received or made). Every call is scoped by owner.
package record

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/ermay/internal/errs"
	"github.com/tinoosan/ermay/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetParty(ctx context.Context, ownerID, partyID uuid.UUID) (ledger.Party, error)
	ListDebits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Debit, error)
	ListCredits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Credit, error)
	GetDebit(ctx context.Context, ownerID, id uuid.UUID) (ledger.Debit, error)
	GetCredit(ctx context.Context, ownerID, id uuid.UUID) (ledger.Credit, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateDebit(ctx context.Context, d ledger.Debit) (ledger.Debit, error)
	UpdateDebit(ctx context.Context, d ledger.Debit) (ledger.Debit, error)
	DeleteDebit(ctx context.Context, ownerID, id uuid.UUID) error
	CreateCredit(ctx context.Context, c ledger.Credit) (ledger.Credit, error)
	UpdateCredit(ctx context.Context, c ledger.Credit) (ledger.Credit, error)
	DeleteCredit(ctx context.Context, ownerID, id uuid.UUID) error
}

// IdempotencyStore binds a client supplied key to the record it created.
type IdempotencyStore interface {
	// ReserveIdempotencyKey atomically binds key to recordID. When the key is
	// already bound it returns the bound id and reserved=false.
	ReserveIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string, recordID uuid.UUID) (bound uuid.UUID, reserved bool, err error)
	// ReleaseIdempotencyKey unbinds key if it still points at recordID.
	ReleaseIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string, recordID uuid.UUID) error
}

type Service interface {
	ValidateDebit(ctx context.Context, d ledger.Debit) (ledger.Debit, error)
	ValidateCredit(ctx context.Context, c ledger.Credit) (ledger.Credit, error)
	// CreateDebit persists d. When idemKey was already used the stored record
	// is returned with replayed=true.
	CreateDebit(ctx context.Context, d ledger.Debit, idemKey string) (rec ledger.Debit, replayed bool, err error)
	CreateCredit(ctx context.Context, c ledger.Credit, idemKey string) (rec ledger.Credit, replayed bool, err error)
	UpdateDebit(ctx context.Context, d ledger.Debit) (ledger.Debit, error)
	UpdateCredit(ctx context.Context, c ledger.Credit) (ledger.Credit, error)
	GetDebit(ctx context.Context, ownerID, id uuid.UUID, kind ledger.TransactionType) (ledger.Debit, error)
	GetCredit(ctx context.Context, ownerID, id uuid.UUID, kind ledger.TransactionType) (ledger.Credit, error)
	ListDebits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Debit, error)
	ListCredits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Credit, error)
	DeleteDebit(ctx context.Context, ownerID, id uuid.UUID, kind ledger.TransactionType) error
	DeleteCredit(ctx context.Context, ownerID, id uuid.UUID, kind ledger.TransactionType) error
}

type service struct {
	repo   Repo
	writer Writer
	idem   IdempotencyStore
	now    func() time.Time
}

// New builds the service. idem may be nil, in which case idempotency keys
// are ignored.
func New(repo Repo, writer Writer, idem IdempotencyStore) Service {
	return &service{repo: repo, writer: writer, idem: idem, now: time.Now}
}

const maxDescription = 500

// ErrIdempotencyMismatch is returned when a key is reused for a different
// kind of record, or while the request that reserved it is still writing.
var ErrIdempotencyMismatch = fmt.Errorf("idempotency key bound to another record: %w", errs.ErrConflict)

// validAmount accepts positive amounts up to ledger.MaxAmount that the
// balance decimal holds exactly.
func validAmount(f float64) bool {
	return ledger.ExactAmount(f) && f > 0 && f <= ledger.MaxAmount
}

// resolveParty loads the party and checks it can carry records of kind.
func (s *service) resolveParty(ctx context.Context, ownerID, partyID uuid.UUID, kind ledger.TransactionType) (ledger.Party, error) {
	if partyID == uuid.Nil {
		return ledger.Party{}, errs.Invalid("party_id", "is required")
	}
	p, err := s.repo.GetParty(ctx, ownerID, partyID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return ledger.Party{}, errs.Invalid("party_id", "unknown party")
		}
		return ledger.Party{}, err
	}
	if p.Kind != kind.PartyKind() {
		return ledger.Party{}, fmt.Errorf("%s requires a %s: %w", kind, kind.PartyKind(), errs.ErrPartyKindMismatch)
	}
	return p, nil
}

// currencyFor applies the party default (then TRY) when c is empty.
func currencyFor(c ledger.Currency, p ledger.Party) (ledger.Currency, error) {
	c = ledger.NormalizeCurrency(string(c))
	if c == "" {
		if p.DefaultCurrency != nil {
			c = *p.DefaultCurrency
		} else {
			c = ledger.CurrencyTRY
		}
	}
	if !c.IsKnown() {
		return "", errs.Invalid("currency", "unsupported currency "+string(c))
	}
	return c, nil
}

func validateCommon(date string, amount float64, description string) error {
	if _, ok := ledger.ParseDate(date); !ok {
		return errs.Invalid("date", "must be an ISO-8601 date")
	}
	if !validAmount(amount) {
		return errs.Invalid("amount", "must be > 0 and at most 1e15 with no more than 19 decimals")
	}
	if len(description) > maxDescription {
		return errs.Invalid("description", "too long")
	}
	return nil
}

func validateItems(items []ledger.LineItem) error {
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.Description) == "" {
			return errs.Invalid(field, "description is required")
		}
		if !validAmount(it.Quantity) {
			return errs.Invalid(field, "quantity must be > 0")
		}
		if math.IsNaN(it.UnitPrice) || math.IsInf(it.UnitPrice, 0) || it.UnitPrice < 0 {
			return errs.Invalid(field, "unit_price must be >= 0")
		}
		if it.VATRate != nil && (*it.VATRate < 0 || *it.VATRate > 100) {
			return errs.Invalid(field, "vat_rate must be between 0 and 100")
		}
	}
	return nil
}

func validateDetails(c ledger.Credit) error {
	if !c.Method.Valid() {
		return errs.Invalid("method", "unknown payment method")
	}
	switch c.Method {
	case ledger.MethodCheck, ledger.MethodPromissoryNote:
		if c.Check == nil || strings.TrimSpace(c.Check.SerialNumber) == "" {
			return errs.Invalid("check.serial_number", "is required for "+string(c.Method))
		}
		if c.Check.DueDate != "" {
			if _, ok := ledger.ParseDate(c.Check.DueDate); !ok {
				return errs.Invalid("check.due_date", "must be an ISO-8601 date")
			}
		}
	default:
		if c.Check != nil {
			return errs.Invalid("check", "only allowed for check or promissory_note")
		}
	}
	if c.Transfer != nil && c.Method != ledger.MethodBankTransfer {
		return errs.Invalid("transfer", "only allowed for bank_transfer")
	}
	return nil
}

// ValidateDebit checks d and returns it normalised (currency defaulted,
// description trimmed).
func (s *service) ValidateDebit(ctx context.Context, d ledger.Debit) (ledger.Debit, error) {
	if d.OwnerID == uuid.Nil {
		return ledger.Debit{}, errs.ErrInvalid
	}
	if !d.Kind.IsDebit() {
		return ledger.Debit{}, errs.Invalid("kind", "must be sale or purchase")
	}
	d.Description = strings.TrimSpace(d.Description)
	d.Date = strings.TrimSpace(d.Date)
	if err := validateCommon(d.Date, d.Amount, d.Description); err != nil {
		return ledger.Debit{}, err
	}
	if err := validateItems(d.Items); err != nil {
		return ledger.Debit{}, err
	}
	p, err := s.resolveParty(ctx, d.OwnerID, d.PartyID, d.Kind)
	if err != nil {
		return ledger.Debit{}, err
	}
	if d.Currency, err = currencyFor(d.Currency, p); err != nil {
		return ledger.Debit{}, err
	}
	return d, nil
}

// ValidateCredit checks c and returns it normalised.
func (s *service) ValidateCredit(ctx context.Context, c ledger.Credit) (ledger.Credit, error) {
	if c.OwnerID == uuid.Nil {
		return ledger.Credit{}, errs.ErrInvalid
	}
	if !c.Kind.IsCredit() {
		return ledger.Credit{}, errs.Invalid("kind", "must be payment or paymentToSupplier")
	}
	c.Description = strings.TrimSpace(c.Description)
	c.Date = strings.TrimSpace(c.Date)
	if c.Method == "" {
		c.Method = ledger.MethodCash
	}
	if err := validateCommon(c.Date, c.Amount, c.Description); err != nil {
		return ledger.Credit{}, err
	}
	if err := validateDetails(c); err != nil {
		return ledger.Credit{}, err
	}
	p, err := s.resolveParty(ctx, c.OwnerID, c.PartyID, c.Kind)
	if err != nil {
		return ledger.Credit{}, err
	}
	if c.Currency, err = currencyFor(c.Currency, p); err != nil {
		return ledger.Credit{}, err
	}
	return c, nil
}

// claim reserves key for id. replay=true means the key was already bound
// and prev is the record id it points at.
func (s *service) claim(ctx context.Context, ownerID uuid.UUID, key string, id uuid.UUID) (prev uuid.UUID, replay bool, err error) {
	if s.idem == nil || key == "" {
		return uuid.Nil, false, nil
	}
	bound, reserved, err := s.idem.ReserveIdempotencyKey(ctx, ownerID, key, id)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return bound, !reserved, nil
}

// release frees a reserved key after a failed write and returns cause.
func (s *service) release(ctx context.Context, ownerID uuid.UUID, key string, id uuid.UUID, cause error) error {
	if s.idem == nil || key == "" {
		return cause
	}
	if err := s.idem.ReleaseIdempotencyKey(ctx, ownerID, key, id); err != nil {
		return errors.Join(cause, fmt.Errorf("release idempotency key: %w", err))
	}
	return cause
}

// CreateDebit validates d, reserves idemKey for the new id and writes the
// record. A key bound to a debit of the same kind replays that debit.
func (s *service) CreateDebit(ctx context.Context, d ledger.Debit, idemKey string) (ledger.Debit, bool, error) {
	d, err := s.ValidateDebit(ctx, d)
	if err != nil {
		return ledger.Debit{}, false, err
	}
	d.ID = uuid.New()
	d.CreatedAt = s.now().UTC()
	prevID, replay, err := s.claim(ctx, d.OwnerID, idemKey, d.ID)
	if err != nil {
		return ledger.Debit{}, false, err
	}
	if replay {
		prev, err := s.repo.GetDebit(ctx, d.OwnerID, prevID)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return ledger.Debit{}, false, ErrIdempotencyMismatch
		case err != nil:
			return ledger.Debit{}, false, err
		case prev.Kind != d.Kind:
			return ledger.Debit{}, false, ErrIdempotencyMismatch
		}
		return prev, true, nil
	}
	saved, err := s.writer.CreateDebit(ctx, d)
	if err != nil {
		return ledger.Debit{}, false, s.release(ctx, d.OwnerID, idemKey, d.ID, err)
	}
	return saved, false, nil
}

func (s *service) CreateCredit(ctx context.Context, c ledger.Credit, idemKey string) (ledger.Credit, bool, error) {
	c, err := s.ValidateCredit(ctx, c)
	if err != nil {
		return ledger.Credit{}, false, err
	}
	c.ID = uuid.New()
	c.CreatedAt = s.now().UTC()
	prevID, replay, err := s.claim(ctx, c.OwnerID, idemKey, c.ID)
	if err != nil {
		return ledger.Credit{}, false, err
	}
	if replay {
		prev, err := s.repo.GetCredit(ctx, c.OwnerID, prevID)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return ledger.Credit{}, false, ErrIdempotencyMismatch
		case err != nil:
			return ledger.Credit{}, false, err
		case prev.Kind != c.Kind:
			return ledger.Credit{}, false, ErrIdempotencyMismatch
		}
		return prev, true, nil
	}
	saved, err := s.writer.CreateCredit(ctx, c)
	if err != nil {
		return ledger.Credit{}, false, s.release(ctx, c.OwnerID, idemKey, c.ID, err)
	}
	return saved, false, nil
}

// UpdateDebit replaces an existing debit. Its kind and creation time are
// kept from the stored record; the party may change within the same kind.
func (s *service) UpdateDebit(ctx context.Context, d ledger.Debit) (ledger.Debit, error) {
	current, err := s.GetDebit(ctx, d.OwnerID, d.ID, d.Kind)
	if err != nil {
		return ledger.Debit{}, err
	}
	d.Kind = current.Kind
	d.CreatedAt = current.CreatedAt
	if d, err = s.ValidateDebit(ctx, d); err != nil {
		return ledger.Debit{}, err
	}
	return s.writer.UpdateDebit(ctx, d)
}

func (s *service) UpdateCredit(ctx context.Context, c ledger.Credit) (ledger.Credit, error) {
	current, err := s.GetCredit(ctx, c.OwnerID, c.ID, c.Kind)
	if err != nil {
		return ledger.Credit{}, err
	}
	c.Kind = current.Kind
	c.CreatedAt = current.CreatedAt
	if c, err = s.ValidateCredit(ctx, c); err != nil {
		return ledger.Credit{}, err
	}
	return s.writer.UpdateCredit(ctx, c)
}

// GetDebit returns the debit when it exists for the owner with the given
// kind. An empty kind matches any debit.
func (s *service) GetDebit(ctx context.Context, ownerID, id uuid.UUID, kind ledger.TransactionType) (ledger.Debit, error) {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return ledger.Debit{}, errs.ErrInvalid
	}
	d, err := s.repo.GetDebit(ctx, ownerID, id)
	if err != nil {
		return ledger.Debit{}, err
	}
	if kind != "" && d.Kind != kind {
		return ledger.Debit{}, fmt.Errorf("%s %s: %w", kind, id, errs.ErrNotFound)
	}
	return d, nil
}

func (s *service) GetCredit(ctx context.Context, ownerID, id uuid.UUID, kind ledger.TransactionType) (ledger.Credit, error) {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return ledger.Credit{}, errs.ErrInvalid
	}
	c, err := s.repo.GetCredit(ctx, ownerID, id)
	if err != nil {
		return ledger.Credit{}, err
	}
	if kind != "" && c.Kind != kind {
		return ledger.Credit{}, fmt.Errorf("%s %s: %w", kind, id, errs.ErrNotFound)
	}
	return c, nil
}

func (s *service) ListDebits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Debit, error) {
	if ownerID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListDebits(ctx, ownerID, f)
}

func (s *service) ListCredits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Credit, error) {
	if ownerID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListCredits(ctx, ownerID, f)
}

func (s *service) DeleteDebit(ctx context.Context, ownerID, id uuid.UUID, kind ledger.TransactionType) error {
	if _, err := s.GetDebit(ctx, ownerID, id, kind); err != nil {
		return err
	}
	return s.writer.DeleteDebit(ctx, ownerID, id)
}

func (s *service) DeleteCredit(ctx context.Context, ownerID, id uuid.UUID, kind ledger.TransactionType) error {
	if _, err := s.GetCredit(ctx, ownerID, id, kind); err != nil {
		return err
	}
	return s.writer.DeleteCredit(ctx, ownerID, id)
}
