// Package party implements the customer and supplier rules: a kind that
// never changes, a required name, an optional default currency from the
// supported set, and deletion only while no records point at the party.
package party

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/ermay/internal/errs"
	"github.com/tinoosan/ermay/internal/ledger"
	"github.com/tinoosan/ermay/internal/meta"
)

type Repo interface {
	ListParties(ctx context.Context, ownerID uuid.UUID, kind ledger.PartyKind) ([]ledger.Party, error)
	GetParty(ctx context.Context, ownerID, partyID uuid.UUID) (ledger.Party, error)
	// CountRecords returns how many debits and credits reference the party.
	CountRecords(ctx context.Context, ownerID, partyID uuid.UUID) (int, error)
}

type Writer interface {
	CreateParty(ctx context.Context, p ledger.Party) (ledger.Party, error)
	UpdateParty(ctx context.Context, p ledger.Party) (ledger.Party, error)
	DeleteParty(ctx context.Context, ownerID, partyID uuid.UUID) error
}

type Service interface {
	ValidateCreate(p ledger.Party) error
	Create(ctx context.Context, p ledger.Party) (ledger.Party, error)
	Get(ctx context.Context, ownerID, partyID uuid.UUID, kind ledger.PartyKind) (ledger.Party, error)
	List(ctx context.Context, ownerID uuid.UUID, kind ledger.PartyKind) ([]ledger.Party, error)
	Update(ctx context.Context, p ledger.Party) (ledger.Party, error)
	Delete(ctx context.Context, ownerID, partyID uuid.UUID, kind ledger.PartyKind) error
}

type service struct {
	repo   Repo
	writer Writer
	now    func() time.Time
}

func New(repo Repo, writer Writer) Service {
	return &service{repo: repo, writer: writer, now: time.Now}
}

func (s *service) ValidateCreate(p ledger.Party) error {
	if p.OwnerID == uuid.Nil {
		return errs.ErrInvalid
	}
	if !p.Kind.Valid() {
		return errs.Invalid("kind", "must be customer or supplier")
	}
	return validateFields(p)
}

func validateFields(p ledger.Party) error {
	if strings.TrimSpace(p.Name) == "" {
		return errs.Invalid("name", "is required")
	}
	if len(p.Name) > 200 {
		return errs.Invalid("name", "must be at most 200 characters")
	}
	if p.DefaultCurrency != nil && !p.DefaultCurrency.IsKnown() {
		return errs.Invalid("default_currency", "unsupported currency "+string(*p.DefaultCurrency))
	}
	if p.Email != nil && *p.Email != "" {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			return errs.Invalid("email", "is not a valid address")
		}
	}
	if p.TaxNumber != nil && *p.TaxNumber != "" && !validTaxNumber(*p.TaxNumber) {
		return errs.Invalid("tax_number", "must be 10 (VKN) or 11 (TCKN) digits")
	}
	return p.Metadata.Validate()
}

// validTaxNumber accepts a 10-digit company tax number or an 11-digit
// national identity number.
func validTaxNumber(s string) bool {
	if len(s) != 10 && len(s) != 11 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalize(p ledger.Party) ledger.Party {
	p.Name = strings.TrimSpace(p.Name)
	if p.DefaultCurrency != nil {
		c := ledger.NormalizeCurrency(string(*p.DefaultCurrency))
		p.DefaultCurrency = &c
	}
	if p.Metadata == nil {
		p.Metadata = meta.Metadata{}
	}
	return p
}

func (s *service) Create(ctx context.Context, p ledger.Party) (ledger.Party, error) {
	p = normalize(p)
	if err := s.ValidateCreate(p); err != nil {
		return ledger.Party{}, err
	}
	p.ID = uuid.New()
	p.CreatedAt = s.now().UTC()
	return s.writer.CreateParty(ctx, p)
}

// Get returns the party when it exists for the owner and has the expected
// kind. A party of the other kind is reported as not found.
func (s *service) Get(ctx context.Context, ownerID, partyID uuid.UUID, kind ledger.PartyKind) (ledger.Party, error) {
	if ownerID == uuid.Nil || partyID == uuid.Nil {
		return ledger.Party{}, errs.ErrInvalid
	}
	p, err := s.repo.GetParty(ctx, ownerID, partyID)
	if err != nil {
		return ledger.Party{}, err
	}
	if kind != "" && p.Kind != kind {
		return ledger.Party{}, fmt.Errorf("%s %s: %w", kind, partyID, errs.ErrNotFound)
	}
	return p, nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, kind ledger.PartyKind) ([]ledger.Party, error) {
	if ownerID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	if kind != "" && !kind.Valid() {
		return nil, errs.Invalid("kind", "must be customer or supplier")
	}
	return s.repo.ListParties(ctx, ownerID, kind)
}

// Update replaces the descriptive fields of an existing party. Kind, owner
// and creation time are kept from the stored row.
func (s *service) Update(ctx context.Context, p ledger.Party) (ledger.Party, error) {
	current, err := s.Get(ctx, p.OwnerID, p.ID, p.Kind)
	if err != nil {
		return ledger.Party{}, err
	}
	p = normalize(p)
	p.Kind = current.Kind
	p.CreatedAt = current.CreatedAt
	if err := validateFields(p); err != nil {
		return ledger.Party{}, err
	}
	return s.writer.UpdateParty(ctx, p)
}

func (s *service) Delete(ctx context.Context, ownerID, partyID uuid.UUID, kind ledger.PartyKind) error {
	if _, err := s.Get(ctx, ownerID, partyID, kind); err != nil {
		return err
	}
	n, err := s.repo.CountRecords(ctx, ownerID, partyID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%d records reference party: %w", n, errs.ErrPartyInUse)
	}
	return s.writer.DeleteParty(ctx, ownerID, partyID)
}
