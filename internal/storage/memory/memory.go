// Package memory provides an in-memory store used for development and tests.
// It satisfies the same repository and writer interfaces as the Postgres store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tinoosan/ermay/internal/errs"
	"github.com/tinoosan/ermay/internal/ledger"
)

// Store keeps parties, debits and credits per owner. Records are listed in
// insertion order; callers that need chronological order build a timeline.
// It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu      sync.RWMutex
	parties map[uuid.UUID]ledger.Party
	debits  map[uuid.UUID]ledger.Debit
	credits map[uuid.UUID]ledger.Credit
	// insertion order per owner
	debitOrder  map[uuid.UUID][]uuid.UUID
	creditOrder map[uuid.UUID][]uuid.UUID
	// owner -> key -> record id
	idem map[uuid.UUID]map[string]uuid.UUID
}

func New() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	s.parties = map[uuid.UUID]ledger.Party{}
	s.debits = map[uuid.UUID]ledger.Debit{}
	s.credits = map[uuid.UUID]ledger.Credit{}
	s.debitOrder = map[uuid.UUID][]uuid.UUID{}
	s.creditOrder = map[uuid.UUID][]uuid.UUID{}
	s.idem = map[uuid.UUID]map[string]uuid.UUID{}
	s.mu.Unlock()
}

// Ready always succeeds.
func (s *Store) Ready(context.Context) error { return nil }

// --- Parties ---

func (s *Store) ListParties(_ context.Context, ownerID uuid.UUID, kind ledger.PartyKind) ([]ledger.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Party, 0)
	for _, p := range s.parties {
		if p.OwnerID == ownerID && (kind == "" || p.Kind == kind) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b ledger.Party) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (s *Store) GetParty(_ context.Context, ownerID, partyID uuid.UUID) (ledger.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[partyID]
	if !ok || p.OwnerID != ownerID {
		return ledger.Party{}, fmt.Errorf("party %s: %w", partyID, errs.ErrNotFound)
	}
	return p, nil
}

func (s *Store) CountRecords(_ context.Context, ownerID, partyID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, id := range s.debitOrder[ownerID] {
		if s.debits[id].PartyID == partyID {
			n++
		}
	}
	for _, id := range s.creditOrder[ownerID] {
		if s.credits[id].PartyID == partyID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateParty(_ context.Context, p ledger.Party) (ledger.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.parties[p.ID]; exists {
		return ledger.Party{}, errs.ErrConflict
	}
	p.Metadata = p.Metadata.Clone()
	s.parties[p.ID] = p
	return p, nil
}

func (s *Store) UpdateParty(_ context.Context, p ledger.Party) (ledger.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.parties[p.ID]
	if !ok || cur.OwnerID != p.OwnerID {
		return ledger.Party{}, errs.ErrNotFound
	}
	p.Metadata = p.Metadata.Clone()
	s.parties[p.ID] = p
	return p, nil
}

func (s *Store) DeleteParty(_ context.Context, ownerID, partyID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parties[partyID]
	if !ok || p.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	delete(s.parties, partyID)
	return nil
}

// --- Debits ---

func (s *Store) ListDebits(_ context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Debit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.debitOrder[ownerID]
	out := make([]ledger.Debit, 0, len(ids))
	for _, id := range ids {
		d := s.debits[id]
		if f.Matches(d.PartyID, d.Kind) {
			out = append(out, cloneDebit(d))
		}
	}
	return out, nil
}

func (s *Store) GetDebit(_ context.Context, ownerID, id uuid.UUID) (ledger.Debit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.debits[id]
	if !ok || d.OwnerID != ownerID {
		return ledger.Debit{}, fmt.Errorf("debit %s: %w", id, errs.ErrNotFound)
	}
	return cloneDebit(d), nil
}

func (s *Store) CreateDebit(_ context.Context, d ledger.Debit) (ledger.Debit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.debits[d.ID]; exists {
		return ledger.Debit{}, errs.ErrConflict
	}
	d = cloneDebit(d)
	s.debits[d.ID] = d
	s.debitOrder[d.OwnerID] = append(s.debitOrder[d.OwnerID], d.ID)
	return d, nil
}

func (s *Store) UpdateDebit(_ context.Context, d ledger.Debit) (ledger.Debit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.debits[d.ID]
	if !ok || cur.OwnerID != d.OwnerID {
		return ledger.Debit{}, errs.ErrNotFound
	}
	d = cloneDebit(d)
	s.debits[d.ID] = d
	return d, nil
}

func (s *Store) DeleteDebit(_ context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debits[id]
	if !ok || d.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	delete(s.debits, id)
	s.debitOrder[ownerID] = slices.DeleteFunc(s.debitOrder[ownerID], func(x uuid.UUID) bool { return x == id })
	return nil
}

// --- Credits ---

func (s *Store) ListCredits(_ context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.creditOrder[ownerID]
	out := make([]ledger.Credit, 0, len(ids))
	for _, id := range ids {
		c := s.credits[id]
		if f.Matches(c.PartyID, c.Kind) {
			out = append(out, cloneCredit(c))
		}
	}
	return out, nil
}

func (s *Store) GetCredit(_ context.Context, ownerID, id uuid.UUID) (ledger.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credits[id]
	if !ok || c.OwnerID != ownerID {
		return ledger.Credit{}, fmt.Errorf("credit %s: %w", id, errs.ErrNotFound)
	}
	return cloneCredit(c), nil
}

func (s *Store) CreateCredit(_ context.Context, c ledger.Credit) (ledger.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.credits[c.ID]; exists {
		return ledger.Credit{}, errs.ErrConflict
	}
	c = cloneCredit(c)
	s.credits[c.ID] = c
	s.creditOrder[c.OwnerID] = append(s.creditOrder[c.OwnerID], c.ID)
	return c, nil
}

func (s *Store) UpdateCredit(_ context.Context, c ledger.Credit) (ledger.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.credits[c.ID]
	if !ok || cur.OwnerID != c.OwnerID {
		return ledger.Credit{}, errs.ErrNotFound
	}
	c = cloneCredit(c)
	s.credits[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCredit(_ context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credits[id]
	if !ok || c.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	delete(s.credits, id)
	s.creditOrder[ownerID] = slices.DeleteFunc(s.creditOrder[ownerID], func(x uuid.UUID) bool { return x == id })
	return nil
}

// --- Idempotency ---

// ReserveIdempotencyKey binds key to recordID unless it is already bound.
func (s *Store) ReserveIdempotencyKey(_ context.Context, ownerID uuid.UUID, key string, recordID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.idem[ownerID]
	if !ok {
		m = make(map[string]uuid.UUID)
		s.idem[ownerID] = m
	}
	if id, exists := m[key]; exists {
		return id, false, nil
	}
	m[key] = recordID
	return recordID, true, nil
}

func (s *Store) ReleaseIdempotencyKey(_ context.Context, ownerID uuid.UUID, key string, recordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idem[ownerID][key] == recordID {
		delete(s.idem[ownerID], key)
	}
	return nil
}

// stored records must not share slices or pointers with callers
func cloneDebit(d ledger.Debit) ledger.Debit {
	d.Items = slices.Clone(d.Items)
	if d.InvoiceNo != nil {
		v := *d.InvoiceNo
		d.InvoiceNo = &v
	}
	return d
}

func cloneCredit(c ledger.Credit) ledger.Credit {
	if c.Check != nil {
		v := *c.Check
		c.Check = &v
	}
	if c.Transfer != nil {
		v := *c.Transfer
		c.Transfer = &v
	}
	return c
}
