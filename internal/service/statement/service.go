// Package statement assembles what a party page shows: the per-currency
// balances and the unified, date-ordered list of records. It is the only
// caller of the ledger aggregator and always hands it complete data.
package statement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/ermay/internal/errs"
	"github.com/tinoosan/ermay/internal/ledger"
)

// Repo defines the reads a statement needs.
type Repo interface {
	GetParty(ctx context.Context, ownerID, partyID uuid.UUID) (ledger.Party, error)
	ListParties(ctx context.Context, ownerID uuid.UUID, kind ledger.PartyKind) ([]ledger.Party, error)
	ListDebits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Debit, error)
	ListCredits(ctx context.Context, ownerID uuid.UUID, f ledger.RecordFilter) ([]ledger.Credit, error)
}

// Statement is one party's balances and feed.
type Statement struct {
	Party    ledger.Party
	Balances ledger.Balances
	Timeline []ledger.UnifiedTransaction
	Skipped  []ledger.Skipped
}

// PartyBalance pairs a party with its balances.
type PartyBalance struct {
	Party    ledger.Party
	Balances ledger.Balances
}

// Dashboard summarises an owner's books. Receivables sums customer balances,
// Payables sums supplier balances.
type Dashboard struct {
	Receivables ledger.Balances
	Payables    ledger.Balances
	Customers   int
	Suppliers   int
	Debits      int
	Credits     int
}

type Service interface {
	Statement(ctx context.Context, ownerID, partyID uuid.UUID, kind ledger.PartyKind) (Statement, error)
	PartyBalances(ctx context.Context, ownerID uuid.UUID, kind ledger.PartyKind) ([]PartyBalance, error)
	Dashboard(ctx context.Context, ownerID uuid.UUID) (Dashboard, error)
}

type service struct {
	repo Repo
	log  *slog.Logger
}

func New(repo Repo, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, log: logger}
}

// fetch loads debits and credits matching the filters concurrently and
// returns only once both have completed.
func (s *service) fetch(ctx context.Context, ownerID uuid.UUID, df, cf ledger.RecordFilter) ([]ledger.Debit, []ledger.Credit, error) {
	var debits []ledger.Debit
	var credits []ledger.Credit
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		debits, err = s.repo.ListDebits(gCtx, ownerID, df)
		if err != nil {
			return fmt.Errorf("list debits: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		credits, err = s.repo.ListCredits(gCtx, ownerID, cf)
		if err != nil {
			return fmt.Errorf("list credits: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return debits, credits, nil
}

func (s *service) skipHook(ctx context.Context, ownerID uuid.UUID, sink *[]ledger.Skipped) ledger.BalanceOption {
	return ledger.WithSkipHook(func(sk ledger.Skipped) {
		skippedRecords.WithLabelValues(string(sk.Reason)).Inc()
		s.log.WarnContext(ctx, "record skipped in balance",
			"owner_id", ownerID,
			"record_id", sk.ID,
			"kind", sk.Kind,
			"reason", sk.Reason,
		)
		if sink != nil {
			*sink = append(*sink, sk)
		}
	})
}

// Statement builds the statement for one party. A party of another kind
// is reported as not found.
func (s *service) Statement(ctx context.Context, ownerID, partyID uuid.UUID, kind ledger.PartyKind) (Statement, error) {
	if ownerID == uuid.Nil || partyID == uuid.Nil {
		return Statement{}, errs.ErrInvalid
	}
	p, err := s.repo.GetParty(ctx, ownerID, partyID)
	if err != nil {
		return Statement{}, err
	}
	if kind != "" && p.Kind != kind {
		return Statement{}, fmt.Errorf("%s %s: %w", kind, partyID, errs.ErrNotFound)
	}
	debitTag, creditTag := ledger.TagsFor(p.Kind)
	debits, credits, err := s.fetch(ctx, ownerID,
		ledger.RecordFilter{PartyID: &partyID, Kind: debitTag},
		ledger.RecordFilter{PartyID: &partyID, Kind: creditTag},
	)
	if err != nil {
		return Statement{}, err
	}
	st := Statement{Party: p}
	st.Balances = ledger.ComputeBalances(debits, credits, s.skipHook(ctx, ownerID, &st.Skipped))
	st.Timeline = ledger.BuildUnifiedTimeline(debits, credits, debitTag, creditTag)
	if st.Skipped == nil {
		st.Skipped = []ledger.Skipped{}
	}
	statementBuilds.WithLabelValues("statement").Inc()
	return st, nil
}

type grouped struct {
	debits  map[uuid.UUID][]ledger.Debit
	credits map[uuid.UUID][]ledger.Credit
}

func group(debits []ledger.Debit, credits []ledger.Credit) grouped {
	g := grouped{
		debits:  make(map[uuid.UUID][]ledger.Debit),
		credits: make(map[uuid.UUID][]ledger.Credit),
	}
	for _, d := range debits {
		g.debits[d.PartyID] = append(g.debits[d.PartyID], d)
	}
	for _, c := range credits {
		g.credits[c.PartyID] = append(g.credits[c.PartyID], c)
	}
	return g
}

func (s *service) balancesFor(ctx context.Context, ownerID uuid.UUID, parties []ledger.Party, g grouped) []PartyBalance {
	out := make([]PartyBalance, 0, len(parties))
	hook := s.skipHook(ctx, ownerID, nil)
	for _, p := range parties {
		out = append(out, PartyBalance{
			Party:    p,
			Balances: ledger.ComputeBalances(g.debits[p.ID], g.credits[p.ID], hook),
		})
	}
	return out
}

// PartyBalances returns balances for every party of kind, in the order the
// store lists parties.
func (s *service) PartyBalances(ctx context.Context, ownerID uuid.UUID, kind ledger.PartyKind) ([]PartyBalance, error) {
	if ownerID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	if !kind.Valid() {
		return nil, errs.Invalid("kind", "must be customer or supplier")
	}
	var parties []ledger.Party
	var debits []ledger.Debit
	var credits []ledger.Credit
	debitTag, creditTag := ledger.TagsFor(kind)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		parties, err = s.repo.ListParties(gCtx, ownerID, kind)
		return err
	})
	g.Go(func() error {
		var err error
		debits, credits, err = s.fetch(gCtx, ownerID,
			ledger.RecordFilter{Kind: debitTag},
			ledger.RecordFilter{Kind: creditTag},
		)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	statementBuilds.WithLabelValues("party_balances").Inc()
	return s.balancesFor(ctx, ownerID, parties, group(debits, credits)), nil
}

// Dashboard totals receivables and payables across all parties.
func (s *service) Dashboard(ctx context.Context, ownerID uuid.UUID) (Dashboard, error) {
	if ownerID == uuid.Nil {
		return Dashboard{}, errs.ErrInvalid
	}
	var parties []ledger.Party
	var debits []ledger.Debit
	var credits []ledger.Credit
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		parties, err = s.repo.ListParties(gCtx, ownerID, "")
		return err
	})
	g.Go(func() error {
		var err error
		debits, credits, err = s.fetch(gCtx, ownerID, ledger.RecordFilter{}, ledger.RecordFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Receivables: ledger.ComputeBalances(nil, nil),
		Payables:    ledger.ComputeBalances(nil, nil),
		Debits:      len(debits),
		Credits:     len(credits),
	}
	for _, pb := range s.balancesFor(ctx, ownerID, parties, group(debits, credits)) {
		switch pb.Party.Kind {
		case ledger.PartyCustomer:
			d.Customers++
			d.Receivables.Merge(pb.Balances)
		case ledger.PartySupplier:
			d.Suppliers++
			d.Payables.Merge(pb.Balances)
		}
	}
	statementBuilds.WithLabelValues("dashboard").Inc()
	return d, nil
}
