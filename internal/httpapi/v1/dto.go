package v1

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/ermay/internal/dictionary"
	"github.com/tinoosan/ermay/internal/ledger"
	"github.com/tinoosan/ermay/internal/meta"
	"github.com/tinoosan/ermay/internal/service/statement"
)

// Parties

type partyRequest struct {
	Name            string            `json:"name"`
	Phone           *string           `json:"phone,omitempty"`
	Email           *string           `json:"email,omitempty"`
	Address         *string           `json:"address,omitempty"`
	TaxOffice       *string           `json:"tax_office,omitempty"`
	TaxNumber       *string           `json:"tax_number,omitempty"`
	DefaultCurrency *string           `json:"default_currency,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// partyPatch leaves nil fields untouched. An empty metadata value deletes the key.
type partyPatch struct {
	Name            *string           `json:"name"`
	Phone           *string           `json:"phone"`
	Email           *string           `json:"email"`
	Address         *string           `json:"address"`
	TaxOffice       *string           `json:"tax_office"`
	TaxNumber       *string           `json:"tax_number"`
	DefaultCurrency *string           `json:"default_currency"`
	Metadata        map[string]string `json:"metadata"`
}

type partyResponse struct {
	ID              uuid.UUID        `json:"id"`
	OwnerID         uuid.UUID        `json:"owner_id"`
	Kind            ledger.PartyKind `json:"kind"`
	Name            string           `json:"name"`
	Phone           *string          `json:"phone,omitempty"`
	Email           *string          `json:"email,omitempty"`
	Address         *string          `json:"address,omitempty"`
	TaxOffice       *string          `json:"tax_office,omitempty"`
	TaxNumber       *string          `json:"tax_number,omitempty"`
	DefaultCurrency *ledger.Currency `json:"default_currency,omitempty"`
	Metadata        meta.Metadata    `json:"metadata"`
	CreatedAt       time.Time        `json:"created_at"`
}

func currencyPtr(s *string) *ledger.Currency {
	if s == nil || *s == "" {
		return nil
	}
	c := ledger.NormalizeCurrency(*s)
	return &c
}

func toPartyDomain(owner uuid.UUID, kind ledger.PartyKind, req partyRequest) ledger.Party {
	return ledger.Party{
		OwnerID:         owner,
		Kind:            kind,
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		Address:         req.Address,
		TaxOffice:       req.TaxOffice,
		TaxNumber:       req.TaxNumber,
		DefaultCurrency: currencyPtr(req.DefaultCurrency),
		Metadata:        meta.New(req.Metadata),
	}
}

// apply copies the set fields of patch onto p.
func (patch partyPatch) apply(p ledger.Party) ledger.Party {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Phone != nil {
		p.Phone = patch.Phone
	}
	if patch.Email != nil {
		p.Email = patch.Email
	}
	if patch.Address != nil {
		p.Address = patch.Address
	}
	if patch.TaxOffice != nil {
		p.TaxOffice = patch.TaxOffice
	}
	if patch.TaxNumber != nil {
		p.TaxNumber = patch.TaxNumber
	}
	if patch.DefaultCurrency != nil {
		p.DefaultCurrency = currencyPtr(patch.DefaultCurrency)
	}
	if patch.Metadata != nil {
		md := p.Metadata.Clone()
		md.Merge(meta.New(patch.Metadata))
		p.Metadata = md
	}
	return p
}

func toPartyResponse(p ledger.Party) partyResponse {
	md := p.Metadata
	if md == nil {
		md = meta.Metadata{}
	}
	return partyResponse{
		ID: p.ID, OwnerID: p.OwnerID, Kind: p.Kind, Name: p.Name,
		Phone: p.Phone, Email: p.Email, Address: p.Address,
		TaxOffice: p.TaxOffice, TaxNumber: p.TaxNumber,
		DefaultCurrency: p.DefaultCurrency, Metadata: md, CreatedAt: p.CreatedAt,
	}
}

// Balances

// balanceLine carries the exact balance as a JSON number literal.
type balanceLine struct {
	Currency  ledger.Currency `json:"currency"`
	Amount    json.Number     `json:"amount"`
	Formatted string          `json:"formatted"`
}

// toBalanceLines renders balances in display order: supported currencies
// first, then any foreign codes.
func toBalanceLines(b ledger.Balances) []balanceLine {
	out := make([]balanceLine, 0, len(b))
	for _, c := range b.Currencies() {
		v := b.Get(c)
		out = append(out, balanceLine{Currency: c, Amount: json.Number(v.String()), Formatted: ledger.FormatAmount(v, c)})
	}
	return out
}

type partyBalanceResponse struct {
	Party    partyResponse `json:"party"`
	Balances []balanceLine `json:"balances"`
}

// Records

type debitRequest struct {
	PartyID     uuid.UUID         `json:"party_id"`
	Date        string            `json:"date"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Description string            `json:"description,omitempty"`
	InvoiceNo   *string           `json:"invoice_no,omitempty"`
	Items       []ledger.LineItem `json:"items,omitempty"`
}

type creditRequest struct {
	PartyID     uuid.UUID               `json:"party_id"`
	Date        string                  `json:"date"`
	Amount      float64                 `json:"amount"`
	Currency    string                  `json:"currency,omitempty"`
	Method      ledger.PaymentMethod    `json:"method,omitempty"`
	Description string                  `json:"description,omitempty"`
	Check       *ledger.CheckDetails    `json:"check,omitempty"`
	Transfer    *ledger.TransferDetails `json:"transfer,omitempty"`
}

// amountValue hides non-finite stored amounts, which JSON cannot encode.
func amountValue(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

type debitResponse struct {
	ID          uuid.UUID              `json:"id"`
	OwnerID     uuid.UUID              `json:"owner_id"`
	PartyID     uuid.UUID              `json:"party_id"`
	Type        ledger.TransactionType `json:"type"`
	Date        string                 `json:"date"`
	Amount      *float64               `json:"amount"`
	Currency    ledger.Currency        `json:"currency"`
	Formatted   string                 `json:"formatted"`
	Description string                 `json:"description"`
	InvoiceNo   *string                `json:"invoice_no,omitempty"`
	Items       []ledger.LineItem      `json:"items"`
	CreatedAt   time.Time              `json:"created_at"`
}

type creditResponse struct {
	ID          uuid.UUID               `json:"id"`
	OwnerID     uuid.UUID               `json:"owner_id"`
	PartyID     uuid.UUID               `json:"party_id"`
	Type        ledger.TransactionType  `json:"type"`
	Date        string                  `json:"date"`
	Amount      *float64                `json:"amount"`
	Currency    ledger.Currency         `json:"currency"`
	Formatted   string                  `json:"formatted"`
	Method      ledger.PaymentMethod    `json:"method"`
	MethodLabel string                  `json:"method_label"`
	Description string                  `json:"description"`
	Check       *ledger.CheckDetails    `json:"check,omitempty"`
	Transfer    *ledger.TransferDetails `json:"transfer,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

func toDebitDomain(owner uuid.UUID, kind ledger.TransactionType, req debitRequest) ledger.Debit {
	return ledger.Debit{
		OwnerID:     owner,
		PartyID:     req.PartyID,
		Kind:        kind,
		Date:        req.Date,
		Amount:      req.Amount,
		Currency:    ledger.NormalizeCurrency(req.Currency),
		Description: req.Description,
		InvoiceNo:   req.InvoiceNo,
		Items:       req.Items,
	}
}

func toCreditDomain(owner uuid.UUID, kind ledger.TransactionType, req creditRequest) ledger.Credit {
	return ledger.Credit{
		OwnerID:     owner,
		PartyID:     req.PartyID,
		Kind:        kind,
		Date:        req.Date,
		Amount:      req.Amount,
		Currency:    ledger.NormalizeCurrency(req.Currency),
		Method:      req.Method,
		Description: req.Description,
		Check:       req.Check,
		Transfer:    req.Transfer,
	}
}

func toDebitResponse(d ledger.Debit) debitResponse {
	items := d.Items
	if items == nil {
		items = []ledger.LineItem{}
	}
	return debitResponse{
		ID: d.ID, OwnerID: d.OwnerID, PartyID: d.PartyID, Type: d.Kind,
		Date: d.Date, Amount: amountValue(d.Amount), Currency: d.Currency,
		Formatted:   ledger.FormatFloat(d.Amount, d.Currency),
		Description: d.Description, InvoiceNo: d.InvoiceNo, Items: items, CreatedAt: d.CreatedAt,
	}
}

func toCreditResponse(c ledger.Credit) creditResponse {
	return creditResponse{
		ID: c.ID, OwnerID: c.OwnerID, PartyID: c.PartyID, Type: c.Kind,
		Date: c.Date, Amount: amountValue(c.Amount), Currency: c.Currency,
		Formatted: ledger.FormatFloat(c.Amount, c.Currency),
		Method:    c.Method, MethodLabel: dictionary.MethodLabel(c.Method),
		Description: c.Description, Check: c.Check, Transfer: c.Transfer, CreatedAt: c.CreatedAt,
	}
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

// Statement

type timelineItem struct {
	Type   ledger.TransactionType `json:"type"`
	Debit  *debitResponse         `json:"debit,omitempty"`
	Credit *creditResponse        `json:"credit,omitempty"`
}

type skippedRecord struct {
	ID     uuid.UUID              `json:"id"`
	Type   ledger.TransactionType `json:"type"`
	Reason ledger.SkipReason      `json:"reason"`
}

type statementResponse struct {
	Party    partyResponse   `json:"party"`
	Balances []balanceLine   `json:"balances"`
	Timeline []timelineItem  `json:"timeline"`
	Skipped  []skippedRecord `json:"skipped"`
}

func toStatementResponse(st statement.Statement) statementResponse {
	out := statementResponse{
		Party:    toPartyResponse(st.Party),
		Balances: toBalanceLines(st.Balances),
		Timeline: make([]timelineItem, 0, len(st.Timeline)),
		Skipped:  make([]skippedRecord, 0, len(st.Skipped)),
	}
	for _, u := range st.Timeline {
		item := timelineItem{Type: u.Type}
		if u.Debit != nil {
			d := toDebitResponse(*u.Debit)
			item.Debit = &d
		} else if u.Credit != nil {
			c := toCreditResponse(*u.Credit)
			item.Credit = &c
		}
		out.Timeline = append(out.Timeline, item)
	}
	for _, sk := range st.Skipped {
		out.Skipped = append(out.Skipped, skippedRecord{ID: sk.ID, Type: sk.Kind, Reason: sk.Reason})
	}
	return out
}

type dashboardResponse struct {
	Receivables []balanceLine `json:"receivables"`
	Payables    []balanceLine `json:"payables"`
	Customers   int           `json:"customers"`
	Suppliers   int           `json:"suppliers"`
	Debits      int           `json:"debits"`
	Credits     int           `json:"credits"`
}
