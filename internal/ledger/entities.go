package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/ermay/internal/meta"
)

// Currency is an ISO 4217 code. The back office works with a closed set
// (TRY, USD, EUR) but foreign codes are carried through untouched.
type Currency string

const (
	CurrencyTRY Currency = "TRY"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Currencies lists the supported currencies in display order.
var Currencies = []Currency{CurrencyTRY, CurrencyUSD, CurrencyEUR}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(s string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(s)))
}

// IsKnown reports whether c belongs to the supported set.
func (c Currency) IsKnown() bool {
	switch c {
	case CurrencyTRY, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// PartyKind distinguishes customers from suppliers.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
)

func (k PartyKind) Valid() bool { return k == PartyCustomer || k == PartySupplier }

// TransactionType tags a record in the unified feed.
type TransactionType string

const (
	TypeSale              TransactionType = "sale"
	TypePurchase          TransactionType = "purchase"
	TypePayment           TransactionType = "payment"
	TypePaymentToSupplier TransactionType = "paymentToSupplier"
)

// IsDebit reports whether records of this type increase what the party owes.
func (t TransactionType) IsDebit() bool { return t == TypeSale || t == TypePurchase }

// IsCredit reports whether records of this type reduce what the party owes.
func (t TransactionType) IsCredit() bool { return t == TypePayment || t == TypePaymentToSupplier }

// PartyKind returns the kind of party a record of this type belongs to.
func (t TransactionType) PartyKind() PartyKind {
	switch t {
	case TypeSale, TypePayment:
		return PartyCustomer
	case TypePurchase, TypePaymentToSupplier:
		return PartySupplier
	}
	return ""
}

// TagsFor returns the debit and credit tags used in a party's feed.
func TagsFor(k PartyKind) (debit, credit TransactionType) {
	if k == PartySupplier {
		return TypePurchase, TypePaymentToSupplier
	}
	return TypeSale, TypePayment
}

// PaymentMethod is how a credit record was settled.
type PaymentMethod string

const (
	MethodCash           PaymentMethod = "cash"
	MethodBankTransfer   PaymentMethod = "bank_transfer"
	MethodCreditCard     PaymentMethod = "credit_card"
	MethodCheck          PaymentMethod = "check"
	MethodPromissoryNote PaymentMethod = "promissory_note"
)

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []PaymentMethod{MethodCash, MethodBankTransfer, MethodCreditCard, MethodCheck, MethodPromissoryNote}

func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// Party is a customer or a supplier owned by one account.
type Party struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	Kind            PartyKind
	Name            string
	Phone           *string
	Email           *string
	Address         *string
	TaxOffice       *string
	TaxNumber       *string
	DefaultCurrency *Currency
	Metadata        meta.Metadata
	CreatedAt       time.Time
}

// LineItem is one row of a sale or purchase invoice.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit,omitempty"`
	UnitPrice   float64  `json:"unit_price"`
	VATRate     *float64 `json:"vat_rate,omitempty"`
}

// Total is quantity times unit price, before VAT.
func (li LineItem) Total() float64 { return li.Quantity * li.UnitPrice }

// Debit is a sale (customer) or a purchase (supplier). Amount is stored
// positive and increases what the party owes.
type Debit struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	PartyID     uuid.UUID
	Kind        TransactionType
	Date        string
	Amount      float64
	Currency    Currency
	Description string
	InvoiceNo   *string
	Items       []LineItem
	CreatedAt   time.Time
}

// CheckDetails describes a check or promissory note handed over as payment.
type CheckDetails struct {
	SerialNumber string  `json:"serial_number"`
	Bank         string  `json:"bank,omitempty"`
	Branch       string  `json:"branch,omitempty"`
	DueDate      string  `json:"due_date,omitempty"`
	ImageURL     *string `json:"image_url,omitempty"`
}

// TransferDetails describes a bank transfer.
type TransferDetails struct {
	Bank      string `json:"bank,omitempty"`
	IBAN      string `json:"iban,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Credit is a payment received from a customer or made to a supplier.
// Exactly the details matching Method may be set: Check for check and
// promissory_note, Transfer for bank_transfer, none otherwise.
type Credit struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	PartyID     uuid.UUID
	Kind        TransactionType
	Date        string
	Amount      float64
	Currency    Currency
	Method      PaymentMethod
	Description string
	Check       *CheckDetails
	Transfer    *TransferDetails
	CreatedAt   time.Time
}

// RecordFilter narrows record listings. Zero values match everything.
type RecordFilter struct {
	PartyID *uuid.UUID
	Kind    TransactionType
}

// Matches reports whether a record with the given party and kind passes the filter.
func (f RecordFilter) Matches(partyID uuid.UUID, kind TransactionType) bool {
	if f.PartyID != nil && *f.PartyID != partyID {
		return false
	}
	if f.Kind != "" && f.Kind != kind {
		return false
	}
	return true
}
