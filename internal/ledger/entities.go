package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/comptaflow/comptaflow/internal/meta"
)

// Country selects the chart-of-accounts template used at initialization.
type Country string

const (
	CountryFR    Country = "FR"
	CountryBE    Country = "BE"
	CountryOHADA Country = "OHADA"
)

// AccountCategory enumerates the broad classification of a ledger account.
type AccountCategory string

const (
	// CategoryAsset increases on the debit side and holds resources owned by the company.
	CategoryAsset AccountCategory = "asset"
	// CategoryLiability increases on the credit side and tracks obligations.
	CategoryLiability AccountCategory = "liability"
	// CategoryEquity captures the owners' residual interest in the company.
	CategoryEquity AccountCategory = "equity"
	// CategoryRevenue represents inflows that increase equity.
	CategoryRevenue AccountCategory = "revenue"
	// CategoryExpense represents outflows that decrease equity.
	CategoryExpense AccountCategory = "expense"
)

// Role names the semantic function an account serves in posting logic.
// The ledger writer resolves roles to account codes through the chart
// registry instead of hardcoding country-specific codes.
type Role string

const (
	RoleBank       Role = "bank"
	RoleReceivable Role = "receivable"
	RolePayable    Role = "payable"
	RoleEquity     Role = "equity"
	RoleLoan       Role = "loan"
	RoleFixedAsset Role = "fixed_asset"
	RoleVATOutput  Role = "vat_output"
	RoleVATInput   Role = "vat_input"
	RoleSales      Role = "sales"
	RoleExpense    Role = "expense"
)

// Company is the tenant. All ledger data is scoped to one company.
type Company struct {
	ID       uuid.UUID
	Name     string
	Country  Country
	Currency string
	// DefaultVATRate is a percentage (e.g. 20 for 20%). It is used only to
	// estimate input VAT from expense totals; see report.TaxSummary.
	DefaultVATRate decimal.Decimal
	// SIRET/VAT identifiers carried into compliance exports.
	SIRET  string
	VATNum string
}

// Account is one line of the company's chart of accounts.
// Immutable once referenced by a journal entry.
type Account struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Code      string
	Name      string
	Category  AccountCategory
	// Role is set for accounts created from a country template; empty for
	// user-defined accounts.
	Role Role
}

// ReferenceType labels the business event a journal entry was derived from.
type ReferenceType string

const (
	RefInvoice         ReferenceType = "invoice"
	RefPayment         ReferenceType = "payment"
	RefExpense         ReferenceType = "expense"
	RefSupplierInvoice ReferenceType = "supplier_invoice"
	RefOpeningBalance  ReferenceType = "opening_balance"
	RefManual          ReferenceType = "manual"
	RefReversal        ReferenceType = "reversal"
)

// JournalEntry is one balanced debit/credit pair. Entries are append-only:
// cancellation of the source event appends a swapped reversal entry and never
// mutates or deletes the original row.
type JournalEntry struct {
	ID            uuid.UUID
	CompanyID     uuid.UUID
	Date          time.Time
	DebitCode     string
	CreditCode    string
	Amount        money.Amount // always positive
	Description   string
	ReferenceType ReferenceType
	// ReferenceID points at the source business record. Weak reference: the
	// source may be deleted; the entry stays and a reversal is appended.
	ReferenceID string
	JournalCode string
	JournalName string
	Metadata    meta.Metadata `json:"metadata,omitempty"`
}

// Invoice is the projection of a client invoice the core consumes.
// Amounts are minor units of the company currency.
type Invoice struct {
	ID         uuid.UUID
	CompanyID  uuid.UUID
	Reference  string
	ClientName string
	Date       time.Time
	TotalHT    int64
	TotalTTC   int64
	Status     string
}

// Expense is the projection of a recorded expense. Amount is positive minor units.
type Expense struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Description string
	Date        time.Time
	Amount      int64
	Category    string
}

// SupplierInvoice is the projection of a received supplier invoice.
// Amount is positive minor units.
type SupplierInvoice struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	SupplierName string
	Reference    string
	Date         time.Time
	Amount       int64
}
