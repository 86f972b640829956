package ledger

import (
	"time"

	"github.com/comptaflow/comptaflow/internal/meta"
)

// Event is the tagged union of business events the ledger writer can record.
// Each variant declares its own required fields; the writer resolves them
// exhaustively, so an unknown variant is a programming error, not a runtime
// fallback.
type Event interface {
	// ReferenceType labels the entries produced from this event.
	ReferenceType() ReferenceType
	// ReferenceID identifies the source record; reversal looks entries up by it.
	ReferenceID() string
	// EventDate is the accounting date of the entries.
	EventDate() time.Time
}

// InvoiceIssued posts a client invoice: receivable against sales for the HT
// amount plus a receivable-against-VAT-output leg when TotalTTC > TotalHT.
type InvoiceIssued struct {
	Ref        string
	Date       time.Time
	ClientName string
	TotalHT    int64 // minor units
	TotalTTC   int64 // minor units
}

func (e InvoiceIssued) ReferenceType() ReferenceType { return RefInvoice }
func (e InvoiceIssued) ReferenceID() string          { return e.Ref }
func (e InvoiceIssued) EventDate() time.Time         { return e.Date }

// PaymentReceived posts a client payment: bank against receivable.
type PaymentReceived struct {
	Ref    string
	Date   time.Time
	Payer  string
	Amount int64 // minor units
}

func (e PaymentReceived) ReferenceType() ReferenceType { return RefPayment }
func (e PaymentReceived) ReferenceID() string          { return e.Ref }
func (e PaymentReceived) EventDate() time.Time         { return e.Date }

// ExpenseRecorded posts an expense paid from the bank account.
type ExpenseRecorded struct {
	Ref         string
	Date        time.Time
	Description string
	Amount      int64 // minor units
}

func (e ExpenseRecorded) ReferenceType() ReferenceType { return RefExpense }
func (e ExpenseRecorded) ReferenceID() string          { return e.Ref }
func (e ExpenseRecorded) EventDate() time.Time         { return e.Date }

// SupplierInvoiceReceived posts a supplier invoice: expense against payable.
type SupplierInvoiceReceived struct {
	Ref          string
	Date         time.Time
	SupplierName string
	Amount       int64 // minor units
}

func (e SupplierInvoiceReceived) ReferenceType() ReferenceType { return RefSupplierInvoice }
func (e SupplierInvoiceReceived) ReferenceID() string          { return e.Ref }
func (e SupplierInvoiceReceived) EventDate() time.Time         { return e.Date }

// OpeningBalance seeds the bank account against equity.
type OpeningBalance struct {
	Ref    string
	Date   time.Time
	Amount int64 // minor units
}

func (e OpeningBalance) ReferenceType() ReferenceType { return RefOpeningBalance }
func (e OpeningBalance) ReferenceID() string          { return e.Ref }
func (e OpeningBalance) EventDate() time.Time         { return e.Date }

// MetadataCarrier is implemented by events that attach caller-supplied
// metadata to the entries they produce.
type MetadataCarrier interface {
	Meta() meta.Metadata
}

// ManualEntry posts a user-specified debit/credit pair. Codes must exist in
// the company's chart.
type ManualEntry struct {
	Ref         string
	Date        time.Time
	DebitCode   string
	CreditCode  string
	Amount      int64 // minor units
	Description string
	Metadata    meta.Metadata
}

func (e ManualEntry) ReferenceType() ReferenceType { return RefManual }
func (e ManualEntry) ReferenceID() string          { return e.Ref }
func (e ManualEntry) EventDate() time.Time         { return e.Date }
func (e ManualEntry) Meta() meta.Metadata          { return e.Metadata }
