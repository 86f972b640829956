package ledger

import (
	"time"

	"github.com/google/uuid"
)

// ParseStatus tracks the import lifecycle of a bank statement.
type ParseStatus string

const (
	ParsePending   ParseStatus = "pending"
	ParseParsed    ParseStatus = "parsed"
	ParseConfirmed ParseStatus = "confirmed"
	ParseError     ParseStatus = "error"
)

// LineStatus is the per-line reconciliation state.
// Transitions: unmatched -> matched, unmatched -> ignored, and matched or
// ignored -> unmatched. There is no terminal state; ignored -> matched must
// pass through unmatched.
type LineStatus string

const (
	LineUnmatched LineStatus = "unmatched"
	LineMatched   LineStatus = "matched"
	LineIgnored   LineStatus = "ignored"
)

// SourceType labels the record a statement line was matched against.
type SourceType string

const (
	SourceInvoice         SourceType = "invoice"
	SourceExpense         SourceType = "expense"
	SourceSupplierInvoice SourceType = "supplier_invoice"
	SourceManual          SourceType = "manual"
)

// MatchedBy records whether a match was made by the auto-matcher or a user.
type MatchedBy string

const (
	MatchedAuto   MatchedBy = "auto"
	MatchedManual MatchedBy = "manual"
)

// BankStatement is an imported statement. Its lines are created once at
// import time and never re-parsed in place.
type BankStatement struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	BankName       string
	AccountNumber  string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	OpeningBalance int64 // minor units
	ClosingBalance int64 // minor units
	ParseStatus    ParseStatus
	LineCount      int
}

// BankStatementLine is one transaction of a statement. Amount is signed minor
// units: positive = credit/inflow, negative = debit/outflow.
type BankStatementLine struct {
	ID          uuid.UUID
	StatementID uuid.UUID
	LineNumber  int
	Date        time.Time
	Description string
	Amount      int64
	Status      LineStatus
	// MatchedSourceID is a weak reference to the matched record, re-resolved
	// at display time.
	MatchedSourceType SourceType
	MatchedSourceID   string
	MatchedBy         MatchedBy
}

// CanTransition reports whether the line lifecycle allows from -> to.
func CanTransition(from, to LineStatus) bool {
	switch from {
	case LineUnmatched:
		return to == LineMatched || to == LineIgnored
	case LineMatched, LineIgnored:
		return to == LineUnmatched
	}
	return false
}

// CandidateTransaction is the normalized, comparable projection of an
// invoice, expense or supplier invoice used only for matching. It is derived
// on every pass from the live source records, never cached.
type CandidateTransaction struct {
	ID          string
	SourceType  SourceType
	Date        time.Time
	Amount      int64 // signed minor units: invoices positive, outflows negative
	Description string
}
