// Package journal implements the ledger writer: turning business events into
// balanced journal entries and reversing them when the source event goes away.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comptaflow/comptaflow/internal/chart"
	"github.com/comptaflow/comptaflow/internal/errs"
	"github.com/comptaflow/comptaflow/internal/ledger"
)

var entriesWritten = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "comptaflow",
		Name:      "journal_entries_written_total",
		Help:      "Journal entries persisted, by reference type",
	},
	[]string{"reference_type"},
)

// Repo defines read operations needed by the service.
type Repo interface {
	Company(ctx context.Context, companyID uuid.UUID) (ledger.Company, error)
	EntriesByReference(ctx context.Context, companyID uuid.UUID, referenceID string) ([]ledger.JournalEntry, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	// CreateEntries persists all entries of one event or none.
	CreateEntries(ctx context.Context, entries []ledger.JournalEntry) error
}

// Resolver maps semantic roles to chart accounts. Satisfied by chart.Service.
type Resolver interface {
	Resolve(ctx context.Context, companyID uuid.UUID, role ledger.Role) (ledger.Account, error)
}

// Service records and reverses business events.
type Service interface {
	// RecordEvent turns one event into its balanced entries and persists them
	// atomically. A missing role mapping aborts the whole event.
	RecordEvent(ctx context.Context, companyID uuid.UUID, ev ledger.Event) ([]ledger.JournalEntry, error)
	// ReverseEvent appends swapped entries for every original entry carrying
	// the reference. Unknown or already fully reversed references are a no-op.
	ReverseEvent(ctx context.Context, companyID uuid.UUID, referenceID string, date time.Time) ([]ledger.JournalEntry, error)
}

type service struct {
	repo     Repo
	writer   Writer
	resolver Resolver
}

func New(repo Repo, writer Writer, resolver Resolver) Service {
	return &service{repo: repo, writer: writer, resolver: resolver}
}

// leg is one debit/credit pair before account resolution.
type leg struct {
	debitRole  ledger.Role
	creditRole ledger.Role
	// explicit codes bypass role resolution (manual entries)
	debitCode   string
	creditCode  string
	amount      int64
	description string
}

func (s *service) RecordEvent(ctx context.Context, companyID uuid.UUID, ev ledger.Event) ([]ledger.JournalEntry, error) {
	if companyID == uuid.Nil || ev == nil {
		return nil, errs.ErrInvalid
	}
	company, err := s.repo.Company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	legs, err := eventLegs(ev)
	if err != nil {
		return nil, err
	}
	if len(legs) == 0 {
		// zero-amount event: nothing to post
		return nil, nil
	}
	tpl, err := chart.LoadTemplate(company.Country)
	if err != nil {
		return nil, err
	}
	jCode, jName := tpl.JournalFor(ev.ReferenceType())

	entries := make([]ledger.JournalEntry, 0, len(legs))
	for _, l := range legs {
		debit, credit := l.debitCode, l.creditCode
		if debit == "" {
			acc, err := s.resolver.Resolve(ctx, companyID, l.debitRole)
			if err != nil {
				return nil, err
			}
			debit = acc.Code
		}
		if credit == "" {
			acc, err := s.resolver.Resolve(ctx, companyID, l.creditRole)
			if err != nil {
				return nil, err
			}
			credit = acc.Code
		}
		if debit == credit {
			return nil, fmt.Errorf("debit and credit account are both %s: %w", debit, errs.ErrImbalancedEntry)
		}
		amt, err := money.NewAmountFromMinorUnits(company.Currency, l.amount)
		if err != nil {
			return nil, fmt.Errorf("amount: %w", errs.ErrInvalid)
		}
		entry := ledger.JournalEntry{
			ID:            uuid.New(),
			CompanyID:     companyID,
			Date:          ev.EventDate(),
			DebitCode:     debit,
			CreditCode:    credit,
			Amount:        amt,
			Description:   l.description,
			ReferenceType: ev.ReferenceType(),
			ReferenceID:   ev.ReferenceID(),
			JournalCode:   jCode,
			JournalName:   jName,
		}
		if mc, ok := ev.(ledger.MetadataCarrier); ok {
			entry.Metadata = mc.Meta().Clone()
		}
		entries = append(entries, entry)
	}
	if err := s.writer.CreateEntries(ctx, entries); err != nil {
		return nil, err
	}
	entriesWritten.WithLabelValues(string(ev.ReferenceType())).Add(float64(len(entries)))
	return entries, nil
}

// eventLegs maps each event variant to its debit/credit pairs. Amounts must
// already be rounded to minor units; every leg is positive.
func eventLegs(ev ledger.Event) ([]leg, error) {
	switch e := ev.(type) {
	case ledger.InvoiceIssued:
		if e.TotalHT < 0 || e.TotalTTC < e.TotalHT {
			return nil, fmt.Errorf("invoice totals: %w", errs.ErrInvalid)
		}
		if e.TotalTTC == 0 {
			return nil, nil
		}
		legs := []leg{{
			debitRole:   ledger.RoleReceivable,
			creditRole:  ledger.RoleSales,
			amount:      e.TotalHT,
			description: invoiceLabel(e, "Invoice "),
		}}
		if vat := e.TotalTTC - e.TotalHT; vat > 0 {
			legs = append(legs, leg{
				debitRole:   ledger.RoleReceivable,
				creditRole:  ledger.RoleVATOutput,
				amount:      vat,
				description: invoiceLabel(e, "VAT on invoice "),
			})
		}
		return legs, nil
	case ledger.PaymentReceived:
		if e.Amount < 0 {
			return nil, fmt.Errorf("payment amount: %w", errs.ErrInvalid)
		}
		if e.Amount == 0 {
			return nil, nil
		}
		desc := "Payment received"
		if e.Payer != "" {
			desc += " from " + e.Payer
		}
		return []leg{{debitRole: ledger.RoleBank, creditRole: ledger.RoleReceivable, amount: e.Amount, description: desc}}, nil
	case ledger.ExpenseRecorded:
		if e.Amount < 0 {
			return nil, fmt.Errorf("expense amount: %w", errs.ErrInvalid)
		}
		if e.Amount == 0 {
			return nil, nil
		}
		desc := e.Description
		if desc == "" {
			desc = "Expense"
		}
		return []leg{{debitRole: ledger.RoleExpense, creditRole: ledger.RoleBank, amount: e.Amount, description: desc}}, nil
	case ledger.SupplierInvoiceReceived:
		if e.Amount < 0 {
			return nil, fmt.Errorf("supplier invoice amount: %w", errs.ErrInvalid)
		}
		if e.Amount == 0 {
			return nil, nil
		}
		desc := "Supplier invoice"
		if e.SupplierName != "" {
			desc += " " + e.SupplierName
		}
		return []leg{{debitRole: ledger.RoleExpense, creditRole: ledger.RolePayable, amount: e.Amount, description: desc}}, nil
	case ledger.OpeningBalance:
		if e.Amount < 0 {
			return nil, fmt.Errorf("opening balance amount: %w", errs.ErrInvalid)
		}
		if e.Amount == 0 {
			return nil, nil
		}
		return []leg{{debitRole: ledger.RoleBank, creditRole: ledger.RoleEquity, amount: e.Amount, description: "Opening balance"}}, nil
	case ledger.ManualEntry:
		if e.Amount <= 0 || e.DebitCode == "" || e.CreditCode == "" {
			return nil, fmt.Errorf("manual entry: %w", errs.ErrInvalid)
		}
		desc := e.Description
		if desc == "" {
			desc = "Manual entry"
		}
		return []leg{{debitCode: e.DebitCode, creditCode: e.CreditCode, amount: e.Amount, description: desc}}, nil
	default:
		return nil, fmt.Errorf("unknown event type %T: %w", ev, errs.ErrInvalid)
	}
}

func invoiceLabel(e ledger.InvoiceIssued, prefix string) string {
	label := prefix + e.Ref
	if e.ClientName != "" {
		label += " (" + e.ClientName + ")"
	}
	return label
}

func (s *service) ReverseEvent(ctx context.Context, companyID uuid.UUID, referenceID string, date time.Time) ([]ledger.JournalEntry, error) {
	if companyID == uuid.Nil || referenceID == "" {
		return nil, errs.ErrInvalid
	}
	existing, err := s.repo.EntriesByReference(ctx, companyID, referenceID)
	if err != nil {
		return nil, err
	}
	var originals []ledger.JournalEntry
	reversals := 0
	for _, e := range existing {
		if e.ReferenceType == ledger.RefReversal {
			reversals++
			continue
		}
		originals = append(originals, e)
	}
	// Unknown reference or already fully reversed: a no-op, not an error. The
	// original may have been a zero-amount event or reversed before.
	if len(originals) == 0 || reversals >= len(originals) {
		return nil, nil
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	out := make([]ledger.JournalEntry, 0, len(originals))
	for _, orig := range originals {
		out = append(out, ledger.JournalEntry{
			ID:            uuid.New(),
			CompanyID:     companyID,
			Date:          date,
			DebitCode:     orig.CreditCode,
			CreditCode:    orig.DebitCode,
			Amount:        orig.Amount,
			Description:   "Reversal of " + orig.Description,
			ReferenceType: ledger.RefReversal,
			ReferenceID:   referenceID,
			JournalCode:   orig.JournalCode,
			JournalName:   orig.JournalName,
		})
	}
	if err := s.writer.CreateEntries(ctx, out); err != nil {
		return nil, err
	}
	entriesWritten.WithLabelValues(string(ledger.RefReversal)).Add(float64(len(out)))
	return out, nil
}
