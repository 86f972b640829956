// Package report implements read-only aggregation over the entry store:
// trial balance, tax summary and filtered entry listings. Results are always
// recomputed from the full entry set; nothing is cached.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/comptaflow/comptaflow/internal/errs"
	"github.com/comptaflow/comptaflow/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	Company(ctx context.Context, companyID uuid.UUID) (ledger.Company, error)
	AccountsByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.Account, error)
	EntriesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.JournalEntry, error)
	InvoicesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.Invoice, error)
	ExpensesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.Expense, error)
}

// TrialBalanceLine is the per-account aggregation. Amounts are minor units.
type TrialBalanceLine struct {
	AccountCode string
	AccountName string
	TotalDebit  int64
	TotalCredit int64
	Balance     int64 // TotalDebit - TotalCredit
}

// TrialBalance is the derived, never-persisted balance report as of a date.
type TrialBalance struct {
	AsOf        time.Time
	Lines       []TrialBalanceLine
	TotalDebit  int64
	TotalCredit int64
	// Balanced is the primary correctness self-check: false indicates a bug in
	// the ledger writer and must be surfaced, never silently accepted.
	Balanced bool
}

// TaxSummary aggregates VAT over a period. Amounts are minor units.
type TaxSummary struct {
	Start     time.Time
	End       time.Time
	OutputVAT int64
	// EstimatedInputVAT is an estimate: expense records carry no verified tax
	// breakdown, so input VAT is derived from total expenses and the company's
	// default VAT rate (expenses * rate/(100+rate)).
	EstimatedInputVAT int64
	VATPayable        int64
	RevenueHT         int64
	TotalExpenses     int64
}

// EntryFilter narrows Entries results.
type EntryFilter struct {
	From          *time.Time
	To            *time.Time
	ReferenceType ledger.ReferenceType
	AccountCode   string
	Limit         int
}

// Service exposes the aggregation queries.
type Service interface {
	TrialBalance(ctx context.Context, companyID uuid.UUID, asOf time.Time) (TrialBalance, error)
	TaxSummary(ctx context.Context, companyID uuid.UUID, start, end time.Time) (TaxSummary, error)
	Entries(ctx context.Context, companyID uuid.UUID, f EntryFilter) ([]ledger.JournalEntry, error)
}

type service struct {
	repo Repo
}

func New(repo Repo) Service { return &service{repo: repo} }

func (s *service) TrialBalance(ctx context.Context, companyID uuid.UUID, asOf time.Time) (TrialBalance, error) {
	if companyID == uuid.Nil {
		return TrialBalance{}, errs.ErrInvalid
	}
	entries, err := s.repo.EntriesByCompany(ctx, companyID)
	if err != nil {
		return TrialBalance{}, err
	}
	accounts, err := s.repo.AccountsByCompany(ctx, companyID)
	if err != nil {
		return TrialBalance{}, err
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.Code] = a.Name
	}

	type sums struct{ debit, credit int64 }
	perAccount := make(map[string]*sums)
	add := func(code string) *sums {
		s, ok := perAccount[code]
		if !ok {
			s = &sums{}
			perAccount[code] = s
		}
		return s
	}
	var totalDebit, totalCredit int64
	for _, e := range entries {
		if !asOf.IsZero() && e.Date.After(asOf) {
			continue
		}
		units, _ := e.Amount.MinorUnits()
		add(e.DebitCode).debit += units
		add(e.CreditCode).credit += units
		totalDebit += units
		totalCredit += units
	}

	lines := make([]TrialBalanceLine, 0, len(perAccount))
	for code, s := range perAccount {
		lines = append(lines, TrialBalanceLine{
			AccountCode: code,
			AccountName: names[code],
			TotalDebit:  s.debit,
			TotalCredit: s.credit,
			Balance:     s.debit - s.credit,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].AccountCode < lines[j].AccountCode })

	diff := totalDebit - totalCredit
	if diff < 0 {
		diff = -diff
	}
	return TrialBalance{
		AsOf:        asOf,
		Lines:       lines,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Balanced:    diff < 1, // strict equality in minor units
	}, nil
}

func (s *service) TaxSummary(ctx context.Context, companyID uuid.UUID, start, end time.Time) (TaxSummary, error) {
	if companyID == uuid.Nil {
		return TaxSummary{}, errs.ErrInvalid
	}
	company, err := s.repo.Company(ctx, companyID)
	if err != nil {
		return TaxSummary{}, err
	}
	invoices, err := s.repo.InvoicesByCompany(ctx, companyID)
	if err != nil {
		return TaxSummary{}, err
	}
	expenses, err := s.repo.ExpensesByCompany(ctx, companyID)
	if err != nil {
		return TaxSummary{}, err
	}

	out := TaxSummary{Start: start, End: end}
	for _, inv := range invoices {
		if outside(inv.Date, start, end) {
			continue
		}
		// Output VAT is definitionally exact: TTC - HT per invoice.
		out.OutputVAT += inv.TotalTTC - inv.TotalHT
		out.RevenueHT += inv.TotalHT
	}
	for _, exp := range expenses {
		if outside(exp.Date, start, end) {
			continue
		}
		out.TotalExpenses += exp.Amount
	}
	out.EstimatedInputVAT = estimateInputVAT(out.TotalExpenses, company.DefaultVATRate)
	out.VATPayable = out.OutputVAT - out.EstimatedInputVAT
	return out, nil
}

// estimateInputVAT computes expenses * rate/(100+rate) in minor units,
// rounded half-even. Returns 0 for a zero or unusable rate.
func estimateInputVAT(expensesMinor int64, rate decimal.Decimal) int64 {
	if expensesMinor == 0 || rate.IsZero() || rate.IsNeg() {
		return 0
	}
	total, err := decimal.New(expensesMinor, 0)
	if err != nil {
		return 0
	}
	hundred := decimal.MustNew(100, 0)
	den, err := hundred.Add(rate)
	if err != nil {
		return 0
	}
	num, err := total.Mul(rate)
	if err != nil {
		return 0
	}
	q, err := num.Quo(den)
	if err != nil {
		return 0
	}
	v, _, ok := q.Round(0).Int64(0)
	if !ok {
		return 0
	}
	return v
}

func (s *service) Entries(ctx context.Context, companyID uuid.UUID, f EntryFilter) ([]ledger.JournalEntry, error) {
	if companyID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	entries, err := s.repo.EntriesByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		if f.ReferenceType != "" && e.ReferenceType != f.ReferenceType {
			continue
		}
		if f.AccountCode != "" && e.DebitCode != f.AccountCode && e.CreditCode != f.AccountCode {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func outside(d, start, end time.Time) bool {
	if !start.IsZero() && d.Before(start) {
		return true
	}
	if !end.IsZero() && d.After(end) {
		return true
	}
	return false
}
