// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing a
// real DB to be plugged in behind the same interfaces.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/errs"
	"github.com/comptaflow/comptaflow/internal/ledger"
)

// entryKey tracks ordering for entries per company: sorted asc by (Date, ID).
type entryKey struct {
	Date time.Time
	ID   uuid.UUID
}

// Store is an in-memory implementation of every repository and writer used by
// the services. It is guarded by an RWMutex for concurrent reads/writes; the
// write lock is also the per-tenant serialization point for ledger writes.
type Store struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]ledger.Company
	accounts  map[uuid.UUID]ledger.Account
	entries   map[uuid.UUID]*ledger.JournalEntry
	// Per-company sorted index of entries for ordered scans.
	entryKeysByCompany map[uuid.UUID][]entryKey
	invoices           map[uuid.UUID]ledger.Invoice
	expenses           map[uuid.UUID]ledger.Expense
	supplierInvoices   map[uuid.UUID]ledger.SupplierInvoice
	statements         map[uuid.UUID]ledger.BankStatement
	lines              map[uuid.UUID]ledger.BankStatementLine
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		companies:          make(map[uuid.UUID]ledger.Company),
		accounts:           make(map[uuid.UUID]ledger.Account),
		entries:            make(map[uuid.UUID]*ledger.JournalEntry),
		entryKeysByCompany: make(map[uuid.UUID][]entryKey),
		invoices:           make(map[uuid.UUID]ledger.Invoice),
		expenses:           make(map[uuid.UUID]ledger.Expense),
		supplierInvoices:   make(map[uuid.UUID]ledger.SupplierInvoice),
		statements:         make(map[uuid.UUID]ledger.BankStatement),
		lines:              make(map[uuid.UUID]ledger.BankStatementLine),
	}
}

// --- Companies ---

func (s *Store) CreateCompany(_ context.Context, c ledger.Company) (ledger.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = c
	return c, nil
}

func (s *Store) Company(_ context.Context, companyID uuid.UUID) (ledger.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[companyID]
	if !ok {
		return ledger.Company{}, errs.ErrNotFound
	}
	return c, nil
}

// --- Accounts ---

// CreateAccounts persists all accounts or none.
func (s *Store) CreateAccounts(_ context.Context, accounts []ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		if _, ok := s.accounts[a.ID]; ok {
			return errs.ErrConflict
		}
	}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return nil
}

func (s *Store) AccountsByCompany(_ context.Context, companyID uuid.UUID) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// --- Journal entries ---

// CreateEntries persists all entries of one event or none.
func (s *Store) CreateEntries(_ context.Context, entries []ledger.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, ok := s.entries[e.ID]; ok {
			return errs.ErrConflict
		}
	}
	for _, e := range entries {
		e := e
		s.entries[e.ID] = &e
		s.insertEntryIndexLocked(e.CompanyID, entryKey{Date: e.Date, ID: e.ID})
	}
	return nil
}

// EntriesByCompany returns all entries for a company ordered by (date, id).
func (s *Store) EntriesByCompany(_ context.Context, companyID uuid.UUID) ([]ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.entryKeysByCompany[companyID]
	out := make([]ledger.JournalEntry, 0, len(keys))
	for _, k := range keys {
		if e, ok := s.entries[k.ID]; ok && e.CompanyID == companyID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *Store) EntriesByReference(_ context.Context, companyID uuid.UUID, referenceID string) ([]ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.entryKeysByCompany[companyID]
	out := make([]ledger.JournalEntry, 0)
	for _, k := range keys {
		if e, ok := s.entries[k.ID]; ok && e.CompanyID == companyID && e.ReferenceID == referenceID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// --- Invoices / expenses / supplier invoices ---

func (s *Store) CreateInvoice(_ context.Context, inv ledger.Invoice) (ledger.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = inv
	return inv, nil
}

func (s *Store) Invoice(_ context.Context, companyID, invoiceID uuid.UUID) (ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[invoiceID]
	if !ok || inv.CompanyID != companyID {
		return ledger.Invoice{}, errs.ErrNotFound
	}
	return inv, nil
}

func (s *Store) InvoicesByCompany(_ context.Context, companyID uuid.UUID) ([]ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.CompanyID == companyID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) DeleteInvoice(_ context.Context, companyID, invoiceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[invoiceID]
	if !ok || inv.CompanyID != companyID {
		return errs.ErrNotFound
	}
	delete(s.invoices, invoiceID)
	return nil
}

func (s *Store) CreateExpense(_ context.Context, exp ledger.Expense) (ledger.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[exp.ID] = exp
	return exp, nil
}

func (s *Store) ExpensesByCompany(_ context.Context, companyID uuid.UUID) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Expense, 0)
	for _, exp := range s.expenses {
		if exp.CompanyID == companyID {
			out = append(out, exp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) CreateSupplierInvoice(_ context.Context, sup ledger.SupplierInvoice) (ledger.SupplierInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supplierInvoices[sup.ID] = sup
	return sup, nil
}

func (s *Store) SupplierInvoicesByCompany(_ context.Context, companyID uuid.UUID) ([]ledger.SupplierInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.SupplierInvoice, 0)
	for _, sup := range s.supplierInvoices {
		if sup.CompanyID == companyID {
			out = append(out, sup)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// --- Bank statements ---

// CreateStatement persists the statement and all its lines atomically.
func (s *Store) CreateStatement(_ context.Context, stmt ledger.BankStatement, lines []ledger.BankStatementLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statements[stmt.ID]; ok {
		return errs.ErrConflict
	}
	s.statements[stmt.ID] = stmt
	for _, l := range lines {
		s.lines[l.ID] = l
	}
	return nil
}

func (s *Store) Statement(_ context.Context, companyID, statementID uuid.UUID) (ledger.BankStatement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stmt, ok := s.statements[statementID]
	if !ok || stmt.CompanyID != companyID {
		return ledger.BankStatement{}, errs.ErrNotFound
	}
	return stmt, nil
}

func (s *Store) LinesByStatement(_ context.Context, statementID uuid.UUID) ([]ledger.BankStatementLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.BankStatementLine, 0)
	for _, l := range s.lines {
		if l.StatementID == statementID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNumber < out[j].LineNumber })
	return out, nil
}

func (s *Store) Line(_ context.Context, lineID uuid.UUID) (ledger.BankStatementLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lines[lineID]
	if !ok {
		return ledger.BankStatementLine{}, errs.ErrNotFound
	}
	return l, nil
}

func (s *Store) UpdateLine(_ context.Context, line ledger.BankStatementLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[line.ID]; !ok {
		return errs.ErrNotFound
	}
	s.lines[line.ID] = line
	return nil
}

// DeleteStatement removes a statement and its lines (the only way lines go
// away).
func (s *Store) DeleteStatement(_ context.Context, companyID, statementID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stmt, ok := s.statements[statementID]
	if !ok || stmt.CompanyID != companyID {
		return errs.ErrNotFound
	}
	delete(s.statements, statementID)
	for id, l := range s.lines {
		if l.StatementID == statementID {
			delete(s.lines, id)
		}
	}
	return nil
}

// Ready reports readiness; the memory store is always ready.
func (s *Store) Ready(_ context.Context) error { return nil }

// insertEntryIndexLocked inserts k into the per-company sorted index, keeping
// order asc by (Date, ID). Caller must hold s.mu (write lock).
func (s *Store) insertEntryIndexLocked(companyID uuid.UUID, k entryKey) {
	keys := s.entryKeysByCompany[companyID]
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].Date.After(k.Date) {
			return true
		}
		if keys[i].Date.Equal(k.Date) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.entryKeysByCompany[companyID] = append(keys, k)
		return
	}
	keys = append(keys, entryKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.entryKeysByCompany[companyID] = keys
}
