// Package postgres provides a pgx-backed storage implementation that
// satisfies the repository and writer interfaces used by the services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between
// the domain entities and SQL rows and running the necessary transactions.
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comptaflow/comptaflow/internal/errs"
	"github.com/comptaflow/comptaflow/internal/ledger"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func parseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.Parse(s)
}

// --- Companies ---

func (s *Store) CreateCompany(ctx context.Context, c ledger.Company) (ledger.Company, error) {
	_, err := s.pool.Exec(ctx, `
		insert into companies (id, name, country, currency, default_vat_rate, siret, vat_num)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, c.ID, c.Name, c.Country, c.Currency, c.DefaultVATRate.String(), c.SIRET, c.VATNum)
	if err != nil {
		return ledger.Company{}, err
	}
	return c, nil
}

func (s *Store) Company(ctx context.Context, companyID uuid.UUID) (ledger.Company, error) {
	var c ledger.Company
	var rate string
	err := s.pool.QueryRow(ctx, `
		select id, name, country, currency, default_vat_rate, siret, vat_num
		from companies where id = $1
	`, companyID).Scan(&c.ID, &c.Name, &c.Country, &c.Currency, &rate, &c.SIRET, &c.VATNum)
	if err == pgx.ErrNoRows {
		return ledger.Company{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Company{}, err
	}
	if c.DefaultVATRate, err = parseRate(rate); err != nil {
		return ledger.Company{}, err
	}
	return c, nil
}

// --- Accounts ---

func (s *Store) CreateAccounts(ctx context.Context, accounts []ledger.Account) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, a := range accounts {
		if _, err := tx.Exec(ctx, `
			insert into accounts (id, company_id, code, name, category, role)
			values ($1,$2,$3,$4,$5,$6)
		`, a.ID, a.CompanyID, a.Code, a.Name, a.Category, a.Role); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) AccountsByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
		select id, company_id, code, name, category, role
		from accounts where company_id = $1 order by code
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Category, &a.Role); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Journal entries ---

// CreateEntries writes all entries of one event in a single transaction. A
// per-company advisory lock serializes concurrent event recording so the
// balanced-write invariant holds.
func (s *Store) CreateEntries(ctx context.Context, entries []ledger.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `select pg_advisory_xact_lock(hashtextextended($1::text, 0))`, entries[0].CompanyID); err != nil {
		return err
	}
	for _, e := range entries {
		units, _ := e.Amount.MinorUnits()
		md, _ := e.Metadata.MarshalStableJSON()
		if _, err := tx.Exec(ctx, `
			insert into journal_entries
			  (id, company_id, date, debit_code, credit_code, amount_minor, currency,
			   description, reference_type, reference_id, journal_code, journal_name, metadata)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`, e.ID, e.CompanyID, e.Date, e.DebitCode, e.CreditCode, units, e.Amount.Curr().Code(),
			e.Description, e.ReferenceType, e.ReferenceID, e.JournalCode, e.JournalName, md); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const entryColumns = `
	id, company_id, date, debit_code, credit_code, amount_minor, currency,
	description, reference_type, reference_id, journal_code, journal_name, metadata`

func scanEntry(rows pgx.Rows) (ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var units int64
	var currency string
	var md []byte
	if err := rows.Scan(&e.ID, &e.CompanyID, &e.Date, &e.DebitCode, &e.CreditCode, &units, &currency,
		&e.Description, &e.ReferenceType, &e.ReferenceID, &e.JournalCode, &e.JournalName, &md); err != nil {
		return ledger.JournalEntry{}, err
	}
	if len(md) > 0 {
		if err := e.Metadata.UnmarshalJSON(md); err != nil {
			return ledger.JournalEntry{}, err
		}
	}
	amt, err := money.NewAmountFromMinorUnits(currency, units)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	e.Amount = amt
	return e, nil
}

func (s *Store) EntriesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.JournalEntry, error) {
	rows, err := s.pool.Query(ctx, `
		select `+entryColumns+` from journal_entries
		where company_id = $1 order by date, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) EntriesByReference(ctx context.Context, companyID uuid.UUID, referenceID string) ([]ledger.JournalEntry, error) {
	rows, err := s.pool.Query(ctx, `
		select `+entryColumns+` from journal_entries
		where company_id = $1 and reference_id = $2 order by date, id
	`, companyID, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Invoices / expenses / supplier invoices ---

func (s *Store) CreateInvoice(ctx context.Context, inv ledger.Invoice) (ledger.Invoice, error) {
	_, err := s.pool.Exec(ctx, `
		insert into invoices (id, company_id, reference, client_name, date, total_ht_minor, total_ttc_minor, status)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, inv.ID, inv.CompanyID, inv.Reference, inv.ClientName, inv.Date, inv.TotalHT, inv.TotalTTC, inv.Status)
	if err != nil {
		return ledger.Invoice{}, err
	}
	return inv, nil
}

func (s *Store) Invoice(ctx context.Context, companyID, invoiceID uuid.UUID) (ledger.Invoice, error) {
	var inv ledger.Invoice
	err := s.pool.QueryRow(ctx, `
		select id, company_id, reference, client_name, date, total_ht_minor, total_ttc_minor, status
		from invoices where company_id = $1 and id = $2
	`, companyID, invoiceID).Scan(&inv.ID, &inv.CompanyID, &inv.Reference, &inv.ClientName, &inv.Date, &inv.TotalHT, &inv.TotalTTC, &inv.Status)
	if err == pgx.ErrNoRows {
		return ledger.Invoice{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Invoice{}, err
	}
	return inv, nil
}

func (s *Store) InvoicesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.Invoice, error) {
	rows, err := s.pool.Query(ctx, `
		select id, company_id, reference, client_name, date, total_ht_minor, total_ttc_minor, status
		from invoices where company_id = $1 order by date, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Invoice, 0)
	for rows.Next() {
		var inv ledger.Invoice
		if err := rows.Scan(&inv.ID, &inv.CompanyID, &inv.Reference, &inv.ClientName, &inv.Date, &inv.TotalHT, &inv.TotalTTC, &inv.Status); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) DeleteInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from invoices where company_id = $1 and id = $2`, companyID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Store) CreateExpense(ctx context.Context, exp ledger.Expense) (ledger.Expense, error) {
	_, err := s.pool.Exec(ctx, `
		insert into expenses (id, company_id, description, date, amount_minor, category)
		values ($1,$2,$3,$4,$5,$6)
	`, exp.ID, exp.CompanyID, exp.Description, exp.Date, exp.Amount, exp.Category)
	if err != nil {
		return ledger.Expense{}, err
	}
	return exp, nil
}

func (s *Store) ExpensesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.Expense, error) {
	rows, err := s.pool.Query(ctx, `
		select id, company_id, description, date, amount_minor, category
		from expenses where company_id = $1 order by date, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Expense, 0)
	for rows.Next() {
		var exp ledger.Expense
		if err := rows.Scan(&exp.ID, &exp.CompanyID, &exp.Description, &exp.Date, &exp.Amount, &exp.Category); err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

func (s *Store) CreateSupplierInvoice(ctx context.Context, sup ledger.SupplierInvoice) (ledger.SupplierInvoice, error) {
	_, err := s.pool.Exec(ctx, `
		insert into supplier_invoices (id, company_id, supplier_name, reference, date, amount_minor)
		values ($1,$2,$3,$4,$5,$6)
	`, sup.ID, sup.CompanyID, sup.SupplierName, sup.Reference, sup.Date, sup.Amount)
	if err != nil {
		return ledger.SupplierInvoice{}, err
	}
	return sup, nil
}

func (s *Store) SupplierInvoicesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.SupplierInvoice, error) {
	rows, err := s.pool.Query(ctx, `
		select id, company_id, supplier_name, reference, date, amount_minor
		from supplier_invoices where company_id = $1 order by date, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.SupplierInvoice, 0)
	for rows.Next() {
		var sup ledger.SupplierInvoice
		if err := rows.Scan(&sup.ID, &sup.CompanyID, &sup.SupplierName, &sup.Reference, &sup.Date, &sup.Amount); err != nil {
			return nil, err
		}
		out = append(out, sup)
	}
	return out, rows.Err()
}

// --- Bank statements ---

func (s *Store) CreateStatement(ctx context.Context, stmt ledger.BankStatement, lines []ledger.BankStatementLine) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `
		insert into bank_statements
		  (id, company_id, bank_name, account_number, period_start, period_end,
		   opening_balance_minor, closing_balance_minor, parse_status, line_count)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, stmt.ID, stmt.CompanyID, stmt.BankName, stmt.AccountNumber, stmt.PeriodStart, stmt.PeriodEnd,
		stmt.OpeningBalance, stmt.ClosingBalance, stmt.ParseStatus, stmt.LineCount); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			insert into bank_statement_lines
			  (id, statement_id, line_number, date, description, amount_minor,
			   status, matched_source_type, matched_source_id, matched_by)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, l.ID, l.StatementID, l.LineNumber, l.Date, l.Description, l.Amount,
			l.Status, l.MatchedSourceType, l.MatchedSourceID, l.MatchedBy); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Statement(ctx context.Context, companyID, statementID uuid.UUID) (ledger.BankStatement, error) {
	var st ledger.BankStatement
	err := s.pool.QueryRow(ctx, `
		select id, company_id, bank_name, account_number, period_start, period_end,
		       opening_balance_minor, closing_balance_minor, parse_status, line_count
		from bank_statements where company_id = $1 and id = $2
	`, companyID, statementID).Scan(&st.ID, &st.CompanyID, &st.BankName, &st.AccountNumber, &st.PeriodStart, &st.PeriodEnd,
		&st.OpeningBalance, &st.ClosingBalance, &st.ParseStatus, &st.LineCount)
	if err == pgx.ErrNoRows {
		return ledger.BankStatement{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.BankStatement{}, err
	}
	return st, nil
}

func (s *Store) LinesByStatement(ctx context.Context, statementID uuid.UUID) ([]ledger.BankStatementLine, error) {
	rows, err := s.pool.Query(ctx, `
		select id, statement_id, line_number, date, description, amount_minor,
		       status, matched_source_type, matched_source_id, matched_by
		from bank_statement_lines where statement_id = $1 order by line_number
	`, statementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.BankStatementLine, 0)
	for rows.Next() {
		var l ledger.BankStatementLine
		if err := rows.Scan(&l.ID, &l.StatementID, &l.LineNumber, &l.Date, &l.Description, &l.Amount,
			&l.Status, &l.MatchedSourceType, &l.MatchedSourceID, &l.MatchedBy); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) Line(ctx context.Context, lineID uuid.UUID) (ledger.BankStatementLine, error) {
	var l ledger.BankStatementLine
	err := s.pool.QueryRow(ctx, `
		select id, statement_id, line_number, date, description, amount_minor,
		       status, matched_source_type, matched_source_id, matched_by
		from bank_statement_lines where id = $1
	`, lineID).Scan(&l.ID, &l.StatementID, &l.LineNumber, &l.Date, &l.Description, &l.Amount,
		&l.Status, &l.MatchedSourceType, &l.MatchedSourceID, &l.MatchedBy)
	if err == pgx.ErrNoRows {
		return ledger.BankStatementLine{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.BankStatementLine{}, err
	}
	return l, nil
}

func (s *Store) UpdateLine(ctx context.Context, line ledger.BankStatementLine) error {
	tag, err := s.pool.Exec(ctx, `
		update bank_statement_lines
		set status = $2, matched_source_type = $3, matched_source_id = $4, matched_by = $5
		where id = $1
	`, line.ID, line.Status, line.MatchedSourceType, line.MatchedSourceID, line.MatchedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteStatement(ctx context.Context, companyID, statementID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `delete from bank_statement_lines where statement_id = $1`, statementID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `delete from bank_statements where company_id = $1 and id = $2`, companyID, statementID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return tx.Commit(ctx)
}
