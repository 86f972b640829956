package httpapi

import (
	"context"

	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/chart"
	"github.com/comptaflow/comptaflow/internal/ledger"
	"github.com/comptaflow/comptaflow/internal/service/journal"
	"github.com/comptaflow/comptaflow/internal/service/recon"
	"github.com/comptaflow/comptaflow/internal/service/report"
)

// Store is the full persistence surface the HTTP layer needs. Both the
// memory and postgres stores satisfy it.
type Store interface {
	chart.Repo
	chart.Writer
	journal.Repo
	journal.Writer
	report.Repo
	recon.Repo
	recon.Writer

	CreateCompany(ctx context.Context, c ledger.Company) (ledger.Company, error)
	CreateInvoice(ctx context.Context, inv ledger.Invoice) (ledger.Invoice, error)
	Invoice(ctx context.Context, companyID, invoiceID uuid.UUID) (ledger.Invoice, error)
	DeleteInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) error
	CreateExpense(ctx context.Context, exp ledger.Expense) (ledger.Expense, error)
	CreateSupplierInvoice(ctx context.Context, sup ledger.SupplierInvoice) (ledger.SupplierInvoice, error)
	DeleteStatement(ctx context.Context, companyID, statementID uuid.UUID) error
}
