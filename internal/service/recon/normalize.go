package recon

import (
	"github.com/comptaflow/comptaflow/internal/ledger"
)

// Normalize projects live invoices, expenses and supplier invoices into
// candidate transactions for matching. Pure function, re-run on every pass so
// candidates always reflect current source state.
//
// Sign convention: invoices are inflows (positive), expenses and supplier
// invoices are outflows (negative).
func Normalize(invoices []ledger.Invoice, expenses []ledger.Expense, supplierInvoices []ledger.SupplierInvoice) []ledger.CandidateTransaction {
	out := make([]ledger.CandidateTransaction, 0, len(invoices)+len(expenses)+len(supplierInvoices))
	for _, inv := range invoices {
		desc := inv.Reference
		if inv.ClientName != "" {
			if desc != "" {
				desc += " "
			}
			desc += inv.ClientName
		}
		out = append(out, ledger.CandidateTransaction{
			ID:          inv.ID.String(),
			SourceType:  ledger.SourceInvoice,
			Date:        inv.Date,
			Amount:      inv.TotalTTC,
			Description: desc,
		})
	}
	for _, exp := range expenses {
		out = append(out, ledger.CandidateTransaction{
			ID:          exp.ID.String(),
			SourceType:  ledger.SourceExpense,
			Date:        exp.Date,
			Amount:      -exp.Amount,
			Description: exp.Description,
		})
	}
	for _, sup := range supplierInvoices {
		desc := sup.SupplierName
		if desc == "" {
			desc = sup.Reference
		}
		out = append(out, ledger.CandidateTransaction{
			ID:          sup.ID.String(),
			SourceType:  ledger.SourceSupplierInvoice,
			Date:        sup.Date,
			Amount:      -sup.Amount,
			Description: desc,
		})
	}
	return out
}
