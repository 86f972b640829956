package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/export"
	"github.com/comptaflow/comptaflow/internal/service/report"
)

// exportFEC streams the company's journal as a pipe-delimited FEC file.
// Optional from/to query params (RFC3339) bound the entry set.
func (s *Server) exportFEC(w http.ResponseWriter, r *http.Request) {
	companyID := companyIDFrom(r.Context())
	var f report.EntryFilter
	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return
	}
	if !from.IsZero() {
		f.From = &from
	}
	to, ok := parseTimeParam(w, r, "to")
	if !ok {
		return
	}
	if !to.IsZero() {
		f.To = &to
	}
	entries, err := s.reports.Entries(r.Context(), companyID, f)
	if err != nil {
		serviceError(w, err)
		return
	}
	accounts, err := s.store.AccountsByCompany(r.Context(), companyID)
	if err != nil {
		serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="fec.txt"`)
	_, _ = w.Write([]byte(export.FEC(entries, accounts)))
}

func (s *Server) exportSAFT(w http.ResponseWriter, r *http.Request) {
	companyID := companyIDFrom(r.Context())
	start, ok := parseTimeParam(w, r, "start")
	if !ok {
		return
	}
	end, ok := parseTimeParam(w, r, "end")
	if !ok {
		return
	}
	company, err := s.store.Company(r.Context(), companyID)
	if err != nil {
		serviceError(w, err)
		return
	}
	accounts, err := s.store.AccountsByCompany(r.Context(), companyID)
	if err != nil {
		serviceError(w, err)
		return
	}
	var f report.EntryFilter
	if !start.IsZero() {
		f.From = &start
	}
	if !end.IsZero() {
		f.To = &end
	}
	entries, err := s.reports.Entries(r.Context(), companyID, f)
	if err != nil {
		serviceError(w, err)
		return
	}
	invoices, err := s.store.InvoicesByCompany(r.Context(), companyID)
	if err != nil {
		serviceError(w, err)
		return
	}
	out, err := export.SAFT(company, accounts, entries, invoices, start, end)
	if err != nil {
		serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}

func (s *Server) exportFacturX(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(r.URL.Query().Get("company_id"))
	if err != nil {
		badRequest(w, "invalid company_id")
		return
	}
	invoiceID, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		badRequest(w, "invalid invoice id")
		return
	}
	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = export.ProfileEN16931
	}
	company, err := s.store.Company(r.Context(), companyID)
	if err != nil {
		serviceError(w, err)
		return
	}
	inv, err := s.store.Invoice(r.Context(), companyID, invoiceID)
	if err != nil {
		serviceError(w, err)
		return
	}
	out, err := export.FacturX(company, inv, profile)
	if err != nil {
		serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}
