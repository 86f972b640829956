package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/ledger"
)

// Thin create endpoints for the records reconciliation and tax reporting
// consume. They do not post to the ledger; that is the events endpoint's job.

func (s *Server) postInvoice(w http.ResponseWriter, r *http.Request) {
	var req postInvoiceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.CompanyID == uuid.Nil || req.Reference == "" || req.Date.IsZero() {
		badRequest(w, "company_id, reference and date are required")
		return
	}
	if req.TotalHT < 0 || req.TotalTTC < req.TotalHT {
		badRequest(w, "invoice totals must satisfy 0 <= total_ht <= total_ttc")
		return
	}
	inv, err := s.store.CreateInvoice(r.Context(), ledger.Invoice{
		ID:         uuid.New(),
		CompanyID:  req.CompanyID,
		Reference:  req.Reference,
		ClientName: req.ClientName,
		Date:       req.Date,
		TotalHT:    req.TotalHT,
		TotalTTC:   req.TotalTTC,
		Status:     req.Status,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, map[string]string{"id": inv.ID.String()})
}

// deleteInvoice removes the invoice record and appends reversal entries for
// anything previously posted under its reference. The original journal rows
// are never touched.
func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(r.URL.Query().Get("company_id"))
	if err != nil {
		badRequest(w, "invalid company_id")
		return
	}
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid invoice id")
		return
	}
	inv, err := s.store.Invoice(r.Context(), companyID, invoiceID)
	if err != nil {
		serviceError(w, err)
		return
	}
	if _, err := s.journal.ReverseEvent(r.Context(), companyID, inv.Reference, time.Now().UTC()); err != nil {
		serviceError(w, err)
		return
	}
	if err := s.store.DeleteInvoice(r.Context(), companyID, invoiceID); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postExpense(w http.ResponseWriter, r *http.Request) {
	var req postExpenseRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.CompanyID == uuid.Nil || req.Date.IsZero() {
		badRequest(w, "company_id and date are required")
		return
	}
	if req.Amount <= 0 {
		badRequest(w, "amount_minor must be positive")
		return
	}
	exp, err := s.store.CreateExpense(r.Context(), ledger.Expense{
		ID:          uuid.New(),
		CompanyID:   req.CompanyID,
		Description: req.Description,
		Date:        req.Date,
		Amount:      req.Amount,
		Category:    req.Category,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, map[string]string{"id": exp.ID.String()})
}

func (s *Server) postSupplierInvoice(w http.ResponseWriter, r *http.Request) {
	var req postSupplierInvoiceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.CompanyID == uuid.Nil || req.Date.IsZero() {
		badRequest(w, "company_id and date are required")
		return
	}
	if req.Amount <= 0 {
		badRequest(w, "amount_minor must be positive")
		return
	}
	sup, err := s.store.CreateSupplierInvoice(r.Context(), ledger.SupplierInvoice{
		ID:           uuid.New(),
		CompanyID:    req.CompanyID,
		SupplierName: req.SupplierName,
		Reference:    req.Reference,
		Date:         req.Date,
		Amount:       req.Amount,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, map[string]string{"id": sup.ID.String()})
}
