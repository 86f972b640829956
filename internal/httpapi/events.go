package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/ledger"
	"github.com/comptaflow/comptaflow/internal/meta"
)

// validatedEvent is what validatePostEvent stashes in the request context.
type validatedEvent struct {
	CompanyID uuid.UUID
	Event     ledger.Event
}

// validatePostEvent decodes and validates POST /events and stores the typed
// event in the request context for the handler to use.
func (s *Server) validatePostEvent() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postEventRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.CompanyID == uuid.Nil {
				badRequest(w, "company_id is required")
				return
			}
			if req.Ref == "" {
				badRequest(w, "ref is required")
				return
			}
			if req.Date.IsZero() {
				badRequest(w, "date is required")
				return
			}
			if req.Metadata != nil {
				if err := meta.New(req.Metadata).Validate(); err != nil {
					writeErr(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
					return
				}
			}
			ev, err := toEvent(req)
			if err != nil {
				badRequest(w, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostEvent, validatedEvent{CompanyID: req.CompanyID, Event: ev})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// toEvent maps the wire request to the typed event union.
func toEvent(req postEventRequest) (ledger.Event, error) {
	switch req.Type {
	case "invoice":
		return ledger.InvoiceIssued{
			Ref:        req.Ref,
			Date:       req.Date,
			ClientName: req.ClientName,
			TotalHT:    req.TotalHTMinor,
			TotalTTC:   req.TotalTTCMin,
		}, nil
	case "payment":
		return ledger.PaymentReceived{
			Ref:    req.Ref,
			Date:   req.Date,
			Payer:  req.Payer,
			Amount: req.AmountMinor,
		}, nil
	case "expense":
		return ledger.ExpenseRecorded{
			Ref:         req.Ref,
			Date:        req.Date,
			Description: req.Description,
			Amount:      req.AmountMinor,
		}, nil
	case "supplier_invoice":
		return ledger.SupplierInvoiceReceived{
			Ref:          req.Ref,
			Date:         req.Date,
			SupplierName: req.SupplierName,
			Amount:       req.AmountMinor,
		}, nil
	case "opening_balance":
		return ledger.OpeningBalance{
			Ref:    req.Ref,
			Date:   req.Date,
			Amount: req.AmountMinor,
		}, nil
	case "manual":
		return ledger.ManualEntry{
			Ref:         req.Ref,
			Date:        req.Date,
			DebitCode:   req.DebitCode,
			CreditCode:  req.CreditCode,
			Amount:      req.AmountMinor,
			Description: req.Description,
			Metadata:    meta.New(req.Metadata),
		}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", req.Type)
	}
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	v, ok := r.Context().Value(ctxKeyPostEvent).(validatedEvent)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	entries, err := s.journal.RecordEvent(r.Context(), v.CompanyID, v.Event)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, map[string]any{"entries": toEntryResponses(entries)})
}

func (s *Server) reverseEvent(w http.ResponseWriter, r *http.Request) {
	var req reverseEventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.CompanyID == uuid.Nil || req.ReferenceID == "" {
		badRequest(w, "company_id and reference_id are required")
		return
	}
	entries, err := s.journal.ReverseEvent(r.Context(), req.CompanyID, req.ReferenceID, req.Date)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]any{"entries": toEntryResponses(entries)})
}
