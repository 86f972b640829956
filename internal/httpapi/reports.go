package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/comptaflow/comptaflow/internal/ledger"
	"github.com/comptaflow/comptaflow/internal/service/report"
)

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	companyID := companyIDFrom(r.Context())
	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(w, "invalid as_of")
			return
		}
		asOf = t.UTC()
	}
	tb, err := s.reports.TrialBalance(r.Context(), companyID, asOf)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTrialBalanceResponse(tb))
}

func (s *Server) taxSummary(w http.ResponseWriter, r *http.Request) {
	companyID := companyIDFrom(r.Context())
	start, ok := parseTimeParam(w, r, "start")
	if !ok {
		return
	}
	end, ok := parseTimeParam(w, r, "end")
	if !ok {
		return
	}
	ts, err := s.reports.TaxSummary(r.Context(), companyID, start, end)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTaxSummaryResponse(ts))
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	companyID := companyIDFrom(r.Context())
	q := r.URL.Query()
	var f report.EntryFilter
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(w, "invalid from")
			return
		}
		tt := t.UTC()
		f.From = &tt
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(w, "invalid to")
			return
		}
		tt := t.UTC()
		f.To = &tt
	}
	f.ReferenceType = ledger.ReferenceType(q.Get("reference_type"))
	f.AccountCode = q.Get("account_code")
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, "invalid limit")
			return
		}
		f.Limit = n
	}
	entries, err := s.reports.Entries(r.Context(), companyID, f)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponses(entries))
}

// parseTimeParam reads an optional RFC3339 query param. The bool is false when
// the value was present but malformed (a response has been written).
func parseTimeParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(w, "invalid "+name)
		return time.Time{}, false
	}
	return t.UTC(), true
}
