package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/comptaflow/comptaflow/internal/service/recon"
	"github.com/comptaflow/comptaflow/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func setup(t *testing.T) http.Handler {
	t.Helper()
	return New(memory.New(), testLogger(), recon.Options{}).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode: %v: %s", err, rec.Body.String())
	}
}

// createCompany provisions a tenant and optionally its chart of accounts.
func createCompany(t *testing.T, h http.Handler, init bool) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/companies", map[string]any{
		"name":             "Test SARL",
		"country":          "FR",
		"currency":         "EUR",
		"default_vat_rate": "20",
		"siret":            "73282932000074",
		"vat_num":          "FR40303265045",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create company: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	decode(t, rec, &resp)
	if init {
		rec = do(t, h, http.MethodPost, "/v1/companies/"+resp.ID+"/init", nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("init chart: %d %s", rec.Code, rec.Body.String())
		}
	}
	return resp.ID
}

func TestCompanyAndChartLifecycle(t *testing.T) {
	h := setup(t)
	companyID := createCompany(t, h, true)

	// Second init is idempotent.
	rec := do(t, h, http.MethodPost, "/v1/companies/"+companyID+"/init", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("re-init: %d %s", rec.Code, rec.Body.String())
	}
	var initResp struct {
		AlreadyInitialized bool `json:"already_initialized"`
	}
	decode(t, rec, &initResp)
	if !initResp.AlreadyInitialized {
		t.Fatal("re-init did not report already_initialized")
	}

	rec = do(t, h, http.MethodGet, "/v1/accounts?company_id="+companyID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list accounts: %d", rec.Code)
	}
	var accounts []map[string]any
	decode(t, rec, &accounts)
	if len(accounts) == 0 {
		t.Fatal("no accounts after init")
	}

	// company_id is mandatory on scoped reads.
	if rec := do(t, h, http.MethodGet, "/v1/accounts", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing company_id: %d", rec.Code)
	}

	// Unknown country is rejected up front.
	rec = do(t, h, http.MethodPost, "/v1/companies", map[string]any{
		"name": "X", "country": "XX", "currency": "EUR",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown country: %d", rec.Code)
	}
}

func TestEventsAndTrialBalance(t *testing.T) {
	h := setup(t)
	companyID := createCompany(t, h, true)

	rec := do(t, h, http.MethodPost, "/v1/events", map[string]any{
		"company_id":      companyID,
		"type":            "invoice",
		"ref":             "INV-001",
		"date":            time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"client_name":     "ACME",
		"total_ht_minor":  120000,
		"total_ttc_minor": 144000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post event: %d %s", rec.Code, rec.Body.String())
	}
	var evResp struct {
		Entries []entryResponse `json:"entries"`
	}
	decode(t, rec, &evResp)
	if len(evResp.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(evResp.Entries))
	}

	rec = do(t, h, http.MethodGet, "/v1/trial-balance?company_id="+companyID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trial balance: %d", rec.Code)
	}
	var tb trialBalanceResponse
	decode(t, rec, &tb)
	if !tb.Balanced || tb.TotalDebit != 144000 || tb.TotalCredit != 144000 {
		t.Fatalf("trial balance: %+v", tb)
	}

	// Reversal appends swapped entries; the ledger stays balanced.
	rec = do(t, h, http.MethodPost, "/v1/events/reverse", map[string]any{
		"company_id":   companyID,
		"reference_id": "INV-001",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reverse: %d %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &evResp)
	if len(evResp.Entries) != 2 {
		t.Fatalf("reversal wrote %d entries", len(evResp.Entries))
	}

	rec = do(t, h, http.MethodGet, "/v1/trial-balance?company_id="+companyID, nil)
	decode(t, rec, &tb)
	if !tb.Balanced || tb.TotalDebit != 288000 {
		t.Fatalf("post-reversal trial balance: %+v", tb)
	}

	// Second reversal is a no-op.
	rec = do(t, h, http.MethodPost, "/v1/events/reverse", map[string]any{
		"company_id":   companyID,
		"reference_id": "INV-001",
	})
	decode(t, rec, &evResp)
	if len(evResp.Entries) != 0 {
		t.Fatalf("second reversal wrote %d entries", len(evResp.Entries))
	}
}

func TestPostEvent_MissingMapping(t *testing.T) {
	h := setup(t)
	companyID := createCompany(t, h, false) // no chart init

	rec := do(t, h, http.MethodPost, "/v1/events", map[string]any{
		"company_id":   companyID,
		"type":         "payment",
		"ref":          "PAY-1",
		"date":         time.Now().UTC().Format(time.RFC3339),
		"amount_minor": 5000,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want 422: %s", rec.Code, rec.Body.String())
	}
	var er errorResponse
	decode(t, rec, &er)
	if er.Code != "missing_account_mapping" {
		t.Fatalf("error code %q", er.Code)
	}
}

func TestReconciliationFlow(t *testing.T) {
	h := setup(t)
	companyID := createCompany(t, h, true)
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	rec := do(t, h, http.MethodPost, "/v1/expenses", map[string]any{
		"company_id":   companyID,
		"description":  "EDF",
		"date":         day.Format(time.RFC3339),
		"amount_minor": 8990,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/v1/statements", map[string]any{
		"company_id": companyID,
		"bank_name":  "Test Bank",
		"lines": []map[string]any{
			{"line_number": 1, "date": day.Format(time.RFC3339), "description": "PRLV EDF FACTURE", "amount_minor": -8990},
			{"line_number": 2, "date": day.Format(time.RFC3339), "description": "VIR INCONNU", "amount_minor": 5000},
			{"line_number": 3, "description": "no date", "amount_minor": -1},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", rec.Code, rec.Body.String())
	}
	var imp importResponse
	decode(t, rec, &imp)
	if len(imp.Statement.Lines) != 2 || len(imp.Invalid) != 1 {
		t.Fatalf("import result: %d lines, %d invalid", len(imp.Statement.Lines), len(imp.Invalid))
	}
	stmtID := imp.Statement.ID

	rec = do(t, h, http.MethodPost, "/v1/statements/"+stmtID+"/automatch?company_id="+companyID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("automatch: %d %s", rec.Code, rec.Body.String())
	}
	var am autoMatchResponse
	decode(t, rec, &am)
	if am.MatchedCount != 1 || am.UnmatchedCount != 1 {
		t.Fatalf("automatch: %+v", am)
	}

	rec = do(t, h, http.MethodGet, "/v1/statements/"+stmtID+"/summary?company_id="+companyID, nil)
	var sum summaryResponse
	decode(t, rec, &sum)
	if sum.TotalLines != 2 || sum.MatchedLines != 1 || sum.UnmatchedLines != 1 {
		t.Fatalf("summary: %+v", sum)
	}
	if sum.Difference != 5000 {
		t.Fatalf("difference %d, want 5000", sum.Difference)
	}

	// Candidate listing for the unmatched line.
	var unmatchedID, matchedID string
	for _, l := range imp.Statement.Lines {
		if l.LineNumber == 2 {
			unmatchedID = l.ID
		} else {
			matchedID = l.ID
		}
	}
	rec = do(t, h, http.MethodGet, "/v1/statements/"+stmtID+"/lines/"+unmatchedID+"/matches?company_id="+companyID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("matches: %d", rec.Code)
	}

	// matched -> ignored is rejected.
	rec = do(t, h, http.MethodPost, "/v1/lines/"+matchedID+"/ignore", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("matched->ignored: %d %s", rec.Code, rec.Body.String())
	}

	// Bulk ignore touches only the unmatched line.
	rec = do(t, h, http.MethodPost, "/v1/lines/ignore", map[string]any{
		"line_ids": []string{matchedID, unmatchedID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk ignore: %d %s", rec.Code, rec.Body.String())
	}
	var bulk struct {
		IgnoredCount int `json:"ignored_count"`
	}
	decode(t, rec, &bulk)
	if bulk.IgnoredCount != 1 {
		t.Fatalf("ignored_count %d, want 1", bulk.IgnoredCount)
	}

	// Unmatch the matched line and verify the summary is recomputed.
	rec = do(t, h, http.MethodPost, "/v1/lines/"+matchedID+"/unmatch", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unmatch: %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/v1/statements/"+stmtID+"/summary?company_id="+companyID, nil)
	decode(t, rec, &sum)
	if sum.MatchedLines != 0 || sum.IgnoredLines != 1 || sum.UnmatchedLines != 1 {
		t.Fatalf("summary after unmatch: %+v", sum)
	}
}

func TestExports(t *testing.T) {
	h := setup(t)
	companyID := createCompany(t, h, true)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	do(t, h, http.MethodPost, "/v1/events", map[string]any{
		"company_id":      companyID,
		"type":            "invoice",
		"ref":             "INV-001",
		"date":            day.Format(time.RFC3339),
		"total_ht_minor":  120000,
		"total_ttc_minor": 144000,
	})

	rec := do(t, h, http.MethodGet, "/v1/exports/fec?company_id="+companyID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fec: %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "JournalCode|JournalLib|") {
		t.Fatalf("fec header: %q", rec.Body.String()[:40])
	}

	rec = do(t, h, http.MethodGet, "/v1/exports/saft?company_id="+companyID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("saft: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<AuditFile>") {
		t.Fatal("saft: missing AuditFile root")
	}

	// Factur-X needs an invoice record.
	rec = do(t, h, http.MethodPost, "/v1/invoices", map[string]any{
		"company_id":      companyID,
		"reference":       "INV-001",
		"client_name":     "ACME",
		"date":            day.Format(time.RFC3339),
		"total_ht_minor":  120000,
		"total_ttc_minor": 144000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invoice: %d %s", rec.Code, rec.Body.String())
	}
	var inv struct {
		ID string `json:"id"`
	}
	decode(t, rec, &inv)

	rec = do(t, h, http.MethodGet, "/v1/exports/facturx/"+inv.ID+"?company_id="+companyID+"&profile=minimum", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("facturx: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "urn:factur-x.eu:1p0:minimum") {
		t.Fatal("facturx: missing profile URN")
	}

	rec = do(t, h, http.MethodGet, "/v1/exports/facturx/"+inv.ID+"?company_id="+companyID+"&profile=premium", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown profile: %d", rec.Code)
	}
}

func TestNotFoundStatuses(t *testing.T) {
	h := setup(t)
	companyID := createCompany(t, h, false)

	rec := do(t, h, http.MethodGet, "/v1/statements/6e4f6c9e-0000-0000-0000-000000000000/summary?company_id="+companyID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown statement: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/lines/6e4f6c9e-0000-0000-0000-000000000000/ignore", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown line: %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := setup(t)
	if rec := do(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}
