package httpapi

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/comptaflow/comptaflow/internal/chart"
	"github.com/comptaflow/comptaflow/internal/ledger"
)

// postCompany creates a tenant. The country must have a chart template; the
// chart itself is created by the separate init call.
func (s *Server) postCompany(w http.ResponseWriter, r *http.Request) {
	var req postCompanyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" || req.Currency == "" {
		badRequest(w, "name and currency are required")
		return
	}
	country := ledger.Country(req.Country)
	if _, err := chart.LoadTemplate(country); err != nil {
		badRequest(w, err.Error())
		return
	}
	rate := decimal.Zero
	if req.DefaultVATRate != "" {
		parsed, err := decimal.Parse(req.DefaultVATRate)
		if err != nil || parsed.IsNeg() {
			badRequest(w, "invalid default_vat_rate")
			return
		}
		rate = parsed
	}
	company, err := s.store.CreateCompany(r.Context(), ledger.Company{
		ID:             uuid.New(),
		Name:           req.Name,
		Country:        country,
		Currency:       req.Currency,
		DefaultVATRate: rate,
		SIRET:          req.SIRET,
		VATNum:         req.VATNum,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toCompanyResponse(company))
}

// initCompany creates the country-template chart of accounts. Idempotent: a
// repeated call reports already_initialized instead of failing.
func (s *Server) initCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid company id")
		return
	}
	company, err := s.store.Company(r.Context(), companyID)
	if err != nil {
		serviceError(w, err)
		return
	}
	res, err := s.chartSvc.Init(r.Context(), companyID, company.Country)
	if err != nil {
		serviceError(w, err)
		return
	}
	accounts := make([]accountResponse, 0, len(res.Accounts))
	for _, a := range res.Accounts {
		accounts = append(accounts, toAccountResponse(a))
	}
	status := http.StatusCreated
	if res.AlreadyInitialized {
		status = http.StatusOK
	}
	toJSON(w, status, map[string]any{
		"already_initialized": res.AlreadyInitialized,
		"accounts":            accounts,
	})
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	companyID := companyIDFrom(r.Context())
	category := ledger.AccountCategory(r.URL.Query().Get("category"))
	accounts, err := s.chartSvc.List(r.Context(), companyID, category)
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}
