package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/service/recon"
)

// validatePostStatement decodes POST /statements and stores the import
// payload in the request context.
func (s *Server) validatePostStatement() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postStatementRequest
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
			ctx := context.WithValue(r.Context(), ctxKeyPostStatement, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) postStatement(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostStatement).(postStatementRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	imp := recon.StatementImport{
		BankName:       req.BankName,
		AccountNumber:  req.AccountNumber,
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		OpeningBalance: req.OpeningBalance,
		ClosingBalance: req.ClosingBalance,
	}
	for _, l := range req.Lines {
		imp.Lines = append(imp.Lines, recon.LineImport{
			LineNumber:  l.LineNumber,
			Date:        l.Date,
			Description: l.Description,
			Amount:      l.AmountMinor,
		})
	}
	res, err := s.recon.ImportStatement(r.Context(), req.CompanyID, imp)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toImportResponse(res))
}

// statementScope parses the company_id query param and the {id} path param.
func statementScope(w http.ResponseWriter, r *http.Request) (companyID, statementID uuid.UUID, ok bool) {
	companyID, err := uuid.Parse(r.URL.Query().Get("company_id"))
	if err != nil {
		badRequest(w, "invalid company_id")
		return uuid.Nil, uuid.Nil, false
	}
	statementID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid statement id")
		return uuid.Nil, uuid.Nil, false
	}
	return companyID, statementID, true
}

func (s *Server) getStatement(w http.ResponseWriter, r *http.Request) {
	companyID, statementID, ok := statementScope(w, r)
	if !ok {
		return
	}
	stmt, err := s.store.Statement(r.Context(), companyID, statementID)
	if err != nil {
		serviceError(w, err)
		return
	}
	lines, err := s.store.LinesByStatement(r.Context(), statementID)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toStatementResponse(stmt, lines))
}

func (s *Server) deleteStatement(w http.ResponseWriter, r *http.Request) {
	companyID, statementID, ok := statementScope(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteStatement(r.Context(), companyID, statementID); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) statementSummary(w http.ResponseWriter, r *http.Request) {
	companyID, statementID, ok := statementScope(w, r)
	if !ok {
		return
	}
	sum, err := s.recon.StatementSummary(r.Context(), companyID, statementID)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toSummaryResponse(sum))
}

func (s *Server) autoMatch(w http.ResponseWriter, r *http.Request) {
	companyID, statementID, ok := statementScope(w, r)
	if !ok {
		return
	}
	res, err := s.recon.AutoMatch(r.Context(), companyID, statementID)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, autoMatchResponse{
		MatchedCount:   res.MatchedCount,
		UnmatchedCount: res.UnmatchedCount,
	})
}

func (s *Server) lineMatches(w http.ResponseWriter, r *http.Request) {
	companyID, statementID, ok := statementScope(w, r)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		badRequest(w, "invalid line id")
		return
	}
	matches, err := s.recon.Matches(r.Context(), companyID, statementID, lineID)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCandidateResponses(matches))
}
