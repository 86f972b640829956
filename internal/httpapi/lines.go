package httpapi

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/ledger"
)

func lineIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid line id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) matchLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := lineIDParam(w, r)
	if !ok {
		return
	}
	var req matchLineRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.SourceID == "" {
		badRequest(w, "source_id is required")
		return
	}
	line, err := s.recon.MatchLine(r.Context(), lineID, ledger.SourceType(req.SourceType), req.SourceID)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toLineResponse(line))
}

func (s *Server) unmatchLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := lineIDParam(w, r)
	if !ok {
		return
	}
	line, err := s.recon.UnmatchLine(r.Context(), lineID)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toLineResponse(line))
}

func (s *Server) ignoreLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := lineIDParam(w, r)
	if !ok {
		return
	}
	line, err := s.recon.IgnoreLine(r.Context(), lineID)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toLineResponse(line))
}

// ignoreLines bulk-ignores unmatched lines; lines in other states are
// skipped, not failed.
func (s *Server) ignoreLines(w http.ResponseWriter, r *http.Request) {
	var req ignoreLinesRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if len(req.LineIDs) == 0 {
		badRequest(w, "line_ids is required")
		return
	}
	n, err := s.recon.IgnoreLines(r.Context(), req.LineIDs)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]int{"ignored_count": n})
}
