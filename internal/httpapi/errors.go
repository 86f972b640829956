package httpapi

import (
	"errors"
	"net/http"

	"github.com/comptaflow/comptaflow/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }

// serviceError maps domain sentinel errors to HTTP status and machine code.
func serviceError(w http.ResponseWriter, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeErr(w, http.StatusNotFound, msg, "not_found")
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusBadRequest, msg, "invalid_request")
	case errors.Is(err, errs.ErrConflict):
		writeErr(w, http.StatusConflict, msg, "conflict")
	case errors.Is(err, errs.ErrInvalidTransition):
		writeErr(w, http.StatusConflict, msg, "invalid_transition")
	case errors.Is(err, errs.ErrMissingAccountMapping):
		writeErr(w, http.StatusUnprocessableEntity, msg, "missing_account_mapping")
	case errors.Is(err, errs.ErrImbalancedEntry):
		writeErr(w, http.StatusUnprocessableEntity, msg, "imbalanced_entry")
	case errors.Is(err, errs.ErrNotInitialized):
		writeErr(w, http.StatusUnprocessableEntity, msg, "not_initialized")
	case errors.Is(err, errs.ErrForbidden):
		writeErr(w, http.StatusForbidden, msg, "forbidden")
	case errors.Is(err, errs.ErrUnprocessable):
		writeErr(w, http.StatusUnprocessableEntity, msg, "unprocessable")
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "internal")
	}
}
