package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
	// ErrUnprocessable is used for semantic validation failures (HTTP 422)
	ErrUnprocessable = errors.New("unprocessable")

	// ErrMissingAccountMapping indicates the company's chart of accounts has no
	// account for a semantic role the ledger writer needs. The write is aborted
	// and nothing is persisted.
	ErrMissingAccountMapping = errors.New("missing_account_mapping")
	// ErrImbalancedEntry indicates an internal invariant violation: the legs of
	// an event do not sum to equal debits and credits. Must never be swallowed.
	ErrImbalancedEntry = errors.New("imbalanced_entry")
	// ErrInvalidTransition indicates a statement line state change that the
	// lifecycle does not allow (e.g. ignored -> matched).
	ErrInvalidTransition = errors.New("invalid_transition")
	// ErrNotInitialized indicates accounting has not been initialized for the
	// company (no chart of accounts yet).
	ErrNotInitialized = errors.New("not_initialized")
)
