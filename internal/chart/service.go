package chart

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/errs"
	"github.com/comptaflow/comptaflow/internal/ledger"
)

// Repo defines read operations needed by the registry.
type Repo interface {
	AccountsByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.Account, error)
}

// Writer defines write operations needed by the registry.
type Writer interface {
	// CreateAccounts persists all accounts or none.
	CreateAccounts(ctx context.Context, accounts []ledger.Account) error
}

// InitResult reports the outcome of accounting initialization.
type InitResult struct {
	AlreadyInitialized bool
	Accounts           []ledger.Account
}

// Service exposes chart initialization and role resolution.
type Service interface {
	// Init creates the template accounts for the company's country. Idempotent:
	// a second call reports AlreadyInitialized instead of erroring.
	Init(ctx context.Context, companyID uuid.UUID, country ledger.Country) (InitResult, error)
	// Resolve returns the account bound to a semantic role.
	Resolve(ctx context.Context, companyID uuid.UUID, role ledger.Role) (ledger.Account, error)
	// List returns the company's accounts, optionally filtered by category,
	// sorted by code.
	List(ctx context.Context, companyID uuid.UUID, category ledger.AccountCategory) ([]ledger.Account, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) Init(ctx context.Context, companyID uuid.UUID, country ledger.Country) (InitResult, error) {
	if companyID == uuid.Nil {
		return InitResult{}, errs.ErrInvalid
	}
	tpl, err := LoadTemplate(country)
	if err != nil {
		return InitResult{}, err
	}
	existing, err := s.repo.AccountsByCompany(ctx, companyID)
	if err != nil {
		return InitResult{}, err
	}
	for _, a := range existing {
		if a.Role != "" {
			return InitResult{AlreadyInitialized: true, Accounts: existing}, nil
		}
	}
	accounts := make([]ledger.Account, 0, len(tpl.Accounts))
	for _, ta := range tpl.Accounts {
		accounts = append(accounts, ledger.Account{
			ID:        uuid.New(),
			CompanyID: companyID,
			Code:      ta.Code,
			Name:      ta.Name,
			Category:  ta.Category,
			Role:      ta.Role,
		})
	}
	if err := s.writer.CreateAccounts(ctx, accounts); err != nil {
		return InitResult{}, err
	}
	return InitResult{Accounts: accounts}, nil
}

func (s *service) Resolve(ctx context.Context, companyID uuid.UUID, role ledger.Role) (ledger.Account, error) {
	if companyID == uuid.Nil || role == "" {
		return ledger.Account{}, errs.ErrInvalid
	}
	accounts, err := s.repo.AccountsByCompany(ctx, companyID)
	if err != nil {
		return ledger.Account{}, err
	}
	for _, a := range accounts {
		if a.Role == role {
			return a, nil
		}
	}
	return ledger.Account{}, fmt.Errorf("role %s: %w", role, errs.ErrMissingAccountMapping)
}

func (s *service) List(ctx context.Context, companyID uuid.UUID, category ledger.AccountCategory) ([]ledger.Account, error) {
	if companyID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	accounts, err := s.repo.AccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Account, 0, len(accounts))
	for _, a := range accounts {
		if category != "" && a.Category != category {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
