// Package recon implements bank reconciliation: statement import, candidate
// normalization, scored matching and the per-line state machine.
package recon

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comptaflow/comptaflow/internal/errs"
	"github.com/comptaflow/comptaflow/internal/ledger"
)

var autoMatched = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "comptaflow",
	Name:      "recon_auto_matched_lines_total",
	Help:      "Statement lines matched by the auto-matcher",
})

// Repo defines read operations needed by the service.
type Repo interface {
	Statement(ctx context.Context, companyID, statementID uuid.UUID) (ledger.BankStatement, error)
	LinesByStatement(ctx context.Context, statementID uuid.UUID) ([]ledger.BankStatementLine, error)
	Line(ctx context.Context, lineID uuid.UUID) (ledger.BankStatementLine, error)
	InvoicesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.Invoice, error)
	ExpensesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.Expense, error)
	SupplierInvoicesByCompany(ctx context.Context, companyID uuid.UUID) ([]ledger.SupplierInvoice, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateStatement(ctx context.Context, stmt ledger.BankStatement, lines []ledger.BankStatementLine) error
	UpdateLine(ctx context.Context, line ledger.BankStatementLine) error
}

// StatementImport is the parsed statement shape supplied by the (out of
// scope) file-parsing front end.
type StatementImport struct {
	BankName       string
	AccountNumber  string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	OpeningBalance int64
	ClosingBalance int64
	Lines          []LineImport
}

// LineImport is one parsed statement transaction. Amount is signed minor units.
type LineImport struct {
	LineNumber  int
	Date        time.Time
	Description string
	Amount      int64
}

// LineError records an import-time parse problem for one line. Invalid lines
// never block the import of the remaining valid ones.
type LineError struct {
	LineNumber int
	Reason     string
}

// ImportResult is the outcome of a statement import.
type ImportResult struct {
	Statement ledger.BankStatement
	Lines     []ledger.BankStatementLine
	Invalid   []LineError
}

// AutoMatchResult summarizes one auto-match run.
type AutoMatchResult struct {
	MatchedCount   int
	UnmatchedCount int
}

// Summary is the pure reduction over the current line set. Amounts are
// signed minor units; Difference is the net amount still unmatched.
type Summary struct {
	TotalLines     int
	MatchedLines   int
	UnmatchedLines int
	IgnoredLines   int
	MatchRate      float64
	TotalCredits   int64
	TotalDebits    int64
	MatchedCredits int64
	Difference     int64
}

// Options tunes the matcher.
type Options struct {
	// Threshold is the minimum score auto-match commits. Zero means
	// DefaultThreshold.
	Threshold float64
	// WindowDays caps date-proximity decay. Zero means DefaultWindowDays.
	WindowDays int
}

// Service owns statement import, matching and the line lifecycle.
type Service interface {
	ImportStatement(ctx context.Context, companyID uuid.UUID, imp StatementImport) (ImportResult, error)
	Matches(ctx context.Context, companyID, statementID, lineID uuid.UUID) ([]ScoredCandidate, error)
	AutoMatch(ctx context.Context, companyID, statementID uuid.UUID) (AutoMatchResult, error)
	MatchLine(ctx context.Context, lineID uuid.UUID, sourceType ledger.SourceType, sourceID string) (ledger.BankStatementLine, error)
	UnmatchLine(ctx context.Context, lineID uuid.UUID) (ledger.BankStatementLine, error)
	IgnoreLine(ctx context.Context, lineID uuid.UUID) (ledger.BankStatementLine, error)
	IgnoreLines(ctx context.Context, lineIDs []uuid.UUID) (int, error)
	StatementSummary(ctx context.Context, companyID, statementID uuid.UUID) (Summary, error)
}

type service struct {
	repo   Repo
	writer Writer
	opts   Options
}

func New(repo Repo, writer Writer, opts Options) Service {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	return &service{repo: repo, writer: writer, opts: opts}
}

func (s *service) ImportStatement(ctx context.Context, companyID uuid.UUID, imp StatementImport) (ImportResult, error) {
	if companyID == uuid.Nil {
		return ImportResult{}, errs.ErrInvalid
	}
	stmt := ledger.BankStatement{
		ID:             uuid.New(),
		CompanyID:      companyID,
		BankName:       imp.BankName,
		AccountNumber:  imp.AccountNumber,
		PeriodStart:    imp.PeriodStart,
		PeriodEnd:      imp.PeriodEnd,
		OpeningBalance: imp.OpeningBalance,
		ClosingBalance: imp.ClosingBalance,
		ParseStatus:    ledger.ParseParsed,
	}
	lines := make([]ledger.BankStatementLine, 0, len(imp.Lines))
	var invalid []LineError
	for _, li := range imp.Lines {
		if li.Date.IsZero() {
			invalid = append(invalid, LineError{LineNumber: li.LineNumber, Reason: "missing date"})
			continue
		}
		if li.Amount == 0 {
			invalid = append(invalid, LineError{LineNumber: li.LineNumber, Reason: "zero amount"})
			continue
		}
		lines = append(lines, ledger.BankStatementLine{
			ID:          uuid.New(),
			StatementID: stmt.ID,
			LineNumber:  li.LineNumber,
			Date:        li.Date,
			Description: li.Description,
			Amount:      li.Amount,
			Status:      ledger.LineUnmatched,
		})
	}
	stmt.LineCount = len(lines)
	if err := s.writer.CreateStatement(ctx, stmt, lines); err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Statement: stmt, Lines: lines, Invalid: invalid}, nil
}

// candidates builds the normalized candidate set for a company, minus the
// ones already claimed by matched lines of the statement.
func (s *service) candidates(ctx context.Context, companyID uuid.UUID, lines []ledger.BankStatementLine) ([]ledger.CandidateTransaction, error) {
	invoices, err := s.repo.InvoicesByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ExpensesByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.repo.SupplierInvoicesByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	all := Normalize(invoices, expenses, suppliers)
	claimed := make(map[string]bool)
	for _, l := range lines {
		if l.Status == ledger.LineMatched && l.MatchedSourceID != "" {
			claimed[l.MatchedSourceID] = true
		}
	}
	if len(claimed) == 0 {
		return all, nil
	}
	out := all[:0]
	for _, c := range all {
		if !claimed[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *service) Matches(ctx context.Context, companyID, statementID, lineID uuid.UUID) ([]ScoredCandidate, error) {
	if _, err := s.repo.Statement(ctx, companyID, statementID); err != nil {
		return nil, err
	}
	lines, err := s.repo.LinesByStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}
	var line *ledger.BankStatementLine
	for i := range lines {
		if lines[i].ID == lineID {
			line = &lines[i]
			break
		}
	}
	if line == nil {
		return nil, errs.ErrNotFound
	}
	cands, err := s.candidates(ctx, companyID, lines)
	if err != nil {
		return nil, err
	}
	return FindMatches(*line, cands, s.opts.WindowDays), nil
}

// AutoMatch runs one synchronous greedy pass over the statement's unmatched
// lines in statement order. A candidate is claimed by at most one line per
// run (first come wins); ambiguous leftovers stay unmatched for manual
// resolution. Callers must not run two passes concurrently on one statement.
func (s *service) AutoMatch(ctx context.Context, companyID, statementID uuid.UUID) (AutoMatchResult, error) {
	if _, err := s.repo.Statement(ctx, companyID, statementID); err != nil {
		return AutoMatchResult{}, err
	}
	lines, err := s.repo.LinesByStatement(ctx, statementID)
	if err != nil {
		return AutoMatchResult{}, err
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })
	cands, err := s.candidates(ctx, companyID, lines)
	if err != nil {
		return AutoMatchResult{}, err
	}

	claimed := make(map[string]bool)
	var res AutoMatchResult
	for _, line := range lines {
		if line.Status != ledger.LineUnmatched {
			continue
		}
		matches := FindMatches(line, cands, s.opts.WindowDays)
		var picked *ScoredCandidate
		for i := range matches {
			if claimed[matches[i].Candidate.ID] {
				continue
			}
			if matches[i].Score >= s.opts.Threshold {
				picked = &matches[i]
			}
			break
		}
		if picked == nil {
			res.UnmatchedCount++
			continue
		}
		line.Status = ledger.LineMatched
		line.MatchedSourceType = picked.Candidate.SourceType
		line.MatchedSourceID = picked.Candidate.ID
		line.MatchedBy = ledger.MatchedAuto
		if err := s.writer.UpdateLine(ctx, line); err != nil {
			return res, err
		}
		claimed[picked.Candidate.ID] = true
		res.MatchedCount++
		autoMatched.Inc()
	}
	return res, nil
}

func (s *service) MatchLine(ctx context.Context, lineID uuid.UUID, sourceType ledger.SourceType, sourceID string) (ledger.BankStatementLine, error) {
	if sourceID == "" {
		return ledger.BankStatementLine{}, errs.ErrInvalid
	}
	line, err := s.repo.Line(ctx, lineID)
	if err != nil {
		return ledger.BankStatementLine{}, err
	}
	if !ledger.CanTransition(line.Status, ledger.LineMatched) {
		return ledger.BankStatementLine{}, fmt.Errorf("%s -> matched: %w", line.Status, errs.ErrInvalidTransition)
	}
	line.Status = ledger.LineMatched
	line.MatchedSourceType = sourceType
	line.MatchedSourceID = sourceID
	line.MatchedBy = ledger.MatchedManual
	if err := s.writer.UpdateLine(ctx, line); err != nil {
		return ledger.BankStatementLine{}, err
	}
	return line, nil
}

// UnmatchLine restores a line to unmatched from either matched or ignored.
func (s *service) UnmatchLine(ctx context.Context, lineID uuid.UUID) (ledger.BankStatementLine, error) {
	line, err := s.repo.Line(ctx, lineID)
	if err != nil {
		return ledger.BankStatementLine{}, err
	}
	if !ledger.CanTransition(line.Status, ledger.LineUnmatched) {
		return ledger.BankStatementLine{}, fmt.Errorf("%s -> unmatched: %w", line.Status, errs.ErrInvalidTransition)
	}
	line.Status = ledger.LineUnmatched
	line.MatchedSourceType = ""
	line.MatchedSourceID = ""
	line.MatchedBy = ""
	if err := s.writer.UpdateLine(ctx, line); err != nil {
		return ledger.BankStatementLine{}, err
	}
	return line, nil
}

func (s *service) IgnoreLine(ctx context.Context, lineID uuid.UUID) (ledger.BankStatementLine, error) {
	line, err := s.repo.Line(ctx, lineID)
	if err != nil {
		return ledger.BankStatementLine{}, err
	}
	if !ledger.CanTransition(line.Status, ledger.LineIgnored) {
		return ledger.BankStatementLine{}, fmt.Errorf("%s -> ignored: %w", line.Status, errs.ErrInvalidTransition)
	}
	line.Status = ledger.LineIgnored
	if err := s.writer.UpdateLine(ctx, line); err != nil {
		return ledger.BankStatementLine{}, err
	}
	return line, nil
}

// IgnoreLines ignores every listed line that is currently unmatched and
// reports how many changed. Lines in other states are left untouched.
func (s *service) IgnoreLines(ctx context.Context, lineIDs []uuid.UUID) (int, error) {
	ignored := 0
	for _, id := range lineIDs {
		line, err := s.repo.Line(ctx, id)
		if err != nil {
			return ignored, err
		}
		if line.Status != ledger.LineUnmatched {
			continue
		}
		line.Status = ledger.LineIgnored
		if err := s.writer.UpdateLine(ctx, line); err != nil {
			return ignored, err
		}
		ignored++
	}
	return ignored, nil
}

func (s *service) StatementSummary(ctx context.Context, companyID, statementID uuid.UUID) (Summary, error) {
	if _, err := s.repo.Statement(ctx, companyID, statementID); err != nil {
		return Summary{}, err
	}
	lines, err := s.repo.LinesByStatement(ctx, statementID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(lines), nil
}

// Summarize reduces the current line set. Totals are always recomputed from
// scratch, never incrementally patched, to avoid drift.
func Summarize(lines []ledger.BankStatementLine) Summary {
	var sum Summary
	sum.TotalLines = len(lines)
	for _, l := range lines {
		switch l.Status {
		case ledger.LineMatched:
			sum.MatchedLines++
			if l.Amount > 0 {
				sum.MatchedCredits += l.Amount
			}
		case ledger.LineIgnored:
			sum.IgnoredLines++
		default:
			sum.UnmatchedLines++
			sum.Difference += l.Amount
		}
		if l.Amount > 0 {
			sum.TotalCredits += l.Amount
		} else {
			sum.TotalDebits += -l.Amount
		}
	}
	if sum.TotalLines > 0 {
		sum.MatchRate = float64(sum.MatchedLines) / float64(sum.TotalLines)
	}
	return sum
}
