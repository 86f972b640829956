package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/comptaflow/comptaflow/internal/ledger"
	"github.com/comptaflow/comptaflow/internal/service/recon"
	"github.com/comptaflow/comptaflow/internal/service/report"
)

// Requests

type postCompanyRequest struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
	// DefaultVATRate is a percentage as a string ("20", "5.5").
	DefaultVATRate string `json:"default_vat_rate"`
	SIRET          string `json:"siret"`
	VATNum         string `json:"vat_num"`
}

type postEventRequest struct {
	CompanyID uuid.UUID `json:"company_id"`
	Type      string    `json:"type"`
	Ref       string    `json:"ref"`
	Date      time.Time `json:"date"`

	AmountMinor  int64  `json:"amount_minor,omitempty"`
	TotalHTMinor int64  `json:"total_ht_minor,omitempty"`
	TotalTTCMin  int64  `json:"total_ttc_minor,omitempty"`
	ClientName   string `json:"client_name,omitempty"`
	Payer        string `json:"payer,omitempty"`
	SupplierName string `json:"supplier_name,omitempty"`
	Description  string `json:"description,omitempty"`
	DebitCode    string `json:"debit_code,omitempty"`
	CreditCode   string `json:"credit_code,omitempty"`
	// Metadata is attached to the produced entries (manual events only).
	Metadata map[string]string `json:"metadata,omitempty"`
}

type reverseEventRequest struct {
	CompanyID   uuid.UUID `json:"company_id"`
	ReferenceID string    `json:"reference_id"`
	Date        time.Time `json:"date,omitempty"`
}

type postInvoiceRequest struct {
	CompanyID  uuid.UUID `json:"company_id"`
	Reference  string    `json:"reference"`
	ClientName string    `json:"client_name"`
	Date       time.Time `json:"date"`
	TotalHT    int64     `json:"total_ht_minor"`
	TotalTTC   int64     `json:"total_ttc_minor"`
	Status     string    `json:"status"`
}

type postExpenseRequest struct {
	CompanyID   uuid.UUID `json:"company_id"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Amount      int64     `json:"amount_minor"`
	Category    string    `json:"category"`
}

type postSupplierInvoiceRequest struct {
	CompanyID    uuid.UUID `json:"company_id"`
	SupplierName string    `json:"supplier_name"`
	Reference    string    `json:"reference"`
	Date         time.Time `json:"date"`
	Amount       int64     `json:"amount_minor"`
}

type postStatementRequest struct {
	CompanyID      uuid.UUID              `json:"company_id"`
	BankName       string                 `json:"bank_name"`
	AccountNumber  string                 `json:"account_number"`
	PeriodStart    time.Time              `json:"period_start"`
	PeriodEnd      time.Time              `json:"period_end"`
	OpeningBalance int64                  `json:"opening_balance_minor"`
	ClosingBalance int64                  `json:"closing_balance_minor"`
	Lines          []statementLineRequest `json:"lines"`
}

type statementLineRequest struct {
	LineNumber  int       `json:"line_number"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	AmountMinor int64     `json:"amount_minor"`
}

type matchLineRequest struct {
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
}

type ignoreLinesRequest struct {
	LineIDs []uuid.UUID `json:"line_ids"`
}

// Responses

type companyResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Country        string `json:"country"`
	Currency       string `json:"currency"`
	DefaultVATRate string `json:"default_vat_rate"`
	SIRET          string `json:"siret,omitempty"`
	VATNum         string `json:"vat_num,omitempty"`
}

func toCompanyResponse(c ledger.Company) companyResponse {
	return companyResponse{
		ID:             c.ID.String(),
		Name:           c.Name,
		Country:        string(c.Country),
		Currency:       c.Currency,
		DefaultVATRate: c.DefaultVATRate.String(),
		SIRET:          c.SIRET,
		VATNum:         c.VATNum,
	}
}

type accountResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Role     string `json:"role,omitempty"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:       a.ID.String(),
		Code:     a.Code,
		Name:     a.Name,
		Category: string(a.Category),
		Role:     string(a.Role),
	}
}

type entryResponse struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	Date          time.Time `json:"date"`
	DebitCode     string    `json:"debit_code"`
	CreditCode    string    `json:"credit_code"`
	AmountMinor   int64     `json:"amount_minor"`
	Currency      string    `json:"currency"`
	Description   string    `json:"description"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   string    `json:"reference_id"`
	JournalCode   string    `json:"journal_code"`
	JournalName   string    `json:"journal_name"`
}

func toEntryResponse(e ledger.JournalEntry) entryResponse {
	units, _ := e.Amount.MinorUnits()
	return entryResponse{
		ID:            e.ID.String(),
		CompanyID:     e.CompanyID.String(),
		Date:          e.Date,
		DebitCode:     e.DebitCode,
		CreditCode:    e.CreditCode,
		AmountMinor:   units,
		Currency:      e.Amount.Curr().Code(),
		Description:   e.Description,
		ReferenceType: string(e.ReferenceType),
		ReferenceID:   e.ReferenceID,
		JournalCode:   e.JournalCode,
		JournalName:   e.JournalName,
	}
}

func toEntryResponses(entries []ledger.JournalEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

type trialBalanceResponse struct {
	AsOf        time.Time                  `json:"as_of,omitempty"`
	Lines       []trialBalanceLineResponse `json:"lines"`
	TotalDebit  int64                      `json:"total_debit_minor"`
	TotalCredit int64                      `json:"total_credit_minor"`
	Balanced    bool                       `json:"balanced"`
}

type trialBalanceLineResponse struct {
	AccountCode  string `json:"account_code"`
	AccountName  string `json:"account_name"`
	TotalDebit   int64  `json:"total_debit_minor"`
	TotalCredit  int64  `json:"total_credit_minor"`
	BalanceMinor int64  `json:"balance_minor"`
}

func toTrialBalanceResponse(tb report.TrialBalance) trialBalanceResponse {
	lines := make([]trialBalanceLineResponse, 0, len(tb.Lines))
	for _, l := range tb.Lines {
		lines = append(lines, trialBalanceLineResponse{
			AccountCode:  l.AccountCode,
			AccountName:  l.AccountName,
			TotalDebit:   l.TotalDebit,
			TotalCredit:  l.TotalCredit,
			BalanceMinor: l.Balance,
		})
	}
	return trialBalanceResponse{
		AsOf:        tb.AsOf,
		Lines:       lines,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Balanced:    tb.Balanced,
	}
}

type taxSummaryResponse struct {
	Start             time.Time `json:"start,omitempty"`
	End               time.Time `json:"end,omitempty"`
	OutputVAT         int64     `json:"output_vat_minor"`
	EstimatedInputVAT int64     `json:"estimated_input_vat_minor"`
	VATPayable        int64     `json:"vat_payable_minor"`
	RevenueHT         int64     `json:"revenue_ht_minor"`
	TotalExpenses     int64     `json:"total_expenses_minor"`
	// The input VAT figure is derived from expense totals and the default
	// rate, not from per-expense tax breakdowns.
	Estimated bool `json:"estimated"`
}

func toTaxSummaryResponse(ts report.TaxSummary) taxSummaryResponse {
	return taxSummaryResponse{
		Start:             ts.Start,
		End:               ts.End,
		OutputVAT:         ts.OutputVAT,
		EstimatedInputVAT: ts.EstimatedInputVAT,
		VATPayable:        ts.VATPayable,
		RevenueHT:         ts.RevenueHT,
		TotalExpenses:     ts.TotalExpenses,
		Estimated:         true,
	}
}

type statementResponse struct {
	ID             string         `json:"id"`
	CompanyID      string         `json:"company_id"`
	BankName       string         `json:"bank_name,omitempty"`
	AccountNumber  string         `json:"account_number,omitempty"`
	PeriodStart    time.Time      `json:"period_start,omitempty"`
	PeriodEnd      time.Time      `json:"period_end,omitempty"`
	OpeningBalance int64          `json:"opening_balance_minor"`
	ClosingBalance int64          `json:"closing_balance_minor"`
	ParseStatus    string         `json:"parse_status"`
	LineCount      int            `json:"line_count"`
	Lines          []lineResponse `json:"lines,omitempty"`
}

func toStatementResponse(stmt ledger.BankStatement, lines []ledger.BankStatementLine) statementResponse {
	resp := statementResponse{
		ID:             stmt.ID.String(),
		CompanyID:      stmt.CompanyID.String(),
		BankName:       stmt.BankName,
		AccountNumber:  stmt.AccountNumber,
		PeriodStart:    stmt.PeriodStart,
		PeriodEnd:      stmt.PeriodEnd,
		OpeningBalance: stmt.OpeningBalance,
		ClosingBalance: stmt.ClosingBalance,
		ParseStatus:    string(stmt.ParseStatus),
		LineCount:      stmt.LineCount,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, toLineResponse(l))
	}
	return resp
}

type lineResponse struct {
	ID                string    `json:"id"`
	LineNumber        int       `json:"line_number"`
	Date              time.Time `json:"date"`
	Description       string    `json:"description"`
	AmountMinor       int64     `json:"amount_minor"`
	Status            string    `json:"status"`
	MatchedSourceType string    `json:"matched_source_type,omitempty"`
	MatchedSourceID   string    `json:"matched_source_id,omitempty"`
	MatchedBy         string    `json:"matched_by,omitempty"`
}

func toLineResponse(l ledger.BankStatementLine) lineResponse {
	return lineResponse{
		ID:                l.ID.String(),
		LineNumber:        l.LineNumber,
		Date:              l.Date,
		Description:       l.Description,
		AmountMinor:       l.Amount,
		Status:            string(l.Status),
		MatchedSourceType: string(l.MatchedSourceType),
		MatchedSourceID:   l.MatchedSourceID,
		MatchedBy:         string(l.MatchedBy),
	}
}

type importResponse struct {
	Statement statementResponse   `json:"statement"`
	Invalid   []lineErrorResponse `json:"invalid_lines,omitempty"`
}

type lineErrorResponse struct {
	LineNumber int    `json:"line_number"`
	Reason     string `json:"reason"`
}

func toImportResponse(res recon.ImportResult) importResponse {
	out := importResponse{Statement: toStatementResponse(res.Statement, res.Lines)}
	for _, e := range res.Invalid {
		out.Invalid = append(out.Invalid, lineErrorResponse{LineNumber: e.LineNumber, Reason: e.Reason})
	}
	return out
}

type summaryResponse struct {
	TotalLines     int     `json:"total_lines"`
	MatchedLines   int     `json:"matched_lines"`
	UnmatchedLines int     `json:"unmatched_lines"`
	IgnoredLines   int     `json:"ignored_lines"`
	MatchRate      float64 `json:"match_rate"`
	TotalCredits   int64   `json:"total_credits_minor"`
	TotalDebits    int64   `json:"total_debits_minor"`
	MatchedCredits int64   `json:"matched_credits_minor"`
	Difference     int64   `json:"difference_minor"`
}

func toSummaryResponse(sum recon.Summary) summaryResponse {
	return summaryResponse{
		TotalLines:     sum.TotalLines,
		MatchedLines:   sum.MatchedLines,
		UnmatchedLines: sum.UnmatchedLines,
		IgnoredLines:   sum.IgnoredLines,
		MatchRate:      sum.MatchRate,
		TotalCredits:   sum.TotalCredits,
		TotalDebits:    sum.TotalDebits,
		MatchedCredits: sum.MatchedCredits,
		Difference:     sum.Difference,
	}
}

type candidateResponse struct {
	SourceID    string    `json:"source_id"`
	SourceType  string    `json:"source_type"`
	Date        time.Time `json:"date"`
	AmountMinor int64     `json:"amount_minor"`
	Description string    `json:"description"`
	Score       float64   `json:"score"`
}

func toCandidateResponses(matches []recon.ScoredCandidate) []candidateResponse {
	out := make([]candidateResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, candidateResponse{
			SourceID:    m.Candidate.ID,
			SourceType:  string(m.Candidate.SourceType),
			Date:        m.Candidate.Date,
			AmountMinor: m.Candidate.Amount,
			Description: m.Candidate.Description,
			Score:       m.Score,
		})
	}
	return out
}

type autoMatchResponse struct {
	MatchedCount   int `json:"matched_count"`
	UnmatchedCount int `json:"unmatched_count"`
}
