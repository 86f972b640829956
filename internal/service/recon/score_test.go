package recon

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptaflow/comptaflow/internal/ledger"
)

func day(d int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func TestFindMatches_AmountIsHardFilter(t *testing.T) {
	line := ledger.BankStatementLine{Date: day(0), Description: "EDF FACTURE 123", Amount: -8990}
	cands := []ledger.CandidateTransaction{
		{ID: "a", Date: day(0), Description: "EDF", Amount: -8990},
		{ID: "b", Date: day(0), Description: "EDF", Amount: -8991},
		{ID: "c", Date: day(0), Description: "EDF", Amount: 8990}, // wrong sign
	}
	matches := FindMatches(line, cands, DefaultWindowDays)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].Candidate.ID)
}

func TestFindMatches_ScoreAboveThresholdForUtilityBill(t *testing.T) {
	line := ledger.BankStatementLine{Date: day(0), Description: "PRLV EDF FACTURE 2026-03", Amount: -8990}
	cands := []ledger.CandidateTransaction{
		{ID: "edf", Date: day(2), Description: "EDF", Amount: -8990},
	}
	matches := FindMatches(line, cands, DefaultWindowDays)
	require.Len(t, matches, 1)
	// Same amount, 2 days apart, contained description: comfortably auto-matchable.
	assert.GreaterOrEqual(t, matches[0].Score, DefaultThreshold)
}

func TestFindMatches_PrefersCloserDate(t *testing.T) {
	line := ledger.BankStatementLine{Date: day(10), Description: "VIREMENT ACME", Amount: 144000}
	cands := []ledger.CandidateTransaction{
		{ID: "far", Date: day(40), Description: "INV-1 ACME", Amount: 144000},
		{ID: "near", Date: day(11), Description: "INV-2 ACME", Amount: 144000},
	}
	matches := FindMatches(line, cands, DefaultWindowDays)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].Candidate.ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestFindMatches_DeterministicTieBreak(t *testing.T) {
	line := ledger.BankStatementLine{Date: day(0), Description: "x", Amount: 100}
	cands := []ledger.CandidateTransaction{
		{ID: "b", Date: day(0), Description: "y", Amount: 100},
		{ID: "a", Date: day(0), Description: "y", Amount: 100},
	}
	m1 := FindMatches(line, cands, DefaultWindowDays)
	m2 := FindMatches(line, []ledger.CandidateTransaction{cands[1], cands[0]}, DefaultWindowDays)
	require.Len(t, m1, 2)
	assert.Equal(t, m1[0].Candidate.ID, m2[0].Candidate.ID)
	assert.Equal(t, "a", m1[0].Candidate.ID)
}

func TestFindMatches_AmountOnlyStaysBelowThreshold(t *testing.T) {
	// Same amount but 60+ days away and unrelated text: score is the bare
	// amount weight and must not auto-match.
	line := ledger.BankStatementLine{Date: day(0), Description: "CHQ 000123", Amount: -5000}
	cands := []ledger.CandidateTransaction{
		{ID: "x", Date: day(90), Description: "Fourniture bureau", Amount: -5000},
	}
	matches := FindMatches(line, cands, DefaultWindowDays)
	require.Len(t, matches, 1)
	assert.Less(t, matches[0].Score, DefaultThreshold)
}

func TestDateScore(t *testing.T) {
	assert.Equal(t, 1.0, dateScore(0, 60))
	assert.InDelta(t, 0.5, dateScore(30, 60), 1e-9)
	assert.Equal(t, 0.0, dateScore(60, 60))
	assert.Equal(t, 0.0, dateScore(600, 60))
}

func TestTextSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, textSimilarity("EDF FACTURE 123", "edf"))
	assert.Equal(t, 1.0, textSimilarity("VIR SEPA ACME SAS", "ACME SAS"))
	assert.Equal(t, 0.0, textSimilarity("", "anything"))
	assert.Equal(t, 0.0, textSimilarity("abc", "xyz"))
	// Token overlap: {acme, invoice} vs {acme, payment} shares 1 of 2.
	assert.InDelta(t, 0.5, textSimilarity("acme invoice", "acme payment"), 1e-9)
}

func TestNormalize_SignConvention(t *testing.T) {
	invoices := []ledger.Invoice{{ID: newUUID(t), Reference: "INV-1", ClientName: "ACME", Date: day(0), TotalHT: 1000, TotalTTC: 1200}}
	expenses := []ledger.Expense{{ID: newUUID(t), Description: "EDF", Date: day(1), Amount: 8990}}
	suppliers := []ledger.SupplierInvoice{{ID: newUUID(t), SupplierName: "OVH", Date: day(2), Amount: 2400}}

	cands := Normalize(invoices, expenses, suppliers)
	require.Len(t, cands, 3)
	assert.Equal(t, int64(1200), cands[0].Amount)
	assert.Equal(t, "INV-1 ACME", cands[0].Description)
	assert.Equal(t, ledger.SourceInvoice, cands[0].SourceType)
	assert.Equal(t, int64(-8990), cands[1].Amount)
	assert.Equal(t, ledger.SourceExpense, cands[1].SourceType)
	assert.Equal(t, int64(-2400), cands[2].Amount)
	assert.Equal(t, "OVH", cands[2].Description)
}
