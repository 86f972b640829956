package recon_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptaflow/comptaflow/internal/errs"
	"github.com/comptaflow/comptaflow/internal/ledger"
	"github.com/comptaflow/comptaflow/internal/service/recon"
	"github.com/comptaflow/comptaflow/internal/storage/memory"
)

func at(d int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func setup(t *testing.T) (context.Context, *memory.Store, recon.Service, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	companyID := uuid.New()
	return ctx, store, recon.New(store, store, recon.Options{}), companyID
}

func importLines(t *testing.T, ctx context.Context, svc recon.Service, companyID uuid.UUID, lines ...recon.LineImport) recon.ImportResult {
	t.Helper()
	res, err := svc.ImportStatement(ctx, companyID, recon.StatementImport{
		BankName:    "Test Bank",
		PeriodStart: at(0),
		PeriodEnd:   at(30),
		Lines:       lines,
	})
	require.NoError(t, err)
	return res
}

func TestImportStatement_InvalidLinesDoNotBlock(t *testing.T) {
	ctx, _, svc, companyID := setup(t)

	res := importLines(t, ctx, svc, companyID,
		recon.LineImport{LineNumber: 1, Date: at(1), Description: "ok", Amount: -100},
		recon.LineImport{LineNumber: 2, Description: "missing date", Amount: -200},
		recon.LineImport{LineNumber: 3, Date: at(3), Description: "zero amount"},
	)
	assert.Len(t, res.Lines, 1)
	require.Len(t, res.Invalid, 2)
	assert.Equal(t, 2, res.Invalid[0].LineNumber)
	assert.Equal(t, 3, res.Invalid[1].LineNumber)
	assert.Equal(t, 1, res.Statement.LineCount)
	for _, l := range res.Lines {
		assert.Equal(t, ledger.LineUnmatched, l.Status)
	}
}

func TestAutoMatch_ClaimsCandidateOnce(t *testing.T) {
	ctx, store, svc, companyID := setup(t)

	// One expense, two identical statement lines: only one may match.
	_, err := store.CreateExpense(ctx, ledger.Expense{
		ID: uuid.New(), CompanyID: companyID, Description: "EDF", Date: at(5), Amount: 8990,
	})
	require.NoError(t, err)

	res := importLines(t, ctx, svc, companyID,
		recon.LineImport{LineNumber: 1, Date: at(5), Description: "PRLV EDF", Amount: -8990},
		recon.LineImport{LineNumber: 2, Date: at(5), Description: "PRLV EDF", Amount: -8990},
	)

	out, err := svc.AutoMatch(ctx, companyID, res.Statement.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.MatchedCount)
	assert.Equal(t, 1, out.UnmatchedCount)

	lines, err := store.LinesByStatement(ctx, res.Statement.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.LineMatched, lines[0].Status)
	assert.Equal(t, ledger.MatchedAuto, lines[0].MatchedBy)
	assert.Equal(t, ledger.LineUnmatched, lines[1].Status)
}

func TestAutoMatch_SkipsAlreadyMatchedCandidates(t *testing.T) {
	ctx, store, svc, companyID := setup(t)

	exp := ledger.Expense{ID: uuid.New(), CompanyID: companyID, Description: "OVH", Date: at(2), Amount: 2400}
	_, err := store.CreateExpense(ctx, exp)
	require.NoError(t, err)

	res := importLines(t, ctx, svc, companyID,
		recon.LineImport{LineNumber: 1, Date: at(2), Description: "OVH SAS", Amount: -2400},
		recon.LineImport{LineNumber: 2, Date: at(2), Description: "OVH SAS", Amount: -2400},
	)

	// Manually match line 1 to the expense, then run auto-match: line 2 must
	// not steal the same candidate.
	_, err = svc.MatchLine(ctx, res.Lines[0].ID, ledger.SourceExpense, exp.ID.String())
	require.NoError(t, err)

	out, err := svc.AutoMatch(ctx, companyID, res.Statement.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, out.MatchedCount)
	assert.Equal(t, 1, out.UnmatchedCount)
}

func TestAutoMatch_BelowThresholdStaysUnmatched(t *testing.T) {
	ctx, store, svc, companyID := setup(t)

	// Amount matches but the date is far outside the window and the text is
	// unrelated: score 0.5 < threshold.
	_, err := store.CreateExpense(ctx, ledger.Expense{
		ID: uuid.New(), CompanyID: companyID, Description: "Fournitures", Date: at(120), Amount: 5000,
	})
	require.NoError(t, err)

	res := importLines(t, ctx, svc, companyID,
		recon.LineImport{LineNumber: 1, Date: at(0), Description: "CHQ 42", Amount: -5000},
	)
	out, err := svc.AutoMatch(ctx, companyID, res.Statement.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, out.MatchedCount)
	assert.Equal(t, 1, out.UnmatchedCount)
}

func TestLineLifecycle(t *testing.T) {
	ctx, _, svc, companyID := setup(t)

	res := importLines(t, ctx, svc, companyID,
		recon.LineImport{LineNumber: 1, Date: at(1), Description: "a", Amount: -100},
	)
	lineID := res.Lines[0].ID

	// unmatched -> ignored
	line, err := svc.IgnoreLine(ctx, lineID)
	require.NoError(t, err)
	assert.Equal(t, ledger.LineIgnored, line.Status)

	// ignored -> matched is forbidden; must pass through unmatched.
	_, err = svc.MatchLine(ctx, lineID, ledger.SourceManual, "x")
	require.ErrorIs(t, err, errs.ErrInvalidTransition)

	// ignored -> unmatched -> matched
	line, err = svc.UnmatchLine(ctx, lineID)
	require.NoError(t, err)
	assert.Equal(t, ledger.LineUnmatched, line.Status)

	line, err = svc.MatchLine(ctx, lineID, ledger.SourceManual, "x")
	require.NoError(t, err)
	assert.Equal(t, ledger.LineMatched, line.Status)
	assert.Equal(t, ledger.MatchedManual, line.MatchedBy)

	// matched -> ignored is forbidden too.
	_, err = svc.IgnoreLine(ctx, lineID)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)

	// Unmatch clears the match fields.
	line, err = svc.UnmatchLine(ctx, lineID)
	require.NoError(t, err)
	assert.Empty(t, line.MatchedSourceID)
	assert.Empty(t, string(line.MatchedBy))
}

func TestIgnoreLines_SkipsNonUnmatched(t *testing.T) {
	ctx, _, svc, companyID := setup(t)

	res := importLines(t, ctx, svc, companyID,
		recon.LineImport{LineNumber: 1, Date: at(1), Description: "a", Amount: -100},
		recon.LineImport{LineNumber: 2, Date: at(2), Description: "b", Amount: -200},
		recon.LineImport{LineNumber: 3, Date: at(3), Description: "c", Amount: -300},
	)
	_, err := svc.MatchLine(ctx, res.Lines[0].ID, ledger.SourceManual, "x")
	require.NoError(t, err)

	ids := []uuid.UUID{res.Lines[0].ID, res.Lines[1].ID, res.Lines[2].ID}
	n, err := svc.IgnoreLines(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSummary_PartitionInvariant(t *testing.T) {
	ctx, _, svc, companyID := setup(t)

	res := importLines(t, ctx, svc, companyID,
		recon.LineImport{LineNumber: 1, Date: at(1), Description: "in", Amount: 5000},
		recon.LineImport{LineNumber: 2, Date: at(2), Description: "out", Amount: -2000},
		recon.LineImport{LineNumber: 3, Date: at(3), Description: "out2", Amount: -1000},
	)
	_, err := svc.MatchLine(ctx, res.Lines[0].ID, ledger.SourceManual, "x")
	require.NoError(t, err)
	_, err = svc.IgnoreLine(ctx, res.Lines[2].ID)
	require.NoError(t, err)

	sum, err := svc.StatementSummary(ctx, companyID, res.Statement.ID)
	require.NoError(t, err)
	assert.Equal(t, sum.TotalLines, sum.MatchedLines+sum.UnmatchedLines+sum.IgnoredLines)
	assert.Equal(t, 3, sum.TotalLines)
	assert.Equal(t, 1, sum.MatchedLines)
	assert.Equal(t, 1, sum.UnmatchedLines)
	assert.Equal(t, 1, sum.IgnoredLines)
	assert.InDelta(t, 1.0/3.0, sum.MatchRate, 1e-9)
	assert.Equal(t, int64(5000), sum.TotalCredits)
	assert.Equal(t, int64(3000), sum.TotalDebits)
	assert.Equal(t, int64(5000), sum.MatchedCredits)
	// Only line 2 is still unmatched.
	assert.Equal(t, int64(-2000), sum.Difference)
}

func TestMatches_ReturnsScoredCandidates(t *testing.T) {
	ctx, store, svc, companyID := setup(t)

	inv := ledger.Invoice{
		ID: uuid.New(), CompanyID: companyID, Reference: "INV-7",
		ClientName: "ACME", Date: at(3), TotalHT: 120000, TotalTTC: 144000,
	}
	_, err := store.CreateInvoice(ctx, inv)
	require.NoError(t, err)

	res := importLines(t, ctx, svc, companyID,
		recon.LineImport{LineNumber: 1, Date: at(4), Description: "VIR ACME", Amount: 144000},
	)
	matches, err := svc.Matches(ctx, companyID, res.Statement.ID, res.Lines[0].ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, inv.ID.String(), matches[0].Candidate.ID)
	assert.GreaterOrEqual(t, matches[0].Score, recon.DefaultThreshold)
}

func TestMatches_UnknownStatement(t *testing.T) {
	ctx, _, svc, companyID := setup(t)
	_, err := svc.Matches(ctx, companyID, uuid.New(), uuid.New())
	require.ErrorIs(t, err, errs.ErrNotFound)
}
