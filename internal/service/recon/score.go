package recon

import (
	"sort"
	"strings"
	"time"

	"github.com/comptaflow/comptaflow/internal/ledger"
)

// Scoring weights. Amount correctness is a hard filter, so every surviving
// candidate starts at amountWeight; date proximity and text similarity
// separate candidates with the same amount.
const (
	amountWeight = 0.5
	dateWeight   = 0.3
	textWeight   = 0.2

	// DefaultThreshold is the minimum score auto-match will commit. An
	// amount-only match (0.5) stays below it and falls to manual review.
	DefaultThreshold = 0.65
	// DefaultWindowDays caps the date-proximity decay.
	DefaultWindowDays = 60
)

// ScoredCandidate pairs a candidate with its match score for one line.
type ScoredCandidate struct {
	Candidate ledger.CandidateTransaction
	Score     float64
}

// FindMatches scores candidates against a statement line and returns them
// sorted by descending score. Candidates whose amount differs from the line's
// (sign included) are excluded outright, never merely down-scored. Ties break
// on smaller date distance, then candidate ID, so ordering is deterministic.
func FindMatches(line ledger.BankStatementLine, candidates []ledger.CandidateTransaction, windowDays int) []ScoredCandidate {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	out := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Amount != line.Amount {
			continue
		}
		days := dayDistance(line.Date, c.Date)
		score := amountWeight + dateWeight*dateScore(days, windowDays) + textWeight*textSimilarity(line.Description, c.Description)
		out = append(out, ScoredCandidate{Candidate: c, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		di := dayDistance(line.Date, out[i].Candidate.Date)
		dj := dayDistance(line.Date, out[j].Candidate.Date)
		if di != dj {
			return di < dj
		}
		return out[i].Candidate.ID < out[j].Candidate.ID
	})
	return out
}

// dateScore decays linearly from 1 at zero distance to 0 at the window edge.
func dateScore(days, windowDays int) float64 {
	if days >= windowDays {
		return 0
	}
	return 1 - float64(days)/float64(windowDays)
}

func dayDistance(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// textSimilarity compares descriptions case-insensitively: full weight when
// one normalized string contains the other, otherwise the token overlap ratio
// against the smaller token set.
func textSimilarity(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 1
	}
	ta, tb := tokens(na), tokens(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	common := 0
	for _, t := range tb {
		if set[t] {
			common++
			delete(set, t)
		}
	}
	smaller := len(ta)
	if len(tb) < smaller {
		smaller = len(tb)
	}
	return float64(common) / float64(smaller)
}

// normalizeText lowercases and collapses everything outside [a-z0-9] to
// single spaces.
func normalizeText(s string) string {
	var b strings.Builder
	prevSpace := true
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevSpace = false
		} else if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func tokens(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
