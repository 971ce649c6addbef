package poolfolio

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Duplicate scoring constants. The weights and threshold are carried over
// verbatim from the scoring scheme this detector implements; they are not
// tuned further.
const (
	scoreSameDate       = 40
	scoreAdjacentDate   = 25
	scoreSameQuantity   = 30
	scorePriceWithin1   = 30
	scorePriceWithin3   = 20
	DefaultDupThreshold = 80
	DefaultDupDayWindow = 3
)

// DuplicatePolicy scores transaction pairs for likely accidental
// re-imports. Threshold and window are injected so tests can exercise
// boundary values.
type DuplicatePolicy struct {
	// Threshold is the minimum score for a pair to be flagged.
	Threshold int
	// DayWindow bounds the candidate search: only transactions dated
	// within this many days of each other are compared.
	DayWindow int
}

// DefaultDuplicatePolicy returns the standard policy.
func DefaultDuplicatePolicy() DuplicatePolicy {
	return DuplicatePolicy{Threshold: DefaultDupThreshold, DayWindow: DefaultDupDayWindow}
}

// DuplicateMatch pairs a candidate with an existing transaction it likely
// re-imports. Reasons are for the review queue, the score alone decides.
type DuplicateMatch struct {
	CandidateID string   `json:"candidateId"`
	MatchID     string   `json:"matchId"`
	Score       int      `json:"score"`
	Reasons     []string `json:"reasons"`
}

// Score rates how likely a and b record the same real world trade. The
// score is additive over date proximity, quantity and price bands; pairs
// with different symbols or types, or dated further apart than the window,
// score zero outright.
func (p DuplicatePolicy) Score(a, b Transaction) (int, []string) {
	if a.Symbol != b.Symbol || a.Type != b.Type {
		return 0, nil
	}
	gap := DaysBetween(a.Date, b.Date)
	if gap < 0 {
		gap = -gap
	}
	if gap > p.DayWindow {
		return 0, nil
	}

	score := 0
	var reasons []string
	switch {
	case gap == 0:
		score += scoreSameDate
		reasons = append(reasons, "same date")
	case gap <= 1:
		score += scoreAdjacentDate
		reasons = append(reasons, "dates one day apart")
	}

	if a.Quantity.Equal(b.Quantity) {
		score += scoreSameQuantity
		reasons = append(reasons, "identical quantity")
	}

	switch {
	case priceWithin(a.Price, b.Price, 1):
		score += scorePriceWithin1
		reasons = append(reasons, "price within 1%")
	case priceWithin(a.Price, b.Price, 3):
		score += scorePriceWithin3
		reasons = append(reasons, "price within 3%")
	}

	// Near identical memos do not move the score, but they help a reviewer
	// decide, so they are reported as an extra reason.
	if memosAlike(a.Memo, b.Memo) {
		reasons = append(reasons, "memos nearly identical")
	}
	return score, reasons
}

// priceWithin reports whether the two prices differ by at most pct percent,
// relative to the larger of the two so the check is symmetric.
func priceWithin(a, b Money, pct int64) bool {
	base := a
	if b.GreaterThan(a) {
		base = b
	}
	if base.IsZero() {
		return a.Equal(b)
	}
	diff := a.Sub(b).Abs()
	limit := base.Mul(Q(pct)).Div(Q(100))
	return diff.LessThanOrEqual(limit)
}

// memosAlike reports whether two non empty memos are within a small edit
// distance of each other, relative to the longer memo.
func memosAlike(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	longest := max(len(a), len(b))
	return levenshtein.ComputeDistance(a, b)*5 <= longest
}

// FindMatches scores the candidate against every unclaimed existing
// transaction and returns the pairs at or above the threshold, best first.
// Claimed transactions are assumed reviewed and are never matched.
func (p DuplicatePolicy) FindMatches(candidate Transaction, existing []Transaction) []DuplicateMatch {
	var out []DuplicateMatch
	for _, tx := range existing {
		if tx.ID == candidate.ID || tx.Claimed() {
			continue
		}
		score, reasons := p.Score(candidate, tx)
		if score < p.Threshold {
			continue
		}
		out = append(out, DuplicateMatch{
			CandidateID: candidate.ID,
			MatchID:     tx.ID,
			Score:       score,
			Reasons:     reasons,
		})
	}
	slices.SortStableFunc(out, func(a, b DuplicateMatch) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return cmpString(a.MatchID, b.MatchID)
	})
	return out
}

func (m DuplicateMatch) String() string {
	return fmt.Sprintf("%s ~ %s (score %d: %s)", m.CandidateID, m.MatchID, m.Score, strings.Join(m.Reasons, ", "))
}
