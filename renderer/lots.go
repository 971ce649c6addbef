package renderer

import (
	"fmt"
	"strings"

	"github.com/poolfolio/poolfolio"
)

// LotsMarkdown renders the lot state of one holding.
func LotsMarkdown(owner, symbol string, lots []poolfolio.Lot, warning *poolfolio.ReconciliationWarning) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Lots for %s / %s\n\n", owner, symbol)
	if len(lots) == 0 {
		fmt.Fprintln(&b, "No lots.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Lot | Acquired | Quantity | Remaining | Cost Basis | Unit Cost |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|")
	total := poolfolio.Q(0)
	for _, lot := range lots {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			lot.ID, lot.Acquired, lot.Quantity, lot.Remaining, lot.Cost, lot.UnitCost())
		total = total.Add(lot.Remaining)
	}
	fmt.Fprintf(&b, "\nOpen position: %s\n", total)

	if warning != nil {
		fmt.Fprintf(&b, "\n> ⚠️ %s\n", warning)
	}
	return b.String()
}

// DuplicatesMarkdown renders the duplicate review queue.
func DuplicatesMarkdown(pool []poolfolio.Transaction, matches []poolfolio.DuplicateMatch) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Duplicate Review\n\n")
	if len(matches) == 0 {
		fmt.Fprintln(&b, "No likely duplicates in the unclaimed pool.")
		return b.String()
	}

	byID := make(map[string]poolfolio.Transaction, len(pool))
	for _, tx := range pool {
		byID[tx.ID] = tx
	}

	fmt.Fprintln(&b, "| Score | Transaction | Matches | Date | Symbol | Reasons |")
	fmt.Fprintln(&b, "|---:|:---|:---|:---|:---|:---|")
	for _, m := range matches {
		tx := byID[m.CandidateID]
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			m.Score, m.CandidateID, m.MatchID, tx.Date, tx.Symbol, strings.Join(m.Reasons, ", "))
	}
	fmt.Fprintln(&b, "\nReview each pair and delete the re-import with `pfl del`.")
	return b.String()
}
