// Package renderer turns engine results into markdown reports for the CLI.
package renderer

import (
	"fmt"
	"strings"

	"github.com/poolfolio/poolfolio"
)

// GainsMarkdown renders a realized gains review.
func GainsMarkdown(review *poolfolio.GainsReview) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Realized Gains for %s from %s to %s\n\n", review.Owner, review.From, review.To)
	fmt.Fprintf(&b, "Method: %s\n\n", review.Method)

	if len(review.Sales) == 0 {
		fmt.Fprintln(&b, "No sales realized in this period.")
		return b.String()
	}

	fmt.Fprint(&b, "## Sales\n\n")
	fmt.Fprintln(&b, "| Date | Symbol | Quantity | Proceeds | Cost Basis | Gain/Loss | Wash |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|:---|")
	for _, sale := range review.Sales {
		wash := ""
		if sale.Wash.IsWashSale {
			wash = fmt.Sprintf("%s disallowed", sale.Wash.DisallowedLoss)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			sale.Sale.Date,
			sale.Sale.Symbol,
			sale.Plan.Quantity,
			sale.Plan.Proceeds,
			sale.Plan.CostBasis,
			sale.Plan.GainLoss.SignedString(),
			wash,
		)
	}

	fmt.Fprint(&b, "\n## Totals\n\n")
	fmt.Fprintln(&b, "| Short Term | Long Term | Total | Disallowed |")
	fmt.Fprintln(&b, "|---:|---:|---:|---:|")
	fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
		review.ShortTerm.SignedString(),
		review.LongTerm.SignedString(),
		review.Total.SignedString(),
		review.Disallowed,
	)

	for _, w := range review.Warnings {
		fmt.Fprintf(&b, "\n> ⚠️ %s\n", w)
	}
	return b.String()
}

// PlanMarkdown renders a sale preview, piece by piece.
func PlanMarkdown(result *poolfolio.SaleResult) string {
	var b strings.Builder
	plan := result.Plan

	fmt.Fprintf(&b, "# Sale Plan: %s x %s @ %s (%s)\n\n", plan.Quantity, plan.Symbol, plan.Price, plan.Method)

	fmt.Fprintln(&b, "| Lot | Acquired | Quantity | Cost Basis | Proceeds | Gain/Loss | Term |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|:---|")
	for _, piece := range plan.Pieces {
		term := "short"
		if piece.LongTerm {
			term = "long"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			piece.LotID, piece.Acquired, piece.Quantity, piece.CostBasis,
			piece.Proceeds, piece.GainLoss.SignedString(), term)
	}
	fmt.Fprintf(&b, "| **Total** | | **%s** | **%s** | **%s** | **%s** | |\n",
		plan.Quantity, plan.CostBasis, plan.Proceeds, plan.GainLoss.SignedString())

	if result.Wash.IsWashSale {
		fmt.Fprintf(&b, "\n> ⚠️ Wash sale: %s of the loss is disallowed (%s replacement shares in window).\n",
			result.Wash.DisallowedLoss, result.Wash.Replacement)
	}
	if result.Warning != nil {
		fmt.Fprintf(&b, "\n> ⚠️ %s\n", result.Warning)
	}
	return b.String()
}
