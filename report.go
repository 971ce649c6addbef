package poolfolio

import (
	"context"
	"errors"
	"fmt"
)

// RealizedSale is one sale inside a gains review.
type RealizedSale struct {
	Sale Transaction     `json:"sale"`
	Plan *AllocationPlan `json:"plan"`
	Wash WashSaleResult  `json:"wash"`
}

// GainsReview is the realized gain picture for one owner over a period,
// rebuilt by replaying the owner's claimed transactions through a fresh
// ledger. It is independent of stored lot state, which makes it a useful
// cross check against the live ledger.
type GainsReview struct {
	Owner    string          `json:"owner"`
	Method   CostBasisMethod `json:"method"`
	From, To Date            `json:"-"`

	Sales []RealizedSale `json:"sales"`

	ShortTerm  Money `json:"shortTerm"`
	LongTerm   Money `json:"longTerm"`
	Total      Money `json:"total"`
	Disallowed Money `json:"disallowed"` // wash sale losses, advisory

	Warnings []ReconciliationWarning `json:"warnings,omitempty"`
}

// Review replays the owner's full claimed history with the given method and
// reports the sales realized inside [from, to]. Sales the history cannot
// cover are reported as warnings rather than aborting the whole review.
func (e *Engine) Review(ctx context.Context, owner string, from, to Date, method CostBasisMethod) (*GainsReview, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner is missing")
	}
	method, err := ParseCostBasisMethod(string(method))
	if err != nil {
		return nil, err
	}
	// Replayed sales carry no lot selections, so specific identification
	// cannot drive a review.
	if method == SpecID {
		return nil, fmt.Errorf("gains review supports FIFO, LIFO and HIFO, not %s", SpecID)
	}
	history, err := e.store.Transactions(ctx, TxFilter{Owner: owner})
	if err != nil {
		return nil, err
	}

	review := &GainsReview{Owner: owner, Method: method, From: from, To: to}
	ledger := NewLedger()
	for _, tx := range history {
		switch {
		case tx.Type.IsAcquisition():
			if _, err := ledger.Open(tx); err != nil {
				return nil, fmt.Errorf("replaying %s: %w", tx.ID, err)
			}
		case tx.Type.IsDisposal():
			sale, ok, err := e.replaySale(ledger, tx, method, history)
			if err != nil {
				return nil, err
			}
			if !ok {
				review.Warnings = append(review.Warnings, ReconciliationWarning{
					Owner:       owner,
					Symbol:      tx.Symbol,
					LotQuantity: ledger.Holding(owner, tx.Symbol),
					NetQuantity: tx.Quantity,
				})
				continue
			}
			if inPeriod(tx.Date, from, to) {
				review.Sales = append(review.Sales, sale)
				review.ShortTerm = review.ShortTerm.Add(sale.Plan.ShortTermGainLoss)
				review.LongTerm = review.LongTerm.Add(sale.Plan.LongTermGainLoss)
				review.Total = review.Total.Add(sale.Plan.GainLoss)
				review.Disallowed = review.Disallowed.Add(sale.Wash.DisallowedLoss)
			}
		}
	}
	return review, nil
}

// replaySale allocates one historical sale against the replay ledger and
// commits the consumption so later sales see the reduced lots. A sale the
// lots cannot cover returns ok=false.
func (e *Engine) replaySale(ledger *Ledger, tx Transaction, method CostBasisMethod, history []Transaction) (RealizedSale, bool, error) {
	lots := ledger.OpenLots(tx.Owner, tx.Symbol)
	price := tx.Price
	if price.IsZero() && !tx.Quantity.IsZero() {
		price = tx.Amount.Div(tx.Quantity)
	}
	plan, err := Allocate(tx.Owner, tx.Symbol, lots, method, tx.Date, tx.Quantity, price, nil)
	if err != nil {
		if errors.Is(err, ErrInsufficientQuantity) {
			return RealizedSale{}, false, nil
		}
		return RealizedSale{}, false, fmt.Errorf("replaying %s: %w", tx.ID, err)
	}
	for _, sel := range plan.Selections() {
		if _, err := ledger.Consume(sel.LotID, sel.Quantity); err != nil {
			return RealizedSale{}, false, fmt.Errorf("replaying %s: %w", tx.ID, err)
		}
	}
	wash := e.wash.Evaluate(tx, plan.GainLoss, history)
	return RealizedSale{Sale: tx, Plan: plan, Wash: wash}, true, nil
}

func inPeriod(d, from, to Date) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}
