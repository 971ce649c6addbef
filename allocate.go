package poolfolio

import (
	"fmt"
)

// longTermDays is the holding period above which a gain or loss is long
// term. The span is exclusive: exactly 365 days is still short term.
const longTermDays = 365

// LotSelection names one lot and the quantity to draw from it. Used with the
// SPECID method, where the caller picks the lots explicitly.
type LotSelection struct {
	LotID    string   `json:"lotId"`
	Quantity Quantity `json:"quantity"`
}

// AllocationPlan is the pure outcome of planning a sale: which pieces come
// out of which lots and the realized result. Nothing is mutated until the
// plan is committed, so a caller can preview it first.
type AllocationPlan struct {
	Owner    string          `json:"owner"`
	Symbol   string          `json:"symbol"`
	Method   CostBasisMethod `json:"method"`
	SaleDate Date            `json:"saleDate"`
	Quantity Quantity        `json:"quantity"`
	Price    Money           `json:"price"` // unit sell price

	Pieces []RealizedPiece `json:"pieces"`

	Proceeds  Money `json:"proceeds"`
	CostBasis Money `json:"costBasis"`
	GainLoss  Money `json:"gainLoss"`

	// Gains split by holding period, since one sale can span lots on both
	// sides of the long term boundary.
	ShortTermGainLoss Money `json:"shortTermGainLoss"`
	LongTermGainLoss  Money `json:"longTermGainLoss"`
}

// Allocate plans a sale of quantity shares at the given unit price against
// the holding's open lots. It is a pure computation: the passed lots are not
// modified, and no ledger state changes until the caller commits the plan.
//
// For FIFO, LIFO and HIFO the selections argument must be nil; for SpecID it
// names the exact lots to draw from, in order.
func Allocate(owner, symbol string, lots []Lot, method CostBasisMethod, saleDate Date, quantity Quantity, price Money, selections []LotSelection) (*AllocationPlan, error) {
	method, err := ParseCostBasisMethod(string(method))
	if err != nil {
		return nil, err
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("sale quantity must be positive, got %s", quantity)
	}

	// Work on copies so planning never leaks into the caller's lots.
	open := make([]Lot, 0, len(lots))
	total := Q(0)
	for _, lot := range lots {
		if lot.Open() {
			open = append(open, lot)
			total = total.Add(lot.Remaining)
		}
	}
	if total.LessThan(quantity) {
		return nil, fmt.Errorf("%w: open lots cover %s, sale wants %s of %s, check your import history",
			ErrInsufficientQuantity, total, quantity, symbol)
	}

	var pieces []RealizedPiece
	switch method {
	case FIFO:
		pieces, err = drain(sortLots(open, byAcquired), quantity)
	case LIFO:
		pieces, err = drain(sortLots(open, byAcquiredDesc), quantity)
	case HIFO:
		pieces, err = drain(sortLots(open, byUnitCostDesc), quantity)
	case SpecID:
		pieces, err = pick(open, quantity, selections)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	if err != nil {
		return nil, err
	}

	plan := &AllocationPlan{
		Owner:    owner,
		Symbol:   NormalizeSymbol(symbol),
		Method:   method,
		SaleDate: saleDate,
		Quantity: quantity,
		Price:    price,
	}
	for _, p := range pieces {
		p.Proceeds = price.Mul(p.Quantity)
		p.GainLoss = p.Proceeds.Sub(p.CostBasis)
		p.LongTerm = DaysBetween(p.Acquired, saleDate) > longTermDays
		plan.Pieces = append(plan.Pieces, p)

		plan.Proceeds = plan.Proceeds.Add(p.Proceeds)
		plan.CostBasis = plan.CostBasis.Add(p.CostBasis)
		plan.GainLoss = plan.GainLoss.Add(p.GainLoss)
		if p.LongTerm {
			plan.LongTermGainLoss = plan.LongTermGainLoss.Add(p.GainLoss)
		} else {
			plan.ShortTermGainLoss = plan.ShortTermGainLoss.Add(p.GainLoss)
		}
	}
	return plan, nil
}

// drain consumes the ordered lots front to back until the quantity is
// satisfied. Sufficiency was checked by the caller.
func drain(ordered []Lot, quantity Quantity) ([]RealizedPiece, error) {
	var pieces []RealizedPiece
	left := quantity
	for i := range ordered {
		if !left.IsPositive() {
			break
		}
		take := left.Min(ordered[i].Remaining)
		piece, err := ordered[i].Consume(take)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, piece)
		left = left.Sub(take)
	}
	return pieces, nil
}

// pick consumes exactly the lots the selections name. The selected
// quantities must sum to the sale quantity and fit within each lot's
// remaining quantity.
func pick(open []Lot, quantity Quantity, selections []LotSelection) ([]RealizedPiece, error) {
	if len(selections) == 0 {
		return nil, fmt.Errorf("%w: no lots selected", ErrSpecIDMismatch)
	}
	byID := make(map[string]*Lot, len(open))
	for i := range open {
		byID[open[i].ID] = &open[i]
	}

	sum := Q(0)
	for _, sel := range selections {
		sum = sum.Add(sel.Quantity)
	}
	if !sum.Equal(quantity) {
		return nil, fmt.Errorf("%w: selected %s, sale quantity is %s", ErrSpecIDMismatch, sum, quantity)
	}

	var pieces []RealizedPiece
	for _, sel := range selections {
		lot, ok := byID[sel.LotID]
		if !ok {
			return nil, fmt.Errorf("%w: lot %s is not open for this holding", ErrSpecIDMismatch, sel.LotID)
		}
		if !sel.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: selected quantity for lot %s must be positive, got %s", ErrSpecIDMismatch, sel.LotID, sel.Quantity)
		}
		if lot.Remaining.LessThan(sel.Quantity) {
			return nil, fmt.Errorf("%w: lot %s has %s left, selected %s", ErrSpecIDMismatch, sel.LotID, lot.Remaining, sel.Quantity)
		}
		piece, err := lot.Consume(sel.Quantity)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, piece)
	}
	return pieces, nil
}

// Selections converts a plan's pieces back into explicit selections, the
// form the ledger commit consumes.
func (p *AllocationPlan) Selections() []LotSelection {
	out := make([]LotSelection, 0, len(p.Pieces))
	for _, piece := range p.Pieces {
		out = append(out, LotSelection{LotID: piece.LotID, Quantity: piece.Quantity})
	}
	return out
}
