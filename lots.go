package poolfolio

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Lot is a discrete acquisition tracked separately for cost basis purposes.
// It is opened by a claimed buy or transfer-in and consumed, possibly across
// several sales, until its remaining quantity reaches zero. A fully consumed
// lot is kept for audit, never deleted.
type Lot struct {
	ID        string   `json:"id"`
	TxID      string   `json:"txId"` // originating acquisition
	Owner     string   `json:"owner"`
	Symbol    string   `json:"symbol"`
	Quantity  Quantity `json:"quantity"`  // original quantity, fixed
	Remaining Quantity `json:"remaining"` // never above Quantity, floor 0
	Cost      Money    `json:"cost"`      // amount plus fees for the whole lot
	Acquired  Date     `json:"acquired"`
}

// OpenLot derives a fresh lot from a claimed acquisition. It fails with
// ErrInvalidAcquisition when the transaction cannot back a lot.
func OpenLot(tx Transaction) (Lot, error) {
	if !tx.Type.IsAcquisition() {
		return Lot{}, fmt.Errorf("%w: %s is not an acquisition", ErrInvalidAcquisition, tx.Type)
	}
	if !tx.Quantity.IsPositive() {
		return Lot{}, fmt.Errorf("%w: quantity %s is not positive", ErrInvalidAcquisition, tx.Quantity)
	}
	if !tx.Claimed() {
		return Lot{}, fmt.Errorf("%w: transaction %s is unclaimed", ErrInvalidAcquisition, tx.ID)
	}
	return Lot{
		ID:        uuid.NewString(),
		TxID:      tx.ID,
		Owner:     tx.Owner,
		Symbol:    tx.Symbol,
		Quantity:  tx.Quantity,
		Remaining: tx.Quantity,
		Cost:      tx.CostBasis(),
		Acquired:  tx.Date,
	}, nil
}

// UnitCost is the per share acquisition cost, computed against the original
// quantity so partial consumption does not change it.
func (l Lot) UnitCost() Money { return l.Cost.Div(l.Quantity) }

// Open reports whether the lot still has quantity to consume.
func (l Lot) Open() bool { return l.Remaining.IsPositive() }

// Consume reduces the lot's remaining quantity and returns the realized
// piece carved out of it. The piece's cost basis is proportional to the
// lot's original cost.
func (l *Lot) Consume(quantity Quantity) (RealizedPiece, error) {
	if !quantity.IsPositive() {
		return RealizedPiece{}, fmt.Errorf("consume quantity must be positive, got %s", quantity)
	}
	if l.Remaining.LessThan(quantity) {
		return RealizedPiece{}, fmt.Errorf("%w: lot %s has %s left, want %s", ErrInsufficientLotQuantity, l.ID, l.Remaining, quantity)
	}
	l.Remaining = l.Remaining.Sub(quantity)
	return RealizedPiece{
		LotID:     l.ID,
		Quantity:  quantity,
		CostBasis: l.Cost.Mul(quantity).Div(l.Quantity),
		Acquired:  l.Acquired,
	}, nil
}

// MarshalJSON implements the json.Marshaler interface for Lot.
func (l Lot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", l.ID)
	w.Append("txId", l.TxID)
	w.Append("owner", l.Owner)
	w.Append("symbol", l.Symbol)
	w.Append("quantity", l.Quantity)
	w.Append("remaining", l.Remaining)
	w.Append("cost", l.Cost)
	w.Append("acquired", l.Acquired)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Lot.
func (l *Lot) UnmarshalJSON(data []byte) error {
	type plain Lot
	var temp plain
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*l = Lot(temp)
	return nil
}

// RealizedPiece is the share of a sale drawn from one lot, with its own cost
// basis and holding period.
type RealizedPiece struct {
	LotID     string   `json:"lotId"`
	Quantity  Quantity `json:"quantity"`
	CostBasis Money    `json:"costBasis"`
	Acquired  Date     `json:"acquired"`

	// Proceeds and GainLoss are filled by the allocator once the sale price
	// is known.
	Proceeds Money `json:"proceeds"`
	GainLoss Money `json:"gainLoss"`
	LongTerm bool  `json:"longTerm,omitempty"`
}

// byAcquired orders lots by acquisition date ascending, the order the ledger
// lists them in.
func byAcquired(a, b Lot) int {
	if c := a.Acquired.Compare(b.Acquired); c != 0 {
		return c
	}
	// same day lots fall back to id so the order is stable
	return cmpString(a.ID, b.ID)
}

// byAcquiredDesc orders lots by acquisition date descending.
func byAcquiredDesc(a, b Lot) int { return byAcquired(b, a) }

// byUnitCostDesc orders lots by per unit cost descending, ties broken by
// ascending acquisition date so the oldest highest-cost lot goes first.
func byUnitCostDesc(a, b Lot) int {
	ua, ub := a.UnitCost(), b.UnitCost()
	switch {
	case ua.GreaterThan(ub):
		return -1
	case ub.GreaterThan(ua):
		return 1
	}
	return byAcquired(a, b)
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func sortLots(lots []Lot, cmp func(a, b Lot) int) []Lot {
	sorted := slices.Clone(lots)
	slices.SortStableFunc(sorted, cmp)
	return sorted
}
