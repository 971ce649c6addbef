package poolfolio

import (
	"fmt"
)

// Ledger holds the open lot state for any number of holdings. It is a plain
// in-memory structure: callers load the relevant lots from storage, mutate
// the ledger, and persist the result. Listing is always computed from the
// live lots so a consume in the middle of an allocation is visible to the
// next listing.
type Ledger struct {
	lots  map[string]*Lot
	order []string // insertion order, for stable iteration
}

// NewLedger builds a ledger over the given lots.
func NewLedger(lots ...Lot) *Ledger {
	l := &Ledger{lots: make(map[string]*Lot, len(lots))}
	for _, lot := range lots {
		l.Add(lot)
	}
	return l
}

// Add inserts or replaces a lot.
func (l *Ledger) Add(lot Lot) {
	if _, ok := l.lots[lot.ID]; !ok {
		l.order = append(l.order, lot.ID)
	}
	copied := lot
	l.lots[lot.ID] = &copied
}

// Open derives a lot from a claimed acquisition and records it.
func (l *Ledger) Open(tx Transaction) (Lot, error) {
	lot, err := OpenLot(tx)
	if err != nil {
		return Lot{}, err
	}
	l.Add(lot)
	return lot, nil
}

// Lot returns a copy of the lot with the given id.
func (l *Ledger) Lot(id string) (Lot, bool) {
	lot, ok := l.lots[id]
	if !ok {
		return Lot{}, false
	}
	return *lot, true
}

// Lots returns every lot for the holding, open or closed, ordered by
// acquisition date ascending.
func (l *Ledger) Lots(owner, symbol string) []Lot {
	symbol = NormalizeSymbol(symbol)
	var out []Lot
	for _, id := range l.order {
		lot := l.lots[id]
		if lot.Owner == owner && lot.Symbol == symbol {
			out = append(out, *lot)
		}
	}
	return sortLots(out, byAcquired)
}

// OpenLots returns the holding's lots that still have remaining quantity,
// ordered by acquisition date ascending.
func (l *Ledger) OpenLots(owner, symbol string) []Lot {
	var out []Lot
	for _, lot := range l.Lots(owner, symbol) {
		if lot.Open() {
			out = append(out, lot)
		}
	}
	return out
}

// Holding is the sum of remaining quantities across the holding's lots.
func (l *Ledger) Holding(owner, symbol string) Quantity {
	total := Q(0)
	for _, lot := range l.OpenLots(owner, symbol) {
		total = total.Add(lot.Remaining)
	}
	return total
}

// Consume reduces a lot's remaining quantity and returns the realized piece.
func (l *Ledger) Consume(lotID string, quantity Quantity) (RealizedPiece, error) {
	lot, ok := l.lots[lotID]
	if !ok {
		return RealizedPiece{}, fmt.Errorf("%w: lot %s", ErrNotFound, lotID)
	}
	if !lot.Open() {
		return RealizedPiece{}, fmt.Errorf("%w: lot %s", ErrLotConsumed, lotID)
	}
	return lot.Consume(quantity)
}

// ReconciliationWarning reports a divergence between lot state and the
// claimed transaction history. It signals a missing import, like a sale
// claimed before any acquisition; it is surfaced, never silently corrected.
type ReconciliationWarning struct {
	Owner       string
	Symbol      string
	LotQuantity Quantity // sum of remaining lot quantities
	NetQuantity Quantity // acquisitions minus disposals from history
}

func (w ReconciliationWarning) String() string {
	return fmt.Sprintf("holding %s/%s: lots carry %s but transaction history nets %s, check your import history",
		w.Owner, w.Symbol, w.LotQuantity, w.NetQuantity)
}

// Reconcile checks that the holding's remaining lot quantity matches the net
// quantity computed independently from the owner's claimed transactions in
// that symbol. A nil result means the holding reconciles.
func (l *Ledger) Reconcile(owner, symbol string, history []Transaction) *ReconciliationWarning {
	symbol = NormalizeSymbol(symbol)
	net := Q(0)
	for _, tx := range history {
		if tx.Owner != owner || tx.Symbol != symbol {
			continue
		}
		switch {
		case tx.Type.IsAcquisition():
			net = net.Add(tx.Quantity)
		case tx.Type.IsDisposal():
			net = net.Sub(tx.Quantity)
		}
	}
	held := l.Holding(owner, symbol)
	if held.Equal(net) {
		return nil
	}
	return &ReconciliationWarning{Owner: owner, Symbol: symbol, LotQuantity: held, NetQuantity: net}
}
