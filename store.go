package poolfolio

import "context"

// TxFilter narrows a transaction listing. Zero fields match everything.
type TxFilter struct {
	Owner     string // exact owner, "" matches any
	Symbol    string // normalized symbol, "" matches any
	Types     []TxType
	From, To  Date // inclusive bounds, zero date is unbounded
	Unclaimed bool // only transactions without an owner
}

// Match reports whether the transaction passes the filter. Store
// implementations that filter in their query engine instead must agree with
// this definition.
func (f TxFilter) Match(tx Transaction) bool {
	if f.Owner != "" && tx.Owner != f.Owner {
		return false
	}
	if f.Symbol != "" && tx.Symbol != NormalizeSymbol(f.Symbol) {
		return false
	}
	if f.Unclaimed && tx.Claimed() {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if tx.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && tx.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && tx.Date.After(f.To) {
		return false
	}
	return true
}

// Store is the transaction and lot persistence the engine runs against. The
// engine never opens its own connections; it reads state ahead of a pure
// computation and writes the outcome back inside Update.
//
// Listings are ordered: transactions by date then id, lots by acquisition
// date then id.
type Store interface {
	Transaction(ctx context.Context, id string) (Transaction, error)
	Transactions(ctx context.Context, f TxFilter) ([]Transaction, error)
	SaveTransaction(ctx context.Context, tx Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	Lot(ctx context.Context, id string) (Lot, error)
	Lots(ctx context.Context, owner, symbol string) ([]Lot, error)
	SaveLot(ctx context.Context, lot Lot) error
	DeleteLot(ctx context.Context, id string) error

	// Update runs fn against a store view whose writes apply all or
	// nothing. Multi record mutations (a sale and its consumed lots, both
	// sides of a duplicate pair) always go through Update so partial
	// application cannot happen.
	Update(ctx context.Context, fn func(Store) error) error
}
