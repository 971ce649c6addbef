package poolfolio

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// day is shorthand for a 2025 date in tests.
func day(month time.Month, d int) Date { return NewDate(2025, month, d) }

// testLot builds an open lot for alice's ACME holding.
func testLot(id string, acquired Date, qty, cost float64) Lot {
	return Lot{
		ID:        id,
		TxID:      "tx-" + id,
		Owner:     "alice",
		Symbol:    "ACME",
		Quantity:  Q(qty),
		Remaining: Q(qty),
		Cost:      M(cost, "USD"),
		Acquired:  acquired,
	}
}

// testTx builds a transaction with a deterministic id.
func testTx(id string, date Date, typ TxType, qty, price float64) Transaction {
	return Transaction{
		ID:       id,
		Date:     date,
		Type:     typ,
		Symbol:   "ACME",
		Quantity: Q(qty),
		Price:    M(price, "USD"),
		Amount:   M(qty*price, "USD"),
		Fees:     M(0, "USD"),
	}
}

// memStore is an in-memory Store for engine tests.
type memStore struct {
	txs  map[string]Transaction
	lots map[string]Lot
}

func newMemStore() *memStore {
	return &memStore{txs: make(map[string]Transaction), lots: make(map[string]Lot)}
}

func (m *memStore) Transaction(_ context.Context, id string) (Transaction, error) {
	tx, ok := m.txs[id]
	if !ok {
		return Transaction{}, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	return tx, nil
}

func (m *memStore) Transactions(_ context.Context, f TxFilter) ([]Transaction, error) {
	var out []Transaction
	for _, tx := range m.txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	slices.SortFunc(out, func(a, b Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return out, nil
}

func (m *memStore) SaveTransaction(_ context.Context, tx Transaction) error {
	m.txs[tx.ID] = tx
	return nil
}

func (m *memStore) DeleteTransaction(_ context.Context, id string) error {
	if _, ok := m.txs[id]; !ok {
		return fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	delete(m.txs, id)
	return nil
}

func (m *memStore) Lot(_ context.Context, id string) (Lot, error) {
	lot, ok := m.lots[id]
	if !ok {
		return Lot{}, fmt.Errorf("%w: lot %s", ErrNotFound, id)
	}
	return lot, nil
}

func (m *memStore) Lots(_ context.Context, owner, symbol string) ([]Lot, error) {
	symbol = NormalizeSymbol(symbol)
	var out []Lot
	for _, lot := range m.lots {
		if lot.Owner == owner && lot.Symbol == symbol {
			out = append(out, lot)
		}
	}
	return sortLots(out, byAcquired), nil
}

func (m *memStore) SaveLot(_ context.Context, lot Lot) error {
	m.lots[lot.ID] = lot
	return nil
}

func (m *memStore) DeleteLot(_ context.Context, id string) error {
	if _, ok := m.lots[id]; !ok {
		return fmt.Errorf("%w: lot %s", ErrNotFound, id)
	}
	delete(m.lots, id)
	return nil
}

func (m *memStore) Update(ctx context.Context, fn func(Store) error) error {
	return fn(m)
}
