package poolfolio

import (
	"context"
	"fmt"
	"log"
)

// Engine ties the ledger, the allocator and the two detectors to a Store.
// Every multi record mutation runs inside Store.Update so a sale and its
// consumed lots, or both sides of a duplicate pair, change together or not
// at all.
//
// The engine is safe to use concurrently across different (owner, symbol)
// holdings; callers must serialize operations within one holding because
// lot consumption order is meaningful.
type Engine struct {
	store Store
	dups  DuplicatePolicy
	wash  WashSaleRule
}

// NewEngine builds an engine with the default detector settings.
func NewEngine(store Store) *Engine {
	return &Engine{
		store: store,
		dups:  DefaultDuplicatePolicy(),
		wash:  DefaultWashSaleRule(),
	}
}

// WithDuplicatePolicy overrides the duplicate detector settings.
func (e *Engine) WithDuplicatePolicy(p DuplicatePolicy) *Engine {
	e.dups = p
	return e
}

// WithWashSaleRule overrides the wash sale window.
func (e *Engine) WithWashSaleRule(r WashSaleRule) *Engine {
	e.wash = r
	return e
}

// Store exposes the underlying store, mainly for listings.
func (e *Engine) Store() Store { return e.store }

// Record validates and persists a new transaction. Unclaimed transactions
// pass through the duplicate detector first; when a likely re-import is
// found, both sides are flagged in the same store update. Detection is
// advisory: a flagged transaction is still recorded.
func (e *Engine) Record(ctx context.Context, tx Transaction) (Transaction, []DuplicateMatch, error) {
	if err := tx.Validate(); err != nil {
		return tx, nil, err
	}

	var matches []DuplicateMatch
	err := e.store.Update(ctx, func(s Store) error {
		if !tx.Claimed() {
			pool, err := s.Transactions(ctx, TxFilter{
				Symbol:    tx.Symbol,
				Types:     []TxType{tx.Type},
				From:      tx.Date.Add(-e.dups.DayWindow),
				To:        tx.Date.Add(e.dups.DayWindow),
				Unclaimed: true,
			})
			if err != nil {
				return err
			}
			matches = e.dups.FindMatches(tx, pool)
			if len(matches) > 0 {
				best := matches[0]
				other, err := s.Transaction(ctx, best.MatchID)
				if err != nil {
					return err
				}
				flagPair(&tx, &other, best.Score)
				if err := s.SaveTransaction(ctx, other); err != nil {
					return err
				}
				log.Printf("duplicate suspected: %s", best)
			}
		}
		return s.SaveTransaction(ctx, tx)
	})
	if err != nil {
		return tx, nil, err
	}
	return tx, matches, nil
}

// flagPair marks both transactions as duplicates of each other with the
// shared score. The pairing is always bidirectional.
func flagPair(a, b *Transaction, score int) {
	a.Duplicate, b.Duplicate = true, true
	a.DuplicateOf, b.DuplicateOf = b.ID, a.ID
	a.DuplicateScore, b.DuplicateScore = score, score
}

// clearFlag removes the duplicate annotations from a transaction.
func clearFlag(t *Transaction) {
	t.Duplicate = false
	t.DuplicateOf = ""
	t.DuplicateScore = 0
}

// Claim assigns a pooled transaction to an owner. For acquisitions a new
// lot is opened in the same update. Disposals are claimed without touching
// lots; a later PlanSale/CommitSale consumes them with an explicit method.
func (e *Engine) Claim(ctx context.Context, txID, owner string) (Transaction, error) {
	if owner == "" {
		return Transaction{}, fmt.Errorf("owner is missing")
	}
	var claimed Transaction
	err := e.store.Update(ctx, func(s Store) error {
		tx, err := s.Transaction(ctx, txID)
		if err != nil {
			return err
		}
		if tx.Claimed() {
			return fmt.Errorf("%w: %s belongs to %s", ErrAlreadyClaimed, tx.ID, tx.Owner)
		}
		tx.Owner = owner
		if tx.Type.IsAcquisition() {
			lot, err := OpenLot(tx)
			if err != nil {
				return err
			}
			if err := s.SaveLot(ctx, lot); err != nil {
				return err
			}
		}
		if err := s.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		claimed = tx
		return nil
	})
	return claimed, err
}

// Unclaim returns a claimed transaction to the pool. For acquisitions the
// lot it opened must be untouched; unclaiming an acquisition whose lot was
// already partly sold would break lot conservation. A disposal is always
// returned to the pool, but when it was already committed the lots it
// consumed stay consumed, so the holding no longer reconciles; that
// divergence is logged here and reported by Reconcile until the sale is
// claimed again.
func (e *Engine) Unclaim(ctx context.Context, txID string) (Transaction, error) {
	var tx Transaction
	err := e.store.Update(ctx, func(s Store) error {
		var err error
		tx, err = s.Transaction(ctx, txID)
		if err != nil {
			return err
		}
		if !tx.Claimed() {
			return nil
		}
		owner := tx.Owner
		if tx.Type.IsAcquisition() {
			lots, err := s.Lots(ctx, owner, tx.Symbol)
			if err != nil {
				return err
			}
			for _, lot := range lots {
				if lot.TxID != tx.ID {
					continue
				}
				if !lot.Remaining.Equal(lot.Quantity) {
					return fmt.Errorf("cannot unclaim %s: lot %s already partly consumed", tx.ID, lot.ID)
				}
				if err := s.DeleteLot(ctx, lot.ID); err != nil {
					return err
				}
			}
		}
		tx.Owner = ""
		if err := s.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		if tx.Type.IsDisposal() {
			lots, err := s.Lots(ctx, owner, tx.Symbol)
			if err != nil {
				return err
			}
			history, err := s.Transactions(ctx, TxFilter{Owner: owner, Symbol: tx.Symbol})
			if err != nil {
				return err
			}
			if w := NewLedger(lots...).Reconcile(owner, tx.Symbol, history); w != nil {
				log.Printf("unclaimed a committed sale, reconciliation: %s", w)
			}
		}
		return nil
	})
	return tx, err
}

// PlanSale computes the allocation for a claimed sale without mutating
// anything, so the caller can preview the realized result and the wash sale
// evaluation before committing.
func (e *Engine) PlanSale(ctx context.Context, txID string, method CostBasisMethod, selections []LotSelection) (*SaleResult, error) {
	tx, err := e.store.Transaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	return e.planSale(ctx, e.store, tx, method, selections)
}

func (e *Engine) planSale(ctx context.Context, s Store, tx Transaction, method CostBasisMethod, selections []LotSelection) (*SaleResult, error) {
	if !tx.Type.IsDisposal() {
		return nil, fmt.Errorf("transaction %s is a %s, not a sale", tx.ID, tx.Type)
	}
	if !tx.Claimed() {
		return nil, fmt.Errorf("transaction %s must be claimed before selling", tx.ID)
	}

	lots, err := s.Lots(ctx, tx.Owner, tx.Symbol)
	if err != nil {
		return nil, err
	}
	price := tx.Price
	if price.IsZero() && !tx.Quantity.IsZero() {
		price = tx.Amount.Div(tx.Quantity)
	}
	plan, err := Allocate(tx.Owner, tx.Symbol, lots, method, tx.Date, tx.Quantity, price, selections)
	if err != nil {
		return nil, err
	}

	history, err := s.Transactions(ctx, TxFilter{Owner: tx.Owner, Symbol: tx.Symbol})
	if err != nil {
		return nil, err
	}
	wash := e.wash.Evaluate(tx, plan.GainLoss, history)
	return &SaleResult{Sale: tx, Plan: plan, Wash: wash}, nil
}

// SaleResult is the outcome of planning or committing one sale.
type SaleResult struct {
	Sale Transaction     `json:"sale"`
	Plan *AllocationPlan `json:"plan"`
	Wash WashSaleResult  `json:"wash"`

	// Warning is set when the holding no longer reconciles after commit.
	Warning *ReconciliationWarning `json:"warning,omitempty"`
}

// CommitSale re-plans the sale inside a single store update, consumes the
// planned lots and attaches the wash sale annotations to the sale record.
// The allocation runs again against live lot state so a stale preview can
// never over-consume a lot.
func (e *Engine) CommitSale(ctx context.Context, txID string, method CostBasisMethod, selections []LotSelection) (*SaleResult, error) {
	var result *SaleResult
	err := e.store.Update(ctx, func(s Store) error {
		tx, err := s.Transaction(ctx, txID)
		if err != nil {
			return err
		}
		result, err = e.planSale(ctx, s, tx, method, selections)
		if err != nil {
			return err
		}

		lots, err := s.Lots(ctx, tx.Owner, tx.Symbol)
		if err != nil {
			return err
		}
		ledger := NewLedger(lots...)
		for _, sel := range result.Plan.Selections() {
			if _, err := ledger.Consume(sel.LotID, sel.Quantity); err != nil {
				return err
			}
			lot, _ := ledger.Lot(sel.LotID)
			if err := s.SaveLot(ctx, lot); err != nil {
				return err
			}
		}

		tx.WashSale = result.Wash.IsWashSale
		tx.DisallowedLoss = result.Wash.DisallowedLoss
		if err := s.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		result.Sale = tx

		history, err := s.Transactions(ctx, TxFilter{Owner: tx.Owner, Symbol: tx.Symbol})
		if err != nil {
			return err
		}
		if w := ledger.Reconcile(tx.Owner, tx.Symbol, history); w != nil {
			result.Warning = w
			log.Printf("reconciliation: %s", w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a transaction. A claimed acquisition takes its untouched
// lot with it; deleting one whose lot was already partly sold is refused,
// the same guard Unclaim applies. When the transaction was half of a
// duplicate pair, the surviving side is re-evaluated: its reference is
// repointed to another match if one exists, cleared otherwise. A duplicate
// flag never points at a transaction that is gone.
func (e *Engine) Delete(ctx context.Context, txID string) error {
	return e.store.Update(ctx, func(s Store) error {
		tx, err := s.Transaction(ctx, txID)
		if err != nil {
			return err
		}
		if tx.Claimed() && tx.Type.IsAcquisition() {
			lots, err := s.Lots(ctx, tx.Owner, tx.Symbol)
			if err != nil {
				return err
			}
			for _, lot := range lots {
				if lot.TxID != tx.ID {
					continue
				}
				if !lot.Remaining.Equal(lot.Quantity) {
					return fmt.Errorf("cannot delete %s: lot %s already partly consumed", tx.ID, lot.ID)
				}
				if err := s.DeleteLot(ctx, lot.ID); err != nil {
					return err
				}
			}
		}
		if err := s.DeleteTransaction(ctx, tx.ID); err != nil {
			return err
		}
		if tx.DuplicateOf == "" {
			return nil
		}
		other, err := s.Transaction(ctx, tx.DuplicateOf)
		if err != nil {
			// The counterpart may itself be gone already.
			return nil
		}
		pool, err := s.Transactions(ctx, TxFilter{
			Symbol:    other.Symbol,
			Types:     []TxType{other.Type},
			From:      other.Date.Add(-e.dups.DayWindow),
			To:        other.Date.Add(e.dups.DayWindow),
			Unclaimed: true,
		})
		if err != nil {
			return err
		}
		if matches := e.dups.FindMatches(other, pool); len(matches) > 0 {
			best := matches[0]
			next, err := s.Transaction(ctx, best.MatchID)
			if err != nil {
				return err
			}
			flagPair(&other, &next, best.Score)
			if err := s.SaveTransaction(ctx, next); err != nil {
				return err
			}
		} else {
			clearFlag(&other)
		}
		return s.SaveTransaction(ctx, other)
	})
}

// ResolveDuplicate marks a flagged pair as legitimate, clearing the flags
// on both sides in one update. Resolving an unflagged transaction is a
// no-op.
func (e *Engine) ResolveDuplicate(ctx context.Context, txID string) error {
	return e.store.Update(ctx, func(s Store) error {
		tx, err := s.Transaction(ctx, txID)
		if err != nil {
			return err
		}
		counterpart := tx.DuplicateOf
		if !tx.Duplicate && counterpart == "" {
			return nil
		}
		clearFlag(&tx)
		if err := s.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		if counterpart == "" {
			return nil
		}
		other, err := s.Transaction(ctx, counterpart)
		if err != nil {
			return nil
		}
		if other.DuplicateOf != tx.ID {
			return nil
		}
		clearFlag(&other)
		return s.SaveTransaction(ctx, other)
	})
}

// Reconcile checks one holding against its claimed transaction history.
// A nil result means lot state and history agree.
func (e *Engine) Reconcile(ctx context.Context, owner, symbol string) (*ReconciliationWarning, error) {
	lots, err := e.store.Lots(ctx, owner, symbol)
	if err != nil {
		return nil, err
	}
	history, err := e.store.Transactions(ctx, TxFilter{Owner: owner, Symbol: symbol})
	if err != nil {
		return nil, err
	}
	return NewLedger(lots...).Reconcile(owner, symbol, history), nil
}

// ReviewDuplicates re-runs the detector over the whole unclaimed pool and
// returns every flagged pair, without mutating anything. Running it twice
// on unchanged data yields the same pairs.
func (e *Engine) ReviewDuplicates(ctx context.Context) ([]DuplicateMatch, error) {
	pool, err := e.store.Transactions(ctx, TxFilter{Unclaimed: true})
	if err != nil {
		return nil, err
	}
	var out []DuplicateMatch
	for i, tx := range pool {
		for _, m := range e.dups.FindMatches(tx, pool[i+1:]) {
			out = append(out, m)
		}
	}
	return out, nil
}
