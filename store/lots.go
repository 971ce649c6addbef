package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/poolfolio/poolfolio"
)

const lotColumns = `id, tx_id, owner, symbol, quantity, remaining, cost, currency, acquired`

func (s store) Lot(ctx context.Context, id string) (poolfolio.Lot, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+lotColumns+" FROM lots WHERE id = ?", id)
	lot, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return poolfolio.Lot{}, fmt.Errorf("%w: lot %s", poolfolio.ErrNotFound, id)
	}
	return lot, err
}

func (s store) Lots(ctx context.Context, owner, symbol string) ([]poolfolio.Lot, error) {
	symbol = poolfolio.NormalizeSymbol(symbol)
	// The read cache only serves outside transactions: inside Update the
	// caller must see its own writes.
	if !s.inTx {
		if cached, ok := s.owner.lots.Get(lotsKey(owner, symbol)); ok {
			return slices.Clone(cached.([]poolfolio.Lot)), nil
		}
	}

	rows, err := s.q.QueryContext(ctx,
		"SELECT "+lotColumns+" FROM lots WHERE owner = ? AND symbol = ? ORDER BY acquired ASC, id ASC",
		owner, symbol)
	if err != nil {
		return nil, fmt.Errorf("query lots: %w", err)
	}
	defer rows.Close()

	var out []poolfolio.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !s.inTx {
		s.owner.lots.SetDefault(lotsKey(owner, symbol), slices.Clone(out))
	}
	return out, nil
}

func (s store) SaveLot(ctx context.Context, lot poolfolio.Lot) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO lots (`+lotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET remaining = excluded.remaining`,
		lot.ID, lot.TxID, lot.Owner, lot.Symbol,
		lot.Quantity.Value().String(), lot.Remaining.Value().String(),
		lot.Cost.Value().String(), lot.Cost.Currency(), lot.Acquired.String())
	if err != nil {
		return fmt.Errorf("save lot %s: %w", lot.ID, err)
	}
	s.dropLots(lot.Owner, lot.Symbol)
	return nil
}

func (s store) DeleteLot(ctx context.Context, id string) error {
	lot, err := s.Lot(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, "DELETE FROM lots WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete lot %s: %w", id, err)
	}
	s.dropLots(lot.Owner, lot.Symbol)
	return nil
}

func scanLot(row scanner) (poolfolio.Lot, error) {
	var lot poolfolio.Lot
	var quantity, remaining, cost, currency, acquired string
	err := row.Scan(&lot.ID, &lot.TxID, &lot.Owner, &lot.Symbol,
		&quantity, &remaining, &cost, &currency, &acquired)
	if err != nil {
		return lot, err
	}
	if lot.Acquired, err = poolfolio.ParseDate(acquired); err != nil {
		return lot, fmt.Errorf("lot %s: %w", lot.ID, err)
	}
	d, err := parseDecimals(quantity, remaining, cost)
	if err != nil {
		return lot, fmt.Errorf("lot %s: %w", lot.ID, err)
	}
	lot.Quantity = poolfolio.Q(d[0])
	lot.Remaining = poolfolio.Q(d[1])
	lot.Cost = poolfolio.M(d[2], currency)
	return lot, nil
}
