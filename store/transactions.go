package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/poolfolio/poolfolio"
)

const txColumns = `id, date, type, symbol, quantity, price, amount, fees, currency,
	memo, owner, duplicate, duplicate_of, duplicate_score, wash_sale, disallowed_loss`

func (s store) Transaction(ctx context.Context, id string) (poolfolio.Transaction, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+txColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return poolfolio.Transaction{}, fmt.Errorf("%w: transaction %s", poolfolio.ErrNotFound, id)
	}
	return tx, err
}

func (s store) Transactions(ctx context.Context, f poolfolio.TxFilter) ([]poolfolio.Transaction, error) {
	query := "SELECT " + txColumns + " FROM transactions"
	var where []string
	var args []any
	if f.Owner != "" {
		where = append(where, "owner = ?")
		args = append(args, f.Owner)
	}
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, poolfolio.NormalizeSymbol(f.Symbol))
	}
	if f.Unclaimed {
		where = append(where, "owner = ''")
	}
	if len(f.Types) > 0 {
		marks := strings.Repeat("?,", len(f.Types))
		where = append(where, "type IN ("+marks[:len(marks)-1]+")")
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.String())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []poolfolio.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s store) SaveTransaction(ctx context.Context, tx poolfolio.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions (`+txColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			memo = excluded.memo,
			duplicate = excluded.duplicate,
			duplicate_of = excluded.duplicate_of,
			duplicate_score = excluded.duplicate_score,
			wash_sale = excluded.wash_sale,
			disallowed_loss = excluded.disallowed_loss`,
		tx.ID, tx.Date.String(), string(tx.Type), tx.Symbol,
		tx.Quantity.Value().String(), tx.Price.Value().String(),
		tx.Amount.Value().String(), tx.Fees.Value().String(), tx.Amount.Currency(),
		tx.Memo, tx.Owner, boolInt(tx.Duplicate), tx.DuplicateOf, tx.DuplicateScore,
		boolInt(tx.WashSale), tx.DisallowedLoss.Value().String())
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (s store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: transaction %s", poolfolio.ErrNotFound, id)
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (poolfolio.Transaction, error) {
	var tx poolfolio.Transaction
	var date, typ, quantity, price, amount, fees, currency, disallowed string
	var duplicate, washSale int
	err := row.Scan(&tx.ID, &date, &typ, &tx.Symbol, &quantity, &price, &amount, &fees,
		&currency, &tx.Memo, &tx.Owner, &duplicate, &tx.DuplicateOf, &tx.DuplicateScore,
		&washSale, &disallowed)
	if err != nil {
		return tx, err
	}
	if tx.Date, err = poolfolio.ParseDate(date); err != nil {
		return tx, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	if tx.Type, err = poolfolio.ParseTxType(typ); err != nil {
		return tx, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	q, err := parseDecimals(quantity, price, amount, fees, disallowed)
	if err != nil {
		return tx, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	tx.Quantity = poolfolio.Q(q[0])
	tx.Price = poolfolio.M(q[1], currency)
	tx.Amount = poolfolio.M(q[2], currency)
	tx.Fees = poolfolio.M(q[3], currency)
	tx.DisallowedLoss = poolfolio.M(q[4], currency)
	tx.Duplicate = duplicate == 1
	tx.WashSale = washSale == 1
	return tx, nil
}

func parseDecimals(values ...string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("bad decimal %q: %w", v, err)
		}
		out[i] = d
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
