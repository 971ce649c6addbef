// Package store persists transactions and lots in a single sqlite file. It
// implements poolfolio.Store; the engine never talks to the database
// directly.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	_ "modernc.org/sqlite"

	"github.com/poolfolio/poolfolio"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id              TEXT PRIMARY KEY,
	date            TEXT NOT NULL,
	type            TEXT NOT NULL,
	symbol          TEXT NOT NULL,
	quantity        TEXT NOT NULL,
	price           TEXT NOT NULL,
	amount          TEXT NOT NULL,
	fees            TEXT NOT NULL,
	currency        TEXT NOT NULL DEFAULT '',
	memo            TEXT NOT NULL DEFAULT '',
	owner           TEXT NOT NULL DEFAULT '',
	duplicate       INTEGER NOT NULL DEFAULT 0,
	duplicate_of    TEXT NOT NULL DEFAULT '',
	duplicate_score INTEGER NOT NULL DEFAULT 0,
	wash_sale       INTEGER NOT NULL DEFAULT 0,
	disallowed_loss TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS lots (
	id        TEXT PRIMARY KEY,
	tx_id     TEXT NOT NULL REFERENCES transactions(id),
	owner     TEXT NOT NULL,
	symbol    TEXT NOT NULL,
	quantity  TEXT NOT NULL,
	remaining TEXT NOT NULL,
	cost      TEXT NOT NULL,
	currency  TEXT NOT NULL DEFAULT '',
	acquired  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_symbol_date ON transactions(symbol, date);
CREATE INDEX IF NOT EXISTS idx_transactions_owner ON transactions(owner);
CREATE INDEX IF NOT EXISTS idx_lots_holding ON lots(owner, symbol, acquired);
`

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the same queries serve both the plain store and a transactional view.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is a sqlite backed poolfolio.Store. Lot listings are cached briefly
// since the allocator reads the same holding several times per operation;
// any write to the holding drops its cache entry.
type DB struct {
	db    *sql.DB
	lots  *cache.Cache
	inner store // non transactional view
}

// Open opens (or creates) the sqlite database at path and ensures the
// schema exists. Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	d := &DB{db: db, lots: cache.New(30*time.Second, time.Minute)}
	d.inner = store{q: db, owner: d}
	return d, nil
}

// Close closes the underlying database.
func (d *DB) Close() error { return d.db.Close() }

// store is one view over a querier. Outside a transaction q is the *sql.DB;
// inside Update it is the *sql.Tx.
type store struct {
	q     querier
	owner *DB
	inTx  bool
}

var (
	_ poolfolio.Store = (*DB)(nil)
	_ poolfolio.Store = store{}
)

func (d *DB) Transaction(ctx context.Context, id string) (poolfolio.Transaction, error) {
	return d.inner.Transaction(ctx, id)
}

func (d *DB) Transactions(ctx context.Context, f poolfolio.TxFilter) ([]poolfolio.Transaction, error) {
	return d.inner.Transactions(ctx, f)
}

func (d *DB) SaveTransaction(ctx context.Context, tx poolfolio.Transaction) error {
	return d.inner.SaveTransaction(ctx, tx)
}

func (d *DB) DeleteTransaction(ctx context.Context, id string) error {
	return d.inner.DeleteTransaction(ctx, id)
}

func (d *DB) Lot(ctx context.Context, id string) (poolfolio.Lot, error) {
	return d.inner.Lot(ctx, id)
}

func (d *DB) Lots(ctx context.Context, owner, symbol string) ([]poolfolio.Lot, error) {
	return d.inner.Lots(ctx, owner, symbol)
}

func (d *DB) SaveLot(ctx context.Context, lot poolfolio.Lot) error {
	return d.inner.SaveLot(ctx, lot)
}

func (d *DB) DeleteLot(ctx context.Context, id string) error {
	return d.inner.DeleteLot(ctx, id)
}

// Update runs fn against a transactional view; its writes commit together
// or roll back together.
func (d *DB) Update(ctx context.Context, fn func(poolfolio.Store) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	view := store{q: tx, owner: d, inTx: true}
	if err := fn(view); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	// Writes inside the transaction bypassed per key invalidation.
	d.lots.Flush()
	return nil
}

// Update on a transactional view just runs fn: the enclosing transaction
// already provides atomicity.
func (s store) Update(ctx context.Context, fn func(poolfolio.Store) error) error {
	return fn(s)
}

func lotsKey(owner, symbol string) string { return owner + "/" + symbol }

// dropLots invalidates the cached listing for one holding.
func (s store) dropLots(owner, symbol string) {
	if s.inTx {
		return // Update flushes the whole cache on commit
	}
	s.owner.lots.Delete(lotsKey(owner, symbol))
}
