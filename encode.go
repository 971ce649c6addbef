package poolfolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeTransaction marshals a single transaction to JSON and writes it to
// the writer, followed by a newline, in JSONL format.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction %s: %w", tx.ID, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}

// EncodeTransactions persists transactions to an io.Writer in JSONL format,
// one canonical JSON object per line, ordered by date then id. The sort is
// stable so two exports of the same data are byte identical.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	for _, tx := range sorted {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTransactions reads a JSONL stream of transactions. Every decoded
// record is validated so malformed imports are rejected before any of them
// reaches the store.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	var out []Transaction
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}
		var tx Transaction
		if err := json.Unmarshal(line, &tx); err != nil {
			return nil, fmt.Errorf("could not decode line %q: %w", string(line), err)
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("invalid transaction in line %q: %w", string(line), err)
		}
		out = append(out, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return out, nil
}

// EncodeLots persists lots to an io.Writer in JSONL format, ordered by
// acquisition date then id.
func EncodeLots(w io.Writer, lots []Lot) error {
	for _, lot := range sortLots(lots, byAcquired) {
		data, err := json.Marshal(lot)
		if err != nil {
			return fmt.Errorf("failed to marshal lot %s: %w", lot.ID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write lot: %w", err)
		}
	}
	return nil
}

// DecodeLots reads a JSONL stream of lots.
func DecodeLots(r io.Reader) ([]Lot, error) {
	var out []Lot
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var lot Lot
		if err := json.Unmarshal(line, &lot); err != nil {
			return nil, fmt.Errorf("could not decode line %q: %w", string(line), err)
		}
		out = append(out, lot)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return out, nil
}
