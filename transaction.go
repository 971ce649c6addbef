package poolfolio

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TxType is a typed string for identifying transaction kinds.
type TxType string

// Transaction types understood by the engine.
const (
	TxBuy         TxType = "buy"
	TxSell        TxType = "sell"
	TxDividend    TxType = "dividend"
	TxTransferIn  TxType = "transfer-in"
	TxTransferOut TxType = "transfer-out"
)

// ParseTxType validates a transaction type string at the boundary so the
// engine never sees an unknown kind.
func ParseTxType(s string) (TxType, error) {
	switch t := TxType(strings.ToLower(strings.TrimSpace(s))); t {
	case TxBuy, TxSell, TxDividend, TxTransferIn, TxTransferOut:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTxType, s)
	}
}

// IsAcquisition reports whether the type opens a lot when claimed.
func (t TxType) IsAcquisition() bool { return t == TxBuy || t == TxTransferIn }

// IsDisposal reports whether the type consumes lots when claimed.
func (t TxType) IsDisposal() bool { return t == TxSell || t == TxTransferOut }

// Transaction is a single imported or hand entered trade record. The trade
// fields (date, type, symbol, quantity, price, amount, fees) are immutable
// once recorded; the owner, duplicate and wash sale fields are annotations
// the engine maintains.
type Transaction struct {
	ID       string   `json:"id"`
	Date     Date     `json:"date"`
	Type     TxType   `json:"type"`
	Symbol   string   `json:"symbol"`
	Quantity Quantity `json:"quantity"`
	Price    Money    `json:"price"`  // unit price
	Amount   Money    `json:"amount"` // gross amount, excluding fees
	Fees     Money    `json:"fees"`
	Memo     string   `json:"memo,omitempty"`

	// Owner is empty while the transaction sits in the family pool. Claiming
	// assigns it to one member's personal ledger.
	Owner string `json:"owner,omitempty"`

	// Duplicate annotations, maintained pairwise by the engine.
	Duplicate      bool   `json:"duplicate,omitempty"`
	DuplicateOf    string `json:"duplicateOf,omitempty"`
	DuplicateScore int    `json:"duplicateScore,omitempty"`

	// Wash sale annotations, attached to loss sales for display.
	WashSale       bool  `json:"washSale,omitempty"`
	DisallowedLoss Money `json:"disallowedLoss,omitempty"`
}

// NewTransaction creates a transaction with a fresh id and a normalized
// symbol. The amount is the gross trade value, fees come on top.
func NewTransaction(day Date, typ TxType, symbol string, quantity Quantity, price, amount, fees Money, memo string) Transaction {
	return Transaction{
		ID:       uuid.NewString(),
		Date:     day,
		Type:     typ,
		Symbol:   NormalizeSymbol(symbol),
		Quantity: quantity,
		Price:    price,
		Amount:   amount,
		Fees:     fees,
		Memo:     memo,
	}
}

// NormalizeSymbol upper-cases and trims a ticker so lookups are
// case insensitive.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Claimed reports whether the transaction belongs to an owner.
func (t Transaction) Claimed() bool { return t.Owner != "" }

// Validate checks the immutable trade fields. It is called before any
// mutation so a malformed record is never partially applied.
func (t Transaction) Validate() error {
	if _, err := ParseTxType(string(t.Type)); err != nil {
		return err
	}
	if t.ID == "" {
		return fmt.Errorf("transaction id is missing")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date is missing")
	}
	if t.Symbol == "" {
		return fmt.Errorf("transaction symbol is missing")
	}
	if t.Quantity.IsNegative() {
		return fmt.Errorf("transaction quantity must not be negative, got %s", t.Quantity)
	}
	if t.Type != TxDividend && t.Quantity.IsZero() {
		return fmt.Errorf("%s transaction quantity must be positive", t.Type)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction amount must not be negative, got %s", t.Amount)
	}
	if t.Fees.IsNegative() {
		return fmt.Errorf("transaction fees must not be negative, got %s", t.Fees)
	}
	return nil
}

// CostBasis is the full acquisition cost of the trade, gross amount plus
// fees. Only meaningful on acquisitions.
func (t Transaction) CostBasis() Money { return t.Amount.Add(t.Fees) }

// Equal compares the trade fields and annotations.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.Date == o.Date &&
		t.Type == o.Type &&
		t.Symbol == o.Symbol &&
		t.Quantity.Equal(o.Quantity) &&
		t.Price.Equal(o.Price) &&
		t.Amount.Equal(o.Amount) &&
		t.Fees.Equal(o.Fees) &&
		t.Memo == o.Memo &&
		t.Owner == o.Owner &&
		t.Duplicate == o.Duplicate &&
		t.DuplicateOf == o.DuplicateOf &&
		t.DuplicateScore == o.DuplicateScore &&
		t.WashSale == o.WashSale &&
		t.DisallowedLoss.Equal(o.DisallowedLoss)
}

// MarshalJSON implements the json.Marshaler interface for Transaction,
// keeping a stable field order for line oriented exports.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("date", t.Date)
	w.Append("type", t.Type)
	w.Append("symbol", t.Symbol)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Append("amount", t.Amount)
	w.Append("fees", t.Fees)
	w.Optional("memo", t.Memo)
	w.Optional("owner", t.Owner)
	w.Optional("duplicate", t.Duplicate)
	w.Optional("duplicateOf", t.DuplicateOf)
	w.Optional("duplicateScore", t.DuplicateScore)
	w.Optional("washSale", t.WashSale)
	if !t.DisallowedLoss.IsZero() {
		w.Append("disallowedLoss", t.DisallowedLoss)
	}
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var temp plain
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = Transaction(temp)
	t.Symbol = NormalizeSymbol(t.Symbol)
	return nil
}
