package poolfolio

// DefaultWashSaleWindowDays is the number of days on each side of a loss
// sale in which a replacement acquisition washes the loss.
const DefaultWashSaleWindowDays = 30

// WashSaleRule evaluates whether a realized loss must be disallowed because
// a substantially identical position was acquired around the sale. The
// window is injected rather than hard coded so boundary values can be
// exercised directly.
type WashSaleRule struct {
	// WindowDays counts days on each side of the sale date, inclusive. An
	// acquisition exactly WindowDays away still washes the loss.
	WindowDays int
}

// DefaultWashSaleRule returns the rule with the usual 30 day window.
func DefaultWashSaleRule() WashSaleRule {
	return WashSaleRule{WindowDays: DefaultWashSaleWindowDays}
}

// WashSaleResult is the advisory outcome of evaluating one loss sale. It is
// recomputed from history on demand, never accumulated.
type WashSaleResult struct {
	IsWashSale     bool     `json:"isWashSale"`
	DisallowedLoss Money    `json:"disallowedLoss"` // never negative, never above the loss
	Replacement    Quantity `json:"replacement"`    // replacement shares found in window
	Washed         Quantity `json:"washed"`         // min(replacement, quantity sold)
}

// Evaluate inspects a sale with realized gainLoss against the owner's
// trading history in the same symbol. Gains are never washed; for losses,
// the disallowed amount is the share of the loss covered by replacement
// acquisitions inside the window.
//
// Evaluate is a pure function of its inputs: re-running it on unchanged
// history yields the same result.
func (r WashSaleRule) Evaluate(sale Transaction, gainLoss Money, history []Transaction) WashSaleResult {
	zero := M(0, gainLoss.Currency())
	result := WashSaleResult{DisallowedLoss: zero}
	if !gainLoss.IsNegative() {
		return result
	}
	if !sale.Quantity.IsPositive() {
		return result
	}

	from, to := sale.Date.Add(-r.WindowDays), sale.Date.Add(r.WindowDays)
	replacement := Q(0)
	for _, tx := range history {
		if tx.ID == sale.ID || tx.Symbol != sale.Symbol || !tx.Type.IsAcquisition() {
			continue
		}
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		replacement = replacement.Add(tx.Quantity)
	}
	if !replacement.IsPositive() {
		return result
	}

	washed := replacement.Min(sale.Quantity)
	loss := gainLoss.Neg() // positive magnitude
	result.IsWashSale = true
	result.Replacement = replacement
	result.Washed = washed
	result.DisallowedLoss = loss.Mul(washed).Div(sale.Quantity)
	return result
}
