package poolfolio

import (
	"testing"
	"time"
)

// lossSale is a sale of 100 shares realizing a $1000 loss.
func lossSale() (Transaction, Money) {
	sale := testTx("sale", day(time.June, 1), TxSell, 100, 10)
	sale.Owner = "alice"
	return sale, M(-1000, "USD")
}

func rebuy(id string, date Date, qty float64) Transaction {
	tx := testTx(id, date, TxBuy, qty, 11)
	tx.Owner = "alice"
	return tx
}

func TestWashSale_Boundary(t *testing.T) {
	rule := DefaultWashSaleRule()
	sale, loss := lossSale()

	t.Run("30 days after is washed", func(t *testing.T) {
		res := rule.Evaluate(sale, loss, []Transaction{rebuy("b", sale.Date.Add(30), 100)})
		if !res.IsWashSale {
			t.Error("replacement exactly 30 days out should wash the loss")
		}
	})
	t.Run("31 days after is not", func(t *testing.T) {
		res := rule.Evaluate(sale, loss, []Transaction{rebuy("b", sale.Date.Add(31), 100)})
		if res.IsWashSale {
			t.Error("replacement 31 days out should not wash the loss")
		}
	})
	t.Run("30 days before is washed", func(t *testing.T) {
		res := rule.Evaluate(sale, loss, []Transaction{rebuy("b", sale.Date.Add(-30), 100)})
		if !res.IsWashSale {
			t.Error("replacement exactly 30 days back should wash the loss")
		}
	})
	t.Run("31 days before is not", func(t *testing.T) {
		res := rule.Evaluate(sale, loss, []Transaction{rebuy("b", sale.Date.Add(-31), 100)})
		if res.IsWashSale {
			t.Error("replacement 31 days back should not wash the loss")
		}
	})
}

func TestWashSale_Proportional(t *testing.T) {
	rule := DefaultWashSaleRule()
	sale, loss := lossSale()

	// 40 replacement shares against 100 sold: 40% of the loss is disallowed.
	res := rule.Evaluate(sale, loss, []Transaction{rebuy("b", sale.Date.Add(10), 40)})
	if !res.IsWashSale {
		t.Fatal("expected a wash sale")
	}
	if want := M(400, "USD"); !res.DisallowedLoss.Equal(want) {
		t.Errorf("DisallowedLoss = %s, want %s", res.DisallowedLoss, want)
	}
}

func TestWashSale_CappedAtFullLoss(t *testing.T) {
	rule := DefaultWashSaleRule()
	sale, loss := lossSale()

	// more replacement shares than sold: the whole loss, no more
	res := rule.Evaluate(sale, loss, []Transaction{rebuy("b", sale.Date.Add(1), 500)})
	if want := M(1000, "USD"); !res.DisallowedLoss.Equal(want) {
		t.Errorf("DisallowedLoss = %s, want %s", res.DisallowedLoss, want)
	}
}

func TestWashSale_GainsNeverWashed(t *testing.T) {
	rule := DefaultWashSaleRule()
	sale, _ := lossSale()
	res := rule.Evaluate(sale, M(500, "USD"), []Transaction{rebuy("b", sale.Date.Add(1), 100)})
	if res.IsWashSale || !res.DisallowedLoss.IsZero() {
		t.Errorf("gain evaluated as wash sale: %+v", res)
	}
}

func TestWashSale_IgnoresOtherActivity(t *testing.T) {
	rule := DefaultWashSaleRule()
	sale, loss := lossSale()

	other := rebuy("b", sale.Date.Add(5), 100)
	other.Symbol = "ZETA"
	inWindowSell := testTx("s2", sale.Date.Add(3), TxSell, 50, 9)
	inWindowSell.Owner = "alice"

	res := rule.Evaluate(sale, loss, []Transaction{other, inWindowSell, sale})
	if res.IsWashSale {
		t.Errorf("no replacement acquisition in symbol, got %+v", res)
	}
}

func TestWashSale_Idempotent(t *testing.T) {
	rule := DefaultWashSaleRule()
	sale, loss := lossSale()
	history := []Transaction{rebuy("b", sale.Date.Add(10), 40)}

	first := rule.Evaluate(sale, loss, history)
	second := rule.Evaluate(sale, loss, history)
	if first.IsWashSale != second.IsWashSale || !first.DisallowedLoss.Equal(second.DisallowedLoss) {
		t.Errorf("re-evaluation differs: %+v vs %+v", first, second)
	}
}

func TestWashSale_WindowIsConfigurable(t *testing.T) {
	rule := WashSaleRule{WindowDays: 5}
	sale, loss := lossSale()

	if res := rule.Evaluate(sale, loss, []Transaction{rebuy("b", sale.Date.Add(5), 100)}); !res.IsWashSale {
		t.Error("day 5 should wash with a 5 day window")
	}
	if res := rule.Evaluate(sale, loss, []Transaction{rebuy("b", sale.Date.Add(6), 100)}); res.IsWashSale {
		t.Error("day 6 should not wash with a 5 day window")
	}
}
