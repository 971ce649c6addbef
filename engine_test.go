package poolfolio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEngine_RecordFlagsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)

	first, matches, err := engine.Record(ctx, testTx("a", day(time.March, 10), TxBuy, 10, 100))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(matches) != 0 || first.Duplicate {
		t.Errorf("first record flagged: matches=%v duplicate=%v", matches, first.Duplicate)
	}

	second, matches, err := engine.Record(ctx, testTx("b", day(time.March, 10), TxBuy, 10, 100))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Score != 100 {
		t.Fatalf("matches = %v, want one at score 100", matches)
	}
	if !second.Duplicate || second.DuplicateOf != "a" || second.DuplicateScore != 100 {
		t.Errorf("second = %+v, want flagged against a", second)
	}
	// the pairing is bidirectional
	counterpart, err := store.Transaction(ctx, "a")
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}
	if !counterpart.Duplicate || counterpart.DuplicateOf != "b" || counterpart.DuplicateScore != 100 {
		t.Errorf("counterpart = %+v, want flagged against b", counterpart)
	}
}

func TestEngine_RecordBelowThresholdNotFlagged(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newMemStore())

	if _, _, err := engine.Record(ctx, testTx("a", day(time.March, 10), TxBuy, 10, 100)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	tx, matches, err := engine.Record(ctx, testTx("b", day(time.March, 10), TxBuy, 10, 105))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(matches) != 0 || tx.Duplicate {
		t.Errorf("5%% price difference flagged: matches=%v", matches)
	}
}

func TestEngine_ClaimOpensLot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)

	buy := testTx("t1", day(time.January, 1), TxBuy, 10, 10)
	buy.Fees = M(5, "USD")
	if _, _, err := engine.Record(ctx, buy); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	claimed, err := engine.Claim(ctx, "t1", "alice")
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if claimed.Owner != "alice" {
		t.Errorf("Owner = %q, want alice", claimed.Owner)
	}
	lots, err := store.Lots(ctx, "alice", "ACME")
	if err != nil || len(lots) != 1 {
		t.Fatalf("Lots() = %v, %v, want one lot", lots, err)
	}
	if want := M(105, "USD"); !lots[0].Cost.Equal(want) {
		t.Errorf("lot cost = %s, want %s", lots[0].Cost, want)
	}

	if _, err := engine.Claim(ctx, "t1", "bob"); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("re-claim error = %v, want ErrAlreadyClaimed", err)
	}
}

// seedHolding gives alice three claimed buys: 10 shares each on Jan 1, 5
// and 10 at $10, $20 and $30.
func seedHolding(t *testing.T, engine *Engine) {
	t.Helper()
	ctx := context.Background()
	for i, tx := range []Transaction{
		testTx("b1", day(time.January, 1), TxBuy, 10, 10),
		testTx("b2", day(time.January, 5), TxBuy, 10, 20),
		testTx("b3", day(time.January, 10), TxBuy, 10, 30),
	} {
		if _, _, err := engine.Record(ctx, tx); err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
		if _, err := engine.Claim(ctx, tx.ID, "alice"); err != nil {
			t.Fatalf("Claim(%d) error = %v", i, err)
		}
	}
}

func TestEngine_PlanThenCommitSale(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)
	seedHolding(t, engine)

	sell := testTx("s1", day(time.June, 1), TxSell, 15, 25)
	if _, _, err := engine.Record(ctx, sell); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := engine.Claim(ctx, "s1", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	// planning does not touch the lots
	preview, err := engine.PlanSale(ctx, "s1", FIFO, nil)
	if err != nil {
		t.Fatalf("PlanSale() error = %v", err)
	}
	if want := M(175, "USD"); !preview.Plan.GainLoss.Equal(want) {
		t.Errorf("planned gain = %s, want %s", preview.Plan.GainLoss, want)
	}
	lots, _ := store.Lots(ctx, "alice", "ACME")
	for _, lot := range lots {
		if !lot.Remaining.Equal(lot.Quantity) {
			t.Errorf("PlanSale consumed lot %s", lot.ID)
		}
	}

	result, err := engine.CommitSale(ctx, "s1", FIFO, nil)
	if err != nil {
		t.Fatalf("CommitSale() error = %v", err)
	}
	if !result.Plan.GainLoss.Equal(preview.Plan.GainLoss) {
		t.Errorf("committed gain %s differs from preview %s", result.Plan.GainLoss, preview.Plan.GainLoss)
	}
	if result.Warning != nil {
		t.Errorf("unexpected reconciliation warning: %v", result.Warning)
	}

	// day-1 lot is gone, day-5 lot is half consumed
	lots, _ = store.Lots(ctx, "alice", "ACME")
	remaining := Q(0)
	for _, lot := range lots {
		remaining = remaining.Add(lot.Remaining)
	}
	if !remaining.Equal(Q(15)) {
		t.Errorf("remaining = %s, want 15", remaining)
	}
}

func TestEngine_CommitSaleAnnotatesWashSale(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)

	buy := testTx("b1", day(time.January, 1), TxBuy, 100, 20)
	if _, _, err := engine.Record(ctx, buy); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := engine.Claim(ctx, "b1", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	// loss sale with a replacement buy 10 days later
	sell := testTx("s1", day(time.June, 1), TxSell, 100, 10)
	rebuy := testTx("b2", day(time.June, 11), TxBuy, 40, 11)
	for _, tx := range []Transaction{sell, rebuy} {
		if _, _, err := engine.Record(ctx, tx); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if _, err := engine.Claim(ctx, tx.ID, "alice"); err != nil {
			t.Fatalf("Claim() error = %v", err)
		}
	}

	result, err := engine.CommitSale(ctx, "s1", FIFO, nil)
	if err != nil {
		t.Fatalf("CommitSale() error = %v", err)
	}
	// loss is 100*10 - 100*20 = -1000; 40 of 100 shares replaced
	if !result.Wash.IsWashSale {
		t.Fatal("expected a wash sale")
	}
	if want := M(400, "USD"); !result.Wash.DisallowedLoss.Equal(want) {
		t.Errorf("DisallowedLoss = %s, want %s", result.Wash.DisallowedLoss, want)
	}
	stored, _ := store.Transaction(ctx, "s1")
	if !stored.WashSale || !stored.DisallowedLoss.Equal(M(400, "USD")) {
		t.Errorf("sale annotations not persisted: %+v", stored)
	}
}

func TestEngine_CommitSaleInsufficientLots(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newMemStore())
	seedHolding(t, engine)

	sell := testTx("s1", day(time.June, 1), TxSell, 31, 25)
	if _, _, err := engine.Record(ctx, sell); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := engine.Claim(ctx, "s1", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if _, err := engine.CommitSale(ctx, "s1", FIFO, nil); !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("CommitSale() error = %v, want ErrInsufficientQuantity", err)
	}
}

func TestEngine_DeleteClearsCounterpartFlag(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)

	if _, _, err := engine.Record(ctx, testTx("a", day(time.March, 10), TxBuy, 10, 100)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, _, err := engine.Record(ctx, testTx("b", day(time.March, 10), TxBuy, 10, 100)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if err := engine.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Transaction(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted transaction still present: %v", err)
	}
	survivor, err := store.Transaction(ctx, "a")
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}
	if survivor.Duplicate || survivor.DuplicateOf != "" || survivor.DuplicateScore != 0 {
		t.Errorf("survivor still flagged: %+v", survivor)
	}
}

func TestEngine_DeleteRepointsToOtherDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)

	// three identical imports: a pairs with b, then c pairs with one of them
	for _, id := range []string{"a", "b", "c"} {
		if _, _, err := engine.Record(ctx, testTx(id, day(time.March, 10), TxBuy, 10, 100)); err != nil {
			t.Fatalf("Record(%s) error = %v", id, err)
		}
	}

	if err := engine.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	// whatever side a pointed at must now reference a transaction that
	// still exists
	for _, id := range []string{"b", "c"} {
		tx, err := store.Transaction(ctx, id)
		if err != nil {
			t.Fatalf("Transaction(%s) error = %v", id, err)
		}
		if tx.DuplicateOf == "" {
			continue
		}
		if _, err := store.Transaction(ctx, tx.DuplicateOf); err != nil {
			t.Errorf("%s references missing transaction %s", id, tx.DuplicateOf)
		}
	}
}

func TestEngine_DeleteClaimedAcquisitionRemovesLot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)

	if _, _, err := engine.Record(ctx, testTx("b1", day(time.January, 1), TxBuy, 10, 10)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := engine.Claim(ctx, "b1", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	if err := engine.Delete(ctx, "b1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Transaction(ctx, "b1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted transaction still present: %v", err)
	}
	lots, _ := store.Lots(ctx, "alice", "ACME")
	if len(lots) != 0 {
		t.Errorf("Lots() = %d, want none after delete", len(lots))
	}
}

func TestEngine_DeleteRefusesConsumedAcquisition(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)
	seedHolding(t, engine)

	sell := testTx("s1", day(time.June, 1), TxSell, 15, 25)
	if _, _, err := engine.Record(ctx, sell); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := engine.Claim(ctx, "s1", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if _, err := engine.CommitSale(ctx, "s1", FIFO, nil); err != nil {
		t.Fatalf("CommitSale() error = %v", err)
	}

	if err := engine.Delete(ctx, "b1"); err == nil {
		t.Error("Delete() of a partly sold acquisition should fail")
	}
	// refusal leaves everything in place
	if _, err := store.Transaction(ctx, "b1"); err != nil {
		t.Errorf("Transaction(b1) error = %v after refused delete", err)
	}
}

func TestEngine_ResolveDuplicateClearsBothSides(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)

	if _, _, err := engine.Record(ctx, testTx("a", day(time.March, 10), TxBuy, 10, 100)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, _, err := engine.Record(ctx, testTx("b", day(time.March, 10), TxBuy, 10, 100)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if err := engine.ResolveDuplicate(ctx, "b"); err != nil {
		t.Fatalf("ResolveDuplicate() error = %v", err)
	}
	for _, id := range []string{"a", "b"} {
		tx, err := store.Transaction(ctx, id)
		if err != nil {
			t.Fatalf("Transaction(%s) error = %v", id, err)
		}
		if tx.Duplicate || tx.DuplicateOf != "" || tx.DuplicateScore != 0 {
			t.Errorf("%s still flagged: %+v", id, tx)
		}
	}

	// resolving an unflagged transaction is a no-op
	if err := engine.ResolveDuplicate(ctx, "a"); err != nil {
		t.Errorf("ResolveDuplicate() on clean transaction error = %v", err)
	}
}

func TestEngine_UnclaimRemovesUntouchedLot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)
	seedHolding(t, engine)

	if _, err := engine.Unclaim(ctx, "b1"); err != nil {
		t.Fatalf("Unclaim() error = %v", err)
	}
	lots, _ := store.Lots(ctx, "alice", "ACME")
	if len(lots) != 2 {
		t.Errorf("Lots() = %d, want 2 after unclaim", len(lots))
	}
	tx, _ := store.Transaction(ctx, "b1")
	if tx.Claimed() {
		t.Errorf("b1 still claimed by %s", tx.Owner)
	}
}

func TestEngine_UnclaimRefusesConsumedLot(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newMemStore())
	seedHolding(t, engine)

	sell := testTx("s1", day(time.June, 1), TxSell, 15, 25)
	if _, _, err := engine.Record(ctx, sell); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := engine.Claim(ctx, "s1", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if _, err := engine.CommitSale(ctx, "s1", FIFO, nil); err != nil {
		t.Fatalf("CommitSale() error = %v", err)
	}

	if _, err := engine.Unclaim(ctx, "b1"); err == nil {
		t.Error("Unclaim() of a partly sold acquisition should fail")
	}
}

func TestEngine_UnclaimCommittedSaleLeavesDivergence(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	engine := NewEngine(store)
	seedHolding(t, engine)

	sell := testTx("s1", day(time.June, 1), TxSell, 15, 25)
	if _, _, err := engine.Record(ctx, sell); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := engine.Claim(ctx, "s1", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if _, err := engine.CommitSale(ctx, "s1", FIFO, nil); err != nil {
		t.Fatalf("CommitSale() error = %v", err)
	}

	// the sale goes back to the pool, but its consumed lots stay consumed
	if _, err := engine.Unclaim(ctx, "s1"); err != nil {
		t.Fatalf("Unclaim() error = %v", err)
	}
	warning, err := engine.Reconcile(ctx, "alice", "ACME")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if warning == nil {
		t.Fatal("expected a reconciliation warning after unclaiming a committed sale")
	}
	if !warning.LotQuantity.Equal(Q(15)) || !warning.NetQuantity.Equal(Q(30)) {
		t.Errorf("warning = %+v, want 15 in lots against 30 net", warning)
	}
}

func TestEngine_ReviewRejectsSpecID(t *testing.T) {
	engine := NewEngine(newMemStore())
	if _, err := engine.Review(context.Background(), "alice", day(time.January, 1), day(time.December, 31), SpecID); err == nil {
		t.Error("Review() with SPECID should fail up front")
	}
}

func TestEngine_Review(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newMemStore())
	seedHolding(t, engine)

	sell := testTx("s1", day(time.June, 1), TxSell, 15, 25)
	if _, _, err := engine.Record(ctx, sell); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := engine.Claim(ctx, "s1", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	review, err := engine.Review(ctx, "alice", day(time.January, 1), day(time.December, 31), FIFO)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if len(review.Sales) != 1 {
		t.Fatalf("Sales = %d, want 1", len(review.Sales))
	}
	if want := M(175, "USD"); !review.Total.Equal(want) {
		t.Errorf("Total = %s, want %s", review.Total, want)
	}
	if len(review.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", review.Warnings)
	}
}
