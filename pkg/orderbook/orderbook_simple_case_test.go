package orderbook

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func buy(id string, px, qty int64) *LimitOrder  { return NewLimitOrder(id, true, px, qty) }
func sell(id string, px, qty int64) *LimitOrder { return NewLimitOrder(id, false, px, qty) }

func insertOp(o *LimitOrder) LimitOp { return LimitOp{Kind: OpInsert, Order: o} }
func cancelOp(id string) LimitOp     { return LimitOp{Kind: OpCancel, ID: id} }
func modifyOp(id string, px, qty int64) LimitOp {
	return LimitOp{Kind: OpModify, ID: id, Price: px, Quantity: qty}
}

// snapshot renders both sides best-first as "id/remaining" lists, used for
// purity and equivalence checks.
func snapshot(b *LimitBook) string {
	var sb strings.Builder
	for _, isBuy := range []bool{true, false} {
		if isBuy {
			sb.WriteString("B")
		} else {
			sb.WriteString("A")
		}
		b.EachLevel(isBuy, func(price int64, orders []*LimitOrder) bool {
			fmt.Fprintf(&sb, " %d:[", price)
			for _, o := range orders {
				fmt.Fprintf(&sb, "%s/%d ", o.ID(), o.Remaining())
			}
			sb.WriteString("]")
			return true
		})
		sb.WriteString(";")
	}
	return sb.String()
}

// checkInvariants asserts the universal post-apply invariants: index and
// book agree one-to-one, no empty levels, 0 < remaining <= quantity, orders
// matching their level's side and price, cached level totals, no crossed
// book. Order within a level is not checked here.
func checkInvariants(t *testing.T, b *LimitBook) {
	t.Helper()
	resting := 0
	for _, isBuy := range []bool{true, false} {
		side := b.side(isBuy)
		side.scan(func(lvl *priceLevel[*LimitOrder, string, int64, int64]) bool {
			if lvl.isEmpty() {
				t.Errorf("empty level persists at %d", lvl.price)
			}
			var total int64
			lvl.each(func(o *LimitOrder) bool {
				resting++
				if o.Remaining() <= 0 || o.Remaining() > o.Quantity() {
					t.Errorf("order %s: remaining %d of quantity %d", o.ID(), o.Remaining(), o.Quantity())
				}
				if o.IsBuy() != isBuy || o.Price() != lvl.price {
					t.Errorf("order %s rests in wrong level", o.ID())
				}
				loc, ok := b.index[o.ID()]
				if !ok || loc.isBuy != isBuy || loc.price != lvl.price {
					t.Errorf("order %s: index entry %+v", o.ID(), loc)
				}
				total += o.Remaining()
				return true
			})
			if total != lvl.totalQty {
				t.Errorf("level %d: cached total %d, actual %d", lvl.price, lvl.totalQty, total)
			}
			return true
		})
	}
	if resting != len(b.index) {
		t.Errorf("%d resting orders, %d index entries", resting, len(b.index))
	}
	if bb, ok := b.BestBid(); ok {
		if ba, ok := b.BestAsk(); ok && bb >= ba {
			t.Errorf("crossed book: best bid %d, best ask %d", bb, ba)
		}
	}
}

func mustProcess(t *testing.T, b *LimitBook, ops ...LimitOp) []LimitMatch {
	t.Helper()
	matches, err := b.Process(ops)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	checkInvariants(t, b)
	return matches
}

func TestSimpleMatch(t *testing.T) {
	b := NewLimitBook()
	matches := mustProcess(t, b,
		insertOp(sell("S1", 99, 10)),
		insertOp(buy("B1", 100, 10)),
	)
	want := []LimitMatch{{MakerID: "S1", TakerID: "B1", Price: 99, Quantity: 10}}
	if !reflect.DeepEqual(matches, want) {
		t.Errorf("matches = %+v, want %+v", matches, want)
	}
	if b.OrderCount() != 0 {
		t.Errorf("expected empty book, %d resting", b.OrderCount())
	}
}

func TestNoMatchDueToPrice(t *testing.T) {
	b := NewLimitBook()
	matches := mustProcess(t, b,
		insertOp(sell("S1", 100, 10)),
		insertOp(buy("B1", 98, 10)),
	)
	if len(matches) != 0 {
		t.Fatalf("expected no match, got %+v", matches)
	}
	if bb, _ := b.BestBid(); bb != 98 {
		t.Errorf("best bid = %d, want 98", bb)
	}
	if ba, _ := b.BestAsk(); ba != 100 {
		t.Errorf("best ask = %d, want 100", ba)
	}
}

// Scenario: a buy at the first ask's price fills there and leaves the
// worse-priced ask untouched.
func TestPartialFillAgainstBestAsk(t *testing.T) {
	b := NewLimitBook()
	matches := mustProcess(t, b,
		insertOp(sell("1", 100, 10)),
		insertOp(sell("2", 101, 5)),
		insertOp(buy("3", 100, 4)),
	)
	want := []LimitMatch{{MakerID: "1", TakerID: "3", Price: 100, Quantity: 4}}
	if !reflect.DeepEqual(matches, want) {
		t.Errorf("matches = %+v, want %+v", matches, want)
	}
	if got := snapshot(b); got != "B;A 100:[1/6 ] 101:[2/5 ];" {
		t.Errorf("post-state = %q", got)
	}
}

// Scenario: the next aggressive buy sweeps the remainder of the first level
// and continues into the second.
func TestSweepToSecondLevel(t *testing.T) {
	b := NewLimitBook()
	mustProcess(t, b,
		insertOp(sell("1", 100, 10)),
		insertOp(sell("2", 101, 5)),
		insertOp(buy("3", 100, 4)),
	)
	matches := mustProcess(t, b, insertOp(buy("4", 101, 10)))
	want := []LimitMatch{
		{MakerID: "1", TakerID: "4", Price: 100, Quantity: 6},
		{MakerID: "2", TakerID: "4", Price: 101, Quantity: 4},
	}
	if !reflect.DeepEqual(matches, want) {
		t.Errorf("matches = %+v, want %+v", matches, want)
	}
	if got := snapshot(b); got != "B;A 101:[2/1 ];" {
		t.Errorf("post-state = %q", got)
	}
}

// Scenario: a sell crosses two same-priced bids inserted in the same batch,
// FIFO within the level.
func TestSameBatchAggression(t *testing.T) {
	b := NewLimitBook()
	matches := mustProcess(t, b,
		insertOp(buy("1", 50, 5)),
		insertOp(buy("2", 50, 7)),
		insertOp(sell("3", 50, 9)),
	)
	want := []LimitMatch{
		{MakerID: "1", TakerID: "3", Price: 50, Quantity: 5},
		{MakerID: "2", TakerID: "3", Price: 50, Quantity: 4},
	}
	if !reflect.DeepEqual(matches, want) {
		t.Errorf("matches = %+v, want %+v", matches, want)
	}
	if got := snapshot(b); got != "B 50:[2/3 ];A;" {
		t.Errorf("post-state = %q", got)
	}
}

func TestInsertThenCancelSameBatch(t *testing.T) {
	b := NewLimitBook()
	matches := mustProcess(t, b,
		insertOp(buy("1", 50, 5)),
		cancelOp("1"),
	)
	if len(matches) != 0 {
		t.Fatalf("expected no match, got %+v", matches)
	}
	if b.OrderCount() != 0 || b.LevelCount(true) != 0 {
		t.Errorf("expected empty book, got %s", snapshot(b))
	}
}

// Scenario: the cross executes at the maker's price, not the taker's.
func TestCrossAtMakerPrice(t *testing.T) {
	b := NewLimitBook()
	matches := mustProcess(t, b,
		insertOp(buy("1", 100, 10)),
		insertOp(sell("2", 99, 4)),
	)
	want := []LimitMatch{{MakerID: "1", TakerID: "2", Price: 100, Quantity: 4}}
	if !reflect.DeepEqual(matches, want) {
		t.Errorf("matches = %+v, want %+v", matches, want)
	}
	if got := snapshot(b); got != "B 100:[1/6 ];A;" {
		t.Errorf("post-state = %q", got)
	}
}

func TestFIFOWithinLevel(t *testing.T) {
	b := NewLimitBook()
	mustProcess(t, b, insertOp(sell("S1", 100, 5)))
	mustProcess(t, b, insertOp(sell("S2", 100, 5)))
	matches := mustProcess(t, b, insertOp(buy("B1", 100, 10)))
	if len(matches) != 2 || matches[0].MakerID != "S1" || matches[1].MakerID != "S2" {
		t.Errorf("expected FIFO match order, got %+v", matches)
	}
}

func TestSweepMultipleLevels(t *testing.T) {
	b := NewLimitBook()
	mustProcess(t, b,
		insertOp(sell("S1", 101, 5)),
		insertOp(sell("S2", 102, 5)),
		insertOp(sell("S3", 103, 5)),
	)
	matches := mustProcess(t, b, insertOp(buy("B1", 105, 15)))
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].Price != 101 || matches[2].Price != 103 {
		t.Errorf("expected matching from best price, got %+v", matches)
	}
	if b.OrderCount() != 0 {
		t.Errorf("expected swept book, got %s", snapshot(b))
	}
}

// An insert sized exactly to the opposite liquidity empties that side and
// leaves no residual.
func TestExactLiquiditySweep(t *testing.T) {
	b := NewLimitBook()
	mustProcess(t, b,
		insertOp(sell("S1", 100, 4)),
		insertOp(sell("S2", 101, 6)),
	)
	matches := mustProcess(t, b, insertOp(buy("B1", 101, 10)))
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %+v", matches)
	}
	if b.OrderCount() != 0 || b.LevelCount(false) != 0 || b.LevelCount(true) != 0 {
		t.Errorf("expected empty book, got %s", snapshot(b))
	}
}

// An insert that crosses with residual rests at its own price on its side.
func TestResidualRestsAfterCross(t *testing.T) {
	b := NewLimitBook()
	mustProcess(t, b, insertOp(sell("S1", 100, 4)))
	matches := mustProcess(t, b, insertOp(buy("B1", 101, 10)))
	if len(matches) != 1 || matches[0].Quantity != 4 {
		t.Fatalf("expected one match of 4, got %+v", matches)
	}
	if got := snapshot(b); got != "B 101:[B1/6 ];A;" {
		t.Errorf("post-state = %q", got)
	}
}

// A buy matches asks priced at or below its limit only.
func TestNoMatchBeyondLimit(t *testing.T) {
	b := NewLimitBook()
	mustProcess(t, b,
		insertOp(sell("S1", 101, 5)),
		insertOp(sell("S2", 102, 5)),
	)
	matches := mustProcess(t, b, insertOp(buy("B1", 101, 10)))
	if len(matches) != 1 || matches[0].MakerID != "S1" {
		t.Fatalf("expected single match against S1, got %+v", matches)
	}
	if got := snapshot(b); got != "B 101:[B1/5 ];A 102:[S2/5 ];" {
		t.Errorf("post-state = %q", got)
	}
}

func TestHighVolumeOrders(t *testing.T) {
	b := NewLimitBook()
	trades := 0
	num := 10_000
	for i := 0; i < num; i++ {
		o := NewLimitOrder(fmt.Sprintf("ORD-%d", i), i%2 == 1, 100, 10)
		matches := mustProcess(t, b, insertOp(o))
		trades += len(matches)
	}
	if trades != num/2 {
		t.Errorf("expected %d matches, got %d", num/2, trades)
	}
	if b.OrderCount() != 0 {
		t.Errorf("expected flat book, %d resting", b.OrderCount())
	}
}

func BenchmarkProcessAggressiveBuy(b *testing.B) {
	book := NewLimitBook()
	for i := 0; i < 10_000; i++ {
		ops := []LimitOp{insertOp(sell(fmt.Sprintf("SELL-%d", i), 100+int64(i%5), 10))}
		if _, err := book.Process(ops); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ops := []LimitOp{insertOp(buy(fmt.Sprintf("BUY-%d", i), 101, 10))}
		if _, err := book.Process(ops); err != nil {
			b.Fatal(err)
		}
	}
}
