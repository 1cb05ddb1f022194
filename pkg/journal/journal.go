package journal

import (
	"cmp"
	"sync"

	"github.com/joripage/lob-engine/pkg/orderbook"
)

// TradeLog is an in-memory journal of applied match batches. Both sides of
// every match are indexed, so a fill is retrievable through its maker id or
// its taker id. Executed quantity counts both sides of each fill.
type TradeLog[T cmp.Ordered, P cmp.Ordered, N orderbook.Numeric] struct {
	mu       sync.RWMutex
	trades   []orderbook.Match[T, P, N]
	byOrder  map[T][]orderbook.Match[T, P, N]
	executed N
}

func New[T cmp.Ordered, P cmp.Ordered, N orderbook.Numeric]() *TradeLog[T, P, N] {
	return &TradeLog[T, P, N]{
		byOrder: make(map[T][]orderbook.Match[T, P, N]),
	}
}

// Record appends an applied batch's matches to the journal.
func (l *TradeLog[T, P, N]) Record(matches []orderbook.Match[T, P, N]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range matches {
		l.trades = append(l.trades, m)
		l.byOrder[m.MakerID] = append(l.byOrder[m.MakerID], m)
		l.byOrder[m.TakerID] = append(l.byOrder[m.TakerID], m)
		l.executed += m.Quantity + m.Quantity
	}
}

// TradesFor returns the fills the given order took part in, oldest first.
func (l *TradeLog[T, P, N]) TradesFor(id T) []orderbook.Match[T, P, N] {
	l.mu.RLock()
	defer l.mu.RUnlock()

	trades := l.byOrder[id]
	out := make([]orderbook.Match[T, P, N], len(trades))
	copy(out, trades)
	return out
}

// TradeCount returns the number of recorded fills.
func (l *TradeLog[T, P, N]) TradeCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.trades)
}

// ExecutedQuantity returns the total executed quantity, counting one unit of
// maker and one unit of taker notional per filled unit.
func (l *TradeLog[T, P, N]) ExecutedQuantity() N {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.executed
}
