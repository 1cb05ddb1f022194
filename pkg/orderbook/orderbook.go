package orderbook

import "cmp"

// locator records where a resting order lives.
type locator[P cmp.Ordered] struct {
	isBuy bool
	price P
}

// Book is a single-instrument limit-order book with price-time priority.
// Eval simulates a batch of operations against the current state without
// mutating it; Apply commits the instruction log Eval produced. The book is
// single-threaded: it is not safe for concurrent use, and each Eval must be
// followed by the Apply of its instructions before the next Eval.
type Book[O Order[O, T, P, N], T cmp.Ordered, P cmp.Ordered, N Numeric] struct {
	bids  *sideBook[O, T, P, N]
	asks  *sideBook[O, T, P, N]
	index map[T]locator[P]

	// poison holds the first fatal apply error; once set, every Eval and
	// Apply call fails with it.
	poison error
}

// NewBook creates an empty book.
func NewBook[O Order[O, T, P, N], T cmp.Ordered, P cmp.Ordered, N Numeric]() *Book[O, T, P, N] {
	return &Book[O, T, P, N]{
		bids:  newSideBook[O, T, P, N](true),
		asks:  newSideBook[O, T, P, N](false),
		index: make(map[T]locator[P]),
	}
}

func (b *Book[O, T, P, N]) side(isBuy bool) *sideBook[O, T, P, N] {
	if isBuy {
		return b.bids
	}
	return b.asks
}

// lookup resolves a resting order by id.
func (b *Book[O, T, P, N]) lookup(id T) (O, locator[P], bool) {
	var zero O
	loc, ok := b.index[id]
	if !ok {
		return zero, loc, false
	}
	lvl, ok := b.side(loc.isBuy).level(loc.price)
	if !ok {
		return zero, loc, false
	}
	i, ok := lvl.find(id)
	if !ok {
		return zero, loc, false
	}
	return lvl.at(i), loc, true
}

// BestBid returns the highest resting bid price.
func (b *Book[O, T, P, N]) BestBid() (P, bool) {
	return b.bids.bestPrice()
}

// BestAsk returns the lowest resting ask price.
func (b *Book[O, T, P, N]) BestAsk() (P, bool) {
	return b.asks.bestPrice()
}

// VolumeAt returns the total resting quantity at a price level.
func (b *Book[O, T, P, N]) VolumeAt(isBuy bool, price P) N {
	lvl, ok := b.side(isBuy).level(price)
	if !ok {
		var zero N
		return zero
	}
	return lvl.totalQty
}

// OrdersAt returns clones of the orders resting at a price level in time
// priority order.
func (b *Book[O, T, P, N]) OrdersAt(isBuy bool, price P) []O {
	lvl, ok := b.side(isBuy).level(price)
	if !ok {
		return nil
	}
	out := make([]O, 0, lvl.len())
	lvl.each(func(o O) bool {
		out = append(out, o.Clone())
		return true
	})
	return out
}

// EachLevel walks one side best to worst, handing fn the level price and
// clones of its orders in time priority order, until fn returns false.
func (b *Book[O, T, P, N]) EachLevel(isBuy bool, fn func(price P, orders []O) bool) {
	b.side(isBuy).scan(func(lvl *priceLevel[O, T, P, N]) bool {
		orders := make([]O, 0, lvl.len())
		lvl.each(func(o O) bool {
			orders = append(orders, o.Clone())
			return true
		})
		return fn(lvl.price, orders)
	})
}

// LevelCount returns the number of price levels on one side.
func (b *Book[O, T, P, N]) LevelCount(isBuy bool) int {
	return b.side(isBuy).height()
}

// OrderCount returns the number of resting orders.
func (b *Book[O, T, P, N]) OrderCount() int {
	return len(b.index)
}

// Process evaluates ops and immediately applies the resulting instructions.
func (b *Book[O, T, P, N]) Process(ops []Op[O, T, P, N]) ([]Match[T, P, N], error) {
	matches, instrs, err := b.Eval(ops)
	if err != nil {
		return nil, err
	}
	if err := b.Apply(instrs); err != nil {
		return nil, err
	}
	return matches, nil
}
