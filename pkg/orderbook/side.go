package orderbook

import (
	"cmp"

	"github.com/tidwall/btree"
)

// sideBook holds one side of the book as a btree of price levels sorted
// best-first: descending prices for bids, ascending for asks. Min() is
// therefore always the best level.
type sideBook[O Order[O, T, P, N], T cmp.Ordered, P cmp.Ordered, N Numeric] struct {
	isBuy  bool
	levels *btree.BTreeG[*priceLevel[O, T, P, N]]
}

func newSideBook[O Order[O, T, P, N], T cmp.Ordered, P cmp.Ordered, N Numeric](isBuy bool) *sideBook[O, T, P, N] {
	less := func(a, b *priceLevel[O, T, P, N]) bool {
		if isBuy {
			return a.price > b.price
		}
		return a.price < b.price
	}
	return &sideBook[O, T, P, N]{
		isBuy:  isBuy,
		levels: btree.NewBTreeG(less),
	}
}

// better reports whether price a has strictly higher priority than b on this
// side. An incoming limit crosses a level iff the limit is not better than
// the level price from the resting side's point of view, i.e. equality
// crosses.
func (s *sideBook[O, T, P, N]) better(a, b P) bool {
	if s.isBuy {
		return a > b
	}
	return a < b
}

func (s *sideBook[O, T, P, N]) probe(price P) *priceLevel[O, T, P, N] {
	return &priceLevel[O, T, P, N]{price: price}
}

func (s *sideBook[O, T, P, N]) level(price P) (*priceLevel[O, T, P, N], bool) {
	return s.levels.Get(s.probe(price))
}

func (s *sideBook[O, T, P, N]) getOrCreate(price P) *priceLevel[O, T, P, N] {
	if lvl, ok := s.levels.Get(s.probe(price)); ok {
		return lvl
	}
	lvl := &priceLevel[O, T, P, N]{price: price}
	s.levels.Set(lvl)
	return lvl
}

// best returns the best level, if any.
func (s *sideBook[O, T, P, N]) best() (*priceLevel[O, T, P, N], bool) {
	return s.levels.Min()
}

func (s *sideBook[O, T, P, N]) bestPrice() (P, bool) {
	lvl, ok := s.levels.Min()
	if !ok {
		var zero P
		return zero, false
	}
	return lvl.price, true
}

// scan walks levels best to worst until fn returns false.
func (s *sideBook[O, T, P, N]) scan(fn func(lvl *priceLevel[O, T, P, N]) bool) {
	s.levels.Scan(fn)
}

func (s *sideBook[O, T, P, N]) height() int {
	return s.levels.Len()
}

// insert places the order at the tail of its price level, creating the level
// if absent.
func (s *sideBook[O, T, P, N]) insert(o O) {
	s.getOrCreate(o.Price()).pushBack(o)
}

// removeOrder unlinks the order with the given id from the level at price.
// The level is dropped from the tree when it empties.
func (s *sideBook[O, T, P, N]) removeOrder(id T, price P) (O, bool) {
	var zero O
	lvl, ok := s.level(price)
	if !ok {
		return zero, false
	}
	i, ok := lvl.find(id)
	if !ok {
		return zero, false
	}
	o := lvl.removeAt(i)
	if lvl.isEmpty() {
		s.levels.Delete(lvl)
	}
	return o, true
}
