package orderbook

import (
	"cmp"
	"fmt"

	"github.com/tidwall/btree"
)

// stagedLevel queues orders that rest during the batch being evaluated. At a
// price where a live level exists, staged orders sit after the live tail.
type stagedLevel[O any, P cmp.Ordered] struct {
	price  P
	orders []O
}

// evaluator simulates a batch against a read-only book. Live state is never
// touched; everything the batch changes is tracked in the overlay maps and
// the staged btrees.
type evaluator[O Order[O, T, P, N], T cmp.Ordered, P cmp.Ordered, N Numeric] struct {
	book *Book[O, T, P, N]

	// remaining overlays the counterfactual remaining quantity of every
	// order touched during the batch, live or staged.
	remaining map[T]N
	// deadLive marks live resting orders cancelled or fully consumed during
	// the batch; their book copies cannot be removed until apply.
	deadLive map[T]bool
	// staged orders per side, levels sorted best-first like the live sides.
	stagedBids *btree.BTreeG[*stagedLevel[O, P]]
	stagedAsks *btree.BTreeG[*stagedLevel[O, P]]
	stagedLoc  map[T]locator[P]

	matches []Match[T, P, N]
	instrs  []Instruction[O, T, P, N]
}

func newEvaluator[O Order[O, T, P, N], T cmp.Ordered, P cmp.Ordered, N Numeric](b *Book[O, T, P, N]) *evaluator[O, T, P, N] {
	return &evaluator[O, T, P, N]{
		book:      b,
		remaining: make(map[T]N),
		deadLive:  make(map[T]bool),
		stagedBids: btree.NewBTreeG(func(a, b *stagedLevel[O, P]) bool {
			return a.price > b.price
		}),
		stagedAsks: btree.NewBTreeG(func(a, b *stagedLevel[O, P]) bool {
			return a.price < b.price
		}),
		stagedLoc: make(map[T]locator[P]),
	}
}

// Eval simulates ops in order against the current book state, producing the
// match list and the instruction log whose application commits the batch.
// The book is only read: Eval with discarded results is side-effect free.
//
// Error policy: the batch short-circuits on the first failing op. Eval then
// returns no matches and no instructions, and the book is untouched.
func (b *Book[O, T, P, N]) Eval(ops []Op[O, T, P, N]) ([]Match[T, P, N], []Instruction[O, T, P, N], error) {
	if b.poison != nil {
		return nil, nil, b.poison
	}
	e := newEvaluator(b)
	for i, op := range ops {
		var err error
		switch op.Kind {
		case OpInsert:
			err = e.insert(op.Order)
		case OpCancel:
			err = e.cancel(op.ID)
		case OpModify:
			err = e.modify(op.ID, op.Price, op.Quantity)
		default:
			err = fmt.Errorf("unknown op kind %d", op.Kind)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	return e.matches, e.instrs, nil
}

func (e *evaluator[O, T, P, N]) stagedSide(isBuy bool) *btree.BTreeG[*stagedLevel[O, P]] {
	if isBuy {
		return e.stagedBids
	}
	return e.stagedAsks
}

// isResting reports whether id rests after the ops evaluated so far.
func (e *evaluator[O, T, P, N]) isResting(id T) bool {
	if _, ok := e.stagedLoc[id]; ok {
		return true
	}
	if e.deadLive[id] {
		return false
	}
	_, ok := e.book.index[id]
	return ok
}

// resolve returns the current order for id: the staged copy if the id rested
// during this batch, the live book copy otherwise.
func (e *evaluator[O, T, P, N]) resolve(id T) (O, bool) {
	var zero O
	if loc, ok := e.stagedLoc[id]; ok {
		slvl, ok := e.stagedSide(loc.isBuy).Get(&stagedLevel[O, P]{price: loc.price})
		if !ok {
			return zero, false
		}
		for _, o := range slvl.orders {
			if o.ID() == id {
				return o, true
			}
		}
		return zero, false
	}
	if e.deadLive[id] {
		return zero, false
	}
	o, _, ok := e.book.lookup(id)
	return o, ok
}

func (e *evaluator[O, T, P, N]) emitMatch(makerID, takerID T, price P, qty N) {
	e.matches = append(e.matches, Match[T, P, N]{
		MakerID:  makerID,
		TakerID:  takerID,
		Price:    price,
		Quantity: qty,
	})
	e.instrs = append(e.instrs, Instruction[O, T, P, N]{
		Kind:     InstrFill,
		ID:       makerID,
		Quantity: qty,
	})
}

// marketablePrices merges the live and staged levels of the opposite side
// that cross the incoming limit, best-first, deduplicated.
func (e *evaluator[O, T, P, N]) marketablePrices(opp *sideBook[O, T, P, N], staged *btree.BTreeG[*stagedLevel[O, P]], limit P) []P {
	var live, pend []P
	opp.scan(func(lvl *priceLevel[O, T, P, N]) bool {
		if opp.better(limit, lvl.price) {
			return false
		}
		live = append(live, lvl.price)
		return true
	})
	staged.Scan(func(lvl *stagedLevel[O, P]) bool {
		if opp.better(limit, lvl.price) {
			return false
		}
		pend = append(pend, lvl.price)
		return true
	})
	if len(pend) == 0 {
		return live
	}

	merged := make([]P, 0, len(live)+len(pend))
	i, j := 0, 0
	for i < len(live) || j < len(pend) {
		switch {
		case i == len(live):
			merged = append(merged, pend[j])
			j++
		case j == len(pend):
			merged = append(merged, live[i])
			i++
		case live[i] == pend[j]:
			merged = append(merged, live[i])
			i++
			j++
		case opp.better(live[i], pend[j]):
			merged = append(merged, live[i])
			i++
		default:
			merged = append(merged, pend[j])
			j++
		}
	}
	return merged
}

// insert crosses the incoming order against the opposite side best-first,
// FIFO within each level, live queue ahead of staged orders at the same
// price. Any residual rests at the incoming price.
func (e *evaluator[O, T, P, N]) insert(order O) error {
	id := order.ID()
	var zero N
	rem := order.Remaining()
	if rem == zero || rem > order.Quantity() {
		return fmt.Errorf("%w: remaining %v of quantity %v", ErrInvalidOrder, rem, order.Quantity())
	}
	if e.isResting(id) {
		return fmt.Errorf("%w: %v", ErrDuplicateID, id)
	}

	isBuy := order.IsBuy()
	limit := order.Price()
	opp := e.book.side(!isBuy)
	stagedOpp := e.stagedSide(!isBuy)

	for _, price := range e.marketablePrices(opp, stagedOpp, limit) {
		if rem == zero {
			break
		}
		if lvl, ok := opp.level(price); ok {
			lvl.each(func(maker O) bool {
				mid := maker.ID()
				if e.deadLive[mid] {
					return true
				}
				mrem, touched := e.remaining[mid]
				if !touched {
					mrem = maker.Remaining()
				}
				if mrem == zero {
					return true
				}
				trade := min(rem, mrem)
				e.emitMatch(mid, id, price, trade)
				mrem -= trade
				rem -= trade
				e.remaining[mid] = mrem
				if mrem == zero {
					e.deadLive[mid] = true
				}
				return rem != zero
			})
		}
		if rem == zero {
			break
		}
		if slvl, ok := stagedOpp.Get(&stagedLevel[O, P]{price: price}); ok {
			i := 0
			for i < len(slvl.orders) && rem != zero {
				maker := slvl.orders[i]
				mid := maker.ID()
				mrem := e.remaining[mid]
				trade := min(rem, mrem)
				e.emitMatch(mid, id, price, trade)
				mrem -= trade
				rem -= trade
				if mrem == zero {
					slvl.orders = append(slvl.orders[:i], slvl.orders[i+1:]...)
					delete(e.stagedLoc, mid)
					delete(e.remaining, mid)
				} else {
					e.remaining[mid] = mrem
					i++
				}
			}
			if len(slvl.orders) == 0 {
				stagedOpp.Delete(slvl)
			}
		}
	}

	if rem != zero {
		rest := order.Clone()
		if filled := order.Remaining() - rem; filled != zero {
			rest.Fill(filled)
		}
		e.instrs = append(e.instrs, Instruction[O, T, P, N]{
			Kind:  InstrInsertRest,
			ID:    id,
			Order: rest,
		})
		e.stage(rest)
	}
	return nil
}

func (e *evaluator[O, T, P, N]) stage(rest O) {
	side := e.stagedSide(rest.IsBuy())
	probe := &stagedLevel[O, P]{price: rest.Price()}
	slvl, ok := side.Get(probe)
	if !ok {
		slvl = probe
		side.Set(slvl)
	}
	slvl.orders = append(slvl.orders, rest)
	e.stagedLoc[rest.ID()] = locator[P]{isBuy: rest.IsBuy(), price: rest.Price()}
	e.remaining[rest.ID()] = rest.Remaining()
}

func (e *evaluator[O, T, P, N]) cancel(id T) error {
	if loc, ok := e.stagedLoc[id]; ok {
		side := e.stagedSide(loc.isBuy)
		slvl, ok := side.Get(&stagedLevel[O, P]{price: loc.price})
		if ok {
			for i, o := range slvl.orders {
				if o.ID() == id {
					slvl.orders = append(slvl.orders[:i], slvl.orders[i+1:]...)
					break
				}
			}
			if len(slvl.orders) == 0 {
				side.Delete(slvl)
			}
		}
		delete(e.stagedLoc, id)
		delete(e.remaining, id)
		e.instrs = append(e.instrs, Instruction[O, T, P, N]{Kind: InstrRemoveResting, ID: id})
		return nil
	}
	if _, ok := e.book.index[id]; ok && !e.deadLive[id] {
		e.deadLive[id] = true
		e.instrs = append(e.instrs, Instruction[O, T, P, N]{Kind: InstrRemoveResting, ID: id})
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnknownID, id)
}

// modify is cancel/replace: the replacement keeps the id and side, takes the
// new price and quantity with full remaining, and always loses time
// priority, even when the price is unchanged.
func (e *evaluator[O, T, P, N]) modify(id T, price P, quantity N) error {
	existing, ok := e.resolve(id)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownID, id)
	}
	if err := e.cancel(id); err != nil {
		return err
	}
	return e.insert(existing.Replace(price, quantity))
}
