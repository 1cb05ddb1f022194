package orderbook

import "fmt"

// Apply commits an instruction log produced by Eval against the same book
// state Eval read. Application is mechanical: every instruction must
// succeed. A failing instruction means the log no longer corresponds to the
// book (an evaluator bug or a violated eval/apply contract); the book is
// poisoned and every later Eval or Apply fails with the original error.
func (b *Book[O, T, P, N]) Apply(instrs []Instruction[O, T, P, N]) error {
	if b.poison != nil {
		return b.poison
	}
	for i := range instrs {
		if err := b.applyOne(&instrs[i]); err != nil {
			b.poison = fmt.Errorf("%w: instruction %d: %v", ErrInconsistency, i, err)
			return b.poison
		}
	}
	return nil
}

func (b *Book[O, T, P, N]) applyOne(in *Instruction[O, T, P, N]) error {
	switch in.Kind {
	case InstrFill:
		return b.applyFill(in.ID, in.Quantity)
	case InstrInsertRest:
		return b.applyInsert(in.Order)
	case InstrRemoveResting:
		return b.applyRemove(in.ID)
	default:
		return fmt.Errorf("unknown instruction kind %d", in.Kind)
	}
}

func (b *Book[O, T, P, N]) applyFill(id T, qty N) error {
	loc, ok := b.index[id]
	if !ok {
		return fmt.Errorf("fill of unindexed order %v", id)
	}
	side := b.side(loc.isBuy)
	lvl, ok := side.level(loc.price)
	if !ok {
		return fmt.Errorf("fill of order %v: no level at %v", id, loc.price)
	}
	i, ok := lvl.find(id)
	if !ok {
		return fmt.Errorf("fill of order %v: not in its level", id)
	}
	o := lvl.at(i)
	var zero N
	if qty == zero || qty > o.Remaining() {
		return fmt.Errorf("fill of order %v: quantity %v, remaining %v", id, qty, o.Remaining())
	}
	o.Fill(qty)
	lvl.totalQty -= qty
	if o.Remaining() == zero {
		lvl.orders.Remove(i)
		if lvl.isEmpty() {
			side.levels.Delete(lvl)
		}
		delete(b.index, id)
	}
	return nil
}

func (b *Book[O, T, P, N]) applyInsert(o O) error {
	id := o.ID()
	if _, ok := b.index[id]; ok {
		return fmt.Errorf("insert of already-resting order %v", id)
	}
	var zero N
	if o.Remaining() == zero {
		return fmt.Errorf("insert of fully filled order %v", id)
	}
	b.side(o.IsBuy()).insert(o)
	b.index[id] = locator[P]{isBuy: o.IsBuy(), price: o.Price()}
	return nil
}

func (b *Book[O, T, P, N]) applyRemove(id T) error {
	loc, ok := b.index[id]
	if !ok {
		return fmt.Errorf("remove of unindexed order %v", id)
	}
	if _, ok := b.side(loc.isBuy).removeOrder(id, loc.price); !ok {
		return fmt.Errorf("remove of order %v: not in its level", id)
	}
	delete(b.index, id)
	return nil
}
