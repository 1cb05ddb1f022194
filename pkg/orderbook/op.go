package orderbook

import "cmp"

// OpKind discriminates the operations a batch may carry.
type OpKind uint8

const (
	OpInsert OpKind = iota
	OpCancel
	OpModify
)

// Op is one operation in an eval batch. Insert reads Order; Cancel reads ID;
// Modify reads ID, Price and Quantity (cancel/replace with full remaining,
// time priority lost).
type Op[O Order[O, T, P, N], T cmp.Ordered, P cmp.Ordered, N Numeric] struct {
	Kind     OpKind
	Order    O // Insert
	ID       T // Cancel, Modify
	Price    P // Modify
	Quantity N // Modify
}

// Match records one fill between a resting maker and an aggressing taker at
// the maker's price. Matches are emitted in the order they occur during
// sequential processing of the batch.
type Match[T cmp.Ordered, P cmp.Ordered, N Numeric] struct {
	MakerID  T
	TakerID  T
	Price    P
	Quantity N
}

// InstrKind discriminates the state deltas eval emits.
type InstrKind uint8

const (
	// InstrFill reduces a resting order's remaining by Quantity; reaching
	// zero removes the order from its level, the level from its side if
	// emptied, and the id from the index.
	InstrFill InstrKind = iota
	// InstrInsertRest inserts Order at the tail of its (side, price) level
	// and indexes it. Order carries the post-match remaining.
	InstrInsertRest
	// InstrRemoveResting removes the resting order with ID.
	InstrRemoveResting
)

// Instruction is one entry of the ordered state-delta log produced by Eval.
// Applying the log in order to the book Eval read yields exactly the state
// Eval simulated.
type Instruction[O Order[O, T, P, N], T cmp.Ordered, P cmp.Ordered, N Numeric] struct {
	Kind     InstrKind
	ID       T // InstrFill, InstrRemoveResting
	Quantity N // InstrFill
	Order    O // InstrInsertRest
}
