package orderbook

import "cmp"

// Numeric constrains order quantities to exact integer types, so floating
// point sizes are not representable in the book. Prices are constrained only
// by cmp.Ordered, which does not exclude floating point types; the built-in
// LimitOrder uses int64 price ticks.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Order is the contract an order type must satisfy to enter the book.
// O is the implementing type itself, T the id type, P the price type and
// N the quantity type.
//
// The book owns resting orders: Clone is called when an order rests and when
// inspection accessors hand orders back out. Fill mutates remaining, so O is
// expected to have reference semantics (in practice, a pointer type).
// Replace builds the replacement order for a cancel/replace: same id and
// side, the given price and quantity, nothing filled.
type Order[O any, T cmp.Ordered, P cmp.Ordered, N Numeric] interface {
	ID() T
	IsBuy() bool
	Price() P
	Quantity() N
	Remaining() N
	Fill(n N)
	Clone() O
	Replace(price P, quantity N) O
}

// LimitOrder is the built-in order type: string ids, int64 price ticks and
// int64 quantities.
type LimitOrder struct {
	OrderID string
	Buy     bool
	Px      int64
	Qty     int64
	Filled  int64
}

func NewLimitOrder(id string, buy bool, price, qty int64) *LimitOrder {
	return &LimitOrder{OrderID: id, Buy: buy, Px: price, Qty: qty}
}

func (o *LimitOrder) ID() string       { return o.OrderID }
func (o *LimitOrder) IsBuy() bool      { return o.Buy }
func (o *LimitOrder) Price() int64     { return o.Px }
func (o *LimitOrder) Quantity() int64  { return o.Qty }
func (o *LimitOrder) Remaining() int64 { return o.Qty - o.Filled }

func (o *LimitOrder) Fill(n int64) { o.Filled += n }

func (o *LimitOrder) Clone() *LimitOrder {
	c := *o
	return &c
}

func (o *LimitOrder) Replace(price, qty int64) *LimitOrder {
	return &LimitOrder{OrderID: o.OrderID, Buy: o.Buy, Px: price, Qty: qty}
}

// Shorthand instantiations for the built-in order type.
type (
	LimitBook        = Book[*LimitOrder, string, int64, int64]
	LimitOp          = Op[*LimitOrder, string, int64, int64]
	LimitMatch       = Match[string, int64, int64]
	LimitInstruction = Instruction[*LimitOrder, string, int64, int64]
)

// NewLimitBook creates an empty book over the built-in order type.
func NewLimitBook() *LimitBook {
	return NewBook[*LimitOrder, string, int64, int64]()
}
