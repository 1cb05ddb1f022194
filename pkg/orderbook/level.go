package orderbook

import (
	"cmp"

	"github.com/gammazero/deque"
)

// priceLevel is the FIFO queue of resting orders at one price. Arrival order
// within the queue is the sole representation of time priority. totalQty
// caches the sum of remaining quantities of the queued orders.
type priceLevel[O Order[O, T, P, N], T cmp.Ordered, P cmp.Ordered, N Numeric] struct {
	price    P
	orders   deque.Deque[O]
	totalQty N
}

func (l *priceLevel[O, T, P, N]) pushBack(o O) {
	l.orders.PushBack(o)
	l.totalQty += o.Remaining()
}

func (l *priceLevel[O, T, P, N]) len() int {
	return l.orders.Len()
}

func (l *priceLevel[O, T, P, N]) isEmpty() bool {
	return l.orders.Len() == 0
}

// find returns the queue position of the order with the given id.
func (l *priceLevel[O, T, P, N]) find(id T) (int, bool) {
	i := l.orders.Index(func(o O) bool { return o.ID() == id })
	return i, i >= 0
}

func (l *priceLevel[O, T, P, N]) at(i int) O {
	return l.orders.At(i)
}

// removeAt unlinks the order at queue position i and returns it.
func (l *priceLevel[O, T, P, N]) removeAt(i int) O {
	o := l.orders.Remove(i)
	l.totalQty -= o.Remaining()
	return o
}

// each walks the queue head to tail until fn returns false.
func (l *priceLevel[O, T, P, N]) each(fn func(o O) bool) {
	for i := 0; i < l.orders.Len(); i++ {
		if !fn(l.orders.At(i)) {
			return
		}
	}
}
