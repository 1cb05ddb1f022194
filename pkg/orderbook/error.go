package orderbook

import "errors"

var (
	// ErrDuplicateID rejects an Insert whose id already rests, or is
	// scheduled to rest by an earlier op in the same batch.
	ErrDuplicateID = errors.New("duplicate order id")
	// ErrUnknownID rejects a Cancel or Modify of an id that is not resting
	// and not scheduled to rest by an earlier op in the same batch.
	ErrUnknownID = errors.New("unknown order id")
	// ErrInvalidOrder rejects an Insert whose remaining is zero or exceeds
	// its quantity.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrInconsistency is fatal: an instruction referred to state that does
	// not exist. The book instance is poisoned and refuses further work.
	ErrInconsistency = errors.New("orderbook inconsistency")
)
