// Package exlock serializes trade execution per market inside one process.
// Two trades on the same market must not both price against the same
// pre-trade depth; trades on different markets share no state and stay fully
// concurrent. Cross-process deployments need a serializable transaction at
// the storage layer instead.
package exlock

import "sync"

// Markets hands out one mutex per market id.
type Markets struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewMarkets() *Markets {
	return &Markets{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the exclusive section for a market and returns the unlock
// function.
func (m *Markets) Lock(marketID int64) func() {
	m.mu.Lock()
	l, ok := m.locks[marketID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[marketID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
