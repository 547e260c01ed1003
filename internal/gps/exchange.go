package gps

import (
	"sync"

	"github.com/relabs-tech/gps_computer/internal/ubx"
)

// Exchange is the double-buffered handoff between the decode loop and a
// concurrent reader: two preallocated NAV-PVT slots and an active index.
// The producer writes into the inactive slot and only then flips the index
// under the lock; readers copy the active slot out under the same lock, so
// a reader can never observe a record mid-write. The critical section
// covers only the index flip and the copy, never decode or I/O work.
type Exchange struct {
	mu        sync.Mutex
	slots     [2]ubx.NavPVT
	active    int
	published bool
}

// NewExchange returns an Exchange with both slots allocated for the
// process lifetime.
func NewExchange() *Exchange {
	return &Exchange{}
}

// Publish stores rec as the new current record. Only the single producer
// goroutine may call this: it owns the inactive slot, which no reader
// touches until the flip.
func (e *Exchange) Publish(rec *ubx.NavPVT) {
	idx := 1 - e.active
	e.slots[idx] = *rec
	e.mu.Lock()
	e.active = idx
	e.published = true
	e.mu.Unlock()
}

// Snapshot returns a copy of the most recently published record. The
// second result is false until the first publish; the copy always reflects
// one complete publish, never a mix of two.
func (e *Exchange) Snapshot() (ubx.NavPVT, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slots[e.active], e.published
}
