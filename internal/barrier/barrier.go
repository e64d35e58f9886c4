// Package barrier implements a rendezvous point for a fixed cohort of
// goroutines. The driver uses it so that no worker starts its operation loop
// before every worker has been spawned and the controller is ready.
package barrier

import "sync"

// Barrier releases all waiters at once when the expected number of
// participants have crossed it. It resets itself on release, so it can be
// reused by a subsequent cohort of the same size.
type Barrier struct {
	mu       sync.Mutex
	complete *sync.Cond
	count    int
	crossing int
}

// New creates a barrier for n participants. n must be positive.
func New(n int) *Barrier {
	if n <= 0 {
		panic("must not happen")
	}
	b := &Barrier{count: n}
	b.complete = sync.NewCond(&b.mu)
	return b
}

// Cross blocks the caller until all participants have arrived. The last
// arrival wakes the others and resets the arrival counter. There is no
// timeout: a missing participant blocks the cohort forever.
//
// sync.Cond.Wait returns only after a Signal or Broadcast, so a single Wait
// without a predicate loop is sufficient here.
func (b *Barrier) Cross() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.crossing++
	if b.crossing < b.count {
		b.complete.Wait()
		return
	}
	b.crossing = 0
	b.complete.Broadcast()
}
