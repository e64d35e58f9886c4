// Package rand48 provides deterministic 48-bit LCG random streams, one per
// worker, so that operation sequences are reproducible given a fixed seed and
// workers never contend on a shared generator.
package rand48

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Same parameters as the traditional erand48 generator.
const (
	mult = 0x5deece66d
	inc  = 0xb
	mask = 1<<48 - 1
)

// Seeder hands out independently seeded Streams. It draws the initial state
// of every stream from a single seed source, so the whole run is reproducible
// from one seed value. Safe for concurrent use.
type Seeder struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeeder creates a seeder from the given seed. A zero seed selects a
// time-based one.
func NewSeeder(seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)))}
}

// NewStream draws three 16-bit words off the seed source and packs them into
// the initial 48-bit state of a fresh stream.
func (s *Seeder) NewStream() *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	var state uint64
	for range 3 {
		state = state<<16 | s.r.Uint64()&0xffff
	}
	return &Stream{state: state}
}

// Stream is a single pseudo-random stream. Not safe for concurrent use; each
// worker owns its stream exclusively.
type Stream struct {
	state uint64
}

// Float64 returns a uniform value in [0, 1).
func (r *Stream) Float64() float64 {
	r.state = (r.state*mult + inc) & mask
	return float64(r.state) / (1 << 48)
}

// IntN returns a uniform value in [0, n). The bound holds for every n that
// fits in 32 bits: the 48-bit state converts to float64 exactly, so scaling
// can never round up to n.
func (r *Stream) IntN(n int) int {
	v := int(r.Float64() * float64(n))
	if v < 0 || v >= n {
		panic("must not happen")
	}
	return v
}
