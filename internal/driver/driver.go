// Package driver runs the stress workload: it populates a shared intset,
// fans out one worker goroutine per configured thread, synchronizes their
// start through a barrier, and serializes every operation attempt into the
// trace. The shared set is accessed without any mutual exclusion; the races
// this produces are the product, not a bug.
package driver

import (
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/baldas/tracegen/internal/barrier"
	"github.com/baldas/tracegen/internal/intset"
	"github.com/baldas/tracegen/internal/rand48"
)

const (
	DefaultOps     = 10000
	DefaultInitial = 256
	DefaultThreads = 1
	DefaultRange   = DefaultInitial * 2
	DefaultSeed    = 0
	DefaultUpdate  = 20
)

// Options is the resolved workload configuration. It is immutable once the
// run starts.
type Options struct {
	Ops       int
	Initial   int
	Threads   int
	Range     int
	Seed      int64
	Update    int
	Alternate bool
}

func (o Options) Validate() error {
	if o.Ops < 0 {
		return fmt.Errorf("negative operation count")
	}
	if o.Initial < 0 {
		return fmt.Errorf("negative initial size")
	}
	if o.Threads <= 0 {
		return fmt.Errorf("non-positive thread count")
	}
	if o.Range <= 0 {
		return fmt.Errorf("non-positive range")
	}
	if o.Range < o.Initial {
		return fmt.Errorf("range smaller than initial size")
	}
	if o.Update < 0 || o.Update > 100 {
		return fmt.Errorf("update rate outside [0; 100]")
	}
	return nil
}

// ThreadStats are the counters a worker accumulates over its run.
type ThreadStats struct {
	NbAdd      uint64
	NbRemove   uint64
	NbContains uint64
	NbFound    uint64
	Diff       int
}

// Report is what the controller hands back after all workers have joined.
type Report struct {
	Threads      []ThreadStats
	InitialSize  int
	ActualSize   int
	ExpectedSize int
}

// SizeMatch reports whether the final set size equals the size expected from
// the per-thread deltas. A mismatch is the consistency-check failure this
// tool exists to detect.
func (r Report) SizeMatch() bool {
	return r.ActualSize == r.ExpectedSize
}

// threadContext is owned exclusively by its worker goroutine between spawn
// and join; the controller reads the counters back only after the join.
type threadContext struct {
	set   *intset.Set
	bar   *barrier.Barrier
	trace *TraceWriter
	rng   *rand48.Stream

	ops       int
	rangeN    int
	update    int
	alternate bool

	stats ThreadStats

	// pending is the key of the last insert attempt in alternate mode; the
	// next mutation removes it. It is set on every insert attempt, whether or
	// not the insert succeeded, so the trace keeps a strict insert/remove
	// pairing even when the set rejects a duplicate.
	pending    int64
	hasPending bool
}

func (d *threadContext) drawKey() int64 {
	return int64(d.rng.IntN(d.rangeN)) + 1
}

func (d *threadContext) run() error {
	d.bar.Cross()
	for range d.ops {
		op := d.rng.IntN(100)
		switch {
		case op < d.update && d.alternate:
			if !d.hasPending {
				val := d.drawKey()
				if d.set.Add(val) {
					d.stats.Diff++
				}
				d.stats.NbAdd++
				d.pending, d.hasPending = val, true
				d.trace.WriteOp(OpAdd, val)
			} else {
				if d.set.Remove(d.pending) {
					d.stats.Diff--
				}
				d.stats.NbRemove++
				d.hasPending = false
				d.trace.WriteOp(OpRemove, d.pending)
			}
		case op < d.update:
			val := d.drawKey()
			if op&1 == 0 {
				if d.set.Add(val) {
					d.stats.Diff++
				}
				d.stats.NbAdd++
				d.trace.WriteOp(OpAdd, val)
			} else {
				if d.set.Remove(val) {
					d.stats.Diff--
				}
				d.stats.NbRemove++
				d.trace.WriteOp(OpRemove, val)
			}
		default:
			val := d.drawKey()
			if d.set.Contains(val) {
				d.stats.NbFound++
			}
			d.stats.NbContains++
			d.trace.WriteOp(OpContains, val)
		}
	}
	if err := d.trace.Err(); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	return nil
}

// Run executes one full stress run and returns its report. The trace goes to
// trace; a nil trace discards it. Run returns an error only for fatal
// conditions (invalid options, trace write failure); a size mismatch is
// reported through the Report, not as an error.
//
// There is no cancellation: a run always proceeds to its fixed operation
// count per worker.
func Run(log *slog.Logger, o Options, trace io.Writer) (Report, error) {
	if err := o.Validate(); err != nil {
		return Report{}, fmt.Errorf("validate options: %w", err)
	}

	if !o.Alternate && o.Range != o.Initial*2 {
		log.Warn("range is not twice the initial set size",
			slog.Int("range", o.Range), slog.Int("initial", o.Initial))
	}

	seeder := rand48.NewSeeder(o.Seed)
	set := intset.New()
	w := NewTraceWriter(trace)

	// Populate serially until exactly Initial inserts have succeeded;
	// duplicate draws are retried, not counted.
	log.Info("populating set", slog.Int("initial", o.Initial))
	mainRng := seeder.NewStream()
	for i := 0; i < o.Initial; {
		val := int64(mainRng.IntN(o.Range)) + 1
		if set.Add(val) {
			i++
		}
	}
	w.WriteInitial(set.Keys())
	initialSize := set.Size()
	log.Info("set populated", slog.Int("size", initialSize))

	bar := barrier.New(o.Threads + 1)
	ctxs := make([]*threadContext, o.Threads)
	for i := range ctxs {
		ctxs[i] = &threadContext{
			set:       set,
			bar:       bar,
			trace:     w,
			rng:       seeder.NewStream(),
			ops:       o.Ops,
			rangeN:    o.Range,
			update:    o.Update,
			alternate: o.Alternate,
		}
	}

	var eg errgroup.Group
	for _, d := range ctxs {
		eg.Go(d.run)
	}

	// The controller is the +1 participant: workers hold at the barrier until
	// spawning is complete, so none of them gets a head start.
	bar.Cross()
	log.Info("workers released", slog.Int("threads", o.Threads))

	if err := eg.Wait(); err != nil {
		return Report{}, fmt.Errorf("wait for workers: %w", err)
	}
	if err := w.Finish(); err != nil {
		return Report{}, fmt.Errorf("trace: %w", err)
	}

	rep := Report{
		InitialSize:  initialSize,
		ExpectedSize: initialSize,
		ActualSize:   set.Size(),
	}
	for _, d := range ctxs {
		rep.Threads = append(rep.Threads, d.stats)
		rep.ExpectedSize += d.stats.Diff
	}
	if !rep.SizeMatch() {
		log.Warn("final set size does not match expected size",
			slog.Int("actual", rep.ActualSize), slog.Int("expected", rep.ExpectedSize))
	}
	return rep, nil
}
