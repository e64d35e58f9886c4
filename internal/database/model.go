package database

import (
	petname "github.com/dustinkirkland/golang-petname"

	"github.com/baldas/tracegen/internal/driver"
	"github.com/baldas/tracegen/internal/util/idgen"
	"github.com/baldas/tracegen/internal/util/sliceutil"
	"github.com/baldas/tracegen/internal/util/timeutil"
)

func init() {
	petname.NonDeterministicMode()
}

// Run is one recorded stress run: the resolved configuration, the aggregated
// outcome of the consistency check, and the per-thread counters.
type Run struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	CreatedAt timeutil.UTCTime

	Operations  int
	InitialSize int
	NumThreads  int
	KeyRange    int
	Seed        int64
	UpdateRate  int
	Alternate   bool

	ActualSize   int
	ExpectedSize int
	SizeMatch    bool

	Threads []ThreadStat `gorm:"foreignKey:RunID"`
}

type ThreadStat struct {
	RunID      string `gorm:"primaryKey"`
	Thread     int    `gorm:"primaryKey"`
	NbAdd      uint64
	NbRemove   uint64
	NbContains uint64
	NbFound    uint64
	Diff       int
}

var models = []any{
	&Run{},
	&ThreadStat{},
}

// NewRun builds a Run record from a finished run. The record gets a fresh
// ULID and a human-readable pet name so runs are easy to refer to later.
func NewRun(o driver.Options, rep driver.Report) *Run {
	id := idgen.ID()
	threads := sliceutil.Map(rep.Threads, func(st driver.ThreadStats) ThreadStat {
		return ThreadStat{
			RunID:      id,
			NbAdd:      st.NbAdd,
			NbRemove:   st.NbRemove,
			NbContains: st.NbContains,
			NbFound:    st.NbFound,
			Diff:       st.Diff,
		}
	})
	for i := range threads {
		threads[i].Thread = i
	}
	return &Run{
		ID:           id,
		Name:         petname.Generate(2, "-"),
		CreatedAt:    timeutil.NowUTC(),
		Operations:   o.Ops,
		InitialSize:  o.Initial,
		NumThreads:   o.Threads,
		KeyRange:     o.Range,
		Seed:         o.Seed,
		UpdateRate:   o.Update,
		Alternate:    o.Alternate,
		ActualSize:   rep.ActualSize,
		ExpectedSize: rep.ExpectedSize,
		SizeMatch:    rep.SizeMatch(),
		Threads:      threads,
	}
}
