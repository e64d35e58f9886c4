package driver

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/baldas/tracegen/internal/intset"
	"github.com/baldas/tracegen/internal/util/slogx"
)

type traceOp struct {
	kind OpKind
	val  int64
}

// parseTrace splits a trace into the initial contents and the op lines.
func parseTrace(t *testing.T, data []byte) (initial []int64, ops []traceOp) {
	t.Helper()
	lines := strings.Split(string(data), "\n")
	if len(lines) < 1 || lines[len(lines)-1] != "" {
		t.Fatalf("trace does not end with a newline")
	}
	lines = lines[:len(lines)-1]
	if len(lines) == 0 {
		t.Fatalf("trace has no initial contents line")
	}
	for _, item := range strings.Split(lines[0], ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			t.Fatalf("bad initial contents item %q: %v", item, err)
		}
		initial = append(initial, v)
	}
	for _, line := range lines[1:] {
		kindStr, valStr, ok := strings.Cut(line, " - ")
		if !ok {
			t.Fatalf("bad op line %q", line)
		}
		kind, err := strconv.Atoi(kindStr)
		if err != nil || kind < 0 || kind > 2 {
			t.Fatalf("bad op kind in line %q", line)
		}
		val, err := strconv.ParseInt(valStr, 10, 64)
		if err != nil {
			t.Fatalf("bad op value in line %q", line)
		}
		ops = append(ops, traceOp{kind: OpKind(kind), val: val})
	}
	return initial, ops
}

func TestValidate(t *testing.T) {
	good := Options{Ops: 100, Initial: 16, Threads: 2, Range: 32, Update: 20, Alternate: true}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}
	for _, bad := range []Options{
		{Ops: -1, Initial: 16, Threads: 2, Range: 32, Update: 20},
		{Ops: 100, Initial: -1, Threads: 2, Range: 32, Update: 20},
		{Ops: 100, Initial: 16, Threads: 0, Range: 32, Update: 20},
		{Ops: 100, Initial: 16, Threads: 2, Range: 0, Update: 20},
		{Ops: 100, Initial: 64, Threads: 2, Range: 32, Update: 20},
		{Ops: 100, Initial: 16, Threads: 2, Range: 32, Update: 101},
		{Ops: 100, Initial: 16, Threads: 2, Range: 32, Update: -1},
	} {
		if err := bad.Validate(); err == nil {
			t.Fatalf("invalid options accepted: %+v", bad)
		}
	}
}

func TestAlternateSequence(t *testing.T) {
	var buf bytes.Buffer
	o := Options{Ops: 4, Initial: 0, Threads: 1, Range: 10, Seed: 1, Update: 100, Alternate: true}
	rep, err := Run(slogx.DiscardLogger(), o, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	_, ops := parseTrace(t, buf.Bytes())
	if len(ops) != 4 {
		t.Fatalf("expected 4 op lines, got %v", len(ops))
	}
	for i, op := range ops {
		want := OpKind(i % 2)
		if op.kind != want {
			t.Fatalf("op %v: expected kind %v, got %v", i, want, op.kind)
		}
	}
	if rep.Threads[0].NbAdd != 2 || rep.Threads[0].NbRemove != 2 {
		t.Fatalf("unexpected counters: %+v", rep.Threads[0])
	}
}

func TestAlternatePairsRemovePendingKey(t *testing.T) {
	var buf bytes.Buffer
	o := Options{Ops: 1000, Initial: 0, Threads: 1, Range: 4, Seed: 7, Update: 100, Alternate: true}
	if _, err := Run(slogx.DiscardLogger(), o, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	_, ops := parseTrace(t, buf.Bytes())
	for i := 0; i+1 < len(ops); i += 2 {
		if ops[i].kind != OpAdd || ops[i+1].kind != OpRemove {
			t.Fatalf("ops %v, %v: expected add/remove pair, got %v/%v", i, i+1, ops[i].kind, ops[i+1].kind)
		}
		if ops[i].val != ops[i+1].val {
			t.Fatalf("pair at %v removes %v instead of pending %v", i, ops[i+1].val, ops[i].val)
		}
	}
}

func TestOpLineCount(t *testing.T) {
	if RaceEnabled {
		t.Skip("skip: workers race on the shared set by design")
	}
	var buf bytes.Buffer
	o := Options{Ops: 1000, Initial: 64, Threads: 4, Range: 128, Seed: 3, Update: 20, Alternate: true}
	rep, err := Run(slogx.DiscardLogger(), o, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	initial, ops := parseTrace(t, buf.Bytes())
	if len(initial) != 64 {
		t.Fatalf("initial contents: expected 64 keys, got %v", len(initial))
	}
	if len(ops) != 4000 {
		t.Fatalf("expected 4000 op lines, got %v", len(ops))
	}
	var total uint64
	for _, st := range rep.Threads {
		total += st.NbAdd + st.NbRemove + st.NbContains
	}
	if total != 4000 {
		t.Fatalf("counters do not sum to op count: %v", total)
	}
}

func TestPopulationExact(t *testing.T) {
	// Range == Initial forces plenty of duplicate draws during population.
	var buf bytes.Buffer
	o := Options{Ops: 0, Initial: 100, Threads: 1, Range: 100, Seed: 5, Update: 0, Alternate: true}
	rep, err := Run(slogx.DiscardLogger(), o, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.InitialSize != 100 {
		t.Fatalf("population not exact: expected 100, got %v", rep.InitialSize)
	}
	initial, ops := parseTrace(t, buf.Bytes())
	if len(initial) != 100 {
		t.Fatalf("initial contents line has %v keys", len(initial))
	}
	for i := 1; i < len(initial); i++ {
		if initial[i-1] >= initial[i] {
			t.Fatalf("initial contents not ascending at %v: %v >= %v", i, initial[i-1], initial[i])
		}
	}
	if len(ops) != 0 {
		t.Fatalf("zero-op run emitted %v op lines", len(ops))
	}
	if !rep.SizeMatch() {
		t.Fatalf("size mismatch on a zero-op run: %+v", rep)
	}
}

// A single-threaded trace must replay exactly: feeding it into a fresh set
// reproduces the reported final size.
func TestSingleThreadReplay(t *testing.T) {
	var buf bytes.Buffer
	o := Options{Ops: 5000, Initial: 32, Threads: 1, Range: 64, Seed: 11, Update: 50, Alternate: false}
	rep, err := Run(slogx.DiscardLogger(), o, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rep.SizeMatch() {
		t.Fatalf("single-threaded run must be consistent: %+v", rep)
	}
	initial, ops := parseTrace(t, buf.Bytes())
	s := intset.New()
	for _, v := range initial {
		if !s.Add(v) {
			t.Fatalf("duplicate key %v in initial contents", v)
		}
	}
	for _, op := range ops {
		switch op.kind {
		case OpAdd:
			s.Add(op.val)
		case OpRemove:
			s.Remove(op.val)
		case OpContains:
			s.Contains(op.val)
		default:
			panic("must not happen")
		}
	}
	if s.Size() != rep.ActualSize {
		t.Fatalf("replayed size %v != reported size %v", s.Size(), rep.ActualSize)
	}
}

func TestUpdateRateZeroIsReadOnly(t *testing.T) {
	var buf bytes.Buffer
	o := Options{Ops: 2000, Initial: 16, Threads: 2, Range: 32, Seed: 9, Update: 0, Alternate: true}
	rep, err := Run(slogx.DiscardLogger(), o, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, st := range rep.Threads {
		if st.NbAdd != 0 || st.NbRemove != 0 {
			t.Fatalf("thread %v mutated on a read-only mix: %+v", i, st)
		}
		if st.NbContains != 2000 {
			t.Fatalf("thread %v: expected 2000 queries, got %v", i, st.NbContains)
		}
	}
	if rep.ActualSize != 16 || !rep.SizeMatch() {
		t.Fatalf("read-only run changed the set: %+v", rep)
	}
}

func TestNilTraceDiscards(t *testing.T) {
	if RaceEnabled {
		t.Skip("skip: workers race on the shared set by design")
	}
	o := Options{Ops: 100, Initial: 8, Threads: 2, Range: 16, Seed: 2, Update: 20, Alternate: true}
	if _, err := Run(slogx.DiscardLogger(), o, nil); err != nil {
		t.Fatalf("run without trace: %v", err)
	}
}
