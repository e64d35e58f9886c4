package driver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

// OpKind identifies the kind of an attempted operation in the trace.
type OpKind int

const (
	OpAdd      OpKind = iota // insert attempt
	OpRemove                 // remove attempt
	OpContains               // membership-query attempt
)

// TraceWriter serializes trace lines from concurrent workers. Every line is
// written as a single atomic unit; no relative ordering between workers is
// promised. Write errors are collected rather than returned per call, and
// writing stops after the first failure.
type TraceWriter struct {
	mu   sync.Mutex
	out  *bufio.Writer
	errs []error
}

// NewTraceWriter wraps w. A nil writer discards the trace.
func NewTraceWriter(w io.Writer) *TraceWriter {
	t := &TraceWriter{}
	if w != nil {
		t.out = bufio.NewWriter(w)
	}
	return t
}

func (w *TraceWriter) fail(err error) {
	w.errs = append(w.errs, err)
	w.out = nil
}

// WriteInitial emits the initial set contents: every key followed by a comma,
// terminated by a newline. Keys are expected in ascending order.
func (w *TraceWriter) WriteInitial(keys []int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.out == nil {
		return
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(w.out, "%d, ", k); err != nil {
			w.fail(fmt.Errorf("write initial contents: %w", err))
			return
		}
	}
	if err := w.out.WriteByte('\n'); err != nil {
		w.fail(fmt.Errorf("write initial contents: %w", err))
	}
}

// WriteOp emits one attempt line: "<kind> - <value>".
func (w *TraceWriter) WriteOp(kind OpKind, val int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.out == nil {
		return
	}
	if _, err := fmt.Fprintf(w.out, "%d - %d\n", kind, val); err != nil {
		w.fail(fmt.Errorf("write op: %w", err))
	}
}

// Err returns the errors collected so far.
func (w *TraceWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}

// Finish flushes the trace and returns all collected errors. The writer must
// not be used afterwards.
func (w *TraceWriter) Finish() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.out != nil {
		if err := w.out.Flush(); err != nil {
			w.errs = append(w.errs, fmt.Errorf("flush trace: %w", err))
		}
		w.out = nil
	}
	return errors.Join(w.errs...)
}
