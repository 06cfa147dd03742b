package client

import (
	"context"
	"strings"
	"sync"

	"github.com/sibylhq/sibyl"
)

// BufferCap bounds each pause-time buffer. Exceeding it forces a flush to
// the live transcript before the new chunk is accepted.
const BufferCap = 5 << 20 // 5 MiB

// Outcome is the terminal result of a stream. A stream reaches exactly
// one outcome; later transitions are ignored.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCompleted
	OutcomeAborted
	OutcomeErrored
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeAborted:
		return "aborted"
	case OutcomeErrored:
		return "errored"
	default:
		return "pending"
	}
}

// Stream is the per-run consumer state: the liveness flag, the pause-time
// buffers, the parse error counter, and the cancellation handle. At most
// one live Stream exists per client; a new submission forces the prior
// one to OutcomeAborted before a fresh Stream is created.
type Stream struct {
	mu sync.Mutex

	// deliver serializes transcript emission. Live deltas, overflow
	// flushes, and the resume drain all hold it across the
	// buffer-decision and the transcript append, so delivered order
	// always matches wire order. Transcript implementations must not
	// call back into the client from inside an append.
	deliver sync.Mutex

	active       bool
	paused       bool
	reasoningBuf []byte
	answerBuf    []byte
	parseErrors  int
	lastSignals  sibyl.SignalSnapshot
	answer       strings.Builder // full answer text, for the finalizer
	outcome      Outcome
	finalized    bool
	cancel       context.CancelFunc
}

func newStream(cancel context.CancelFunc) *Stream {
	return &Stream{active: true, cancel: cancel}
}

// Active reports whether the stream is still consuming frames.
func (st *Stream) Active() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.active
}

// deactivate flips the liveness flag. The read loop observes it
// independently of physical stream closure, which may arrive later.
func (st *Stream) deactivate() {
	st.mu.Lock()
	st.active = false
	st.mu.Unlock()
}

// abort cancels the run and marks it aborted. Safe to call at any time,
// including after a terminal outcome (which then wins).
func (st *Stream) abort() {
	st.finish(OutcomeAborted)
	st.deactivate()
	if st.cancel != nil {
		st.cancel()
	}
}

// finish records the terminal outcome. Only the first transition wins.
func (st *Stream) finish(o Outcome) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.outcome == OutcomePending {
		st.outcome = o
	}
}

// Outcome returns the terminal outcome, or OutcomePending mid-run.
func (st *Stream) Outcome() Outcome {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.outcome
}

// ParseErrors returns the count of malformed frames dropped so far.
func (st *Stream) ParseErrors() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.parseErrors
}

func (st *Stream) countParseError() {
	st.mu.Lock()
	st.parseErrors++
	st.mu.Unlock()
}

func (st *Stream) setLastSignals(snap sibyl.SignalSnapshot) {
	st.mu.Lock()
	st.lastSignals = snap
	st.mu.Unlock()
}

// beginFinalize marks the stream finalized and returns false if it
// already was. Guarantees the finalizer runs once per run.
func (st *Stream) beginFinalize() (sibyl.SignalSnapshot, string, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.finalized {
		return sibyl.SignalSnapshot{}, "", false
	}
	st.finalized = true
	return st.lastSignals, st.answer.String(), true
}
