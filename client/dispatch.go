package client

import (
	"context"

	"github.com/sibylhq/sibyl"
	"github.com/sibylhq/sibyl/wire"
)

// dispatch parses one frame's payload and routes the event. A malformed
// frame is dropped and counted; it never aborts an otherwise healthy
// stream. The end-of-stream sentinel flips the liveness flag without
// waiting for physical closure.
func (c *Client) dispatch(ctx context.Context, st *Stream, sess *sibyl.Session, query string, f wire.Frame) {
	if f.Done {
		st.deactivate()
		return
	}

	evt, err := sibyl.ParseEvent([]byte(f.Payload))
	if err != nil {
		st.countParseError()
		c.log.Debug().Err(err).Msg("dropped malformed frame")
		return
	}

	switch e := evt.(type) {
	case sibyl.EventChatID:
		sess.ChatID = e.ChatID

	case sibyl.EventStage:
		c.progress.Stage(e.Stage, e.Status, e.Detail, e.Value)

	case sibyl.EventSignals:
		st.setLastSignals(e.Data)
		c.diagnostics.Signals(e.Data)

	case sibyl.EventReasoning:
		c.deliverReasoning(st, e.Text)

	case sibyl.EventTextDelta:
		st.mu.Lock()
		st.answer.WriteString(e.Text)
		st.mu.Unlock()
		c.deliverAnswer(st, e.Text)

	case sibyl.EventSoar:
		// Informational only; never affects control flow.
		if c.verbose {
			c.diagnostics.Engine(e.Event, e.Data)
		}

	case sibyl.EventComplete:
		c.finalize(ctx, st, sess, query, e.Completion)

	case sibyl.EventError:
		c.notifier.Notify(e.Message)
		st.finish(OutcomeErrored)
		st.deactivate()
	}
}

// deliverReasoning forwards a reasoning delta to the transcript, or into
// the bounded buffer while paused. The delivery lock is held across the
// buffer decision and the append so a concurrent resume cannot slip a
// newer delta ahead of older buffered content.
func (c *Client) deliverReasoning(st *Stream, text string) {
	st.deliver.Lock()
	defer st.deliver.Unlock()
	flushed, buffered := st.bufferReasoning(text)
	if !buffered {
		c.transcript.AppendReasoning(text)
		return
	}
	if flushed != "" {
		c.transcript.AppendReasoning(flushed)
	}
}

// deliverAnswer is deliverReasoning for answer deltas.
func (c *Client) deliverAnswer(st *Stream, text string) {
	st.deliver.Lock()
	defer st.deliver.Unlock()
	flushed, buffered := st.bufferAnswer(text)
	if !buffered {
		c.transcript.AppendAnswer(text)
		return
	}
	if flushed != "" {
		c.transcript.AppendAnswer(flushed)
	}
}

// finalize hands a completed run to the finalizer exactly once.
func (c *Client) finalize(ctx context.Context, st *Stream, sess *sibyl.Session, query string, comp sibyl.Completion) {
	prev, answer, first := st.beginFinalize()
	if !first {
		return
	}
	st.finish(OutcomeCompleted)
	c.finalizer.Run(ctx, sess, query, answer, comp, prev)
}
