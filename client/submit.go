package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sibylhq/sibyl"
	"github.com/sibylhq/sibyl/wire"
)

type submitBody struct {
	ChatID string `json:"chatId,omitempty"`
	Query  string `json:"query"`
}

// Submit runs one query against the session. It is the single-flight
// entry point: any in-flight run from this client is cancelled first,
// then Submit queues for the submission slot, so no two runs ever execute
// concurrently. The slot is released exactly once per call, on every
// path.
//
// Expected interruptions (explicit Cancel, a superseding Submit, context
// cancellation) return nil after a silent stop; only genuine failures are
// notified and returned.
func (c *Client) Submit(ctx context.Context, sess *sibyl.Session, query string) error {
	// Cancel-and-replace: supersede the previous run before queueing so
	// this call never waits for a run nobody wants anymore.
	c.abortActive()

	if err := c.slot.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.slot.Release(1)

	// Pre-flight validation short-circuits before any network stream
	// opens; no stream state is created.
	if c.baseURL == "" {
		c.notifier.Notify("No server configured.")
		return fmt.Errorf("no server configured: %w", sibyl.ErrValidation)
	}
	if strings.TrimSpace(query) == "" {
		c.notifier.Notify("Cannot submit an empty query.")
		return fmt.Errorf("empty query: %w", sibyl.ErrValidation)
	}

	// A run that timed out rather than completing cleanly may still hold
	// stream state; cancel it before starting fresh.
	c.abortActive()

	runCtx, cancel := context.WithCancel(ctx)
	st := newStream(cancel)
	c.setActive(st)
	defer func() {
		cancel()
		c.clearActive(st)
	}()

	err := c.run(runCtx, st, sess, query)
	if err != nil {
		if sibyl.IsCanceled(err) || runCtx.Err() != nil {
			// Expected interruption: stop silently, keep the session
			// usable for the next query.
			st.finish(OutcomeAborted)
			return nil
		}
		st.finish(OutcomeErrored)
		c.log.Error().Err(err).Msg("stream failed")
		c.notifier.Notify("The analysis failed: " + err.Error())
		return err
	}

	// A stream that ended without a complete event was stopped by the
	// producer; nothing to surface.
	st.finish(OutcomeAborted)
	return nil
}

// run opens the network stream and drives the byte-read loop. The
// cancellation token is checked before and after every read.
func (c *Client) run(ctx context.Context, st *Stream, sess *sibyl.Session, query string) error {
	payload, err := json.Marshal(submitBody{ChatID: sess.ChatID, Query: query})
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build submission: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submission rejected: %s", readErrorBody(resp.Body))
	}

	dec := &wire.Decoder{}
	buf := make([]byte, 32*1024)
	for st.Active() {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			for _, f := range dec.Consume(buf[:n]) {
				c.dispatch(ctx, st, sess, query, f)
				if !st.Active() {
					break
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("read stream: %w", rerr)
		}
	}
	return nil
}

// readErrorBody extracts the structured setup error from a non-200
// response, falling back to the status text.
func readErrorBody(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return "server error"
}
