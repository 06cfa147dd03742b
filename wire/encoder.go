package wire

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/sibylhq/sibyl"
)

// Encoder writes protocol frames to an http.ResponseWriter, flushing
// after every frame so intermediaries do not batch them. Writes are
// serialized, so a keep-alive ticker may share the Encoder with the
// producer loop.
type Encoder struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEncoder prepares w for streaming and returns an Encoder. It returns
// nil if w does not support http.Flusher; callers must treat that as a
// setup failure before any frame is written.
func NewEncoder(w http.ResponseWriter) *Encoder {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Accel-Buffering", "no") // nginx
	flusher.Flush()

	return &Encoder{w: w, flusher: flusher}
}

// WriteEvent marshals evt and writes it as one frame.
func (e *Encoder) WriteEvent(evt sibyl.Event) error {
	data, err := sibyl.MarshalEvent(evt)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := fmt.Fprintf(e.w, "%s%s%s", DataPrefix, data, FrameSep); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	e.flusher.Flush()
	return nil
}

// WriteDone writes the end-of-stream sentinel frame.
func (e *Encoder) WriteDone() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := fmt.Fprintf(e.w, "%s%s%s", DataPrefix, DoneMarker, FrameSep); err != nil {
		return fmt.Errorf("write done: %w", err)
	}
	e.flusher.Flush()
	return nil
}

// WriteComment writes a keep-alive comment. Decoders discard it.
func (e *Encoder) WriteComment(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.w, ": %s%s", text, FrameSep)
	e.flusher.Flush()
}
