// Package client implements the stream consumer: it serializes
// submissions from one client context, opens the network stream, decodes
// frames as bytes arrive, dispatches events to the transcript and
// diagnostics collaborators, bounds pause-time buffering, and finalizes
// completed runs exactly once.
package client

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/sibylhq/sibyl"
)

// Client is the consumer for one client context. Submissions made
// through the same Client run strictly one at a time; a newer submission
// cancels and replaces an older one rather than queueing behind it.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
	verbose bool

	transcript  sibyl.Transcript
	progress    sibyl.Progress
	diagnostics sibyl.Diagnostics
	notifier    sibyl.Notifier
	finalizer   *Finalizer

	slot   *semaphore.Weighted
	mu     sync.Mutex
	active *Stream
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithLogger sets the client logger. Default is a disabled logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithVerbose enables forwarding of raw engine events to diagnostics.
func WithVerbose(v bool) Option {
	return func(c *Client) { c.verbose = v }
}

// WithTranscript sets the live transcript collaborator.
func WithTranscript(t sibyl.Transcript) Option {
	return func(c *Client) { c.transcript = t }
}

// WithProgress sets the progress-tracking collaborator.
func WithProgress(p sibyl.Progress) Option {
	return func(c *Client) { c.progress = p }
}

// WithDiagnostics sets the diagnostics collaborator.
func WithDiagnostics(d sibyl.Diagnostics) Option {
	return func(c *Client) { c.diagnostics = d }
}

// WithNotifier sets the user notification collaborator.
func WithNotifier(n sibyl.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithFinalizer sets the completion finalizer.
func WithFinalizer(f *Finalizer) Option {
	return func(c *Client) { c.finalizer = f }
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		httpc:       http.DefaultClient,
		log:         zerolog.Nop(),
		transcript:  nopTranscript{},
		progress:    nopProgress{},
		diagnostics: nopDiagnostics{},
		notifier:    nopNotifier{},
		slot:        semaphore.NewWeighted(1),
	}
	for _, o := range opts {
		o(c)
	}
	if c.finalizer == nil {
		c.finalizer = NewFinalizer(nil, nil, WithFinalizerLogger(c.log))
	}
	return c
}

// Current returns the live stream state, or nil between runs.
func (c *Client) Current() *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Client) setActive(st *Stream) {
	c.mu.Lock()
	c.active = st
	c.mu.Unlock()
}

// clearActive releases the stream reference if it is still the current
// one. A superseding submission may already have installed its own.
func (c *Client) clearActive(st *Stream) {
	c.mu.Lock()
	if c.active == st {
		c.active = nil
	}
	c.mu.Unlock()
}

// abortActive cancels whatever stream is currently live. Used both for
// explicit cancellation and for superseding a stale run.
func (c *Client) abortActive() {
	st := c.Current()
	if st != nil {
		st.abort()
	}
}

// Cancel stops the in-flight run, if any. The stop is an expected
// interruption: silent, never notified.
func (c *Client) Cancel() {
	c.abortActive()
}

// Pause diverts transcript output of the live run into bounded buffers.
func (c *Client) Pause() {
	if st := c.Current(); st != nil {
		st.Pause()
	}
}

// Resume flushes buffered output to the transcript in captured order and
// returns the stream to live delivery. The delivery lock is held from the
// drain through the flush, so a delta dispatched in that window waits and
// lands after the captured content.
func (c *Client) Resume() {
	st := c.Current()
	if st == nil {
		return
	}
	st.deliver.Lock()
	defer st.deliver.Unlock()
	reasoning, answer := st.drain()
	if reasoning != "" {
		c.transcript.AppendReasoning(reasoning)
	}
	if answer != "" {
		c.transcript.AppendAnswer(answer)
	}
}

// No-op collaborator defaults.
type nopTranscript struct{}

func (nopTranscript) AppendReasoning(string) {}
func (nopTranscript) AppendAnswer(string)    {}

type nopProgress struct{}

func (nopProgress) Stage(string, string, string, *float64) {}

type nopDiagnostics struct{}

func (nopDiagnostics) Signals(sibyl.SignalSnapshot) {}
func (nopDiagnostics) Engine(string, []byte)        {}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}
