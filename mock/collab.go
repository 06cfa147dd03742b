package mock

import (
	"context"
	"sync"

	"github.com/sibylhq/sibyl"
)

// Interface compliance checks.
var (
	_ sibyl.Transcript  = (*Transcript)(nil)
	_ sibyl.Progress    = (*Progress)(nil)
	_ sibyl.Diagnostics = (*Diagnostics)(nil)
	_ sibyl.Notifier    = (*Notifier)(nil)
	_ sibyl.Workspace   = (*Workspace)(nil)
)

// Transcript records everything forwarded to the live transcript, in
// order. Safe for concurrent use.
type Transcript struct {
	mu        sync.Mutex
	Reasoning []string
	Answer    []string

	// OnAppend, when set, runs after each append while not holding the
	// lock. Tests use it to pause or resume mid-stream.
	OnAppend func()
}

// AppendReasoning records a reasoning delta.
func (t *Transcript) AppendReasoning(text string) {
	t.mu.Lock()
	t.Reasoning = append(t.Reasoning, text)
	t.mu.Unlock()
	if t.OnAppend != nil {
		t.OnAppend()
	}
}

// AppendAnswer records an answer delta.
func (t *Transcript) AppendAnswer(text string) {
	t.mu.Lock()
	t.Answer = append(t.Answer, text)
	t.mu.Unlock()
	if t.OnAppend != nil {
		t.OnAppend()
	}
}

// AnswerText returns the concatenated answer deltas.
func (t *Transcript) AnswerText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out string
	for _, s := range t.Answer {
		out += s
	}
	return out
}

// ReasoningText returns the concatenated reasoning deltas.
func (t *Transcript) ReasoningText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out string
	for _, s := range t.Reasoning {
		out += s
	}
	return out
}

// Progress records stage updates.
type Progress struct {
	mu     sync.Mutex
	Stages []string
}

// Stage records "stage/status".
func (p *Progress) Stage(stage, status, _ string, _ *float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Stages = append(p.Stages, stage+"/"+status)
}

// Diagnostics records signal snapshots and engine events.
type Diagnostics struct {
	mu        sync.Mutex
	Snapshots []sibyl.SignalSnapshot
	Events    []string
}

// Signals records a snapshot.
func (d *Diagnostics) Signals(snap sibyl.SignalSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Snapshots = append(d.Snapshots, snap)
}

// Engine records an engine event name.
func (d *Diagnostics) Engine(event string, _ []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Events = append(d.Events, event)
}

// Notifier records user-visible notifications.
type Notifier struct {
	mu       sync.Mutex
	Messages []string
}

// Notify records a message.
func (n *Notifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, message)
}

// Notified returns a copy of the recorded messages.
func (n *Notifier) Notified() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.Messages))
	copy(out, n.Messages)
	return out
}

// Workspace is a test double for sibyl.Workspace.
type Workspace struct {
	OpenArtifactFn       func(ctx context.Context, art sibyl.Artifact) error
	CreatePageFn         func(ctx context.Context, title, content string) error
	AppendToActivePageFn func(ctx context.Context, content string) error
}

// OpenArtifact delegates to OpenArtifactFn. No-op when nil.
func (w *Workspace) OpenArtifact(ctx context.Context, art sibyl.Artifact) error {
	if w.OpenArtifactFn == nil {
		return nil
	}
	return w.OpenArtifactFn(ctx, art)
}

// CreatePage delegates to CreatePageFn. No-op when nil.
func (w *Workspace) CreatePage(ctx context.Context, title, content string) error {
	if w.CreatePageFn == nil {
		return nil
	}
	return w.CreatePageFn(ctx, title, content)
}

// AppendToActivePage delegates to AppendToActivePageFn. No-op when nil.
func (w *Workspace) AppendToActivePage(ctx context.Context, content string) error {
	if w.AppendToActivePageFn == nil {
		return nil
	}
	return w.AppendToActivePageFn(ctx, content)
}
