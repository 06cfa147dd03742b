package client

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sibylhq/sibyl"
	"github.com/sibylhq/sibyl/detect"
)

// DefaultIntentThreshold is the confidence a detected page intent must
// reach before the workspace is driven.
const DefaultIntentThreshold = 0.6

// Finalizer runs once per successful run: it records the run in long-term
// memory and evaluates two independent best-effort derived actions.
// Failures are logged, never propagated — a failure in one action cannot
// corrupt the delivered result or block the other.
type Finalizer struct {
	memory          sibyl.MemoryRecorder
	workspace       sibyl.Workspace
	log             zerolog.Logger
	intentThreshold float64
}

// FinalizerOption configures a [Finalizer].
type FinalizerOption func(*Finalizer)

// WithFinalizerLogger sets the finalizer logger.
func WithFinalizerLogger(log zerolog.Logger) FinalizerOption {
	return func(f *Finalizer) { f.log = log }
}

// WithIntentThreshold overrides the intent confidence threshold.
func WithIntentThreshold(t float64) FinalizerOption {
	return func(f *Finalizer) { f.intentThreshold = t }
}

// NewFinalizer creates a Finalizer. memory and workspace may be nil, in
// which case the corresponding actions are skipped.
func NewFinalizer(memory sibyl.MemoryRecorder, workspace sibyl.Workspace, opts ...FinalizerOption) *Finalizer {
	f := &Finalizer{
		memory:          memory,
		workspace:       workspace,
		log:             zerolog.Nop(),
		intentThreshold: DefaultIntentThreshold,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Run finalizes one completed run. prev holds the last signal snapshot
// seen before completion; fields the completion omits fall back to it.
func (f *Finalizer) Run(ctx context.Context, sess *sibyl.Session, query, answer string, comp sibyl.Completion, prev sibyl.SignalSnapshot) {
	snap := prev
	if comp.Signals != nil {
		snap = comp.Signals.Merge(prev)
	}

	if answer == "" {
		answer = comp.DualMessage.Expert
	}

	if f.memory != nil {
		rec := sibyl.RunRecord{
			ChatID:     sess.ChatID,
			Query:      query,
			Answer:     answer,
			Mode:       comp.Mode,
			Confidence: comp.Confidence,
			Grade:      comp.Grade,
			Signals:    snap,
			RecordedAt: time.Now(),
		}
		if err := f.memory.Record(ctx, rec); err != nil {
			f.log.Warn().Err(err).Str("chat", sess.ChatID).Msg("run record not stored")
		}
	}

	if f.workspace == nil {
		return
	}
	f.openFirstArtifact(ctx, answer)
	f.applyPageIntent(ctx, query, answer)
}

// openFirstArtifact scans the final rendered text and opens the first
// detected artifact.
func (f *Finalizer) openFirstArtifact(ctx context.Context, answer string) {
	arts := detect.Artifacts(answer)
	if len(arts) == 0 {
		return
	}
	if err := f.workspace.OpenArtifact(ctx, arts[0]); err != nil {
		f.log.Warn().Err(err).Msg("artifact not opened")
	}
}

// applyPageIntent maps a detected note-taking intent in the originating
// query onto a workspace operation.
func (f *Finalizer) applyPageIntent(ctx context.Context, query, answer string) {
	intent := detect.PageIntent(query)
	if intent.Confidence < f.intentThreshold {
		return
	}
	var err error
	switch intent.Action {
	case detect.ActionCreatePage:
		err = f.workspace.CreatePage(ctx, intent.Title, answer)
	case detect.ActionAppendPage:
		err = f.workspace.AppendToActivePage(ctx, answer)
	default:
		return
	}
	if err != nil {
		f.log.Warn().Err(err).Str("action", string(intent.Action)).Msg("page intent not applied")
	}
}
