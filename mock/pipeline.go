// Package mock provides test doubles for the sibyl collaborator
// interfaces. Set the function fields for the methods you need; the
// required ones panic when nil to catch missing setup.
package mock

import (
	"context"
	"io"

	"github.com/sibylhq/sibyl"
)

// Interface compliance checks.
var (
	_ sibyl.Pipeline = (*Pipeline)(nil)
	_ sibyl.Source   = (*Source)(nil)
)

// Pipeline is a test double for sibyl.Pipeline.
type Pipeline struct {
	RunFn func(ctx context.Context, req sibyl.Request) (sibyl.Source, error)
}

// Run delegates to RunFn.
func (p *Pipeline) Run(ctx context.Context, req sibyl.Request) (sibyl.Source, error) {
	return p.RunFn(ctx, req)
}

// Source is a test double for sibyl.Source. NextFn panics when nil.
// CloseFn is nil-safe because test code commonly calls defer src.Close().
type Source struct {
	NextFn  func() (sibyl.Event, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Source) Next() (sibyl.Event, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Source) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// ScriptedSource returns a Source that replays events in order, honouring
// ctx between pulls, and then returns io.EOF. It records how many events
// were pulled in the returned counter.
func ScriptedSource(ctx context.Context, events []sibyl.Event) (*Source, *int) {
	i := 0
	pulled := new(int)
	return &Source{
		NextFn: func() (sibyl.Event, error) {
			if err := ctx.Err(); err != nil {
				return nil, sibyl.ErrCanceled
			}
			if i >= len(events) {
				return nil, io.EOF
			}
			evt := events[i]
			i++
			*pulled = i
			return evt, nil
		},
	}, pulled
}

// ScriptedPipeline returns a Pipeline whose runs replay the given events.
func ScriptedPipeline(events []sibyl.Event) *Pipeline {
	return &Pipeline{
		RunFn: func(ctx context.Context, _ sibyl.Request) (sibyl.Source, error) {
			src, _ := ScriptedSource(ctx, events)
			return src, nil
		},
	}
}
