package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/sibylhq/sibyl"
)

// Interface compliance check.
var _ sibyl.Source = (*source)(nil)

// source adapts the genai streaming iterator to [sibyl.Source]. It owns
// the event ordering contract of a run: stage events around the model
// call, deltas while streaming, then signals and the terminal complete.
type source struct {
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	ctx     context.Context
	pending []sibyl.Event
	answer  strings.Builder
	thought strings.Builder
	drained bool
	done    bool
	err     error
}

func newSource(ctx context.Context, iterFn iter.Seq2[*genai.GenerateContentResponse, error]) *source {
	next, stop := iter.Pull2(iterFn)
	return &source{
		pull: next,
		stop: stop,
		ctx:  ctx,
		pending: []sibyl.Event{
			sibyl.EventStage{Stage: "analysis", Status: "started"},
		},
	}
}

// Next returns the next event, pulling from the model stream as needed.
// Returns io.EOF after the complete event.
func (s *source) Next() (sibyl.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	for {
		if len(s.pending) > 0 {
			evt := s.pending[0]
			s.pending = s.pending[1:]
			if _, ok := evt.(sibyl.EventComplete); ok {
				s.done = true
			}
			return evt, nil
		}
		if s.done {
			return nil, io.EOF
		}
		if err := s.ctx.Err(); err != nil {
			s.err = sibyl.ErrCanceled
			return nil, s.err
		}
		if s.drained {
			s.finalize()
			continue
		}

		resp, err, ok := s.pull()
		if !ok {
			s.drained = true
			continue
		}
		if err != nil {
			if s.ctx.Err() != nil {
				s.err = sibyl.ErrCanceled
			} else {
				s.err = fmt.Errorf("gemini: %w", err)
			}
			return nil, s.err
		}
		s.enqueue(resp)
	}
}

// enqueue maps one response chunk onto delta events.
func (s *source) enqueue(resp *genai.GenerateContentResponse) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text == "" {
				continue
			}
			if part.Thought {
				s.thought.WriteString(part.Text)
				s.pending = append(s.pending, sibyl.EventReasoning{Text: part.Text})
			} else {
				s.answer.WriteString(part.Text)
				s.pending = append(s.pending, sibyl.EventTextDelta{Text: part.Text})
			}
		}
	}
}

// finalize grades the drained stream and queues the closing events.
func (s *source) finalize() {
	answer := s.answer.String()
	snap := assess(answer + s.thought.String())
	conf := confidence(answer)

	s.pending = append(s.pending,
		sibyl.EventStage{Stage: "final", Status: "done"},
		sibyl.EventSignals{Data: snap},
		sibyl.EventComplete{Completion: sibyl.Completion{
			DualMessage: sibyl.DualMessage{
				Plain:  plainSummary(answer),
				Expert: answer,
			},
			Confidence:      conf,
			Grade:           grade(answer),
			Mode:            mode(answer),
			TruthAssessment: truthAssessment(conf),
			Signals:         &snap,
		}},
	)
}

// Close stops the underlying iterator. Safe to call at any time.
func (s *source) Close() error {
	s.stop()
	return nil
}

// plainSummary is the first paragraph of the answer.
func plainSummary(answer string) string {
	trimmed := strings.TrimSpace(answer)
	if i := strings.Index(trimmed, "\n\n"); i > 0 {
		return trimmed[:i]
	}
	return trimmed
}
