package server

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibylhq/sibyl"
	"github.com/sibylhq/sibyl/mock"
	"github.com/sibylhq/sibyl/wire"
)

// decodeFrames parses a recorded response body back into events. The done
// marker, which carries no event, is returned separately.
func decodeFrames(t *testing.T, body []byte) (events []sibyl.Event, done bool) {
	t.Helper()
	for _, f := range (&wire.Decoder{}).Consume(body) {
		if f.Done {
			done = true
			continue
		}
		require.False(t, done, "frame after done marker")
		evt, err := sibyl.ParseEvent([]byte(f.Payload))
		require.NoError(t, err)
		events = append(events, evt)
	}
	return events, done
}

func completionEvent(answer string) sibyl.EventComplete {
	return sibyl.EventComplete{Completion: sibyl.Completion{
		DualMessage: sibyl.DualMessage{Plain: answer, Expert: answer},
		Confidence:  0.9,
		Grade:       "B",
		Mode:        sibyl.ModeSimple,
	}}
}

func TestProduce_SuccessfulStream(t *testing.T) {
	t.Parallel()

	events := []sibyl.Event{
		sibyl.EventStage{Stage: "analysis", Status: "started"},
		sibyl.EventTextDelta{Text: "The capital "},
		sibyl.EventTextDelta{Text: "is Paris."},
		completionEvent("The capital is Paris."),
	}

	var (
		appended []sibyl.Message
		title    string
	)
	store := &mock.ChatStore{
		AppendMessageFn: func(_ context.Context, msg sibyl.Message) error {
			appended = append(appended, msg)
			return nil
		},
		SetChatTitleFn: func(_ context.Context, _, t string) error {
			title = t
			return nil
		},
	}
	s := New(mock.ScriptedPipeline(events), store)

	rec := httptest.NewRecorder()
	enc := wire.NewEncoder(rec)
	require.NotNil(t, enc)

	req := sibyl.Request{Query: "capital of France?"}
	state := s.produce(context.Background(), enc, sibyl.Chat{ID: "c1"}, req, true)
	assert.Equal(t, phaseComplete, state)

	got, done := decodeFrames(t, rec.Body.Bytes())
	assert.True(t, done)
	require.Len(t, got, len(events)+1)
	assert.Equal(t, sibyl.EventChatID{ChatID: "c1"}, got[0])
	assert.Equal(t, events, got[1:])

	require.Len(t, appended, 2)
	assert.Equal(t, sibyl.RoleUser, appended[0].Role)
	assert.Equal(t, "capital of France?", appended[0].Content)
	assert.Equal(t, sibyl.RoleAssistant, appended[1].Role)
	assert.Equal(t, "The capital is Paris.", appended[1].Content)
	assert.Equal(t, "capital of France?", title)
}

func TestProduce_CancellationStopsConsumptionAndSkipsPersistence(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A long script the producer must not finish: cancellation fires
	// after the third pull.
	var events []sibyl.Event
	for i := 0; i < 100; i++ {
		events = append(events, sibyl.EventTextDelta{Text: "x"})
	}
	src, pulled := mock.ScriptedSource(ctx, events)
	inner := src.NextFn
	src.NextFn = func() (sibyl.Event, error) {
		if *pulled == 3 {
			cancel()
		}
		return inner()
	}
	pipeline := &mock.Pipeline{
		RunFn: func(context.Context, sibyl.Request) (sibyl.Source, error) {
			return src, nil
		},
	}

	persisted := false
	store := &mock.ChatStore{
		AppendMessageFn: func(context.Context, sibyl.Message) error {
			persisted = true
			return nil
		},
	}
	s := New(pipeline, store)

	rec := httptest.NewRecorder()
	enc := wire.NewEncoder(rec)
	require.NotNil(t, enc)

	state := s.produce(ctx, enc, sibyl.Chat{ID: "c1"}, sibyl.Request{Query: "q"}, false)
	assert.Equal(t, phaseAborted, state)

	assert.False(t, persisted, "aborted run must not persist")
	assert.Less(t, *pulled, len(events), "producer kept pulling after cancellation")

	_, done := decodeFrames(t, rec.Body.Bytes())
	assert.True(t, done, "done marker missing on aborted stream")
}

func TestProduce_KeepAliveCommentsDuringStall(t *testing.T) {
	t.Parallel()

	calls := 0
	pipeline := &mock.Pipeline{
		RunFn: func(context.Context, sibyl.Request) (sibyl.Source, error) {
			return &mock.Source{
				NextFn: func() (sibyl.Event, error) {
					calls++
					if calls == 1 {
						// A long model stall before the result arrives.
						time.Sleep(50 * time.Millisecond)
						return completionEvent("late"), nil
					}
					return nil, io.EOF
				},
			}, nil
		},
	}
	s := New(pipeline, &mock.ChatStore{}, WithKeepAliveInterval(5*time.Millisecond))

	rec := httptest.NewRecorder()
	enc := wire.NewEncoder(rec)
	require.NotNil(t, enc)

	state := s.produce(context.Background(), enc, sibyl.Chat{ID: "c1"}, sibyl.Request{Query: "q"}, false)
	assert.Equal(t, phaseComplete, state)

	body := rec.Body.Bytes()
	assert.Contains(t, string(body), ": keep-alive\n\n")

	// Comments are transparent to the decoder: the event stream is
	// unchanged.
	got, done := decodeFrames(t, body)
	assert.True(t, done)
	require.Len(t, got, 2)
	assert.Equal(t, sibyl.EventChatID{ChatID: "c1"}, got[0])
	_, ok := got[1].(sibyl.EventComplete)
	assert.True(t, ok)
}

func TestProduce_PipelineStartFailure(t *testing.T) {
	t.Parallel()

	pipeline := &mock.Pipeline{
		RunFn: func(context.Context, sibyl.Request) (sibyl.Source, error) {
			return nil, errors.New("backend unreachable")
		},
	}
	s := New(pipeline, &mock.ChatStore{})

	rec := httptest.NewRecorder()
	enc := wire.NewEncoder(rec)
	require.NotNil(t, enc)

	state := s.produce(context.Background(), enc, sibyl.Chat{ID: "c1"}, sibyl.Request{Query: "q"}, false)
	assert.Equal(t, phaseErrored, state)

	got, done := decodeFrames(t, rec.Body.Bytes())
	assert.True(t, done)
	require.Len(t, got, 2)
	assert.Equal(t, sibyl.EventChatID{ChatID: "c1"}, got[0])
	assert.Equal(t, sibyl.EventError{Message: "backend unreachable"}, got[1])
}

func TestProduce_MidStreamFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	pipeline := &mock.Pipeline{
		RunFn: func(context.Context, sibyl.Request) (sibyl.Source, error) {
			return &mock.Source{
				NextFn: func() (sibyl.Event, error) {
					calls++
					if calls == 1 {
						return sibyl.EventTextDelta{Text: "partial"}, nil
					}
					return nil, errors.New("stream torn down")
				},
			}, nil
		},
	}

	persisted := false
	store := &mock.ChatStore{
		AppendMessageFn: func(context.Context, sibyl.Message) error {
			persisted = true
			return nil
		},
	}
	s := New(pipeline, store)

	rec := httptest.NewRecorder()
	enc := wire.NewEncoder(rec)
	require.NotNil(t, enc)

	state := s.produce(context.Background(), enc, sibyl.Chat{ID: "c1"}, sibyl.Request{Query: "q"}, false)
	assert.Equal(t, phaseErrored, state)
	assert.False(t, persisted)

	got, done := decodeFrames(t, rec.Body.Bytes())
	assert.True(t, done)
	require.Len(t, got, 3)
	assert.Equal(t, sibyl.EventError{Message: "stream torn down"}, got[2])
}

func TestProduce_NoCompletionIsAnError(t *testing.T) {
	t.Parallel()

	pipeline := &mock.Pipeline{
		RunFn: func(context.Context, sibyl.Request) (sibyl.Source, error) {
			return &mock.Source{
				NextFn: func() (sibyl.Event, error) { return nil, io.EOF },
			}, nil
		},
	}
	s := New(pipeline, &mock.ChatStore{})

	rec := httptest.NewRecorder()
	enc := wire.NewEncoder(rec)
	require.NotNil(t, enc)

	state := s.produce(context.Background(), enc, sibyl.Chat{ID: "c1"}, sibyl.Request{Query: "q"}, false)
	assert.Equal(t, phaseErrored, state)

	got, _ := decodeFrames(t, rec.Body.Bytes())
	require.Len(t, got, 2)
	assert.Equal(t, sibyl.EventError{Message: "pipeline ended without a result"}, got[1])
}

func TestProduce_PersistenceFailureAfterCompleteIsNonFatal(t *testing.T) {
	t.Parallel()

	events := []sibyl.Event{
		sibyl.EventTextDelta{Text: "done"},
		completionEvent("done"),
	}
	store := &mock.ChatStore{
		AppendMessageFn: func(context.Context, sibyl.Message) error {
			return errors.New("disk full")
		},
	}
	s := New(mock.ScriptedPipeline(events), store)

	rec := httptest.NewRecorder()
	enc := wire.NewEncoder(rec)
	require.NotNil(t, enc)

	state := s.produce(context.Background(), enc, sibyl.Chat{ID: "c1"}, sibyl.Request{Query: "q"}, false)
	assert.Equal(t, phaseComplete, state, "delivered result is never retracted")

	got, done := decodeFrames(t, rec.Body.Bytes())
	assert.True(t, done)
	require.Len(t, got, 4)
	_, ok := got[2].(sibyl.EventComplete)
	assert.True(t, ok, "complete frame precedes the persistence report")
	assert.Equal(t, sibyl.EventError{Message: "result delivered but not persisted: disk full"}, got[3])
}
