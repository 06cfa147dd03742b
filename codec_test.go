package sibyl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibylhq/sibyl"
)

func TestParseEvent(t *testing.T) {
	t.Parallel()

	val := 0.4
	tests := []struct {
		name    string
		payload string
		want    sibyl.Event
	}{
		{
			name:    "chat id",
			payload: `{"type":"chat-id","chatId":"abc-123"}`,
			want:    sibyl.EventChatID{ChatID: "abc-123"},
		},
		{
			name:    "stage with optional fields",
			payload: `{"type":"stage","stage":"analysis","status":"progress","detail":"causal","value":0.4}`,
			want:    sibyl.EventStage{Stage: "analysis", Status: "progress", Detail: "causal", Value: &val},
		},
		{
			name:    "stage without optional fields",
			payload: `{"type":"stage","stage":"final","status":"done"}`,
			want:    sibyl.EventStage{Stage: "final", Status: "done"},
		},
		{
			name:    "reasoning",
			payload: `{"type":"reasoning","text":"let me think"}`,
			want:    sibyl.EventReasoning{Text: "let me think"},
		},
		{
			name:    "text delta",
			payload: `{"type":"text-delta","text":"Paris"}`,
			want:    sibyl.EventTextDelta{Text: "Paris"},
		},
		{
			name:    "error",
			payload: `{"type":"error","message":"boom"}`,
			want:    sibyl.EventError{Message: "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := sibyl.ParseEvent([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEvent_Complete(t *testing.T) {
	t.Parallel()

	payload := `{
		"type": "complete",
		"dualMessage": {"plain": "Paris.", "expert": "The capital of France is Paris."},
		"confidence": 0.92,
		"grade": "B",
		"mode": "simple",
		"truthAssessment": "supported",
		"signals": {"health": 0.8}
	}`

	got, err := sibyl.ParseEvent([]byte(payload))
	require.NoError(t, err)

	complete, ok := got.(sibyl.EventComplete)
	require.True(t, ok)
	assert.Equal(t, "Paris.", complete.DualMessage.Plain)
	assert.Equal(t, 0.92, complete.Confidence)
	assert.Equal(t, sibyl.ModeSimple, complete.Mode)
	require.NotNil(t, complete.Signals)
	require.NotNil(t, complete.Signals.Health)
	assert.Equal(t, 0.8, *complete.Signals.Health)
	assert.Nil(t, complete.Signals.Entropy)
}

func TestParseEvent_Soar(t *testing.T) {
	t.Parallel()

	got, err := sibyl.ParseEvent([]byte(`{"type":"soar","event":"operator-selected","data":{"op":"elaborate"}}`))
	require.NoError(t, err)

	soar, ok := got.(sibyl.EventSoar)
	require.True(t, ok)
	assert.Equal(t, "operator-selected", soar.Event)
	assert.JSONEq(t, `{"op":"elaborate"}`, string(soar.Data))
}

func TestParseEvent_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"type":"text-delta"`},
		{"unknown type", `{"type":"telepathy","text":"hi"}`},
		{"missing type", `{"text":"hi"}`},
		{"wrong shape", `{"type":"stage","value":"not-a-number"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := sibyl.ParseEvent([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestMarshalEvent_WireShape(t *testing.T) {
	t.Parallel()

	data, err := sibyl.MarshalEvent(sibyl.EventChatID{ChatID: "c9"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat-id","chatId":"c9"}`, string(data))

	data, err = sibyl.MarshalEvent(sibyl.EventStage{Stage: "triage", Status: "started"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"stage","stage":"triage","status":"started"}`, string(data))
}

func TestSignalSnapshot_Merge(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }
	prev := sibyl.SignalSnapshot{
		Entropy:    f(0.2),
		Dissonance: f(0.1),
		Health:     f(0.9),
		Concepts:   []string{"causality"},
	}
	cur := sibyl.SignalSnapshot{Health: f(0.5)}

	merged := cur.Merge(prev)

	assert.Equal(t, 0.5, *merged.Health)
	assert.Equal(t, 0.2, *merged.Entropy)
	assert.Equal(t, 0.1, *merged.Dissonance)
	assert.Equal(t, []string{"causality"}, merged.Concepts)
}
