// Package sibyl defines the domain types for a streaming conversational
// analytical service: the typed events carried over the wire protocol, the
// session and message model, and the interfaces of the collaborators the
// producer and consumer depend on.
package sibyl

import "encoding/json"

// Event is a sealed interface representing a streaming event.
// Events are purely semantic. Transport/protocol errors come from the
// frame layer, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventChatID binds a run to its server-assigned chat identifier.
// It is always the first content-bearing frame of a run.
type EventChatID struct {
	ChatID string
}

func (EventChatID) event() {}

// EventStage reports pipeline progress for one named stage.
type EventStage struct {
	Stage  string
	Status string
	Detail string
	Value  *float64
}

func (EventStage) event() {}

// EventSignals carries a diagnostics snapshot computed mid-run.
type EventSignals struct {
	Data SignalSnapshot
}

func (EventSignals) event() {}

// EventReasoning represents a reasoning text delta.
type EventReasoning struct {
	Text string
}

func (EventReasoning) event() {}

// EventTextDelta represents an answer text delta.
type EventTextDelta struct {
	Text string
}

func (EventTextDelta) event() {}

// EventSoar carries an internal engine event. Informational only; it is
// surfaced solely when verbose diagnostics are enabled and never affects
// control flow.
type EventSoar struct {
	Event string
	Data  json.RawMessage
}

func (EventSoar) event() {}

// EventComplete is the terminal content event of a successful run.
type EventComplete struct {
	Completion
}

func (EventComplete) event() {}

// EventError reports a pipeline failure mid-stream. The stream terminates
// after it, except for the secondary, non-fatal error emitted when
// persistence fails after a complete event has already been delivered.
type EventError struct {
	Message string
}

func (EventError) event() {}

// Interface compliance checks.
var (
	_ Event = EventChatID{}
	_ Event = EventStage{}
	_ Event = EventSignals{}
	_ Event = EventReasoning{}
	_ Event = EventTextDelta{}
	_ Event = EventSoar{}
	_ Event = EventComplete{}
	_ Event = EventError{}
)
