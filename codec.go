package sibyl

import (
	"encoding/json"
	"fmt"
)

// Wire type tags. One tag per Event variant; the set is closed.
const (
	TypeChatID    = "chat-id"
	TypeStage     = "stage"
	TypeSignals   = "signals"
	TypeReasoning = "reasoning"
	TypeTextDelta = "text-delta"
	TypeSoar      = "soar"
	TypeComplete  = "complete"
	TypeError     = "error"
)

type wireChatID struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
}

type wireStage struct {
	Type   string   `json:"type"`
	Stage  string   `json:"stage"`
	Status string   `json:"status"`
	Detail string   `json:"detail,omitempty"`
	Value  *float64 `json:"value,omitempty"`
}

type wireSignals struct {
	Type string         `json:"type"`
	Data SignalSnapshot `json:"data"`
}

type wireText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type wireSoar struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type wireComplete struct {
	Type string `json:"type"`
	Completion
}

type wireError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MarshalEvent encodes an Event as its tagged JSON payload.
func MarshalEvent(evt Event) ([]byte, error) {
	switch e := evt.(type) {
	case EventChatID:
		return json.Marshal(wireChatID{Type: TypeChatID, ChatID: e.ChatID})
	case EventStage:
		return json.Marshal(wireStage{Type: TypeStage, Stage: e.Stage, Status: e.Status, Detail: e.Detail, Value: e.Value})
	case EventSignals:
		return json.Marshal(wireSignals{Type: TypeSignals, Data: e.Data})
	case EventReasoning:
		return json.Marshal(wireText{Type: TypeReasoning, Text: e.Text})
	case EventTextDelta:
		return json.Marshal(wireText{Type: TypeTextDelta, Text: e.Text})
	case EventSoar:
		return json.Marshal(wireSoar{Type: TypeSoar, Event: e.Event, Data: e.Data})
	case EventComplete:
		return json.Marshal(wireComplete{Type: TypeComplete, Completion: e.Completion})
	case EventError:
		return json.Marshal(wireError{Type: TypeError, Message: e.Message})
	default:
		return nil, fmt.Errorf("marshal: unknown event type %T", evt)
	}
}

// ParseEvent decodes a tagged JSON payload into its Event variant.
// Unknown tags and malformed payloads return an error; callers treat both
// as a malformed frame.
func ParseEvent(data []byte) (Event, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}

	switch env.Type {
	case TypeChatID:
		var w wireChatID
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", env.Type, err)
		}
		return EventChatID{ChatID: w.ChatID}, nil
	case TypeStage:
		var w wireStage
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", env.Type, err)
		}
		return EventStage{Stage: w.Stage, Status: w.Status, Detail: w.Detail, Value: w.Value}, nil
	case TypeSignals:
		var w wireSignals
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", env.Type, err)
		}
		return EventSignals{Data: w.Data}, nil
	case TypeReasoning:
		var w wireText
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", env.Type, err)
		}
		return EventReasoning{Text: w.Text}, nil
	case TypeTextDelta:
		var w wireText
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", env.Type, err)
		}
		return EventTextDelta{Text: w.Text}, nil
	case TypeSoar:
		var w wireSoar
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", env.Type, err)
		}
		return EventSoar{Event: w.Event, Data: w.Data}, nil
	case TypeComplete:
		var w wireComplete
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", env.Type, err)
		}
		return EventComplete{Completion: w.Completion}, nil
	case TypeError:
		var w wireError
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("parse %s: %w", env.Type, err)
		}
		return EventError{Message: w.Message}, nil
	default:
		return nil, fmt.Errorf("parse event: unknown type %q", env.Type)
	}
}
