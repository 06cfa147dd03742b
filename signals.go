package sibyl

import "time"

// ReasoningMode identifies the pathway the analytical engine selected.
type ReasoningMode string

const (
	ModeSimple            ReasoningMode = "simple"
	ModeModerate          ReasoningMode = "moderate"
	ModeComplex           ReasoningMode = "complex"
	ModeMetaAnalytical    ReasoningMode = "meta_analytical"
	ModeExecutiveOverride ReasoningMode = "executive_override"
)

// SignalSnapshot is a point-in-time view of the engine's health signals.
// Fields are pointers so a snapshot carried on the wire can omit values;
// omitted fields fall back to the previous snapshot via [SignalSnapshot.Merge].
type SignalSnapshot struct {
	Entropy    *float64 `json:"entropy,omitempty"`
	Dissonance *float64 `json:"dissonance,omitempty"`
	Health     *float64 `json:"health,omitempty"`
	Concepts   []string `json:"concepts,omitempty"`
}

// Merge returns s overlaid on prev: every field s omits is taken from prev.
func (s SignalSnapshot) Merge(prev SignalSnapshot) SignalSnapshot {
	out := s
	if out.Entropy == nil {
		out.Entropy = prev.Entropy
	}
	if out.Dissonance == nil {
		out.Dissonance = prev.Dissonance
	}
	if out.Health == nil {
		out.Health = prev.Health
	}
	if out.Concepts == nil {
		out.Concepts = prev.Concepts
	}
	return out
}

// DualMessage is the engine's answer rendered twice: a plain-language
// summary and the full technical account.
type DualMessage struct {
	Plain  string `json:"plain"`
	Expert string `json:"expert"`
}

// Completion is the payload of the terminal complete event.
type Completion struct {
	DualMessage     DualMessage     `json:"dualMessage"`
	Confidence      float64         `json:"confidence"`
	Grade           string          `json:"grade"` // evidence grade, A through F
	Mode            ReasoningMode   `json:"mode"`
	TruthAssessment string          `json:"truthAssessment"`
	Signals         *SignalSnapshot `json:"signals,omitempty"`
}

// RunRecord is the long-term memory entry written once per successful run.
type RunRecord struct {
	ChatID     string
	Query      string
	Answer     string
	Mode       ReasoningMode
	Confidence float64
	Grade      string
	Signals    SignalSnapshot
	RecordedAt time.Time
}
