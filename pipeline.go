package sibyl

import (
	"context"
	"fmt"
	"strings"
)

// InferenceConfig carries model selection and generation parameters for
// the analytical engine. The pipeline uses its own defaults when fields
// are zero/nil.
type InferenceConfig struct {
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
}

// Request is one unit of pipeline work: the query, the conversation so
// far, any resolved attachments, and the inference configuration.
type Request struct {
	Query       string
	History     []Message
	Attachments []Attachment
	Config      InferenceConfig
}

// Validate checks universal constraints on Request. Pipeline
// implementations may apply additional backend-specific validation.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query must not be empty: %w", ErrValidation)
	}
	if r.Config.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.Config.MaxTokens, ErrValidation)
	}
	if t := r.Config.Temperature; t != nil {
		if *t < 0 || *t > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *t, ErrValidation)
		}
	}
	return nil
}

// Source is a pull-based iterator over the events of one pipeline run.
// Next returns io.EOF after the terminal event. Cancellation flows through
// the context passed to Pipeline.Run; a canceled run surfaces an error
// satisfying IsCanceled.
type Source interface {
	Next() (Event, error)
	Close() error
}

// Pipeline is the analytical engine boundary: it turns a Request into an
// ordered event sequence ending in EventComplete. The algorithm behind it
// is out of scope here.
type Pipeline interface {
	Run(ctx context.Context, req Request) (Source, error)
}

// ConfigSource resolves the inference configuration for a run.
type ConfigSource interface {
	InferenceConfig(ctx context.Context) (InferenceConfig, error)
}
