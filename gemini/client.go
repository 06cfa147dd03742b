package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/sibylhq/sibyl"
)

// Interface compliance check.
var _ sibyl.Pipeline = (*Pipeline)(nil)

// Pipeline runs analytical queries against the Gemini API.
type Pipeline struct {
	client *genai.Client
	model  string
}

// Option configures a [Pipeline].
type Option func(*Pipeline)

// WithModel sets the default model ID.
func WithModel(model string) Option {
	return func(p *Pipeline) { p.model = model }
}

// New creates a Pipeline with the given API key and options. An empty
// key is a preflight failure: callers surface it before any stream opens.
func New(ctx context.Context, apiKey string, opts ...Option) (*Pipeline, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	p := &Pipeline{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Run starts one streaming generation and returns its event source.
func (p *Pipeline) Run(ctx context.Context, req sibyl.Request) (sibyl.Source, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	model := req.Config.Model
	if model == "" {
		model = p.model
	}

	iter := p.client.Models.GenerateContentStream(ctx, model, buildContents(req), buildConfig(req))
	return newSource(ctx, iter), nil
}

func buildConfig(req sibyl.Request) *genai.GenerateContentConfig {
	maxTokens := req.Config.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
		},
	}
	if req.Config.Temperature != nil {
		temp := float32(*req.Config.Temperature)
		config.Temperature = &temp
	}
	return config
}

// buildContents converts the history plus the new query into genai
// contents. Attachment names are surfaced to the model as context lines;
// content extraction happens upstream.
func buildContents(req sibyl.Request) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range req.History {
		role := "user"
		if msg.Role == sibyl.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	query := req.Query
	for _, att := range req.Attachments {
		query += "\n[attachment: " + att.Name + "]"
	}
	contents = append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: query}},
	})
	return contents
}
