package mock

import (
	"context"

	"github.com/sibylhq/sibyl"
)

// Interface compliance checks.
var (
	_ sibyl.ChatStore      = (*ChatStore)(nil)
	_ sibyl.MemoryRecorder = (*MemoryRecorder)(nil)
	_ sibyl.ConfigSource   = (*ConfigSource)(nil)
)

// ChatStore is a test double for sibyl.ChatStore.
type ChatStore struct {
	CreateChatFn    func(ctx context.Context, id string) (sibyl.Chat, error)
	GetChatFn       func(ctx context.Context, id string) (sibyl.Chat, error)
	SetChatTitleFn  func(ctx context.Context, id, title string) error
	AppendMessageFn func(ctx context.Context, msg sibyl.Message) error
	MessagesFn      func(ctx context.Context, chatID string) ([]sibyl.Message, error)
}

// CreateChat delegates to CreateChatFn.
func (s *ChatStore) CreateChat(ctx context.Context, id string) (sibyl.Chat, error) {
	return s.CreateChatFn(ctx, id)
}

// GetChat delegates to GetChatFn.
func (s *ChatStore) GetChat(ctx context.Context, id string) (sibyl.Chat, error) {
	return s.GetChatFn(ctx, id)
}

// SetChatTitle delegates to SetChatTitleFn. No-op when nil.
func (s *ChatStore) SetChatTitle(ctx context.Context, id, title string) error {
	if s.SetChatTitleFn == nil {
		return nil
	}
	return s.SetChatTitleFn(ctx, id, title)
}

// AppendMessage delegates to AppendMessageFn. No-op when nil.
func (s *ChatStore) AppendMessage(ctx context.Context, msg sibyl.Message) error {
	if s.AppendMessageFn == nil {
		return nil
	}
	return s.AppendMessageFn(ctx, msg)
}

// Messages delegates to MessagesFn. Returns nil when nil.
func (s *ChatStore) Messages(ctx context.Context, chatID string) ([]sibyl.Message, error) {
	if s.MessagesFn == nil {
		return nil, nil
	}
	return s.MessagesFn(ctx, chatID)
}

// MemoryRecorder is a test double for sibyl.MemoryRecorder.
type MemoryRecorder struct {
	RecordFn func(ctx context.Context, rec sibyl.RunRecord) error
}

// Record delegates to RecordFn. No-op when nil.
func (m *MemoryRecorder) Record(ctx context.Context, rec sibyl.RunRecord) error {
	if m.RecordFn == nil {
		return nil
	}
	return m.RecordFn(ctx, rec)
}

// ConfigSource is a test double for sibyl.ConfigSource. Returns the
// zero config when ConfigFn is nil.
type ConfigSource struct {
	ConfigFn func(ctx context.Context) (sibyl.InferenceConfig, error)
}

// InferenceConfig delegates to ConfigFn.
func (c *ConfigSource) InferenceConfig(ctx context.Context) (sibyl.InferenceConfig, error) {
	if c.ConfigFn == nil {
		return sibyl.InferenceConfig{}, nil
	}
	return c.ConfigFn(ctx)
}
