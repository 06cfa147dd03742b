package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibylhq/sibyl"
	"github.com/sibylhq/sibyl/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ChatLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	created, err := s.CreateChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", created.ID)
	assert.Empty(t, created.Title)

	got, err := s.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)

	require.NoError(t, s.SetChatTitle(ctx, "c1", "capital of France"))
	got, err = s.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "capital of France", got.Title)
}

func TestStore_MissingChat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	_, err := s.GetChat(ctx, "nope")
	assert.ErrorIs(t, err, sibyl.ErrChatNotFound)

	err = s.SetChatTitle(ctx, "nope", "title")
	assert.ErrorIs(t, err, sibyl.ErrChatNotFound)
}

func TestStore_MessagesInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	_, err := s.CreateChat(ctx, "c1")
	require.NoError(t, err)

	base := time.Now().Truncate(time.Millisecond)
	for i, m := range []sibyl.Message{
		{ID: "m1", ChatID: "c1", Role: sibyl.RoleUser, Content: "question"},
		{ID: "m2", ChatID: "c1", Role: sibyl.RoleAssistant, Content: "answer"},
		{ID: "m3", ChatID: "c1", Role: sibyl.RoleUser, Content: "follow up"},
	} {
		m.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, s.AppendMessage(ctx, m))
	}

	msgs, err := s.Messages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, sibyl.RoleUser, msgs[0].Role)
	assert.Equal(t, "answer", msgs[1].Content)
	assert.Equal(t, "m3", msgs[2].ID)

	// Appending touches the chat's updated_at.
	chat, err := s.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, chat.UpdatedAt.Before(base))

	other, err := s.Messages(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_RunRecordsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	_, err := s.CreateChat(ctx, "c1")
	require.NoError(t, err)

	health := 0.82
	base := time.Now().Truncate(time.Millisecond)
	require.NoError(t, s.Record(ctx, sibyl.RunRecord{
		ChatID:     "c1",
		Query:      "why",
		Answer:     "because",
		Mode:       sibyl.ModeComplex,
		Confidence: 0.74,
		Grade:      "B",
		Signals:    sibyl.SignalSnapshot{Health: &health, Concepts: []string{"entropy"}},
		RecordedAt: base,
	}))
	require.NoError(t, s.Record(ctx, sibyl.RunRecord{
		ChatID:     "c1",
		Query:      "and then",
		Answer:     "therefore",
		Mode:       sibyl.ModeSimple,
		RecordedAt: base.Add(time.Second),
	}))

	recs, err := s.SignalHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "why", recs[0].Query)
	assert.Equal(t, sibyl.ModeComplex, recs[0].Mode)
	assert.Equal(t, 0.74, recs[0].Confidence)
	require.NotNil(t, recs[0].Signals.Health)
	assert.Equal(t, 0.82, *recs[0].Signals.Health)
	assert.Equal(t, []string{"entropy"}, recs[0].Signals.Concepts)
	assert.True(t, recs[0].RecordedAt.Equal(base))

	assert.Equal(t, "and then", recs[1].Query, "history is oldest first")
}

func TestStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sibyl.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	_, err = s.CreateChat(ctx, "c1")
	require.NoError(t, err)
	require.NoError(t, s.SetChatTitle(ctx, "c1", "kept"))
	require.NoError(t, s.Close())

	// Reopening runs the migration check against an up-to-date schema.
	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	chat, err := s.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "kept", chat.Title)
}
