// Package store implements the persistence collaborators on SQLite:
// chats and messages, plus the long-term memory of signal run records.
// All writes are serialized by the store itself.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sibylhq/sibyl"
)

const schemaVersion = 1

// Interface compliance checks.
var (
	_ sibyl.ChatStore      = (*Store)(nil)
	_ sibyl.MemoryRecorder = (*Store)(nil)
)

// Store is a SQLite-backed implementation of ChatStore and MemoryRecorder.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed migrates) the database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// A single writer sidesteps SQLITE_BUSY under concurrent submissions.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS chats (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		chat_id    TEXT NOT NULL REFERENCES chats(id),
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at);
	CREATE TABLE IF NOT EXISTS run_records (
		chat_id     TEXT NOT NULL REFERENCES chats(id),
		recorded_at INTEGER NOT NULL,
		payload     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_run_records_chat ON run_records(chat_id, recorded_at);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateChat inserts a new chat with the given id.
func (s *Store) CreateChat(ctx context.Context, id string) (sibyl.Chat, error) {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, '', ?, ?)",
		id, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return sibyl.Chat{}, fmt.Errorf("store: create chat: %w", err)
	}
	return sibyl.Chat{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

// GetChat loads a chat by id. Returns sibyl.ErrChatNotFound when absent.
func (s *Store) GetChat(ctx context.Context, id string) (sibyl.Chat, error) {
	var (
		chat                 sibyl.Chat
		createdMS, updatedMS int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, created_at, updated_at FROM chats WHERE id = ?", id).
		Scan(&chat.ID, &chat.Title, &createdMS, &updatedMS)
	if errors.Is(err, sql.ErrNoRows) {
		return sibyl.Chat{}, sibyl.ErrChatNotFound
	}
	if err != nil {
		return sibyl.Chat{}, fmt.Errorf("store: get chat: %w", err)
	}
	chat.CreatedAt = time.UnixMilli(createdMS)
	chat.UpdatedAt = time.UnixMilli(updatedMS)
	return chat, nil
}

// SetChatTitle updates a chat's title.
func (s *Store) SetChatTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE chats SET title = ?, updated_at = ? WHERE id = ?",
		title, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("store: set title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sibyl.ErrChatNotFound
	}
	return nil
}

// AppendMessage stores one message and touches the chat.
func (s *Store) AppendMessage(ctx context.Context, msg sibyl.Message) error {
	created := msg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO messages (id, chat_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.ChatID, string(msg.Role), msg.Content, created.UnixMilli()); err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE chats SET updated_at = ? WHERE id = ?",
		created.UnixMilli(), msg.ChatID); err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	return tx.Commit()
}

// Messages returns a chat's messages in insertion order.
func (s *Store) Messages(ctx context.Context, chatID string) ([]sibyl.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, chat_id, role, content, created_at FROM messages WHERE chat_id = ? ORDER BY created_at, id",
		chatID)
	if err != nil {
		return nil, fmt.Errorf("store: messages: %w", err)
	}
	defer rows.Close()

	var msgs []sibyl.Message
	for rows.Next() {
		var (
			m         sibyl.Message
			role      string
			createdMS int64
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &role, &m.Content, &createdMS); err != nil {
			return nil, fmt.Errorf("store: messages: %w", err)
		}
		m.Role = sibyl.Role(role)
		m.CreatedAt = time.UnixMilli(createdMS)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// runRecordJSON is the stored shape of a RunRecord.
type runRecordJSON struct {
	Query      string               `json:"query"`
	Answer     string               `json:"answer"`
	Mode       sibyl.ReasoningMode  `json:"mode"`
	Confidence float64              `json:"confidence"`
	Grade      string               `json:"grade"`
	Signals    sibyl.SignalSnapshot `json:"signals"`
}

// Record stores one run record keyed by chat.
func (s *Store) Record(ctx context.Context, rec sibyl.RunRecord) error {
	recorded := rec.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	payload, err := json.Marshal(runRecordJSON{
		Query:      rec.Query,
		Answer:     rec.Answer,
		Mode:       rec.Mode,
		Confidence: rec.Confidence,
		Grade:      rec.Grade,
		Signals:    rec.Signals,
	})
	if err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO run_records (chat_id, recorded_at, payload) VALUES (?, ?, ?)",
		rec.ChatID, recorded.UnixMilli(), payload); err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}
	return nil
}

// SignalHistory returns a chat's run records, oldest first.
func (s *Store) SignalHistory(ctx context.Context, chatID string) ([]sibyl.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT recorded_at, payload FROM run_records WHERE chat_id = ? ORDER BY recorded_at",
		chatID)
	if err != nil {
		return nil, fmt.Errorf("store: signal history: %w", err)
	}
	defer rows.Close()

	var recs []sibyl.RunRecord
	for rows.Next() {
		var (
			recordedMS int64
			payload    []byte
		)
		if err := rows.Scan(&recordedMS, &payload); err != nil {
			return nil, fmt.Errorf("store: signal history: %w", err)
		}
		var stored runRecordJSON
		if err := json.Unmarshal(payload, &stored); err != nil {
			return nil, fmt.Errorf("store: signal history: %w", err)
		}
		recs = append(recs, sibyl.RunRecord{
			ChatID:     chatID,
			Query:      stored.Query,
			Answer:     stored.Answer,
			Mode:       stored.Mode,
			Confidence: stored.Confidence,
			Grade:      stored.Grade,
			Signals:    stored.Signals,
			RecordedAt: time.UnixMilli(recordedMS),
		})
	}
	return recs, rows.Err()
}
