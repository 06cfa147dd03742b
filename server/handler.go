package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sibylhq/sibyl"
	"github.com/sibylhq/sibyl/wire"
)

type chatRequest struct {
	ChatID      string   `json:"chatId,omitempty"`
	Query       string   `json:"query"`
	Attachments []string `json:"attachments,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type chatResponse struct {
	Chat     chatJSON      `json:"chat"`
	Messages []messageJSON `json:"messages"`
}

type chatJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type messageJSON struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// handleChat validates the submission, resolves the chat, and hands the
// connection to the producer. Setup failures short-circuit here with a
// structured error response; no frame is written and no stream exists.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var cfg sibyl.InferenceConfig
	if s.config != nil {
		var err error
		cfg, err = s.config.InferenceConfig(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("inference config unavailable")
			writeError(w, http.StatusServiceUnavailable, "inference backend is not configured")
			return
		}
	}

	req := sibyl.Request{Query: body.Query, Config: cfg}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(body.Attachments) > 0 {
		if s.resolver == nil {
			writeError(w, http.StatusBadRequest, "attachments are not supported")
			return
		}
		atts, err := s.resolver.Resolve(body.Attachments)
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot resolve attachments: "+err.Error())
			return
		}
		req.Attachments = atts
	}

	chat, firstExchange, err := s.resolveChat(r, body.ChatID)
	if err != nil {
		if errors.Is(err, sibyl.ErrChatNotFound) {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		s.log.Error().Err(err).Msg("chat lookup failed")
		writeError(w, http.StatusInternalServerError, "persistence unavailable")
		return
	}
	if body.ChatID != "" {
		history, err := s.store.Messages(ctx, chat.ID)
		if err != nil {
			s.log.Error().Err(err).Str("chat", chat.ID).Msg("history lookup failed")
			writeError(w, http.StatusInternalServerError, "persistence unavailable")
			return
		}
		req.History = history
		firstExchange = len(history) == 0
	}

	enc := wire.NewEncoder(w)
	if enc == nil {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	s.produce(ctx, enc, chat, req, firstExchange)
}

// resolveChat creates a fresh chat when no id was supplied, otherwise
// loads the existing one.
func (s *Server) resolveChat(r *http.Request, chatID string) (sibyl.Chat, bool, error) {
	if chatID == "" {
		chat, err := s.store.CreateChat(r.Context(), uuid.NewString())
		return chat, true, err
	}
	chat, err := s.store.GetChat(r.Context(), chatID)
	return chat, false, err
}

// handleGetChat returns a chat and its message history.
func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID := chi.URLParam(r, "chatID")

	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, sibyl.ErrChatNotFound) {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		s.log.Error().Err(err).Str("chat", chatID).Msg("chat lookup failed")
		writeError(w, http.StatusInternalServerError, "persistence unavailable")
		return
	}

	msgs, err := s.store.Messages(ctx, chatID)
	if err != nil {
		s.log.Error().Err(err).Str("chat", chatID).Msg("history lookup failed")
		writeError(w, http.StatusInternalServerError, "persistence unavailable")
		return
	}

	resp := chatResponse{
		Chat: chatJSON{
			ID:        chat.ID,
			Title:     chat.Title,
			CreatedAt: chat.CreatedAt.Format(timeFormat),
			UpdatedAt: chat.UpdatedAt.Format(timeFormat),
		},
		Messages: make([]messageJSON, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, messageJSON{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format(timeFormat),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
