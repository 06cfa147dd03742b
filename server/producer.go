package server

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sibylhq/sibyl"
	"github.com/sibylhq/sibyl/wire"
)

// phase is the producer state machine.
type phase int

const (
	phaseInit phase = iota
	phaseStreaming
	phaseComplete
	phaseAborted
	phaseErrored
)

// produce runs one stream: chat-id first, then the pipeline's events one
// at a time with a liveness check before every write, then persistence on
// complete. The end-of-stream sentinel is written on every exit path so
// the consumer's read loop always terminates.
func (s *Server) produce(ctx context.Context, enc *wire.Encoder, chat sibyl.Chat, req sibyl.Request, firstExchange bool) phase {
	log := s.log.With().Str("chat", chat.ID).Logger()
	s.metrics.streamOpened()
	defer s.metrics.streamClosed()
	defer func() {
		if err := enc.WriteDone(); err != nil {
			log.Debug().Err(err).Msg("done marker not delivered")
		}
	}()

	state := phaseInit

	// Comment frames keep the connection warm through long stalls in
	// src.Next; decoders discard them.
	stopKeepAlive := s.startKeepAlive(ctx, enc)
	defer stopKeepAlive()

	// The chat-id frame goes out before any heavy computation so the
	// client can correlate the session immediately.
	if err := s.emit(enc, sibyl.EventChatID{ChatID: chat.ID}); err != nil {
		s.metrics.streamAborted()
		return phaseAborted
	}

	src, err := s.pipeline.Run(ctx, req)
	if err != nil {
		if sibyl.IsCanceled(err) || ctx.Err() != nil {
			s.metrics.streamAborted()
			return phaseAborted
		}
		log.Error().Err(err).Msg("pipeline start failed")
		s.metrics.streamErrored()
		_ = s.emit(enc, sibyl.EventError{Message: err.Error()})
		return phaseErrored
	}
	defer src.Close()

	state = phaseStreaming
	var (
		answer     strings.Builder
		completion *sibyl.Completion
	)

	for state == phaseStreaming {
		evt, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if sibyl.IsCanceled(err) || ctx.Err() != nil {
				s.metrics.streamAborted()
				return phaseAborted
			}
			log.Error().Err(err).Msg("pipeline failed mid-stream")
			s.metrics.streamErrored()
			_ = s.emit(enc, sibyl.EventError{Message: err.Error()})
			return phaseErrored
		}

		// Liveness check before each write: a vanished listener stops
		// pipeline consumption immediately.
		if ctx.Err() != nil {
			s.metrics.streamAborted()
			return phaseAborted
		}

		switch e := evt.(type) {
		case sibyl.EventTextDelta:
			answer.WriteString(e.Text)
		case sibyl.EventComplete:
			c := e.Completion
			completion = &c
		}

		if err := s.emit(enc, evt); err != nil {
			log.Debug().Err(err).Msg("client write failed")
			s.metrics.streamAborted()
			return phaseAborted
		}
	}

	if completion == nil {
		log.Error().Msg("pipeline ended without a result")
		s.metrics.streamErrored()
		_ = s.emit(enc, sibyl.EventError{Message: "pipeline ended without a result"})
		return phaseErrored
	}

	// The result has been delivered. A persistence failure past this
	// point is reported but never retracts it.
	if err := s.persistExchange(ctx, chat, req, answer.String(), firstExchange); err != nil {
		log.Error().Err(err).Msg("persisting completed exchange failed")
		_ = s.emit(enc, sibyl.EventError{Message: "result delivered but not persisted: " + err.Error()})
	}

	return phaseComplete
}

// startKeepAlive writes a comment frame on every tick until the returned
// stop function is called or ctx ends. The encoder serializes writes, so
// the ticker may fire while the producer loop is mid-frame.
func (s *Server) startKeepAlive(ctx context.Context, enc *wire.Encoder) func() {
	if s.keepAlive <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		t := time.NewTicker(s.keepAlive)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				enc.WriteComment("keep-alive")
			}
		}
	}()
	// Stop waits for the ticker goroutine so no comment can trail the
	// done marker.
	return func() {
		close(done)
		<-stopped
	}
}

// emit writes one frame and counts it.
func (s *Server) emit(enc *wire.Encoder, evt sibyl.Event) error {
	if err := enc.WriteEvent(evt); err != nil {
		return err
	}
	s.metrics.frameEmitted(eventType(evt))
	return nil
}

// persistExchange stores the user and assistant messages of a completed
// run and, on the chat's first exchange, derives and stores a title.
func (s *Server) persistExchange(ctx context.Context, chat sibyl.Chat, req sibyl.Request, answer string, firstExchange bool) error {
	now := time.Now()
	if err := s.store.AppendMessage(ctx, sibyl.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		Role:      sibyl.RoleUser,
		Content:   req.Query,
		CreatedAt: now,
	}); err != nil {
		return err
	}
	if err := s.store.AppendMessage(ctx, sibyl.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		Role:      sibyl.RoleAssistant,
		Content:   answer,
		CreatedAt: now,
	}); err != nil {
		return err
	}
	if firstExchange {
		if err := s.store.SetChatTitle(ctx, chat.ID, DeriveTitle(req.Query)); err != nil {
			return err
		}
	}
	return nil
}

func eventType(evt sibyl.Event) string {
	switch evt.(type) {
	case sibyl.EventChatID:
		return sibyl.TypeChatID
	case sibyl.EventStage:
		return sibyl.TypeStage
	case sibyl.EventSignals:
		return sibyl.TypeSignals
	case sibyl.EventReasoning:
		return sibyl.TypeReasoning
	case sibyl.EventTextDelta:
		return sibyl.TypeTextDelta
	case sibyl.EventSoar:
		return sibyl.TypeSoar
	case sibyl.EventComplete:
		return sibyl.TypeComplete
	case sibyl.EventError:
		return sibyl.TypeError
	default:
		return "unknown"
	}
}
