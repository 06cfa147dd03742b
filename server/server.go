// Package server implements the stream producer: the HTTP surface that
// runs the analytical pipeline and streams its events to the client as
// protocol frames, observing client liveness between writes.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sibylhq/sibyl"
)

// AttachmentResolver expands attachment references from a submission into
// concrete attachments before the pipeline runs.
type AttachmentResolver interface {
	Resolve(patterns []string) ([]sibyl.Attachment, error)
}

// Server wires the pipeline, persistence, and configuration collaborators
// behind the streaming chat endpoint.
type Server struct {
	pipeline  sibyl.Pipeline
	store     sibyl.ChatStore
	config    sibyl.ConfigSource
	resolver  AttachmentResolver
	log       zerolog.Logger
	metrics   *Metrics
	rateLimit int
	keepAlive time.Duration
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the server logger. Default is a disabled logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithConfigSource sets the inference-configuration collaborator.
func WithConfigSource(cs sibyl.ConfigSource) Option {
	return func(s *Server) { s.config = cs }
}

// WithAttachmentResolver sets the attachment collaborator.
func WithAttachmentResolver(r AttachmentResolver) Option {
	return func(s *Server) { s.resolver = r }
}

// WithMetrics sets the producer metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimit caps submissions per client IP per minute. 0 disables
// rate limiting.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

// WithKeepAliveInterval sets how often a comment frame is written while a
// stream is open, keeping intermediaries from timing out an idle
// connection during long model stalls. 0 disables keep-alives.
func WithKeepAliveInterval(d time.Duration) Option {
	return func(s *Server) { s.keepAlive = d }
}

// New creates a Server around the given pipeline and chat store.
func New(pipeline sibyl.Pipeline, store sibyl.ChatStore, opts ...Option) *Server {
	s := &Server{
		pipeline:  pipeline,
		store:     store,
		log:       zerolog.Nop(),
		keepAlive: 15 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router returns the HTTP handler for the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
		}
		r.Post("/api/chat", s.handleChat)
	})
	r.Get("/api/chats/{chatID}", s.handleGetChat)

	return r
}
