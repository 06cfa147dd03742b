// Command sibyld serves the streaming analytical chat API.
//
// Usage:
//
//	GEMINI_API_KEY=... sibyld [-config sibyld.yaml]
//
// Flags:
//
//	-config string   Path to yaml config file (optional)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sibylhq/sibyl/attach"
	"github.com/sibylhq/sibyl/gemini"
	"github.com/sibylhq/sibyl/server"
	"github.com/sibylhq/sibyl/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sibyld: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to yaml config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", "sibyld").
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := gemini.New(ctx, cfg.APIKey())
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := []server.Option{
		server.WithLogger(log),
		server.WithConfigSource(staticConfig{cfg: cfg.Inference}),
		server.WithMetrics(server.NewMetrics(prometheus.DefaultRegisterer)),
		server.WithRateLimit(cfg.RateLimit),
	}
	if cfg.AttachDir != "" {
		opts = append(opts, server.WithAttachmentResolver(attach.NewResolver(cfg.AttachDir)))
	}
	srv := server.New(pipeline, st, opts...)

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Listen).Msg("serving")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
