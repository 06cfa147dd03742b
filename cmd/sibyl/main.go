// Command sibyl submits a query to a sibyld server and streams the
// reasoning and answer to the terminal.
//
// Usage:
//
//	sibyl [-server http://localhost:8585] [-chat <id>] [-verbose] "query..."
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sibylhq/sibyl"
	"github.com/sibylhq/sibyl/client"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sibyl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		serverURL = flag.String("server", "http://localhost:8585", "sibyld base URL")
		chatID    = flag.String("chat", "", "Existing chat to continue")
		verbose   = flag.Bool("verbose", false, "Show engine diagnostics")
	)
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: sibyl [flags] \"query\"")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	c := client.New(*serverURL,
		client.WithLogger(log),
		client.WithVerbose(*verbose),
		client.WithTranscript(&terminalTranscript{}),
		client.WithProgress(&terminalProgress{verbose: *verbose}),
		client.WithDiagnostics(&terminalDiagnostics{verbose: *verbose}),
		client.WithNotifier(&terminalNotifier{}),
	)

	sess := &sibyl.Session{ChatID: *chatID}
	if err := c.Submit(ctx, sess, query); err != nil {
		return err
	}
	fmt.Println()
	if sess.ChatID != "" {
		fmt.Fprintf(os.Stderr, "chat: %s\n", sess.ChatID)
	}
	return nil
}

type terminalTranscript struct{ reasoningOpen bool }

func (t *terminalTranscript) AppendReasoning(text string) {
	if !t.reasoningOpen {
		fmt.Fprint(os.Stderr, "· ")
		t.reasoningOpen = true
	}
	fmt.Fprint(os.Stderr, text)
}

func (t *terminalTranscript) AppendAnswer(text string) {
	if t.reasoningOpen {
		fmt.Fprintln(os.Stderr)
		t.reasoningOpen = false
	}
	fmt.Print(text)
}

type terminalProgress struct{ verbose bool }

func (p *terminalProgress) Stage(stage, status, detail string, _ *float64) {
	if !p.verbose {
		return
	}
	if detail != "" {
		fmt.Fprintf(os.Stderr, "[%s %s] %s\n", stage, status, detail)
		return
	}
	fmt.Fprintf(os.Stderr, "[%s %s]\n", stage, status)
}

type terminalDiagnostics struct{ verbose bool }

func (d *terminalDiagnostics) Signals(snap sibyl.SignalSnapshot) {
	if !d.verbose || snap.Health == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "[health %.2f]\n", *snap.Health)
}

func (d *terminalDiagnostics) Engine(event string, _ []byte) {
	fmt.Fprintf(os.Stderr, "[engine %s]\n", event)
}

type terminalNotifier struct{}

func (terminalNotifier) Notify(message string) {
	fmt.Fprintf(os.Stderr, "! %s\n", message)
}
