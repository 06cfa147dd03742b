package sibyl

import (
	"context"
	"errors"
	"net"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrCanceled is the explicit cancellation kind raised deliberately by
	// both transport ends when a run is stopped on purpose (user action, a
	// superseding submission, navigation away). Both producer and consumer
	// classify against it instead of sniffing error messages.
	ErrCanceled = errors.New("run canceled")

	// ErrChatNotFound indicates the referenced chat does not exist.
	ErrChatNotFound = errors.New("chat not found")

	// ErrNoActivePage indicates an append was requested with no page open.
	ErrNoActivePage = errors.New("no active page")
)

// IsCanceled reports whether err represents an expected interruption
// rather than a genuine failure: explicit cancellation, context
// cancellation, or the transport being torn down under a reader.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCanceled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, net.ErrClosed)
}
