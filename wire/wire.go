// Package wire implements the frame layer of the streaming protocol:
// newline-delimited frames prefixed with "data: ", separated by a blank
// line, with the literal payload [DONE] marking logical completion.
//
// The Decoder reconstructs frames from arbitrarily-chunked bytes on the
// consumer side; the Encoder writes frames with streaming-safe response
// headers on the producer side.
package wire

const (
	// DataPrefix marks a content-bearing line. Lines without it
	// (comments, keep-alives) are discarded silently.
	DataPrefix = "data: "

	// FrameSep terminates a frame.
	FrameSep = "\n\n"

	// DoneMarker is the literal payload signalling logical completion.
	// Physical stream closure always follows it.
	DoneMarker = "[DONE]"
)

// Frame is one decoded unit of the protocol: either an event payload or
// the end-of-stream sentinel.
type Frame struct {
	Payload string
	Done    bool
}
