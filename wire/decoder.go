package wire

import "strings"

// MaxFrameSize bounds the retained partial frame. A peer that streams
// this much without a frame separator is not speaking the protocol; the
// accumulated bytes are discarded so a misbehaving server cannot exhaust
// client memory.
const MaxFrameSize = 16 << 20 // 16 MiB

// Decoder turns arriving byte chunks into complete frames. It retains any
// trailing partial frame across calls, so chunk boundaries may fall
// anywhere, including mid-rune of a UTF-8 sequence inside a payload.
//
// The zero value is ready to use. A Decoder is owned by a single stream
// and is not safe for concurrent use.
type Decoder struct {
	acc strings.Builder
}

// Consume appends chunk to the accumulator and returns every frame
// completed by it, in order. The trailing piece after the last separator
// stays buffered until a later chunk completes it; a piece growing past
// MaxFrameSize is dropped.
func (d *Decoder) Consume(chunk []byte) []Frame {
	d.acc.Write(chunk)

	raw := d.acc.String()
	if !strings.Contains(raw, FrameSep) {
		if d.acc.Len() > MaxFrameSize {
			d.acc.Reset()
		}
		return nil
	}

	parts := strings.Split(raw, FrameSep)
	d.acc.Reset()
	if last := parts[len(parts)-1]; len(last) <= MaxFrameSize {
		d.acc.WriteString(last)
	}

	var frames []Frame
	for _, part := range parts[:len(parts)-1] {
		if f, ok := parseFrame(part); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// Pending reports whether a partial frame is buffered. Useful for
// detecting truncation when the physical stream closes.
func (d *Decoder) Pending() bool {
	return d.acc.Len() > 0
}

// parseFrame extracts the payload of one raw frame. Frames lacking the
// data prefix are keep-alives or comments and are dropped.
func parseFrame(raw string) (Frame, bool) {
	line := strings.TrimLeft(raw, "\r\n")
	if !strings.HasPrefix(line, DataPrefix) {
		return Frame{}, false
	}
	payload := strings.TrimPrefix(line, DataPrefix)
	if payload == DoneMarker {
		return Frame{Done: true}, true
	}
	return Frame{Payload: payload}, true
}
