package client

// The buffer governor: while a stream is paused, reasoning and answer
// deltas accumulate in per-kind buffers bounded by BufferCap. An append
// that would exceed the cap first flushes the existing buffer content to
// the live transcript and resets it, then accepts the new chunk — memory
// stays bounded under an arbitrarily long pause and no data is ever
// dropped, the pause only narrows the window content is held un-rendered.

// Pause diverts subsequent reasoning/answer deltas into the bounded
// buffers instead of the live transcript.
func (st *Stream) Pause() {
	st.mu.Lock()
	st.paused = true
	st.mu.Unlock()
}

// Paused reports whether the stream is buffering.
func (st *Stream) Paused() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.paused
}

// bufferReasoning appends text to the reasoning buffer if the stream is
// paused. It returns any overflow snapshot the caller must flush to the
// transcript, and whether the text was buffered at all.
func (st *Stream) bufferReasoning(text string) (flushed string, buffered bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.paused {
		return "", false
	}
	return appendBounded(&st.reasoningBuf, text), true
}

// bufferAnswer is bufferReasoning for answer deltas.
func (st *Stream) bufferAnswer(text string) (flushed string, buffered bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.paused {
		return "", false
	}
	return appendBounded(&st.answerBuf, text), true
}

// drain atomically captures and clears both buffers and lifts the pause.
// The capture-then-clear ordering under one lock acquisition closes the
// race where the dispatcher appends between the read and the clear. The
// caller must hold the delivery lock across the drain and the flush of
// the captured snapshots.
func (st *Stream) drain() (reasoning, answer string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	reasoning = string(st.reasoningBuf)
	answer = string(st.answerBuf)
	st.reasoningBuf = nil
	st.answerBuf = nil
	st.paused = false
	return reasoning, answer
}

// buffered returns the current buffer sizes. Test hook.
func (st *Stream) buffered() (reasoning, answer int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.reasoningBuf), len(st.answerBuf)
}

// appendBounded enforces the overflow policy on one buffer.
func appendBounded(buf *[]byte, chunk string) (flushed string) {
	if len(*buf)+len(chunk) > BufferCap {
		flushed = string(*buf)
		*buf = (*buf)[:0]
	}
	*buf = append(*buf, chunk...)
	return flushed
}
