// Package gemini implements [sibyl.Pipeline] on the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating model output into
// the streaming event vocabulary: thought parts become reasoning events,
// text parts become answer deltas, and the drained stream is graded into
// the terminal complete event. Streaming uses the SDK's iter.Seq2
// iterator, wrapped into the pull-based [sibyl.Source] interface.
package gemini

const (
	defaultModel     = "gemini-3.1-pro-preview"
	defaultMaxTokens = 65536
)
