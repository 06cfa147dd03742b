package sibyl

import "context"

// ChatStore is the persistence collaborator for chats and messages.
// Implementations serialize their own writes.
type ChatStore interface {
	CreateChat(ctx context.Context, id string) (Chat, error)
	GetChat(ctx context.Context, id string) (Chat, error)
	SetChatTitle(ctx context.Context, id, title string) error
	AppendMessage(ctx context.Context, msg Message) error
	Messages(ctx context.Context, chatID string) ([]Message, error)
}

// MemoryRecorder is the long-term memory collaborator. It records one
// RunRecord per successful run, keyed by chat.
type MemoryRecorder interface {
	Record(ctx context.Context, rec RunRecord) error
}

// Artifact is a displayable unit detected in rendered answer text.
type Artifact struct {
	Kind     string // "code" for fenced blocks
	Language string
	Content  string
}

// Workspace is the page/artifact collaborator the finalizer drives.
// All of its operations are best-effort from the caller's point of view.
type Workspace interface {
	OpenArtifact(ctx context.Context, art Artifact) error
	CreatePage(ctx context.Context, title, content string) error
	AppendToActivePage(ctx context.Context, content string) error
}

// Transcript is the live transcript collaborator: the consumer forwards
// reasoning and answer text to it as soon as the text is allowed to
// render. Order of calls is the order of the wire.
type Transcript interface {
	AppendReasoning(text string)
	AppendAnswer(text string)
}

// Progress is the progress-tracking collaborator receiving stage updates.
type Progress interface {
	Stage(stage, status, detail string, value *float64)
}

// Diagnostics receives signal snapshots and, when verbose diagnostics are
// enabled, raw engine events.
type Diagnostics interface {
	Signals(snap SignalSnapshot)
	Engine(event string, data []byte)
}

// Notifier surfaces user-visible notifications for genuine errors.
// Expected interruptions are never notified.
type Notifier interface {
	Notify(message string)
}
