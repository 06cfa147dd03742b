package sibyl

import "time"

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Chat is the persisted identity of one conversation.
type Chat struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one persisted conversation turn.
type Message struct {
	ID        string
	ChatID    string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Session is the client-side handle for one conversation. It correlates
// the server-assigned chat identifier with the message history the client
// has accumulated. The consumer binds ChatID from the first frame of each
// run, so a fresh Session may start with an empty ID.
type Session struct {
	ChatID  string
	Title   string
	History []Message
}

// Attachment is a resolved attachment reference handed to the pipeline.
// Extraction of attachment content is a collaborator concern.
type Attachment struct {
	Name string
	Path string
}
