package domain

// Role of a conversation turn sent to the generator.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Prompt is what the content generator receives: an optional system prompt override,
// earlier turns, and the new user prompt.
type Prompt struct {
	System  string    `json:"system,omitempty"`
	History []Message `json:"history,omitempty"`
	Text    string    `json:"text"`
}
