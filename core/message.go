package core

import "github.com/google/uuid"

// Conversation roles used throughout the engine.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one conversation turn. Parts holds the ordered text segments of
// the turn; most messages carry exactly one part.
type Message struct {
	ID    string   `json:"id"`
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// NewID generates a unique identifier for messages, events, plans and steps.
func NewID() string { return uuid.NewString() }

// NewUserMessage creates a single-part user message.
func NewUserMessage(text string) Message {
	return Message{ID: NewID(), Role: RoleUser, Parts: []string{text}}
}

// NewAssistantMessage creates a single-part assistant message.
func NewAssistantMessage(text string) Message {
	return Message{ID: NewID(), Role: RoleAssistant, Parts: []string{text}}
}

// Text returns the concatenation of all parts.
func (m Message) Text() string {
	switch len(m.Parts) {
	case 0:
		return ""
	case 1:
		return m.Parts[0]
	}
	var out string
	for _, p := range m.Parts {
		out += p
	}
	return out
}

// LatestUserText returns the text of the most recent user message, or the
// empty string if the conversation contains none. Earlier turns are ignored;
// classification decisions are made on the latest user input only.
func LatestUserText(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Text()
		}
	}
	return ""
}
