package core

import (
	"encoding/json"
	"time"
)

// EventType tags the records accepted by the event sink.
type EventType string

const (
	// EventThinking is a transient status notification shown while a
	// component works (plan generation, step execution, reflection).
	EventThinking EventType = "thinking"
	// EventPlan carries a JSON-encoded Plan for UI rendering.
	EventPlan EventType = "agent-plan"
	// EventAssistantMessage carries a completed assistant message.
	EventAssistantMessage EventType = "assistant_message"
)

// Event is one append-only record on the UI-facing event sink. After
// emission it should be treated as immutable. Exactly one of Text, Content
// or Message is populated, depending on Type.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Text      string    `json:"text,omitempty"`
	Content   string    `json:"content,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewThinkingEvent creates a transient status record.
func NewThinkingEvent(text string) Event {
	return Event{ID: NewID(), Type: EventThinking, Text: text, Timestamp: time.Now().UTC()}
}

// NewPlanEvent creates an agent-plan record carrying the JSON encoding of
// the plan. Encoding failures degrade to an empty content payload rather
// than failing the emitting component.
func NewPlanEvent(plan Plan) Event {
	content, err := json.Marshal(plan)
	if err != nil {
		content = []byte("{}")
	}
	return Event{ID: NewID(), Type: EventPlan, Content: string(content), Timestamp: time.Now().UTC()}
}

// NewAssistantMessageEvent wraps a completed assistant message.
func NewAssistantMessageEvent(msg Message) Event {
	return Event{ID: NewID(), Type: EventAssistantMessage, Message: &msg, Timestamp: time.Now().UTC()}
}
