package core

import "context"

// Agent is the capability interface implemented by every concrete agent
// variant. Agents are selected by id from a closed registry; an unknown id
// is a checked failure, never a reflective miss.
type Agent interface {
	// ID returns the stable identifier used for routing ("chat", "research", ...).
	ID() string
	// Name returns the human-readable display name.
	Name() string
	// Description summarizes the agent's purpose for classification prompts.
	Description() string
	// Capabilities returns the capability tags this agent advertises.
	Capabilities() []string
	// ProcessMessages handles a full conversation end-to-end, emitting the
	// user-visible response on the agent's event sink.
	ProcessMessages(ctx context.Context, messages []Message) error
}

// AgentMetadata is the read-only projection of an agent consumed by the
// router to build its classification prompt and constrained output schema.
type AgentMetadata struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// MetadataOf derives the routing metadata for an agent.
func MetadataOf(a Agent) AgentMetadata {
	return AgentMetadata{
		ID:           a.ID(),
		Name:         a.Name(),
		Description:  a.Description(),
		Capabilities: a.Capabilities(),
	}
}

// Identity is the opaque auth/session context handed in by the surrounding
// transport layer. The engine never inspects its fields; only presence or
// absence decides whether session-dependent tools are registered.
type Identity struct {
	// Subject is an opaque principal reference owned by the caller.
	Subject string
	// Claims carries caller-defined attributes, passed through unmodified.
	Claims map[string]any
}
