// Package model abstracts the text / structured generation capability
// consumed by the engine. Two shapes are exposed: free-text completion
// (Generate) and schema-constrained structured generation
// (GenerateStructured). Both are fallible, latency-bearing calls with no
// retry built in; any ceiling (timeouts, budgets) must come from the
// provider adapter or the surrounding context.
package model

import (
	"context"
	"fmt"
	"sync"
)

// Conversation roles understood by provider adapters.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolResult carries a completed tool invocation back into the conversation.
type ToolResult struct {
	ID    string `json:"id"` // Matches originating ToolCall ID
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// ChatMessage is the normalized conversation turn consumed by adapters.
// Text, ToolCalls and ToolResults are populated according to Role.
type ChatMessage struct {
	Role        string       `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// Request captures the normalized free-text generation input.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt
	Messages     []ChatMessage    `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Temperature  float64          `json:"temperature,omitempty"`
	MaxTokens    int64            `json:"max_tokens,omitempty"`
}

// StructuredRequest captures a schema-constrained generation call. The
// returned document must satisfy Schema; adapters that lack native schema
// support enforce it via prompting plus post-hoc validation.
type StructuredRequest struct {
	SchemaName   string         `json:"schema_name"`
	Schema       map[string]any `json:"schema"`
	Instructions string         `json:"instructions"`
	Prompt       string         `json:"prompt"`
	Temperature  float64        `json:"temperature"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed output of a generation call.
type Response struct {
	Text         string      `json:"text"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the engine to drive generation.
type Model interface {
	// Generate produces a free-text (optionally tool-calling) completion.
	Generate(ctx context.Context, req Request) (*Response, error)

	// GenerateStructured produces a document matching req.Schema.
	GenerateStructured(ctx context.Context, req StructuredRequest) (map[string]any, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are served, in order of preference, from the scripted queue,
// then from the exact-prompt map, then from a deterministic default.
type MockModel struct {
	mu         sync.Mutex
	info       Info
	responses  map[string]string
	queue      []Response
	structured []map[string]any

	generateErr   error
	structuredErr error

	// LastRequest / LastStructured record the most recent calls for
	// assertions in tests.
	LastRequest    *Request
	LastStructured *StructuredRequest
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// QueueResponse appends a scripted response consumed FIFO by Generate.
func (m *MockModel) QueueResponse(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// QueueStructured appends a scripted document consumed FIFO by GenerateStructured.
func (m *MockModel) QueueStructured(doc map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structured = append(m.structured, doc)
}

// FailGenerate makes every subsequent Generate call return err.
func (m *MockModel) FailGenerate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateErr = err
}

// FailStructured makes every subsequent GenerateStructured call return err.
func (m *MockModel) FailStructured(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structuredErr = err
}

// Generate implements Model.
func (m *MockModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqCopy := req
	m.LastRequest = &reqCopy

	if m.generateErr != nil {
		return nil, m.generateErr
	}
	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return &resp, nil
	}

	var lastText string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			lastText = req.Messages[i].Text
			break
		}
	}
	if canned, ok := m.responses[lastText]; ok {
		return &Response{Text: canned, FinishReason: "stop"}, nil
	}
	return &Response{Text: fmt.Sprintf("Mock response to: %s", lastText), FinishReason: "stop"}, nil
}

// GenerateStructured implements Model.
func (m *MockModel) GenerateStructured(_ context.Context, req StructuredRequest) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqCopy := req
	m.LastStructured = &reqCopy

	if m.structuredErr != nil {
		return nil, m.structuredErr
	}
	if len(m.structured) > 0 {
		doc := m.structured[0]
		m.structured = m.structured[1:]
		return doc, nil
	}
	return nil, fmt.Errorf("no structured response scripted")
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
