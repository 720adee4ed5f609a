package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/overturehq/overture/core"
	"github.com/overturehq/overture/internal/util"
	"github.com/overturehq/overture/logging"
	"github.com/overturehq/overture/model"
	"github.com/overturehq/overture/tool"
)

// DefaultMaxSteps bounds the tool-calling loop of a specialized agent.
const DefaultMaxSteps = 8

// Config is the declarative description of a specialized agent. Agents are
// defined entirely by configuration; behavior differences come from the
// system prompt and the bound tools, not from per-agent code.
type Config struct {
	ID           string
	Name         string
	Description  string
	SystemPrompt string
	Capabilities []string
	// ToolNames binds tools from the shared registry by name. Tools whose
	// metadata requires auth are skipped when no identity is present.
	ToolNames []string
	// MaxSteps caps the generate/tool-call iterations; zero means DefaultMaxSteps.
	MaxSteps int
	// Model overrides the factory's shared model for this agent only.
	Model model.Model
}

// SpecializedAgent is a configuration-defined agent that converses through a
// language model and may call its bound tools in an iterative loop. The
// final assistant turn is emitted on the event sink.
type SpecializedAgent struct {
	cfg    Config
	llm    model.Model
	tools  map[string]tool.Tool
	sink   core.EventSink
	logger logging.Logger
}

// ID returns the agent's stable routing identifier.
func (a *SpecializedAgent) ID() string { return a.cfg.ID }

// Name returns the agent's display name.
func (a *SpecializedAgent) Name() string { return a.cfg.Name }

// Description returns the agent's purpose summary.
func (a *SpecializedAgent) Description() string { return a.cfg.Description }

// Capabilities returns the capability tags this agent advertises.
func (a *SpecializedAgent) Capabilities() []string { return a.cfg.Capabilities }

// ProcessMessages runs the conversation through the model, executing tool
// calls as they are requested, until the model produces a plain assistant
// turn or the step cap is reached. The final turn is emitted on the sink.
func (a *SpecializedAgent) ProcessMessages(ctx context.Context, messages []core.Message) error {
	chat := toChatMessages(messages)
	maxSteps := a.cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	instructions := a.systemPrompt()

	for step := 0; step < maxSteps; step++ {
		start := time.Now()
		resp, err := a.llm.Generate(ctx, model.Request{
			Instructions: instructions,
			Messages:     chat,
			Tools:        a.toolDefinitions(),
		})
		if err != nil {
			return fmt.Errorf("agent %s: generation failed: %w", a.cfg.ID, err)
		}
		a.logger.Debug("agent.generate",
			"agent_id", a.cfg.ID,
			"duration_ms", time.Since(start).Milliseconds(),
			"tool_calls", len(resp.ToolCalls),
		)

		if len(resp.ToolCalls) == 0 {
			a.emit(resp.Text)
			return nil
		}

		chat = append(chat, model.ChatMessage{
			Role:      model.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		chat = append(chat, model.ChatMessage{
			Role:        model.RoleTool,
			ToolResults: a.runToolCalls(ctx, resp.ToolCalls),
		})
	}

	a.logger.Warn("agent.max_steps_reached", "agent_id", a.cfg.ID, "max_steps", maxSteps)
	a.emit("I could not complete the request within the allowed number of steps.")
	return nil
}

// runToolCalls executes each requested call and records per-call outcomes.
// Tool failures become error results handed back to the model; they never
// abort the loop.
func (a *SpecializedAgent) runToolCalls(ctx context.Context, calls []model.ToolCall) []model.ToolResult {
	results := make([]model.ToolResult, 0, len(calls))
	for _, call := range calls {
		result := model.ToolResult{ID: call.ID, Name: call.Name}

		t, ok := a.tools[call.Name]
		if !ok {
			result.Error = fmt.Sprintf("Tool not found: %s", call.Name)
			results = append(results, result)
			continue
		}

		args := map[string]any{}
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				result.Error = fmt.Sprintf("invalid tool arguments: %s", err)
				results = append(results, result)
				continue
			}
		}

		value, err := t.Call(ctx, args)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Value = value
		}
		results = append(results, result)
	}
	return results
}

// systemPrompt renders template markers in the configured prompt against
// the agent's own metadata. A prompt that fails to render is used verbatim.
func (a *SpecializedAgent) systemPrompt() string {
	toolNames := make([]any, 0, len(a.tools))
	for name := range a.tools {
		toolNames = append(toolNames, name)
	}
	rendered, err := util.RenderTemplate(a.cfg.SystemPrompt, map[string]any{
		"agent_name":        a.cfg.Name,
		"agent_description": a.cfg.Description,
		"tools":             toolNames,
	})
	if err != nil {
		a.logger.Warn("agent.prompt.render_failed", "agent_id", a.cfg.ID, "error", err.Error())
		return a.cfg.SystemPrompt
	}
	return rendered
}

func (a *SpecializedAgent) toolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

func (a *SpecializedAgent) emit(text string) {
	if a.sink == nil {
		return
	}
	a.sink.Emit(core.NewAssistantMessageEvent(core.NewAssistantMessage(text)))
}

// toChatMessages projects conversation turns into the model chat format.
func toChatMessages(messages []core.Message) []model.ChatMessage {
	out := make([]model.ChatMessage, 0, len(messages))
	for _, m := range messages {
		role := model.RoleUser
		switch m.Role {
		case core.RoleAssistant:
			role = model.RoleAssistant
		case core.RoleSystem:
			role = model.RoleSystem
		}
		out = append(out, model.ChatMessage{Role: role, Text: m.Text()})
	}
	return out
}
