// Package router dispatches incoming conversations to the best-suited
// agent. Selection uses schema-constrained structured generation: the
// candidate agent ids are baked into the response schema as an enum, so
// the model can only ever name a registered agent. Routing never fails
// outward; when selection or delegation breaks down the router walks a
// fallback chain ending in a synthetic error message.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/overturehq/overture/core"
	"github.com/overturehq/overture/logging"
	"github.com/overturehq/overture/model"
)

// ChatAgentID is the id of the general-purpose conversational agent that
// anchors the fallback chain.
const ChatAgentID = "chat"

// routingTemperature keeps selection near-deterministic.
const routingTemperature = 0.1

// Decision is the structured output of a routing call. Confidence is
// recorded for observability only; it never gates the delegation.
type Decision struct {
	SelectedAgentID string  `json:"selectedAgentId"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

// Options configures a Router instance.
type Options struct {
	Sink   core.EventSink
	Logger logging.Logger
}

// Router selects an agent for each conversation and delegates to it.
type Router struct {
	llm    model.Model
	agents []core.Agent
	sink   core.EventSink
	logger logging.Logger
}

// New creates a Router over the given candidate agents. The candidate
// order matters: the first agent is the terminal delegation fallback when
// no chat agent is registered.
func New(llm model.Model, agents []core.Agent, optFns ...func(o *Options)) *Router {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{llm: llm, agents: agents, sink: opts.Sink, logger: opts.Logger}
}

// Route selects the best-suited agent for the conversation and delegates
// the messages to it. All failures are absorbed: a failed selection falls
// back to the chat agent, a missing chat agent falls back to the first
// registered agent, and a failed (or impossible) delegation produces a
// synthetic error message on the event sink.
func (r *Router) Route(ctx context.Context, messages []core.Message) {
	decision := r.selectAgent(ctx, messages)

	agent := r.resolveAgent(decision.SelectedAgentID)
	if agent == nil {
		r.logger.Error("router.no_agents_available")
		r.emitError("No agents are available to handle this request.")
		return
	}

	r.logger.Info("router.delegate",
		"agent_id", agent.ID(),
		"confidence", decision.Confidence,
		"reasoning", decision.Reasoning,
	)
	r.emitDecision(agent, decision)

	if err := agent.ProcessMessages(ctx, messages); err != nil {
		r.logger.Error("router.delegation_failed", "agent_id", agent.ID(), "error", err.Error())
		r.emitError(fmt.Sprintf("Agent %s failed to process the request.", agent.Name()))
	}
}

// selectAgent asks the model for a routing decision. Any failure yields a
// decision pointing at the chat agent so the fallback chain takes over.
func (r *Router) selectAgent(ctx context.Context, messages []core.Message) Decision {
	if len(r.agents) == 1 {
		return Decision{SelectedAgentID: r.agents[0].ID(), Confidence: 1, Reasoning: "only one agent registered"}
	}

	doc, err := r.llm.GenerateStructured(ctx, model.StructuredRequest{
		SchemaName:   "routing_decision",
		Schema:       r.decisionSchema(),
		Instructions: r.buildInstructions(),
		Prompt:       core.LatestUserText(messages),
		Temperature:  routingTemperature,
	})
	if err != nil {
		r.logger.Warn("router.selection.failed", "error", err.Error())
		return Decision{SelectedAgentID: ChatAgentID, Reasoning: "selection failed"}
	}

	decision := Decision{SelectedAgentID: ChatAgentID}
	if id, ok := doc["selectedAgentId"].(string); ok && id != "" {
		decision.SelectedAgentID = id
	}
	if confidence, ok := doc["confidence"].(float64); ok {
		decision.Confidence = confidence
	}
	if reasoning, ok := doc["reasoning"].(string); ok {
		decision.Reasoning = reasoning
	}
	return decision
}

// decisionSchema builds the response schema with the registered agent ids
// as the only admissible values for selectedAgentId.
func (r *Router) decisionSchema() map[string]any {
	ids := make([]any, len(r.agents))
	for i, a := range r.agents {
		ids[i] = a.ID()
	}
	return map[string]any{
		"type":     "object",
		"required": []any{"selectedAgentId"},
		"properties": map[string]any{
			"selectedAgentId": map[string]any{
				"type": "string",
				"enum": ids,
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"reasoning": map[string]any{
				"type": "string",
			},
		},
		"additionalProperties": false,
	}
}

func (r *Router) buildInstructions() string {
	var sb strings.Builder
	sb.WriteString("You route user requests to the most suitable agent. Pick exactly one agent id from the list below.\n\nAgents:\n")
	for _, a := range r.agents {
		meta := core.MetadataOf(a)
		sb.WriteString(fmt.Sprintf("- %s (%s): %s", meta.ID, meta.Name, meta.Description))
		if len(meta.Capabilities) > 0 {
			sb.WriteString(" [capabilities: " + strings.Join(meta.Capabilities, ", ") + "]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// resolveAgent walks the fallback chain: the selected id, then the chat
// agent, then the first registered agent.
func (r *Router) resolveAgent(id string) core.Agent {
	if a := r.lookup(id); a != nil {
		return a
	}
	if id != ChatAgentID {
		if a := r.lookup(ChatAgentID); a != nil {
			r.logger.Warn("router.fallback.chat", "selected", id)
			return a
		}
	}
	if len(r.agents) > 0 {
		r.logger.Warn("router.fallback.first", "selected", id, "agent_id", r.agents[0].ID())
		return r.agents[0]
	}
	return nil
}

func (r *Router) lookup(id string) core.Agent {
	for _, a := range r.agents {
		if a.ID() == id {
			return a
		}
	}
	return nil
}

// emitDecision surfaces the routing outcome to the user before delegation.
// Confidence and reasoning are reported here; neither gates the decision.
func (r *Router) emitDecision(agent core.Agent, decision Decision) {
	if r.sink == nil {
		return
	}
	text := fmt.Sprintf("Routing to %s (confidence %.2f)", agent.Name(), decision.Confidence)
	if decision.Reasoning != "" {
		text += ": " + decision.Reasoning
	}
	r.sink.Emit(core.NewThinkingEvent(text))
}

func (r *Router) emitError(text string) {
	if r.sink == nil {
		return
	}
	r.sink.Emit(core.NewAssistantMessageEvent(core.NewAssistantMessage(text)))
}
