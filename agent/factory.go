package agent

import (
	"context"
	"fmt"

	"github.com/overturehq/overture/core"
	"github.com/overturehq/overture/logging"
	"github.com/overturehq/overture/model"
	"github.com/overturehq/overture/router"
	"github.com/overturehq/overture/tool"
)

// FactoryOptions configures a Factory instance.
type FactoryOptions struct {
	Sink   core.EventSink
	Logger logging.Logger
	// Identity, when set, unlocks tools whose metadata requires auth.
	// The factory never inspects its contents; presence alone decides.
	Identity *core.Identity
}

// Factory assembles specialized agents from a shared dependency bundle:
// one model, one tool registry, one event sink. Construction is explicit;
// every agent in the system is registered here by configuration.
type Factory struct {
	llm      model.Model
	registry *tool.Registry
	sink     core.EventSink
	logger   logging.Logger
	identity *core.Identity

	agents map[string]core.Agent
	order  []string
}

// NewFactory creates a Factory over the given model and tool registry.
func NewFactory(llm model.Model, registry *tool.Registry, optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Factory{
		llm:      llm,
		registry: registry,
		sink:     opts.Sink,
		logger:   opts.Logger,
		identity: opts.Identity,
		agents:   make(map[string]core.Agent),
	}
}

// Register builds a specialized agent from its configuration and adds it to
// the factory. Tool bindings are resolved against the shared registry;
// unknown tool names fail registration so a misconfigured agent is caught
// at assembly time, not mid-conversation.
func (f *Factory) Register(cfg Config) (*SpecializedAgent, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("agent config requires an id")
	}
	if _, exists := f.agents[cfg.ID]; exists {
		return nil, fmt.Errorf("agent %s already registered", cfg.ID)
	}

	tools, err := f.resolveTools(cfg)
	if err != nil {
		return nil, err
	}

	llm := f.llm
	if cfg.Model != nil {
		llm = cfg.Model
	}

	a := &SpecializedAgent{
		cfg:    cfg,
		llm:    llm,
		tools:  tools,
		sink:   f.sink,
		logger: f.logger,
	}
	f.agents[cfg.ID] = a
	f.order = append(f.order, cfg.ID)

	f.logger.Info("agent.registered", "agent_id", cfg.ID, "tools", len(tools))
	return a, nil
}

// resolveTools binds the configured tool names from the registry. Tools
// whose metadata requires auth are silently skipped when the factory has no
// identity; the agent simply operates without them.
func (f *Factory) resolveTools(cfg Config) (map[string]tool.Tool, error) {
	tools := make(map[string]tool.Tool, len(cfg.ToolNames))
	for _, name := range cfg.ToolNames {
		t, ok := f.registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("agent %s references unknown tool %s", cfg.ID, name)
		}
		if meta, ok := f.registry.GetMetadata(name); ok && meta.RequiresAuth && f.identity == nil {
			f.logger.Debug("agent.tool.skipped_no_identity", "agent_id", cfg.ID, "tool", name)
			continue
		}
		tools[name] = t
	}
	return tools, nil
}

// Get returns the agent registered under the given id.
func (f *Factory) Get(id string) (core.Agent, bool) {
	a, ok := f.agents[id]
	return a, ok
}

// SpecializedAgents returns all registered agents in registration order.
func (f *Factory) SpecializedAgents() []core.Agent {
	out := make([]core.Agent, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.agents[id])
	}
	return out
}

// RouterAgent returns an agent that classifies each conversation against
// the registered specialized agents and delegates to the best fit. It is
// synthesized on demand and never part of the specialized set itself.
func (f *Factory) RouterAgent() core.Agent {
	return &routerAgent{factory: f}
}

// Len returns the number of registered agents.
func (f *Factory) Len() int { return len(f.agents) }

// routerAgent adapts the router to the core.Agent interface so callers can
// treat "pick an agent for me" as just another agent.
type routerAgent struct {
	factory *Factory
}

func (r *routerAgent) ID() string          { return "router" }
func (r *routerAgent) Name() string        { return "Router" }
func (r *routerAgent) Description() string { return "Delegates conversations to the best-suited agent" }
func (r *routerAgent) Capabilities() []string {
	return []string{"routing"}
}

// ProcessMessages routes the conversation. Routing absorbs its own
// failures, so this never returns an error.
func (r *routerAgent) ProcessMessages(ctx context.Context, messages []core.Message) error {
	rt := router.New(r.factory.llm, r.factory.SpecializedAgents(), func(o *router.Options) {
		o.Sink = r.factory.sink
		o.Logger = r.factory.logger
	})
	rt.Route(ctx, messages)
	return nil
}
