// Package overture provides a high-level façade over the orchestration
// engine and its collaborators (planning, reflection, routing, tools,
// memory and sessions) enabling rapid construction of multi-agent systems.
// Most applications interact with this package by:
//  1. Creating a Service via New() (optionally overriding default in-memory stores)
//  2. Registering tools and one or more specialized agents
//  3. Submitting requests with ProcessRequest (plan/execute/reflect cycle)
//     or ProcessMessages (conversational dispatch through the agent router)
//
// All defaults are safe for local development and testing; production
// deployments typically supply durable stores and a structured logger.
package overture

import (
	"context"

	"github.com/overturehq/overture/agent"
	"github.com/overturehq/overture/core"
	"github.com/overturehq/overture/logging"
	"github.com/overturehq/overture/memory"
	"github.com/overturehq/overture/model"
	"github.com/overturehq/overture/orchestrator"
	"github.com/overturehq/overture/planner"
	"github.com/overturehq/overture/reflection"
	"github.com/overturehq/overture/session"
	"github.com/overturehq/overture/tool"
)

// Options configures the Service instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided)
	MemoryStore  memory.Store
	SessionStore session.Store

	// Sink receives thinking, plan and assistant-message events. Defaults
	// to an in-memory collector readable via Service.Sink().
	Sink core.EventSink

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Identity, when set, unlocks auth-requiring tools for registered
	// agents. The engine treats it as opaque.
	Identity *core.Identity
}

// Service is the high-level façade aggregating the orchestrator, the agent
// router and their shared collaborators.
type Service struct {
	opts     Options
	llm      model.Model
	registry *tool.Registry
	factory  *agent.Factory
	manager  *orchestrator.Manager
	sink     core.EventSink
	logger   logging.Logger
}

// New creates a Service with optional overrides. Any unset store is
// initialized with an in-memory implementation.
func New(llm model.Model, optFns ...func(o *Options)) *Service {
	opts := Options{
		MemoryStore:  memory.NewInMemoryStore(),
		SessionStore: session.NewInMemoryStore(),
		Sink:         core.NewCollectorSink(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) {
		o.Logger = opts.Logger
	})

	factory := agent.NewFactory(llm, registry, func(o *agent.FactoryOptions) {
		o.Sink = opts.Sink
		o.Logger = opts.Logger
		o.Identity = opts.Identity
	})

	p := planner.New(llm, func(o *planner.Options) {
		o.Registry = registry
		o.Logger = opts.Logger
	})
	r := reflection.New(llm, func(o *reflection.Options) {
		o.Logger = opts.Logger
	})

	manager := orchestrator.New(p, r, registry, func(o *orchestrator.Options) {
		o.Memory = opts.MemoryStore
		o.Sessions = opts.SessionStore
		o.Sink = opts.Sink
		o.Logger = opts.Logger
	})

	return &Service{
		opts:     opts,
		llm:      llm,
		registry: registry,
		factory:  factory,
		manager:  manager,
		sink:     opts.Sink,
		logger:   opts.Logger,
	}
}

// Tools exposes the shared tool registry for registration and lookup.
func (s *Service) Tools() *tool.Registry { return s.registry }

// Sink returns the configured event sink.
func (s *Service) Sink() core.EventSink { return s.sink }

// State returns the orchestrator's current machine state.
func (s *Service) State() core.State { return s.manager.State() }

// RegisterAgent assembles a specialized agent from its configuration and
// makes it available for routing and direct dispatch.
func (s *Service) RegisterAgent(cfg agent.Config) (*agent.SpecializedAgent, error) {
	return s.factory.Register(cfg)
}

// ProcessRequest runs one plan/execute/reflect cycle for the request. It
// never returns an error; outcomes are observable via the event sink and
// the recorded session history.
func (s *Service) ProcessRequest(ctx context.Context, sessionID, request string) {
	s.manager.ProcessRequest(ctx, sessionID, request)
}

// ProcessMessages dispatches a conversation to a registered agent. An
// empty agentID (or an unknown one) delegates selection to the router,
// which classifies the latest user turn against the registered agents.
func (s *Service) ProcessMessages(ctx context.Context, agentID string, messages []core.Message) {
	if agentID != "" {
		if a, ok := s.factory.Get(agentID); ok {
			if err := a.ProcessMessages(ctx, messages); err != nil {
				s.logger.Error("service.dispatch_failed", "agent_id", agentID, "error", err.Error())
				s.sink.Emit(core.NewAssistantMessageEvent(core.NewAssistantMessage(
					"Agent " + a.Name() + " failed to process the request.")))
			}
			return
		}
		s.logger.Warn("service.unknown_agent", "agent_id", agentID)
	}

	// The router absorbs its own failures and never returns an error.
	_ = s.factory.RouterAgent().ProcessMessages(ctx, messages)
}
