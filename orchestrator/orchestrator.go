// Package orchestrator drives the plan/execute/reflect cycle. The Manager
// is a strict state machine (idle, planning, executing, reflecting) whose
// single entry point absorbs every failure: a request always runs the full
// cycle, always notifies the event sink, and always returns the machine to
// idle. The waiting-for-input state is declared for API completeness but no
// transition currently enters it.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/overturehq/overture/core"
	"github.com/overturehq/overture/logging"
	"github.com/overturehq/overture/memory"
	"github.com/overturehq/overture/planner"
	"github.com/overturehq/overture/reflection"
	"github.com/overturehq/overture/session"
	"github.com/overturehq/overture/tool"
)

// Options configures a Manager instance.
type Options struct {
	Memory   memory.Store
	Sessions session.Store
	Sink     core.EventSink
	Logger   logging.Logger
}

// Manager coordinates planning, execution and reflection for one logical
// conversation stream. The mutex guards state reads and writes only;
// callers are expected to submit one request at a time per Manager.
type Manager struct {
	planner   *planner.Planner
	reflector *reflection.Reflector
	registry  *tool.Registry
	memory    memory.Store
	sessions  session.Store
	sink      core.EventSink
	logger    logging.Logger

	mu    sync.Mutex
	state core.State
}

// New creates a Manager in the idle state.
func New(p *planner.Planner, r *reflection.Reflector, registry *tool.Registry, optFns ...func(o *Options)) *Manager {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		planner:   p,
		reflector: r,
		registry:  registry,
		memory:    opts.Memory,
		sessions:  opts.Sessions,
		sink:      opts.Sink,
		logger:    opts.Logger,
		state:     core.StateIdle,
	}
}

// State returns the current machine state.
func (m *Manager) State() core.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s core.State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()
	m.logger.Debug("orchestrator.state", "from", prev.String(), "to", s.String())
}

// ProcessRequest runs one full orchestration cycle for the request. It
// never returns an error: model failures, decoding failures, tool failures
// and even panics are absorbed, reported through the event sink, and leave
// the machine idle. The outcome is observable via the sink and, when a
// session store is configured, the recorded conversation history.
func (m *Manager) ProcessRequest(ctx context.Context, sessionID, request string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("orchestrator.panic", "panic", fmt.Sprintf("%v", r))
			m.emitAssistant("An internal error occurred while processing the request.")
		}
		m.setState(core.StateIdle)
	}()

	m.logger.Info("orchestrator.request.start", "session_id", sessionID)
	m.recordMessage(sessionID, core.NewUserMessage(request))

	// Planning
	m.setState(core.StatePlanning)
	m.emitThinking("Planning how to handle the request")
	planContext := m.retrieveContext(ctx, request)
	plan := m.planner.CreatePlan(ctx, request, planContext)
	m.emitPlan(plan)

	// Executing
	m.setState(core.StateExecuting)
	result := m.executeSteps(ctx, plan)

	// Reflecting
	m.setState(core.StateReflecting)
	m.emitThinking("Evaluating the execution outcome")
	refl := m.reflector.Reflect(ctx, request, plan, result)
	m.storeExecution(ctx, request, plan, result, refl)

	feedback := refl.Feedback
	if feedback == "" {
		feedback = summarize(result)
	}
	m.emitAssistant(feedback)
	m.recordMessage(sessionID, core.NewAssistantMessage(feedback))

	m.logger.Info("orchestrator.request.done",
		"session_id", sessionID,
		"plan_id", plan.ID,
		"steps", len(plan.Steps),
		"success", result.Success,
	)
}

// executeSteps runs the plan's steps strictly in array order, emitting a
// thinking event on the sink before and after each step. The dependsOn
// edges are recorded on each step but deliberately not enforced; the
// planner is instructed to emit steps already ordered, and execution
// honors that order unconditionally. Step failures are recorded and
// execution continues with the remaining steps.
func (m *Manager) executeSteps(ctx context.Context, plan core.Plan) core.ExecutionResult {
	result := core.ExecutionResult{Success: true}

	for _, step := range plan.Steps {
		m.emitThinking(stepStartedText(step))
		start := time.Now()
		sr := m.executeStep(ctx, step)
		if sr.IsError() {
			result.Success = false
			if result.Error == "" {
				result.Error = sr.Error
			}
		}
		m.emitThinking(stepFinishedText(step, sr))
		m.logger.Debug("orchestrator.step.done",
			"step_id", step.ID,
			"tool", step.ToolName,
			"duration_ms", time.Since(start).Milliseconds(),
			"success", !sr.IsError(),
		)
		result.StepResults = append(result.StepResults, sr)
	}

	return result
}

// executeStep resolves and runs a single step. A step without a tool
// binding completes trivially; an unknown tool name is a step-level error,
// never a cycle-level one.
func (m *Manager) executeStep(ctx context.Context, step core.PlanStep) core.StepResult {
	sr := core.StepResult{StepID: step.ID}

	if step.ToolName == "" {
		sr.Value = map[string]any{"completed": true}
		return sr
	}

	t, ok := m.registry.Get(step.ToolName)
	if !ok {
		sr.Error = fmt.Sprintf("Tool not found: %s", step.ToolName)
		return sr
	}

	value, err := t.Call(ctx, step.ToolParameters)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}
	sr.Value = value
	return sr
}

// retrieveContext asks the memory store for prior knowledge. Failures are
// logged and swallowed; planning proceeds without context.
func (m *Manager) retrieveContext(ctx context.Context, request string) any {
	if m.memory == nil {
		return nil
	}
	planContext, err := m.memory.RetrieveRelevantContext(ctx, request)
	if err != nil {
		m.logger.Warn("orchestrator.memory.retrieve_failed", "error", err.Error())
		return nil
	}
	return planContext
}

// storeExecution records the completed cycle. Failures are logged and
// swallowed; the cycle's outcome is already decided.
func (m *Manager) storeExecution(ctx context.Context, request string, plan core.Plan, result core.ExecutionResult, refl core.Reflection) {
	if m.memory == nil {
		return
	}
	if err := m.memory.StoreExecution(ctx, request, plan, result, refl); err != nil {
		m.logger.Warn("orchestrator.memory.store_failed", "error", err.Error())
	}
}

func (m *Manager) recordMessage(sessionID string, msg core.Message) {
	if m.sessions == nil {
		return
	}
	if err := m.sessions.Append(sessionID, msg); err != nil {
		m.logger.Warn("orchestrator.session.append_failed", "error", err.Error())
	}
}

func (m *Manager) emitThinking(text string) {
	if m.sink != nil {
		m.sink.Emit(core.NewThinkingEvent(text))
	}
}

func (m *Manager) emitPlan(plan core.Plan) {
	if m.sink != nil {
		m.sink.Emit(core.NewPlanEvent(plan))
	}
}

func (m *Manager) emitAssistant(text string) {
	if m.sink == nil {
		return
	}
	m.sink.Emit(core.NewAssistantMessageEvent(core.NewAssistantMessage(text)))
}

// stepStartedText renders the user-facing notification preceding a step.
func stepStartedText(step core.PlanStep) string {
	return fmt.Sprintf("Executing step %s: %s", step.ID, step.Description)
}

// stepFinishedText renders the user-facing notification following a step,
// carrying its outcome.
func stepFinishedText(step core.PlanStep, sr core.StepResult) string {
	if sr.IsError() {
		return fmt.Sprintf("Step %s failed: %s", step.ID, sr.Error)
	}
	return fmt.Sprintf("Step %s completed", step.ID)
}

// summarize produces a terse user-facing outcome line for cycles where the
// reflector supplied no feedback text.
func summarize(result core.ExecutionResult) string {
	if result.Success {
		return fmt.Sprintf("Completed %d step(s) successfully.", len(result.StepResults))
	}
	return fmt.Sprintf("Execution finished with errors: %s", result.Error)
}
