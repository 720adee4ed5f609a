package core

// Plan is the validated, ordered decomposition of a user request. It is
// created once by the plan generator and treated as immutable afterwards;
// the orchestrator owns it for the duration of a single request.
type Plan struct {
	ID        string     `json:"id"`
	Goal      string     `json:"goal"`
	Reasoning string     `json:"reasoning"`
	Steps     []PlanStep `json:"steps"`
}

// PlanStep is one unit of plan execution, optionally bound to a named tool.
//
// DependsOn references ids of other steps in the same plan. The dependency
// graph is recorded but not consulted by the execution loop: steps run
// strictly in slice order. Cycles are not rejected.
type PlanStep struct {
	ID              string         `json:"id"`
	Description     string         `json:"description"`
	ToolName        string         `json:"toolName,omitempty"`
	ToolParameters  map[string]any `json:"toolParameters,omitempty"`
	DependsOn       []string       `json:"dependsOn,omitempty"`
	ExpectedOutcome string         `json:"expectedOutcome"`
}

// StepResult is the recorded outcome of a single step. Exactly one of Value
// or Error is meaningful: an empty Error marks success.
type StepResult struct {
	StepID string `json:"stepId"`
	Value  any    `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// IsError reports whether this entry records a step failure.
func (r StepResult) IsError() bool { return r.Error != "" }

// ExecutionResult captures the outcome of executing every step of one plan.
// StepResults holds exactly one entry per step, in the plan's step order,
// regardless of individual step failures.
type ExecutionResult struct {
	Success     bool         `json:"success"`
	StepResults []StepResult `json:"stepResults"`
	Error       string       `json:"error,omitempty"`
}

// Result returns the entry for the given step id, if present.
func (r ExecutionResult) Result(stepID string) (StepResult, bool) {
	for _, sr := range r.StepResults {
		if sr.StepID == stepID {
			return sr, true
		}
	}
	return StepResult{}, false
}

// Reflection is the post-hoc structured assessment of one plan execution.
// It is handed to the memory collaborator; the engine itself does not
// persist it.
type Reflection struct {
	Success      bool     `json:"success"`
	Insights     []string `json:"insights"`
	Improvements []string `json:"improvements"`
	Feedback     string   `json:"feedback"`
}
