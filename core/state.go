package core

// State enumerates the orchestrator lifecycle. Transitions are strictly
// linear (idle → planning → executing → reflecting → idle) and driven by a
// single request at a time. There is no terminal failure state: errors are
// absorbed, reported on the event sink and the orchestrator returns to idle.
type State int

const (
	// StateIdle indicates no request is being processed.
	StateIdle State = iota
	// StatePlanning indicates a plan is being generated for the request.
	StatePlanning
	// StateExecuting indicates plan steps are being executed.
	StateExecuting
	// StateReflecting indicates the execution outcome is being analyzed.
	StateReflecting
	// StateWaitingForInput is reserved for future interactive clarification.
	// No current transition reaches it.
	StateWaitingForInput
)

// String returns the lowercase identifier used in logs and notifications.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlanning:
		return "planning"
	case StateExecuting:
		return "executing"
	case StateReflecting:
		return "reflecting"
	case StateWaitingForInput:
		return "waiting-for-input"
	default:
		return "unknown"
	}
}
