// Package core defines the shared data model of the orchestration engine:
// plans and their steps, execution results, reflections, conversation
// messages, agent identity/state and the typed event records emitted on the
// UI-facing event sink. It has no dependencies on the other engine packages
// so every component can consume it without import cycles.
package core
