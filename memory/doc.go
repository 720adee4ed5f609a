// Package memory contains concrete Store implementations for long-term
// execution memory. The engine consults the store before planning and
// records the full cycle after reflecting; both calls are best-effort and
// the orchestrator treats failures as absent context.
//
// The in-memory store below is a naive substring index suited to tests and
// demos; swap in a vector database or semantic index for production
// retrieval without touching the engine.
package memory
