// Package agent provides the concrete agent implementations driven by the
// engine: configuration-defined specialized agents with an iterative
// tool-calling loop, and the factory that assembles them from a shared
// dependency bundle.
package agent
