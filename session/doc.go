// Package session provides conversation history stores. The engine appends
// every user and assistant turn to the session so multi-turn context
// survives across orchestration cycles.
package session
