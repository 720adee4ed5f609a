// Package tool implements the capability registry that mediates between plan
// steps and executable functions. Tools are registered by name with
// capability-tagged metadata, validated arguments and consistent error
// handling; the execution loop and specialized agents look them up at
// runtime through the Registry.
package tool

import (
	"context"
	"fmt"

	"github.com/overturehq/overture/internal/util"
)

// Tool is a named, schema-described callable invokable from a plan step or
// an agent's function-calling loop.
//
// Implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully (a raised error becomes a per-step error,
//     never an aborted plan)
//   - Be safe for reuse across sequential invocations
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case recommended).
	Name() string

	// Description returns a human-readable description shown to models.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with already-decoded arguments. Blocking work
	// must honor ctx cancellation.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Metadata describes a registered tool for discovery and routing. It lives
// in the Registry for the lifetime of the registry instance.
type Metadata struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Capabilities []string       `json:"capabilities"`
	Parameters   map[string]any `json:"parameters"`
	RequiresAuth bool           `json:"requiresAuth,omitempty"`
	IsExpensive  bool           `json:"isExpensive,omitempty"`
}

// HasCapability reports whether the metadata advertises the capability tag.
func (m Metadata) HasCapability(capability string) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
