package tool

import (
	"sync"

	"github.com/overturehq/overture/logging"
)

// Registry maps tool names to callables plus capability metadata. It is the
// single mediation point between plan steps and executable capabilities:
// the execution loop and specialized agents resolve tool names here.
//
// Registration is idempotent by name: the last registration wins and the
// overwrite is logged at Warn, never rejected. Capability lookup is a
// linear filter over all registered metadata; no index is maintained beyond
// correctness.
//
// The registry is constructed once per orchestration context, read-mostly
// thereafter, and safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
	order   []string
	logger  logging.Logger
}

type registryEntry struct {
	tool Tool
	meta Metadata
}

// RegistryOptions configures a Registry instance.
type RegistryOptions struct {
	Logger logging.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		entries: make(map[string]registryEntry),
		logger:  opts.Logger,
	}
}

// Register adds a tool under its metadata name. Re-registering a name
// replaces both the callable and the metadata with a warning side effect.
func (r *Registry) Register(t Tool, meta Metadata) {
	if meta.Name == "" {
		meta.Name = t.Name()
	}
	if meta.Description == "" {
		meta.Description = t.Description()
	}
	if meta.Parameters == nil {
		meta.Parameters = t.Parameters()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[meta.Name]; exists {
		r.logger.Warn("tool.registry.overwrite", "tool", meta.Name)
	} else {
		r.order = append(r.order, meta.Name)
	}
	r.entries[meta.Name] = registryEntry{tool: t, meta: meta}
}

// RegisterFunc is a convenience that wraps a FunctionTool registration,
// deriving metadata from the tool itself plus the given capability tags.
func (r *Registry) RegisterFunc(t *FunctionTool, capabilities ...string) {
	r.Register(t, Metadata{
		Name:         t.Name(),
		Description:  t.Description(),
		Capabilities: capabilities,
		Parameters:   t.Parameters(),
	})
}

// Get returns the callable registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.tool, true
}

// GetMetadata returns the metadata registered under name.
func (r *Registry) GetMetadata(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return Metadata{}, false
	}
	return entry.meta, true
}

// WithCapability returns the metadata of every tool advertising the given
// capability tag, in registration order.
func (r *Registry) WithCapability(capability string) []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Metadata
	for _, name := range r.order {
		if entry := r.entries[name]; entry.meta.HasCapability(capability) {
			out = append(out, entry.meta)
		}
	}
	return out
}

// AllMetadata returns metadata for every registered tool in registration order.
func (r *Registry) AllMetadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].meta)
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
