// Package tools defines the tool contract and the master registry
// agents draw from. Concrete tools live in the subpackages
// (websearch, casestudy, files) and register themselves at startup.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Tool is a single capability an agent can invoke during a turn.
// Run receives the parsed action input and returns the observation
// text that goes back into the scratchpad.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input map[string]any) (string, error)
}

// Registry holds all tools available to agents, keyed by name.
type Registry struct {
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: slog.Default(),
	}
}

// Register adds a tool to the registry. Registering the same name
// twice is a programming error.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.logger.Info("Registered tool", "tool", name)
	r.tools[name] = t
	return nil
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Filter returns a new registry holding only the named tools. Unknown
// names are ignored so clients can send tool lists the server no longer
// offers.
func (r *Registry) Filter(names []string) *Registry {
	filtered := &Registry{
		tools:  make(map[string]Tool, len(names)),
		logger: r.logger,
	}
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			filtered.tools[name] = t
		}
	}
	return filtered
}

// Len reports how many tools are registered.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders the "name: description" catalog block that goes
// into the agent system prompt.
func (r *Registry) Describe() string {
	var out string
	for _, name := range r.Names() {
		out += fmt.Sprintf("- %s: %s\n", name, r.tools[name].Description())
	}
	return out
}

// StringParam extracts a required string parameter from action input.
func StringParam(input map[string]any, key string) (string, error) {
	v, ok := input[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", key, v)
	}
	if s == "" {
		return "", fmt.Errorf("parameter %q must not be empty", key)
	}
	return s, nil
}

// BoolParam extracts an optional boolean parameter, returning the
// fallback when absent.
func BoolParam(input map[string]any, key string, fallback bool) (bool, error) {
	v, ok := input[key]
	if !ok {
		return fallback, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q must be a boolean, got %T", key, v)
	}
	return b, nil
}
