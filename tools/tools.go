package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/lectern-ai/lectern/models"
	"github.com/lectern-ai/lectern/provider"
)

// ErrUnknownTool is returned when the model requests a tool that was never
// registered. The orchestrator substitutes an error string for the tool
// output so the model can degrade gracefully instead of the request dying.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is one capability the model may invoke.
type Tool interface {
	// Definition returns the declaration handed to the LLM client.
	Definition() provider.ToolDecl
	// Execute runs the tool with model-supplied arguments and returns the
	// text fed back to the model.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// SourceTracker is implemented by tools that retain citation metadata from
// their last execution. The registry aggregates these after the model
// finishes; the model's prose is never trusted for citations.
type SourceTracker interface {
	LastSources() []models.SearchResult
	ResetSources()
}

// Registry holds the fixed tool set, resolved and validated at startup.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register validates a tool's declaration and adds it. Declaration
// problems are registration-time errors, not call-time surprises.
func (r *Registry) Register(t Tool) error {
	def := t.Definition()
	if def.Name == "" {
		return errors.New("tool declaration must have a name")
	}
	if def.InputSchema == nil {
		return fmt.Errorf("tool %q must declare an input schema", def.Name)
	}
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %q already registered", def.Name)
	}
	r.order = append(r.order, def.Name)
	r.tools[def.Name] = t
	return nil
}

// Declarations returns every registered tool declaration, in registration
// order, for the LLM request.
func (r *Registry) Declarations() []provider.ToolDecl {
	decls := make([]provider.ToolDecl, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Definition())
	}
	return decls
}

// Execute runs a registered tool by name.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t.Execute(ctx, args)
}

// LastSources returns the citation metadata retained by source-tracking
// tools from their most recent execution.
func (r *Registry) LastSources() []models.SearchResult {
	for _, name := range r.order {
		if tracker, ok := r.tools[name].(SourceTracker); ok {
			if sources := tracker.LastSources(); len(sources) > 0 {
				return sources
			}
		}
	}
	return nil
}

// ResetSources clears retained sources on all source-tracking tools.
func (r *Registry) ResetSources() {
	for _, t := range r.tools {
		if tracker, ok := t.(SourceTracker); ok {
			tracker.ResetSources()
		}
	}
}
