package toolkit

import (
	"context"
	"fmt"

	"github.com/SohailShaikh7860/ai-agent-cli/src/aisdk"
)

// Selection is the set of enabled tools for one chat session. It is an
// explicit object passed by reference into the session loop and the gateway,
// never process-global, so state cannot leak between sessions. The enabled
// set is always a subset of the catalog.
type Selection struct {
	catalog *Catalog
	enabled map[string]bool
}

// NewSelection creates an empty selection over the catalog.
func NewSelection(catalog *Catalog) *Selection {
	return &Selection{
		catalog: catalog,
		enabled: make(map[string]bool),
	}
}

// Enable replaces the enabled set with the given ids.
func (s *Selection) Enable(ids ...string) error {
	next := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !s.catalog.Has(id) {
			return fmt.Errorf("unknown tool: %s", id)
		}
		next[id] = true
	}
	s.enabled = next
	return nil
}

// Toggle flips membership of a single tool.
func (s *Selection) Toggle(id string) error {
	if !s.catalog.Has(id) {
		return fmt.Errorf("unknown tool: %s", id)
	}
	if s.enabled[id] {
		delete(s.enabled, id)
	} else {
		s.enabled[id] = true
	}
	return nil
}

// EnabledNames returns the enabled tool ids in catalog order.
func (s *Selection) EnabledNames() []string {
	var names []string
	for _, id := range s.catalog.IDs() {
		if s.enabled[id] {
			names = append(names, id)
		}
	}
	return names
}

// Enabled returns the enabled tools in catalog order.
func (s *Selection) Enabled() []Tool {
	var tools []Tool
	for _, id := range s.catalog.IDs() {
		if s.enabled[id] {
			tool, _ := s.catalog.Get(id)
			tools = append(tools, tool)
		}
	}
	return tools
}

// ChatTools returns API declarations for the enabled tools, nil when none.
func (s *Selection) ChatTools() []*aisdk.ChatTool {
	enabled := s.Enabled()
	if len(enabled) == 0 {
		return nil
	}
	return ToChatTools(enabled)
}

// Execute runs the named tool call against the catalog. Only enabled tools
// are callable.
func (s *Selection) Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	name := call.Function.Name
	if !s.enabled[name] {
		return nil, fmt.Errorf("tool %s is not enabled", name)
	}
	tool, ok := s.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool %s not found", name)
	}
	return tool.Execute(ctx, call)
}

// Catalog returns the underlying catalog.
func (s *Selection) Catalog() *Catalog {
	return s.catalog
}

// Reset clears the enabled set. Called on every session exit path.
func (s *Selection) Reset() {
	s.enabled = make(map[string]bool)
}
