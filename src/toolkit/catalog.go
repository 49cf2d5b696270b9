package toolkit

import (
	"fmt"
)

// Descriptor describes one catalog entry for display in the tool picker.
type Descriptor struct {
	ID          string
	Name        string
	Description string
}

// Catalog is the fixed, ordered set of tools a session may enable.
type Catalog struct {
	order []string
	tools map[string]Tool
}

// NewCatalog builds a catalog from the given tools, preserving order.
func NewCatalog(tools ...Tool) (*Catalog, error) {
	c := &Catalog{tools: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		name := tool.GetName()
		if name == "" {
			return nil, fmt.Errorf("tool name cannot be empty")
		}
		if _, exists := c.tools[name]; exists {
			return nil, fmt.Errorf("tool %s is already registered", name)
		}
		c.order = append(c.order, name)
		c.tools[name] = tool
	}
	return c, nil
}

// Descriptors returns display entries in catalog order.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, id := range c.order {
		tool := c.tools[id]
		out = append(out, Descriptor{
			ID:          id,
			Name:        id,
			Description: tool.GetDescription(),
		})
	}
	return out
}

// Get returns a tool by id.
func (c *Catalog) Get(id string) (Tool, bool) {
	tool, ok := c.tools[id]
	return tool, ok
}

// Has reports whether the catalog contains id.
func (c *Catalog) Has(id string) bool {
	_, ok := c.tools[id]
	return ok
}

// IDs returns the catalog ids in order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}
