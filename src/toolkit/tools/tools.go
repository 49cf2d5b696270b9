// Package tools provides the built-in tool catalog: web search and code
// execution.
package tools

import (
	"fmt"

	"github.com/SohailShaikh7860/ai-agent-cli/src/toolkit"
)

// DefaultCatalog builds the fixed tool catalog offered to every session.
func DefaultCatalog() (*toolkit.Catalog, error) {
	webSearch, err := WebSearchTool()
	if err != nil {
		return nil, fmt.Errorf("failed to create web search tool: %w", err)
	}

	runCode, err := RunCodeTool()
	if err != nil {
		return nil, fmt.Errorf("failed to create run code tool: %w", err)
	}

	return toolkit.NewCatalog(webSearch, runCode)
}
