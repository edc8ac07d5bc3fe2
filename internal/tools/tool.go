package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"coursechat/internal/domain"
)

// Property describes one input parameter in a tool schema
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Schema is the JSON-schema shaped parameter description consumed by
// the LLM API's tool-calling mechanism
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Definition is a tool's published contract
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema"`
}

// Result is the outcome of one tool execution. Sources are returned
// explicitly per execution so callers own citation state; there is no
// shared mutable source list to leak across concurrent queries.
type Result struct {
	Output  string
	Sources []domain.Source
}

// Tool is a named, schema-described operation the model may invoke.
// Execute never fails with a Go error: failures become output text so
// the model can incorporate them into its answer.
type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, args map[string]any) Result
}

// Manager registers tools and dispatches executions by name
type Manager struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewManager creates an empty tool manager
func NewManager() *Manager {
	return &Manager{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any tool with the same name
func (m *Manager) Register(tool Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools[tool.Definition().Name] = tool
}

// Definitions returns all tool schemas in stable name order
func (m *Manager) Definitions() []Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	defs := make([]Definition, 0, len(m.tools))
	for _, tool := range m.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute dispatches to the named tool. An unknown name yields an
// error message as the result output, never a Go error.
func (m *Manager) Execute(ctx context.Context, name string, args map[string]any) Result {
	m.mu.RLock()
	tool, ok := m.tools[name]
	m.mu.RUnlock()
	if !ok {
		return Result{Output: fmt.Sprintf("Tool '%s' not found", name)}
	}
	return tool.Execute(ctx, args)
}
