package llm

import (
	"context"

	"coursechat/internal/tools"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block types
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Stop reasons
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// ContentBlock is one element of a message: text, a tool invocation
// requested by the model, or a tool result fed back to it
type ContentBlock struct {
	Type string

	// BlockText
	Text string

	// BlockToolUse
	ID        string
	Name      string
	ToolInput map[string]any

	// BlockToolResult
	ToolUseID string
	Content   string
	IsError   bool
}

// TextBlock creates a text content block
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolResultBlock creates a tool result block for a prior tool use
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// Message is one turn of the conversation
type Message struct {
	Role    string
	Content []ContentBlock
}

// Request contains generation parameters
type Request struct {
	System    string
	Messages  []Message
	Tools     []tools.Definition
	MaxTokens int
}

// Response contains the model's reply
type Response struct {
	Content    []ContentBlock
	StopReason string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Text returns the concatenated text blocks of the response
func (r *Response) Text() string {
	out := ""
	for _, block := range r.Content {
		if block.Type == BlockText {
			out += block.Text
		}
	}
	return out
}

// ToolUses returns the tool invocations requested by the response, in order
func (r *Response) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, block := range r.Content {
		if block.Type == BlockToolUse {
			uses = append(uses, block)
		}
	}
	return uses
}

// Provider defines the interface for hosted LLM APIs
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Generate runs one model invocation; model "" uses the default
	Generate(ctx context.Context, req Request, model string) (*Response, error)
}
