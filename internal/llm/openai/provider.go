package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coursechat/internal/llm"
	"coursechat/internal/tools"
)

// Provider implements llm.Provider for the OpenAI Chat Completions API,
// mapping function calls onto the shared tool-use message shapes
type Provider struct {
	apiKey       string
	defaultModel string
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new OpenAI provider
func NewProvider(apiKey, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = "gpt-4o"
	}
	return &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 120 * time.Second},
		baseURL:      "https://api.openai.com/v1",
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "openai"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo"}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature"`
	Messages    []apiMessage `json:"messages"`
	Tools       []apiTool    `json:"tools,omitempty"`
}

type apiMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content,omitempty"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type apiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type apiTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string       `json:"name"`
		Description string       `json:"description"`
		Parameters  tools.Schema `json:"parameters"`
	} `json:"function"`
}

type apiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      apiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate runs one Chat Completions call
func (p *Provider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if model == "" {
		model = p.defaultModel
	}

	apiReq := apiRequest{
		Model:     model,
		MaxTokens: req.MaxTokens,
	}
	if req.System != "" {
		apiReq.Messages = append(apiReq.Messages, apiMessage{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		encoded, err := encodeMessage(msg)
		if err != nil {
			return nil, err
		}
		apiReq.Messages = append(apiReq.Messages, encoded...)
	}
	for _, def := range req.Tools {
		var tool apiTool
		tool.Type = "function"
		tool.Function.Name = def.Name
		tool.Function.Description = def.Description
		tool.Function.Parameters = def.InputSchema
		apiReq.Tools = append(apiReq.Tools, tool)
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, detail)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	choice := apiResp.Choices[0]
	out := &llm.Response{
		StopReason: llm.StopEndTurn,
		Model:      apiResp.Model,
		TokensUsed: apiResp.Usage.TotalTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	if choice.Message.Content != "" {
		out.Content = append(out.Content, llm.TextBlock(choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		input := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
				return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
			}
		}
		out.Content = append(out.Content, llm.ContentBlock{
			Type:      llm.BlockToolUse,
			ID:        call.ID,
			Name:      call.Function.Name,
			ToolInput: input,
		})
	}
	if choice.FinishReason == "tool_calls" {
		out.StopReason = llm.StopToolUse
	}
	return out, nil
}

func encodeMessage(msg llm.Message) ([]apiMessage, error) {
	var out []apiMessage
	current := apiMessage{Role: msg.Role}
	flush := func() {
		if current.Content != "" || len(current.ToolCalls) > 0 {
			out = append(out, current)
			current = apiMessage{Role: msg.Role}
		}
	}
	for _, block := range msg.Content {
		switch block.Type {
		case llm.BlockText:
			current.Content += block.Text
		case llm.BlockToolUse:
			args, err := json.Marshal(block.ToolInput)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			call := apiToolCall{ID: block.ID, Type: "function"}
			call.Function.Name = block.Name
			call.Function.Arguments = string(args)
			current.ToolCalls = append(current.ToolCalls, call)
		case llm.BlockToolResult:
			// Tool results are standalone "tool" role messages
			flush()
			out = append(out, apiMessage{
				Role:       "tool",
				Content:    block.Content,
				ToolCallID: block.ToolUseID,
			})
		default:
			return nil, fmt.Errorf("unsupported content block type %q", block.Type)
		}
	}
	flush()
	return out, nil
}
