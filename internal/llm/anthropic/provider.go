package anthropic

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

// Provider implements llm.Provider for the Anthropic Messages API,
// including tool use
type Provider struct {
	apiKey       string
	defaultModel string
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new Anthropic provider
func NewProvider(apiKey, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = "claude-sonnet-4-20250514"
	}
	return &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 120 * time.Second},
		baseURL:      "https://api.anthropic.com/v1",
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
	}
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
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
	System      string         `json:"system,omitempty"`
	Messages    []apiMessage   `json:"messages"`
	Tools       []apiTool      `json:"tools,omitempty"`
	ToolChoice  *apiToolChoice `json:"tool_choice,omitempty"`
}

type apiMessage struct {
	Role    string     `json:"role"`
	Content []apiBlock `json:"content"`
}

type apiBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type apiTool struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	InputSchema tools.Schema `json:"input_schema"`
}

type apiToolChoice struct {
	Type string `json:"type"`
}

type apiResponse struct {
	Content    []apiBlock `json:"content"`
	StopReason string     `json:"stop_reason"`
	Model      string     `json:"model"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate runs one Messages API call
func (p *Provider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 800
	}

	apiReq := apiRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.System,
	}
	for _, msg := range req.Messages {
		encoded, err := encodeMessage(msg)
		if err != nil {
			return nil, err
		}
		apiReq.Messages = append(apiReq.Messages, encoded)
	}
	for _, def := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, apiTool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	if len(apiReq.Tools) > 0 {
		apiReq.ToolChoice = &apiToolChoice{Type: "auto"}
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, detail)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("no response from Anthropic")
	}

	out := &llm.Response{
		StopReason: apiResp.StopReason,
		Model:      apiResp.Model,
		TokensUsed: apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	for _, block := range apiResp.Content {
		decoded, err := decodeBlock(block)
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, decoded)
	}
	return out, nil
}

func encodeMessage(msg llm.Message) (apiMessage, error) {
	out := apiMessage{Role: msg.Role}
	for _, block := range msg.Content {
		switch block.Type {
		case llm.BlockText:
			out.Content = append(out.Content, apiBlock{Type: "text", Text: block.Text})
		case llm.BlockToolUse:
			input, err := json.Marshal(block.ToolInput)
			if err != nil {
				return apiMessage{}, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			out.Content = append(out.Content, apiBlock{
				Type:  "tool_use",
				ID:    block.ID,
				Name:  block.Name,
				Input: input,
			})
		case llm.BlockToolResult:
			out.Content = append(out.Content, apiBlock{
				Type:      "tool_result",
				ToolUseID: block.ToolUseID,
				Content:   block.Content,
				IsError:   block.IsError,
			})
		default:
			return apiMessage{}, fmt.Errorf("unsupported content block type %q", block.Type)
		}
	}
	return out, nil
}

func decodeBlock(block apiBlock) (llm.ContentBlock, error) {
	switch block.Type {
	case "text":
		return llm.ContentBlock{Type: llm.BlockText, Text: block.Text}, nil
	case "tool_use":
		input := map[string]any{}
		if len(block.Input) > 0 {
			if err := json.Unmarshal(block.Input, &input); err != nil {
				return llm.ContentBlock{}, fmt.Errorf("failed to decode tool input: %w", err)
			}
		}
		return llm.ContentBlock{
			Type:      llm.BlockToolUse,
			ID:        block.ID,
			Name:      block.Name,
			ToolInput: input,
		}, nil
	default:
		return llm.ContentBlock{}, fmt.Errorf("unsupported response block type %q", block.Type)
	}
}
