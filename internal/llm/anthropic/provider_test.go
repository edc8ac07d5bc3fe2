package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat/internal/llm"
	"coursechat/internal/tools"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewProvider("test-key", "")
	p.baseURL = server.URL
	return p
}

func TestGenerate(t *testing.T) {
	var gotReq map[string]any
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": "Hello."}},
			"stop_reason": "end_turn",
			"model":       "claude-sonnet-4-20250514",
			"usage":       map[string]int{"input_tokens": 10, "output_tokens": 5},
		})
	})

	req := llm.Request{
		System:    "be brief",
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock("hi")}}},
		Tools:     []tools.Definition{{Name: "search", InputSchema: tools.Schema{Type: "object"}}},
		MaxTokens: 800,
	}
	resp, err := p.Generate(context.Background(), req, "")
	require.NoError(t, err)

	assert.Equal(t, "Hello.", resp.Text())
	assert.Equal(t, llm.StopEndTurn, resp.StopReason)
	assert.Equal(t, 15, resp.TokensUsed)

	assert.Equal(t, "claude-sonnet-4-20250514", gotReq["model"])
	assert.Equal(t, float64(0), gotReq["temperature"])
	assert.Equal(t, float64(800), gotReq["max_tokens"])
	assert.Equal(t, "be brief", gotReq["system"])
	require.Len(t, gotReq["tools"], 1)
	toolChoice := gotReq["tool_choice"].(map[string]any)
	assert.Equal(t, "auto", toolChoice["type"])
}

func TestGenerateToolUse(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "tool_use", "id": "tu_1", "name": "search", "input": map[string]any{"query": "mcp"}},
			},
			"stop_reason": "tool_use",
			"model":       "claude-sonnet-4-20250514",
			"usage":       map[string]int{"input_tokens": 1, "output_tokens": 1},
		})
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock("hi")}}},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, llm.StopToolUse, resp.StopReason)
	uses := resp.ToolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "tu_1", uses[0].ID)
	assert.Equal(t, "search", uses[0].Name)
	assert.Equal(t, map[string]any{"query": "mcp"}, uses[0].ToolInput)
}

func TestGenerateEncodesToolResults(t *testing.T) {
	var gotReq apiRequest
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": "done"}},
			"stop_reason": "end_turn",
		})
	})

	_, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock("q")}},
			{Role: llm.RoleAssistant, Content: []llm.ContentBlock{{
				Type: llm.BlockToolUse, ID: "tu_1", Name: "search", ToolInput: map[string]any{"query": "x"},
			}}},
			{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.ToolResultBlock("tu_1", "results here", false)}},
		},
	}, "")
	require.NoError(t, err)

	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "tool_use", gotReq.Messages[1].Content[0].Type)
	result := gotReq.Messages[2].Content[0]
	assert.Equal(t, "tool_result", result.Type)
	assert.Equal(t, "tu_1", result.ToolUseID)
	assert.Equal(t, "results here", result.Content)
}

func TestGenerateAPIError(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusTooManyRequests)
	})

	_, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock("hi")}}},
	}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "overloaded")
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewProvider("key", "").IsConfigured())
	assert.False(t, NewProvider("", "").IsConfigured())
}
