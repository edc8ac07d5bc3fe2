package openai

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
	var gotReq apiRequest
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "Hello."},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"total_tokens": 12},
		})
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		System:    "be brief",
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock("hi")}}},
		Tools:     []tools.Definition{{Name: "search", Description: "d", InputSchema: tools.Schema{Type: "object"}}},
		MaxTokens: 800,
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "Hello.", resp.Text())
	assert.Equal(t, llm.StopEndTurn, resp.StopReason)
	assert.Equal(t, 12, resp.TokensUsed)

	// System prompt becomes the leading system message
	require.NotEmpty(t, gotReq.Messages)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "be brief", gotReq.Messages[0].Content)
	require.Len(t, gotReq.Tools, 1)
	assert.Equal(t, "function", gotReq.Tools[0].Type)
	assert.Equal(t, "search", gotReq.Tools[0].Function.Name)
}

func TestGenerateToolCalls(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "search",
							"arguments": `{"query":"mcp"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock("hi")}}},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, llm.StopToolUse, resp.StopReason)
	uses := resp.ToolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "call_1", uses[0].ID)
	assert.Equal(t, "search", uses[0].Name)
	assert.Equal(t, map[string]any{"query": "mcp"}, uses[0].ToolInput)
}

func TestGenerateEncodesToolResults(t *testing.T) {
	var gotReq apiRequest
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "done"},
				"finish_reason": "stop",
			}},
		})
	})

	_, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock("q")}},
			{Role: llm.RoleAssistant, Content: []llm.ContentBlock{{
				Type: llm.BlockToolUse, ID: "call_1", Name: "search", ToolInput: map[string]any{"query": "x"},
			}}},
			{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.ToolResultBlock("call_1", "results here", false)}},
		},
	}, "")
	require.NoError(t, err)

	require.Len(t, gotReq.Messages, 3)
	assistant := gotReq.Messages[1]
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)
	assert.JSONEq(t, `{"query":"x"}`, assistant.ToolCalls[0].Function.Arguments)

	// Tool results become standalone role:"tool" messages
	toolMsg := gotReq.Messages[2]
	assert.Equal(t, "tool", toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Equal(t, "results here", toolMsg.Content)
}

func TestGenerateAPIError(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	})

	_, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock("hi")}}},
	}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewProvider("key", "").IsConfigured())
	assert.False(t, NewProvider("", "").IsConfigured())
}
