package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coursechat/internal/domain"
	"coursechat/internal/vectorstore"
)

func TestSearchToolExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("missing query", func(t *testing.T) {
		tool := NewSearchTool(new(MockContentSearcher))

		result := tool.Execute(ctx, map[string]any{})
		assert.Equal(t, "Tool error: 'query' is required", result.Output)
		assert.Empty(t, result.Sources)
	})

	t.Run("formats hits with headers and sources", func(t *testing.T) {
		store := new(MockContentSearcher)
		store.On("Search", ctx, "what is MCP", vectorstore.SearchOptions{}).Return(domain.SearchResults{
			Hits: []domain.SearchHit{
				{Content: "MCP is a protocol.", CourseTitle: "MCP Fundamentals", LessonNumber: 0, LessonLink: "https://example.com/mcp/0"},
				{Content: "Servers expose tools.", CourseTitle: "MCP Fundamentals", LessonNumber: 1, LessonLink: "https://example.com/mcp/1"},
			},
		})

		tool := NewSearchTool(store)
		result := tool.Execute(ctx, map[string]any{"query": "what is MCP"})

		assert.Equal(t,
			"[MCP Fundamentals - Lesson 0]\nMCP is a protocol.\n\n[MCP Fundamentals - Lesson 1]\nServers expose tools.",
			result.Output)
		require.Len(t, result.Sources, 2)
		assert.Equal(t, domain.Source{Text: "MCP Fundamentals - Lesson 0", URL: "https://example.com/mcp/0"}, result.Sources[0])
		store.AssertExpectations(t)
	})

	t.Run("passes filters through", func(t *testing.T) {
		store := new(MockContentSearcher)
		store.On("Search", ctx, "q", mock.MatchedBy(func(opts vectorstore.SearchOptions) bool {
			return opts.CourseName == "MCP" && opts.LessonNumber != nil && *opts.LessonNumber == 2
		})).Return(domain.SearchResults{})

		tool := NewSearchTool(store)
		// JSON-decoded tool input delivers numbers as float64
		tool.Execute(ctx, map[string]any{"query": "q", "course_name": "MCP", "lesson_number": float64(2)})

		store.AssertExpectations(t)
	})

	t.Run("empty results name the filters", func(t *testing.T) {
		store := new(MockContentSearcher)
		store.On("Search", ctx, "q", mock.Anything).Return(domain.SearchResults{})

		tool := NewSearchTool(store)
		result := tool.Execute(ctx, map[string]any{"query": "q", "course_name": "MCP", "lesson_number": float64(3)})

		assert.Equal(t, "No relevant content found in course 'MCP' in lesson 3.", result.Output)
		assert.Empty(t, result.Sources)
	})

	t.Run("error variant becomes output", func(t *testing.T) {
		store := new(MockContentSearcher)
		store.On("Search", ctx, "q", mock.Anything).Return(domain.ErrorResults("No course found matching 'X'"))

		tool := NewSearchTool(store)
		result := tool.Execute(ctx, map[string]any{"query": "q"})

		assert.Equal(t, "No course found matching 'X'", result.Output)
	})
}

func TestSearchToolDefinition(t *testing.T) {
	def := NewSearchTool(new(MockContentSearcher)).Definition()

	assert.Equal(t, "search_course_content", def.Name)
	assert.Equal(t, []string{"query"}, def.InputSchema.Required)
	assert.Contains(t, def.InputSchema.Properties, "course_name")
	assert.Contains(t, def.InputSchema.Properties, "lesson_number")
}
