package tools

import (
	"context"
	"fmt"
	"strings"

	"coursechat/internal/domain"
	"coursechat/internal/vectorstore"
)

// ContentSearcher is the slice of the vector store the search tool needs
type ContentSearcher interface {
	Search(ctx context.Context, query string, opts vectorstore.SearchOptions) domain.SearchResults
}

// SearchTool lets the model search course content with optional course
// and lesson filters
type SearchTool struct {
	store ContentSearcher
}

// NewSearchTool creates the course content search tool
func NewSearchTool(store ContentSearcher) *SearchTool {
	return &SearchTool{store: store}
}

// Definition returns the tool schema
func (t *SearchTool) Definition() Definition {
	return Definition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        "integer",
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs the search and formats results for the model, producing
// one citation per hit
func (t *SearchTool) Execute(ctx context.Context, args map[string]any) Result {
	query, _ := args["query"].(string)
	if query == "" {
		return Result{Output: "Tool error: 'query' is required"}
	}

	opts := vectorstore.SearchOptions{}
	if name, ok := args["course_name"].(string); ok && name != "" {
		opts.CourseName = name
	}
	if n, ok := argInt(args, "lesson_number"); ok {
		opts.LessonNumber = &n
	}

	results := t.store.Search(ctx, query, opts)
	if results.Error != "" {
		return Result{Output: results.Error}
	}
	if results.IsEmpty() {
		return Result{Output: emptyMessage(opts)}
	}
	return formatResults(results)
}

func emptyMessage(opts vectorstore.SearchOptions) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if opts.CourseName != "" {
		fmt.Fprintf(&b, " in course '%s'", opts.CourseName)
	}
	if opts.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *opts.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

func formatResults(results domain.SearchResults) Result {
	var b strings.Builder
	sources := make([]domain.Source, 0, len(results.Hits))
	for i, hit := range results.Hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := fmt.Sprintf("%s - Lesson %d", hit.CourseTitle, hit.LessonNumber)
		fmt.Fprintf(&b, "[%s]\n%s", label, hit.Content)
		sources = append(sources, domain.Source{Text: label, URL: hit.LessonLink})
	}
	return Result{Output: b.String(), Sources: sources}
}

func argInt(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
