package tools

import (
	"context"
	"fmt"
	"strings"

	"coursechat/internal/domain"
)

// CourseCatalog is the slice of the vector store the outline tool needs
type CourseCatalog interface {
	ResolveCourseName(ctx context.Context, name string) (string, error)
	CourseMetadata(ctx context.Context, title string) (*domain.Course, error)
}

// OutlineTool returns a course's full lesson list without running a
// content similarity search
type OutlineTool struct {
	catalog CourseCatalog
}

// NewOutlineTool creates the course outline tool
func NewOutlineTool(catalog CourseCatalog) *OutlineTool {
	return &OutlineTool{catalog: catalog}
}

// Definition returns the tool schema
func (t *OutlineTool) Definition() Definition {
	return Definition{
		Name:        "get_course_outline",
		Description: "Get the complete outline of a course: title, link, instructor and full lesson list",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work)",
				},
			},
			Required: []string{"course_name"},
		},
	}
}

// Execute resolves the course name and formats its outline
func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) Result {
	name, _ := args["course_name"].(string)
	if name == "" {
		return Result{Output: "Tool error: 'course_name' is required"}
	}

	title, err := t.catalog.ResolveCourseName(ctx, name)
	if err != nil {
		return Result{Output: fmt.Sprintf("Outline error: %v", err)}
	}
	if title == "" {
		return Result{Output: fmt.Sprintf("No course found matching '%s'", name)}
	}

	course, err := t.catalog.CourseMetadata(ctx, title)
	if err != nil {
		return Result{Output: fmt.Sprintf("Outline error: %v", err)}
	}
	if course == nil {
		return Result{Output: fmt.Sprintf("No course found matching '%s'", name)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&b, "Total Lessons: %d\n\nLessons:\n", len(course.Lessons))
	for _, lesson := range course.Lessons {
		fmt.Fprintf(&b, "%d. %s", lesson.Number, lesson.Title)
		if lesson.Link != "" {
			fmt.Fprintf(&b, " (%s)", lesson.Link)
		}
		b.WriteString("\n")
	}

	source := domain.Source{Text: course.Title, URL: course.Link}
	return Result{Output: b.String(), Sources: []domain.Source{source}}
}
