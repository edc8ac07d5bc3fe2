package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `Course Title: Building Towards Computer Use
Course Link: https://example.com/computer-use
Course Instructor: Colt Steele

Lesson 0: Introduction
Lesson Link: https://example.com/computer-use/lesson0
Welcome to the course. This lesson introduces the main ideas.

Lesson 1: API Basics
Lesson Link: https://example.com/computer-use/lesson1
The API accepts requests. Each request returns a response. Responses carry content blocks.
`

func newTestProcessor(t *testing.T, size, overlap int) *Processor {
	t.Helper()
	p, err := NewProcessor(size, overlap)
	require.NoError(t, err)
	return p
}

func TestNewProcessor(t *testing.T) {
	t.Run("rejects non-positive chunk size", func(t *testing.T) {
		_, err := NewProcessor(0, 0)
		assert.Error(t, err)
	})

	t.Run("rejects overlap not smaller than size", func(t *testing.T) {
		_, err := NewProcessor(100, 100)
		assert.Error(t, err)
	})

	t.Run("rejects negative overlap", func(t *testing.T) {
		_, err := NewProcessor(100, -1)
		assert.Error(t, err)
	})
}

func TestProcess(t *testing.T) {
	p := newTestProcessor(t, 800, 100)

	course, chunks, err := p.Process(strings.NewReader(sampleDoc), "fallback")
	require.NoError(t, err)

	assert.Equal(t, "Building Towards Computer Use", course.Title)
	assert.Equal(t, "https://example.com/computer-use", course.Link)
	assert.Equal(t, "Colt Steele", course.Instructor)

	require.Len(t, course.Lessons, 2)
	assert.Equal(t, 0, course.Lessons[0].Number)
	assert.Equal(t, "Introduction", course.Lessons[0].Title)
	assert.Equal(t, "https://example.com/computer-use/lesson0", course.Lessons[0].Link)
	assert.Equal(t, 1, course.Lessons[1].Number)
	assert.Equal(t, "API Basics", course.Lessons[1].Title)

	require.Len(t, chunks, 2)
	assert.Equal(t, "Course Building Towards Computer Use Lesson 0 content: Welcome to the course. This lesson introduces the main ideas.", chunks[0].Content)
	assert.Equal(t, "Building Towards Computer Use", chunks[0].CourseTitle)
	assert.Equal(t, 0, chunks[0].LessonNumber)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].LessonNumber)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestProcessFallbackTitle(t *testing.T) {
	p := newTestProcessor(t, 800, 100)

	doc := "Lesson 1: Only Lesson\nSome content here.\n"
	course, _, err := p.Process(strings.NewReader(doc), "my_course_doc")
	require.NoError(t, err)
	assert.Equal(t, "my_course_doc", course.Title)
}

func TestProcessErrors(t *testing.T) {
	p := newTestProcessor(t, 800, 100)

	t.Run("duplicate lesson number", func(t *testing.T) {
		doc := "Course Title: X\nLesson 1: A\ntext.\nLesson 1: B\nmore.\n"
		_, _, err := p.Process(strings.NewReader(doc), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate lesson number")
	})

	t.Run("missing title", func(t *testing.T) {
		doc := "Lesson 1: A\ntext.\n"
		_, _, err := p.Process(strings.NewReader(doc), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no course title")
	})
}

func TestProcessLessonLinkOnlyDirectlyAfterMarker(t *testing.T) {
	p := newTestProcessor(t, 800, 100)

	doc := "Course Title: X\nLesson 1: A\nSome text first.\nLesson Link: https://example.com/late\n"
	course, chunks, err := p.Process(strings.NewReader(doc), "")
	require.NoError(t, err)

	// A late link line is lesson content, not metadata
	assert.Empty(t, course.Lessons[0].Link)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Content, "Lesson Link: https://example.com/late")
}

func TestChunkText(t *testing.T) {
	t.Run("short text stays whole", func(t *testing.T) {
		p := newTestProcessor(t, 800, 100)
		chunks := p.ChunkText("One sentence. Another sentence.")
		assert.Equal(t, []string{"One sentence. Another sentence."}, chunks)
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		p := newTestProcessor(t, 800, 100)
		assert.Nil(t, p.ChunkText("   \n\t "))
	})

	t.Run("whitespace is normalized", func(t *testing.T) {
		p := newTestProcessor(t, 800, 100)
		chunks := p.ChunkText("First   sentence.\n\nSecond\tsentence.")
		assert.Equal(t, []string{"First sentence. Second sentence."}, chunks)
	})

	t.Run("splits on sentence boundaries", func(t *testing.T) {
		p := newTestProcessor(t, 40, 0)
		chunks := p.ChunkText("Alpha sentence number one. Beta sentence number two. Gamma sentence number three.")
		require.Len(t, chunks, 3)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 40)
			assert.True(t, strings.HasSuffix(chunk, "."))
		}
	})

	t.Run("overlap carries sentences forward", func(t *testing.T) {
		p := newTestProcessor(t, 60, 30)
		chunks := p.ChunkText("First point made here. Second point made here. Third point made here.")
		require.GreaterOrEqual(t, len(chunks), 2)
		assert.Contains(t, chunks[1], "Second point made here.")
	})

	t.Run("oversized sentence becomes its own chunk", func(t *testing.T) {
		p := newTestProcessor(t, 10, 0)
		long := "This single sentence is much longer than the chunk size."
		chunks := p.ChunkText(long)
		require.Len(t, chunks, 1)
		assert.Equal(t, long, chunks[0])
	})

	t.Run("always terminates with maximal overlap", func(t *testing.T) {
		p := newTestProcessor(t, 100, 99)
		chunks := p.ChunkText("A. B. C. D. E. F. G. H. I. J. K. L. M. N.")
		assert.NotEmpty(t, chunks)
	})
}
