package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"coursechat/internal/domain"
)

var (
	lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.+)$`)
	sentenceEnd  = regexp.MustCompile(`[^.!?]+[.!?]+(?:\s+|$)|[^.!?]+$`)
)

// Processor parses course documents and splits lesson text into
// overlapping, sentence-bounded chunks
type Processor struct {
	chunkSize    int
	chunkOverlap int
}

// NewProcessor creates a processor. Overlap must be smaller than the
// chunk size or chunking would never advance.
func NewProcessor(chunkSize, chunkOverlap int) (*Processor, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &Processor{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// ProcessFile parses a course document from disk
func (p *Processor) ProcessFile(path string) (*domain.Course, []domain.CourseChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return p.Process(f, name)
}

// Process parses a course document. The expected format is a header of
// "Course Title:", "Course Link:" and "Course Instructor:" lines,
// followed by "Lesson N: Title" sections, each optionally starting with
// a "Lesson Link:" line. fallbackTitle is used when no title header is
// present. Chunk indexes increase monotonically across the document.
func (p *Processor) Process(r io.Reader, fallbackTitle string) (*domain.Course, []domain.CourseChunk, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	course := &domain.Course{Title: fallbackTitle}
	var chunks []domain.CourseChunk
	chunkIndex := 0

	var lessonNumber int
	var lessonLines []string
	inLesson := false

	flushLesson := func() {
		if !inLesson {
			return
		}
		text := strings.TrimSpace(strings.Join(lessonLines, "\n"))
		lessonLines = nil
		if text == "" {
			return
		}
		for _, chunk := range p.ChunkText(text) {
			chunks = append(chunks, domain.CourseChunk{
				Content:      fmt.Sprintf("Course %s Lesson %d content: %s", course.Title, lessonNumber, chunk),
				CourseTitle:  course.Title,
				LessonNumber: lessonNumber,
				ChunkIndex:   chunkIndex,
			})
			chunkIndex++
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")

		if !inLesson {
			switch {
			case strings.HasPrefix(line, "Course Title:"):
				course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
				continue
			case strings.HasPrefix(line, "Course Link:"):
				course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
				continue
			case strings.HasPrefix(line, "Course Instructor:"):
				course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
				continue
			}
		}

		if m := lessonMarker.FindStringSubmatch(line); m != nil {
			flushLesson()
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, nil, fmt.Errorf("invalid lesson number in %q", line)
			}
			if course.Lesson(number) != nil {
				return nil, nil, fmt.Errorf("duplicate lesson number %d in course %q", number, course.Title)
			}
			lessonNumber = number
			inLesson = true
			course.Lessons = append(course.Lessons, domain.Lesson{
				Number: number,
				Title:  strings.TrimSpace(m[2]),
			})
			continue
		}

		if inLesson && strings.HasPrefix(line, "Lesson Link:") && len(lessonLines) == 0 {
			course.Lessons[len(course.Lessons)-1].Link = strings.TrimSpace(strings.TrimPrefix(line, "Lesson Link:"))
			continue
		}

		if inLesson {
			lessonLines = append(lessonLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read document: %w", err)
	}
	flushLesson()

	if course.Title == "" {
		return nil, nil, fmt.Errorf("document has no course title")
	}
	return course, chunks, nil
}

// ChunkText splits text into chunks of at most chunkSize characters,
// breaking on sentence boundaries, with the configured overlap carried
// into the next chunk.
func (p *Processor) ChunkText(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	sentences := sentenceEnd.FindAllString(text, -1)
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	if len(sentences) == 0 {
		sentences = []string{text}
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		var parts []string
		size := 0
		j := i
		for j < len(sentences) {
			next := len(sentences[j])
			if len(parts) > 0 {
				next++ // joining space
			}
			if size+next > p.chunkSize && len(parts) > 0 {
				break
			}
			parts = append(parts, sentences[j])
			size += next
			j++
		}
		chunks = append(chunks, strings.Join(parts, " "))
		if j >= len(sentences) {
			break
		}

		// Walk back from the split point until the overlap budget is
		// spent. back never drops below i+1, so progress is guaranteed.
		back := j
		overlap := 0
		for back > i+1 && overlap+len(sentences[back-1]) <= p.chunkOverlap {
			back--
			overlap += len(sentences[back]) + 1
		}
		i = back
	}
	return chunks
}
