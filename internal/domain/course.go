package domain

// Lesson is a single lesson within a course
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course represents a full course with its lessons.
// The title is the unique key; courses are immutable after ingestion.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson returns the lesson with the given number, or nil if absent
func (c *Course) Lesson(number int) *Lesson {
	for i := range c.Lessons {
		if c.Lessons[i].Number == number {
			return &c.Lessons[i]
		}
	}
	return nil
}

// CourseChunk is a bounded slice of course text stored for similarity search.
// It carries only a denormalized course title, no reference to a Course.
type CourseChunk struct {
	Content      string `json:"content"`
	CourseTitle  string `json:"course_title"`
	LessonNumber int    `json:"lesson_number,omitempty"` // 0 means no lesson
	ChunkIndex   int    `json:"chunk_index"`
}

// CourseStats contains aggregate catalog counts
type CourseStats struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}
