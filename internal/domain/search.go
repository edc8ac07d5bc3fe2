package domain

// SearchHit is a single matched chunk with its distance score
type SearchHit struct {
	Content      string  `json:"content"`
	CourseTitle  string  `json:"course_title"`
	LessonNumber int     `json:"lesson_number,omitempty"`
	LessonLink   string  `json:"lesson_link,omitempty"`
	ChunkIndex   int     `json:"chunk_index"`
	Distance     float64 `json:"distance"`
}

// SearchResults holds ordered hits (closest first) or an explicit error
// variant. Backend failures become the error variant, never a Go error.
type SearchResults struct {
	Hits  []SearchHit `json:"hits"`
	Error string      `json:"error,omitempty"`
}

// ErrorResults creates an error-tagged result set
func ErrorResults(msg string) SearchResults {
	return SearchResults{Error: msg}
}

// IsEmpty reports whether the result set has no hits
func (r SearchResults) IsEmpty() bool {
	return len(r.Hits) == 0
}

// Source is a citation attached to an answer: display text plus an
// optional link to the supporting content.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}
