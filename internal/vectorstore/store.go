package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"coursechat/internal/domain"
	"coursechat/internal/embedding"
)

// Payload keys for the catalog and content collections
const (
	keyTitle        = "title"
	keyCourseLink   = "course_link"
	keyInstructor   = "instructor"
	keyLessons      = "lessons_json"
	keyContent      = "content"
	keyCourseTitle  = "course_title"
	keyLessonNumber = "lesson_number"
	keyChunkIndex   = "chunk_index"
)

// Config configures the store wrapper
type Config struct {
	CatalogCollection string
	ContentCollection string
	Dimension         int
	MaxResults        int
}

// SearchOptions are the optional parameters of a content search
type SearchOptions struct {
	CourseName   string
	LessonNumber *int
	Limit        int
}

// Store wraps the vector backend with two logical collections: a course
// catalog used for fuzzy course-name resolution, and the chunked course
// content used for similarity search.
type Store struct {
	backend    Backend
	embedder   embedding.Embedder
	catalog    string
	content    string
	dimension  int
	maxResults int
}

// NewStore creates the store wrapper. A non-positive max results setting
// is rejected outright: passing it through would silently turn every
// search into an empty result.
func NewStore(backend Backend, embedder embedding.Embedder, cfg Config) (*Store, error) {
	if cfg.MaxResults <= 0 {
		return nil, fmt.Errorf("max results must be a positive integer, got %d", cfg.MaxResults)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.CatalogCollection == "" {
		cfg.CatalogCollection = "course_catalog"
	}
	if cfg.ContentCollection == "" {
		cfg.ContentCollection = "course_content"
	}
	return &Store{
		backend:    backend,
		embedder:   embedder,
		catalog:    cfg.CatalogCollection,
		content:    cfg.ContentCollection,
		dimension:  cfg.Dimension,
		maxResults: cfg.MaxResults,
	}, nil
}

// EnsureCollections creates both collections if missing
func (s *Store) EnsureCollections(ctx context.Context) error {
	if err := s.backend.EnsureCollection(ctx, s.catalog, s.dimension); err != nil {
		return fmt.Errorf("failed to ensure catalog collection: %w", err)
	}
	if err := s.backend.EnsureCollection(ctx, s.content, s.dimension); err != nil {
		return fmt.Errorf("failed to ensure content collection: %w", err)
	}
	return nil
}

// AddCourse stores course metadata in the catalog, embedding the title
// for nearest-neighbor name resolution
func (s *Store) AddCourse(ctx context.Context, course domain.Course) error {
	if course.Title == "" {
		return fmt.Errorf("course title is required")
	}
	vector, err := s.embedder.Embed(ctx, course.Title)
	if err != nil {
		return fmt.Errorf("failed to embed course title: %w", err)
	}
	lessons, err := json.Marshal(course.Lessons)
	if err != nil {
		return fmt.Errorf("failed to marshal lessons: %w", err)
	}
	point := Point{
		ID:     pointID(course.Title),
		Vector: vector,
		Payload: map[string]any{
			keyTitle:      course.Title,
			keyCourseLink: course.Link,
			keyInstructor: course.Instructor,
			keyLessons:    string(lessons),
		},
	}
	if err := s.backend.Upsert(ctx, s.catalog, []Point{point}); err != nil {
		return fmt.Errorf("failed to upsert course: %w", err)
	}
	return nil
}

// AddChunks stores content chunks in the content collection
func (s *Store) AddChunks(ctx context.Context, chunks []domain.CourseChunk) error {
	points := make([]Point, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := s.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d of %q: %w", chunk.ChunkIndex, chunk.CourseTitle, err)
		}
		points = append(points, Point{
			ID:     pointID(fmt.Sprintf("%s#%d", chunk.CourseTitle, chunk.ChunkIndex)),
			Vector: vector,
			Payload: map[string]any{
				keyContent:      chunk.Content,
				keyCourseTitle:  chunk.CourseTitle,
				keyLessonNumber: chunk.LessonNumber,
				keyChunkIndex:   chunk.ChunkIndex,
			},
		})
	}
	if len(points) == 0 {
		return nil
	}
	if err := s.backend.Upsert(ctx, s.content, points); err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}
	return nil
}

// Search runs a similarity query against the content collection,
// resolving a fuzzy course name first when one is given. Failures are
// returned as the error variant of SearchResults, never as a Go error.
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) domain.SearchResults {
	var filter *Filter
	if opts.CourseName != "" {
		title, err := s.ResolveCourseName(ctx, opts.CourseName)
		if err != nil {
			return domain.ErrorResults(fmt.Sprintf("Search error: %v", err))
		}
		if title == "" {
			return domain.ErrorResults(fmt.Sprintf("No course found matching '%s'", opts.CourseName))
		}
		filter = &Filter{CourseTitle: title, LessonNumber: opts.LessonNumber}
	} else if opts.LessonNumber != nil {
		filter = &Filter{LessonNumber: opts.LessonNumber}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return domain.ErrorResults(fmt.Sprintf("Search error: %v", err))
	}

	matches, err := s.backend.Query(ctx, s.content, vector, limit, filter)
	if err != nil {
		return domain.ErrorResults(fmt.Sprintf("Search error: %v", err))
	}

	hits := make([]domain.SearchHit, 0, len(matches))
	links := map[string]*domain.Course{}
	for _, m := range matches {
		hit := domain.SearchHit{
			Content:      payloadString(m.Payload, keyContent),
			CourseTitle:  payloadString(m.Payload, keyCourseTitle),
			LessonNumber: payloadInt(m.Payload, keyLessonNumber),
			ChunkIndex:   payloadInt(m.Payload, keyChunkIndex),
			Distance:     m.Distance,
		}
		if hit.CourseTitle != "" {
			course, ok := links[hit.CourseTitle]
			if !ok {
				course, _ = s.CourseMetadata(ctx, hit.CourseTitle)
				links[hit.CourseTitle] = course
			}
			if course != nil {
				if lesson := course.Lesson(hit.LessonNumber); lesson != nil {
					hit.LessonLink = lesson.Link
				}
			}
		}
		hits = append(hits, hit)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return domain.SearchResults{Hits: hits}
}

// ResolveCourseName resolves a free-text course name to the canonical
// stored title via nearest-neighbor lookup on the catalog. An empty
// title with nil error means no course matched.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	vector, err := s.embedder.Embed(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to embed course name: %w", err)
	}
	matches, err := s.backend.Query(ctx, s.catalog, vector, 1, nil)
	if err != nil {
		return "", fmt.Errorf("course lookup failed: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	return payloadString(matches[0].Payload, keyTitle), nil
}

// CourseCount returns the number of courses in the catalog
func (s *Store) CourseCount(ctx context.Context) (int, error) {
	return s.backend.Count(ctx, s.catalog)
}

// CourseTitles returns all canonical course titles, sorted
func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	payloads, err := s.backend.Payloads(ctx, s.catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	titles := make([]string, 0, len(payloads))
	for _, p := range payloads {
		if title := payloadString(p, keyTitle); title != "" {
			titles = append(titles, title)
		}
	}
	sort.Strings(titles)
	return titles, nil
}

// CourseMetadata returns the stored course for an exact canonical title,
// or nil if the title is unknown
func (s *Store) CourseMetadata(ctx context.Context, title string) (*domain.Course, error) {
	payloads, err := s.backend.Payloads(ctx, s.catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	for _, p := range payloads {
		if payloadString(p, keyTitle) != title {
			continue
		}
		course := &domain.Course{
			Title:      title,
			Link:       payloadString(p, keyCourseLink),
			Instructor: payloadString(p, keyInstructor),
		}
		if raw := payloadString(p, keyLessons); raw != "" {
			if err := json.Unmarshal([]byte(raw), &course.Lessons); err != nil {
				return nil, fmt.Errorf("corrupt lesson metadata for %q: %w", title, err)
			}
		}
		return course, nil
	}
	return nil, nil
}

// LessonLink returns the link for a lesson, or "" when unknown
func (s *Store) LessonLink(ctx context.Context, title string, lessonNumber int) string {
	course, err := s.CourseMetadata(ctx, title)
	if err != nil || course == nil {
		return ""
	}
	if lesson := course.Lesson(lessonNumber); lesson != nil {
		return lesson.Link
	}
	return ""
}

// Clear removes all catalog and content data
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Clear(ctx, s.catalog); err != nil {
		return err
	}
	return s.backend.Clear(ctx, s.content)
}

// Ping verifies the backend is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// pointID derives a stable point identifier from a logical key, so that
// re-ingesting the same course overwrites rather than duplicates
func pointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func payloadString(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
