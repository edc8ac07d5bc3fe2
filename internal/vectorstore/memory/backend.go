package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"coursechat/internal/vectorstore"
)

// Backend is an in-memory vector store using brute-force cosine
// similarity. It backs tests and local runs without a Qdrant instance.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	dimension int
	points    map[string]vectorstore.Point
}

// NewBackend creates an empty in-memory backend
func NewBackend() *Backend {
	return &Backend{collections: make(map[string]*collection)}
}

// EnsureCollection creates the collection if it does not exist
func (b *Backend) EnsureCollection(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[name]; !ok {
		b.collections[name] = &collection{
			dimension: dimension,
			points:    make(map[string]vectorstore.Point),
		}
	}
	return nil
}

// Upsert inserts or replaces points by ID
func (b *Backend) Upsert(_ context.Context, name string, points []vectorstore.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	col, ok := b.collections[name]
	if !ok {
		return fmt.Errorf("collection %q does not exist", name)
	}
	for _, p := range points {
		if len(p.Vector) != col.dimension {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(p.Vector), col.dimension)
		}
		col.points[p.ID] = p
	}
	return nil
}

// Query returns up to limit matches ordered by ascending cosine distance
func (b *Backend) Query(_ context.Context, name string, vector []float32, limit int, filter *vectorstore.Filter) ([]vectorstore.Match, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	col, ok := b.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", name)
	}
	if limit <= 0 {
		return nil, nil
	}

	// Visit points in ID order so the stable sort breaks distance ties
	// the same way on every call
	ids := make([]string, 0, len(col.points))
	for id := range col.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	matches := make([]vectorstore.Match, 0, len(col.points))
	for _, id := range ids {
		p := col.points[id]
		if !matchesFilter(p.Payload, filter) {
			continue
		}
		matches = append(matches, vectorstore.Match{
			Payload:  p.Payload,
			Distance: 1 - cosine(p.Vector, vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Payloads returns the payloads of every point in the collection
func (b *Backend) Payloads(_ context.Context, name string) ([]map[string]any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	col, ok := b.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", name)
	}
	payloads := make([]map[string]any, 0, len(col.points))
	for _, p := range col.points {
		payloads = append(payloads, p.Payload)
	}
	return payloads, nil
}

// Count returns the number of points in the collection
func (b *Backend) Count(_ context.Context, name string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	col, ok := b.collections[name]
	if !ok {
		return 0, fmt.Errorf("collection %q does not exist", name)
	}
	return len(col.points), nil
}

// Clear removes all points from the collection
func (b *Backend) Clear(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	col, ok := b.collections[name]
	if !ok {
		return fmt.Errorf("collection %q does not exist", name)
	}
	col.points = make(map[string]vectorstore.Point)
	return nil
}

// Ping always succeeds for the in-memory backend
func (b *Backend) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory backend
func (b *Backend) Close() error { return nil }

func matchesFilter(payload map[string]any, filter *vectorstore.Filter) bool {
	if filter == nil {
		return true
	}
	if filter.CourseTitle != "" {
		title, _ := payload["course_title"].(string)
		if title != filter.CourseTitle {
			return false
		}
	}
	if filter.LessonNumber != nil {
		if lessonNumber(payload) != *filter.LessonNumber {
			return false
		}
	}
	return true
}

func lessonNumber(payload map[string]any) int {
	switch v := payload["lesson_number"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
