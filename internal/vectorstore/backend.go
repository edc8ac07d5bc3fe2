package vectorstore

import "context"

// Point is one embedded record with its payload
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Match is one query result. Distance is ascending-better (0 = identical);
// tie ordering between equal distances is backend-defined.
type Match struct {
	Payload  map[string]any
	Distance float64
}

// Filter constrains a content query by payload equality. Zero values
// mean the field is not filtered.
type Filter struct {
	CourseTitle  string
	LessonNumber *int
}

// Backend is the raw vector database: named collections of embedded
// points. The engine itself is a black box behind this interface.
type Backend interface {
	// EnsureCollection creates the collection if it does not exist
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// Upsert inserts or replaces points by ID
	Upsert(ctx context.Context, collection string, points []Point) error

	// Query returns up to limit matches ordered by ascending distance
	Query(ctx context.Context, collection string, vector []float32, limit int, filter *Filter) ([]Match, error)

	// Payloads returns the payloads of every point in the collection
	Payloads(ctx context.Context, collection string) ([]map[string]any, error)

	// Count returns the number of points in the collection
	Count(ctx context.Context, collection string) (int, error)

	// Clear removes all points from the collection
	Clear(ctx context.Context, collection string) error

	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error

	// Close releases backend resources
	Close() error
}
