package qdrant

import (
	"context"
	"fmt"
	"sync"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"coursechat/internal/vectorstore"
)

// Backend talks to a Qdrant instance over gRPC. Collections use cosine
// distance; match distances are reported as 1 - similarity so lower is
// closer, consistent with the Backend contract.
type Backend struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient

	mu         sync.Mutex
	dimensions map[string]int
}

// NewBackend connects to Qdrant at the given gRPC address
func NewBackend(addr string) (*Backend, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	return &Backend{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		dimensions:  make(map[string]int),
	}, nil
}

// EnsureCollection creates the collection if it does not exist
func (b *Backend) EnsureCollection(ctx context.Context, name string, dimension int) error {
	list, err := b.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	exists := false
	for _, col := range list.GetCollections() {
		if col.GetName() == name {
			exists = true
			break
		}
	}
	if !exists {
		_, err = b.collections.Create(ctx, &qdrantclient.CreateCollection{
			CollectionName: name,
			VectorsConfig: &qdrantclient.VectorsConfig{
				Config: &qdrantclient.VectorsConfig_Params{
					Params: &qdrantclient.VectorParams{
						Size:     uint64(dimension),
						Distance: qdrantclient.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %q: %w", name, err)
		}
	}
	b.mu.Lock()
	b.dimensions[name] = dimension
	b.mu.Unlock()
	return nil
}

// Upsert inserts or replaces points by ID
func (b *Backend) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	structs := make([]*qdrantclient.PointStruct, 0, len(points))
	for _, p := range points {
		payload := make(map[string]*qdrantclient.Value, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = toValue(v)
		}
		structs = append(structs, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: p.ID},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: p.Vector},
				},
			},
			Payload: payload,
		})
	}
	wait := true
	_, err := b.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: collection,
		Points:         structs,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Query returns up to limit matches ordered by ascending distance
func (b *Backend) Query(ctx context.Context, collection string, vector []float32, limit int, filter *vectorstore.Filter) ([]vectorstore.Match, error) {
	if limit <= 0 {
		return nil, nil
	}
	req := &qdrantclient.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if f := toFilter(filter); f != nil {
		req.Filter = f
	}
	resp, err := b.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}
	matches := make([]vectorstore.Match, 0, len(resp.GetResult()))
	for _, scored := range resp.GetResult() {
		payload := make(map[string]any, len(scored.GetPayload()))
		for k, v := range scored.GetPayload() {
			payload[k] = fromValue(v)
		}
		matches = append(matches, vectorstore.Match{
			Payload:  payload,
			Distance: 1 - float64(scored.GetScore()),
		})
	}
	return matches, nil
}

// Payloads scrolls the full collection and returns every payload
func (b *Backend) Payloads(ctx context.Context, collection string) ([]map[string]any, error) {
	var payloads []map[string]any
	var offset *qdrantclient.PointId
	pageSize := uint32(256)
	for {
		resp, err := b.points.Scroll(ctx, &qdrantclient.ScrollPoints{
			CollectionName: collection,
			Limit:          &pageSize,
			Offset:         offset,
			WithPayload: &qdrantclient.WithPayloadSelector{
				SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll failed: %w", err)
		}
		for _, point := range resp.GetResult() {
			payload := make(map[string]any, len(point.GetPayload()))
			for k, v := range point.GetPayload() {
				payload[k] = fromValue(v)
			}
			payloads = append(payloads, payload)
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			return payloads, nil
		}
	}
}

// Count returns the number of points in the collection
func (b *Backend) Count(ctx context.Context, collection string) (int, error) {
	exact := true
	resp, err := b.points.Count(ctx, &qdrantclient.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count failed: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Clear drops and recreates the collection
func (b *Backend) Clear(ctx context.Context, collection string) error {
	b.mu.Lock()
	dimension, ok := b.dimensions[collection]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}
	if _, err := b.collections.Delete(ctx, &qdrantclient.DeleteCollection{
		CollectionName: collection,
	}); err != nil {
		return fmt.Errorf("failed to delete collection %q: %w", collection, err)
	}
	return b.EnsureCollection(ctx, collection, dimension)
}

// Ping verifies the backend is reachable
func (b *Backend) Ping(ctx context.Context) error {
	_, err := b.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	return err
}

// Close releases the gRPC connection
func (b *Backend) Close() error {
	return b.conn.Close()
}

func toFilter(filter *vectorstore.Filter) *qdrantclient.Filter {
	if filter == nil {
		return nil
	}
	var must []*qdrantclient.Condition
	if filter.CourseTitle != "" {
		must = append(must, &qdrantclient.Condition{
			ConditionOneOf: &qdrantclient.Condition_Field{
				Field: &qdrantclient.FieldCondition{
					Key: "course_title",
					Match: &qdrantclient.Match{
						MatchValue: &qdrantclient.Match_Keyword{Keyword: filter.CourseTitle},
					},
				},
			},
		})
	}
	if filter.LessonNumber != nil {
		must = append(must, &qdrantclient.Condition{
			ConditionOneOf: &qdrantclient.Condition_Field{
				Field: &qdrantclient.FieldCondition{
					Key: "lesson_number",
					Match: &qdrantclient.Match{
						MatchValue: &qdrantclient.Match_Integer{Integer: int64(*filter.LessonNumber)},
					},
				},
			},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrantclient.Filter{Must: must}
}

func toValue(v any) *qdrantclient.Value {
	switch val := v.(type) {
	case string:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: val}}
	case int:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_BoolValue{BoolValue: val}}
	default:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: fmt.Sprintf("%v", val)}}
	}
}

func fromValue(v *qdrantclient.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrantclient.Value_StringValue:
		return kind.StringValue
	case *qdrantclient.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrantclient.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrantclient.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}
