package embedding

import "context"

// Embedder produces vector embeddings for text
type Embedder interface {
	// Name returns the embedder identifier
	Name() string

	// Embed returns the embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)
}
