package semantic

import "context"

// Vector is one embedded document chunk with its payload.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// VectorMatch is a retrieval hit: higher score means more similar.
type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// VectorStore is the external vector-search service boundary. Namespaces
// partition the store per logical entity (one per user, one shared
// knowledge base); implementations must keep them isolated.
type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]VectorMatch, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}

// Embedder turns text into query/document vectors. The embedding service
// is external; failures surface as typed errors, never raw transport ones.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}
