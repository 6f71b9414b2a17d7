package port

import (
	"context"

	"supportrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex is a collection-oriented vector index.
type VectorIndex interface {
	// DeleteCollection drops a collection. A missing collection returns
	// domain.ErrCollectionNotFound.
	DeleteCollection(ctx context.Context, name string) error

	// CreateCollection creates an empty collection using cosine distance.
	CreateCollection(ctx context.Context, name string, vectorSize int) error

	// Upsert adds or replaces points in a collection.
	Upsert(ctx context.Context, name string, points []domain.IndexedPoint) error

	// Search returns up to limit points ranked by similarity (higher is better).
	Search(ctx context.Context, name string, query []float32, limit int) ([]domain.SearchResult, error)

	// Count returns the number of points in a collection.
	Count(ctx context.Context, name string) (int, error)
}
