// Package vectorstore holds the vector index behind the library search
// feature. Points are chapter chunks; payloads carry the book and chapter they
// came from so searches can be scoped to one book.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks github.com/fossabot/versicle/internal/vectorstore VectorStore

import "context"

// Point is one chunk vector with its metadata payload.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult is one hit from a similarity search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the vector index operations the search engine needs.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search. Filters scope the search; the
	// supported keys are "book_id" and "chapter_id", matched exactly.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}
