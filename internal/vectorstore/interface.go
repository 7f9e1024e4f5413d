package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docchat/internal/vectorstore VectorStore

import "context"

// Payload is the fixed payload schema for every point in the corpus.
// There is exactly one schema; malformed points are a hard error rather
// than something to probe around.
type Payload struct {
	// Text is the snippet text.
	Text string
	// Source is the storage URI of the original document.
	Source string
	// File is the original file name the snippet came from.
	File string
	// ChunkIndex is the snippet's position within its document.
	ChunkIndex int
}

// Point represents a vector point with its payload.
type Point struct {
	ID      string
	Vec     []float32
	Payload Payload
}

// SearchResult represents a single similarity search hit.
type SearchResult struct {
	PointID string
	Score   float32
	Payload Payload
}

// VectorStore defines the interface for the document index.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search returning up to k hits in the
	// index's relevance order.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}
