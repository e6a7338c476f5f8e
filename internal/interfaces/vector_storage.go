package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// VectorStorage is the persistent chunk store. It behaves as an opaque keyed
// store with similarity search: upsert replaces by chunk ID, existence is
// checked by the source metadata field.
type VectorStorage interface {
	// UpsertChunks inserts or replaces chunks by primary key (chunk ID).
	UpsertChunks(ctx context.Context, chunks []*models.Chunk) error

	// SourceExists reports whether any chunk is indexed for the given source
	// identifier (URL or file reference).
	SourceExists(ctx context.Context, source string) (bool, error)

	// SearchSimilar returns up to limit chunks ordered by cosine similarity to
	// the query embedding, dropping results below minSimilarity.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, minSimilarity float32) ([]*models.SearchResult, error)

	// RecordAccess updates the usage-tracking metadata of the given chunks.
	RecordAccess(ctx context.Context, chunkIDs []string) error

	// DeleteBySource removes all chunks for a source and returns the count.
	DeleteBySource(ctx context.Context, source string) (int, error)

	// ListSources returns the distinct source identifiers currently indexed.
	ListSources(ctx context.Context) ([]string, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// Dimension returns the embedding dimensionality the store is configured
	// for; the ingest pipeline validates every embedding against it.
	Dimension() int
}

// StorageManager owns the database connection and its typed stores.
type StorageManager interface {
	VectorStorage() VectorStorage
	Close() error
}
