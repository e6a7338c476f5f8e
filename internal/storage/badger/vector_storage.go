// -----------------------------------------------------------------------
// Vector Storage - chunk persistence with brute-force similarity search
// -----------------------------------------------------------------------

package badger

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

func init() {
	// Chunk metadata is a map of interface{} values; gob needs the concrete
	// types registered.
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
	gob.Register(time.Time{})
}

// VectorStorage persists chunks in badgerhold and serves similarity search
// by scanning stored embeddings. The corpus is small enough (thousands of
// chunks) that a linear cosine scan beats maintaining an index.
type VectorStorage struct {
	db        *BadgerDB
	dimension int
	logger    arbor.ILogger
}

func NewVectorStorage(db *BadgerDB, dimension int, logger arbor.ILogger) *VectorStorage {
	return &VectorStorage{
		db:        db,
		dimension: dimension,
		logger:    logger,
	}
}

// UpsertChunks inserts or replaces chunks by chunk ID.
func (s *VectorStorage) UpsertChunks(ctx context.Context, chunks []*models.Chunk) error {
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.db.Store().Upsert(chunk.ID, chunk); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", chunk.ID, err)
		}
	}
	s.logger.Debug().Int("count", len(chunks)).Msg("Chunks upserted")
	return nil
}

// SourceExists reports whether any chunk is stored for the source.
func (s *VectorStorage) SourceExists(ctx context.Context, source string) (bool, error) {
	var chunk models.Chunk
	err := s.db.Store().FindOne(&chunk, badgerhold.Where("Source").Eq(source).Index("Source"))
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check source existence: %w", err)
	}
	return true, nil
}

// SearchSimilar returns up to limit chunks ordered by cosine similarity,
// dropping results below minSimilarity and chunks whose stored embedding
// does not match the query dimension.
func (s *VectorStorage) SearchSimilar(ctx context.Context, embedding []float32, limit int, minSimilarity float32) ([]*models.SearchResult, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}

	var results []*models.SearchResult
	err := s.db.Store().ForEach(nil, func(chunk *models.Chunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(chunk.Embedding) != len(embedding) {
			return nil
		}
		similarity := cosineSimilarity(embedding, chunk.Embedding)
		if similarity < minSimilarity {
			return nil
		}
		c := *chunk
		results = append(results, &models.SearchResult{Chunk: &c, Similarity: similarity})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("similarity scan failed: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// RecordAccess stamps the usage-tracking metadata of the given chunks.
func (s *VectorStorage) RecordAccess(ctx context.Context, chunkIDs []string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range chunkIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		var chunk models.Chunk
		if err := s.db.Store().Get(id, &chunk); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return fmt.Errorf("failed to load chunk %s: %w", id, err)
		}

		if chunk.MetaData == nil {
			chunk.MetaData = make(map[string]interface{})
		}
		chunk.MetaData["last_accessed"] = now
		chunk.MetaData["access_count"] = toInt(chunk.MetaData["access_count"]) + 1
		chunk.UpdatedAt = time.Now().UTC()

		if err := s.db.Store().Upsert(id, &chunk); err != nil {
			return fmt.Errorf("failed to update chunk %s: %w", id, err)
		}
	}
	return nil
}

// DeleteBySource removes all chunks for a source and returns how many were
// deleted.
func (s *VectorStorage) DeleteBySource(ctx context.Context, source string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var chunks []models.Chunk
	query := badgerhold.Where("Source").Eq(source).Index("Source")
	if err := s.db.Store().Find(&chunks, query); err != nil {
		return 0, fmt.Errorf("failed to find chunks for source: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := s.db.Store().DeleteMatching(&models.Chunk{}, query); err != nil {
		return 0, fmt.Errorf("failed to delete chunks for source: %w", err)
	}

	s.logger.Info().Str("source", source).Int("count", len(chunks)).Msg("Chunks deleted")
	return len(chunks), nil
}

// ListSources returns the distinct sources currently indexed.
func (s *VectorStorage) ListSources(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var sources []string
	err := s.db.Store().ForEach(nil, func(chunk *models.Chunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !seen[chunk.Source] {
			seen[chunk.Source] = true
			sources = append(sources, chunk.Source)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	sort.Strings(sources)
	return sources, nil
}

// CountChunks returns the total number of stored chunks.
func (s *VectorStorage) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := s.db.Store().ForEach(nil, func(chunk *models.Chunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// Dimension returns the embedding dimensionality the store is configured for.
func (s *VectorStorage) Dimension() int {
	return s.dimension
}

var _ interfaces.VectorStorage = (*VectorStorage)(nil)

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// toInt tolerates the numeric types metadata values decode into.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
