package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// DocumentTypeWebPage tags content produced by the crawler; uploads carry
// their own types.
const (
	DocumentTypeWebPage = "web_page"
	DocumentTypePDF     = "pdf"
	DocumentTypeText    = "text"
)

// Service is the ingestion pipeline: it chunks documents, embeds each chunk
// with retry, and upserts the survivors into the vector store. It also
// implements the crawler's Knowledge interface.
type Service struct {
	embedder interfaces.EmbeddingService
	store    interfaces.VectorStorage
	config   common.IngestConfig
	logger   arbor.ILogger
}

func NewService(config common.IngestConfig, embedder interfaces.EmbeddingService, store interfaces.VectorStorage, logger arbor.ILogger) *Service {
	return &Service{
		embedder: embedder,
		store:    store,
		config:   config,
		logger:   logger,
	}
}

// IsDuplicate reports whether the source URL is already indexed. Part of the
// Knowledge interface consumed by the crawler.
func (s *Service) IsDuplicate(ctx context.Context, normalizedURL string) (bool, error) {
	return s.store.SourceExists(ctx, normalizedURL)
}

// OnPageCrawled ingests a crawled page. Part of the Knowledge interface.
func (s *Service) OnPageCrawled(ctx context.Context, normalizedURL, content string) error {
	doc := &models.Document{
		Title:   normalizedURL,
		Content: content,
		MetaData: map[string]interface{}{
			"source": normalizedURL,
		},
	}
	return s.IngestDocument(ctx, doc, DocumentTypeWebPage)
}

// IngestDocument chunks, embeds, and persists a document. A chunk whose
// embedding cannot be obtained is skipped; the document aborts only when no
// chunk survives. Re-ingesting unchanged content rewrites the same rows
// because chunk IDs derive from the source and content hashes.
func (s *Service) IngestDocument(ctx context.Context, doc *models.Document, documentType string) error {
	source := doc.Source()
	if source == "" {
		return fmt.Errorf("document has no source")
	}

	sourceHash := common.HashContent(source)
	contentHash := common.HashContent(doc.Content)

	texts := SplitContent(doc.Content, s.config.MaxChunkBytes)
	if len(texts) == 0 {
		s.logger.Warn().Str("source", source).Msg("Document produced no chunks, aborting ingestion")
		return fmt.Errorf("no chunks produced for %s", source)
	}

	now := time.Now().UTC()
	chunks := make([]*models.Chunk, 0, len(texts))
	for i, text := range texts {
		ordinal := i + 1

		embedding, err := s.embedWithRetry(ctx, text)
		if err != nil {
			s.logger.Error().Err(err).
				Str("source", source).
				Int("ordinal", ordinal).
				Msg("Embedding failed after retries, skipping chunk")
			continue
		}
		if len(embedding) != s.store.Dimension() {
			s.logger.Error().
				Str("source", source).
				Int("ordinal", ordinal).
				Int("got", len(embedding)).
				Int("want", s.store.Dimension()).
				Msg("Embedding dimension mismatch, skipping chunk")
			continue
		}

		meta := make(map[string]interface{}, len(doc.MetaData)+5)
		for k, v := range doc.MetaData {
			meta[k] = v
		}
		meta["document_type"] = documentType
		meta["chunk_index"] = ordinal
		meta["total_chunks"] = len(texts)
		meta["last_accessed"] = ""
		meta["access_count"] = 0

		chunks = append(chunks, &models.Chunk{
			ID:                fmt.Sprintf("%s_%s_%d", sourceHash, contentHash, ordinal),
			Source:            source,
			ParentContentHash: contentHash,
			Ordinal:           ordinal,
			Text:              text,
			MetaData:          meta,
			Embedding:         embedding,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	if len(chunks) == 0 {
		s.logger.Error().Str("source", source).Msg("No chunks survived embedding, aborting ingestion")
		return fmt.Errorf("no embeddable chunks for %s", source)
	}

	if err := s.store.UpsertChunks(ctx, chunks); err != nil {
		return fmt.Errorf("failed to upsert chunks for %s: %w", source, err)
	}

	s.logger.Info().
		Str("source", source).
		Int("chunks", len(chunks)).
		Int("skipped", len(texts)-len(chunks)).
		Msg("Document ingested")

	return nil
}

// embedWithRetry requests an embedding with exponential backoff. An empty
// vector counts as a retryable failure the same as a provider error.
func (s *Service) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	attempts := s.config.EmbedRetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := s.config.EmbedRetryBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		embedding, err := s.embedder.Embed(ctx, text)
		if err == nil && len(embedding) > 0 {
			return embedding, nil
		}
		if err == nil {
			err = fmt.Errorf("embedding provider returned empty vector")
		}
		lastErr = err

		if attempt < attempts {
			s.logger.Warn().Err(err).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Embedding attempt failed, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", attempts, lastErr)
}
