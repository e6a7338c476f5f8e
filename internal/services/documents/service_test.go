package documents

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/ingest"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}
func (fakeEmbedder) Dimension() int    { return 3 }
func (fakeEmbedder) ModelName() string { return "fake" }

type fakeStore struct {
	mu     sync.Mutex
	chunks map[string]*models.Chunk
}

func newFakeStore() *fakeStore {
	return &fakeStore{chunks: make(map[string]*models.Chunk)}
}

func (s *fakeStore) UpsertChunks(ctx context.Context, chunks []*models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

func (s *fakeStore) SourceExists(ctx context.Context, source string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chunks {
		if c.Source == source {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) SearchSimilar(ctx context.Context, embedding []float32, limit int, minSimilarity float32) ([]*models.SearchResult, error) {
	return nil, nil
}
func (s *fakeStore) RecordAccess(ctx context.Context, chunkIDs []string) error      { return nil }
func (s *fakeStore) DeleteBySource(ctx context.Context, source string) (int, error) { return 0, nil }
func (s *fakeStore) ListSources(ctx context.Context) ([]string, error)              { return nil, nil }

func (s *fakeStore) CountChunks(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks), nil
}

func (s *fakeStore) Dimension() int { return 3 }

func newTestService(store *fakeStore) *Service {
	logger := common.GetLogger()
	ingestService := ingest.NewService(common.IngestConfig{
		MaxChunkBytes:      9000,
		EmbedRetryAttempts: 1,
		EmbedRetryBackoff:  time.Millisecond,
		EmbeddingDimension: 3,
	}, fakeEmbedder{}, store, logger)
	return NewService(ingestService, logger)
}

func TestIngestUpload_PlainText(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	source, err := svc.IngestUpload(context.Background(), "notes.txt", []byte("A short note."))
	require.NoError(t, err)
	assert.Equal(t, "file://notes.txt", source)

	count, err := store.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for _, chunk := range store.chunks {
		assert.Equal(t, "file://notes.txt", chunk.Source)
		assert.Equal(t, ingest.DocumentTypeText, chunk.MetaData["document_type"])
	}
}

func TestIngestUpload_HTMLConvertedToMarkdown(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	html := `<html><head><title>Release Notes</title>
<meta name="description" content="What changed."></head>
<body><h1>Release Notes</h1><p>Bug fixes and improvements.</p></body></html>`

	source, err := svc.IngestUpload(context.Background(), "release.html", []byte(html))
	require.NoError(t, err)
	assert.Equal(t, "file://release.html", source)

	for _, chunk := range store.chunks {
		assert.NotContains(t, chunk.Text, "<p>")
		assert.Contains(t, chunk.Text, "Bug fixes and improvements.")
	}
}

func TestIngestUpload_DuplicateSkipped(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	first, err := svc.IngestUpload(context.Background(), "notes.txt", []byte("A short note."))
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.IngestUpload(context.Background(), "notes.txt", []byte("Different content."))
	require.NoError(t, err)
	assert.Empty(t, second)

	count, _ := store.CountChunks(context.Background())
	assert.Equal(t, 1, count)
}

func TestIngestUpload_UnsupportedExtension(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.IngestUpload(context.Background(), "archive.zip", []byte{0x50, 0x4b})
	assert.Error(t, err)
}

func TestIngestUpload_BaseNameOnly(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	source, err := svc.IngestUpload(context.Background(), "/tmp/uploads/notes.txt", []byte("A short note."))
	require.NoError(t, err)
	assert.Equal(t, "file://notes.txt", source)
}
