package handlers

import (
	"context"
	"sync"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Shared in-memory fakes for handler tests.

type mockLLM struct {
	response  string
	healthErr error
}

func (m *mockLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return m.response, nil
}
func (m *mockLLM) HealthCheck(ctx context.Context) error { return m.healthErr }
func (m *mockLLM) Provider() interfaces.LLMProvider      { return interfaces.LLMProviderGemini }
func (m *mockLLM) Close() error                          { return nil }

type mockEmbedder struct{}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}
func (m *mockEmbedder) Dimension() int    { return 3 }
func (m *mockEmbedder) ModelName() string { return "mock" }

type mockStore struct {
	mu      sync.Mutex
	chunks  map[string]*models.Chunk
	results []*models.SearchResult
}

func newMockStore() *mockStore {
	return &mockStore{chunks: make(map[string]*models.Chunk)}
}

func (m *mockStore) UpsertChunks(ctx context.Context, chunks []*models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *mockStore) SourceExists(ctx context.Context, source string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.chunks {
		if c.Source == source {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) SearchSimilar(ctx context.Context, embedding []float32, limit int, minSimilarity float32) ([]*models.SearchResult, error) {
	return m.results, nil
}

func (m *mockStore) RecordAccess(ctx context.Context, chunkIDs []string) error { return nil }

func (m *mockStore) DeleteBySource(ctx context.Context, source string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for id, c := range m.chunks {
		if c.Source == source {
			delete(m.chunks, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockStore) ListSources(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var sources []string
	for _, c := range m.chunks {
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}
	return sources, nil
}

func (m *mockStore) CountChunks(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks), nil
}

func (m *mockStore) Dimension() int { return 3 }

type mockFetcher struct {
	pages map[string]string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return m.pages[url], nil
}
