// -----------------------------------------------------------------------
// Chat Service - retrieval-augmented answering over the knowledge base
// -----------------------------------------------------------------------

package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const systemPrompt = `You are a helpful assistant answering questions using the provided knowledge base excerpts.
Ground your answers in the excerpts and cite their sources when relevant.
If the excerpts do not contain the answer, say so instead of guessing.`

// Service answers questions by retrieving the most similar stored chunks and
// handing them to the chat model as context.
type Service struct {
	chat     interfaces.ChatService
	embedder interfaces.EmbeddingService
	store    interfaces.VectorStorage
	config   common.ChatConfig
	logger   arbor.ILogger
}

func NewService(config common.ChatConfig, chat interfaces.ChatService, embedder interfaces.EmbeddingService, store interfaces.VectorStorage, logger arbor.ILogger) *Service {
	return &Service{
		chat:     chat,
		embedder: embedder,
		store:    store,
		config:   config,
		logger:   logger,
	}
}

// Ask answers a question with retrieval context. History carries the prior
// conversation turns; the retrieved chunks are returned alongside the answer
// so callers can show provenance.
func (s *Service) Ask(ctx context.Context, question string, history []interfaces.Message) (string, []*models.SearchResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("question is empty")
	}

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := s.store.SearchSimilar(ctx, embedding, s.config.MaxDocuments, float32(s.config.MinSimilarity))
	if err != nil {
		return "", nil, fmt.Errorf("similarity search failed: %w", err)
	}

	messages := make([]interfaces.Message, 0, len(history)+2)
	messages = append(messages, interfaces.Message{Role: "system", Content: s.buildSystemPrompt(results)})
	messages = append(messages, history...)
	messages = append(messages, interfaces.Message{Role: "user", Content: question})

	answer, err := s.chat.Chat(ctx, messages)
	if err != nil {
		return "", nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(results) > 0 {
		ids := make([]string, len(results))
		for i, r := range results {
			ids[i] = r.Chunk.ID
		}
		if err := s.store.RecordAccess(ctx, ids); err != nil {
			s.logger.Warn().Err(err).Int("chunks", len(ids)).Msg("Failed to record chunk access")
		}
	}

	s.logger.Info().
		Int("context_chunks", len(results)).
		Int("answer_length", len(answer)).
		Msg("Question answered")

	return answer, results, nil
}

// buildSystemPrompt renders the retrieved chunks into the system message.
func (s *Service) buildSystemPrompt(results []*models.SearchResult) string {
	if len(results) == 0 {
		return systemPrompt + "\n\nNo knowledge base excerpts matched this question."
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nKnowledge base excerpts:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] Source: %s\n%s\n", i+1, r.Chunk.Source, r.Chunk.Text)
	}
	return b.String()
}
