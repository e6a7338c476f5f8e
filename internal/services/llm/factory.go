package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// NewChatService builds the chat provider selected in configuration.
func NewChatService(config common.LLMConfig, embedDimension int, logger arbor.ILogger) (interfaces.ChatService, error) {
	switch interfaces.LLMProvider(config.Provider) {
	case interfaces.LLMProviderGemini:
		return NewGeminiService(config.Gemini, embedDimension, logger)
	case interfaces.LLMProviderClaude:
		return NewClaudeService(config.Claude, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", config.Provider)
	}
}

// NewEmbeddingService builds the embedding provider. Embeddings always come
// from Gemini; Claude offers no embedding endpoint.
func NewEmbeddingService(config common.LLMConfig, embedDimension int, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	return NewGeminiService(config.Gemini, embedDimension, logger)
}
