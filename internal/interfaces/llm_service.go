package interfaces

import "context"

// LLMProvider identifies the backing chat-completion provider.
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
)

// Message represents a single message in a chat conversation. Role is "user",
// "assistant", or "system".
type Message struct {
	Role    string
	Content string
}

// ChatService generates a completion from a conversation history.
type ChatService interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	HealthCheck(ctx context.Context) error
	Provider() LLMProvider
	Close() error
}

// EmbeddingService generates fixed-dimension embedding vectors for text.
// An empty vector result must be reported as an error by implementations;
// callers additionally treat it as a retryable failure.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ModelName() string
}
