package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/chat"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService *chat.Service
	llmService  interfaces.ChatService
	logger      arbor.ILogger
}

// ChatRequest is the POST /api/chat request body.
type ChatRequest struct {
	Message string           `json:"message"`
	History []HistoryMessage `json:"history,omitempty"`
}

// HistoryMessage is a prior conversation turn supplied by the client.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func NewChatHandler(chatService *chat.Service, llmService interfaces.ChatService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		llmService:  llmService,
		logger:      logger,
	}
}

// ChatHandler handles POST /api/chat requests
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode chat request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		WriteError(w, http.StatusBadRequest, "Message field is required")
		return
	}

	history := make([]interfaces.Message, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, interfaces.Message{Role: m.Role, Content: m.Content})
	}

	h.logger.Info().
		Int("message_length", len(req.Message)).
		Int("history_turns", len(history)).
		Msg("Processing chat request")

	answer, results, err := h.chatService.Ask(r.Context(), req.Message, history)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to generate chat response")
		WriteError(w, http.StatusInternalServerError, "Failed to generate response: "+err.Error())
		return
	}

	sources := make([]map[string]interface{}, 0, len(results))
	for _, result := range results {
		sources = append(sources, map[string]interface{}{
			"source":     result.Chunk.Source,
			"similarity": result.Similarity,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  answer,
		"sources":  sources,
		"provider": string(h.llmService.Provider()),
	})
}

// HealthHandler handles GET /api/chat/health requests
func (h *ChatHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if err := h.llmService.HealthCheck(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Chat service health check failed")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"healthy":  false,
			"provider": string(h.llmService.Provider()),
			"error":    err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"healthy":  true,
		"provider": string(h.llmService.Provider()),
	})
}
