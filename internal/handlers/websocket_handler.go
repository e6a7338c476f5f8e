package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// maxHistoryTurns bounds the per-connection conversation memory.
const maxHistoryTurns = 20

// WebSocketHandler runs interactive chat sessions over a websocket. Each
// connection keeps its own conversation history.
type WebSocketHandler struct {
	chatService *chat.Service
	logger      arbor.ILogger
}

type wsRequest struct {
	Message string `json:"message"`
}

type wsResponse struct {
	Type    string                   `json:"type"`
	Message string                   `json:"message,omitempty"`
	Sources []map[string]interface{} `json:"sources,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

func NewWebSocketHandler(chatService *chat.Service, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// HandleWebSocket handles GET /ws/chat upgrade requests.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.Info().Str("remote", r.RemoteAddr).Msg("WebSocket chat session opened")

	var history []interfaces.Message
	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}

		question := strings.TrimSpace(req.Message)
		if question == "" {
			conn.WriteJSON(wsResponse{Type: "error", Error: "message is empty"})
			continue
		}

		answer, results, err := h.chatService.Ask(r.Context(), question, history)
		if err != nil {
			h.logger.Error().Err(err).Msg("WebSocket chat request failed")
			conn.WriteJSON(wsResponse{Type: "error", Error: err.Error()})
			continue
		}

		history = append(history,
			interfaces.Message{Role: "user", Content: question},
			interfaces.Message{Role: "assistant", Content: answer},
		)
		if len(history) > maxHistoryTurns {
			history = history[len(history)-maxHistoryTurns:]
		}

		sources := make([]map[string]interface{}, 0, len(results))
		for _, result := range results {
			sources = append(sources, map[string]interface{}{
				"source":     result.Chunk.Source,
				"similarity": result.Similarity,
			})
		}
		if err := conn.WriteJSON(wsResponse{Type: "answer", Message: answer, Sources: sources}); err != nil {
			h.logger.Warn().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}
