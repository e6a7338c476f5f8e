package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// StatusHandler reports service health and basic index statistics.
type StatusHandler struct {
	store      interfaces.VectorStorage
	llmService interfaces.ChatService
	logger     arbor.ILogger
}

func NewStatusHandler(store interfaces.VectorStorage, llmService interfaces.ChatService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		store:      store,
		llmService: llmService,
		logger:     logger,
	}
}

// HealthHandler handles GET /health requests.
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := map[string]interface{}{
		"status":  "ok",
		"version": common.Version,
		"build":   common.Build,
	}
	healthy := true

	if count, err := h.store.CountChunks(r.Context()); err != nil {
		healthy = false
		status["storage"] = map[string]interface{}{"healthy": false, "error": err.Error()}
	} else {
		sources, _ := h.store.ListSources(r.Context())
		status["storage"] = map[string]interface{}{
			"healthy": true,
			"chunks":  count,
			"sources": len(sources),
		}
	}

	if err := h.llmService.HealthCheck(r.Context()); err != nil {
		healthy = false
		status["llm"] = map[string]interface{}{
			"healthy":  false,
			"provider": string(h.llmService.Provider()),
			"error":    err.Error(),
		}
	} else {
		status["llm"] = map[string]interface{}{
			"healthy":  true,
			"provider": string(h.llmService.Provider()),
		}
	}

	code := http.StatusOK
	if !healthy {
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, status)
}

// VersionHandler handles GET /api/version requests.
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
	})
}
