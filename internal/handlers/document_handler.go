package handlers

import (
	"io"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/documents"
)

// maxUploadBytes caps document uploads at 32 MB.
const maxUploadBytes = 32 << 20

// DocumentHandler exposes the indexed knowledge base: uploads, source
// listing, stats, and deletion by source.
type DocumentHandler struct {
	documents *documents.Service
	store     interfaces.VectorStorage
	logger    arbor.ILogger
}

func NewDocumentHandler(docService *documents.Service, store interfaces.VectorStorage, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		documents: docService,
		store:     store,
		logger:    logger,
	}
}

// DocumentsHandler handles /api/documents: POST uploads a file, GET lists
// indexed sources, DELETE removes a source's chunks.
func (h *DocumentHandler) DocumentsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.upload(w, r)
	case http.MethodGet:
		h.listSources(w, r)
	case http.MethodDelete:
		h.deleteSource(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// StatsHandler handles GET /api/documents/stats requests.
func (h *DocumentHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	count, err := h.store.CountChunks(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sources, err := h.store.ListSources(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"chunks":  count,
		"sources": len(sources),
	})
}

func (h *DocumentHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	source, err := h.documents.IngestUpload(r.Context(), header.Filename, content)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Upload ingestion failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if source == "" {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "skipped",
			"message": "Document already indexed",
		})
		return
	}

	h.logger.Info().
		Str("filename", header.Filename).
		Str("source", source).
		Msg("Document uploaded")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"source": source,
	})
}

func (h *DocumentHandler) listSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListSources(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(sources),
		"sources": sources,
	})
}

func (h *DocumentHandler) deleteSource(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		WriteError(w, http.StatusBadRequest, "source query parameter is required")
		return
	}

	deleted, err := h.store.DeleteBySource(r.Context(), source)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().
		Str("source", source).
		Int("deleted", deleted).
		Msg("Source deleted")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"source":  source,
		"deleted": deleted,
	})
}
