package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/crawler"
)

// CrawlHandler manages crawl jobs over HTTP. Jobs run asynchronously; the
// handler returns a job ID immediately and status is polled separately.
type CrawlHandler struct {
	jobs   *crawler.JobManager
	logger arbor.ILogger
}

// CrawlRequest is the POST /api/crawl request body. Zero limits fall back to
// the configured crawler defaults.
type CrawlRequest struct {
	URL            string `json:"url"`
	MaxDepth       int    `json:"max_depth,omitempty"`
	MaxPages       int    `json:"max_pages,omitempty"`
	MaxConcurrency int    `json:"max_concurrency,omitempty"`
}

func NewCrawlHandler(jobs *crawler.JobManager, logger arbor.ILogger) *CrawlHandler {
	return &CrawlHandler{
		jobs:   jobs,
		logger: logger,
	}
}

// CrawlHandler handles /api/crawl: POST starts a job, GET lists jobs.
func (h *CrawlHandler) CrawlHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.startCrawl(w, r)
	case http.MethodGet:
		h.listJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// JobHandler handles /api/crawl/{id}: GET returns status, DELETE cancels.
func (h *CrawlHandler) JobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/crawl/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		job := h.jobs.GetJob(jobID)
		if job == nil {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		WriteJSON(w, http.StatusOK, job)
	case http.MethodDelete:
		if err := h.jobs.CancelJob(jobID); err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteSuccess(w, "Job cancelled")
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CrawlHandler) startCrawl(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	normalized := common.NormalizeURL(strings.TrimSpace(req.URL))
	if !common.IsValidURL(normalized) {
		WriteError(w, http.StatusBadRequest, "A valid http or https URL is required")
		return
	}

	// Jobs outlive the request, so they run on a background context and are
	// stopped through CancelJob.
	job, err := h.jobs.StartJob(context.Background(), normalized, models.CrawlOptions{
		MaxDepth:       req.MaxDepth,
		MaxPages:       req.MaxPages,
		MaxConcurrency: req.MaxConcurrency,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("url", normalized).Msg("Failed to start crawl job")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().
		Str("job_id", job.ID).
		Str("url", normalized).
		Msg("Crawl job started")

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"job_id": job.ID,
		"url":    normalized,
	})
}

func (h *CrawlHandler) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.ListJobs()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(jobs),
		"jobs":  jobs,
	})
}
