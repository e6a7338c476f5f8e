package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// JobManager runs crawls in the background and tracks their progress so the
// HTTP surface can report and cancel them.
type JobManager struct {
	service *Service
	logger  arbor.ILogger

	mu      sync.RWMutex
	jobs    map[string]*models.CrawlJob
	cancels map[string]context.CancelFunc
}

func NewJobManager(service *Service, logger arbor.ILogger) *JobManager {
	return &JobManager{
		service: service,
		logger:  logger,
		jobs:    make(map[string]*models.CrawlJob),
		cancels: make(map[string]context.CancelFunc),
	}
}

// StartJob launches a crawl in the background and returns its job record.
func (m *JobManager) StartJob(ctx context.Context, startURL string, opts models.CrawlOptions) (*models.CrawlJob, error) {
	jobCtx, cancel := context.WithCancel(ctx)

	results, err := m.service.Crawl(jobCtx, startURL, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	job := &models.CrawlJob{
		ID:        common.NewID(),
		StartURL:  startURL,
		Status:    models.CrawlJobRunning,
		StartedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.cancels[job.ID] = cancel
	m.mu.Unlock()

	go m.consume(jobCtx, job.ID, results)

	m.logger.Info().Str("job_id", job.ID).Str("start_url", startURL).Msg("Crawl job started")
	return m.snapshot(job.ID), nil
}

// consume drains the crawl's result stream, updating job counters as pages
// arrive, and records the terminal status.
func (m *JobManager) consume(ctx context.Context, jobID string, results <-chan models.PageResult) {
	defer func() {
		m.mu.Lock()
		if cancel, ok := m.cancels[jobID]; ok {
			cancel()
			delete(m.cancels, jobID)
		}
		m.mu.Unlock()
	}()

	for result := range results {
		m.mu.Lock()
		job := m.jobs[jobID]
		if result.Err != nil {
			job.PagesFailed++
		} else {
			job.PagesEmitted++
		}
		m.mu.Unlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[jobID]
	now := time.Now().UTC()
	job.CompletedAt = &now
	if ctx.Err() != nil && job.Status == models.CrawlJobRunning {
		job.Status = models.CrawlJobCancelled
		job.Error = ctx.Err().Error()
	} else if job.Status == models.CrawlJobRunning {
		job.Status = models.CrawlJobCompleted
	}
	m.logger.Info().
		Str("job_id", jobID).
		Str("status", job.Status).
		Int("pages", job.PagesEmitted).
		Int("failed", job.PagesFailed).
		Msg("Crawl job finished")
}

// CancelJob cancels a running job. Completed jobs cannot be cancelled.
func (m *JobManager) CancelJob(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancel, ok := m.cancels[jobID]
	if !ok {
		return fmt.Errorf("job %s is not running", jobID)
	}
	m.jobs[jobID].Status = models.CrawlJobCancelled
	cancel()
	return nil
}

// GetJob returns a copy of the job record, or nil if unknown.
func (m *JobManager) GetJob(jobID string) *models.CrawlJob {
	return m.snapshot(jobID)
}

// ListJobs returns copies of all job records.
func (m *JobManager) ListJobs() []*models.CrawlJob {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*models.CrawlJob, 0, len(m.jobs))
	for id := range m.jobs {
		j := *m.jobs[id]
		jobs = append(jobs, &j)
	}
	return jobs
}

func (m *JobManager) snapshot(jobID string) *models.CrawlJob {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil
	}
	j := *job
	return &j
}
