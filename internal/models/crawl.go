package models

import "time"

// PageResult is the unit yielded by the crawler. A fetch failure is reported
// in-band through Err so one bad page never aborts the crawl.
type PageResult struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Err     error  `json:"-"`
}

// CrawlOptions bounds a single crawl run.
type CrawlOptions struct {
	MaxDepth       int `json:"max_depth"`
	MaxPages       int `json:"max_pages"`
	MaxConcurrency int `json:"max_concurrency"`
	MaxLength      int `json:"max_length"` // 0 = no per-page truncation
}

// CrawlJobStatus values.
const (
	CrawlJobRunning   = "running"
	CrawlJobCompleted = "completed"
	CrawlJobFailed    = "failed"
	CrawlJobCancelled = "cancelled"
)

// CrawlJob tracks an asynchronous crawl started through the API.
type CrawlJob struct {
	ID           string     `json:"id"`
	StartURL     string     `json:"start_url"`
	Status       string     `json:"status"`
	PagesEmitted int        `json:"pages_emitted"`
	PagesFailed  int        `json:"pages_failed"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
