// -----------------------------------------------------------------------
// Crawler Service - bounded concurrent recursive crawl
// -----------------------------------------------------------------------

package crawler

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Service runs recursive crawls: a fixed worker pool consumes a shared
// frontier queue, fetches pages, streams results to the caller, hands fresh
// pages to the knowledge base, and feeds discovered links back into the
// frontier until depth and page budgets are exhausted.
type Service struct {
	fetcher   interfaces.PageFetcher
	knowledge interfaces.Knowledge
	extractor *LinkExtractor
	config    common.CrawlerConfig
	logger    arbor.ILogger
}

func NewService(config common.CrawlerConfig, fetcher interfaces.PageFetcher, knowledge interfaces.Knowledge, logger arbor.ILogger) *Service {
	return &Service{
		fetcher:   fetcher,
		knowledge: knowledge,
		extractor: NewLinkExtractor(logger),
		config:    config,
		logger:    logger,
	}
}

// Crawl starts a crawl at startURL and returns a channel of page results.
// The channel is closed when the frontier drains or the context is
// cancelled. Pages arrive in completion order; callers must not assume
// breadth-first or depth-first ordering.
func (s *Service) Crawl(ctx context.Context, startURL string, opts models.CrawlOptions) (<-chan models.PageResult, error) {
	if startURL == "" {
		return nil, fmt.Errorf("start URL is empty")
	}
	opts = s.withDefaults(opts)

	sess := newSession(opts.MaxPages)
	queue := newTaskQueue()
	results := make(chan models.PageResult, opts.MaxConcurrency)

	// The start page is depth 1; MaxDepth counts levels including it.
	queue.Push(&crawlTask{url: startURL, depth: 1})

	var workers sync.WaitGroup
	for i := 0; i < opts.MaxConcurrency; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for {
				task, err := queue.Pop(ctx)
				if err != nil || task == nil {
					return
				}
				s.processTask(ctx, task, opts, sess, queue, results)
				queue.Done()
			}
		}()
	}

	go func() {
		workers.Wait()
		queue.Close()
		close(results)
		s.logger.Info().
			Str("start_url", startURL).
			Int("pages_emitted", sess.emitted()).
			Msg("Crawl finished")
	}()

	return results, nil
}

func (s *Service) withDefaults(opts models.CrawlOptions) models.CrawlOptions {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = s.config.MaxDepth
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = s.config.MaxPages
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = s.config.MaxConcurrency
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = s.config.MaxContentLength
	}
	return opts
}

// processTask runs one URL through the crawl state machine: bounds check,
// visited check, duplicate query, fetch, emit, ingest, link fan-out.
func (s *Service) processTask(ctx context.Context, task *crawlTask, opts models.CrawlOptions, sess *session, queue *taskQueue, results chan<- models.PageResult) {
	if task.depth > opts.MaxDepth || sess.limitReached() {
		return
	}

	normalized := common.NormalizeURL(task.url)
	if !sess.markVisited(normalized) {
		return
	}

	// Duplicates are still fetched so their outbound links are discovered;
	// only emission and ingestion are suppressed.
	duplicate, err := s.knowledge.IsDuplicate(ctx, normalized)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", normalized).Msg("Duplicate check failed, treating as new")
		duplicate = false
	}

	raw, err := s.fetcher.Fetch(ctx, normalized)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", normalized).Int("depth", task.depth).Msg("Fetch failed")
		select {
		case results <- models.PageResult{URL: normalized, Err: err}:
		case <-ctx.Done():
		}
		return
	}

	// Pages that render to nothing are not emitted, not ingested, and do
	// not count against the page budget.
	if raw == "" {
		s.logger.Debug().Str("url", normalized).Int("depth", task.depth).Msg("Empty page skipped")
		return
	}

	content := CollapseWhitespace(raw)
	if opts.MaxLength > 0 {
		content = Truncate(content, opts.MaxLength)
	}

	if !duplicate {
		if !sess.tryEmit() {
			return
		}

		// Emit before the ingestion side-effect so the caller observes the
		// page first.
		select {
		case results <- models.PageResult{URL: normalized, Content: content}:
		case <-ctx.Done():
			return
		}

		if err := s.knowledge.OnPageCrawled(ctx, normalized, content); err != nil {
			s.logger.Warn().Err(err).Str("url", normalized).Msg("Page ingestion failed")
		}
	}

	if task.depth >= opts.MaxDepth {
		return
	}

	// Links come from the raw markdown. Truncation applies only to the
	// emitted content, so links past the cutoff are still discovered.
	for _, link := range s.extractor.ExtractLinks(raw, normalized) {
		queue.Push(&crawlTask{url: link, depth: task.depth + 1})
	}
}
