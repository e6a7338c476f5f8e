// -----------------------------------------------------------------------
// Scheduler Service - periodic re-index sweep over stored URL sources
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/crawler"
	"github.com/ternarybob/colligo/internal/services/ingest"
)

// Service re-fetches indexed URL sources on a cron schedule so stored content
// tracks the live pages. Unchanged pages re-upsert to the same chunk IDs;
// changed pages write fresh chunks. Chunks orphaned by content drift are left
// in place.
type Service struct {
	config       common.SchedulerConfig
	fetcher      interfaces.PageFetcher
	ingest       *ingest.Service
	store        interfaces.VectorStorage
	cron         *cron.Cron
	logger       arbor.ILogger
	mu           sync.Mutex
	isProcessing bool
	running      bool
}

func NewService(config common.SchedulerConfig, fetcher interfaces.PageFetcher, ingestSvc *ingest.Service, store interfaces.VectorStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		fetcher: fetcher,
		ingest:  ingestSvc,
		store:   store,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the sweep with the cron runner. A disabled scheduler is a
// no-op so callers can wire it unconditionally.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduler disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.runSweep); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Msg("Scheduler started")
	return nil
}

// Stop halts the cron runner. A sweep already in flight finishes.
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// TriggerNow runs the sweep immediately in the background.
func (s *Service) TriggerNow() error {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		return fmt.Errorf("re-index sweep already in progress")
	}
	s.mu.Unlock()

	go s.runSweep()
	return nil
}

func (s *Service) runSweep() {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Warn().Msg("Skipping re-index sweep, previous sweep still running")
		return
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	ctx := context.Background()

	sources, err := s.store.ListSources(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Re-index sweep failed to list sources")
		return
	}

	refreshed := 0
	failed := 0
	for _, source := range sources {
		if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
			continue
		}

		if err := s.refreshSource(ctx, source); err != nil {
			failed++
			s.logger.Warn().Err(err).Str("source", source).Msg("Failed to refresh source")
			continue
		}
		refreshed++
	}

	s.logger.Info().
		Int("refreshed", refreshed).
		Int("failed", failed).
		Int("sources", len(sources)).
		Msg("Re-index sweep complete")
}

// refreshSource re-fetches a single page and pushes it back through ingestion.
func (s *Service) refreshSource(ctx context.Context, source string) error {
	content, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	doc := &models.Document{
		Title:    source,
		Content:  crawler.CollapseWhitespace(content),
		MetaData: map[string]interface{}{"source": source},
	}
	return s.ingest.IngestDocument(ctx, doc, ingest.DocumentTypeWebPage)
}
