// -----------------------------------------------------------------------
// App - dependency wiring for all services and handlers
// -----------------------------------------------------------------------

package app

import (
	"fmt"
	"io"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/handlers"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/chat"
	"github.com/ternarybob/colligo/internal/services/crawler"
	"github.com/ternarybob/colligo/internal/services/documents"
	"github.com/ternarybob/colligo/internal/services/fetcher"
	"github.com/ternarybob/colligo/internal/services/ingest"
	"github.com/ternarybob/colligo/internal/services/llm"
	"github.com/ternarybob/colligo/internal/services/scheduler"
	"github.com/ternarybob/colligo/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	EmbeddingService interfaces.EmbeddingService
	LLMService       interfaces.ChatService
	IngestService    *ingest.Service
	DocumentService  *documents.Service
	Fetcher          interfaces.PageFetcher
	CrawlerService   *crawler.Service
	JobManager       *crawler.JobManager
	ChatService      *chat.Service
	SchedulerService *scheduler.Service

	// HTTP handlers
	ChatHandler     *handlers.ChatHandler
	CrawlHandler    *handlers.CrawlHandler
	DocumentHandler *handlers.DocumentHandler
	WebhookHandler  *handlers.WebhookHandler
	WSHandler       *handlers.WebSocketHandler
	StatusHandler   *handlers.StatusHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger, cfg.Ingest.EmbeddingDimension)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager
	store := storageManager.VectorStorage()

	app.EmbeddingService, err = llm.NewEmbeddingService(cfg.LLM, cfg.Ingest.EmbeddingDimension, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize embedding service: %w", err)
	}

	app.LLMService, err = llm.NewChatService(cfg.LLM, cfg.Ingest.EmbeddingDimension, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}

	app.IngestService = ingest.NewService(cfg.Ingest, app.EmbeddingService, store, logger)
	app.DocumentService = documents.NewService(app.IngestService, logger)

	app.Fetcher = fetcher.NewFetcher(cfg.Crawler, logger)
	app.CrawlerService = crawler.NewService(cfg.Crawler, app.Fetcher, app.IngestService, logger)
	app.JobManager = crawler.NewJobManager(app.CrawlerService, logger)

	app.ChatService = chat.NewService(cfg.Chat, app.LLMService, app.EmbeddingService, store, logger)

	app.SchedulerService = scheduler.NewService(cfg.Scheduler, app.Fetcher, app.IngestService, store, logger)
	if err := app.SchedulerService.Start(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	app.ChatHandler = handlers.NewChatHandler(app.ChatService, app.LLMService, logger)
	app.CrawlHandler = handlers.NewCrawlHandler(app.JobManager, logger)
	app.DocumentHandler = handlers.NewDocumentHandler(app.DocumentService, store, logger)
	app.WebhookHandler = handlers.NewWebhookHandler(app.ChatService, app.JobManager, cfg.Telegram, logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.ChatService, logger)
	app.StatusHandler = handlers.NewStatusHandler(store, app.LLMService, logger)

	logger.Info().
		Str("provider", cfg.LLM.Provider).
		Str("storage_path", cfg.Storage.Badger.Path).
		Msg("Application initialized")

	return app, nil
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}
	if closer, ok := a.Fetcher.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close fetcher")
		}
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close chat provider")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
