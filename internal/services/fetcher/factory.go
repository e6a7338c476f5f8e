package fetcher

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// NewFetcher builds the configured page fetcher: headless-browser rendering
// when JavaScript support is enabled, plain HTTP otherwise.
func NewFetcher(config common.CrawlerConfig, logger arbor.ILogger) interfaces.PageFetcher {
	if config.EnableJavaScript {
		logger.Info().Str("fetcher", "chromedp").Msg("Using JavaScript-rendering fetcher")
		return NewChromeFetcher(config, logger)
	}
	logger.Info().Str("fetcher", "http").Msg("Using plain HTTP fetcher")
	return NewHTTPFetcher(config, logger)
}
