package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
)

// HTTPFetcher fetches pages with a plain HTTP client, for deployments where
// a headless browser is unavailable or JavaScript rendering is disabled.
// Requests carry no-cache headers so intermediaries serve current content.
type HTTPFetcher struct {
	client  *http.Client
	config  common.CrawlerConfig
	limiter *domainLimiter
	logger  arbor.ILogger
}

func NewHTTPFetcher(config common.CrawlerConfig, logger arbor.ILogger) *HTTPFetcher {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		config:  config,
		limiter: newDomainLimiter(config.RequestsPerSecond),
		logger:  logger,
	}
}

// Fetch retrieves the URL and returns its content as markdown. Non-HTML
// text responses pass through unconverted.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch of %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") || strings.Contains(contentType, "application/xhtml") {
		return htmlToMarkdown(string(body), url)
	}
	if strings.HasPrefix(contentType, "text/") {
		return string(body), nil
	}
	return "", fmt.Errorf("unsupported content type %q at %s", contentType, url)
}
