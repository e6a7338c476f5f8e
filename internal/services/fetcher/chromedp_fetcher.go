// -----------------------------------------------------------------------
// ChromeDP Fetcher - JavaScript-rendered page fetching
// -----------------------------------------------------------------------

package fetcher

import (
	"context"
	"fmt"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
)

// ChromeFetcher renders pages in a headless browser so JavaScript-built
// content is visible to the crawl, then converts the rendered HTML to
// markdown. The browser cache is disabled on every fetch: a crawl must see
// the page as it currently is.
type ChromeFetcher struct {
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	config          common.CrawlerConfig
	limiter         *domainLimiter
	logger          arbor.ILogger
}

func NewChromeFetcher(config common.CrawlerConfig, logger arbor.ILogger) *ChromeFetcher {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(config.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)

	return &ChromeFetcher{
		allocatorCtx:    allocatorCtx,
		allocatorCancel: allocatorCancel,
		config:          config,
		limiter:         newDomainLimiter(config.RequestsPerSecond),
		logger:          logger,
	}
}

// Fetch renders the URL and returns its content as markdown.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return "", err
	}

	browserCtx, browserCancel := chromedp.NewContext(f.allocatorCtx)
	defer browserCancel()

	timeout := f.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, runCancel := context.WithTimeout(browserCtx, timeout)
	defer runCancel()

	// Propagate caller cancellation into the browser run.
	stop := context.AfterFunc(ctx, runCancel)
	defer stop()

	waitTime := f.config.JavaScriptWaitTime
	if waitTime <= 0 {
		waitTime = 2 * time.Second
	}

	start := time.Now()
	var htmlContent string
	err := chromedp.Run(runCtx,
		network.Enable(),
		network.SetCacheDisabled(true),
		chromedp.Navigate(url),
		chromedp.Sleep(waitTime), // Wait for JavaScript to render
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}

	markdown, err := htmlToMarkdown(htmlContent, url)
	if err != nil {
		return "", err
	}

	f.logger.Debug().
		Str("url", url).
		Int("content_length", len(markdown)).
		Dur("duration", time.Since(start)).
		Msg("Page rendered")

	return markdown, nil
}

// Close shuts down the browser allocator.
func (f *ChromeFetcher) Close() error {
	f.allocatorCancel()
	return nil
}

// htmlToMarkdown converts rendered HTML to markdown, resolving relative
// links against the page URL.
func htmlToMarkdown(html, pageURL string) (string, error) {
	converter := md.NewConverter(pageURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert page to markdown: %w", err)
	}
	return markdown, nil
}
