package crawler

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls map[string]int
}

func newMockFetcher(pages map[string]string) *mockFetcher {
	return &mockFetcher{
		pages: pages,
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	content, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no such page: %s", url)
	}
	return content, nil
}

func (f *mockFetcher) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type mockKnowledge struct {
	mu         sync.Mutex
	duplicates map[string]bool
	crawled    map[string]string
}

func newMockKnowledge() *mockKnowledge {
	return &mockKnowledge{
		duplicates: make(map[string]bool),
		crawled:    make(map[string]string),
	}
}

func (k *mockKnowledge) IsDuplicate(ctx context.Context, normalizedURL string) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.duplicates[normalizedURL], nil
}

func (k *mockKnowledge) OnPageCrawled(ctx context.Context, normalizedURL, content string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.crawled[normalizedURL] = content
	return nil
}

func (k *mockKnowledge) crawledContent(url string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	content, ok := k.crawled[url]
	return content, ok
}

func testCrawlerConfig() common.CrawlerConfig {
	return common.CrawlerConfig{
		MaxDepth:       2,
		MaxPages:       50,
		MaxConcurrency: 4,
	}
}

func sitePages() map[string]string {
	return map[string]string{
		"https://site.example.com/start": "Root page content. [A](/a) [B](/b)",
		"https://site.example.com/a":     "Page A here. [Root](/start) [C](/c)",
		"https://site.example.com/b":     "Page B text.",
		"https://site.example.com/c":     "Page C text.",
	}
}

func collectResults(t *testing.T, results <-chan models.PageResult) (pages map[string]string, failures map[string]error) {
	t.Helper()
	pages = make(map[string]string)
	failures = make(map[string]error)
	for r := range results {
		if r.Err != nil {
			failures[r.URL] = r.Err
		} else {
			pages[r.URL] = r.Content
		}
	}
	return pages, failures
}

func TestCrawl_EmptyStartURL(t *testing.T) {
	svc := NewService(testCrawlerConfig(), newMockFetcher(nil), newMockKnowledge(), common.GetLogger())
	_, err := svc.Crawl(context.Background(), "", models.CrawlOptions{})
	assert.Error(t, err)
}

func TestCrawl_SinglePage(t *testing.T) {
	fetcher := newMockFetcher(sitePages())
	knowledge := newMockKnowledge()
	svc := NewService(testCrawlerConfig(), fetcher, knowledge, common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/start", models.CrawlOptions{MaxDepth: 1})
	require.NoError(t, err)

	pages, failures := collectResults(t, results)
	assert.Empty(t, failures)
	require.Len(t, pages, 1)
	assert.Equal(t, "Root page content. [A](/a) [B](/b)", pages["https://site.example.com/start"])

	content, ok := knowledge.crawledContent("https://site.example.com/start")
	require.True(t, ok, "page was not handed to the knowledge base")
	assert.Equal(t, pages["https://site.example.com/start"], content)

	// Depth 1 means no link fan-out.
	assert.Zero(t, fetcher.fetchCount("https://site.example.com/a"))
	assert.Zero(t, fetcher.fetchCount("https://site.example.com/b"))
}

func TestCrawl_DepthBound(t *testing.T) {
	fetcher := newMockFetcher(sitePages())
	svc := NewService(testCrawlerConfig(), fetcher, newMockKnowledge(), common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/start", models.CrawlOptions{MaxDepth: 2})
	require.NoError(t, err)

	pages, failures := collectResults(t, results)
	assert.Empty(t, failures)
	assert.Len(t, pages, 3)
	assert.Contains(t, pages, "https://site.example.com/start")
	assert.Contains(t, pages, "https://site.example.com/a")
	assert.Contains(t, pages, "https://site.example.com/b")

	// /c is only reachable at depth 3.
	assert.Zero(t, fetcher.fetchCount("https://site.example.com/c"))
}

func TestCrawl_VisitedOnce(t *testing.T) {
	// /start and /a link to each other; the cycle must not refetch.
	fetcher := newMockFetcher(sitePages())
	svc := NewService(testCrawlerConfig(), fetcher, newMockKnowledge(), common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/start", models.CrawlOptions{MaxDepth: 3})
	require.NoError(t, err)
	collectResults(t, results)

	for url := range sitePages() {
		assert.LessOrEqual(t, fetcher.fetchCount(url), 1, "url fetched more than once: %s", url)
	}
	assert.Equal(t, 1, fetcher.fetchCount("https://site.example.com/start"))
	assert.Equal(t, 1, fetcher.fetchCount("https://site.example.com/a"))
}

func TestCrawl_PageBudget(t *testing.T) {
	fetcher := newMockFetcher(sitePages())
	svc := NewService(testCrawlerConfig(), fetcher, newMockKnowledge(), common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/start", models.CrawlOptions{MaxDepth: 3, MaxPages: 2})
	require.NoError(t, err)

	pages, _ := collectResults(t, results)
	assert.Len(t, pages, 2)
}

func TestCrawl_DuplicateSuppressedButLinksFollowed(t *testing.T) {
	fetcher := newMockFetcher(sitePages())
	knowledge := newMockKnowledge()
	knowledge.duplicates["https://site.example.com/start"] = true
	svc := NewService(testCrawlerConfig(), fetcher, knowledge, common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/start", models.CrawlOptions{MaxDepth: 2})
	require.NoError(t, err)

	pages, failures := collectResults(t, results)
	assert.Empty(t, failures)

	// The duplicate itself is fetched but neither emitted nor ingested.
	assert.Equal(t, 1, fetcher.fetchCount("https://site.example.com/start"))
	assert.NotContains(t, pages, "https://site.example.com/start")
	_, ingested := knowledge.crawledContent("https://site.example.com/start")
	assert.False(t, ingested)

	// Its links are still discovered and crawled.
	assert.Contains(t, pages, "https://site.example.com/a")
	assert.Contains(t, pages, "https://site.example.com/b")
}

func TestCrawl_FetchFailureEmitsErrorResult(t *testing.T) {
	pages := sitePages()
	pages["https://site.example.com/start"] = "Broken link ahead. [Bad](/bad) [B](/b)"
	fetcher := newMockFetcher(pages)
	fetcher.errs["https://site.example.com/bad"] = fmt.Errorf("connection refused")
	knowledge := newMockKnowledge()
	svc := NewService(testCrawlerConfig(), fetcher, knowledge, common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/start", models.CrawlOptions{MaxDepth: 2})
	require.NoError(t, err)

	okPages, failures := collectResults(t, results)
	require.Contains(t, failures, "https://site.example.com/bad")
	assert.Contains(t, okPages, "https://site.example.com/b")

	_, ingested := knowledge.crawledContent("https://site.example.com/bad")
	assert.False(t, ingested)
}

func TestCrawl_EmptyPageSkipped(t *testing.T) {
	fetcher := newMockFetcher(map[string]string{
		"https://site.example.com/blank": "",
	})
	knowledge := newMockKnowledge()
	svc := NewService(testCrawlerConfig(), fetcher, knowledge, common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/blank", models.CrawlOptions{MaxDepth: 2})
	require.NoError(t, err)

	pages, failures := collectResults(t, results)
	assert.Empty(t, failures)
	assert.Empty(t, pages)

	_, ingested := knowledge.crawledContent("https://site.example.com/blank")
	assert.False(t, ingested)
}

func TestCrawl_EmptyPageDoesNotConsumeBudget(t *testing.T) {
	// The budget covers exactly the two non-empty pages; if the empty
	// page counted, one of them would be dropped.
	fetcher := newMockFetcher(map[string]string{
		"https://site.example.com/start": "Start here. [E](/empty) [B](/b)",
		"https://site.example.com/empty": "",
		"https://site.example.com/b":     "Page B text.",
	})
	svc := NewService(testCrawlerConfig(), fetcher, newMockKnowledge(), common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/start", models.CrawlOptions{MaxDepth: 2, MaxPages: 2})
	require.NoError(t, err)

	pages, failures := collectResults(t, results)
	assert.Empty(t, failures)
	assert.Contains(t, pages, "https://site.example.com/start")
	assert.Contains(t, pages, "https://site.example.com/b")
	assert.NotContains(t, pages, "https://site.example.com/empty")
}

func TestCrawl_LinkAfterTruncationFollowed(t *testing.T) {
	fetcher := newMockFetcher(map[string]string{
		"https://site.example.com/long": "Opening words of a page that runs well past the cutoff before linking. [B](/b)",
		"https://site.example.com/b":    "Page B text.",
	})
	knowledge := newMockKnowledge()
	svc := NewService(testCrawlerConfig(), fetcher, knowledge, common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/long", models.CrawlOptions{MaxDepth: 2, MaxLength: 40})
	require.NoError(t, err)

	pages, failures := collectResults(t, results)
	assert.Empty(t, failures)

	// The emitted content is truncated, but the link beyond the cutoff is
	// still followed.
	assert.Equal(t, 1, fetcher.fetchCount("https://site.example.com/b"))
	assert.Contains(t, pages, "https://site.example.com/b")
	assert.LessOrEqual(t, len(pages["https://site.example.com/long"]), 40)
	assert.NotContains(t, pages["https://site.example.com/long"], "[B](/b)")
}

func TestCrawl_WhitespaceCollapsedAndTruncated(t *testing.T) {
	fetcher := newMockFetcher(map[string]string{
		"https://site.example.com/messy": "lots   of \n\n whitespace   in here and more trailing words",
	})
	svc := NewService(testCrawlerConfig(), fetcher, newMockKnowledge(), common.GetLogger())

	results, err := svc.Crawl(context.Background(), "https://site.example.com/messy", models.CrawlOptions{MaxDepth: 1, MaxLength: 25})
	require.NoError(t, err)

	pages, _ := collectResults(t, results)
	content := pages["https://site.example.com/messy"]
	assert.Equal(t, "lots of whitespace in", content)
}
