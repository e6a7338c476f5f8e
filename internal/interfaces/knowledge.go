package interfaces

import "context"

// Knowledge is the crawler's view of the knowledge base. IsDuplicate suppresses
// re-emission of already indexed pages (their links are still followed);
// OnPageCrawled hands a freshly crawled page to the ingestion pipeline.
type Knowledge interface {
	IsDuplicate(ctx context.Context, normalizedURL string) (bool, error)
	OnPageCrawled(ctx context.Context, normalizedURL, content string) error
}
