package interfaces

import "context"

// PageFetcher renders a URL and returns its textual content as markdown.
// Implementations must bypass any fetch-level cache: a crawl always wants the
// current render. An empty string with a nil error is a successful fetch of an
// empty page and is distinct from a failure.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
