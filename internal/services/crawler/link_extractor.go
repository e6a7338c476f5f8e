// -----------------------------------------------------------------------
// Link Extractor - outbound link discovery from rendered page content
// -----------------------------------------------------------------------

package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"

	"github.com/ternarybob/colligo/internal/common"
)

// LinkExtractor discovers outbound links in crawled page content. Pages
// arrive as markdown (the fetcher's rendering format), so the content is
// converted back to HTML before anchor extraction.
type LinkExtractor struct {
	logger arbor.ILogger
}

func NewLinkExtractor(logger arbor.ILogger) *LinkExtractor {
	return &LinkExtractor{logger: logger}
}

// ExtractLinks returns the normalized, deduplicated http(s) links found in
// the content, with relative hrefs resolved against pageURL.
func (le *LinkExtractor) ExtractLinks(content, pageURL string) []string {
	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &htmlBuf); err != nil {
		le.logger.Warn().Err(err).Str("page_url", pageURL).Msg("Failed to render content for link extraction")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(&htmlBuf)
	if err != nil {
		le.logger.Warn().Err(err).Str("page_url", pageURL).Msg("Failed to parse rendered content")
		return nil
	}

	baseURL, err := url.Parse(pageURL)
	if err != nil {
		le.logger.Warn().Err(err).Str("page_url", pageURL).Msg("Failed to parse page URL for link resolution")
		baseURL = nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || shouldSkipLink(href) {
			return
		}

		resolved := resolveLink(href, baseURL)
		if resolved == "" {
			return
		}

		normalized := common.NormalizeURL(resolved)
		if !common.IsValidURL(normalized) {
			return
		}

		if !seen[normalized] {
			seen[normalized] = true
			links = append(links, normalized)
		}
	})

	le.logger.Debug().
		Str("page_url", pageURL).
		Int("links_found", len(links)).
		Msg("Links extracted from page content")

	return links
}

// shouldSkipLink filters hrefs that can never be crawlable pages.
func shouldSkipLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "sms:", "ftp:", "data:"} {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}

// resolveLink resolves a possibly relative href against the page URL and
// keeps only http(s) results.
func resolveLink(href string, baseURL *url.URL) string {
	var resolved *url.URL
	var err error

	if baseURL != nil {
		resolved, err = baseURL.Parse(href)
	} else {
		resolved, err = url.Parse(href)
	}
	if err != nil {
		return ""
	}

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	resolved.Fragment = ""
	return resolved.String()
}
