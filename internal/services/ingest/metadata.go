package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractMetadata pulls descriptive fields out of an HTML page for storage
// alongside its chunks: the title, meta description, and Open Graph
// description/image. The source identifier is always present; the rest only
// when the page declares them. Unparseable input degrades to source-only.
func ExtractMetadata(htmlContent, source string) map[string]interface{} {
	meta := map[string]interface{}{
		"source": source,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return meta
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta["title"] = title
	}

	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		content, ok := sel.Attr("content")
		if !ok || strings.TrimSpace(content) == "" {
			return
		}
		content = strings.TrimSpace(content)

		if name, _ := sel.Attr("name"); strings.EqualFold(name, "description") {
			meta["description"] = content
		}
		switch prop, _ := sel.Attr("property"); strings.ToLower(prop) {
		case "og:description":
			meta["og_description"] = content
		case "og:image":
			meta["og_image"] = content
		}
	})

	return meta
}
