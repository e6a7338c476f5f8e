package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMetadata(t *testing.T) {
	html := `<html><head>
		<title> Example Page </title>
		<meta name="description" content="A page about examples">
		<meta property="og:description" content="Social description">
		<meta property="og:image" content="https://example.com/img.png">
	</head><body><p>body</p></body></html>`

	meta := ExtractMetadata(html, "https://example.com/page")

	assert.Equal(t, "https://example.com/page", meta["source"])
	assert.Equal(t, "Example Page", meta["title"])
	assert.Equal(t, "A page about examples", meta["description"])
	assert.Equal(t, "Social description", meta["og_description"])
	assert.Equal(t, "https://example.com/img.png", meta["og_image"])
}

func TestExtractMetadata_MissingFields(t *testing.T) {
	meta := ExtractMetadata("<html><body>nothing declared</body></html>", "https://example.com/bare")

	assert.Equal(t, "https://example.com/bare", meta["source"])
	assert.NotContains(t, meta, "title")
	assert.NotContains(t, meta, "description")
	assert.NotContains(t, meta, "og_description")
	assert.NotContains(t, meta, "og_image")
}
