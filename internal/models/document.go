package models

import "time"

// Document is the unit of ingestion: a titled block of text plus metadata.
// MetaData always carries "source" (canonical URL or file reference); the
// ingest pipeline adds "document_type" before chunking.
type Document struct {
	Title    string                 `json:"title"`
	Content  string                 `json:"content"`
	MetaData map[string]interface{} `json:"meta_data"`
}

// Source returns the canonical origin identifier from metadata.
func (d *Document) Source() string {
	if d.MetaData == nil {
		return ""
	}
	if s, ok := d.MetaData["source"].(string); ok {
		return s
	}
	return ""
}

// Chunk is a byte-bounded, sentence-aligned slice of a document, individually
// embedded and persisted. The ID is deterministic over (source hash, content
// hash, ordinal) so re-ingesting unchanged content rewrites the same rows.
type Chunk struct {
	ID                string                 `json:"id" badgerhold:"key"`
	Source            string                 `json:"source" badgerholdIndex:"Source"`
	ParentContentHash string                 `json:"parent_content_hash"`
	Ordinal           int                    `json:"ordinal"`
	Text              string                 `json:"text"`
	MetaData          map[string]interface{} `json:"meta_data"`
	Embedding         []float32              `json:"embedding,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// SearchResult pairs a chunk with its similarity score for a query embedding.
type SearchResult struct {
	Chunk      *Chunk  `json:"chunk"`
	Similarity float32 `json:"similarity"`
}
