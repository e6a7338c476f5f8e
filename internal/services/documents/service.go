package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/ingest"
)

// Service ingests uploaded documents (PDF, HTML, plain text) into the
// knowledge base. Each upload is identified by a file:// source built from
// its filename; re-uploading an already indexed file is skipped.
type Service struct {
	ingest  *ingest.Service
	tempDir string
	logger  arbor.ILogger
}

func NewService(ingestSvc *ingest.Service, logger arbor.ILogger) *Service {
	tempDir := filepath.Join(os.TempDir(), "colligo-docs")
	os.MkdirAll(tempDir, 0755)

	return &Service{
		ingest:  ingestSvc,
		tempDir: tempDir,
		logger:  logger,
	}
}

// IngestUpload routes an uploaded file to the right extractor by extension
// and ingests the result. Returns the source identifier the document was
// stored under, or an empty string when the upload was skipped as a
// duplicate.
func (s *Service) IngestUpload(ctx context.Context, filename string, content []byte) (string, error) {
	source := "file://" + filepath.Base(filename)

	exists, err := s.ingest.IsDuplicate(ctx, source)
	if err != nil {
		return "", fmt.Errorf("duplicate check failed: %w", err)
	}
	if exists {
		s.logger.Info().Str("source", source).Msg("Upload already indexed, skipping")
		return "", nil
	}

	var text, documentType string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = extractPDFText(s.tempDir, content)
		documentType = ingest.DocumentTypePDF
	case ".html", ".htm":
		text, err = htmlToMarkdown(string(content))
		documentType = ingest.DocumentTypeText
	case ".txt", ".md", ".markdown":
		text = string(content)
		documentType = ingest.DocumentTypeText
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", filename, err)
	}

	meta := map[string]interface{}{"source": source}
	if strings.ToLower(filepath.Ext(filename)) == ".html" || strings.ToLower(filepath.Ext(filename)) == ".htm" {
		meta = ingest.ExtractMetadata(string(content), source)
	}

	doc := &models.Document{
		Title:    filepath.Base(filename),
		Content:  text,
		MetaData: meta,
	}
	if err := s.ingest.IngestDocument(ctx, doc, documentType); err != nil {
		return "", err
	}
	return source, nil
}

func htmlToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML: %w", err)
	}
	return markdown, nil
}
