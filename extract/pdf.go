package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/tmc/langchaingo/documentloaders"
)

// PDFExtractor implements Extractor for PDF files.
type PDFExtractor struct {
	logger *slog.Logger
}

var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{
		logger: slog.Default().With("component", "pdf-extractor"),
	}
}

// Extract parses PDF bytes into per-page text. A file that cannot be
// parsed, has no pages, or yields no extractable text at all fails with
// core.ErrExtraction; extraction errors are terminal and never retried.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) ([]Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", core.ErrExtraction)
	}

	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	docs, err := loader.Load(ctx)
	if err != nil {
		e.logger.Error("failed to parse PDF", "bytes", len(data), "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", core.ErrExtraction)
	}

	pages := make([]Page, 0, len(docs))
	empty := true
	for i, doc := range docs {
		number := i + 1
		if p, ok := doc.Metadata["page"].(int); ok && p > 0 {
			number = p
		}
		text := doc.PageContent
		if strings.TrimSpace(text) != "" {
			empty = false
		}
		pages = append(pages, Page{Number: number, Text: text})
	}

	if empty {
		// Scanned PDFs with no text layer end up here.
		return nil, fmt.Errorf("%w: no extractable text", core.ErrExtraction)
	}

	e.logger.Debug("extracted text from PDF", "pages", len(pages))
	return pages, nil
}
