package extract

import "context"

// Page holds the extracted text of a single document page.
type Page struct {
	Number int // 1-based page number
	Text   string
}

// Extractor turns raw document bytes into per-page plain text.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract parses the document and returns its pages in order.
	// Returns core.ErrExtraction if the bytes are not a parseable document
	// or contain no extractable text.
	Extract(ctx context.Context, data []byte) ([]Page, error)
}
