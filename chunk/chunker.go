package chunk

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/extract"
)

// Chunker splits extracted text into fixed-size overlapping token windows.
type Chunker struct {
	size    int
	overlap int
	logger  *slog.Logger
}

// pageBoundary marks the token offset at which a page begins.
type pageBoundary struct {
	startToken int
	page       int
}

// NewChunker creates a chunker with the given window size and overlap,
// both in tokens. The overlap must be strictly less than the size;
// otherwise a window could never advance.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", core.ErrConfig, overlap, size)
	}
	return &Chunker{
		size:    size,
		overlap: overlap,
		logger:  slog.Default().With("component", "chunker"),
	}, nil
}

// Split chunks the text of pages into ordered windows of size tokens,
// advancing size-overlap tokens per step. The final chunk may be shorter.
// Each chunk records the page number of its first token. Empty input
// produces zero chunks; the caller decides whether that is a failure.
func (c *Chunker) Split(documentID core.ID, pages []extract.Page) []*core.Chunk {
	var tokens []string
	var boundaries []pageBoundary

	for _, page := range pages {
		pageTokens := Tokenize(page.Text)
		if len(pageTokens) == 0 {
			continue
		}
		boundaries = append(boundaries, pageBoundary{startToken: len(tokens), page: page.Number})
		tokens = append(tokens, pageTokens...)
	}

	if len(tokens) == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]*core.Chunk, 0, 1+(len(tokens)-1)/step)

	for start, seq := 0, 0; start < len(tokens); start, seq = start+step, seq+1 {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}

		window := tokens[start:end]
		chunks = append(chunks, &core.Chunk{
			DocumentId:    documentID,
			SequenceIndex: seq,
			Text:          Join(window),
			PageNumber:    pageAt(boundaries, start),
			TokenCount:    len(window),
		})

		if end == len(tokens) {
			break
		}
	}

	c.logger.Debug("split document into chunks",
		"documentID", documentID, "tokens", len(tokens), "chunks", len(chunks))
	return chunks
}

// pageAt returns the page number owning the token at the given offset.
// Boundaries are sorted by start token, so the owning page is the last
// boundary at or before the offset.
func pageAt(boundaries []pageBoundary, tokenOffset int) int {
	if len(boundaries) == 0 {
		return 0
	}
	i := sort.Search(len(boundaries), func(i int) bool {
		return boundaries[i].startToken > tokenOffset
	})
	return boundaries[i-1].page
}
