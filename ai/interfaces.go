package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use and
// stable: identical input text always yields an identical vector.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. A mid-batch provider failure fails the whole call; the
	// caller never receives a mix of embedded and missing vectors.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
