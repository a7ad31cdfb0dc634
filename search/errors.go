package search

import "errors"

var (
	// ErrDocumentsRequired indicates a nil document repository.
	ErrDocumentsRequired = errors.New("document repository is required")

	// ErrEmbedderRequired indicates a nil embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrVectorIndexRequired indicates a nil vector index.
	ErrVectorIndexRequired = errors.New("vector index is required")

	// ErrKeywordIndexRequired indicates a nil keyword index.
	ErrKeywordIndexRequired = errors.New("keyword index is required")

	// ErrAllSourcesFailed is returned when both retrieval sources fail;
	// a single failing source only degrades the result set.
	ErrAllSourcesFailed = errors.New("all retrieval sources failed")
)
