package ingestion

import "errors"

var (
	// ErrDocumentsRequired indicates a nil document repository.
	ErrDocumentsRequired = errors.New("document repository is required")

	// ErrObjectsRequired indicates a nil object store.
	ErrObjectsRequired = errors.New("object store is required")

	// ErrExtractorRequired indicates a nil extractor.
	ErrExtractorRequired = errors.New("extractor is required")

	// ErrEmbedderRequired indicates a nil embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrIndexerRequired indicates a nil dual indexer.
	ErrIndexerRequired = errors.New("indexer is required")

	// ErrOrchestratorRequired indicates a nil orchestrator.
	ErrOrchestratorRequired = errors.New("orchestrator is required")

	// ErrQueueRequired indicates a nil job queue.
	ErrQueueRequired = errors.New("queue is required")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
