// Copyright 2025 The Research Platform Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TamilselvanRaman/Research-Platform/ai"
	"github.com/TamilselvanRaman/Research-Platform/chunk"
	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/extract"
	"github.com/TamilselvanRaman/Research-Platform/index"
	"github.com/TamilselvanRaman/Research-Platform/storage"
)

// Orchestrator runs the ingestion pipeline for one document at a time:
// claim via status transition, fetch stored bytes, extract, chunk,
// embed, persist chunks, and write both indexes. It is safe to call
// Process concurrently for the same document: the status transition is
// atomic, so exactly one caller proceeds and the others exit without
// side effects.
type Orchestrator struct {
	documents storage.DocumentRepository
	objects   storage.ObjectStore
	extractor extract.Extractor
	chunker   *chunk.Chunker
	embedder  ai.Embedder
	indexer   *index.Dual
	config    core.Config
	logger    *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an ingestion orchestrator.
func NewOrchestrator(
	documents storage.DocumentRepository,
	objects storage.ObjectStore,
	extractor extract.Extractor,
	embedder ai.Embedder,
	indexer *index.Dual,
	config core.Config,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	if documents == nil {
		return nil, ErrDocumentsRequired
	}
	if objects == nil {
		return nil, ErrObjectsRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	chunker, err := chunk.NewChunker(config.ChunkSize, config.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		documents: documents,
		objects:   objects,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		indexer:   indexer,
		config:    config,
		logger:    slog.Default().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Process runs the full pipeline for a document. It claims the document
// by atomically transitioning its status to processing; if another
// worker already holds it, Process returns nil without side effects.
// Reprocessing a failed or completed document first removes its previous
// chunks from both indexes and the relational store, so a document never
// owns more than one chunk set.
func (o *Orchestrator) Process(ctx context.Context, documentID core.ID) error {
	doc, err := o.documents.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			o.logger.Debug("document no longer exists, skipping", "documentID", documentID)
			return nil
		}
		return fmt.Errorf("%w: loading document %d: %v", core.ErrStorage, documentID, err)
	}

	if doc.Status == core.StatusProcessing {
		return nil
	}

	claimed, err := o.documents.TransitionStatus(ctx, documentID, doc.Status, core.StatusProcessing)
	if err != nil {
		return fmt.Errorf("%w: claiming document %d: %v", core.ErrStorage, documentID, err)
	}
	if !claimed {
		o.logger.Debug("document claimed by another worker", "documentID", documentID)
		return nil
	}

	started := time.Now()
	o.logger.Info("processing document",
		"documentID", documentID, "filename", doc.OriginalFilename, "previousStatus", doc.Status)

	result, err := o.run(ctx, doc)
	if err != nil {
		if errors.Is(err, core.ErrCancelled) {
			o.logger.Info("processing aborted, document deleted", "documentID", documentID)
			return nil
		}
		o.logger.Error("processing failed", "documentID", documentID, "error", err)
		if markErr := o.documents.MarkFailed(ctx, documentID, err.Error()); markErr != nil {
			o.logger.Error("failed to record failure", "documentID", documentID, "error", markErr)
		}
		return err
	}

	result.ProcessingTime = time.Since(started).Milliseconds()
	if err := o.documents.MarkCompleted(ctx, documentID, result); err != nil {
		return fmt.Errorf("%w: recording completion of document %d: %v", core.ErrStorage, documentID, err)
	}

	o.logger.Info("document processed",
		"documentID", documentID, "chunks", result.ChunkCount,
		"pages", result.PageCount, "tookMS", result.ProcessingTime)
	return nil
}

// run executes the pipeline stages for a claimed document.
func (o *Orchestrator) run(ctx context.Context, doc *core.Document) (*storage.CompletionResult, error) {
	// A reprocessed document must not accumulate index entries or chunk
	// rows from the previous run.
	if doc.Status != core.StatusPending {
		if err := o.cleanup(ctx, doc.Id); err != nil {
			return nil, err
		}
	}

	if err := o.checkAlive(ctx, doc.Id); err != nil {
		return nil, err
	}

	var data []byte
	err := o.retry(ctx, func() error {
		var getErr error
		data, getErr = o.objects.Get(ctx, doc.StorageKey)
		if getErr != nil {
			return fmt.Errorf("%w: fetching object %s: %v", core.ErrStorage, doc.StorageKey, getErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pages, err := o.extractor.Extract(ctx, data)
	if err != nil {
		return nil, err
	}

	if err := o.checkAlive(ctx, doc.Id); err != nil {
		return nil, err
	}

	chunks := o.chunker.Split(doc.Id, pages)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document contains no extractable text", core.ErrExtraction)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float32
	err = o.retry(ctx, func() error {
		var embedErr error
		vectors, embedErr = o.embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", core.ErrEmbedding, len(vectors), len(chunks))
	}
	for i, c := range chunks {
		if len(vectors[i]) != o.config.EmbeddingDimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d",
				core.ErrEmbedding, i, len(vectors[i]), o.config.EmbeddingDimension)
		}
		c.Embedding = vectors[i]
	}

	if err := o.checkAlive(ctx, doc.Id); err != nil {
		return nil, err
	}

	err = o.retry(ctx, func() error {
		if replaceErr := o.documents.ReplaceChunks(ctx, doc.Id, chunks); replaceErr != nil {
			return fmt.Errorf("%w: persisting chunks of document %d: %v", core.ErrStorage, doc.Id, replaceErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := indexEntries(doc, chunks)
	err = o.retry(ctx, func() error {
		return o.indexer.Index(ctx, entries)
	})
	if err != nil {
		return nil, err
	}

	return &storage.CompletionResult{
		ChunkCount: len(chunks),
		PageCount:  len(pages),
	}, nil
}

// cleanup removes every trace of a previous run: index entries in both
// stores and chunk rows. All steps are idempotent.
func (o *Orchestrator) cleanup(ctx context.Context, documentID core.ID) error {
	if err := o.indexer.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("%w: clearing indexes of document %d: %v", core.ErrIndexWrite, documentID, err)
	}
	if err := o.documents.DeleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("%w: clearing chunks of document %d: %v", core.ErrStorage, documentID, err)
	}
	return nil
}

// checkAlive verifies the document still exists between stages. When it
// was deleted mid-flight, any partial index writes are rolled back and
// processing aborts cleanly.
func (o *Orchestrator) checkAlive(ctx context.Context, documentID core.ID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrCancelled, err)
	}

	_, err := o.documents.GetDocument(ctx, documentID)
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		if delErr := o.indexer.Delete(ctx, documentID); delErr != nil {
			o.logger.Warn("rollback after mid-flight delete failed",
				"documentID", documentID, "error", delErr)
		}
		return core.ErrCancelled
	}
	return fmt.Errorf("%w: checking document %d: %v", core.ErrStorage, documentID, err)
}

func (o *Orchestrator) retry(ctx context.Context, operation func() error) error {
	return RetryWithBackoff(ctx, operation, o.config.RetryMaxAttempts, o.config.RetryBaseDelay)
}

// indexEntries builds the dual-index entries for a document's chunks.
func indexEntries(doc *core.Document, chunks []*core.Chunk) []index.Entry {
	entries := make([]index.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = index.Entry{
			ChunkKey: c.Key(),
			Text:     c.Text,
			Vector:   c.Embedding,
			Metadata: index.Metadata{
				DocumentId:    doc.Id,
				SequenceIndex: c.SequenceIndex,
				PageNumber:    c.PageNumber,
				Title:         doc.Title,
				Company:       doc.Company,
				DocumentType:  doc.DocumentType,
				DocumentDate:  doc.DocumentDate,
			},
		}
	}
	return entries
}
