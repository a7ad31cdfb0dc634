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


package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/TamilselvanRaman/Research-Platform/ai"
	"github.com/TamilselvanRaman/Research-Platform/ai/openai"
	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/extract"
	"github.com/TamilselvanRaman/Research-Platform/index"
	"github.com/TamilselvanRaman/Research-Platform/index/fts"
	"github.com/TamilselvanRaman/Research-Platform/index/memory"
	"github.com/TamilselvanRaman/Research-Platform/index/qdrant"
	"github.com/TamilselvanRaman/Research-Platform/ingestion"
	"github.com/TamilselvanRaman/Research-Platform/queue"
	"github.com/TamilselvanRaman/Research-Platform/search"
	"github.com/TamilselvanRaman/Research-Platform/storage"
	"github.com/TamilselvanRaman/Research-Platform/storage/badger"
	"github.com/TamilselvanRaman/Research-Platform/storage/sqlite"
)

// Platform wires the document store, object store, job queue, indexes,
// ingestion orchestrator, and search engine into one unit over a data
// directory.
type Platform struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	objects   storage.ObjectStore
	vector    index.VectorIndex
	keyword   *fts.Index
	indexer   *index.Dual
	embedder  ai.Embedder
	jobs      *queue.Queue
	orch      *ingestion.Orchestrator
	engine    *search.Engine
	config    core.Config
	logger    *slog.Logger
}

// PlatformOption configures a Platform.
type PlatformOption func(*platformOptions)

type platformOptions struct {
	aiConfig *ai.Config
	config   *core.Config
	qdrant   *qdrant.Config
	embedder ai.Embedder
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(cfg *ai.Config) PlatformOption {
	return func(o *platformOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithConfig sets the pipeline and search parameters.
func WithConfig(cfg *core.Config) PlatformOption {
	return func(o *platformOptions) {
		if cfg != nil {
			o.config = cfg
		}
	}
}

// WithQdrant stores vectors in a Qdrant collection instead of the
// default in-process index.
func WithQdrant(cfg qdrant.Config) PlatformOption {
	return func(o *platformOptions) {
		o.qdrant = &cfg
	}
}

// WithEmbedder overrides the embedding provider. Intended for tests and
// offline setups.
func WithEmbedder(embedder ai.Embedder) PlatformOption {
	return func(o *platformOptions) {
		o.embedder = embedder
	}
}

// New opens a platform over the data directory, creating the stores on
// first use.
func New(dataDir string, opts ...PlatformOption) (*Platform, error) {
	options := &platformOptions{
		aiConfig: ai.DefaultConfig(),
		config:   core.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := options.config.Validate(); err != nil {
		return nil, err
	}

	documents, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "objects"), false)
	if err != nil {
		documents.Close()
		return nil, err
	}
	objects := badger.NewObjectStore(backend)

	keyword, err := fts.NewIndex(dataDir)
	if err != nil {
		backend.Close()
		documents.Close()
		return nil, err
	}

	var vector index.VectorIndex
	if options.qdrant != nil {
		qdrantIndex := qdrant.NewIndex(*options.qdrant)
		if err := qdrantIndex.Init(context.Background(), options.config.EmbeddingDimension); err != nil {
			keyword.Close()
			backend.Close()
			documents.Close()
			return nil, fmt.Errorf("initializing qdrant collection: %w", err)
		}
		vector = qdrantIndex
	} else {
		vector = memory.NewVectorIndex()
	}

	indexer, err := index.NewDual(vector, keyword)
	if err != nil {
		keyword.Close()
		backend.Close()
		documents.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			keyword.Close()
			backend.Close()
			documents.Close()
			return nil, err
		}
	}

	jobs, err := queue.NewQueue(backend)
	if err != nil {
		keyword.Close()
		backend.Close()
		documents.Close()
		return nil, err
	}

	orch, err := ingestion.NewOrchestrator(
		documents, objects, extract.NewPDFExtractor(), embedder, indexer, *options.config)
	if err != nil {
		jobs.Close()
		keyword.Close()
		backend.Close()
		documents.Close()
		return nil, err
	}

	engine, err := search.NewEngine(vector, keyword, documents, embedder, *options.config)
	if err != nil {
		jobs.Close()
		keyword.Close()
		backend.Close()
		documents.Close()
		return nil, err
	}

	return &Platform{
		backend:   backend,
		documents: documents,
		objects:   objects,
		vector:    vector,
		keyword:   keyword,
		indexer:   indexer,
		embedder:  embedder,
		jobs:      jobs,
		orch:      orch,
		engine:    engine,
		config:    *options.config,
		logger:    slog.Default(),
	}, nil
}

// Close releases all resources. Queued jobs stay persisted for the next
// open.
func (p *Platform) Close() error {
	var errs []error
	if err := p.jobs.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.keyword.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.documents.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// UploadOptions carries optional document metadata supplied at upload.
type UploadOptions struct {
	Title        string
	Company      string
	DocumentType string
	DocumentDate time.Time
}

// Upload stores the file bytes, registers a pending document, and
// enqueues it for processing. Processing is asynchronous; poll Status
// for progress. Identical bytes share one stored object.
func (p *Platform) Upload(ctx context.Context, filename, mimeType string, data []byte, opts *UploadOptions) (*core.Document, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}

	key, err := p.objects.Put(ctx, data)
	if err != nil {
		return nil, err
	}

	doc, err := p.documents.CreateDocument(ctx, &core.Document{
		OriginalFilename: filename,
		Title:            opts.Title,
		Company:          opts.Company,
		DocumentType:     opts.DocumentType,
		DocumentDate:     opts.DocumentDate,
		StorageKey:       key,
		MimeType:         mimeType,
		FileSize:         int64(len(data)),
		Status:           core.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	if err := p.jobs.Enqueue(ctx, doc.Id); err != nil {
		return nil, fmt.Errorf("enqueueing document %d: %w", doc.Id, err)
	}

	p.logger.Info("document uploaded", "documentID", doc.Id, "filename", filename, "bytes", len(data))
	return doc, nil
}

// Delete removes a document and everything derived from it: index
// entries in both stores, chunk rows, the stored bytes (unless shared
// with another document), and the document row. Every step is
// idempotent, so deleting an absent or half-ingested document is safe.
func (p *Platform) Delete(ctx context.Context, id core.ID) error {
	if err := p.indexer.Delete(ctx, id); err != nil {
		return err
	}
	if err := p.documents.DeleteChunks(ctx, id); err != nil {
		return err
	}

	doc, err := p.documents.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := p.documents.DeleteDocument(ctx, id); err != nil {
		return err
	}

	refs, err := p.documents.CountByStorageKey(ctx, doc.StorageKey)
	if err != nil {
		return err
	}
	if refs == 0 {
		if err := p.objects.Delete(ctx, doc.StorageKey); err != nil {
			return err
		}
	}

	p.logger.Info("document deleted", "documentID", id)
	return nil
}

// Status returns the document, whose Status field is the sole progress
// signal of the ingestion pipeline.
func (p *Platform) Status(ctx context.Context, id core.ID) (*core.Document, error) {
	return p.documents.GetDocument(ctx, id)
}

// List returns documents ordered by creation time descending.
func (p *Platform) List(ctx context.Context, limit, offset int) ([]*core.Document, error) {
	return p.documents.ListDocuments(ctx, limit, offset)
}

// Search runs a hybrid query over the document corpus.
func (p *Platform) Search(ctx context.Context, query string, filters index.Filters, limit int) (*core.SearchResponse, error) {
	return p.engine.Search(ctx, query, filters, limit)
}

// SearchPage is Search with offset pagination.
func (p *Platform) SearchPage(ctx context.Context, query string, filters index.Filters, limit, offset int) (*core.SearchResponse, error) {
	return p.engine.SearchPage(ctx, query, filters, limit, offset)
}

// Process runs the ingestion pipeline synchronously for one document.
// The worker pool normally does this; Process exists for CLI runs and
// tests.
func (p *Platform) Process(ctx context.Context, id core.ID) error {
	return p.orch.Process(ctx, id)
}

// NewWorkerPool builds a worker pool consuming this platform's queue.
func (p *Platform) NewWorkerPool(opts ...ingestion.PoolOption) (*ingestion.Pool, error) {
	return ingestion.NewPool(p.jobs, p.orch, p.config, opts...)
}

// DocumentRepository exposes the underlying relational store.
func (p *Platform) DocumentRepository() storage.DocumentRepository {
	return p.documents
}

// SearchEngine exposes the underlying search engine, for callers that
// need monitoring hooks.
func (p *Platform) SearchEngine() *search.Engine {
	return p.engine
}
