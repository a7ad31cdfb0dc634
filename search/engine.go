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


package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/TamilselvanRaman/Research-Platform/ai"
	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/index"
	"github.com/TamilselvanRaman/Research-Platform/storage"
)

const defaultLimit = 10

// Engine provides hybrid search over the vector and keyword indexes.
// Both sources are queried concurrently with the same filters and their
// ranked lists merged with Reciprocal Rank Fusion.
type Engine struct {
	vector    index.VectorIndex
	keyword   index.KeywordIndex
	documents storage.DocumentRepository
	embedder  ai.Embedder
	config    core.Config
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a search engine over the given sources.
func NewEngine(
	vector index.VectorIndex,
	keyword index.KeywordIndex,
	documents storage.DocumentRepository,
	embedder ai.Embedder,
	config core.Config,
	opts ...Option,
) (*Engine, error) {
	if vector == nil {
		return nil, ErrVectorIndexRequired
	}
	if keyword == nil {
		return nil, ErrKeywordIndexRequired
	}
	if documents == nil {
		return nil, ErrDocumentsRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		vector:    vector,
		keyword:   keyword,
		documents: documents,
		embedder:  embedder,
		config:    config,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Search runs a hybrid query and returns up to limit fused results.
func (e *Engine) Search(ctx context.Context, query string, filters index.Filters, limit int) (*core.SearchResponse, error) {
	return e.SearchPage(ctx, query, filters, limit, 0)
}

// SearchPage is Search with offset pagination over the fused list.
func (e *Engine) SearchPage(ctx context.Context, query string, filters index.Filters, limit, offset int) (*core.SearchResponse, error) {
	return e.SearchWithMonitor(ctx, query, filters, limit, offset, nil)
}

// SearchWithMonitor runs a hybrid query with monitoring callbacks at
// each stage. An empty or whitespace query returns an empty response
// without contacting either source. When exactly one source fails, the
// search degrades to the surviving source; only both failing is an
// error.
func (e *Engine) SearchWithMonitor(ctx context.Context, query string, filters index.Filters, limit, offset int, monitor SearchMonitor) (*core.SearchResponse, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	started := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return &core.SearchResponse{Results: []*core.SearchResult{}}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	monitor.Start(query)

	// Retrieve deeper than the page so fusion has candidates from both
	// sources to rerank.
	depth := offset + limit
	topK := depth * e.config.TopKFactor
	if topK < depth {
		topK = depth
	}

	var (
		vectorHits, keywordHits []index.Hit
		vectorErr, keywordErr   error
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		vectorHits, vectorErr = e.vectorSearch(ctx, query, filters, topK)
	}()
	keywordHits, keywordErr = e.keyword.Query(ctx, query, filters, topK)
	<-done

	if vectorErr != nil {
		e.logger.Warn("vector source failed, degrading to keyword only", "err", vectorErr)
		monitor.SourceFailed("vector", vectorErr)
	} else {
		monitor.AfterVectorSearch(vectorHits)
	}
	if keywordErr != nil {
		e.logger.Warn("keyword source failed, degrading to vector only", "err", keywordErr)
		monitor.SourceFailed("keyword", keywordErr)
	} else {
		monitor.AfterKeywordSearch(keywordHits)
	}
	if vectorErr != nil && keywordErr != nil {
		return nil, ErrAllSourcesFailed
	}

	fused := fuse(vectorHits, keywordHits, e.config.RRFK)
	normalize(fused)
	monitor.AfterFusion(fused)

	total := len(fused)
	page := paginate(fused, limit, offset)
	if err := e.attachDocuments(ctx, page); err != nil {
		e.logger.Warn("failed to join document metadata", "err", err)
	}

	monitor.Finish(page)
	return &core.SearchResponse{
		Results: page,
		Total:   total,
		TookMS:  time.Since(started).Milliseconds(),
	}, nil
}

func (e *Engine) vectorSearch(ctx context.Context, query string, filters index.Filters, topK int) ([]index.Hit, error) {
	embedding, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.vector.Query(ctx, embedding, filters, topK)
}

// attachDocuments fills result rows with the current document title and
// company from the relational store. Index payloads can lag behind
// metadata edits; the store is authoritative.
func (e *Engine) attachDocuments(ctx context.Context, results []*core.SearchResult) error {
	if len(results) == 0 {
		return nil
	}

	seen := make(map[core.ID]bool)
	ids := make([]core.ID, 0, len(results))
	for _, r := range results {
		if !seen[r.DocumentId] {
			seen[r.DocumentId] = true
			ids = append(ids, r.DocumentId)
		}
	}

	docs, err := e.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return err
	}
	byID := make(map[core.ID]*core.Document, len(docs))
	for _, doc := range docs {
		byID[doc.Id] = doc
	}

	for _, r := range results {
		if doc, ok := byID[r.DocumentId]; ok {
			r.DocumentTitle = doc.Title
			r.Company = doc.Company
		}
	}
	return nil
}

func paginate(results []*core.SearchResult, limit, offset int) []*core.SearchResult {
	if offset >= len(results) {
		return []*core.SearchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
