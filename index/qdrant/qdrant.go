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


package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/TamilselvanRaman/Research-Platform/index"
)

// Index is a minimal REST client to a Qdrant collection. It assumes
// cosine distance and creates the collection on Init if missing.
type Index struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

var _ index.VectorIndex = (*Index)(nil)

// pointNamespace derives stable UUID point identifiers from chunk keys,
// since Qdrant accepts only integers or UUIDs as point IDs. The same
// chunk key always maps to the same point, which makes upserts of a
// reprocessed document overwrite instead of duplicate.
var pointNamespace = uuid.MustParse("9f2c1a4e-0b6d-4f3a-8f21-5f4d7c9e1b63")

// Config carries the connection settings for a Qdrant index.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewIndex builds a client from the config. Call Init before use.
func NewIndex(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist yet.
func (x *Index) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	x.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 OK when the collection already exists with the
	// same schema, so repeated Init calls are safe.
	return x.putJSON(ctx, fmt.Sprintf("%s/collections/%s", x.url, x.collection), body, nil)
}

// Upsert writes the entries as points keyed by their chunk keys.
func (x *Index) Upsert(ctx context.Context, entries []index.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	points := make([]map[string]any, len(entries))
	for i, entry := range entries {
		m := entry.Metadata
		payload := map[string]any{
			"chunk_key":      entry.ChunkKey,
			"document_id":    int64(m.DocumentId),
			"sequence_index": m.SequenceIndex,
			"page_number":    m.PageNumber,
			"title":          m.Title,
			"company":        m.Company,
			"document_type":  m.DocumentType,
			"text":           entry.Text,
		}
		if !m.DocumentDate.IsZero() {
			payload["document_date"] = m.DocumentDate.UnixMilli()
		}
		points[i] = map[string]any{
			"id":      uuid.NewSHA1(pointNamespace, []byte(entry.ChunkKey)).String(),
			"vector":  entry.Vector,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", x.url, x.collection)
	return x.putJSON(ctx, url, body, nil)
}

// Query runs a similarity search and returns up to topK hits, most
// similar first. Filters become Qdrant payload match conditions so the
// restriction happens server-side.
func (x *Index) Query(ctx context.Context, vector []float32, filters index.Filters, topK int) ([]index.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if cond := filterConditions(filters); len(cond) > 0 {
		req["filter"] = map[string]any{"must": cond}
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", x.url, x.collection)
	if err := x.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}

	hits := make([]index.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := index.Hit{Score: r.Score}
		if v, ok := r.Payload["chunk_key"].(string); ok {
			hit.ChunkKey = v
		}
		if v, ok := r.Payload["document_id"].(float64); ok {
			hit.Metadata.DocumentId = index.ID(v)
		}
		if v, ok := r.Payload["sequence_index"].(float64); ok {
			hit.Metadata.SequenceIndex = int(v)
		}
		if v, ok := r.Payload["page_number"].(float64); ok {
			hit.Metadata.PageNumber = int(v)
		}
		if v, ok := r.Payload["title"].(string); ok {
			hit.Metadata.Title = v
		}
		if v, ok := r.Payload["company"].(string); ok {
			hit.Metadata.Company = v
		}
		if v, ok := r.Payload["document_type"].(string); ok {
			hit.Metadata.DocumentType = v
		}
		if v, ok := r.Payload["document_date"].(float64); ok {
			hit.Metadata.DocumentDate = time.UnixMilli(int64(v)).UTC()
		}
		if v, ok := r.Payload["text"].(string); ok {
			hit.Text = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteByDocument removes every point of a document via a payload
// filter delete. Deleting an absent document is a no-op.
func (x *Index) DeleteByDocument(ctx context.Context, documentID index.ID) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": int64(documentID)}},
			},
		},
	}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", x.url, x.collection)
	return x.postJSON(ctx, url, body, nil)
}

func filterConditions(filters index.Filters) []map[string]any {
	var cond []map[string]any
	if filters.Company != "" {
		cond = append(cond, map[string]any{
			"key": "company", "match": map[string]any{"value": filters.Company},
		})
	}
	if filters.DocumentType != "" {
		cond = append(cond, map[string]any{
			"key": "document_type", "match": map[string]any{"value": filters.DocumentType},
		})
	}
	if !filters.DateFrom.IsZero() || !filters.DateTo.IsZero() {
		dateRange := map[string]any{}
		if !filters.DateFrom.IsZero() {
			dateRange["gte"] = filters.DateFrom.UnixMilli()
		}
		if !filters.DateTo.IsZero() {
			dateRange["lt"] = filters.DateTo.UnixMilli()
		}
		cond = append(cond, map[string]any{"key": "document_date", "range": dateRange})
	}
	return cond
}

func (x *Index) putJSON(ctx context.Context, url string, body, out any) error {
	return x.doJSON(ctx, http.MethodPut, url, body, out)
}

func (x *Index) postJSON(ctx context.Context, url string, body, out any) error {
	return x.doJSON(ctx, http.MethodPost, url, body, out)
}

func (x *Index) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
