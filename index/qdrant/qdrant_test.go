package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/index"
)

func TestIndex_InitCreatesCollection(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/chunks", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	idx := NewIndex(Config{URL: srv.URL, Collection: "chunks"})
	require.NoError(t, idx.Init(context.Background(), 384))

	vectors, ok := gotBody["vectors"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(384), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestIndex_InitRejectsInvalidDimension(t *testing.T) {
	idx := NewIndex(Config{URL: "http://localhost:6333", Collection: "chunks"})
	require.Error(t, idx.Init(context.Background(), 0))
}

func TestIndex_UpsertSendsStablePointIDs(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/chunks/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	idx := NewIndex(Config{URL: srv.URL, Collection: "chunks"})
	entries := []index.Entry{{
		ChunkKey: core.ChunkKey(7, 0),
		Text:     "hello",
		Vector:   []float32{0.1, 0.2},
		Metadata: index.Metadata{DocumentId: 7, Company: "acme"},
	}}

	require.NoError(t, idx.Upsert(context.Background(), entries))
	require.NoError(t, idx.Upsert(context.Background(), entries))
	require.Len(t, bodies, 2)

	first := bodies[0]["points"].([]any)[0].(map[string]any)
	second := bodies[1]["points"].([]any)[0].(map[string]any)
	assert.NotEmpty(t, first["id"])
	assert.Equal(t, first["id"], second["id"], "same chunk key must map to the same point id")

	payload := first["payload"].(map[string]any)
	assert.Equal(t, "7:0", payload["chunk_key"])
	assert.Equal(t, "acme", payload["company"])
}

func TestIndex_UpsertEmptyIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty batch")
	}))
	defer srv.Close()

	idx := NewIndex(Config{URL: srv.URL, Collection: "chunks"})
	require.NoError(t, idx.Upsert(context.Background(), nil))
}

func TestIndex_QueryParsesHitsAndFilters(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/chunks/points/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"score": 0.92,
					"payload": map[string]any{
						"chunk_key":      "3:1",
						"document_id":    3,
						"sequence_index": 1,
						"page_number":    4,
						"title":          "Annual Report",
						"company":        "acme",
						"text":           "revenue grew",
					},
				},
			},
		})
	}))
	defer srv.Close()

	idx := NewIndex(Config{URL: srv.URL, Collection: "chunks"})
	hits, err := idx.Query(context.Background(), []float32{0.5}, index.Filters{Company: "acme"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "3:1", hits[0].ChunkKey)
	assert.Equal(t, core.ID(3), hits[0].Metadata.DocumentId)
	assert.Equal(t, 4, hits[0].Metadata.PageNumber)
	assert.InDelta(t, 0.92, hits[0].Score, 1e-9)

	filter, ok := gotReq["filter"].(map[string]any)
	require.True(t, ok, "company filter must be pushed down")
	must := filter["must"].([]any)
	require.Len(t, must, 1)
}

func TestIndex_QueryErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	idx := NewIndex(Config{URL: srv.URL, Collection: "chunks"})
	_, err := idx.Query(context.Background(), []float32{0.5}, index.Filters{}, 10)
	require.Error(t, err)
}

func TestIndex_DeleteByDocument(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/chunks/points/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	idx := NewIndex(Config{URL: srv.URL, Collection: "chunks"})
	require.NoError(t, idx.DeleteByDocument(context.Background(), 42))

	filter := gotBody["filter"].(map[string]any)
	must := filter["must"].([]any)
	cond := must[0].(map[string]any)
	assert.Equal(t, "document_id", cond["key"])
}
