package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/TamilselvanRaman/Research-Platform/index"
)

// VectorIndex is an in-process implementation of index.VectorIndex using
// exhaustive cosine-similarity scan. Suitable for tests and small
// single-node deployments; swap in the qdrant client for anything larger.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]index.Entry // keyed by chunk key
}

var _ index.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		entries: make(map[string]index.Entry),
	}
}

// Upsert writes the entries, replacing existing entries with the same keys.
func (v *VectorIndex) Upsert(ctx context.Context, entries []index.Entry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, entry := range entries {
		v.entries[entry.ChunkKey] = entry
	}
	return nil
}

// Query scans all entries and returns the topK most similar, restricted
// by the filters. Ties are broken by chunk key so rankings are stable.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, filters index.Filters, topK int) ([]index.Hit, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	hits := make([]index.Hit, 0, len(v.entries))
	for _, entry := range v.entries {
		if len(entry.Vector) == 0 {
			continue
		}
		if !filters.Match(entry.Metadata) {
			continue
		}
		hits = append(hits, index.Hit{
			ChunkKey: entry.ChunkKey,
			Score:    cosineSimilarity(vector, entry.Vector),
			Text:     entry.Text,
			Metadata: entry.Metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkKey < hits[j].ChunkKey
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByDocument removes all entries of a document. No-op when absent.
func (v *VectorIndex) DeleteByDocument(ctx context.Context, documentID index.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for key, entry := range v.entries {
		if entry.Metadata.DocumentId == documentID {
			delete(v.entries, key)
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Unit-length vectors reduce this to a dot product.
func cosineSimilarity(a, b []float32) float64 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
