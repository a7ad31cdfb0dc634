package memory

import (
	"context"
	"testing"

	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorIndex_QueryRanksBySimilarity(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	entries := []index.Entry{
		{ChunkKey: "1:0", Vector: []float32{1, 0}, Metadata: index.Metadata{DocumentId: 1}},
		{ChunkKey: "1:1", Vector: []float32{0.9, 0.1}, Metadata: index.Metadata{DocumentId: 1}},
		{ChunkKey: "2:0", Vector: []float32{0, 1}, Metadata: index.Metadata{DocumentId: 2}},
	}
	require.NoError(t, idx.Upsert(ctx, entries))

	hits, err := idx.Query(ctx, []float32{1, 0}, index.Filters{}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "1:0", hits[0].ChunkKey)
	assert.Equal(t, "1:1", hits[1].ChunkKey)
	assert.Equal(t, "2:0", hits[2].ChunkKey)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestVectorIndex_TopKBound(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Upsert(ctx, []index.Entry{{
			ChunkKey: core.ChunkKey(1, i),
			Vector:   []float32{1, float32(i)},
			Metadata: index.Metadata{DocumentId: 1, SequenceIndex: i},
		}}))
	}

	hits, err := idx.Query(ctx, []float32{1, 0}, index.Filters{}, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hits), 3)
}

func TestVectorIndex_FilterPushdown(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []index.Entry{
		{ChunkKey: "1:0", Vector: []float32{1, 0}, Metadata: index.Metadata{DocumentId: 1, Company: "Acme"}},
		{ChunkKey: "2:0", Vector: []float32{1, 0}, Metadata: index.Metadata{DocumentId: 2, Company: "Globex"}},
	}))

	hits, err := idx.Query(ctx, []float32{1, 0}, index.Filters{Company: "Acme"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1:0", hits[0].ChunkKey)
}

func TestVectorIndex_UpsertReplaces(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []index.Entry{
		{ChunkKey: "1:0", Vector: []float32{1, 0}, Metadata: index.Metadata{DocumentId: 1}},
	}))
	require.NoError(t, idx.Upsert(ctx, []index.Entry{
		{ChunkKey: "1:0", Vector: []float32{0, 1}, Metadata: index.Metadata{DocumentId: 1}},
	}))

	assert.Equal(t, 1, idx.Len())
}

func TestVectorIndex_DeleteByDocument(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []index.Entry{
		{ChunkKey: "1:0", Vector: []float32{1}, Metadata: index.Metadata{DocumentId: 1}},
		{ChunkKey: "1:1", Vector: []float32{1}, Metadata: index.Metadata{DocumentId: 1}},
		{ChunkKey: "2:0", Vector: []float32{1}, Metadata: index.Metadata{DocumentId: 2}},
	}))

	require.NoError(t, idx.DeleteByDocument(ctx, 1))
	assert.Equal(t, 1, idx.Len())

	// Deleting again is a no-op.
	require.NoError(t, idx.DeleteByDocument(ctx, 1))
	assert.Equal(t, 1, idx.Len())
}
