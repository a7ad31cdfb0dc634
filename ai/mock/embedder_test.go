package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	embedder := NewMockEmbedder()

	v1, err := embedder.EmbedText(context.Background(), "quarterly report")
	require.NoError(t, err)
	v2, err := embedder.EmbedText(context.Background(), "quarterly report")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 384)

	v3, err := embedder.EmbedText(context.Background(), "different text")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

func TestMockEmbedder_Batch(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.Dimension = 8

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for _, v := range vectors {
		assert.Len(t, v, 8)
	}

	single, err := embedder.EmbedText(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, vectors[1], single)
}

func TestMockEmbedder_Injection(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}

	_, err := embedder.EmbedTexts(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, 1, embedder.CallCount())

	embedder.Reset()
	assert.Equal(t, 0, embedder.CallCount())
	_, err = embedder.EmbedTexts(context.Background(), []string{"x"})
	require.NoError(t, err)
}
