package extract

import (
	"context"
	"testing"

	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/stretchr/testify/require"
)

func TestPDFExtractor_EmptyInput(t *testing.T) {
	extractor := NewPDFExtractor()

	_, err := extractor.Extract(context.Background(), nil)
	require.ErrorIs(t, err, core.ErrExtraction)
}

func TestPDFExtractor_NotAPDF(t *testing.T) {
	extractor := NewPDFExtractor()

	_, err := extractor.Extract(context.Background(), []byte("plain text, not a PDF"))
	require.ErrorIs(t, err, core.ErrExtraction)
	require.False(t, core.Retryable(err), "extraction failures are terminal")
}
