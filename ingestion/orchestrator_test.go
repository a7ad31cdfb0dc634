package ingestion

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TamilselvanRaman/Research-Platform/ai/mock"
	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/extract"
	"github.com/TamilselvanRaman/Research-Platform/index"
	"github.com/TamilselvanRaman/Research-Platform/index/fts"
	"github.com/TamilselvanRaman/Research-Platform/index/memory"
	"github.com/TamilselvanRaman/Research-Platform/storage"
	"github.com/TamilselvanRaman/Research-Platform/storage/badger"
	"github.com/TamilselvanRaman/Research-Platform/storage/sqlite"
)

// fakeExtractor returns canned pages and counts invocations.
type fakeExtractor struct {
	pages   []extract.Page
	err     error
	calls   atomic.Int64
	onCalls func()
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) ([]extract.Page, error) {
	f.calls.Add(1)
	if f.onCalls != nil {
		f.onCalls()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// failingKeyword rejects every upsert, forcing the dual-index rollback.
type failingKeyword struct{}

func (failingKeyword) Upsert(ctx context.Context, entries []index.Entry) error {
	return fmt.Errorf("%w: keyword store unavailable", core.ErrIndexWrite)
}

func (failingKeyword) Query(ctx context.Context, query string, filters index.Filters, topK int) ([]index.Hit, error) {
	return nil, nil
}

func (failingKeyword) DeleteByDocument(ctx context.Context, documentID index.ID) error {
	return nil
}

type testRig struct {
	documents *sqlite.Store
	objects   *badger.ObjectStore
	vector    *memory.VectorIndex
	keyword   *fts.Index
	extractor *fakeExtractor
	orch      *Orchestrator
}

func pagesWithWords(words int) []extract.Page {
	text := ""
	for i := 0; i < words; i++ {
		text += fmt.Sprintf("word%d ", i)
	}
	return []extract.Page{{Number: 1, Text: text}}
}

func newTestRig(t *testing.T, extractor *fakeExtractor, keyword index.KeywordIndex) *testRig {
	t.Helper()

	documents, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { documents.Close() })

	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	objects := badger.NewObjectStore(backend)

	vector := memory.NewVectorIndex()

	var ftsIndex *fts.Index
	if keyword == nil {
		ftsIndex, err = fts.NewIndex(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { ftsIndex.Close() })
		keyword = ftsIndex
	}

	dual, err := index.NewDual(vector, keyword)
	require.NoError(t, err)

	cfg := core.NewConfig(
		core.WithChunking(50, 10),
		core.WithEmbeddingDimension(8),
		core.WithRetry(2, time.Millisecond),
	)

	embedder := mock.NewMockEmbedder()
	embedder.Dimension = cfg.EmbeddingDimension

	orch, err := NewOrchestrator(documents, objects, extractor, embedder, dual, *cfg)
	require.NoError(t, err)

	return &testRig{
		documents: documents,
		objects:   objects,
		vector:    vector,
		keyword:   ftsIndex,
		extractor: extractor,
		orch:      orch,
	}
}

func (r *testRig) uploadDocument(t *testing.T, ctx context.Context) *core.Document {
	t.Helper()

	key, err := r.objects.Put(ctx, []byte("%PDF-1.4 test bytes"))
	require.NoError(t, err)

	doc, err := r.documents.CreateDocument(ctx, &core.Document{
		OriginalFilename: "report.pdf",
		Company:          "acme",
		DocumentType:     "report",
		StorageKey:       key,
		MimeType:         "application/pdf",
		FileSize:         19,
		Status:           core.StatusPending,
	})
	require.NoError(t, err)
	return doc
}

func TestOrchestrator_ProcessCompletesDocument(t *testing.T) {
	extractor := &fakeExtractor{pages: pagesWithWords(120)}
	rig := newTestRig(t, extractor, nil)
	ctx := context.Background()

	doc := rig.uploadDocument(t, ctx)
	require.NoError(t, rig.orch.Process(ctx, doc.Id))

	got, err := rig.documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, 1, got.PageCount)
	assert.Empty(t, got.LastError)
	assert.False(t, got.ProcessedAt.IsZero())

	chunks, err := rig.documents.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, got.ChunkCount, len(chunks))

	// 120 words at size 50, step 40: chunks start at 0, 40, 80.
	assert.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.SequenceIndex)
		assert.Len(t, c.Embedding, 8)
	}

	assert.Equal(t, len(chunks), rig.vector.Len())
	hits, err := rig.keyword.Query(ctx, "word0", index.Filters{}, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestOrchestrator_EmptyTextFailsTerminally(t *testing.T) {
	extractor := &fakeExtractor{pages: []extract.Page{{Number: 1, Text: "   "}}}
	rig := newTestRig(t, extractor, nil)
	ctx := context.Background()

	doc := rig.uploadDocument(t, ctx)
	err := rig.orch.Process(ctx, doc.Id)
	require.ErrorIs(t, err, core.ErrExtraction)

	got, err := rig.documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)
	assert.NotEmpty(t, got.LastError)

	// Terminal failure means exactly one extraction attempt.
	assert.Equal(t, int64(1), extractor.calls.Load())
}

func TestOrchestrator_ConcurrentProcessSingleWinner(t *testing.T) {
	extractor := &fakeExtractor{pages: pagesWithWords(60)}
	rig := newTestRig(t, extractor, nil)
	ctx := context.Background()

	doc := rig.uploadDocument(t, ctx)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rig.orch.Process(ctx, doc.Id))
		}()
	}
	wg.Wait()

	// Exactly one goroutine claimed the document and ran the pipeline.
	assert.Equal(t, int64(1), extractor.calls.Load())

	got, err := rig.documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
}

func TestOrchestrator_ReprocessingReplacesChunkSet(t *testing.T) {
	extractor := &fakeExtractor{pages: pagesWithWords(120)}
	rig := newTestRig(t, extractor, nil)
	ctx := context.Background()

	doc := rig.uploadDocument(t, ctx)
	require.NoError(t, rig.orch.Process(ctx, doc.Id))

	first, err := rig.documents.GetChunks(ctx, doc.Id)
	require.NoError(t, err)

	// Second run from completed: same extraction, same single chunk set.
	require.NoError(t, rig.orch.Process(ctx, doc.Id))

	second, err := rig.documents.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, len(second), rig.vector.Len())

	got, err := rig.documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
}

func TestOrchestrator_KeywordFailureRollsBackVectors(t *testing.T) {
	extractor := &fakeExtractor{pages: pagesWithWords(60)}
	rig := newTestRig(t, extractor, failingKeyword{})
	ctx := context.Background()

	doc := rig.uploadDocument(t, ctx)
	err := rig.orch.Process(ctx, doc.Id)
	require.ErrorIs(t, err, core.ErrIndexWrite)

	got, err := rig.documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)

	// The vector writes of the failed run were compensated.
	assert.Equal(t, 0, rig.vector.Len())
}

func TestOrchestrator_DeletedMidFlightAbortsCleanly(t *testing.T) {
	ctx := context.Background()

	var rig *testRig
	extractor := &fakeExtractor{pages: pagesWithWords(60)}
	extractor.onCalls = func() {
		// Simulate a user deleting the document while extraction runs.
		require.NoError(t, rig.documents.DeleteDocument(ctx, 1))
	}
	rig = newTestRig(t, extractor, nil)

	doc := rig.uploadDocument(t, ctx)
	require.Equal(t, core.ID(1), doc.Id)

	require.NoError(t, rig.orch.Process(ctx, doc.Id))

	_, err := rig.documents.GetDocument(ctx, doc.Id)
	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, rig.vector.Len())
}

func TestOrchestrator_SkipsMissingDocument(t *testing.T) {
	extractor := &fakeExtractor{pages: pagesWithWords(60)}
	rig := newTestRig(t, extractor, nil)

	require.NoError(t, rig.orch.Process(context.Background(), core.ID(9999)))
	assert.Equal(t, int64(0), extractor.calls.Load())
}

func TestNewOrchestrator_RequiresDependencies(t *testing.T) {
	_, err := NewOrchestrator(nil, nil, nil, nil, nil, *core.DefaultConfig())
	require.ErrorIs(t, err, ErrDocumentsRequired)
}
