package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TamilselvanRaman/Research-Platform/ai/mock"
	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/index"
	"github.com/TamilselvanRaman/Research-Platform/storage/sqlite"
)

// fakeVector returns canned hits and records how it was called.
type fakeVector struct {
	hits    []index.Hit
	err     error
	calls   int
	gotTopK int
	gotFlt  index.Filters
}

func (f *fakeVector) Upsert(ctx context.Context, entries []index.Entry) error { return nil }

func (f *fakeVector) Query(ctx context.Context, vector []float32, filters index.Filters, topK int) ([]index.Hit, error) {
	f.calls++
	f.gotTopK = topK
	f.gotFlt = filters
	return f.hits, f.err
}

func (f *fakeVector) DeleteByDocument(ctx context.Context, documentID index.ID) error { return nil }

type fakeKeyword struct {
	hits    []index.Hit
	err     error
	calls   int
	gotTopK int
	gotFlt  index.Filters
}

func (f *fakeKeyword) Upsert(ctx context.Context, entries []index.Entry) error { return nil }

func (f *fakeKeyword) Query(ctx context.Context, query string, filters index.Filters, topK int) ([]index.Hit, error) {
	f.calls++
	f.gotTopK = topK
	f.gotFlt = filters
	return f.hits, f.err
}

func (f *fakeKeyword) DeleteByDocument(ctx context.Context, documentID index.ID) error { return nil }

func hit(key string, docID core.ID) index.Hit {
	return index.Hit{ChunkKey: key, Text: "text " + key, Metadata: index.Metadata{DocumentId: docID}}
}

func newTestEngine(t *testing.T, vector *fakeVector, keyword *fakeKeyword) *Engine {
	t.Helper()

	documents, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { documents.Close() })

	engine, err := NewEngine(vector, keyword, documents, mock.NewMockEmbedder(), *core.DefaultConfig())
	require.NoError(t, err)
	return engine
}

func TestFuse_ExactRanking(t *testing.T) {
	a, b, c := hit("1:0", 1), hit("1:1", 1), hit("1:2", 1)
	d := hit("2:0", 2)

	results := fuse([]index.Hit{a, b, c}, []index.Hit{b, a, d}, 60)
	require.Len(t, results, 4)

	// A and B both score 1/61 + 1/62; A wins the tie on its better
	// vector rank. C (vector rank 3) beats D (keyword rank 4).
	assert.Equal(t, "1:0", results[0].ChunkKey)
	assert.Equal(t, "1:1", results[1].ChunkKey)
	assert.Equal(t, "1:2", results[2].ChunkKey)
	assert.Equal(t, "2:0", results[3].ChunkKey)

	assert.InDelta(t, 1.0/61+1.0/62, results[0].Score, 1e-12)
	assert.InDelta(t, 1.0/61+1.0/62, results[1].Score, 1e-12)
	assert.InDelta(t, 1.0/63, results[2].Score, 1e-12)
	assert.InDelta(t, 1.0/64, results[3].Score, 1e-12)

	assert.Equal(t, 1, results[0].RankVector)
	assert.Equal(t, 2, results[0].RankKeyword)
	assert.Equal(t, 0, results[3].RankVector)
	assert.Equal(t, 4, results[3].RankKeyword)
}

func TestFuse_TieBreaksOnVectorRankPresence(t *testing.T) {
	x, y := hit("5:1", 5), hit("5:2", 5)

	results := fuse([]index.Hit{x}, []index.Hit{y}, 60)
	require.Len(t, results, 2)

	// Equal scores; x has a vector rank, y does not, so x sorts first.
	assert.Equal(t, "5:1", results[0].ChunkKey)
	assert.Equal(t, "5:2", results[1].ChunkKey)
}

func TestNormalize_RescalesIntoUnitInterval(t *testing.T) {
	results := []*core.SearchResult{
		{Score: 0.4}, {Score: 0.1}, {Score: 0.3},
	}
	normalize(results)
	assert.InDelta(t, 1.0, results[0].Score, 1e-12)
	assert.InDelta(t, 0.0, results[1].Score, 1e-12)
	assert.InDelta(t, 2.0/3.0, results[2].Score, 1e-12)
}

func TestNormalize_EqualScoresAllMapToOne(t *testing.T) {
	results := []*core.SearchResult{{Score: 0.2}, {Score: 0.2}}
	normalize(results)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 1.0, results[1].Score)
}

func TestEngine_EmptyQueryContactsNoSource(t *testing.T) {
	vector := &fakeVector{}
	keyword := &fakeKeyword{}
	engine := newTestEngine(t, vector, keyword)

	resp, err := engine.Search(context.Background(), "   ", index.Filters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.Total)
	assert.Equal(t, 0, vector.calls)
	assert.Equal(t, 0, keyword.calls)
}

func TestEngine_QueriesBothSourcesWithSameFiltersAndDepth(t *testing.T) {
	vector := &fakeVector{hits: []index.Hit{hit("1:0", 1)}}
	keyword := &fakeKeyword{hits: []index.Hit{hit("1:0", 1)}}
	engine := newTestEngine(t, vector, keyword)

	filters := index.Filters{Company: "acme"}
	_, err := engine.Search(context.Background(), "revenue", filters, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, vector.calls)
	assert.Equal(t, 1, keyword.calls)
	// Default TopKFactor is 3: both sources asked for 5*3 candidates.
	assert.Equal(t, 15, vector.gotTopK)
	assert.Equal(t, 15, keyword.gotTopK)
	assert.Equal(t, filters, vector.gotFlt)
	assert.Equal(t, filters, keyword.gotFlt)
}

func TestEngine_DegradesWhenOneSourceFails(t *testing.T) {
	vector := &fakeVector{err: errors.New("qdrant unreachable")}
	keyword := &fakeKeyword{hits: []index.Hit{hit("1:0", 1), hit("1:1", 1)}}
	engine := newTestEngine(t, vector, keyword)

	resp, err := engine.Search(context.Background(), "revenue", index.Filters{}, 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "1:0", resp.Results[0].ChunkKey)
}

func TestEngine_FailsWhenBothSourcesFail(t *testing.T) {
	vector := &fakeVector{err: errors.New("down")}
	keyword := &fakeKeyword{err: errors.New("also down")}
	engine := newTestEngine(t, vector, keyword)

	_, err := engine.Search(context.Background(), "revenue", index.Filters{}, 10)
	require.ErrorIs(t, err, ErrAllSourcesFailed)
}

func TestEngine_PaginatesFusedList(t *testing.T) {
	vector := &fakeVector{hits: []index.Hit{hit("1:0", 1), hit("1:1", 1), hit("1:2", 1)}}
	keyword := &fakeKeyword{}
	engine := newTestEngine(t, vector, keyword)

	resp, err := engine.SearchPage(context.Background(), "revenue", index.Filters{}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "1:1", resp.Results[0].ChunkKey)
	assert.Equal(t, "1:2", resp.Results[1].ChunkKey)

	resp, err = engine.SearchPage(context.Background(), "revenue", index.Filters{}, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 3, resp.Total)
}

func TestEngine_AttachesDocumentMetadata(t *testing.T) {
	vector := &fakeVector{hits: []index.Hit{hit("1:0", 1)}}
	keyword := &fakeKeyword{}

	documents, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { documents.Close() })

	doc, err := documents.CreateDocument(context.Background(), &core.Document{
		OriginalFilename: "q3.pdf",
		Title:            "Q3 Report",
		Company:          "acme",
		StorageKey:       "abc",
		Status:           core.StatusCompleted,
	})
	require.NoError(t, err)
	require.Equal(t, core.ID(1), doc.Id)

	engine, err := NewEngine(vector, keyword, documents, mock.NewMockEmbedder(), *core.DefaultConfig())
	require.NoError(t, err)

	resp, err := engine.Search(context.Background(), "report", index.Filters{}, 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Q3 Report", resp.Results[0].DocumentTitle)
	assert.Equal(t, "acme", resp.Results[0].Company)
}

func TestEngine_MonitorReceivesCallbacks(t *testing.T) {
	vector := &fakeVector{hits: []index.Hit{hit("1:0", 1)}}
	keyword := &fakeKeyword{err: errors.New("down")}
	engine := newTestEngine(t, vector, keyword)

	monitor := &recordingMonitor{}
	resp, err := engine.SearchWithMonitor(context.Background(), "revenue", index.Filters{}, 10, 0, monitor)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	assert.Equal(t, "revenue", monitor.startedQuery)
	assert.Equal(t, 1, monitor.vectorHits)
	assert.Equal(t, []string{"keyword"}, monitor.failedSources)
	assert.True(t, monitor.finished)
}

func TestNewEngine_RequiresDependencies(t *testing.T) {
	_, err := NewEngine(nil, nil, nil, nil, *core.DefaultConfig())
	require.ErrorIs(t, err, ErrVectorIndexRequired)
}

// recordingMonitor captures callback invocations for assertions.
type recordingMonitor struct {
	startedQuery  string
	vectorHits    int
	keywordHits   int
	failedSources []string
	fused         int
	finished      bool
}

func (m *recordingMonitor) Start(query string)                  { m.startedQuery = query }
func (m *recordingMonitor) AfterVectorSearch(hits []index.Hit)  { m.vectorHits = len(hits) }
func (m *recordingMonitor) AfterKeywordSearch(hits []index.Hit) { m.keywordHits = len(hits) }
func (m *recordingMonitor) SourceFailed(source string, err error) {
	m.failedSources = append(m.failedSources, source)
}
func (m *recordingMonitor) AfterFusion(results []*core.SearchResult) { m.fused = len(results) }
func (m *recordingMonitor) Finish(results []*core.SearchResult)      { m.finished = true }
