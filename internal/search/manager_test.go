package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/vector"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	docs    []*model.DocumentText
	listErr error
	calls   int
}

func (f *fakeSource) ListWithContent(ctx context.Context) ([]*model.DocumentText, error) {
	f.calls++
	return f.docs, f.listErr
}

func (f *fakeSource) Get(ctx context.Context, id string) (*model.Document, error) {
	for _, d := range f.docs {
		if d.ID == id {
			return &d.Document, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeSource) IncrementViews(ctx context.Context, id string) error { return nil }

type fakeVectorIndex struct {
	matches []vector.Match
	err     error
}

func (f *fakeVectorIndex) Upsert(ctx context.Context, entries []vector.Entry) error { return nil }

func (f *fakeVectorIndex) Query(ctx context.Context, query string, namespaces []string, limit int, threshold float64) ([]vector.Match, error) {
	return f.matches, f.err
}

func (f *fakeVectorIndex) DeleteByDocument(ctx context.Context, documentID string) error { return nil }

func (f *fakeVectorIndex) Health(ctx context.Context) error { return nil }

func managerConfig() config.SearchConfig {
	return config.SearchConfig{
		CacheSize:           10,
		CacheTTLHours:       1,
		RecencyBoost:        1.2,
		EngagementBoost:     1.1,
		CategoryBoost:       1.3,
		EngagementThreshold: 10,
		TitleShare:          0.4,
		ContentShare:        0.4,
		KeywordShare:        0.2,
	}
}

func corpus() []*model.DocumentText {
	old := time.Now().Add(-90 * 24 * time.Hour).UnixMilli()
	return []*model.DocumentText{
		{Document: model.Document{ID: "d1", Name: "TSYS Rates Sheet", Mtime: old}, Content: "TSYS qualified rates for retail merchants"},
		{Document: model.Document{ID: "d2", Name: "Terminal Setup", Mtime: old}, Content: "installing the terminal hardware"},
	}
}

func TestSearchVectorTierFirst(t *testing.T) {
	source := &fakeSource{docs: corpus()}
	index := &fakeVectorIndex{matches: []vector.Match{
		{ChunkID: "c1", DocumentID: "d1", Content: "TSYS qualified rates", Similarity: 0.92},
	}}
	m := NewManager(source, index, managerConfig())

	rsp, err := m.Search(context.Background(), "tsys rates", nil, 5, 0.1)
	require.NoError(t, err)
	require.Equal(t, "vector", rsp.Tier)
	require.Len(t, rsp.Results, 1)
	require.Equal(t, "TSYS Rates Sheet", rsp.Results[0].DocumentName)
}

func TestSearchVectorTierDedupesByDocument(t *testing.T) {
	source := &fakeSource{docs: corpus()}
	index := &fakeVectorIndex{matches: []vector.Match{
		{ChunkID: "c1", DocumentID: "d1", Content: "TSYS qualified rates", Similarity: 0.92},
		{ChunkID: "c2", DocumentID: "d1", Content: "TSYS mid-qualified surcharge", Similarity: 0.81},
		{ChunkID: "c3", DocumentID: "d2", Content: "terminal install", Similarity: 0.75},
	}}
	m := NewManager(source, index, managerConfig())

	rsp, err := m.Search(context.Background(), "tsys rates", nil, 5, 0.1)
	require.NoError(t, err)
	require.Len(t, rsp.Results, 2)
	require.Equal(t, "d1", rsp.Results[0].DocumentID)
	require.InDelta(t, 0.92, rsp.Results[0].Score, 0.001)
	require.Equal(t, "TSYS qualified rates", rsp.Results[0].Content)
	require.Equal(t, "d2", rsp.Results[1].DocumentID)
}

func TestSearchVectorTierLimitCountsDocuments(t *testing.T) {
	// Three chunks over two documents with limit 2: the duplicate
	// chunk must not squeeze the second document out.
	source := &fakeSource{docs: corpus()}
	index := &fakeVectorIndex{matches: []vector.Match{
		{ChunkID: "c1", DocumentID: "d1", Content: "rates", Similarity: 0.92},
		{ChunkID: "c2", DocumentID: "d1", Content: "more rates", Similarity: 0.90},
		{ChunkID: "c3", DocumentID: "d2", Content: "terminals", Similarity: 0.70},
	}}
	m := NewManager(source, index, managerConfig())

	rsp, err := m.Search(context.Background(), "tsys", nil, 2, 0.1)
	require.NoError(t, err)
	require.Len(t, rsp.Results, 2)
	require.Equal(t, "d2", rsp.Results[1].DocumentID)
}

func TestSearchFallsBackToScoredTier(t *testing.T) {
	source := &fakeSource{docs: corpus()}
	index := &fakeVectorIndex{err: errors.New("index down")}
	m := NewManager(source, index, managerConfig())

	rsp, err := m.Search(context.Background(), "tsys rates", nil, 5, 0.01)
	require.NoError(t, err)
	require.Equal(t, "scored", rsp.Tier)
	require.NotEmpty(t, rsp.Results)
	require.Equal(t, "d1", rsp.Results[0].DocumentID)
}

func TestSearchNilIndexSkipsVectorTier(t *testing.T) {
	source := &fakeSource{docs: corpus()}
	m := NewManager(source, nil, managerConfig())

	rsp, err := m.Search(context.Background(), "terminal", nil, 5, 0.01)
	require.NoError(t, err)
	require.Equal(t, "scored", rsp.Tier)
}

func TestSearchNaiveTierLastResort(t *testing.T) {
	// A threshold above every lexical score forces the scored tier to
	// come back empty; the naive substring tier still answers.
	source := &fakeSource{docs: corpus()}
	m := NewManager(source, nil, managerConfig())

	rsp, err := m.Search(context.Background(), "terminal", nil, 5, 50)
	require.NoError(t, err)
	require.Equal(t, "naive", rsp.Tier)
	require.Len(t, rsp.Results, 1)
	require.Equal(t, "d2", rsp.Results[0].DocumentID)
}

func TestSearchEmptyCorpusReturnsEmpty(t *testing.T) {
	source := &fakeSource{}
	m := NewManager(source, nil, managerConfig())

	rsp, err := m.Search(context.Background(), "anything", nil, 5, 0.1)
	require.NoError(t, err)
	require.Empty(t, rsp.Results)
}

func TestSearchCacheHit(t *testing.T) {
	source := &fakeSource{docs: corpus()}
	m := NewManager(source, nil, managerConfig())

	first, err := m.Search(context.Background(), "tsys rates", nil, 5, 0.01)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := m.Search(context.Background(), "tsys rates", nil, 5, 0.01)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, "cache", second.Tier)
	require.Equal(t, first.Results, second.Results)
}

func TestSearchCacheExpiresAndRecomputes(t *testing.T) {
	source := &fakeSource{docs: corpus()}
	m := NewManager(source, nil, managerConfig())
	m.cache = expirable.NewLRU[string, []*model.SearchResult](8, nil, 30*time.Millisecond)

	first, err := m.Search(context.Background(), "tsys rates", nil, 5, 0.01)
	require.NoError(t, err)
	require.False(t, first.Cached)
	listCalls := source.calls

	time.Sleep(60 * time.Millisecond)

	again, err := m.Search(context.Background(), "tsys rates", nil, 5, 0.01)
	require.NoError(t, err)
	require.False(t, again.Cached)
	require.Greater(t, source.calls, listCalls)
	require.Equal(t, first.Results, again.Results)
}

func TestSearchCacheKeyIncludesLimitAndThreshold(t *testing.T) {
	source := &fakeSource{docs: corpus()}
	m := NewManager(source, nil, managerConfig())

	_, err := m.Search(context.Background(), "tsys rates", nil, 5, 0.01)
	require.NoError(t, err)
	rsp, err := m.Search(context.Background(), "tsys rates", nil, 1, 0.01)
	require.NoError(t, err)
	require.False(t, rsp.Cached)
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	m := NewManager(&fakeSource{}, nil, managerConfig())
	_, err := m.Search(context.Background(), "   ", nil, 5, 0.1)
	require.Error(t, err)
}

func TestHealthReportsHitRate(t *testing.T) {
	source := &fakeSource{docs: corpus()}
	m := NewManager(source, &fakeVectorIndex{}, managerConfig())

	_, _ = m.Search(context.Background(), "tsys rates", nil, 5, 0.01)
	_, _ = m.Search(context.Background(), "tsys rates", nil, 5, 0.01)

	status := m.Health(context.Background())
	require.True(t, status.IndexAvailable)
	require.True(t, status.StoreAvailable)
	require.Equal(t, 1, status.CacheEntries)
	require.InDelta(t, 0.5, status.CacheHitRate, 0.001)
}
