package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/vector"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// IDocumentSource provides the searchable document corpus.
type IDocumentSource interface {
	ListWithContent(ctx context.Context) ([]*model.DocumentText, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	IncrementViews(ctx context.Context, id string) error
}

// Response carries results plus which tier produced them.
type Response struct {
	Results []*model.SearchResult `json:"results"`
	Tier    string                `json:"tier"`
	Cached  bool                  `json:"cached"`
}

// Status is the retrieval health snapshot.
type Status struct {
	IndexAvailable bool    `json:"index_available"`
	StoreAvailable bool    `json:"store_available"`
	CacheEntries   int     `json:"cache_entries"`
	CacheHitRate   float64 `json:"cache_hit_rate"`
}

// Manager answers queries through ordered retrieval tiers: the vector
// index first, weighted lexical scoring second, and a naive substring
// scan last. A tier that errors or comes back empty falls through to
// the next; the naive tier never errors, so a query always gets an
// answer while the corpus has one.
type Manager struct {
	docs   IDocumentSource
	index  vector.Index
	scorer *Scorer
	cache  *expirable.LRU[string, []*model.SearchResult]
	cfg    config.SearchConfig

	hits   atomic.Int64
	misses atomic.Int64
}

func NewManager(docs IDocumentSource, index vector.Index, cfg config.SearchConfig) *Manager {
	return &Manager{
		docs:   docs,
		index:  index,
		scorer: NewScorer(cfg),
		cache: expirable.NewLRU[string, []*model.SearchResult](
			cfg.CacheSize, nil, time.Duration(cfg.CacheTTLHours)*time.Hour),
		cfg: cfg,
	}
}

func (m *Manager) Search(ctx context.Context, query string, namespaces []string, limit int, threshold float64) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if limit <= 0 {
		limit = 10
	}

	key := cacheKey(query, limit, threshold)
	if cached, ok := m.cache.Get(key); ok {
		m.hits.Add(1)
		return &Response{Results: cached, Tier: "cache", Cached: true}, nil
	}
	m.misses.Add(1)

	logger := logutil.GetLogger(ctx).With(zap.String("query", query))
	tiers := []struct {
		name string
		run  func() ([]*model.SearchResult, error)
	}{
		{"vector", func() ([]*model.SearchResult, error) {
			return m.vectorTier(ctx, query, namespaces, limit, threshold)
		}},
		{"scored", func() ([]*model.SearchResult, error) {
			return m.scoredTier(ctx, query, limit, threshold)
		}},
		{"naive", func() ([]*model.SearchResult, error) {
			return m.naiveTier(ctx, query, limit)
		}},
	}
	for _, tier := range tiers {
		results, err := tier.run()
		if err != nil {
			logger.Warn("retrieval tier failed", zap.String("tier", tier.name), zap.Error(err))
			continue
		}
		if len(results) == 0 {
			continue
		}
		m.cache.Add(key, results)
		return &Response{Results: results, Tier: tier.name}, nil
	}
	return &Response{Results: []*model.SearchResult{}, Tier: "naive"}, nil
}

// RecordAccess bumps engagement counters for a result the caller used.
func (m *Manager) RecordAccess(ctx context.Context, documentID string) {
	if err := m.docs.IncrementViews(ctx, documentID); err != nil {
		logutil.GetLogger(ctx).Warn("view count update failed",
			zap.String("document_id", documentID), zap.Error(err))
	}
}

func (m *Manager) vectorTier(ctx context.Context, query string, namespaces []string, limit int, threshold float64) ([]*model.SearchResult, error) {
	if m.index == nil {
		return nil, nil
	}
	matches, err := m.index.Query(ctx, query, namespaces, limit, threshold)
	if err != nil {
		return nil, err
	}
	// Several chunks of one document can match; keep only the best
	// chunk per document so the limit spans distinct documents.
	best := make(map[string]*model.SearchResult, len(matches))
	order := make([]string, 0, len(matches))
	for _, match := range matches {
		if seen, ok := best[match.DocumentID]; ok {
			if match.Similarity > seen.Score {
				seen.Score = match.Similarity
				seen.Content = match.Content
			}
			continue
		}
		res := &model.SearchResult{
			DocumentID: match.DocumentID,
			Content:    match.Content,
			Score:      match.Similarity,
		}
		if doc, derr := m.docs.Get(ctx, match.DocumentID); derr == nil {
			res.DocumentName = doc.Name
			res.MimeType = doc.MimeType
			res.WebViewLink = doc.WebViewLink
		}
		best[match.DocumentID] = res
		order = append(order, match.DocumentID)
	}
	results := make([]*model.SearchResult, 0, len(best))
	for _, id := range order {
		results = append(results, best[id])
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *Manager) scoredTier(ctx context.Context, query string, limit int, threshold float64) ([]*model.SearchResult, error) {
	docs, err := m.docs.ListWithContent(ctx)
	if err != nil {
		return nil, err
	}
	var results []*model.SearchResult
	for _, doc := range docs {
		score, signals := m.scorer.Score(query, doc)
		if score <= 0 || score < threshold {
			continue
		}
		results = append(results, &model.SearchResult{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Content:      snippet(doc.Content, 500),
			Score:        score,
			Signals:      signals,
			MimeType:     doc.MimeType,
			WebViewLink:  doc.WebViewLink,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// naiveTier is the last resort: case-insensitive substring match on
// name, description, and content. It swallows store errors and
// returns whatever it can.
func (m *Manager) naiveTier(ctx context.Context, query string, limit int) ([]*model.SearchResult, error) {
	docs, err := m.docs.ListWithContent(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Warn("naive tier store read failed", zap.Error(err))
		return []*model.SearchResult{}, nil
	}
	needle := strings.ToLower(query)
	var results []*model.SearchResult
	for _, doc := range docs {
		haystack := strings.ToLower(doc.Name + " " + doc.Description + " " + doc.Content)
		if !strings.Contains(haystack, needle) {
			continue
		}
		results = append(results, &model.SearchResult{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Content:      snippet(doc.Content, 500),
			Score:        0.1,
			MimeType:     doc.MimeType,
			WebViewLink:  doc.WebViewLink,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *Manager) Health(ctx context.Context) Status {
	status := Status{
		CacheEntries: m.cache.Len(),
		CacheHitRate: m.hitRate(),
	}
	if m.index != nil && m.index.Health(ctx) == nil {
		status.IndexAvailable = true
	}
	if _, err := m.docs.ListWithContent(ctx); err == nil {
		status.StoreAvailable = true
	}
	return status
}

func (m *Manager) hitRate() float64 {
	hits := m.hits.Load()
	total := hits + m.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func cacheKey(query string, limit int, threshold float64) string {
	return fmt.Sprintf("search:%s:%d:%g", strings.ToLower(query), limit, threshold)
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
