package chain

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/merchantiq/docengine/internal/ai"
	"github.com/merchantiq/docengine/internal/classify"
	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/extract"
	"github.com/merchantiq/docengine/internal/ingest"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/errors"
	"github.com/merchantiq/docengine/internal/search"
	"github.com/merchantiq/docengine/internal/websearch"
	"github.com/stretchr/testify/require"
)

type scriptedCompleter struct {
	responses []string
	calls     [][]ai.Message
}

func (s *scriptedCompleter) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	s.calls = append(s.calls, messages)
	if len(s.calls) > len(s.responses) {
		return "", errors.ErrAIUnavailable
	}
	return s.responses[len(s.calls)-1], nil
}

type fakeRetriever struct {
	byNamespace map[string][]*model.SearchResult
	queries     [][]string
}

func (f *fakeRetriever) Search(ctx context.Context, query string, namespaces []string, limit int, threshold float64) (*search.Response, error) {
	f.queries = append(f.queries, namespaces)
	for _, ns := range namespaces {
		if results, ok := f.byNamespace[ns]; ok {
			return &search.Response{Results: results, Tier: "scored"}, nil
		}
	}
	return &search.Response{Results: nil, Tier: "naive"}, nil
}

type fakeRouter struct {
	routes   []model.NamespaceRoute
	received *model.QueryClassification
}

func (f *fakeRouter) Route(ctx context.Context, ownerID string, c *model.QueryClassification) ([]model.NamespaceRoute, error) {
	f.received = c
	return f.routes, nil
}

type fakeWeb struct {
	result *websearch.Result
	err    error
	called bool
}

func (f *fakeWeb) Search(ctx context.Context, query string) (*websearch.Result, error) {
	f.called = true
	return f.result, f.err
}

const classificationJSON = `{"intent":"processor_info","processors":["clearent"],"confidence":0.8,"suggestedNamespaces":["processors/clearent"],"reasoning":"needs rate documents"}`

func clearentRoutes() []model.NamespaceRoute {
	return []model.NamespaceRoute{
		{Namespace: "processors/clearent", Priority: 85, Kind: model.NamespaceKindProcessor, Confidence: 0.8},
		{Namespace: "sales/pricing", Priority: 60, Kind: model.NamespaceKindSales, Confidence: 0.8},
	}
}

func TestChainFullRun(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		classificationJSON,
		"Clearent's qualified rate is 1.89% per the Clearent Rates Sheet.",
	}}
	retriever := &fakeRetriever{byNamespace: map[string][]*model.SearchResult{
		"processors/clearent": {{
			DocumentID:   "d1",
			DocumentName: "Clearent Rates Sheet",
			Content:      "Clearent qualified rate 1.89% for retail swiped volume",
			Score:        0.83,
			MimeType:     "application/pdf",
		}},
	}}
	router := &fakeRouter{routes: clearentRoutes()}

	o := NewOrchestrator(completer, retriever, router, nil)
	result, err := o.Run(context.Background(), "default", "what are clearent rates for retail?", nil)
	require.NoError(t, err)

	require.Len(t, result.Steps, 4)
	require.Equal(t, model.ActionComplete, result.Steps[3].NextAction)
	require.Contains(t, result.FinalResponse, "1.89%")
	require.Contains(t, result.Reasoning, "Step 1: needs rate documents")
	require.InDelta(t, 1.0, result.Confidence, 0.001)

	require.Equal(t, model.IntentProcessorInfo, router.received.Intent)
	require.Contains(t, result.Steps[1].Response, `"searchStrategy":"focused"`)

	require.Len(t, result.Sources, 1)
	require.Equal(t, "Clearent Rates Sheet", result.Sources[0].Name)
	require.Equal(t, "pdf", result.Sources[0].Type)
	require.InDelta(t, 0.83, result.Sources[0].RelevanceScore, 0.001)
}

func TestChainClassificationParseErrorIsFatal(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"I think you should search the documents."}}
	o := NewOrchestrator(completer, &fakeRetriever{}, &fakeRouter{}, nil)

	_, err := o.Run(context.Background(), "default", "anything", nil)
	require.Error(t, err)
	require.True(t, errors.IsClassificationParse(err))
}

func TestChainStripsCodeFences(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		"```json\n" + classificationJSON + "\n```",
		"final answer",
	}}
	retriever := &fakeRetriever{byNamespace: map[string][]*model.SearchResult{
		"processors/clearent": {{DocumentID: "d1", DocumentName: "Doc", Content: "x"}},
	}}
	router := &fakeRouter{routes: clearentRoutes()}
	o := NewOrchestrator(completer, retriever, router, nil)

	result, err := o.Run(context.Background(), "default", "q", nil)
	require.NoError(t, err)
	require.Contains(t, result.Reasoning, "needs rate documents")
	require.Equal(t, model.IntentProcessorInfo, router.received.Intent)
}

func TestChainClassificationSeesRecentHistoryOnly(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classificationJSON, "answer"}}
	o := NewOrchestrator(completer, &fakeRetriever{}, &fakeRouter{routes: clearentRoutes()}, nil)

	history := []ai.Message{
		{Role: ai.RoleUser, Content: "turn-one about gateways"},
		{Role: ai.RoleAssistant, Content: "turn-two"},
		{Role: ai.RoleUser, Content: "turn-three"},
		{Role: ai.RoleAssistant, Content: "turn-four"},
		{Role: ai.RoleUser, Content: "turn-five"},
		{Role: ai.RoleAssistant, Content: "turn-six"},
	}
	_, err := o.Run(context.Background(), "default", "and for clearent?", history)
	require.NoError(t, err)
	require.Len(t, completer.calls, 2)

	// Classification sees the last three turns, synthesis the last five.
	classifySystem := completer.calls[0][0].Content
	require.Contains(t, classifySystem, "turn-six")
	require.Contains(t, classifySystem, "turn-four")
	require.NotContains(t, classifySystem, "turn-three")
	require.NotContains(t, classifySystem, "turn-one about gateways")

	synthUser := completer.calls[1][1].Content
	require.Contains(t, synthUser, "turn-two")
	require.NotContains(t, synthUser, "turn-one about gateways")
}

func TestChainSynthesisGuidanceFollowsIntent(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classificationJSON, "answer"}}
	o := NewOrchestrator(completer, &fakeRetriever{}, &fakeRouter{routes: clearentRoutes()}, nil)

	_, err := o.Run(context.Background(), "default", "q", nil)
	require.NoError(t, err)
	synthSystem := completer.calls[1][0].Content
	require.Contains(t, synthSystem, "processor-specific information")
	require.Contains(t, synthSystem, "SPECIALIZED FOCUS")
}

func TestChainSynthesisContextLinksAndClipsPassages(t *testing.T) {
	long := strings.Repeat("Clearent interchange detail. ", 40)
	completer := &scriptedCompleter{responses: []string{classificationJSON, "answer"}}
	retriever := &fakeRetriever{byNamespace: map[string][]*model.SearchResult{
		"processors/clearent": {{
			DocumentID:   "d1",
			DocumentName: "Clearent Rates Sheet",
			Content:      long,
			Score:        0.9,
			WebViewLink:  "https://drive.example.com/clearent-rates",
		}},
	}}
	o := NewOrchestrator(completer, retriever, &fakeRouter{routes: clearentRoutes()}, nil)

	_, err := o.Run(context.Background(), "default", "q", nil)
	require.NoError(t, err)
	synthUser := completer.calls[1][1].Content
	require.Contains(t, synthUser, "SOURCE: https://drive.example.com/clearent-rates")
	require.Contains(t, synthUser, "RELEVANCE: 90.0%")
	require.Contains(t, synthUser, long[:500]+"...")
	require.NotContains(t, synthUser, long)
}

func TestChainRetriesDefaultNamespace(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classificationJSON, "answer"}}
	retriever := &fakeRetriever{byNamespace: map[string][]*model.SearchResult{
		"default": {{DocumentID: "d9", DocumentName: "General Guide", Content: "general content"}},
	}}
	o := NewOrchestrator(completer, retriever, &fakeRouter{routes: clearentRoutes()}, nil)

	result, err := o.Run(context.Background(), "default", "q", nil)
	require.NoError(t, err)
	require.Len(t, retriever.queries, 2)
	require.Equal(t, []string{"default"}, retriever.queries[1])
	require.Len(t, result.Steps[2].SearchResults, 1)
}

func TestChainBroadStrategyWhenUnrouted(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classificationJSON, "answer"}}
	retriever := &fakeRetriever{}
	o := NewOrchestrator(completer, retriever, &fakeRouter{}, nil)

	result, err := o.Run(context.Background(), "default", "q", nil)
	require.NoError(t, err)
	require.Contains(t, result.Steps[1].Response, `"searchStrategy":"broad"`)
	require.Equal(t, []string{"default"}, retriever.queries[0])
}

func TestChainWebFallback(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classificationJSON, "web-grounded answer"}}
	web := &fakeWeb{result: &websearch.Result{
		Content:   "Industry average qualified rate is around 1.9%.",
		Citations: []websearch.Citation{{Title: "Industry Report", URL: "https://example.com/report"}},
	}}
	o := NewOrchestrator(completer, &fakeRetriever{}, &fakeRouter{routes: clearentRoutes()}, web)

	result, err := o.Run(context.Background(), "default", "q", nil)
	require.NoError(t, err)
	require.True(t, web.called)
	require.Equal(t, model.ActionWebSearch, result.Steps[2].NextAction)
	// Web context earns no document-grounding bonus.
	require.InDelta(t, 0.7, result.Confidence, 0.001)
	require.Len(t, result.Sources, 1)
	require.Equal(t, "web", result.Sources[0].Type)
}

func TestChainNoContextStillCompletes(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classificationJSON, "I do not have material covering that."}}
	o := NewOrchestrator(completer, &fakeRetriever{}, &fakeRouter{routes: clearentRoutes()}, nil)

	result, err := o.Run(context.Background(), "default", "q", nil)
	require.NoError(t, err)
	require.Len(t, result.Steps, 4)
	// Four steps completed but nothing retrieved: 0.7 x 4/4.
	require.InDelta(t, 0.7, result.Confidence, 0.001)
	require.Empty(t, result.Sources)
}

func TestChainWebFailureNonFatal(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classificationJSON, "answer without web"}}
	web := &fakeWeb{err: errors.ErrAIUnavailable}
	o := NewOrchestrator(completer, &fakeRetriever{}, &fakeRouter{routes: clearentRoutes()}, web)

	result, err := o.Run(context.Background(), "default", "q", nil)
	require.NoError(t, err)
	require.Equal(t, "answer without web", result.FinalResponse)
}

type chainNamespaceStore struct {
	rows []*model.Namespace
}

func (s *chainNamespaceStore) Create(ctx context.Context, ns *model.Namespace) error {
	s.rows = append(s.rows, ns)
	return nil
}

func (s *chainNamespaceStore) ListByOwner(ctx context.Context, ownerID string) ([]*model.Namespace, error) {
	return s.rows, nil
}

func (s *chainNamespaceStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return len(s.rows), nil
}

type chainDocSource struct {
	docs []*model.DocumentText
}

func (s *chainDocSource) ListWithContent(ctx context.Context) ([]*model.DocumentText, error) {
	return s.docs, nil
}

func (s *chainDocSource) Get(ctx context.Context, id string) (*model.Document, error) {
	for _, d := range s.docs {
		if d.ID == id {
			return &d.Document, nil
		}
	}
	return nil, errors.ErrNotFound
}

func (s *chainDocSource) IncrementViews(ctx context.Context, id string) error { return nil }

// Runs the whole pipeline on one Clearent pricing sheet: extract,
// chunk, lexical retrieval, routing, and the four-step chain.
func TestChainClearentEndToEnd(t *testing.T) {
	ctx := context.Background()
	query := "What pricing does Clearent offer?"

	svc := extract.NewService(nil, config.OCRConfig{}, 50)
	extracted, err := svc.Extract(ctx, []byte("Clearent offers interchange-plus pricing at 0.15% markup"), "text/plain")
	require.NoError(t, err)
	require.InDelta(t, 100, extracted.Confidence, 0.001)

	chunks := ingest.NewChunker(1000, 200).Split(extracted.Text)
	require.Len(t, chunks, 1)

	local := classify.Classify(query)
	require.Equal(t, model.IntentProcessorInfo, local.Intent)
	require.Contains(t, local.SuggestedNamespaces, "processors/clearent")

	source := &chainDocSource{docs: []*model.DocumentText{{
		Document: model.Document{
			ID:       "clearent-1",
			Name:     "Clearent Pricing Overview",
			Category: "rates",
			Mtime:    time.Now().UnixMilli(),
		},
		Content: chunks[0],
	}}}
	manager := search.NewManager(source, nil, config.SearchConfig{
		CacheSize:           10,
		CacheTTLHours:       1,
		RecencyBoost:        1.2,
		EngagementBoost:     1.1,
		CategoryBoost:       1.3,
		EngagementThreshold: 10,
		TitleShare:          0.4,
		ContentShare:        0.4,
		KeywordShare:        0.2,
	})
	store := &chainNamespaceStore{rows: []*model.Namespace{
		{OwnerID: "default", Name: "processors/clearent", Kind: model.NamespaceKindProcessor, Priority: 85},
	}}
	completer := &scriptedCompleter{responses: []string{
		classificationJSON,
		"Clearent offers interchange-plus pricing at 0.15% markup (Clearent Pricing Overview).",
	}}

	o := NewOrchestrator(completer, manager, classify.NewRouter(store), nil)
	result, err := o.Run(ctx, "default", query, nil)
	require.NoError(t, err)

	require.Len(t, result.Steps[2].SearchResults, 1)
	require.Greater(t, result.Steps[2].SearchResults[0].Score, 0.3)
	require.Contains(t, result.FinalResponse, "0.15%")
	require.Len(t, result.Sources, 1)
	require.Equal(t, "Clearent Pricing Overview", result.Sources[0].Name)
	require.InDelta(t, 1.0, result.Confidence, 0.001)
}
