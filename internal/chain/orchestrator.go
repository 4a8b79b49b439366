package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/merchantiq/docengine/internal/ai"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/errors"
	"github.com/merchantiq/docengine/internal/search"
	"github.com/merchantiq/docengine/internal/websearch"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const totalSteps = 4

// IRetriever answers document searches for step three.
type IRetriever interface {
	Search(ctx context.Context, query string, namespaces []string, limit int, threshold float64) (*search.Response, error)
}

// IClassifierRouter produces the namespace routing for step two.
type IClassifierRouter interface {
	Route(ctx context.Context, ownerID string, c *model.QueryClassification) ([]model.NamespaceRoute, error)
}

// IWebSearcher is the optional web fallback for step four.
type IWebSearcher interface {
	Search(ctx context.Context, query string) (*websearch.Result, error)
}

// Orchestrator runs the four-step answer chain: classify the question
// through the model, route it to namespaces, retrieve supporting
// documents, and synthesize the final answer. Step two is local; one
// and four call the model.
type Orchestrator struct {
	completer ai.ICompleter
	retriever IRetriever
	router    IClassifierRouter
	web       IWebSearcher
	maxRoutes int
}

func NewOrchestrator(completer ai.ICompleter, retriever IRetriever, router IClassifierRouter, web IWebSearcher) *Orchestrator {
	return &Orchestrator{
		completer: completer,
		retriever: retriever,
		router:    router,
		web:       web,
		maxRoutes: 3,
	}
}

// routingDecision is step two's recorded output.
type routingDecision struct {
	SuggestedNamespaces []string `json:"suggestedNamespaces"`
	SearchStrategy      string   `json:"searchStrategy"`
	Reasoning           string   `json:"reasoning"`
}

// Run executes the chain for one query. History carries the recent
// conversation turns; the last three feed classification and the last
// five feed synthesis.
func (o *Orchestrator) Run(ctx context.Context, ownerID, query string, history []ai.Message) (*model.ChainResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("owner_id", ownerID))
	result := &model.ChainResult{}

	// Step 1: model-driven classification over the query and recent
	// history.
	prompt := classificationPrompt(query, lastTurns(history, 3))
	raw, err := o.completer.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: prompt},
		{Role: ai.RoleUser, Content: query},
	})
	if err != nil {
		return nil, fmt.Errorf("classification step: %w", err)
	}
	classification, err := parseClassification(raw)
	if err != nil {
		// A malformed classification poisons every later step; fail the
		// chain rather than guess an intent.
		return nil, err
	}
	result.Steps = append(result.Steps, model.ChainStep{
		Step:       1,
		Prompt:     prompt,
		Response:   raw,
		Reasoning:  reasoningOr(classification.Reasoning, "classified query intent and extracted entities"),
		NextAction: model.ActionSearchDocuments,
	})

	// Step 2: namespace routing, no model call.
	routes, err := o.router.Route(ctx, ownerID, classification)
	if err != nil {
		return nil, fmt.Errorf("routing step: %w", err)
	}
	namespaces := topNamespaces(routes, o.maxRoutes)
	strategy := "broad"
	if len(namespaces) > 0 {
		strategy = "focused"
	}
	decision := routingDecision{
		SuggestedNamespaces: namespaces,
		SearchStrategy:      strategy,
		Reasoning:           fmt.Sprintf("selected top %d of %d routes by priority and confidence", len(namespaces), len(routes)),
	}
	routingJSON, _ := json.Marshal(decision)
	result.Steps = append(result.Steps, model.ChainStep{
		Step:             2,
		Response:         string(routingJSON),
		Reasoning:        decision.Reasoning,
		NextAction:       model.ActionSearchDocuments,
		SearchNamespaces: namespaces,
	})

	// Step 3: retrieval scoped to the routed namespaces, with one
	// default-namespace retry. Failure degrades, never aborts.
	scope := namespaces
	if len(scope) == 0 {
		scope = []string{"default"}
	}
	var docResults []model.SearchResult
	rsp, err := o.retriever.Search(ctx, query, scope, 5, 0.1)
	if err != nil {
		logger.Warn("retrieval failed", zap.Error(err))
	} else {
		docResults = deref(rsp.Results)
	}
	if len(docResults) == 0 && !contains(scope, "default") {
		if rsp, rerr := o.retriever.Search(ctx, query, []string{"default"}, 5, 0.1); rerr == nil {
			docResults = deref(rsp.Results)
		}
	}
	next := model.ActionSynthesize
	if len(docResults) == 0 {
		next = model.ActionWebSearch
	}
	result.Steps = append(result.Steps, model.ChainStep{
		Step:             3,
		Response:         fmt.Sprintf("found %d relevant documents across %d namespaces", len(docResults), len(scope)),
		Reasoning:        retrievalReasoning(len(docResults)),
		NextAction:       next,
		SearchNamespaces: scope,
		SearchResults:    docResults,
	})

	// Step 4: synthesis, with a web-search fallback when retrieval
	// came back empty. Web failure is non-fatal.
	var web *websearch.Result
	if len(docResults) == 0 && o.web != nil {
		if w, werr := o.web.Search(ctx, query); werr != nil {
			logger.Warn("web search fallback failed", zap.Error(werr))
		} else {
			web = w
		}
	}
	synth := synthesisPrompt(query, lastTurns(history, 5), docResults, web)
	answer, err := o.completer.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: synthesisSystemPrompt(classification.Intent)},
		{Role: ai.RoleUser, Content: synth},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis step: %w", err)
	}
	result.Steps = append(result.Steps, model.ChainStep{
		Step:       4,
		Prompt:     synth,
		Response:   answer,
		Reasoning:  "synthesized final answer from available context",
		NextAction: model.ActionComplete,
	})

	result.FinalResponse = answer
	result.Reasoning = chainReasoning(result.Steps)
	result.Sources = buildSources(docResults, webCitations(web))
	result.Confidence = confidence(result.Steps, len(docResults) > 0)
	return result, nil
}

// parseClassification tolerates markdown code fences around the JSON
// but nothing else.
func parseClassification(raw string) (*model.QueryClassification, error) {
	cleaned := stripFences(raw)
	var c model.QueryClassification
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrClassificationParse, err)
	}
	if c.Intent == "" {
		c.Intent = model.IntentGeneral
	}
	return &c, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func topNamespaces(routes []model.NamespaceRoute, max int) []string {
	out := make([]string, 0, max)
	for _, r := range routes {
		out = append(out, r.Namespace)
		if len(out) >= max {
			break
		}
	}
	return out
}

func retrievalReasoning(docs int) string {
	if docs > 0 {
		return fmt.Sprintf("found %d relevant documents", docs)
	}
	return "no documents matched, falling back to web search"
}

func chainReasoning(steps []model.ChainStep) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		parts = append(parts, fmt.Sprintf("Step %d: %s", s.Step, s.Reasoning))
	}
	return strings.Join(parts, "; ")
}

// confidence weighs completed steps at 70% and document grounding at
// 30%; web-only context earns no grounding bonus.
func confidence(steps []model.ChainStep, retrievalHit bool) float64 {
	completed := 0
	for _, s := range steps {
		if s.Response != "" {
			completed++
		}
	}
	c := 0.7 * float64(completed) / totalSteps
	if retrievalHit {
		c += 0.3
	}
	if c > 1 {
		c = 1
	}
	return c
}

func webCitations(web *websearch.Result) []websearch.Citation {
	if web == nil {
		return nil
	}
	return web.Citations
}

func buildSources(results []model.SearchResult, citations []websearch.Citation) []model.Source {
	sources := make([]model.Source, 0, len(results)+len(citations))
	for _, r := range results {
		sources = append(sources, model.Source{
			Name:           r.DocumentName,
			URL:            r.WebViewLink,
			RelevanceScore: r.Score,
			Snippet:        clip(r.Content, 200),
			Type:           sourceType(r.MimeType),
		})
	}
	for _, c := range citations {
		sources = append(sources, model.Source{
			Name: c.Title,
			URL:  c.URL,
			Type: "web",
		})
	}
	return sources
}

func sourceType(mimeType string) string {
	switch {
	case mimeType == "application/pdf":
		return "pdf"
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "text/"):
		return "text"
	default:
		return "document"
	}
}

func reasoningOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func lastTurns(history []ai.Message, n int) []ai.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

func deref(in []*model.SearchResult) []model.SearchResult {
	out := make([]model.SearchResult, 0, len(in))
	for _, r := range in {
		out = append(out, *r)
	}
	return out
}
