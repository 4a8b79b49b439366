package classify

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/errors"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// INamespaceStore is the namespace persistence the router needs.
type INamespaceStore interface {
	Create(ctx context.Context, ns *model.Namespace) error
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Namespace, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// unmatchedPenalty discounts suggestions with no configured namespace
// behind them; they still route so retrieval can try the partition
// before anyone has created it.
const unmatchedPenalty = 0.8

// unmatchedPriority stands in for the configured priority a suggestion
// without a namespace row does not have.
const unmatchedPriority = 50

// Router resolves a classification's suggested namespaces against the
// owner's configured set and orders the resulting routes.
type Router struct {
	store INamespaceStore
}

func NewRouter(store INamespaceStore) *Router {
	return &Router{store: store}
}

// Route resolves each suggested namespace: an exact or partial name
// match carries the configured priority and kind at the classifier's
// confidence; a suggestion with no match still yields a route at
// reduced confidence. Routes come back sorted by priority/100 times
// confidence, best first.
func (r *Router) Route(ctx context.Context, ownerID string, c *model.QueryClassification) ([]model.NamespaceRoute, error) {
	namespaces, err := r.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	routes := make([]model.NamespaceRoute, 0, len(c.SuggestedNamespaces))
	for _, suggestion := range c.SuggestedNamespaces {
		if ns := resolveNamespace(namespaces, suggestion); ns != nil {
			routes = append(routes, model.NamespaceRoute{
				Namespace:  ns.Name,
				Priority:   ns.Priority,
				Kind:       ns.Kind,
				Confidence: c.Confidence,
			})
			continue
		}
		routes = append(routes, model.NamespaceRoute{
			Namespace:  suggestion,
			Priority:   unmatchedPriority,
			Kind:       kindFromNamespace(suggestion),
			Confidence: c.Confidence * unmatchedPenalty,
		})
	}
	sort.SliceStable(routes, func(i, j int) bool { return routeScore(routes[i]) > routeScore(routes[j]) })
	return routes, nil
}

func routeScore(r model.NamespaceRoute) float64 {
	return float64(r.Priority) / 100 * r.Confidence
}

// resolveNamespace prefers an exact name match; failing that, any
// configured namespace containing the suggestion's entity part counts
// as a partial match.
func resolveNamespace(namespaces []*model.Namespace, suggestion string) *model.Namespace {
	for _, ns := range namespaces {
		if ns.Name == suggestion {
			return ns
		}
	}
	_, entityPart, ok := strings.Cut(suggestion, "/")
	if !ok || entityPart == "" {
		return nil
	}
	for _, ns := range namespaces {
		if strings.Contains(ns.Name, entityPart) {
			return ns
		}
	}
	return nil
}

func kindFromNamespace(namespace string) model.NamespaceKind {
	switch category, _, _ := strings.Cut(namespace, "/"); category {
	case "processors":
		return model.NamespaceKindProcessor
	case "gateways":
		return model.NamespaceKindGateway
	case "hardware":
		return model.NamespaceKindHardware
	case "sales":
		return model.NamespaceKindSales
	default:
		return model.NamespaceKindCustom
	}
}

// defaultNamespaces is the starter routing table seeded for a new owner.
var defaultNamespaces = []model.Namespace{
	{Name: "processors/tsys", Kind: model.NamespaceKindProcessor, Priority: 90},
	{Name: "processors/clearent", Kind: model.NamespaceKindProcessor, Priority: 85},
	{Name: "processors/shift4", Kind: model.NamespaceKindProcessor, Priority: 80},
	{Name: "processors/first_data", Kind: model.NamespaceKindProcessor, Priority: 75},
	{Name: "gateways/authorize_net", Kind: model.NamespaceKindGateway, Priority: 70},
	{Name: "gateways/stripe", Kind: model.NamespaceKindGateway, Priority: 65},
	{Name: "gateways/paypal", Kind: model.NamespaceKindGateway, Priority: 60},
	{Name: "hardware/terminals", Kind: model.NamespaceKindHardware, Priority: 55},
	{Name: "hardware/mobile", Kind: model.NamespaceKindHardware, Priority: 50},
	{Name: "hardware/online", Kind: model.NamespaceKindHardware, Priority: 45},
	{Name: "sales/presentations", Kind: model.NamespaceKindSales, Priority: 70},
	{Name: "sales/comparisons", Kind: model.NamespaceKindSales, Priority: 65},
	{Name: "sales/pricing", Kind: model.NamespaceKindSales, Priority: 60},
	{Name: "sales/contracts", Kind: model.NamespaceKindSales, Priority: 55},
}

// EnsureDefaults seeds the starter namespace set for an owner that has
// none. Safe to call on every startup; existing rows are kept.
func (r *Router) EnsureDefaults(ctx context.Context, ownerID string) error {
	count, err := r.store.CountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	created := 0
	for _, ns := range defaultNamespaces {
		row := ns
		row.OwnerID = ownerID
		row.Ctime = now
		if err := r.store.Create(ctx, &row); err != nil {
			if errors.IsConflict(err) {
				continue
			}
			return err
		}
		created++
	}
	logutil.GetLogger(ctx).Info("seeded default namespaces",
		zap.String("owner_id", ownerID), zap.Int("created", created))
	return nil
}
