package search

import (
	"math"
	"strings"
	"time"

	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/model"
)

const recencyWindow = 30 * 24 * time.Hour

// boostedCategories get the category multiplier: the material sales
// conversations reach for most.
var boostedCategories = map[string]struct{}{
	"rates":      {},
	"processing": {},
	"comparison": {},
	"setup":      {},
}

// Scorer ranks documents against a query using weighted title, content,
// and vocabulary signals, then multiplies in document-level boosts.
type Scorer struct {
	cfg config.SearchConfig
	now func() time.Time
}

func NewScorer(cfg config.SearchConfig) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// Score returns the final relevance in [0, ~2] plus its breakdown.
// Zero means no signal matched at all.
func (s *Scorer) Score(query string, doc *model.DocumentText) (float64, model.ScoreSignals) {
	words := queryWords(query)
	if len(words) == 0 {
		return 0, model.ScoreSignals{}
	}
	expanded := ExpandQuery(query)

	signals := model.ScoreSignals{
		Title:   s.titleScore(words, doc.Name),
		Content: s.contentScore(words, doc.Content),
		Keyword: s.keywordScore(words, expanded, doc),
		Boost:   s.boostFactor(query, doc),
	}
	base := signals.Title*s.cfg.TitleShare +
		signals.Content*s.cfg.ContentShare +
		signals.Keyword*s.cfg.KeywordShare
	return base * signals.Boost, signals
}

// titleScore rewards exact word hits over substring hits, with a
// multiplier when more than one query word lands exactly.
func (s *Scorer) titleScore(words []string, name string) float64 {
	title := strings.ToLower(name)
	titleWords := make(map[string]struct{})
	for _, w := range tokenize(title) {
		titleWords[w] = struct{}{}
	}
	var score float64
	exact := 0
	for _, w := range words {
		if _, ok := titleWords[w]; ok {
			score += 1.0
			exact++
		} else if strings.Contains(title, w) {
			score += 0.5
		}
	}
	if exact > 1 {
		score *= 1.5
	}
	score /= float64(len(words))
	return math.Min(score, 1.0)
}

// contentScore caps per-word occurrence credit so a term repeated a
// hundred times counts no more than five hits, and damps long
// documents logarithmically.
func (s *Scorer) contentScore(words []string, content string) float64 {
	if content == "" {
		return 0
	}
	lower := strings.ToLower(content)
	var score float64
	for _, w := range words {
		occurrences := strings.Count(lower, w)
		score += math.Min(float64(occurrences)*0.1, 0.5)
	}
	score /= math.Log(float64(len(content)) + 1)
	return math.Min(score, 1.0)
}

// keywordScore credits vocabulary synonyms found in the document's
// descriptive fields.
func (s *Scorer) keywordScore(words []string, expanded []string, doc *model.DocumentText) float64 {
	haystack := strings.ToLower(doc.Name + " " + doc.Category + " " + strings.Join(doc.Tags, " ") + " " + doc.Description)
	original := make(map[string]struct{}, len(words))
	for _, w := range words {
		original[w] = struct{}{}
	}
	var score float64
	for _, term := range expanded {
		if len(term) <= 2 {
			continue
		}
		if _, ok := original[term]; ok {
			continue
		}
		if strings.Contains(haystack, term) {
			score += 0.2
		}
	}
	return math.Min(score, 1.0)
}

func (s *Scorer) boostFactor(query string, doc *model.DocumentText) float64 {
	boost := 1.0
	if s.now().Sub(time.UnixMilli(doc.Mtime)) < recencyWindow {
		boost *= s.cfg.RecencyBoost
	}
	if doc.ViewCount > s.cfg.EngagementThreshold {
		boost *= s.cfg.EngagementBoost
	}
	if categoryBoosted(query, doc.Category) {
		boost *= s.cfg.CategoryBoost
	}
	return boost
}

// categoryBoosted fires when the document sits in a high-value
// category, or when the query names one of those categories itself.
func categoryBoosted(query, category string) bool {
	if _, ok := boostedCategories[strings.ToLower(category)]; ok {
		return true
	}
	lowerQuery := strings.ToLower(query)
	for cat := range boostedCategories {
		if strings.Contains(lowerQuery, cat) {
			return true
		}
	}
	return false
}

// queryWords drops tokens too short to be meaningful search terms.
func queryWords(query string) []string {
	all := tokenize(query)
	out := make([]string, 0, len(all))
	for _, w := range all {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}
