package search

import (
	"testing"
	"time"

	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/stretchr/testify/require"
)

func scorerConfig() config.SearchConfig {
	return config.SearchConfig{
		RecencyBoost:        1.2,
		EngagementBoost:     1.1,
		CategoryBoost:       1.3,
		EngagementThreshold: 10,
		TitleShare:          0.4,
		ContentShare:        0.4,
		KeywordShare:        0.2,
	}
}

func doc(name, content string) *model.DocumentText {
	return &model.DocumentText{
		Document: model.Document{ID: "d1", Name: name, Mtime: time.Now().Add(-60 * 24 * time.Hour).UnixMilli()},
		Content:  content,
	}
}

func TestScoreExactTitleBeatsPartial(t *testing.T) {
	s := NewScorer(scorerConfig())
	exact, _ := s.Score("tsys rates", doc("TSYS Rates Overview", ""))
	partial, _ := s.Score("tsys rates", doc("tsysco ratesheet", ""))
	require.Greater(t, exact, partial)
}

func TestScoreContentOccurrences(t *testing.T) {
	s := NewScorer(scorerConfig())
	rich, _ := s.Score("interchange", doc("doc", "interchange rules and interchange categories for interchange pricing"))
	sparse, _ := s.Score("interchange", doc("doc", "one mention of interchange in a longer body of unrelated material about terminals"))
	require.Greater(t, rich, sparse)
}

func TestScoreNoMatchIsZero(t *testing.T) {
	s := NewScorer(scorerConfig())
	score, signals := s.Score("chargeback dispute", doc("Terminal Setup Guide", "hardware installation steps"))
	require.Zero(t, score)
	require.Zero(t, signals.Title)
	require.Zero(t, signals.Content)
}

func TestScoreRecencyBoost(t *testing.T) {
	s := NewScorer(scorerConfig())
	fresh := doc("TSYS Fees", "fees content")
	fresh.Mtime = time.Now().UnixMilli()
	stale := doc("TSYS Fees", "fees content")

	freshScore, freshSignals := s.Score("tsys fees", fresh)
	staleScore, _ := s.Score("tsys fees", stale)
	require.Greater(t, freshScore, staleScore)
	require.InDelta(t, 1.2, freshSignals.Boost, 0.001)
}

func TestScoreQueryCategoryMentionBoosts(t *testing.T) {
	s := NewScorer(scorerConfig())
	d := doc("TSYS Rates", "rates content")
	d.Category = "vendor" // not a high-value category on its own

	_, signals := s.Score("tsys rates", d)
	// The query names "rates", so the category boost still fires.
	require.InDelta(t, 1.3, signals.Boost, 0.001)
}

func TestScoreStopwordsEarnNoCredit(t *testing.T) {
	s := NewScorer(scorerConfig())
	score, signals := s.Score("is a tsys", doc("is a primer", "it is a body full of a and is"))
	require.Zero(t, score)
	require.Zero(t, signals.Title)
	require.Zero(t, signals.Content)
}

func TestScoreCategoryAndEngagementBoosts(t *testing.T) {
	s := NewScorer(scorerConfig())
	d := doc("Rate Comparison", "rates versus rates")
	d.Category = "comparison"
	d.ViewCount = 25

	_, signals := s.Score("rates", d)
	// 1.3 category x 1.1 engagement.
	require.InDelta(t, 1.43, signals.Boost, 0.001)
}

func TestScoreVocabularyKeywordSignal(t *testing.T) {
	s := NewScorer(scorerConfig())
	// Query says "rates", document says "pricing": only the expanded
	// vocabulary connects them.
	score, signals := s.Score("rates", doc("Merchant Pricing Sheet", "pricing details for merchants"))
	require.Greater(t, score, 0.0)
	require.Greater(t, signals.Keyword, 0.0)
}

func TestExpandQueryKeepsOriginalFirst(t *testing.T) {
	expanded := ExpandQuery("compare rates")
	require.Equal(t, "compare", expanded[0])
	require.Equal(t, "rates", expanded[1])
	require.Contains(t, expanded, "pricing")
	require.Contains(t, expanded, "versus")
}
