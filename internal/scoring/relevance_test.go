package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keywordpulse/backend/internal/model"
)

func singleHit(keyword string, hit model.KeywordHit) model.MatchResult {
	return model.MatchResult{
		Keywords: []string{keyword},
		Hits:     map[string]model.KeywordHit{keyword: hit},
	}
}

func TestRelevanceTitleStartSaturates(t *testing.T) {
	t.Parallel()

	scorer := NewRelevanceScorer(10, 30)
	var bundle model.ScoreBundle

	// One title hit at offset zero: 10 + 5 presence + 15 start = 30 points,
	// which is exactly the per-keyword saturation.
	match := singleHit("golang", model.KeywordHit{
		Found:        true,
		TitleCount:   1,
		TitleOffsets: []int{0},
	})
	scorer.Score(model.RawItem{}, match, time.Now(), &bundle)

	require.NotNil(t, bundle.Relevance)
	assert.InDelta(t, 100.0, bundle.Relevance.Score, 0.001)
	assert.InDelta(t, 30.0, bundle.Relevance.RawPoints, 0.001)
	assert.Equal(t, 1, bundle.Relevance.MatchCount)
}

func TestRelevanceTitlePresenceWithoutStart(t *testing.T) {
	t.Parallel()

	scorer := NewRelevanceScorer(10, 30)
	var bundle model.ScoreBundle

	match := singleHit("golang", model.KeywordHit{
		Found:        true,
		TitleCount:   1,
		TitleOffsets: []int{7},
	})
	scorer.Score(model.RawItem{}, match, time.Now(), &bundle)

	require.NotNil(t, bundle.Relevance)
	assert.InDelta(t, 15.0, bundle.Relevance.RawPoints, 0.001)
	assert.InDelta(t, 50.0, bundle.Relevance.Score, 0.001)
}

func TestRelevanceBodyHitsAreCapped(t *testing.T) {
	t.Parallel()

	scorer := NewRelevanceScorer(10, 30)

	// 3 body hits: 6 points plus the early-body bonus.
	var few model.ScoreBundle
	scorer.Score(model.RawItem{}, singleHit("redis", model.KeywordHit{
		Found:       true,
		BodyCount:   3,
		BodyOffsets: []int{10, 40, 90},
	}), time.Now(), &few)

	// 50 body hits: weighted points cap at 10 plus the bonus.
	var many model.ScoreBundle
	scorer.Score(model.RawItem{}, singleHit("redis", model.KeywordHit{
		Found:       true,
		BodyCount:   50,
		BodyOffsets: []int{10},
	}), time.Now(), &many)

	assert.InDelta(t, 9.0, few.Relevance.RawPoints, 0.001)
	assert.InDelta(t, 13.0, many.Relevance.RawPoints, 0.001)
	assert.Greater(t, many.Relevance.MatchCount, few.Relevance.MatchCount)
}

func TestRelevanceEarlyBodyBonusWindow(t *testing.T) {
	t.Parallel()

	scorer := NewRelevanceScorer(10, 30)

	var early model.ScoreBundle
	scorer.Score(model.RawItem{}, singleHit("kafka", model.KeywordHit{
		Found:       true,
		BodyCount:   1,
		BodyOffsets: []int{99},
	}), time.Now(), &early)

	var late model.ScoreBundle
	scorer.Score(model.RawItem{}, singleHit("kafka", model.KeywordHit{
		Found:       true,
		BodyCount:   1,
		BodyOffsets: []int{100},
	}), time.Now(), &late)

	assert.InDelta(t, 5.0, early.Relevance.RawPoints, 0.001)
	assert.InDelta(t, 2.0, late.Relevance.RawPoints, 0.001)
}

func TestRelevanceNoMatchScoresZero(t *testing.T) {
	t.Parallel()

	scorer := NewRelevanceScorer(10, 30)
	var bundle model.ScoreBundle

	scorer.Score(model.RawItem{}, singleHit("golang", model.KeywordHit{}), time.Now(), &bundle)

	require.NotNil(t, bundle.Relevance)
	assert.Zero(t, bundle.Relevance.Score)
	assert.Zero(t, bundle.Relevance.MatchCount)
}

func TestRelevanceMoreHitsNeverScoreLower(t *testing.T) {
	t.Parallel()

	scorer := NewRelevanceScorer(10, 30)

	prev := -1.0
	for hits := 1; hits <= 10; hits++ {
		var bundle model.ScoreBundle
		scorer.Score(model.RawItem{}, singleHit("go", model.KeywordHit{
			Found:        true,
			TitleCount:   hits,
			TitleOffsets: []int{5},
		}), time.Now(), &bundle)

		assert.GreaterOrEqual(t, bundle.Relevance.Score, prev)
		prev = bundle.Relevance.Score
	}
}

func TestRelevanceNormalizesAcrossKeywordCount(t *testing.T) {
	t.Parallel()

	scorer := NewRelevanceScorer(10, 30)

	hit := model.KeywordHit{Found: true, TitleCount: 1, TitleOffsets: []int{3}}

	var one model.ScoreBundle
	scorer.Score(model.RawItem{}, singleHit("go", hit), time.Now(), &one)

	var two model.ScoreBundle
	scorer.Score(model.RawItem{}, model.MatchResult{
		Keywords: []string{"go", "rust"},
		Hits:     map[string]model.KeywordHit{"go": hit, "rust": {}},
	}, time.Now(), &two)

	// Same raw points spread over twice the keyword budget.
	assert.InDelta(t, one.Relevance.Score/2, two.Relevance.Score, 0.001)
}
