package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keywordpulse/backend/internal/model"
)

func TestEngagementFormulas(t *testing.T) {
	t.Parallel()

	scorer := NewEngagementScorer(1.0 / 24.0)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	item := model.RawItem{
		Score:       100,
		Comments:    50,
		UpvoteRatio: 0.9,
		CreatedAt:   now.Add(-10 * time.Hour),
	}

	var bundle model.ScoreBundle
	scorer.Score(item, model.MatchResult{}, now, &bundle)

	eng := bundle.Engagement
	require.NotNil(t, eng)

	// (100 + 2*50) / 10h
	assert.InDelta(t, 20.0, eng.Rate, 0.001)
	assert.InDelta(t, 20.0*math.Exp(-10.0/24.0), eng.Virality, 0.001)
	// 10h is inside the 24h window: 1.5x multiplier.
	assert.InDelta(t, 30.0, eng.TrendingPotential, 0.001)
	// (100*0.9 + 50) / 11 = 12.7, clamped to 10.
	assert.InDelta(t, 10.0, eng.Quality, 0.001)
	// (50/101) * (1 - |0.9-0.5|*2)
	assert.InDelta(t, (50.0/101.0)*0.2, eng.Controversy, 0.001)
	assert.InDelta(t, 10.0, eng.ScorePerHour, 0.001)
	assert.InDelta(t, 5.0, eng.CommentsPerHour, 0.001)
	assert.InDelta(t, 10.0, eng.AgeHours, 0.001)
	assert.InDelta(t, 10.0/24.0, eng.AgeDays, 0.001)
}

func TestEngagementZeroAgeUsesEpsilon(t *testing.T) {
	t.Parallel()

	scorer := NewEngagementScorer(1.0 / 24.0)
	now := time.Now()

	var bundle model.ScoreBundle
	scorer.Score(model.RawItem{
		Score:     10,
		CreatedAt: now,
	}, model.MatchResult{}, now, &bundle)

	eng := bundle.Engagement
	require.NotNil(t, eng)
	assert.InDelta(t, 0.1, eng.AgeHours, 0.001)
	assert.InDelta(t, 100.0, eng.Rate, 0.001)
	assert.False(t, math.IsInf(eng.Rate, 1))
}

func TestEngagementTrendingMultipliers(t *testing.T) {
	t.Parallel()

	scorer := NewEngagementScorer(1.0 / 24.0)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		age        time.Duration
		multiplier float64
	}{
		{"very recent gets 2x", 3 * time.Hour, 2.0},
		{"recent gets 1.5x", 20 * time.Hour, 1.5},
		{"old gets no boost", 48 * time.Hour, 1.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var bundle model.ScoreBundle
			scorer.Score(model.RawItem{
				Score:     60,
				Comments:  0,
				CreatedAt: now.Add(-tt.age),
			}, model.MatchResult{}, now, &bundle)

			eng := bundle.Engagement
			require.NotNil(t, eng)
			assert.InDelta(t, eng.Rate*tt.multiplier, eng.TrendingPotential, 0.001)
		})
	}
}

func TestEngagementControversyPeaksAtEvenSplit(t *testing.T) {
	t.Parallel()

	scorer := NewEngagementScorer(1.0 / 24.0)
	now := time.Now()

	controversyAt := func(ratio float64) float64 {
		var bundle model.ScoreBundle
		scorer.Score(model.RawItem{
			Score:       50,
			Comments:    100,
			UpvoteRatio: ratio,
			CreatedAt:   now.Add(-5 * time.Hour),
		}, model.MatchResult{}, now, &bundle)
		return bundle.Engagement.Controversy
	}

	assert.Greater(t, controversyAt(0.5), controversyAt(0.7))
	assert.Greater(t, controversyAt(0.7), controversyAt(0.95))
	assert.InDelta(t, 0.0, controversyAt(1.0), 0.001)
}

func TestEngagementControversyRequiresVotes(t *testing.T) {
	t.Parallel()

	scorer := NewEngagementScorer(1.0 / 24.0)
	now := time.Now()

	var bundle model.ScoreBundle
	scorer.Score(model.RawItem{
		Score:     0,
		Comments:  100,
		CreatedAt: now.Add(-5 * time.Hour),
	}, model.MatchResult{}, now, &bundle)

	assert.Zero(t, bundle.Engagement.Controversy)
}

func TestEngagementViralityDecaysWithAge(t *testing.T) {
	t.Parallel()

	scorer := NewEngagementScorer(1.0 / 24.0)
	now := time.Now()

	viralityAt := func(age time.Duration) float64 {
		var bundle model.ScoreBundle
		scorer.Score(model.RawItem{
			Score:     240,
			CreatedAt: now.Add(-age),
		}, model.MatchResult{}, now, &bundle)
		return bundle.Engagement.Virality
	}

	assert.Greater(t, viralityAt(1*time.Hour), viralityAt(12*time.Hour))
	assert.Greater(t, viralityAt(12*time.Hour), viralityAt(48*time.Hour))
}
