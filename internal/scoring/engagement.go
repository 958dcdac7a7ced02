package scoring

import (
	"math"
	"time"

	"github.com/keywordpulse/backend/internal/model"
)

const (
	commentWeight  = 2.0
	ageEpsilon     = 0.1
	maxQuality     = 10.0
	veryRecentHrs  = 6.0
	recentHrs      = 24.0
	veryRecentMult = 2.0
	recentMult     = 1.5
)

// EngagementScorer derives rate, virality, quality and controversy from
// the item's vote and comment counts relative to its age. Age is floored
// at an epsilon so freshly posted items never divide by zero.
type EngagementScorer struct {
	decayConstant float64
}

func NewEngagementScorer(decayConstant float64) *EngagementScorer {
	if decayConstant <= 0 {
		decayConstant = 1.0 / 24.0
	}
	return &EngagementScorer{decayConstant: decayConstant}
}

func (s *EngagementScorer) Name() string { return "engagement" }

func (s *EngagementScorer) Score(item model.RawItem, _ model.MatchResult, now time.Time, bundle *model.ScoreBundle) {
	ageHours := now.Sub(item.CreatedAt).Hours()
	if ageHours <= 0 {
		ageHours = ageEpsilon
	}

	score := float64(item.Score)
	comments := float64(item.Comments)

	rate := (score + commentWeight*comments) / ageHours
	virality := rate * math.Exp(-s.decayConstant*ageHours)

	multiplier := 1.0
	switch {
	case ageHours <= veryRecentHrs:
		multiplier = veryRecentMult
	case ageHours <= recentHrs:
		multiplier = recentMult
	}

	quality := rate
	if item.UpvoteRatio > 0 {
		quality = (score*item.UpvoteRatio + comments) / (ageHours + 1)
	}
	quality = clamp(quality, 0, maxQuality)

	controversy := 0.0
	if item.UpvoteRatio > 0 && item.Score > 0 {
		controversy = (comments / (score + 1)) * (1 - math.Abs(item.UpvoteRatio-0.5)*2)
	}

	bundle.Engagement = &model.EngagementScore{
		Rate:              rate,
		Virality:          virality,
		TrendingPotential: rate * multiplier,
		Quality:           quality,
		Controversy:       controversy,
		ScorePerHour:      score / ageHours,
		CommentsPerHour:   comments / ageHours,
		AgeHours:          ageHours,
		AgeDays:           ageHours / 24,
	}
}
