package scoring

import (
	"time"

	"github.com/keywordpulse/backend/internal/model"
)

const (
	titleStartBonus    = 15.0
	titlePresenceBonus = 5.0
	bodyHitWeight      = 2.0
	bodyHitCap         = 10.0
	earlyBodyBonus     = 3.0
	earlyBodyWindow    = 100
)

// RelevanceScorer turns match counts into a 0-100 relevance figure.
// Title hits outweigh body hits by titleWeight; the weighted point sum
// saturates at saturation points per keyword. Ties between items must be
// broken on MatchCount, not the normalized score.
type RelevanceScorer struct {
	titleWeight float64
	saturation  float64
}

func NewRelevanceScorer(titleWeight, saturation float64) *RelevanceScorer {
	if titleWeight <= 0 {
		titleWeight = 10.0
	}
	if saturation <= 0 {
		saturation = 30.0
	}
	return &RelevanceScorer{titleWeight: titleWeight, saturation: saturation}
}

func (s *RelevanceScorer) Name() string { return "relevance" }

func (s *RelevanceScorer) Score(item model.RawItem, match model.MatchResult, _ time.Time, bundle *model.ScoreBundle) {
	points := 0.0
	matchCount := 0

	for _, kw := range match.Keywords {
		hit := match.Hits[kw]
		if !hit.Found {
			continue
		}

		kwPoints := 0.0
		if hit.TitleCount > 0 {
			kwPoints += float64(hit.TitleCount) * s.titleWeight
			kwPoints += titlePresenceBonus
			if len(hit.TitleOffsets) > 0 && hit.TitleOffsets[0] == 0 {
				kwPoints += titleStartBonus
			}
		}
		if hit.BodyCount > 0 {
			bodyPoints := float64(hit.BodyCount) * bodyHitWeight
			if bodyPoints > bodyHitCap {
				bodyPoints = bodyHitCap
			}
			kwPoints += bodyPoints
			if len(hit.BodyOffsets) > 0 && hit.BodyOffsets[0] < earlyBodyWindow {
				kwPoints += earlyBodyBonus
			}
		}

		points += kwPoints
		matchCount += hit.TitleCount + hit.BodyCount
	}

	normalized := 0.0
	if len(match.Keywords) > 0 {
		maxPoints := float64(len(match.Keywords)) * s.saturation
		normalized = clamp(points/maxPoints*100, 0, 100)
	}

	bundle.Relevance = &model.RelevanceScore{
		Score:      normalized,
		RawPoints:  points,
		MatchCount: matchCount,
	}
}
