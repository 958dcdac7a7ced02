package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/jonreiter/govader"

	"github.com/keywordpulse/backend/internal/model"
)

// SentimentScorer classifies title+body text with a VADER lexicon.
// Polarity inside the symmetric neutral band classifies as neutral
// regardless of subjectivity; confidence is zero exactly at the band
// boundary and grows with the distance from it.
type SentimentScorer struct {
	neutralBand float64
	analyzer    *govader.SentimentIntensityAnalyzer
}

func NewSentimentScorer(neutralBand float64) *SentimentScorer {
	if neutralBand <= 0 {
		neutralBand = 0.1
	}
	return &SentimentScorer{
		neutralBand: neutralBand,
		analyzer:    govader.NewSentimentIntensityAnalyzer(),
	}
}

func (s *SentimentScorer) Name() string { return "sentiment" }

func (s *SentimentScorer) Score(item model.RawItem, _ model.MatchResult, _ time.Time, bundle *model.ScoreBundle) {
	text := strings.TrimSpace(item.Title + " " + item.Body)
	if text == "" {
		bundle.Sentiment = neutralDefault()
		return
	}

	polarity, subjectivity, ok := s.analyze(text)
	if !ok {
		bundle.Sentiment = neutralDefault()
		return
	}

	bundle.Sentiment = &model.SentimentScore{
		Class:        s.classify(polarity),
		Confidence:   s.confidence(polarity),
		Polarity:     polarity,
		Subjectivity: subjectivity,
	}
}

// analyze shields the pipeline from lexicon panics on degenerate input;
// one bad item degrades to the neutral default instead of failing the
// whole batch.
func (s *SentimentScorer) analyze(text string) (polarity, subjectivity float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	scores := s.analyzer.PolarityScores(text)
	polarity = clamp(scores.Compound, -1, 1)
	subjectivity = clamp(scores.Positive+scores.Negative, 0, 1)
	return polarity, subjectivity, true
}

func (s *SentimentScorer) classify(polarity float64) model.SentimentClass {
	switch {
	case polarity > s.neutralBand:
		return model.SentimentPositive
	case polarity < -s.neutralBand:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// confidence rescales the distance of |polarity| from the band boundary
// into [0,1]. Outside the band it grows toward the extremes; inside it
// grows toward zero polarity, where "neutral" is most certain.
func (s *SentimentScorer) confidence(polarity float64) float64 {
	abs := math.Abs(polarity)
	if abs >= s.neutralBand {
		if s.neutralBand >= 1 {
			return 1
		}
		return clamp((abs-s.neutralBand)/(1-s.neutralBand), 0, 1)
	}
	return clamp((s.neutralBand-abs)/s.neutralBand, 0, 1)
}

func neutralDefault() *model.SentimentScore {
	return &model.SentimentScore{
		Class:        model.SentimentNeutral,
		Confidence:   0.5,
		Polarity:     0,
		Subjectivity: 0,
	}
}
