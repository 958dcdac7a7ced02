// Package scoring computes the multi-dimensional score profile for
// matched items. Every scorer is a pure function of the item, its match
// result and the scoring wall-clock; no scorer reads another item in
// the batch, so items can be scored in any order or in parallel.
package scoring

import (
	"time"

	"github.com/keywordpulse/backend/internal/model"
)

// Scorer fills one dimension of the bundle.
type Scorer interface {
	Name() string
	Score(item model.RawItem, match model.MatchResult, now time.Time, bundle *model.ScoreBundle)
}

// Config carries the tunable constants shared by the scorers.
type Config struct {
	NeutralBand         float64
	DecayConstant       float64
	RelevanceSaturation float64
	TitleWeight         float64
	SpamMediumThreshold float64
	SpamHighThreshold   float64
}

func DefaultConfig() Config {
	return Config{
		NeutralBand:         0.1,
		DecayConstant:       1.0 / 24.0,
		RelevanceSaturation: 30.0,
		TitleWeight:         10.0,
		SpamMediumThreshold: 33.0,
		SpamHighThreshold:   66.0,
	}
}

// Engine composes a set of scorers into one bundle producer.
type Engine struct {
	scorers []Scorer
}

func NewEngine(scorers ...Scorer) *Engine {
	return &Engine{scorers: scorers}
}

// NewDefaultEngine wires all five dimensions.
func NewDefaultEngine(cfg Config) *Engine {
	return NewEngine(
		NewRelevanceScorer(cfg.TitleWeight, cfg.RelevanceSaturation),
		NewSentimentScorer(cfg.NeutralBand),
		NewEngagementScorer(cfg.DecayConstant),
		NewContentScorer(),
		NewSpamScorer(cfg.SpamMediumThreshold, cfg.SpamHighThreshold),
	)
}

// Score evaluates every configured dimension. Dimensions whose scorer is
// absent stay nil in the bundle.
func (e *Engine) Score(item model.RawItem, match model.MatchResult, now time.Time) model.ScoreBundle {
	var bundle model.ScoreBundle
	for _, scorer := range e.scorers {
		scorer.Score(item, match, now, &bundle)
	}
	return bundle
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
