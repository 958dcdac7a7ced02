// Package pipeline applies caller-supplied post-hoc predicates to scored
// items. Predicates commute; the fixed application order exists only to
// drop cheap rejections early.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/keywordpulse/backend/internal/metrics"
	"github.com/keywordpulse/backend/internal/model"
)

// ErrUnsupportedFilter is returned when a predicate references a score
// dimension that was not computed for the batch.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Predicates holds the optional post-hoc filters. A nil/zero field is a
// pass-through.
type Predicates struct {
	WindowDays    int
	MinScore      *int
	MinComments   *int
	MinEngagement *float64
	ExcludeSpam   bool
	Sentiment     model.SentimentClass
}

// Active reports whether any predicate is configured.
func (p Predicates) Active() bool {
	return p.WindowDays > 0 || p.MinScore != nil || p.MinComments != nil ||
		p.MinEngagement != nil || p.ExcludeSpam || p.Sentiment != ""
}

// Apply filters the items in a fixed order: age window, minimum score,
// minimum comments, minimum engagement, spam exclusion, sentiment class.
// A predicate that needs an unscored dimension fails with
// ErrUnsupportedFilter instead of being silently ignored.
func Apply(items []model.ScoredItem, preds Predicates, now time.Time) ([]model.ScoredItem, error) {
	if err := validate(items, preds); err != nil {
		return nil, err
	}

	var cutoff time.Time
	if preds.WindowDays > 0 {
		cutoff = now.AddDate(0, 0, -preds.WindowDays)
	}

	survivors := make([]model.ScoredItem, 0, len(items))
	for _, item := range items {
		if preds.WindowDays > 0 && item.Item.CreatedAt.Before(cutoff) {
			metrics.FilterDrops.WithLabelValues("age_window").Inc()
			continue
		}
		if preds.MinScore != nil && item.Item.Score < *preds.MinScore {
			metrics.FilterDrops.WithLabelValues("min_score").Inc()
			continue
		}
		if preds.MinComments != nil && item.Item.Comments < *preds.MinComments {
			metrics.FilterDrops.WithLabelValues("min_comments").Inc()
			continue
		}
		if preds.MinEngagement != nil && item.Scores.Engagement.Rate < *preds.MinEngagement {
			metrics.FilterDrops.WithLabelValues("min_engagement").Inc()
			continue
		}
		if preds.ExcludeSpam && item.Scores.Spam.Class == model.SpamHigh {
			metrics.FilterDrops.WithLabelValues("spam").Inc()
			continue
		}
		if preds.Sentiment != "" && item.Scores.Sentiment.Class != preds.Sentiment {
			metrics.FilterDrops.WithLabelValues("sentiment").Inc()
			continue
		}
		survivors = append(survivors, item)
	}

	return survivors, nil
}

func validate(items []model.ScoredItem, preds Predicates) error {
	for i := range items {
		scores := items[i].Scores
		if preds.MinEngagement != nil && scores.Engagement == nil {
			return fmt.Errorf("%w: engagement filter requires engagement scoring", ErrUnsupportedFilter)
		}
		if preds.ExcludeSpam && scores.Spam == nil {
			return fmt.Errorf("%w: spam exclusion requires spam scoring", ErrUnsupportedFilter)
		}
		if preds.Sentiment != "" && scores.Sentiment == nil {
			return fmt.Errorf("%w: sentiment filter requires sentiment scoring", ErrUnsupportedFilter)
		}
	}
	return nil
}
