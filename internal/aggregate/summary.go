// Package aggregate reduces the surviving scored items into summary
// statistics for the export collaborator. The reduction is pure and
// performs no I/O.
package aggregate

import (
	"sort"

	"github.com/keywordpulse/backend/internal/model"
)

// Summarize computes SummaryStats over the final item list. Empty input
// yields all-zero counters with HasData false; no mean or percentile
// ever divides by zero.
func Summarize(items []model.ScoredItem) model.SummaryStats {
	stats := model.SummaryStats{
		KeywordTotals:   make(map[string]int),
		SentimentCounts: make(map[model.SentimentClass]int),
		SpamCounts:      make(map[model.SpamClass]int),
	}

	if len(items) == 0 {
		return stats
	}

	stats.HasData = true
	stats.Total = len(items)

	containers := make(map[string]struct{})
	engagements := make([]float64, 0, len(items))

	var engagementSum, qualitySum, relevanceSum, densitySum, wordSum float64

	for _, item := range items {
		containers[item.Item.Container] = struct{}{}
		stats.TotalComments += item.Item.Comments

		for kw, hit := range item.Match.Hits {
			stats.KeywordTotals[kw] += hit.TitleCount + hit.BodyCount
		}
		densitySum += item.Match.Density

		if s := item.Scores.Sentiment; s != nil {
			stats.SentimentCounts[s.Class]++
		}
		if s := item.Scores.Spam; s != nil {
			stats.SpamCounts[s.Class]++
		}
		if e := item.Scores.Engagement; e != nil {
			engagements = append(engagements, e.Rate)
			engagementSum += e.Rate
			qualitySum += e.Quality
		}
		if r := item.Scores.Relevance; r != nil {
			relevanceSum += r.Score
		}
		if c := item.Scores.Content; c != nil {
			wordSum += float64(c.WordCount)
		}
	}

	stats.DistinctContainers = len(containers)

	n := float64(len(items))
	stats.MeanRelevance = relevanceSum / n
	stats.MeanDensity = densitySum / n
	stats.MeanWordCount = wordSum / n

	if len(engagements) > 0 {
		en := float64(len(engagements))
		stats.MeanEngagement = engagementSum / en
		stats.MeanQuality = qualitySum / en

		sort.Float64s(engagements)
		stats.P50Engagement = percentile(engagements, 50)
		stats.P90Engagement = percentile(engagements, 90)
	}

	return stats
}

// percentile uses nearest-rank on an already sorted slice.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
