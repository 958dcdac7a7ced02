// Package model holds the immutable records that flow through the scan
// pipeline: raw source items, keyword match results, score bundles and the
// final summary statistics.
package model

import "time"

// RawItem is a single post fetched from the content source. It is never
// mutated after the adapter builds it; ID is the sole deduplication key.
type RawItem struct {
	ID          string    `json:"id"`
	Container   string    `json:"container"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Score       int       `json:"score"`
	UpvoteRatio float64   `json:"upvote_ratio"`
	Comments    int       `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`
	NSFW        bool      `json:"nsfw"`
	Spoiler     bool      `json:"spoiler"`
	Permalink   string    `json:"permalink"`
	ExternalURL string    `json:"external_url,omitempty"`
	Flair       string    `json:"flair,omitempty"`
	ContentHint string    `json:"content_hint,omitempty"`
}

// KeywordHit records where and how often one keyword matched an item.
type KeywordHit struct {
	Found        bool  `json:"found"`
	TitleCount   int   `json:"title_count"`
	BodyCount    int   `json:"body_count"`
	TitleOffsets []int `json:"title_offsets,omitempty"`
	BodyOffsets  []int `json:"body_offsets,omitempty"`
}

// MatchResult maps each configured keyword to its hits against one item.
// Keywords preserves the caller-supplied order.
type MatchResult struct {
	Keywords       []string              `json:"keywords"`
	Hits           map[string]KeywordHit `json:"hits"`
	Density        float64               `json:"density"`
	KeywordDensity map[string]float64    `json:"keyword_density,omitempty"`
}

// Matched reports whether any keyword hit the item at all.
func (m MatchResult) Matched() bool {
	for _, hit := range m.Hits {
		if hit.Found {
			return true
		}
	}
	return false
}

// TotalHits is the absolute occurrence count across title and body,
// used as the relevance tie-breaker.
func (m MatchResult) TotalHits() int {
	total := 0
	for _, hit := range m.Hits {
		total += hit.TitleCount + hit.BodyCount
	}
	return total
}

// MatchedKeywords returns the keywords that hit, in caller order.
func (m MatchResult) MatchedKeywords() []string {
	var matched []string
	for _, kw := range m.Keywords {
		if m.Hits[kw].Found {
			matched = append(matched, kw)
		}
	}
	return matched
}

type SentimentClass string

const (
	SentimentPositive SentimentClass = "positive"
	SentimentNegative SentimentClass = "negative"
	SentimentNeutral  SentimentClass = "neutral"
)

type SpamClass string

const (
	SpamLow    SpamClass = "low"
	SpamMedium SpamClass = "medium"
	SpamHigh   SpamClass = "high"
)

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentLink  ContentType = "link"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
)

// RelevanceScore is the normalized keyword-relevance dimension.
type RelevanceScore struct {
	Score      float64 `json:"score"`       // 0-100
	RawPoints  float64 `json:"raw_points"`  // pre-normalization weighted points
	MatchCount int     `json:"match_count"` // absolute hit count, tie-breaker
}

// SentimentScore classifies the item's combined title+body text.
type SentimentScore struct {
	Class        SentimentClass `json:"class"`
	Confidence   float64        `json:"confidence"`   // 0-1
	Polarity     float64        `json:"polarity"`     // -1..1
	Subjectivity float64        `json:"subjectivity"` // 0..1
}

// EngagementScore captures time-sensitive interaction metrics.
type EngagementScore struct {
	Rate              float64 `json:"rate"`
	Virality          float64 `json:"virality"`
	TrendingPotential float64 `json:"trending_potential"`
	Quality           float64 `json:"quality"` // 0-10
	Controversy       float64 `json:"controversy"`
	ScorePerHour      float64 `json:"score_per_hour"`
	CommentsPerHour   float64 `json:"comments_per_hour"`
	AgeHours          float64 `json:"age_hours"`
	AgeDays           float64 `json:"age_days"`
}

// ContentScore describes the textual quality of the item.
type ContentScore struct {
	WordCount       int         `json:"word_count"`
	SentenceCount   int         `json:"sentence_count"`
	Readability     float64     `json:"readability"` // avg words per sentence
	Type            ContentType `json:"type"`
	HasExternalLink bool        `json:"has_external_link"`
}

// SpamScore is the heuristic spam likelihood of the item.
type SpamScore struct {
	Class       SpamClass `json:"class"`
	Probability float64   `json:"probability"` // 0-100
}

// ScoreBundle aggregates the independent scoring dimensions for one item.
// A nil dimension means the corresponding scorer was not configured; the
// filter pipeline rejects predicates that reference a nil dimension.
type ScoreBundle struct {
	Relevance  *RelevanceScore  `json:"relevance,omitempty"`
	Sentiment  *SentimentScore  `json:"sentiment,omitempty"`
	Engagement *EngagementScore `json:"engagement,omitempty"`
	Content    *ContentScore    `json:"content,omitempty"`
	Spam       *SpamScore       `json:"spam,omitempty"`
}

// ScoredItem is the unit handed to the filter pipeline and, if it
// survives, to the aggregator and export collaborator. Seq is the fetch
// sequence number used to restore source order after parallel scoring.
type ScoredItem struct {
	Seq    int         `json:"-"`
	Item   RawItem     `json:"item"`
	Match  MatchResult `json:"match"`
	Scores ScoreBundle `json:"scores"`
}

// SummaryStats is the read-only reduction over the surviving items.
// HasData distinguishes a genuinely empty result set from zero values.
type SummaryStats struct {
	Total              int                    `json:"total"`
	DistinctContainers int                    `json:"distinct_containers"`
	KeywordTotals      map[string]int         `json:"keyword_totals"`
	SentimentCounts    map[SentimentClass]int `json:"sentiment_counts"`
	SpamCounts         map[SpamClass]int      `json:"spam_counts"`
	MeanEngagement     float64                `json:"mean_engagement"`
	P50Engagement      float64                `json:"p50_engagement"`
	P90Engagement      float64                `json:"p90_engagement"`
	MeanQuality        float64                `json:"mean_quality"`
	MeanRelevance      float64                `json:"mean_relevance"`
	MeanDensity        float64                `json:"mean_density"`
	MeanWordCount      float64                `json:"mean_word_count"`
	TotalComments      int                    `json:"total_comments"`
	HasData            bool                   `json:"has_data"`
}
