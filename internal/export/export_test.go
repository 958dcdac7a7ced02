package export

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/keywordpulse/backend/internal/model"
)

func sampleItems() []model.ScoredItem {
	created := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	return []model.ScoredItem{
		{
			Seq: 0,
			Item: model.RawItem{
				ID:          "abc",
				Container:   "r/golang",
				Author:      "gopher",
				Title:       "golang generics deep dive",
				Body:        "long writeup",
				Score:       120,
				UpvoteRatio: 0.97,
				Comments:    30,
				CreatedAt:   created,
				Permalink:   "https://reddit.com/r/golang/comments/abc/",
			},
			Match: model.MatchResult{
				Keywords: []string{"golang"},
				Hits: map[string]model.KeywordHit{
					"golang": {Found: true, TitleCount: 1},
				},
				Density: 4.2,
			},
			Scores: model.ScoreBundle{
				Relevance:  &model.RelevanceScore{Score: 88.5, MatchCount: 1},
				Sentiment:  &model.SentimentScore{Class: model.SentimentPositive, Confidence: 0.8, Polarity: 0.6},
				Engagement: &model.EngagementScore{Rate: 12.5, Quality: 6.1, AgeHours: 14.4},
				Content:    &model.ContentScore{WordCount: 2, SentenceCount: 1, Readability: 6, Type: model.ContentText},
				Spam:       &model.SpamScore{Class: model.SpamLow, Probability: 3.2},
			},
		},
	}
}

func sampleStats() model.SummaryStats {
	return model.SummaryStats{
		Total:              1,
		DistinctContainers: 1,
		KeywordTotals:      map[string]int{"golang": 1},
		SentimentCounts:    map[model.SentimentClass]int{model.SentimentPositive: 1},
		SpamCounts:         map[model.SpamClass]int{model.SpamLow: 1},
		MeanEngagement:     12.5,
		P50Engagement:      12.5,
		P90Engagement:      12.5,
		MeanQuality:        6.1,
		MeanRelevance:      88.5,
		MeanWordCount:      2,
		TotalComments:      30,
		HasData:            true,
	}
}

func sampleMeta() Metadata {
	return Metadata{
		RunID:       "run-1",
		Keywords:    []string{"golang"},
		Sort:        "relevance",
		Container:   "golang",
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestExcelExporterWritesWorkbook(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	err := NewExcelExporter().Export(path, sampleItems(), sampleStats(), sampleMeta())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Results", "Summary"}, f.GetSheetList())

	title, err := f.GetCellValue("Results", "A2")
	require.NoError(t, err)
	assert.Equal(t, "golang generics deep dive", title)

	header, err := f.GetCellValue("Results", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Title", header)

	runID, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
}

func TestSQLiteExporterWritesRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.sqlite")
	err := NewSQLiteExporter().Export(path, sampleItems(), sampleStats(), sampleMeta())
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var runs int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs))
	assert.Equal(t, 1, runs)

	var title string
	var relevance float64
	require.NoError(t, db.QueryRow(
		"SELECT title, relevance FROM items WHERE run_id = ?", "run-1",
	).Scan(&title, &relevance))
	assert.Equal(t, "golang generics deep dive", title)
	assert.InDelta(t, 88.5, relevance, 0.001)

	var total float64
	require.NoError(t, db.QueryRow(
		"SELECT value FROM summary WHERE run_id = ? AND metric = ?", "run-1", "total_items",
	).Scan(&total))
	assert.InDelta(t, 1.0, total, 0.001)
}

func TestSQLiteExporterNullDimensions(t *testing.T) {
	t.Parallel()

	items := sampleItems()
	items[0].Scores.Sentiment = nil
	items[0].Scores.Spam = nil

	path := filepath.Join(t.TempDir(), "out.sqlite")
	require.NoError(t, NewSQLiteExporter().Export(path, items, sampleStats(), sampleMeta()))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var sentiment sql.NullString
	require.NoError(t, db.QueryRow("SELECT sentiment FROM items").Scan(&sentiment))
	assert.False(t, sentiment.Valid)
}

func TestManagerDispatch(t *testing.T) {
	t.Parallel()

	manager := NewManager(t.TempDir(), zap.NewNop(), NewSQLiteExporter(), NewExcelExporter())

	assert.ElementsMatch(t, []string{"sqlite", "excel"}, manager.Formats())

	path, err := manager.Write("sqlite", sampleItems(), sampleStats(), sampleMeta())
	require.NoError(t, err)
	assert.Contains(t, path, "run-1")
	assert.Contains(t, path, ".sqlite")

	_, err = manager.Write("csv", nil, model.SummaryStats{}, sampleMeta())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestManagerExcelExtension(t *testing.T) {
	t.Parallel()

	manager := NewManager(t.TempDir(), zap.NewNop(), NewExcelExporter())

	path, err := manager.Write("excel", sampleItems(), sampleStats(), sampleMeta())
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))
}
