package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/keywordpulse/backend/internal/model"
)

// ExcelExporter writes a two-sheet workbook: one row per item plus a
// summary sheet with the aggregate block.
type ExcelExporter struct{}

func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

func (e *ExcelExporter) Format() string {
	return "excel"
}

var resultColumns = []string{
	"Title", "Container", "Author", "Score", "Comments", "Upvote Ratio",
	"Created", "Age Hours", "Matched Keywords", "Keyword Hits",
	"Relevance", "Sentiment", "Sentiment Confidence", "Engagement Rate",
	"Virality", "Trending Potential", "Quality", "Controversy",
	"Word Count", "Readability", "Content Type", "Spam Class",
	"Spam Probability", "Permalink",
}

func (e *ExcelExporter) Export(path string, items []model.ScoredItem, stats model.SummaryStats, meta Metadata) error {
	f := excelize.NewFile()
	defer f.Close()

	const results = "Results"
	if err := f.SetSheetName("Sheet1", results); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for col, name := range resultColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(results, cell, name)
	}
	last, _ := excelize.CoordinatesToCellName(len(resultColumns), 1)
	f.SetCellStyle(results, "A1", last, headerStyle)

	for i, item := range items {
		row := itemRow(item)
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(results, cell, value)
		}
	}
	f.SetColWidth(results, "A", "A", 50)
	f.SetColWidth(results, "X", "X", 60)

	if err := e.writeSummary(f, stats, meta, headerStyle); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func itemRow(item model.ScoredItem) []interface{} {
	raw := item.Item
	row := []interface{}{
		raw.Title,
		raw.Container,
		raw.Author,
		raw.Score,
		raw.Comments,
		raw.UpvoteRatio,
		raw.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	scores := item.Scores
	if eng := scores.Engagement; eng != nil {
		row = append(row, round2(eng.AgeHours))
	} else {
		row = append(row, "")
	}

	row = append(row,
		strings.Join(item.Match.MatchedKeywords(), ", "),
		item.Match.TotalHits(),
	)

	if r := scores.Relevance; r != nil {
		row = append(row, round2(r.Score))
	} else {
		row = append(row, "")
	}
	if s := scores.Sentiment; s != nil {
		row = append(row, string(s.Class), round2(s.Confidence))
	} else {
		row = append(row, "", "")
	}
	if eng := scores.Engagement; eng != nil {
		row = append(row,
			round2(eng.Rate), round2(eng.Virality), round2(eng.TrendingPotential),
			round2(eng.Quality), round2(eng.Controversy),
		)
	} else {
		row = append(row, "", "", "", "", "")
	}
	if c := scores.Content; c != nil {
		row = append(row, c.WordCount, round2(c.Readability), string(c.Type))
	} else {
		row = append(row, "", "", "")
	}
	if sp := scores.Spam; sp != nil {
		row = append(row, string(sp.Class), round2(sp.Probability))
	} else {
		row = append(row, "", "")
	}

	row = append(row, raw.Permalink)
	return row
}

func (e *ExcelExporter) writeSummary(f *excelize.File, stats model.SummaryStats, meta Metadata, headerStyle int) error {
	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Run ID", meta.RunID},
		{"Generated", meta.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Keywords", strings.Join(meta.Keywords, ", ")},
		{"Sort", meta.Sort},
		{"Container", meta.Container},
		{"Partial", meta.Partial},
		{"", ""},
		{"Total Items", stats.Total},
		{"Distinct Containers", stats.DistinctContainers},
		{"Total Comments", stats.TotalComments},
		{"Mean Relevance", round2(stats.MeanRelevance)},
		{"Mean Density", round2(stats.MeanDensity)},
		{"Mean Engagement", round2(stats.MeanEngagement)},
		{"P50 Engagement", round2(stats.P50Engagement)},
		{"P90 Engagement", round2(stats.P90Engagement)},
		{"Mean Quality", round2(stats.MeanQuality)},
		{"Mean Word Count", round2(stats.MeanWordCount)},
	}

	for class, count := range stats.SentimentCounts {
		rows = append(rows, []interface{}{fmt.Sprintf("Sentiment: %s", class), count})
	}
	for class, count := range stats.SpamCounts {
		rows = append(rows, []interface{}{fmt.Sprintf("Spam: %s", class), count})
	}
	for kw, total := range stats.KeywordTotals {
		rows = append(rows, []interface{}{fmt.Sprintf("Keyword hits: %s", kw), total})
	}

	for i, pair := range rows {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valCell, _ := excelize.CoordinatesToCellName(2, i+1)
		f.SetCellValue(summary, keyCell, pair[0])
		f.SetCellValue(summary, valCell, pair[1])
	}
	f.SetColWidth(summary, "A", "A", 30)
	f.SetCellStyle(summary, "A1", "A6", headerStyle)

	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
