package export

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/keywordpulse/backend/internal/model"
)

// SQLiteExporter writes one database file per run: a runs row, one
// items row per scored item and one summary row per aggregate counter.
type SQLiteExporter struct{}

func NewSQLiteExporter() *SQLiteExporter {
	return &SQLiteExporter{}
}

func (e *SQLiteExporter) Format() string {
	return "sqlite"
}

const exportSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	keywords TEXT NOT NULL,
	sort_mode TEXT NOT NULL,
	container TEXT,
	partial INTEGER NOT NULL,
	generated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
	id TEXT NOT NULL,
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	container TEXT NOT NULL,
	author TEXT,
	title TEXT NOT NULL,
	body TEXT,
	score INTEGER,
	upvote_ratio REAL,
	comments INTEGER,
	created_at INTEGER NOT NULL,
	permalink TEXT,
	matched_keywords TEXT,
	keyword_hits INTEGER,
	keyword_density REAL,
	relevance REAL,
	sentiment TEXT,
	sentiment_confidence REAL,
	polarity REAL,
	engagement_rate REAL,
	virality REAL,
	trending_potential REAL,
	quality REAL,
	controversy REAL,
	word_count INTEGER,
	readability REAL,
	content_type TEXT,
	spam_class TEXT,
	spam_probability REAL,
	PRIMARY KEY (run_id, id),
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_items_run ON items(run_id);
CREATE INDEX IF NOT EXISTS idx_items_relevance ON items(relevance);

CREATE TABLE IF NOT EXISTS summary (
	run_id TEXT NOT NULL,
	metric TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, metric),
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

func (e *SQLiteExporter) Export(path string, items []model.ScoredItem, stats model.SummaryStats, meta Metadata) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(exportSchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	keywordsJSON, _ := json.Marshal(meta.Keywords)
	partial := 0
	if meta.Partial {
		partial = 1
	}
	_, err = tx.Exec(
		`INSERT INTO runs (id, keywords, sort_mode, container, partial, generated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		meta.RunID, string(keywordsJSON), meta.Sort, meta.Container, partial, meta.GeneratedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO items (
			id, run_id, seq, container, author, title, body, score, upvote_ratio,
			comments, created_at, permalink, matched_keywords, keyword_hits,
			keyword_density, relevance, sentiment, sentiment_confidence, polarity,
			engagement_rate, virality, trending_potential, quality, controversy,
			word_count, readability, content_type, spam_class, spam_probability
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if err := insertItem(stmt, meta.RunID, item); err != nil {
			return err
		}
	}

	for metric, value := range summaryRows(stats) {
		_, err := tx.Exec(`INSERT INTO summary (run_id, metric, value) VALUES (?, ?, ?)`, meta.RunID, metric, value)
		if err != nil {
			return fmt.Errorf("failed to insert summary row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}

func insertItem(stmt *sql.Stmt, runID string, item model.ScoredItem) error {
	raw := item.Item
	scores := item.Scores

	var relevance, confidence, polarity, rate, virality, trending, quality, controversy, readability, spamProb sql.NullFloat64
	var sentiment, contentType, spamClass sql.NullString
	var wordCount sql.NullInt64

	if r := scores.Relevance; r != nil {
		relevance = sql.NullFloat64{Float64: r.Score, Valid: true}
	}
	if s := scores.Sentiment; s != nil {
		sentiment = sql.NullString{String: string(s.Class), Valid: true}
		confidence = sql.NullFloat64{Float64: s.Confidence, Valid: true}
		polarity = sql.NullFloat64{Float64: s.Polarity, Valid: true}
	}
	if eng := scores.Engagement; eng != nil {
		rate = sql.NullFloat64{Float64: eng.Rate, Valid: true}
		virality = sql.NullFloat64{Float64: eng.Virality, Valid: true}
		trending = sql.NullFloat64{Float64: eng.TrendingPotential, Valid: true}
		quality = sql.NullFloat64{Float64: eng.Quality, Valid: true}
		controversy = sql.NullFloat64{Float64: eng.Controversy, Valid: true}
	}
	if c := scores.Content; c != nil {
		wordCount = sql.NullInt64{Int64: int64(c.WordCount), Valid: true}
		readability = sql.NullFloat64{Float64: c.Readability, Valid: true}
		contentType = sql.NullString{String: string(c.Type), Valid: true}
	}
	if sp := scores.Spam; sp != nil {
		spamClass = sql.NullString{String: string(sp.Class), Valid: true}
		spamProb = sql.NullFloat64{Float64: sp.Probability, Valid: true}
	}

	_, err := stmt.Exec(
		raw.ID, runID, item.Seq, raw.Container, raw.Author, raw.Title, raw.Body,
		raw.Score, raw.UpvoteRatio, raw.Comments, raw.CreatedAt.Unix(), raw.Permalink,
		strings.Join(item.Match.MatchedKeywords(), ","), item.Match.TotalHits(),
		item.Match.Density, relevance, sentiment, confidence, polarity,
		rate, virality, trending, quality, controversy,
		wordCount, readability, contentType, spamClass, spamProb,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", raw.ID, err)
	}
	return nil
}

func summaryRows(stats model.SummaryStats) map[string]float64 {
	rows := map[string]float64{
		"total_items":         float64(stats.Total),
		"distinct_containers": float64(stats.DistinctContainers),
		"total_comments":      float64(stats.TotalComments),
		"mean_relevance":      stats.MeanRelevance,
		"mean_density":        stats.MeanDensity,
		"mean_engagement":     stats.MeanEngagement,
		"p50_engagement":      stats.P50Engagement,
		"p90_engagement":      stats.P90Engagement,
		"mean_quality":        stats.MeanQuality,
		"mean_word_count":     stats.MeanWordCount,
	}
	for class, count := range stats.SentimentCounts {
		rows["sentiment_"+string(class)] = float64(count)
	}
	for class, count := range stats.SpamCounts {
		rows["spam_"+string(class)] = float64(count)
	}
	for kw, total := range stats.KeywordTotals {
		rows["keyword_hits:"+kw] = float64(total)
	}
	return rows
}
