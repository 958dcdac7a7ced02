// Package scan wires the full pipeline for one search: crawl the source,
// match keywords, score matched items in parallel, filter, aggregate.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keywordpulse/backend/internal/aggregate"
	"github.com/keywordpulse/backend/internal/crawl"
	"github.com/keywordpulse/backend/internal/match"
	"github.com/keywordpulse/backend/internal/metrics"
	"github.com/keywordpulse/backend/internal/model"
	"github.com/keywordpulse/backend/internal/pipeline"
	"github.com/keywordpulse/backend/internal/scoring"
	"github.com/keywordpulse/backend/internal/source"
)

// ErrInvalidConfiguration marks caller errors that are surfaced
// immediately and never retried.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Request is the caller-supplied configuration for one scan. Keywords
// and MaxResults are required; everything else has a sensible zero.
type Request struct {
	Keywords      []string             `json:"keywords"`
	Sort          string               `json:"sort"`
	Container     string               `json:"container"`
	MaxResults    int                  `json:"max_results"`
	WindowDays    int                  `json:"window_days"`
	MinScore      *int                 `json:"min_score,omitempty"`
	MinComments   *int                 `json:"min_comments,omitempty"`
	MinEngagement *float64             `json:"min_engagement,omitempty"`
	ExcludeSpam   bool                 `json:"exclude_spam"`
	Sentiment     model.SentimentClass `json:"sentiment,omitempty"`
	Concurrency   int                  `json:"concurrency,omitempty"`
	DeadlineSec   int                  `json:"deadline_sec,omitempty"`
}

// Progress is emitted while a scan runs, for callers that stream status.
type Progress struct {
	Stage    string `json:"stage"`
	Accepted int    `json:"accepted"`
	Scored   int    `json:"scored"`
}

// Result is a finished scan. Partial marks results cut short by
// deadline, cancellation or the result cap.
type Result struct {
	RunID   string             `json:"run_id"`
	Items   []model.ScoredItem `json:"items"`
	Stats   model.SummaryStats `json:"stats"`
	Partial bool               `json:"partial"`
	Reason  string             `json:"reason,omitempty"`
	Crawl   crawl.Outcome      `json:"crawl"`
	Elapsed time.Duration      `json:"elapsed"`
}

// Limits bound caller requests against operator configuration.
type Limits struct {
	MaxResultsCap  int
	DefaultResults int
	PageSize       int
	EmptyPageLimit int
	MaxRetries     int
	Concurrency    int
	DeadlineSec    int
}

type Service struct {
	orchestrator *crawl.Orchestrator
	engine       *scoring.Engine
	limits       Limits
	logger       *zap.Logger
}

func NewService(client source.Client, requestsPerSecond float64, engine *scoring.Engine, limits Limits, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.MaxResultsCap <= 0 {
		limits.MaxResultsCap = 100000
	}
	if limits.DefaultResults <= 0 {
		limits.DefaultResults = 2500
	}
	if limits.Concurrency <= 0 {
		limits.Concurrency = 8
	}
	return &Service{
		orchestrator: crawl.NewOrchestrator(client, requestsPerSecond, logger.Named("crawl")),
		engine:       engine,
		limits:       limits,
		logger:       logger,
	}
}

// Validate fails fast with a field-precise error before any network call.
func (s *Service) Validate(req *Request) (source.SortMode, error) {
	if len(req.Keywords) == 0 {
		return "", fmt.Errorf("%w: keywords must not be empty", ErrInvalidConfiguration)
	}
	for _, kw := range req.Keywords {
		if kw == "" {
			return "", fmt.Errorf("%w: keywords must not contain empty strings", ErrInvalidConfiguration)
		}
	}
	if req.MaxResults < 0 {
		return "", fmt.Errorf("%w: max_results must not be negative", ErrInvalidConfiguration)
	}
	if req.MaxResults == 0 {
		req.MaxResults = s.limits.DefaultResults
	}
	if req.MaxResults > s.limits.MaxResultsCap {
		return "", fmt.Errorf("%w: max_results exceeds cap of %d", ErrInvalidConfiguration, s.limits.MaxResultsCap)
	}
	if req.WindowDays < 0 {
		return "", fmt.Errorf("%w: window_days must not be negative", ErrInvalidConfiguration)
	}
	if req.MinEngagement != nil && *req.MinEngagement < 0 {
		return "", fmt.Errorf("%w: min_engagement must not be negative", ErrInvalidConfiguration)
	}
	if req.Concurrency < 0 {
		return "", fmt.Errorf("%w: concurrency must not be negative", ErrInvalidConfiguration)
	}
	if req.Concurrency == 0 {
		req.Concurrency = s.limits.Concurrency
	}
	if req.DeadlineSec < 0 {
		return "", fmt.Errorf("%w: deadline_sec must not be negative", ErrInvalidConfiguration)
	}
	if req.DeadlineSec == 0 {
		req.DeadlineSec = s.limits.DeadlineSec
	}

	switch req.Sentiment {
	case "", model.SentimentPositive, model.SentimentNegative, model.SentimentNeutral:
	default:
		return "", fmt.Errorf("%w: unknown sentiment filter %q", ErrInvalidConfiguration, req.Sentiment)
	}

	mode, err := source.ParseSortMode(req.Sort)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return mode, nil
}

// Run executes the scan. onProgress may be nil.
func (s *Service) Run(ctx context.Context, req Request, onProgress func(Progress)) (*Result, error) {
	mode, err := s.Validate(&req)
	if err != nil {
		return nil, err
	}

	if req.DeadlineSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.DeadlineSec)*time.Second)
		defer cancel()
	}

	runID := uuid.NewString()
	started := time.Now()
	metrics.ActiveScans.Inc()
	defer metrics.ActiveScans.Dec()

	s.logger.Info("Scan started",
		zap.String("run_id", runID),
		zap.Strings("keywords", req.Keywords),
		zap.String("sort", string(mode)),
		zap.Int("max_results", req.MaxResults),
	)

	scored, outcome, err := s.crawlAndScore(ctx, req, mode, onProgress)
	if err != nil {
		metrics.ScanTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	preds := pipeline.Predicates{
		WindowDays:    req.WindowDays,
		MinScore:      req.MinScore,
		MinComments:   req.MinComments,
		MinEngagement: req.MinEngagement,
		ExcludeSpam:   req.ExcludeSpam,
		Sentiment:     req.Sentiment,
	}
	survivors, err := pipeline.Apply(scored, preds, time.Now())
	if err != nil {
		metrics.ScanTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	stats := aggregate.Summarize(survivors)
	elapsed := time.Since(started)

	metrics.ScanTotal.WithLabelValues("ok").Inc()
	metrics.ScanDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())

	s.logger.Info("Scan finished",
		zap.String("run_id", runID),
		zap.Int("scored", len(scored)),
		zap.Int("survivors", len(survivors)),
		zap.Bool("partial", outcome.Partial),
		zap.Duration("elapsed", elapsed),
	)

	return &Result{
		RunID:   runID,
		Items:   survivors,
		Stats:   stats,
		Partial: outcome.Partial,
		Reason:  outcome.Reason,
		Crawl:   outcome,
		Elapsed: elapsed,
	}, nil
}

type seqItem struct {
	seq  int
	item model.RawItem
}

// crawlAndScore runs the sequential fetch loop alongside a bounded pool
// of scoring workers. Items are tagged with their fetch sequence and
// re-sorted before return, so parallel scoring never reorders output
// relative to fetch order. onProgress is only ever invoked from the
// calling goroutine.
func (s *Service) crawlAndScore(ctx context.Context, req Request, mode source.SortMode, onProgress func(Progress)) ([]model.ScoredItem, crawl.Outcome, error) {
	matcher := match.NewMatcher(req.Keywords)

	jobs := make(chan seqItem, req.Concurrency*2)
	results := make(chan model.ScoredItem, req.Concurrency*2)

	var workers sync.WaitGroup
	for i := 0; i < req.Concurrency; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for job := range jobs {
				start := time.Now()
				matched := matcher.Match(job.item)

				// Listing modes page the container unfiltered; items
				// without a single keyword hit are not part of the
				// result set. Search modes were filtered upstream by
				// the source and every item is kept.
				if !mode.Searches() && !matched.Matched() {
					metrics.ScoringDuration.Observe(time.Since(start).Seconds())
					continue
				}

				bundle := s.engine.Score(job.item, matched, time.Now())
				metrics.ScoringDuration.Observe(time.Since(start).Seconds())

				results <- model.ScoredItem{
					Seq:    job.seq,
					Item:   job.item,
					Match:  matched,
					Scores: bundle,
				}
			}
		}()
	}

	var collected []model.ScoredItem
	var collector sync.WaitGroup
	collector.Add(1)
	go func() {
		defer collector.Done()
		for item := range results {
			collected = append(collected, item)
		}
	}()

	seq := 0
	opts := crawl.Options{
		Keywords:       req.Keywords,
		Mode:           mode,
		Container:      req.Container,
		MaxResults:     req.MaxResults,
		PageSize:       s.limits.PageSize,
		EmptyPageLimit: s.limits.EmptyPageLimit,
		MaxRetries:     s.limits.MaxRetries,
	}
	outcome, err := s.orchestrator.Run(ctx, opts, func(item model.RawItem) {
		metrics.ItemsAccepted.Inc()
		jobs <- seqItem{seq: seq, item: item}
		seq++
		if onProgress != nil && seq%25 == 0 {
			onProgress(Progress{Stage: "crawling", Accepted: seq})
		}
	})

	close(jobs)
	workers.Wait()
	close(results)
	collector.Wait()

	if err != nil {
		return nil, outcome, err
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Seq < collected[j].Seq
	})

	if onProgress != nil {
		onProgress(Progress{Stage: "scored", Accepted: seq, Scored: len(collected)})
	}

	return collected, outcome, nil
}
