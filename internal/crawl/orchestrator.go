// Package crawl drives pagination against a content source: it enforces
// the global result cap and the source's rate ceiling, deduplicates
// items by identifier and stops on exhaustion, cap, deadline or caller
// cancellation. Crawls are restartable only from scratch; there is no
// mid-crawl resume across process restarts.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/keywordpulse/backend/internal/metrics"
	"github.com/keywordpulse/backend/internal/model"
	"github.com/keywordpulse/backend/internal/source"
	"github.com/keywordpulse/backend/pkg/circuitbreaker"
	"github.com/keywordpulse/backend/pkg/retry"
)

// Options configures one crawl invocation.
type Options struct {
	Keywords       []string
	Mode           source.SortMode
	Container      string
	MaxResults     int
	PageSize       int
	EmptyPageLimit int
	MaxRetries     int
}

// Outcome annotates a finished crawl. Partial is set when the crawl was
// cut short by deadline, cancellation or the result cap; plain source
// exhaustion is a normal terminal state and is not partial.
type Outcome struct {
	Accepted   int
	Examined   int
	Duplicates int
	Requests   int
	Partial    bool
	Reason     string
	LastCursor string
}

type Orchestrator struct {
	client  source.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewOrchestrator(client source.Client, requestsPerSecond float64, logger *zap.Logger) *Orchestrator {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		breaker: circuitbreaker.New("source", circuitbreaker.Config{Logger: logger}),
		logger:  logger,
	}
}

// Run pages through the source and hands every new, deduplicated item to
// emit in fetch order. On source failure the error reports the last
// cursor that produced a successful page.
func (o *Orchestrator) Run(ctx context.Context, opts Options, emit func(model.RawItem)) (Outcome, error) {
	st := newState()
	outcome := Outcome{}
	query := strings.Join(opts.Keywords, " OR ")

	if opts.EmptyPageLimit <= 0 {
		opts.EmptyPageLimit = 3
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}

	o.logger.Info("Crawl started",
		zap.String("container", opts.Container),
		zap.String("sort", string(opts.Mode)),
		zap.Int("max_results", opts.MaxResults),
		zap.Strings("keywords", opts.Keywords),
	)

	for {
		// Cancellation and deadline are honored between page fetches,
		// never mid-fetch.
		if err := ctx.Err(); err != nil {
			outcome.Partial = true
			outcome.Reason = stopReason(ctx)
			break
		}

		if err := o.limiter.Wait(ctx); err != nil {
			outcome.Partial = true
			outcome.Reason = stopReason(ctx)
			break
		}

		page, err := o.fetchWithBackoff(ctx, opts, query, st.cursor)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				outcome.Partial = true
				outcome.Reason = stopReason(ctx)
				break
			}
			o.fillOutcome(&outcome, st)
			return outcome, fmt.Errorf("crawl failed after cursor %q: %w", st.lastGoodCursor, err)
		}

		st.requests++
		st.lastGoodCursor = st.cursor
		metrics.PagesFetched.Inc()

		newItems := 0
		for _, item := range page.Items {
			outcome.Examined++
			metrics.ItemsExamined.Inc()
			if !st.markSeen(item.ID) {
				outcome.Duplicates++
				metrics.DuplicatesSkipped.Inc()
				continue
			}
			newItems++
			st.accepted++
			emit(item)

			if opts.MaxResults > 0 && st.accepted >= opts.MaxResults {
				outcome.Partial = !page.Exhausted
				outcome.Reason = "result cap reached"
				o.fillOutcome(&outcome, st)
				o.logFinished(outcome)
				return outcome, nil
			}
		}

		if newItems == 0 {
			st.emptyPageStreak++
		} else {
			st.emptyPageStreak = 0
		}

		// A non-advancing cursor yields duplicate-only pages forever;
		// bounded empty streaks are treated as exhaustion.
		if page.Exhausted || st.emptyPageStreak >= opts.EmptyPageLimit {
			outcome.Reason = "source exhausted"
			break
		}

		st.cursor = page.NextCursor
	}

	o.fillOutcome(&outcome, st)
	o.logFinished(outcome)
	return outcome, nil
}

// fetchWithBackoff retries the same cursor with exponential backoff
// while the source signals throttling. Exhausted retries surface as
// SourceUnavailable; an open breaker does the same without touching the
// network.
func (o *Orchestrator) fetchWithBackoff(ctx context.Context, opts Options, query, cursor string) (source.Page, error) {
	cfg := retry.DefaultConfig()
	cfg.Logger = o.logger
	cfg.RetryableErrors = []error{source.ErrRateLimited}
	if opts.MaxRetries > 0 {
		cfg.MaxAttempts = opts.MaxRetries
	}
	cfg.OnRetry = func(attempt int, delay time.Duration) {
		metrics.RateLimitHits.Inc()
	}

	page, err := retry.DoWithResult(ctx, cfg, func() (source.Page, error) {
		var p source.Page
		execErr := o.breaker.Execute(ctx, func() error {
			var fetchErr error
			p, fetchErr = o.client.FetchPage(ctx, opts.Mode, opts.Container, query, cursor, opts.PageSize)
			return fetchErr
		})
		return p, execErr
	})

	if err != nil {
		if errors.Is(err, source.ErrRateLimited) {
			return source.Page{}, fmt.Errorf("%w: retry budget exhausted: %v", source.ErrSourceUnavailable, err)
		}
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return source.Page{}, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
		}
		return source.Page{}, err
	}
	return page, nil
}

func (o *Orchestrator) fillOutcome(outcome *Outcome, st *state) {
	outcome.Accepted = st.accepted
	outcome.Requests = st.requests
	outcome.LastCursor = st.lastGoodCursor
}

func (o *Orchestrator) logFinished(outcome Outcome) {
	o.logger.Info("Crawl finished",
		zap.Int("accepted", outcome.Accepted),
		zap.Int("examined", outcome.Examined),
		zap.Int("duplicates", outcome.Duplicates),
		zap.Int("requests", outcome.Requests),
		zap.Bool("partial", outcome.Partial),
		zap.String("reason", outcome.Reason),
	)
}

func stopReason(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "deadline exceeded"
	}
	return "cancelled"
}
