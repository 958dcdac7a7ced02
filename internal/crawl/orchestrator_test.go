package crawl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keywordpulse/backend/internal/model"
	"github.com/keywordpulse/backend/internal/source"
)

type fakeClient struct {
	mu    sync.Mutex
	calls int
	fetch func(call int, cursor string) (source.Page, error)
}

func (f *fakeClient) FetchPage(ctx context.Context, _ source.SortMode, _, _, cursor string, _ int) (source.Page, error) {
	if err := ctx.Err(); err != nil {
		return source.Page{}, err
	}
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fetch(call, cursor)
}

func item(id string) model.RawItem {
	return model.RawItem{ID: id, Container: "r/golang", Title: "post " + id}
}

func collect(t *testing.T, o *Orchestrator, ctx context.Context, opts Options) ([]string, Outcome, error) {
	t.Helper()

	var ids []string
	outcome, err := o.Run(ctx, opts, func(it model.RawItem) {
		ids = append(ids, it.ID)
	})
	return ids, outcome, err
}

func newTestOrchestrator(client source.Client) *Orchestrator {
	return NewOrchestrator(client, 1000, zap.NewNop())
}

func TestRunDeduplicatesAcrossOverlappingPages(t *testing.T) {
	t.Parallel()

	client := &fakeClient{fetch: func(call int, cursor string) (source.Page, error) {
		switch call {
		case 1:
			return source.Page{
				Items:      []model.RawItem{item("a"), item("b"), item("c")},
				NextCursor: "c1",
			}, nil
		default:
			return source.Page{
				Items:     []model.RawItem{item("c"), item("d")},
				Exhausted: true,
			}, nil
		}
	}}

	ids, outcome, err := collect(t, newTestOrchestrator(client), context.Background(), Options{
		Keywords: []string{"go"},
		Mode:     source.SortRelevance,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Equal(t, 4, outcome.Accepted)
	assert.Equal(t, 5, outcome.Examined)
	assert.Equal(t, 1, outcome.Duplicates)
	assert.Equal(t, 2, outcome.Requests)
	assert.False(t, outcome.Partial)
	assert.Equal(t, "source exhausted", outcome.Reason)
	assert.Equal(t, "c1", outcome.LastCursor)
}

func TestRunStopsAtResultCap(t *testing.T) {
	t.Parallel()

	client := &fakeClient{fetch: func(int, string) (source.Page, error) {
		return source.Page{
			Items:      []model.RawItem{item("a"), item("b"), item("c")},
			NextCursor: "next",
		}, nil
	}}

	ids, outcome, err := collect(t, newTestOrchestrator(client), context.Background(), Options{
		Keywords:   []string{"go"},
		MaxResults: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, 2, outcome.Accepted)
	assert.True(t, outcome.Partial)
	assert.Equal(t, "result cap reached", outcome.Reason)
}

func TestRunCapCoincidingWithExhaustionIsComplete(t *testing.T) {
	t.Parallel()

	client := &fakeClient{fetch: func(int, string) (source.Page, error) {
		return source.Page{
			Items:     []model.RawItem{item("a"), item("b"), item("c")},
			Exhausted: true,
		}, nil
	}}

	_, outcome, err := collect(t, newTestOrchestrator(client), context.Background(), Options{
		Keywords:   []string{"go"},
		MaxResults: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Accepted)
	assert.False(t, outcome.Partial)
	assert.Equal(t, "result cap reached", outcome.Reason)
}

func TestRunCancelledContextIsPartial(t *testing.T) {
	t.Parallel()

	client := &fakeClient{fetch: func(int, string) (source.Page, error) {
		return source.Page{Exhausted: true}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, outcome, err := collect(t, newTestOrchestrator(client), ctx, Options{
		Keywords: []string{"go"},
	})

	require.NoError(t, err)
	assert.True(t, outcome.Partial)
	assert.Equal(t, "cancelled", outcome.Reason)
	assert.Zero(t, outcome.Requests)
}

func TestRunDeadlineIsPartial(t *testing.T) {
	t.Parallel()

	client := &fakeClient{fetch: func(call int, _ string) (source.Page, error) {
		if call == 1 {
			return source.Page{
				Items:      []model.RawItem{item("a")},
				NextCursor: "c1",
			}, nil
		}
		time.Sleep(100 * time.Millisecond)
		return source.Page{}, context.DeadlineExceeded
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ids, outcome, err := collect(t, newTestOrchestrator(client), ctx, Options{
		Keywords: []string{"go"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
	assert.True(t, outcome.Partial)
	assert.Equal(t, "deadline exceeded", outcome.Reason)
}

func TestRunRetriesRateLimitedPage(t *testing.T) {
	t.Parallel()

	client := &fakeClient{fetch: func(call int, _ string) (source.Page, error) {
		if call == 1 {
			return source.Page{}, source.ErrRateLimited
		}
		return source.Page{
			Items:     []model.RawItem{item("a")},
			Exhausted: true,
		}, nil
	}}

	ids, outcome, err := collect(t, newTestOrchestrator(client), context.Background(), Options{
		Keywords:   []string{"go"},
		MaxRetries: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
	assert.False(t, outcome.Partial)
	assert.Equal(t, 2, client.calls)
}

func TestRunPersistentRateLimitFails(t *testing.T) {
	t.Parallel()

	client := &fakeClient{fetch: func(int, string) (source.Page, error) {
		return source.Page{}, source.ErrRateLimited
	}}

	_, _, err := collect(t, newTestOrchestrator(client), context.Background(), Options{
		Keywords:   []string{"go"},
		MaxRetries: 2,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "crawl failed after cursor")
}

func TestRunTreatsEmptyStreakAsExhaustion(t *testing.T) {
	t.Parallel()

	cursors := []string{"c1", "c2", "c3", "c4"}
	client := &fakeClient{fetch: func(call int, _ string) (source.Page, error) {
		// Every page repeats the same item under a fresh cursor.
		return source.Page{
			Items:      []model.RawItem{item("a")},
			NextCursor: cursors[(call-1)%len(cursors)],
		}, nil
	}}

	ids, outcome, err := collect(t, newTestOrchestrator(client), context.Background(), Options{
		Keywords:       []string{"go"},
		EmptyPageLimit: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
	assert.False(t, outcome.Partial)
	assert.Equal(t, "source exhausted", outcome.Reason)
	assert.Equal(t, 2, outcome.Duplicates)
	assert.Equal(t, 3, outcome.Requests)
}

func TestRunInvalidCursorIsNotRetried(t *testing.T) {
	t.Parallel()

	client := &fakeClient{fetch: func(int, string) (source.Page, error) {
		return source.Page{}, source.ErrInvalidCursor
	}}

	_, _, err := collect(t, newTestOrchestrator(client), context.Background(), Options{
		Keywords: []string{"go"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrInvalidCursor)
	assert.Equal(t, 1, client.calls)
}
