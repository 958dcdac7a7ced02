// Package source defines the content-source adapter boundary. Concrete
// adapters wrap an already-authenticated client and expose uniform
// paginated listing regardless of sort mode; retry policy lives upstream
// in the crawl orchestrator.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/keywordpulse/backend/internal/model"
)

var (
	// ErrSourceUnavailable covers transport and auth failures.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrRateLimited means the source signalled throttling; callers must
	// back off before retrying the same cursor.
	ErrRateLimited = errors.New("source rate limited")
	// ErrInvalidCursor means a stale or malformed pagination token.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

type SortMode string

const (
	SortRelevance     SortMode = "relevance"
	SortHot           SortMode = "hot"
	SortNew           SortMode = "new"
	SortTop           SortMode = "top"
	SortMostCommented SortMode = "comments"
)

// ParseSortMode validates a caller-supplied sort string.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case SortRelevance, SortHot, SortNew, SortTop, SortMostCommented:
		return SortMode(s), nil
	case "":
		return SortRelevance, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// Searches reports whether the mode pushes keyword filtering to the
// source. Listing modes enumerate the container unfiltered and rely on
// the downstream matcher, which is slower but not less correct.
func (m SortMode) Searches() bool {
	return m == SortRelevance || m == SortMostCommented
}

// Page is one page of results from the source.
type Page struct {
	Items      []model.RawItem
	NextCursor string
	Exhausted  bool
}

// Client is the paginated-listing capability of a content source.
// Query carries the keyword search string and is only consulted by
// modes for which Searches() is true. Implementations perform exactly
// one network round-trip per call and no retries.
type Client interface {
	FetchPage(ctx context.Context, mode SortMode, container, query, cursor string, pageSize int) (Page, error)
}
