// Package reddit adapts the Reddit listing and search JSON API to the
// source.Client contract. The HTTP client handed in is expected to be
// pre-authenticated; this package never refreshes credentials.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/keywordpulse/backend/internal/cache/redis"
	"github.com/keywordpulse/backend/internal/metrics"
	"github.com/keywordpulse/backend/internal/model"
	"github.com/keywordpulse/backend/internal/source"
	"github.com/keywordpulse/backend/pkg/logger"
	"github.com/keywordpulse/backend/pkg/utils"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cache      *redis.Client
}

// NewClient wraps a pre-authenticated HTTP client. cache may be nil, in
// which case every page is fetched from the network.
func NewClient(httpClient *http.Client, baseURL, userAgent string, cache *redis.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		cache:      cache,
	}
}

type listingEnvelope struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	ID            string  `json:"id"`
	Subreddit     string  `json:"subreddit"`
	Author        string  `json:"author"`
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	SelftextHTML  string  `json:"selftext_html"`
	Score         int     `json:"score"`
	UpvoteRatio   float64 `json:"upvote_ratio"`
	NumComments   int     `json:"num_comments"`
	CreatedUTC    float64 `json:"created_utc"`
	Over18        bool    `json:"over_18"`
	Spoiler       bool    `json:"spoiler"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	IsSelf        bool    `json:"is_self"`
	PostHint      string  `json:"post_hint"`
	LinkFlairText string  `json:"link_flair_text"`
}

func (c *Client) FetchPage(ctx context.Context, mode source.SortMode, container, query, cursor string, pageSize int) (source.Page, error) {
	requestURL, err := c.buildURL(mode, container, query, cursor, pageSize)
	if err != nil {
		return source.Page{}, err
	}

	body, err := c.fetch(ctx, requestURL)
	if err != nil {
		return source.Page{}, err
	}

	var envelope listingEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return source.Page{}, fmt.Errorf("%w: failed to parse listing: %v", source.ErrSourceUnavailable, err)
	}

	items := make([]model.RawItem, 0, len(envelope.Data.Children))
	for _, child := range envelope.Data.Children {
		items = append(items, toRawItem(child.Data))
	}

	page := source.Page{
		Items:      items,
		NextCursor: envelope.Data.After,
		Exhausted:  envelope.Data.After == "" || len(items) == 0,
	}

	logger.Debug("Fetched page",
		zap.String("container", container),
		zap.String("sort", string(mode)),
		zap.Int("items", len(items)),
		zap.Bool("exhausted", page.Exhausted),
	)

	return page, nil
}

func (c *Client) buildURL(mode source.SortMode, container, query, cursor string, pageSize int) (string, error) {
	if container == "" {
		container = "all"
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("raw_json", "1")
	if cursor != "" {
		params.Set("after", cursor)
	}

	var path string
	if mode.Searches() {
		if query == "" {
			return "", fmt.Errorf("%w: search mode %q requires a query", source.ErrSourceUnavailable, mode)
		}
		path = fmt.Sprintf("/r/%s/search.json", container)
		params.Set("q", query)
		params.Set("sort", string(mode))
		params.Set("restrict_sr", "1")
	} else {
		path = fmt.Sprintf("/r/%s/%s.json", container, mode)
	}

	return c.baseURL + path + "?" + params.Encode(), nil
}

func (c *Client) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	requestHash := utils.HashString(requestURL)

	if c.cache != nil {
		if body, ok, err := c.cache.GetPage(ctx, requestHash); err == nil && ok {
			metrics.CacheHits.WithLabelValues("page").Inc()
			return body, nil
		} else if err != nil {
			logger.Warn("Page cache read failed", zap.Error(err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", source.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status 429", source.ErrRateLimited)
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status 400", source.ErrInvalidCursor)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", source.ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", source.ErrSourceUnavailable, err)
	}

	if c.cache != nil {
		if err := c.cache.SetPage(ctx, requestHash, body); err != nil {
			logger.Warn("Page cache write failed", zap.Error(err))
		}
	}

	return body, nil
}

func toRawItem(data postData) model.RawItem {
	author := data.Author
	if author == "" {
		author = "[deleted]"
	}

	body := data.Selftext
	if body == "" && data.SelftextHTML != "" {
		body = stripHTML(data.SelftextHTML)
	}

	externalURL := ""
	if !data.IsSelf && data.URL != "" {
		externalURL = data.URL
	}

	return model.RawItem{
		ID:          data.ID,
		Container:   "r/" + data.Subreddit,
		Author:      author,
		Title:       data.Title,
		Body:        body,
		Score:       data.Score,
		UpvoteRatio: data.UpvoteRatio,
		Comments:    data.NumComments,
		CreatedAt:   time.Unix(int64(data.CreatedUTC), 0).UTC(),
		NSFW:        data.Over18,
		Spoiler:     data.Spoiler,
		Permalink:   "https://reddit.com" + data.Permalink,
		ExternalURL: externalURL,
		Flair:       data.LinkFlairText,
		ContentHint: data.PostHint,
	}
}

func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := strings.TrimSpace(doc.Text())
	return text
}
