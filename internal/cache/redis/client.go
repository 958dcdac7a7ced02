package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/keywordpulse/backend/pkg/logger"
)

// Client caches raw source page responses for a short TTL so repeated
// scans over the same listing window do not re-hit the upstream API.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis page cache initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SetPage stores a raw page body under the request hash.
func (c *Client) SetPage(ctx context.Context, requestHash string, body []byte) error {
	err := c.client.Set(ctx, fmt.Sprintf("page:%s", requestHash), body, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set page cache: %w", err)
	}

	logger.Debug("Page cached", zap.String("request_hash", requestHash), zap.Duration("ttl", c.ttl))
	return nil
}

// GetPage returns the cached raw body for the request hash, if present.
func (c *Client) GetPage(ctx context.Context, requestHash string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("page:%s", requestHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get page cache: %w", err)
	}

	logger.Debug("Page cache hit", zap.String("request_hash", requestHash))
	return data, true, nil
}

// Invalidate drops every cached page.
func (c *Client) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "page:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Page cache invalidated")
	return nil
}
