// Package cache holds the Redis-backed read-through cache for ledger stats.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"journalledger/internal/models"
)

// RedisClient is the subset of *redis.Client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

const DefaultTTL = 30 * time.Second

// RedisStats caches ledgers as JSON under stats:<user_id>.
type RedisStats struct {
	client RedisClient
	ttl    time.Duration
}

func NewRedisStats(client RedisClient, ttl time.Duration) *RedisStats {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStats{client: client, ttl: ttl}
}

// NewRedisClient dials addr ("host:port").
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func StatsKey(userID int64) string { return fmt.Sprintf("stats:%d", userID) }

func (c *RedisStats) Get(ctx context.Context, userID int64) (models.EngagementLedger, bool, error) {
	raw, err := c.client.Get(ctx, StatsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.EngagementLedger{}, false, nil
	}
	if err != nil {
		return models.EngagementLedger{}, false, fmt.Errorf("redis get %s: %w", StatsKey(userID), err)
	}
	var l models.EngagementLedger
	if err := json.Unmarshal(raw, &l); err != nil {
		return models.EngagementLedger{}, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return l, true, nil
}

func (c *RedisStats) Set(ctx context.Context, l models.EngagementLedger) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, StatsKey(l.UserID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", StatsKey(l.UserID), err)
	}
	return nil
}

func (c *RedisStats) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, StatsKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", StatsKey(userID), err)
	}
	return nil
}
