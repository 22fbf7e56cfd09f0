package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seenimoa/fairvalue/pkg/models"
)

// RedisCache shares snapshots across processes. Each snapshot is stored as
// one JSON value whose key expires after the TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

// NewRedisCache wraps a connected client.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisCache {
	if log == nil {
		log = slog.Default()
	}
	return &RedisCache{rdb: rdb, ttl: ttl, log: log}
}

// Get implements SnapshotCache.
func (c *RedisCache) Get(ctx context.Context, ticker string) (*models.FinancialSnapshot, bool) {
	data, err := c.rdb.Get(ctx, snapshotKey(ticker)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("redis snapshot read failed", "ticker", ticker, "err", err)
		}
		return nil, false
	}
	var snap models.FinancialSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.log.Debug("redis snapshot decode failed", "ticker", ticker, "err", err)
		return nil, false
	}
	return &snap, true
}

// Put implements SnapshotCache. Write failures are logged and dropped.
func (c *RedisCache) Put(ctx context.Context, ticker string, snap *models.FinancialSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, snapshotKey(ticker), data, c.ttl).Err(); err != nil {
		c.log.Warn("redis snapshot write failed", "ticker", ticker, "err", err)
	}
}

func snapshotKey(ticker string) string { return "fairvalue:snapshot:" + ticker }
