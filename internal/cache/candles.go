package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// CandleCache stores fetched candle series keyed by symbol, timeframe and
// window so repeated backtests do not hammer the upstream exchange.
type CandleCache interface {
	Get(ctx context.Context, key string) ([]models.Candle, bool)
	Set(ctx context.Context, key string, candles []models.Candle, ttl time.Duration)
	// Ping reports whether the backing store is currently reachable.
	Ping(ctx context.Context) error
}

// RedisCandleCache stores candle series as JSON blobs in Redis.
type RedisCandleCache struct {
	client *redis.Client
	logger *logrus.Logger
	prefix string
}

func NewRedisCandleCache(client *redis.Client, logger *logrus.Logger) *RedisCandleCache {
	return &RedisCandleCache{client: client, logger: logger, prefix: "candles:"}
}

func (c *RedisCandleCache) Get(ctx context.Context, key string) ([]models.Candle, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).WithField("key", key).Warn("Candle cache read failed")
		}
		return nil, false
	}
	var candles []models.Candle
	if err := json.Unmarshal(raw, &candles); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Candle cache entry corrupt, dropping")
		c.client.Del(ctx, c.prefix+key)
		return nil, false
	}
	return candles, true
}

func (c *RedisCandleCache) Set(ctx context.Context, key string, candles []models.Candle, ttl time.Duration) {
	raw, err := json.Marshal(candles)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Candle cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Candle cache write failed")
	}
}

func (c *RedisCandleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

type memoryEntry struct {
	candles   []models.Candle
	expiresAt time.Time
}

// InMemoryCandleCache is the fallback used when Redis is unreachable at
// startup. Expired entries are evicted lazily on read.
type InMemoryCandleCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewInMemoryCandleCache() *InMemoryCandleCache {
	return &InMemoryCandleCache{entries: make(map[string]memoryEntry)}
}

func (c *InMemoryCandleCache) Get(_ context.Context, key string) ([]models.Candle, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.candles, true
}

func (c *InMemoryCandleCache) Set(_ context.Context, key string, candles []models.Candle, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{candles: candles, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Ping always succeeds: the in-process map has no transport to fail.
func (c *InMemoryCandleCache) Ping(_ context.Context) error {
	return nil
}
