package detailcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/autorovers/autorovers/internal/db"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
)

// store is the consumer interface for the detail cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Fetcher loads a vehicle record by slug.
type Fetcher interface {
	Get(ctx context.Context, slug string) (vehicle.Details, error)
}

type entry struct {
	FetchedAt time.Time       `json:"fetchedAt"`
	Details   vehicle.Details `json:"details"`
}

// CachedFetcher caches catalog records in a key-value store for maxAge.
type CachedFetcher struct {
	inner      Fetcher
	store      store
	prefix     string
	maxAge     time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"stale"), passed explicitly.
func New(
	inner Fetcher,
	s store,
	prefix string,
	maxAge time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{
		inner:      inner,
		store:      s,
		prefix:     prefix + "detail:",
		maxAge:     maxAge,
		cacheTotal: cacheTotal,
		logger:     logger,
		now:        time.Now,
	}
}

// Get returns a cached record younger than maxAge or calls the inner fetcher.
// Failed fetches are never cached.
func (c *CachedFetcher) Get(ctx context.Context, slug string) (vehicle.Details, error) {
	key := c.cacheKey(slug)

	if d, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return d, nil
	}

	d, err := c.inner.Get(ctx, slug)
	if err != nil {
		return vehicle.Details{}, fmt.Errorf("fetch %s: %w", slug, err)
	}

	c.putToCache(ctx, key, d)
	return d, nil
}

func (c *CachedFetcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey lower-cases the slug; catalog slugs are case-insensitive.
func (c *CachedFetcher) cacheKey(slug string) string {
	return c.prefix + strings.ToLower(strings.TrimSpace(slug))
}

func (c *CachedFetcher) getFromCache(ctx context.Context, key string) (vehicle.Details, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached vehicle", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return vehicle.Details{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Failed to parse cached vehicle", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return vehicle.Details{}, false
	}
	if c.now().Sub(e.FetchedAt) > c.maxAge {
		c.incCache("stale")
		return vehicle.Details{}, false
	}
	return e.Details, true
}

func (c *CachedFetcher) putToCache(ctx context.Context, key string, d vehicle.Details) {
	data, err := json.Marshal(entry{FetchedAt: c.now(), Details: d})
	if err != nil {
		c.logger.Warn("Failed to encode vehicle for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Warn("Failed to cache vehicle", zap.String("key", key), zap.Error(err))
	}
}
