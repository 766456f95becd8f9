package search

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/cache"
	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/metrics"
)

// Cached memoizes successful searches keyed by provider, query and limit.
// Errors are never cached.
type Cached struct {
	next  Searcher
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps next with c
func NewCached(next Searcher, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	key := cache.CacheKey("search", c.next.Name(), query, strconv.Itoa(limit))

	if data, ok := c.cache.Get(key); ok {
		var results []Result
		if err := json.Unmarshal(data, &results); err == nil {
			metrics.CacheHits.WithLabelValues("search").Inc()
			return results, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("search").Inc()

	results, err := c.next.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(results); err == nil {
		if err := c.cache.Set(key, data, c.ttl); err != nil {
			logger.Warn("Failed to cache search results", zap.String("query", query), zap.Error(err))
		}
	}
	return results, nil
}
