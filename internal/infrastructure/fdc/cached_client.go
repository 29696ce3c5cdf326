package fdc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nutriground/backend/internal/domain"
	"github.com/nutriground/backend/internal/metrics"
)

// Cache key version. Bump when the search parameters or the candidate
// shape change, so stale entries from older deployments never surface.
const cacheKeyPrefix = "fdc:search:v2:"

// inflightCall tracks one in-progress search so concurrent requests for
// the same query share a single upstream call.
type inflightCall struct {
	done       chan struct{}
	candidates []domain.FoodCandidate
	err        error
}

// CachedClient wraps a search client with a cache and single-flight
// deduplication. Cache failures degrade to upstream calls; they are never
// surfaced to the caller.
type CachedClient struct {
	inner   domain.FoodSearchClient
	cache   domain.Cache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

func NewCachedClient(inner domain.FoodSearchClient, cache domain.Cache, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *CachedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedClient{
		inner:    inner,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
		metrics:  m,
		inflight: make(map[string]*inflightCall),
	}
}

// Search serves from cache when possible, otherwise joins or starts the
// single in-flight upstream call for this query.
func (c *CachedClient) Search(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	key := cacheKey(query)

	if candidates, ok := c.fromCache(ctx, key); ok {
		c.metrics.CacheHits.Inc()
		return candidates, nil
	}
	c.metrics.CacheMisses.Inc()

	c.mu.Lock()
	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.candidates, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	call.candidates, call.err = c.inner.Search(ctx, query)
	close(call.done)

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()

	if call.err == nil {
		c.store(ctx, key, call.candidates)
	}
	return call.candidates, call.err
}

func (c *CachedClient) fromCache(ctx context.Context, key string) ([]domain.FoodCandidate, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var candidates []domain.FoodCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		_ = c.cache.Delete(ctx, key)
		return nil, false
	}
	return candidates, true
}

func (c *CachedClient) store(ctx context.Context, key string, candidates []domain.FoodCandidate) {
	data, err := json.Marshal(candidates)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(query string) string {
	return cacheKeyPrefix + strings.ToLower(strings.TrimSpace(query))
}
