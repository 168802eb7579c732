package mlapi

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/climatesphere/internal/domain"
	"github.com/couchcryptid/climatesphere/internal/observability"
)

// CachedPredictor wraps a Predictor with an in-memory LRU cache keyed by the
// climate state rounded to one decimal.
type CachedPredictor struct {
	inner   domain.Predictor
	cache   *lruCache[domain.RiskTriple]
	metrics *observability.Metrics
}

// NewCachedPredictor creates a cache decorator around a predictor.
func NewCachedPredictor(inner domain.Predictor, maxEntries int, metrics *observability.Metrics) *CachedPredictor {
	return &CachedPredictor{
		inner:   inner,
		cache:   newLRUCache[domain.RiskTriple](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedPredictor) Predict(ctx context.Context, state domain.ClimateState) (domain.RiskTriple, error) {
	key := cacheKey(state)
	if risk, ok := c.cache.get(key); ok {
		c.metrics.PredictorCache.WithLabelValues("hit").Inc()
		return risk, nil
	}
	c.metrics.PredictorCache.WithLabelValues("miss").Inc()

	risk, err := c.inner.Predict(ctx, state)
	if err != nil {
		return risk, err
	}
	c.cache.put(key, risk)
	return risk, nil
}

// Health delegates to the wrapped predictor when it can report health.
func (c *CachedPredictor) Health(ctx context.Context) (domain.MLHealth, error) {
	hc, ok := c.inner.(domain.HealthChecker)
	if !ok {
		return domain.MLHealth{}, domain.ErrRemoteUnavailable
	}
	return hc.Health(ctx)
}

func cacheKey(s domain.ClimateState) string {
	return fmt.Sprintf("%.1f|%.1f|%.1f|%.1f", s.Temperature, s.Rainfall, s.Humidity, s.CO2Level)
}

// lruCache is a thread-safe LRU cache. A non-positive size disables caching.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type lruEntry[V any] struct {
	key   string
	value V
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[V]).value, true
}

func (c *lruCache[V]) put(key string, value V) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry[V]).key)
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
