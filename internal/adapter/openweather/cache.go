package openweather

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedSource wraps a LiveSource with an in-memory LRU cache whose entries
// expire after ttl. Errors are never cached.
type CachedSource struct {
	inner    domain.LiveSource
	current  *lruCache[domain.WeatherObservation]
	forecast *lruCache[[]domain.WeatherObservation]
	metrics  *observability.Metrics
}

// NewCachedSource creates a cache decorator around a live source.
func NewCachedSource(inner domain.LiveSource, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:    inner,
		current:  newLRUCache[domain.WeatherObservation](maxEntries, ttl, clock),
		forecast: newLRUCache[[]domain.WeatherObservation](maxEntries, ttl, clock),
		metrics:  metrics,
	}
}

func (c *CachedSource) Current(ctx context.Context, city string) (domain.WeatherObservation, error) {
	key := strings.ToLower(city)
	if obs, ok := c.current.get(key); ok {
		c.metrics.LiveCache.WithLabelValues("current", "hit").Inc()
		return obs, nil
	}
	c.metrics.LiveCache.WithLabelValues("current", "miss").Inc()

	obs, err := c.inner.Current(ctx, city)
	if err != nil {
		return obs, err
	}
	c.current.put(key, obs)
	return obs, nil
}

func (c *CachedSource) Forecast(ctx context.Context, city string) ([]domain.WeatherObservation, error) {
	key := strings.ToLower(city)
	if series, ok := c.forecast.get(key); ok {
		c.metrics.LiveCache.WithLabelValues("forecast", "hit").Inc()
		return append([]domain.WeatherObservation(nil), series...), nil
	}
	c.metrics.LiveCache.WithLabelValues("forecast", "miss").Inc()

	series, err := c.inner.Forecast(ctx, city)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty series so an empty upstream answer is retried.
	if len(series) > 0 {
		c.forecast.put(key, append([]domain.WeatherObservation(nil), series...))
	}
	return series, nil
}

// lruCache is a simple thread-safe LRU cache with per-entry expiry.
type lruCache[V any] struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *entry[V]
	next      *entry[V]
}

func newLRUCache[V any](maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
