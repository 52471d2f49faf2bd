// internal/engine/geocode/cache.go
package geocode

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"load-analytics-engine/internal/common/logger"
	"load-analytics-engine/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// Store is the backing key-value store for resolved coordinates. Keys are
// normalized place strings.
type Store interface {
	Get(ctx context.Context, key string) (*Coordinates, error)
	Set(ctx context.Context, key string, coords Coordinates) error
}

// RedisStore keeps resolved coordinates in redis. TTL 0 means entries never
// expire, matching the session-lifetime policy of the original cache.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

const redisKeyPrefix = "geo:"

func (s *RedisStore) Get(ctx context.Context, key string) (*Coordinates, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var coords Coordinates
	if err := json.Unmarshal([]byte(val), &coords); err != nil {
		return nil, err
	}
	return &coords, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, coords Coordinates) error {
	data, err := json.Marshal(coords)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err()
}

// MemoryStore is an in-process Store for tests and offline runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Coordinates
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Coordinates{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Coordinates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.entries[key]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, coords Coordinates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = coords
	return nil
}

// Resolver is the read-through geocode cache. On a miss it queries the
// provider once, stores the result, and returns it; provider failures are
// logged and reported as absent coordinates, never cached, so a later call
// may retry. Concurrent misses for the same normalized place are coalesced
// into a single provider call.
type Resolver struct {
	store    Store
	provider Provider
	logger   logger.Logger

	mu       sync.Mutex
	inflight map[string]*resolveCall
}

type resolveCall struct {
	done   chan struct{}
	coords *Coordinates
}

func NewResolver(store Store, provider Provider, log logger.Logger) *Resolver {
	return &Resolver{
		store:    store,
		provider: provider,
		logger:   log.WithFields(map[string]interface{}{"component": "geocode-resolver"}),
		inflight: map[string]*resolveCall{},
	}
}

// Resolve returns coordinates for a place string, or nil when the place cannot
// be geocoded. A nil result is not an error for callers: routes simply render
// without that endpoint.
func (r *Resolver) Resolve(ctx context.Context, place string) *Coordinates {
	key := Normalize(place)
	if key == "" {
		return nil
	}

	if cached, err := r.store.Get(ctx, key); err == nil && cached != nil {
		metrics.GeocodeCacheHits.Inc()
		return cached
	} else if err != nil {
		// Store trouble degrades to a provider call, same as a miss.
		r.logger.Warn("geocode cache read failed", map[string]interface{}{
			"place": key,
			"error": err.Error(),
		})
	}
	metrics.GeocodeCacheMisses.Inc()

	r.mu.Lock()
	if call, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		metrics.GeocodeCoalesced.Inc()
		select {
		case <-call.done:
			return call.coords
		case <-ctx.Done():
			return nil
		}
	}
	call := &resolveCall{done: make(chan struct{})}
	r.inflight[key] = call
	r.mu.Unlock()

	call.coords = r.fetch(ctx, key)
	close(call.done)

	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()

	return call.coords
}

func (r *Resolver) fetch(ctx context.Context, key string) *Coordinates {
	start := time.Now()
	coords, err := r.provider.Geocode(ctx, key)
	metrics.GeocodeProviderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// Failures are not cached: the next request retries the provider.
		r.logger.Warn("geocoding failed", map[string]interface{}{
			"place": key,
			"error": err.Error(),
		})
		return nil
	}

	if err := r.store.Set(ctx, key, coords); err != nil {
		r.logger.Warn("geocode cache write failed", map[string]interface{}{
			"place": key,
			"error": err.Error(),
		})
	}
	return &coords
}
