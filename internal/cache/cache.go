// Package cache provides the read-through point lookup cache that sits in
// front of single-place fetches by id.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crazyskateface/workbrew-backend/internal/metrics"
	"github.com/crazyskateface/workbrew-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long a fetched place is served from cache.
const DefaultTTL = 60 * time.Second

// Backend holds cache entries. Get reports a miss with ok == false; expired
// entries are misses.
type Backend interface {
	Get(ctx context.Context, key string) (place *models.Place, ok bool, err error)
	Set(ctx context.Context, key string, place *models.Place) error
	Delete(ctx context.Context, key string) error
}

// FetchFunc loads a place from the backing store. It returns (nil, nil) when
// the place does not exist.
type FetchFunc func(ctx context.Context, id string) (*models.Place, error)

// PointLookupCache is a read-through cache keyed by place id.
//
// Concurrent misses on the same key each fetch independently. A fetch that
// overlaps an Invalidate of its key does not populate the cache, so a value
// read before a write is never stored after it. Absent places are not cached.
type PointLookupCache struct {
	backend Backend
	fetch   FetchFunc

	mu       sync.Mutex
	inflight map[string]*flight
}

// flight tracks the fetches running for one key. gen advances on every
// Invalidate of the key while they run.
type flight struct {
	gen     uint64
	fetches int
}

// NewPointLookupCache wires a backend to the fetch used on misses.
func NewPointLookupCache(backend Backend, fetch FetchFunc) *PointLookupCache {
	return &PointLookupCache{
		backend:  backend,
		fetch:    fetch,
		inflight: make(map[string]*flight),
	}
}

// Get returns the place with the given id, or nil if it does not exist.
// A failing backend degrades to a direct fetch.
func (c *PointLookupCache) Get(ctx context.Context, id string) (*models.Place, error) {
	place, ok, err := c.backend.Get(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("cache get failed, falling back to store")
	}
	if ok {
		metrics.CacheHitsTotal.Inc()
		return place, nil
	}
	metrics.CacheMissesTotal.Inc()

	f, gen := c.begin(id)
	place, err = c.fetch(ctx, id)

	// check and store under the lock so an Invalidate cannot slip in between
	c.mu.Lock()
	defer c.end(id, f)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to fetch %s: %w", id, err)
	}
	if place == nil {
		return nil, nil
	}
	if f.gen != gen {
		log.Debug().Str("id", id).Msg("invalidated during fetch, not caching")
		return place, nil
	}

	if err := c.backend.Set(ctx, id, place); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("cache set failed")
	}
	return place, nil
}

func (c *PointLookupCache) begin(id string) (*flight, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.inflight[id]
	if !ok {
		f = &flight{}
		c.inflight[id] = f
	}
	f.fetches++
	return f, f.gen
}

// end must be called with c.mu held; it releases it.
func (c *PointLookupCache) end(id string, f *flight) {
	f.fetches--
	if f.fetches == 0 {
		delete(c.inflight, id)
	}
	c.mu.Unlock()
}

// Invalidate drops any entry for id. Writers must call it after every
// create, update or delete; an error means the entry may still be served.
func (c *PointLookupCache) Invalidate(ctx context.Context, id string) error {
	metrics.CacheInvalidationsTotal.Inc()

	c.mu.Lock()
	if f, ok := c.inflight[id]; ok {
		f.gen++
	}
	c.mu.Unlock()

	if err := c.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("cache: failed to invalidate %s: %w", id, err)
	}
	return nil
}
