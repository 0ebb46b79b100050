package routecache

import (
	"context"
	"sync"

	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/geo"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routing"
)

// Cache is the process-lifetime in-memory implementation of routecache.Cache.
// Keys are content-addressed by endpoint coordinates, so entries never need
// eviction within a session.
type Cache struct {
	mu sync.RWMutex
	m  map[geo.SegmentKey]routing.Route
}

func NewCache() *Cache {
	return &Cache{m: make(map[geo.SegmentKey]routing.Route)}
}

func (c *Cache) Get(ctx context.Context, key geo.SegmentKey) (routing.Route, bool, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.m[key]
	if !ok {
		return routing.Route{}, false, nil
	}
	return cloneRoute(r), true, nil
}

func (c *Cache) Put(ctx context.Context, key geo.SegmentKey, r routing.Route) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = cloneRoute(r)
	return nil
}

func cloneRoute(r routing.Route) routing.Route {
	cp := r
	if r.Geometry != nil {
		cp.Geometry = append([]domain.Coordinate(nil), r.Geometry...)
	}
	return cp
}
