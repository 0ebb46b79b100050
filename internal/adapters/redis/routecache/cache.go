// Package routecache implements the route cache port on Redis, so computed
// segments survive restarts and are shared across instances.
package routecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/Thepalm86/tripweaver/internal/geo"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routing"
)

const keyPrefix = "route:"

type Cache struct {
	rdb redis.UniversalClient
}

func NewCache(rdb redis.UniversalClient) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Get(ctx context.Context, key geo.SegmentKey) (routing.Route, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return routing.Route{}, false, nil
	}
	if err != nil {
		return routing.Route{}, false, fmt.Errorf("route cache get: %w", err)
	}
	var r routing.Route
	if err := json.Unmarshal(raw, &r); err != nil {
		// A corrupt entry is treated as a miss; the next Put overwrites it.
		return routing.Route{}, false, nil
	}
	return r, true, nil
}

func (c *Cache) Put(ctx context.Context, key geo.SegmentKey, r routing.Route) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("route cache marshal: %w", err)
	}
	// Keys are content-addressed by coordinates; entries never go stale, so
	// no TTL is set.
	if err := c.rdb.Set(ctx, keyPrefix+key.String(), raw, 0).Err(); err != nil {
		return fmt.Errorf("route cache put: %w", err)
	}
	return nil
}
