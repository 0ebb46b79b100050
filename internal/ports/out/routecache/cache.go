package routecache

import (
	"context"

	"github.com/Thepalm86/tripweaver/internal/geo"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routing"
)

// Cache stores computed route segments keyed by endpoint identity.
//
// Entries are content-addressed: a key only ever maps to one geometry, so
// the cache is append-only and never invalidated explicitly. Implementations
// must insert entries whole; readers never observe a partial entry.
type Cache interface {
	Get(ctx context.Context, key geo.SegmentKey) (routing.Route, bool, error)
	Put(ctx context.Context, key geo.SegmentKey, r routing.Route) error
}
