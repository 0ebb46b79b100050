package routes_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	memroutecache "github.com/Thepalm86/tripweaver/internal/adapters/memory/routecache"
	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/app/routes"
	"github.com/Thepalm86/tripweaver/internal/bus"
	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/geo"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routing"
)

// fixedSource serves a constant snapshot.
type fixedSource struct {
	mu   sync.Mutex
	snap itinerary.Snapshot
}

func (s *fixedSource) Snapshot() itinerary.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *fixedSource) set(snap itinerary.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// countingProvider returns a straight two-point line and counts fetches.
// Keys listed in fail cause a distinguishable per-leg error.
type countingProvider struct {
	mu      sync.Mutex
	fetches int
	fail    map[geo.SegmentKey]bool
}

func (p *countingProvider) Route(_ context.Context, coords []domain.Coordinate, _ routing.Profile) (routing.Route, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches++
	if len(coords) >= 2 && p.fail[geo.KeyFor(coords[0], coords[len(coords)-1])] {
		return routing.Route{}, routing.ErrNoRoute
	}
	return routing.Route{
		Geometry:        append([]domain.Coordinate(nil), coords...),
		DurationSeconds: 600,
		DistanceMeters:  5000,
	}, nil
}

func (p *countingProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}

func intraDaySnapshot() itinerary.Snapshot {
	trip := domain.Trip{
		ID: "t",
		Days: []domain.Day{
			{ID: "day-1", BaseLocations: []domain.BaseLocation{base("B", 10, 10)}, Destinations: []domain.Destination{
				dest("d1", "D1", 10, 11),
				dest("d2", "D2", 10, 12),
			}},
		},
	}
	return itinerary.Snapshot{Trip: &trip, SelectedDayID: "day-1"}
}

func TestEngine_CacheHitIssuesOneFetch(t *testing.T) {
	t.Parallel()

	src := &fixedSource{snap: intraDaySnapshot()}
	provider := &countingProvider{}
	engine := routes.NewEngine(src, provider, memroutecache.NewCache(), bus.New(), nil)

	col := engine.ComputeNow(context.Background())
	if len(col.Features) != 2 {
		t.Fatalf("features=%d want 2", len(col.Features))
	}
	first := provider.count()
	if first != 2 {
		t.Fatalf("fetches=%d want 2", first)
	}

	// Identical endpoints: the second pass is served wholly from cache.
	engine.ComputeNow(context.Background())
	if got := provider.count(); got != first {
		t.Fatalf("fetches=%d after second pass, want %d", got, first)
	}
}

func TestEngine_FailedLegIsOmittedNotFatal(t *testing.T) {
	t.Parallel()

	snap := intraDaySnapshot()
	badKey := geo.KeyFor(domain.Coordinate{Lng: 10, Lat: 10}, domain.Coordinate{Lng: 10, Lat: 11})
	src := &fixedSource{snap: snap}
	provider := &countingProvider{fail: map[geo.SegmentKey]bool{badKey: true}}
	engine := routes.NewEngine(src, provider, memroutecache.NewCache(), bus.New(), nil)

	col := engine.ComputeNow(context.Background())
	if len(col.Features) != 1 {
		t.Fatalf("features=%d want 1 (failed leg dropped)", len(col.Features))
	}
	if col.Features[0].ID == badKey.String() {
		t.Fatalf("failed leg leaked into output")
	}
}

func TestEngine_PublishSuppressedWhenUnchanged(t *testing.T) {
	t.Parallel()

	src := &fixedSource{snap: intraDaySnapshot()}
	b := bus.New()
	var published atomic.Int32
	b.OnRouteFeaturesUpdated(func(bus.RouteFeaturesUpdated) { published.Add(1) })

	engine := routes.NewEngine(src, &countingProvider{}, memroutecache.NewCache(), b, nil)
	engine.ComputeNow(context.Background())
	engine.ComputeNow(context.Background())
	if got := published.Load(); got != 1 {
		t.Fatalf("published %d times, want 1", got)
	}
}

func TestEngine_InvalidateCoalescesRapidCalls(t *testing.T) {
	t.Parallel()

	src := &fixedSource{snap: intraDaySnapshot()}
	b := bus.New()
	var published atomic.Int32
	b.OnRouteFeaturesUpdated(func(bus.RouteFeaturesUpdated) { published.Add(1) })

	provider := &countingProvider{}
	engine := routes.NewEngine(src, provider, memroutecache.NewCache(), b, nil)
	engine.SetDebounce(20 * time.Millisecond)

	for i := 0; i < 5; i++ {
		engine.Invalidate()
	}
	time.Sleep(150 * time.Millisecond)

	if got := published.Load(); got != 1 {
		t.Fatalf("published %d times, want 1", got)
	}
	if got := provider.count(); got != 2 {
		t.Fatalf("fetches=%d want 2", got)
	}
}

func TestEngine_StalePassDoesNotPublish(t *testing.T) {
	t.Parallel()

	src := &fixedSource{snap: intraDaySnapshot()}
	b := bus.New()
	var published atomic.Int32
	b.OnRouteFeaturesUpdated(func(bus.RouteFeaturesUpdated) { published.Add(1) })

	engine := routes.NewEngine(src, &countingProvider{}, memroutecache.NewCache(), b, nil)
	engine.SetDebounce(30 * time.Millisecond)

	// The debounced pass is scheduled, then superseded by an immediate pass
	// over a different view. When the timer finally fires, its generation is
	// stale and the (now different) result must not reach the map.
	engine.Invalidate()

	overview := intraDaySnapshot()
	overview.SelectedDayID = ""
	src.set(overview)
	engine.ComputeNow(context.Background())

	time.Sleep(100 * time.Millisecond)
	if got := published.Load(); got != 1 {
		t.Fatalf("published %d times, want 1 (stale pass leaked)", got)
	}
}

func TestEngine_FeaturePropertiesCarryMetadata(t *testing.T) {
	t.Parallel()

	src := &fixedSource{snap: intraDaySnapshot()}
	engine := routes.NewEngine(src, &countingProvider{}, memroutecache.NewCache(), bus.New(), nil)

	col := engine.ComputeNow(context.Background())
	if col.Layer != routes.RouteLayer {
		t.Fatalf("layer=%s", col.Layer)
	}
	f := col.Features[0]
	if f.Properties["segmentType"] != "base-destination" {
		t.Fatalf("segmentType=%v", f.Properties["segmentType"])
	}
	if f.Properties["fromDayId"] != "day-1" || f.Properties["toDayId"] != "day-1" {
		t.Fatalf("day ids=%v/%v", f.Properties["fromDayId"], f.Properties["toDayId"])
	}
	label, _ := f.Properties["label"].(string)
	if label != "B to D1 (10 min, 5.0 km)" {
		t.Fatalf("label=%q", label)
	}
	bearing, ok := f.Properties["bearing"].(float64)
	if !ok || bearing < 0 || bearing >= 360 {
		t.Fatalf("bearing=%v", f.Properties["bearing"])
	}
	if len(f.Geometry) < 2 {
		t.Fatalf("geometry=%v", f.Geometry)
	}
}

func TestEngine_AdHocRouteUsesCache(t *testing.T) {
	t.Parallel()

	src := &fixedSource{snap: itinerary.Snapshot{}}
	provider := &countingProvider{}
	engine := routes.NewEngine(src, provider, memroutecache.NewCache(), bus.New(), nil)

	pair := itinerary.RoutePair{
		Start: itinerary.RoutePoint{ID: "a", Source: itinerary.RoutePointBase, Name: "A", Coord: domain.Coordinate{Lng: 1, Lat: 1}},
		End:   itinerary.RoutePoint{ID: "b", Source: itinerary.RoutePointExplore, Name: "B", Coord: domain.Coordinate{Lng: 2, Lat: 2}},
	}
	s1, err := engine.AdHocRoute(context.Background(), pair)
	if err != nil {
		t.Fatalf("AdHocRoute: %v", err)
	}
	if s1.SegmentType() != "base-destination" {
		t.Fatalf("segmentType=%s", s1.SegmentType())
	}
	if _, err := engine.AdHocRoute(context.Background(), pair); err != nil {
		t.Fatalf("AdHocRoute second: %v", err)
	}
	if got := provider.count(); got != 1 {
		t.Fatalf("fetches=%d want 1", got)
	}
}
