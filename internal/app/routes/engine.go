package routes

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/bus"
	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/geo"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routecache"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routing"
)

// Source is the slice of the itinerary store the engine reads from.
type Source interface {
	Snapshot() itinerary.Snapshot
}

// Segment is a computed route leg: the derivation request plus its polyline.
type Segment struct {
	Request
	Route routing.Route
}

const (
	defaultDebounce   = 250 * time.Millisecond
	defaultFetchLimit = 4
)

// Engine recomputes the route layer whenever the trip structure or selected
// day changes. Invalidations are debounced so rapid-fire day navigation
// coalesces into a single pass; a pass whose inputs went stale mid-flight is
// discarded rather than published.
type Engine struct {
	source   Source
	provider routing.Provider
	cache    routecache.Cache
	bus      *bus.Bus
	log      *logrus.Logger

	profile    routing.Profile
	debounce   time.Duration
	fetchLimit int

	gen atomic.Uint64

	mu            sync.Mutex
	timer         *time.Timer
	lastPublished string
}

func NewEngine(source Source, provider routing.Provider, cache routecache.Cache, b *bus.Bus, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		source:     source,
		provider:   provider,
		cache:      cache,
		bus:        b,
		log:        log,
		profile:    routing.ProfileDriving,
		debounce:   defaultDebounce,
		fetchLimit: defaultFetchLimit,
	}
}

// SetProfile changes the travel profile for subsequent computations.
func (e *Engine) SetProfile(p routing.Profile) { e.profile = p }

// SetDebounce overrides the invalidation debounce interval.
func (e *Engine) SetDebounce(d time.Duration) { e.debounce = d }

// Invalidate schedules a recomputation. Calls arriving inside the debounce
// window collapse into one pass; only the last scheduled pass publishes.
func (e *Engine) Invalidate() {
	gen := e.gen.Add(1)
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, func() {
		e.runPass(context.Background(), gen)
	})
	e.mu.Unlock()
}

// ComputeNow runs a full pass synchronously and publishes the result. It is
// the immediate-mode entry point; Invalidate is the debounced one.
func (e *Engine) ComputeNow(ctx context.Context) geo.FeatureCollection {
	return e.runPass(ctx, e.gen.Add(1))
}

func (e *Engine) runPass(ctx context.Context, gen uint64) geo.FeatureCollection {
	snap := e.source.Snapshot()
	reqs := PlanSegments(snap.Trip, snap.SelectedDayID)
	segs := e.computeSegments(ctx, reqs)
	col := BuildFeatureCollection(segs)

	// A later invalidation supersedes this pass: its inputs are stale, so
	// the result must not reach the map.
	if e.gen.Load() != gen {
		e.log.WithField("generation", gen).Debug("discarding stale route computation")
		return col
	}
	e.publish(col)
	return col
}

// computeSegments resolves each request against the cache, fetching misses
// from the provider with bounded concurrency. A failed leg is dropped from
// the output; the rest of the pass proceeds.
func (e *Engine) computeSegments(ctx context.Context, reqs []Request) []Segment {
	results := make([]*Segment, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fetchLimit)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if r, ok := e.resolve(ctx, req); ok {
				results[i] = &Segment{Request: req, Route: r}
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Segment, 0, len(reqs))
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func (e *Engine) resolve(ctx context.Context, req Request) (routing.Route, bool) {
	key := req.Key()
	if r, ok, err := e.cache.Get(ctx, key); err != nil {
		e.log.WithError(err).WithField("segment", key.String()).Debug("route cache read failed")
	} else if ok {
		return r, true
	}

	r, err := e.provider.Route(ctx, []domain.Coordinate{req.From.Coord, req.To.Coord}, e.profile)
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"segment": key.String(),
			"from":    req.From.Name,
			"to":      req.To.Name,
		}).Warn("route segment fetch failed, leg omitted")
		return routing.Route{}, false
	}
	if err := e.cache.Put(ctx, key, r); err != nil {
		e.log.WithError(err).WithField("segment", key.String()).Debug("route cache write failed")
	}
	return r, true
}

// publish serializes the collection and diffs it against the last published
// state; identical passes are suppressed so the map is not re-rendered for
// nothing.
func (e *Engine) publish(col geo.FeatureCollection) {
	raw, err := json.Marshal(col)
	if err != nil {
		e.log.WithError(err).Error("route feature serialization failed")
		return
	}
	serialized := string(raw)

	e.mu.Lock()
	if serialized == e.lastPublished {
		e.mu.Unlock()
		return
	}
	e.lastPublished = serialized
	e.mu.Unlock()

	if e.bus != nil {
		e.bus.PublishRouteFeaturesUpdated(bus.RouteFeaturesUpdated{Collection: col})
	}
}

// AdHocRoute computes a single user-requested segment between two arbitrary
// points, going through the same cache as derived segments.
func (e *Engine) AdHocRoute(ctx context.Context, pair itinerary.RoutePair) (Segment, error) {
	req := Request{
		From: Waypoint{Kind: adHocKind(pair.Start.Source), ID: pair.Start.ID, Name: pair.Start.Name, Coord: pair.Start.Coord},
		To:   Waypoint{Kind: adHocKind(pair.End.Source), ID: pair.End.ID, Name: pair.End.Name, Coord: pair.End.Coord},
		Kind: SegmentIntraDay,
	}
	key := req.Key()
	if r, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		return Segment{Request: req, Route: r}, nil
	}
	r, err := e.provider.Route(ctx, []domain.Coordinate{req.From.Coord, req.To.Coord}, e.profile)
	if err != nil {
		return Segment{}, err
	}
	if err := e.cache.Put(ctx, key, r); err != nil {
		e.log.WithError(err).WithField("segment", key.String()).Debug("route cache write failed")
	}
	return Segment{Request: req, Route: r}, nil
}

func adHocKind(src itinerary.RoutePointSource) WaypointKind {
	if src == itinerary.RoutePointBase {
		return WaypointBase
	}
	return WaypointDestination
}
