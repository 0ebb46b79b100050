// Package mapbridge translates map-surface feature interactions into
// itinerary selection state and back. It owns the transient per-feature
// render state (hover, active/dimmed) that never belongs in the store.
package mapbridge

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/app/routes"
	"github.com/Thepalm86/tripweaver/internal/bus"
	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/geo"
)

// Store is the slice of the itinerary store the bridge drives.
type Store interface {
	Snapshot() itinerary.Snapshot
	SetSelectedDestination(d *domain.Destination, origin itinerary.SelectionOrigin)
	SetSelectedBaseLocation(ref *itinerary.BaseRef, origin itinerary.SelectionOrigin)
	SetSelectedRouteSegment(id string, origin itinerary.SelectionOrigin)
	SetSelectedDay(dayID domain.DayID)
	RouteModeActive() bool
	RegisterRoutePoint(p itinerary.RoutePoint) (*itinerary.RoutePair, bool)
}

// Router computes ad-hoc routes for finalized route-mode pairs.
type Router interface {
	AdHocRoute(ctx context.Context, pair itinerary.RoutePair) (routes.Segment, error)
}

const cameraFitPadding = 80

type Bridge struct {
	store  Store
	router Router
	bus    *bus.Bus
	log    *logrus.Logger

	mu          sync.Mutex
	lastHover   map[string]string // layer -> feature id
	routeLayer  geo.FeatureCollection
	activeRoute string
}

func NewBridge(store Store, router Router, b *bus.Bus, log *logrus.Logger) *Bridge {
	if log == nil {
		log = logrus.StandardLogger()
	}
	br := &Bridge{
		store:     store,
		router:    router,
		bus:       b,
		log:       log,
		lastHover: make(map[string]string),
	}
	if b != nil {
		// Track the currently rendered route layer so segment clicks can
		// partition it and fit the camera without re-deriving anything.
		b.OnRouteFeaturesUpdated(func(ev bus.RouteFeaturesUpdated) {
			br.mu.Lock()
			br.routeLayer = ev.Collection
			br.mu.Unlock()
		})
	}
	return br
}

// ClickDestination handles a click on a destination marker. In route mode
// the click registers a route-mode endpoint instead of selecting.
func (b *Bridge) ClickDestination(ctx context.Context, dayID domain.DayID, id domain.DestinationID) {
	d := b.lookupDestination(id)
	if d == nil {
		b.log.WithField("destinationId", id).Debug("click on unknown destination feature")
		return
	}
	if b.store.RouteModeActive() {
		b.registerRoutePoint(ctx, itinerary.RoutePoint{
			ID:     string(d.ID),
			Source: itinerary.RoutePointDestination,
			Name:   d.Name,
			Coord:  d.Coord,
		})
		return
	}
	b.store.SetSelectedDestination(d, itinerary.OriginMap)
	b.store.SetSelectedDay(dayID)
	b.clearActiveRoute()
	b.publishSelection("destination", string(d.ID), dayID)
}

// ClickBaseLocation handles a click on a base-location marker.
func (b *Bridge) ClickBaseLocation(ctx context.Context, dayID domain.DayID, index int) {
	base := b.lookupBase(dayID, index)
	if base == nil {
		b.log.WithFields(logrus.Fields{"dayId": dayID, "index": index}).Debug("click on unknown base feature")
		return
	}
	if b.store.RouteModeActive() {
		b.registerRoutePoint(ctx, itinerary.RoutePoint{
			ID:     string(dayID) + ":base",
			Source: itinerary.RoutePointBase,
			Name:   base.Name,
			Coord:  base.Coord,
		})
		return
	}
	b.store.SetSelectedBaseLocation(&itinerary.BaseRef{DayID: dayID, Index: index}, itinerary.OriginMap)
	b.store.SetSelectedDay(dayID)
	b.clearActiveRoute()
	b.publishSelection("base", string(dayID), dayID)
}

// ClickExplorePoint handles a click on a free explore marker (search result
// pin). It only matters in route mode; otherwise it is ignored.
func (b *Bridge) ClickExplorePoint(ctx context.Context, id, name string, coord domain.Coordinate) {
	if !b.store.RouteModeActive() {
		return
	}
	b.registerRoutePoint(ctx, itinerary.RoutePoint{
		ID:     id,
		Source: itinerary.RoutePointExplore,
		Name:   name,
		Coord:  coord,
	})
}

// ClickRouteSegment selects a route segment, partitions the rendered route
// layer into active/dimmed, and fits the camera to the segment's bounding
// box unless the caller asks to skip (timeline-originated highlights must
// not re-pan the map).
func (b *Bridge) ClickRouteSegment(segmentID string, skipCameraFit bool) {
	b.store.SetSelectedRouteSegment(segmentID, itinerary.OriginMap)

	b.mu.Lock()
	b.activeRoute = segmentID
	var geom []domain.Coordinate
	for _, f := range b.routeLayer.Features {
		if f.ID == segmentID {
			geom = f.Geometry
			break
		}
	}
	b.mu.Unlock()

	b.publishSelection("route", segmentID, "")

	if skipCameraFit || b.bus == nil {
		return
	}
	minLng, minLat, maxLng, maxLat, ok := geo.Bounds(geom)
	if !ok {
		return
	}
	b.bus.PublishCameraFit(bus.CameraFitRequest{
		MinLng: minLng, MinLat: minLat,
		MaxLng: maxLng, MaxLat: maxLat,
		Padding: cameraFitPadding,
	})
}

// ClickBackground clears the selection entirely.
func (b *Bridge) ClickBackground() {
	b.store.SetSelectedDestination(nil, itinerary.OriginMap)
	b.clearActiveRoute()
	b.publishSelection("none", "", "")
}

// Hover marks a feature as hover-emphasized on its layer, reverting the
// previously hovered feature. Tracking the last hovered id per layer keeps
// rapid pointer movement from leaving stale hover state behind.
func (b *Bridge) Hover(layer, featureID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastHover[layer] = featureID
}

// Leave clears hover state for a layer when the pointer moves off it.
func (b *Bridge) Leave(layer string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lastHover, layer)
}

// HoveredFeature reports the feature currently hover-emphasized on a layer.
func (b *Bridge) HoveredFeature(layer string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastHover[layer]
}

// RouteFeatureStates returns the render-state flags for every feature on the
// current route layer: the selected segment active, all others dimmed, plus
// hover emphasis.
func (b *Bridge) RouteFeatureStates() map[string]geo.FeatureState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]geo.FeatureState, len(b.routeLayer.Features))
	hovered := b.lastHover[routes.RouteLayer]
	for _, f := range b.routeLayer.Features {
		st := geo.FeatureState{Hover: f.ID == hovered}
		if b.activeRoute != "" {
			if f.ID == b.activeRoute {
				st.Active = true
				st.Selected = true
			} else {
				st.Dimmed = true
			}
		}
		out[f.ID] = st
	}
	return out
}

func (b *Bridge) registerRoutePoint(ctx context.Context, p itinerary.RoutePoint) {
	pair, toggledOff := b.store.RegisterRoutePoint(p)
	if toggledOff || pair == nil {
		return
	}
	seg, err := b.router.AdHocRoute(ctx, *pair)
	if err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{
			"from": pair.Start.Name,
			"to":   pair.End.Name,
		}).Warn("ad-hoc route failed")
		return
	}
	id := seg.Key().String()
	b.store.SetSelectedRouteSegment(id, itinerary.OriginMap)
	b.mu.Lock()
	b.activeRoute = id
	b.mu.Unlock()
	b.publishSelection("route", id, "")
}

func (b *Bridge) clearActiveRoute() {
	b.mu.Lock()
	b.activeRoute = ""
	b.mu.Unlock()
}

func (b *Bridge) publishSelection(kind, id string, dayID domain.DayID) {
	if b.bus == nil {
		return
	}
	b.bus.PublishSelectionChanged(bus.SelectionChanged{
		Kind:   kind,
		ID:     id,
		DayID:  string(dayID),
		Origin: string(itinerary.OriginMap),
	})
}

func (b *Bridge) lookupDestination(id domain.DestinationID) *domain.Destination {
	snap := b.store.Snapshot()
	if snap.Trip == nil {
		return nil
	}
	for i := range snap.Trip.Days {
		if idx := snap.Trip.Days[i].DestinationIndex(id); idx >= 0 {
			d := domain.CloneDestination(snap.Trip.Days[i].Destinations[idx])
			return &d
		}
	}
	return nil
}

func (b *Bridge) lookupBase(dayID domain.DayID, index int) *domain.BaseLocation {
	snap := b.store.Snapshot()
	if snap.Trip == nil {
		return nil
	}
	day := snap.Trip.DayByID(dayID)
	if day == nil || index < 0 || index >= len(day.BaseLocations) {
		return nil
	}
	base := domain.CloneBaseLocation(day.BaseLocations[index])
	return &base
}
