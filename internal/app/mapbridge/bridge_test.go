package mapbridge_test

import (
	"context"
	"testing"
	"time"

	memtripgw "github.com/Thepalm86/tripweaver/internal/adapters/memory/tripgw"
	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/app/mapbridge"
	"github.com/Thepalm86/tripweaver/internal/app/routes"
	"github.com/Thepalm86/tripweaver/internal/bus"
	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/geo"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routing"
	platformclock "github.com/Thepalm86/tripweaver/internal/platform/clock"
)

// stubRouter returns a straight line for any finalized pair.
type stubRouter struct {
	calls int
	err   error
}

func (r *stubRouter) AdHocRoute(_ context.Context, pair itinerary.RoutePair) (routes.Segment, error) {
	r.calls++
	if r.err != nil {
		return routes.Segment{}, r.err
	}
	req := routes.Request{
		From: routes.Waypoint{Kind: routes.WaypointBase, ID: pair.Start.ID, Name: pair.Start.Name, Coord: pair.Start.Coord},
		To:   routes.Waypoint{Kind: routes.WaypointDestination, ID: pair.End.ID, Name: pair.End.Name, Coord: pair.End.Coord},
	}
	return routes.Segment{
		Request: req,
		Route: routing.Route{
			Geometry:        []domain.Coordinate{pair.Start.Coord, pair.End.Coord},
			DurationSeconds: 300,
			DistanceMeters:  1200,
		},
	}, nil
}

func newBridgeFixture(t *testing.T) (*mapbridge.Bridge, *itinerary.Service, *bus.Bus, domain.Trip, *stubRouter) {
	t.Helper()
	gw := memtripgw.NewGateway()
	svc := itinerary.NewService(gw, platformclock.NewSystemClock(), nil)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.CreateTrip(context.Background(), domain.Trip{
		Name: "Bridge Trip", StartDate: start, EndDate: start.AddDate(0, 0, 1),
	}); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	trip := *svc.Snapshot().Trip

	if _, err := svc.AddDestination(context.Background(), trip.Days[0].ID, domain.Destination{
		Name: "Colosseum", Coord: domain.Coordinate{Lng: 12.49, Lat: 41.89},
	}); err != nil {
		t.Fatalf("AddDestination: %v", err)
	}
	if err := svc.AddBaseLocation(context.Background(), trip.Days[0].ID, domain.BaseLocation{
		Name: "Hotel Roma", Coord: domain.Coordinate{Lng: 12.48, Lat: 41.90},
	}); err != nil {
		t.Fatalf("AddBaseLocation: %v", err)
	}
	trip = *svc.Snapshot().Trip

	b := bus.New()
	router := &stubRouter{}
	bridge := mapbridge.NewBridge(svc, router, b, nil)
	return bridge, svc, b, trip, router
}

func TestBridge_DestinationClickSelectsAndSyncsDay(t *testing.T) {
	t.Parallel()

	bridge, svc, b, trip, _ := newBridgeFixture(t)
	var events []bus.SelectionChanged
	b.OnSelectionChanged(func(ev bus.SelectionChanged) { events = append(events, ev) })

	day := trip.Days[0]
	dest := day.Destinations[0]
	svc.SetSelectedDay(trip.Days[1].ID)

	bridge.ClickDestination(context.Background(), day.ID, dest.ID)

	sel := svc.Selection()
	if sel.Destination == nil || sel.Destination.ID != dest.ID {
		t.Fatalf("selection=%+v", sel)
	}
	if sel.Origin != itinerary.OriginMap {
		t.Fatalf("origin=%s", sel.Origin)
	}
	if svc.SelectedDay() != day.ID {
		t.Fatalf("timeline day not synced: %s", svc.SelectedDay())
	}
	if len(events) != 1 || events[0].Kind != "destination" || events[0].ID != string(dest.ID) {
		t.Fatalf("events=%+v", events)
	}
}

func TestBridge_BaseClickSelectsBase(t *testing.T) {
	t.Parallel()

	bridge, svc, _, trip, _ := newBridgeFixture(t)
	day := trip.Days[0]

	bridge.ClickBaseLocation(context.Background(), day.ID, 0)

	sel := svc.Selection()
	if sel.Base == nil || sel.Base.DayID != day.ID || sel.Base.Index != 0 {
		t.Fatalf("selection=%+v", sel)
	}
	if sel.Destination != nil {
		t.Fatalf("destination selection not cleared")
	}
}

func TestBridge_BackgroundClickClearsSelection(t *testing.T) {
	t.Parallel()

	bridge, svc, _, trip, _ := newBridgeFixture(t)
	day := trip.Days[0]
	bridge.ClickDestination(context.Background(), day.ID, day.Destinations[0].ID)

	bridge.ClickBackground()
	if sel := svc.Selection(); !sel.IsEmpty() {
		t.Fatalf("selection not cleared: %+v", sel)
	}
}

func TestBridge_RouteModeClicksFinalizeAdHocRoute(t *testing.T) {
	t.Parallel()

	bridge, svc, _, trip, router := newBridgeFixture(t)
	day := trip.Days[0]
	svc.SetRouteMode(true)

	// First click: pending start, no selection change, no route yet.
	bridge.ClickBaseLocation(context.Background(), day.ID, 0)
	if router.calls != 0 {
		t.Fatalf("router called on first endpoint")
	}
	if svc.Snapshot().PendingStart == nil {
		t.Fatalf("pending start not registered")
	}
	if sel := svc.Selection(); sel.Base != nil {
		t.Fatalf("route-mode click fell through to selection: %+v", sel)
	}

	// Second click finalizes the pair into an ad-hoc route selection.
	bridge.ClickDestination(context.Background(), day.ID, day.Destinations[0].ID)
	if router.calls != 1 {
		t.Fatalf("router calls=%d", router.calls)
	}
	sel := svc.Selection()
	if sel.RouteSegmentID == "" {
		t.Fatalf("finalized pair did not become the route selection: %+v", sel)
	}
	if svc.Snapshot().PendingStart != nil {
		t.Fatalf("pending start survived finalize")
	}
}

func TestBridge_RouteModeToggleOffSamePoint(t *testing.T) {
	t.Parallel()

	bridge, svc, _, trip, router := newBridgeFixture(t)
	day := trip.Days[0]
	svc.SetRouteMode(true)

	bridge.ClickBaseLocation(context.Background(), day.ID, 0)
	bridge.ClickBaseLocation(context.Background(), day.ID, 0)

	if svc.Snapshot().PendingStart != nil {
		t.Fatalf("pending start survived toggle-off")
	}
	if router.calls != 0 {
		t.Fatalf("router called on toggle-off")
	}
}

func TestBridge_RouteSegmentClickPartitionsAndFitsCamera(t *testing.T) {
	t.Parallel()

	bridge, svc, b, _, _ := newBridgeFixture(t)

	// Simulate the engine publishing two rendered segments.
	b.PublishRouteFeaturesUpdated(bus.RouteFeaturesUpdated{Collection: geo.FeatureCollection{
		Layer: routes.RouteLayer,
		Features: []geo.Feature{
			{ID: "seg-a", Geometry: []domain.Coordinate{{Lng: 0, Lat: 0}, {Lng: 1, Lat: 1}}},
			{ID: "seg-b", Geometry: []domain.Coordinate{{Lng: 2, Lat: 2}, {Lng: 3, Lat: 3}}},
		},
	}})

	var fits []bus.CameraFitRequest
	b.OnCameraFit(func(ev bus.CameraFitRequest) { fits = append(fits, ev) })

	bridge.ClickRouteSegment("seg-a", false)

	if sel := svc.Selection(); sel.RouteSegmentID != "seg-a" {
		t.Fatalf("selection=%+v", sel)
	}
	states := bridge.RouteFeatureStates()
	if !states["seg-a"].Active || states["seg-a"].Dimmed {
		t.Fatalf("seg-a state=%+v", states["seg-a"])
	}
	if !states["seg-b"].Dimmed || states["seg-b"].Active {
		t.Fatalf("seg-b state=%+v", states["seg-b"])
	}
	if len(fits) != 1 {
		t.Fatalf("camera fits=%d", len(fits))
	}
	if fits[0].MinLng != 0 || fits[0].MaxLng != 1 || fits[0].MinLat != 0 || fits[0].MaxLat != 1 {
		t.Fatalf("fit=%+v", fits[0])
	}
}

func TestBridge_RouteSegmentClickCanSkipCameraFit(t *testing.T) {
	t.Parallel()

	bridge, _, b, _, _ := newBridgeFixture(t)
	b.PublishRouteFeaturesUpdated(bus.RouteFeaturesUpdated{Collection: geo.FeatureCollection{
		Layer: routes.RouteLayer,
		Features: []geo.Feature{
			{ID: "seg-a", Geometry: []domain.Coordinate{{Lng: 0, Lat: 0}, {Lng: 1, Lat: 1}}},
		},
	}})
	var fits int
	b.OnCameraFit(func(bus.CameraFitRequest) { fits++ })

	bridge.ClickRouteSegment("seg-a", true)
	if fits != 0 {
		t.Fatalf("camera fit published despite skip")
	}
}

func TestBridge_HoverTrackedPerLayer(t *testing.T) {
	t.Parallel()

	bridge, _, _, _, _ := newBridgeFixture(t)

	bridge.Hover("destinations", "d1")
	bridge.Hover(routes.RouteLayer, "seg-a")
	if bridge.HoveredFeature("destinations") != "d1" {
		t.Fatalf("destinations hover=%s", bridge.HoveredFeature("destinations"))
	}

	// Moving to another feature on the same layer replaces, not accumulates.
	bridge.Hover("destinations", "d2")
	if bridge.HoveredFeature("destinations") != "d2" {
		t.Fatalf("stale hover survived: %s", bridge.HoveredFeature("destinations"))
	}

	bridge.Leave("destinations")
	if bridge.HoveredFeature("destinations") != "" {
		t.Fatalf("hover not cleared on leave")
	}
	if bridge.HoveredFeature(routes.RouteLayer) != "seg-a" {
		t.Fatalf("leave cleared the wrong layer")
	}
}

func TestMarkerLayers_DeriveFromSnapshot(t *testing.T) {
	t.Parallel()

	_, svc, _, trip, _ := newBridgeFixture(t)
	dests, bases := mapbridge.MarkerLayers(svc.Snapshot())

	if dests.Layer != mapbridge.DestinationLayer || bases.Layer != mapbridge.BaseLayer {
		t.Fatalf("layers = %s, %s", dests.Layer, bases.Layer)
	}
	if len(dests.Features) != 1 || len(bases.Features) != 1 {
		t.Fatalf("features = %d dests, %d bases, want 1 each", len(dests.Features), len(bases.Features))
	}
	df := dests.Features[0]
	if df.Properties["name"] != "Colosseum" {
		t.Fatalf("destination name = %v", df.Properties["name"])
	}
	if df.Properties["color"] != geo.MarkerColor(0) {
		t.Fatalf("color = %v, want first palette entry", df.Properties["color"])
	}
	bf := bases.Features[0]
	if bf.ID != string(trip.Days[0].ID)+":base" {
		t.Fatalf("base feature id = %s", bf.ID)
	}
	if bf.Properties["primary"] != true {
		t.Fatalf("primary = %v, want true", bf.Properties["primary"])
	}
}

func TestMarkerFeatureStates_SelectionDimsOthers(t *testing.T) {
	t.Parallel()

	bridge, svc, _, trip, _ := newBridgeFixture(t)
	if _, err := svc.AddDestination(context.Background(), trip.Days[0].ID, domain.Destination{
		Name: "Pantheon", Coord: domain.Coordinate{Lng: 12.4768, Lat: 41.8986},
	}); err != nil {
		t.Fatalf("AddDestination: %v", err)
	}

	selectedID := trip.Days[0].Destinations[0].ID
	bridge.ClickDestination(context.Background(), trip.Days[0].ID, selectedID)
	bridge.Hover(mapbridge.DestinationLayer, string(selectedID))

	states := bridge.MarkerFeatureStates()
	sel := states[string(selectedID)]
	if !sel.Selected || !sel.Hover || sel.Dimmed {
		t.Fatalf("selected state = %+v", sel)
	}
	dimmedCount := 0
	for id, st := range states {
		if id == string(selectedID) {
			continue
		}
		if st.Selected {
			t.Fatalf("unexpected selected state on %s", id)
		}
		if st.Dimmed {
			dimmedCount++
		}
	}
	if dimmedCount != 1 {
		t.Fatalf("dimmed destinations = %d, want 1", dimmedCount)
	}
}
