package contracttest

import (
	"context"
	"testing"
	"time"

	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/geo"
	routecacheport "github.com/Thepalm86/tripweaver/internal/ports/out/routecache"
	routingport "github.com/Thepalm86/tripweaver/internal/ports/out/routing"
	tripgwport "github.com/Thepalm86/tripweaver/internal/ports/out/tripgw"
)

type CleanupFunc = func()

type TripGatewayFactory func(t *testing.T) (tripgwport.Gateway, CleanupFunc)
type RouteCacheFactory func(t *testing.T) (routecacheport.Cache, CleanupFunc)

// RunTripGateway exercises the behaviors every tripgw.Gateway adapter must
// share: canonical ID assignment, order persistence, day reflow.
func RunTripGateway(t *testing.T, newGateway TripGatewayFactory) {
	t.Helper()
	ctx := context.Background()

	seed := func(t *testing.T) (tripgwport.Gateway, domain.Trip) {
		t.Helper()
		gw, cleanup := newGateway(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		id, err := gw.CreateTrip(ctx, domain.Trip{
			Name:      "Umbria Loop",
			StartDate: start,
			EndDate:   start.AddDate(0, 0, 2),
			Days: []domain.Day{
				{Date: start},
				{Date: start.AddDate(0, 0, 1)},
				{Date: start.AddDate(0, 0, 2)},
			},
		})
		if err != nil {
			t.Fatalf("CreateTrip: %v", err)
		}
		trip, err := gw.GetTrip(ctx, id)
		if err != nil {
			t.Fatalf("GetTrip: %v", err)
		}
		return gw, trip
	}

	t.Run("CreateAssignsIDs", func(t *testing.T) {
		_, trip := seed(t)
		if trip.ID == "" {
			t.Fatalf("trip id not assigned")
		}
		for i, d := range trip.Days {
			if d.ID == "" {
				t.Fatalf("day %d id not assigned", i)
			}
		}
	})

	t.Run("GetTripNotFound", func(t *testing.T) {
		gw, _ := seed(t)
		if _, err := gw.GetTrip(ctx, "missing"); err != tripgwport.ErrTripNotFound {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("AddDestinationReturnsCanonicalRecord", func(t *testing.T) {
		gw, trip := seed(t)
		created, err := gw.AddDestinationToDay(ctx, trip.Days[0].ID, domain.Destination{
			Name:  "Duomo",
			Coord: domain.Coordinate{Lng: 12.1, Lat: 42.7},
		})
		if err != nil {
			t.Fatalf("AddDestinationToDay: %v", err)
		}
		if created.ID == "" {
			t.Fatalf("destination id not assigned")
		}
		if created.Category != domain.CategoryAttraction {
			t.Fatalf("category default=%s", created.Category)
		}
		got, err := gw.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("GetTrip: %v", err)
		}
		if len(got.Days[0].Destinations) != 1 || got.Days[0].Destinations[0].ID != created.ID {
			t.Fatalf("destinations=%+v", got.Days[0].Destinations)
		}
	})

	t.Run("ReorderDestinationsPersistsOrder", func(t *testing.T) {
		gw, trip := seed(t)
		dayID := trip.Days[0].ID
		var ids []domain.DestinationID
		for _, name := range []string{"a", "b", "c"} {
			d, err := gw.AddDestinationToDay(ctx, dayID, domain.Destination{Name: name})
			if err != nil {
				t.Fatalf("add %s: %v", name, err)
			}
			ids = append(ids, d.ID)
		}
		if err := gw.ReorderDestinations(ctx, dayID, []domain.DestinationID{ids[2], ids[0], ids[1]}); err != nil {
			t.Fatalf("ReorderDestinations: %v", err)
		}
		got, _ := gw.GetTrip(ctx, trip.ID)
		names := []string{}
		for _, d := range got.Days[0].Destinations {
			names = append(names, d.Name)
		}
		if names[0] != "c" || names[1] != "a" || names[2] != "b" {
			t.Fatalf("order=%v", names)
		}
	})

	t.Run("MoveDestinationReassignsDay", func(t *testing.T) {
		gw, trip := seed(t)
		d, err := gw.AddDestinationToDay(ctx, trip.Days[0].ID, domain.Destination{Name: "x"})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if err := gw.MoveDestination(ctx, d.ID, trip.Days[1].ID); err != nil {
			t.Fatalf("MoveDestination: %v", err)
		}
		got, _ := gw.GetTrip(ctx, trip.ID)
		if len(got.Days[0].Destinations) != 0 {
			t.Fatalf("source day not emptied")
		}
		if len(got.Days[1].Destinations) != 1 || got.Days[1].Destinations[0].ID != d.ID {
			t.Fatalf("target day=%+v", got.Days[1].Destinations)
		}
	})

	t.Run("BaseLocationLifecycle", func(t *testing.T) {
		gw, trip := seed(t)
		dayID := trip.Days[0].ID
		for _, name := range []string{"Hotel A", "Hotel B"} {
			if err := gw.AddBaseLocation(ctx, dayID, domain.BaseLocation{Name: name, Coord: domain.Coordinate{Lng: 1, Lat: 2}}); err != nil {
				t.Fatalf("AddBaseLocation: %v", err)
			}
		}
		if err := gw.ReorderBaseLocations(ctx, dayID, 1, 0); err != nil {
			t.Fatalf("ReorderBaseLocations: %v", err)
		}
		got, _ := gw.GetTrip(ctx, trip.ID)
		if got.Days[0].BaseLocations[0].Name != "Hotel B" {
			t.Fatalf("primary=%s", got.Days[0].BaseLocations[0].Name)
		}
		if err := gw.RemoveBaseLocation(ctx, dayID, 0); err != nil {
			t.Fatalf("RemoveBaseLocation: %v", err)
		}
		got, _ = gw.GetTrip(ctx, trip.ID)
		if len(got.Days[0].BaseLocations) != 1 || got.Days[0].BaseLocations[0].Name != "Hotel A" {
			t.Fatalf("bases=%+v", got.Days[0].BaseLocations)
		}
		if err := gw.RemoveBaseLocation(ctx, dayID, 5); err != tripgwport.ErrBaseIndexOutOfRange {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("DuplicateDayInsertsAfterSourceAndReflows", func(t *testing.T) {
		gw, trip := seed(t)
		if _, err := gw.AddDestinationToDay(ctx, trip.Days[0].ID, domain.Destination{Name: "keep"}); err != nil {
			t.Fatalf("add: %v", err)
		}
		clone, err := gw.DuplicateDay(ctx, trip.ID, trip.Days[0].ID)
		if err != nil {
			t.Fatalf("DuplicateDay: %v", err)
		}
		if clone.ID == trip.Days[0].ID {
			t.Fatalf("clone reused source id")
		}
		got, _ := gw.GetTrip(ctx, trip.ID)
		if len(got.Days) != 4 {
			t.Fatalf("days=%d", len(got.Days))
		}
		if got.Days[1].ID != clone.ID {
			t.Fatalf("clone not inserted after source")
		}
		if len(got.Days[1].Destinations) != 1 || got.Days[1].Destinations[0].Name != "keep" {
			t.Fatalf("clone destinations=%+v", got.Days[1].Destinations)
		}
		if got.Days[1].Destinations[0].ID == got.Days[0].Destinations[0].ID {
			t.Fatalf("cloned destination reused id")
		}
		for i, d := range got.Days {
			want := got.StartDate.AddDate(0, 0, i)
			if !d.Date.Equal(want) {
				t.Fatalf("day %d date=%v want %v", i, d.Date, want)
			}
		}
	})

	t.Run("UpdateTripDatesReassignsExistingDayDates", func(t *testing.T) {
		gw, trip := seed(t)
		start := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
		if err := gw.UpdateTripDates(ctx, trip.ID, start, start.AddDate(0, 0, 2)); err != nil {
			t.Fatalf("UpdateTripDates: %v", err)
		}
		got, _ := gw.GetTrip(ctx, trip.ID)
		if !got.StartDate.Equal(start) {
			t.Fatalf("start=%v", got.StartDate)
		}
		for i, d := range got.Days {
			want := start.AddDate(0, 0, i)
			if !d.Date.Equal(want) {
				t.Fatalf("day %d date=%v want %v", i, d.Date, want)
			}
		}
	})
}

// RunRouteCache exercises the append-only content-addressed cache contract.
func RunRouteCache(t *testing.T, newCache RouteCacheFactory) {
	t.Helper()
	ctx := context.Background()

	cache, cleanup := newCache(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	key := geo.KeyFor(domain.Coordinate{Lng: 10, Lat: 45}, domain.Coordinate{Lng: 11, Lat: 46})

	if _, ok, err := cache.Get(ctx, key); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	want := routingport.Route{
		Geometry:        []domain.Coordinate{{Lng: 10, Lat: 45}, {Lng: 10.5, Lat: 45.5}, {Lng: 11, Lat: 46}},
		DurationSeconds: 3600,
		DistanceMeters:  92000,
	}
	if err := cache.Put(ctx, key, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.DurationSeconds != want.DurationSeconds || got.DistanceMeters != want.DistanceMeters {
		t.Fatalf("got=%+v", got)
	}
	if len(got.Geometry) != 3 || got.Geometry[1] != want.Geometry[1] {
		t.Fatalf("geometry=%+v", got.Geometry)
	}

	// Reversed direction is a different key.
	rev := geo.KeyFor(domain.Coordinate{Lng: 11, Lat: 46}, domain.Coordinate{Lng: 10, Lat: 45})
	if _, ok, _ := cache.Get(ctx, rev); ok {
		t.Fatalf("reverse key must miss")
	}
}
