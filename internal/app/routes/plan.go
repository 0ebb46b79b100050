// Package routes derives the set of point-to-point route segments the map
// should draw for the current view, computes each segment's polyline through
// the routing provider, and caches results by endpoint identity.
package routes

import (
	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/geo"
)

// WaypointKind classifies a segment endpoint for styling purposes.
type WaypointKind string

const (
	WaypointBase        WaypointKind = "base"
	WaypointDestination WaypointKind = "destination"
)

// Waypoint is one endpoint of a route segment request.
type Waypoint struct {
	Kind  WaypointKind
	ID    string
	Name  string
	DayID domain.DayID
	Coord domain.Coordinate
}

// SegmentKind distinguishes day-to-day travel legs from within-day legs.
type SegmentKind string

const (
	SegmentInterDay SegmentKind = "inter-day"
	SegmentIntraDay SegmentKind = "intra-day"
)

// Request is one segment to compute: a directed waypoint pair.
type Request struct {
	From Waypoint
	To   Waypoint
	Kind SegmentKind
}

// Key returns the content-addressed identity of the request's endpoints.
func (r Request) Key() geo.SegmentKey {
	return geo.KeyFor(r.From.Coord, r.To.Coord)
}

// SegmentType classifies the leg purely from its endpoint kinds
// (base-base, base-destination, destination-destination, destination-base).
func (r Request) SegmentType() string {
	return string(r.From.Kind) + "-" + string(r.To.Kind)
}

// PlanSegments re-derives the segment set for the current view. With no day
// selected (overview), it emits one inter-day group per adjacent day pair
// whose primary bases differ and whose arrival day has destinations. With a
// day selected, it emits the inter-day groups touching that day plus, for a
// non-travel day, an intra-day group from the base to each destination.
//
// The derivation is pure: it never fetches, so callers can re-run it freely
// on every structural change.
func PlanSegments(trip *domain.Trip, selectedDayID domain.DayID) []Request {
	if trip == nil || len(trip.Days) == 0 {
		return nil
	}
	if selectedDayID == "" {
		return planOverview(trip)
	}
	idx := trip.DayIndex(selectedDayID)
	if idx < 0 {
		return planOverview(trip)
	}
	return planSelectedDay(trip, idx)
}

func planOverview(trip *domain.Trip) []Request {
	var out []Request
	for i := 0; i+1 < len(trip.Days); i++ {
		from, to := &trip.Days[i], &trip.Days[i+1]
		if !basesDiffer(from, to) {
			continue
		}
		// A base-to-base line is only worth drawing if the traveler actually
		// does something on arrival; otherwise it duplicates the base marker.
		if len(to.Destinations) == 0 {
			continue
		}
		out = append(out, interDayGroup(from, to)...)
	}
	return out
}

func planSelectedDay(trip *domain.Trip, idx int) []Request {
	day := &trip.Days[idx]
	var prev, next *domain.Day
	if idx > 0 {
		prev = &trip.Days[idx-1]
	}
	if idx+1 < len(trip.Days) {
		next = &trip.Days[idx+1]
	}

	var out []Request
	arrival := prev != nil && basesDiffer(prev, day)
	departure := next != nil && basesDiffer(day, next) &&
		len(next.Destinations) > 0 && len(day.Destinations) > 0

	if arrival {
		out = append(out, interDayGroup(prev, day)...)
	}
	if departure {
		out = append(out, interDayGroup(day, next)...)
	}
	if !arrival && !departure {
		out = append(out, intraDayGroup(day)...)
	}
	return out
}

// basesDiffer reports whether two days' primary bases are distinct points.
// Days without a primary base never differ; there is nothing to route from.
func basesDiffer(a, b *domain.Day) bool {
	ba, bb := a.PrimaryBase(), b.PrimaryBase()
	if ba == nil || bb == nil {
		return false
	}
	return !geo.Equal(ba.Coord, bb.Coord)
}

// interDayGroup expands a travel leg into the waypoint chain
// [fromDay.base] + toDay.destinations (in order) + [toDay.base] and emits one
// request per consecutive pair. Per-pair requests (rather than one multi-stop
// request) are what make per-segment caching and per-leg popup metadata work.
func interDayGroup(from, to *domain.Day) []Request {
	chain := []Waypoint{baseWaypoint(from)}
	for i := range to.Destinations {
		chain = append(chain, destinationWaypoint(to, i))
	}
	if to.PrimaryBase() != nil {
		chain = append(chain, baseWaypoint(to))
	}

	out := make([]Request, 0, len(chain)-1)
	for i := 0; i+1 < len(chain); i++ {
		out = append(out, Request{From: chain[i], To: chain[i+1], Kind: SegmentInterDay})
	}
	return out
}

// intraDayGroup emits base → destination per destination. There is no
// destination-to-destination chaining within a day in this model.
func intraDayGroup(day *domain.Day) []Request {
	if day.PrimaryBase() == nil || len(day.Destinations) == 0 {
		return nil
	}
	base := baseWaypoint(day)
	out := make([]Request, 0, len(day.Destinations))
	for i := range day.Destinations {
		out = append(out, Request{From: base, To: destinationWaypoint(day, i), Kind: SegmentIntraDay})
	}
	return out
}

// Routing always uses the base at index 0; alternative bases never
// participate in segment derivation.
func baseWaypoint(day *domain.Day) Waypoint {
	b := day.PrimaryBase()
	return Waypoint{
		Kind:  WaypointBase,
		ID:    string(day.ID) + ":base",
		Name:  b.Name,
		DayID: day.ID,
		Coord: b.Coord,
	}
}

func destinationWaypoint(day *domain.Day, i int) Waypoint {
	d := day.Destinations[i]
	return Waypoint{
		Kind:  WaypointDestination,
		ID:    string(d.ID),
		Name:  d.Name,
		DayID: day.ID,
		Coord: d.Coord,
	}
}
