package itinerary

import (
	"github.com/Thepalm86/tripweaver/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// SelectionOrigin records which surface initiated a selection. Only
// map-originated selections open the floating preview drawer.
type SelectionOrigin string

const (
	OriginMap      SelectionOrigin = "map"
	OriginTimeline SelectionOrigin = "timeline"
)

// BaseRef addresses a base location by owning day and index.
type BaseRef struct {
	DayID domain.DayID
	Index int
}

// Selection is a discriminated union: at most one of Destination, Base and
// RouteSegmentID is populated at any time.
type Selection struct {
	Destination    *domain.Destination
	Base           *BaseRef
	RouteSegmentID string
	Origin         SelectionOrigin
}

func (s Selection) IsEmpty() bool {
	return s.Destination == nil && s.Base == nil && s.RouteSegmentID == ""
}

// RoutePointSource classifies where an ad-hoc routing endpoint came from.
type RoutePointSource string

const (
	RoutePointBase        RoutePointSource = "base"
	RoutePointDestination RoutePointSource = "destination"
	RoutePointExplore     RoutePointSource = "explore"
)

// RoutePoint is a user-designated endpoint for the ad-hoc routing tool.
type RoutePoint struct {
	ID     string
	Source RoutePointSource
	Name   string
	Coord  domain.Coordinate
}

func (p RoutePoint) sameAs(q RoutePoint) bool {
	return p.ID == q.ID && p.Source == q.Source && p.Coord == q.Coord
}

// RoutePair is a finalized ad-hoc route request.
type RoutePair struct {
	Start RoutePoint
	End   RoutePoint
}

// UpdateTripInput carries a partial trip metadata update.
type UpdateTripInput struct {
	Name         Optional[string]
	CountryCodes Optional[[]string]
}

// UpdateDestinationInput carries a partial destination update. Name and
// coordinates cannot be null; optional fields can be cleared with Null.
type UpdateDestinationInput struct {
	Name        Optional[string]
	Description Optional[string]
	Coord       Optional[domain.Coordinate]
	City        Optional[string]
	Category    Optional[string] // free text, mapped via domain.ParseCategory
	Rating      Optional[float64]
	Duration    Optional[float64] // hours
	Cost        Optional[float64]
	Notes       Optional[string]
	Links       Optional[[]domain.Link]
}

// UpdateBaseLocationInput mirrors UpdateDestinationInput for base locations.
type UpdateBaseLocationInput struct {
	Name    Optional[string]
	Coord   Optional[domain.Coordinate]
	Context Optional[string]
	City    Optional[string]
	Notes   Optional[string]
	Links   Optional[[]domain.Link]
}

// DuplicateOutcome is the per-target result of a duplicate operation.
type DuplicateOutcome struct {
	DayID domain.DayID
	OK    bool
	Err   string
}

// DuplicateReport summarizes a best-effort duplicate batch. Failed targets
// are skipped, never rolled back.
type DuplicateReport struct {
	Outcomes []DuplicateOutcome
}

func (r DuplicateReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK {
			n++
		}
	}
	return n
}

// Snapshot is an immutable view of the store for readers. The trip is a deep
// copy; mutating it cannot corrupt store state.
type Snapshot struct {
	Trip          *domain.Trip
	SelectedDayID domain.DayID
	Selection     Selection
	RouteMode     bool
	PendingStart  *RoutePoint
	LastError     string
	Loading       bool
}
