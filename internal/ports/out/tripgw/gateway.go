package tripgw

import (
	"context"
	"time"

	"github.com/Thepalm86/tripweaver/internal/domain"
)

// TripPatch carries partial trip-level updates. Nil fields are left unchanged.
type TripPatch struct {
	Name         *string
	CountryCodes []string
}

// Gateway abstracts remote CRUD for trips, days, destinations and base
// locations. It is the single persistence boundary of the planning core.
//
// Contract notes:
//   - Entity IDs are assigned by the gateway; creation methods return the
//     canonical record, which callers merge into local state (confirm-then-
//     merge, never speculative local inserts).
//   - Coordinates round-trip as ordered (longitude, latitude) pairs.
//   - Category values are constrained server-side to the fixed enumeration;
//     callers map free text via domain.ParseCategory before persisting.
type Gateway interface {
	GetTrip(ctx context.Context, id domain.TripID) (domain.Trip, error)
	CreateTrip(ctx context.Context, t domain.Trip) (domain.TripID, error)
	UpdateTrip(ctx context.Context, id domain.TripID, patch TripPatch) error

	// AddDestinationToDay persists a new destination appended to the day's
	// sequence and returns the canonical record with its assigned ID.
	AddDestinationToDay(ctx context.Context, dayID domain.DayID, d domain.Destination) (domain.Destination, error)
	UpdateDestination(ctx context.Context, d domain.Destination) (domain.Destination, error)
	RemoveDestinationFromDay(ctx context.Context, id domain.DestinationID) error

	// MoveDestination reassigns the destination's owning day. Callers must
	// issue this before re-persisting order for either affected day.
	MoveDestination(ctx context.Context, id domain.DestinationID, toDayID domain.DayID) error
	ReorderDestinations(ctx context.Context, dayID domain.DayID, orderedIDs []domain.DestinationID) error

	AddBaseLocation(ctx context.Context, dayID domain.DayID, b domain.BaseLocation) error
	RemoveBaseLocation(ctx context.Context, dayID domain.DayID, index int) error
	UpdateBaseLocation(ctx context.Context, dayID domain.DayID, index int, b domain.BaseLocation) error
	ReorderBaseLocations(ctx context.Context, dayID domain.DayID, fromIndex, toIndex int) error

	// AddDay appends a day with the given date and returns the canonical
	// record.
	AddDay(ctx context.Context, tripID domain.TripID, date time.Time) (domain.Day, error)
	// DuplicateDay clones the day's destinations and base locations into a
	// new day inserted immediately after the source, and returns the clone.
	DuplicateDay(ctx context.Context, tripID domain.TripID, dayID domain.DayID) (domain.Day, error)
	RemoveDay(ctx context.Context, tripID domain.TripID, dayID domain.DayID) error

	// UpdateTripDates persists the new inclusive range and reassigns the
	// dates of existing days contiguously from start, preserving their
	// order. It does not add or remove days; callers reconcile day count via
	// AddDay/RemoveDay.
	UpdateTripDates(ctx context.Context, tripID domain.TripID, start, end time.Time) error
}
