package domain

import "time"

// Coordinate is an ordered (longitude, latitude) pair. The order matches the
// wire format used by the persistence gateway and the route provider.
type Coordinate struct {
	Lng float64
	Lat float64
}

type Category string

const (
	CategoryCity       Category = "city"
	CategoryAttraction Category = "attraction"
	CategoryRestaurant Category = "restaurant"
	CategoryHotel      Category = "hotel"
	CategoryActivity   Category = "activity"
	CategoryOther      Category = "other"
)

// Link is a typed URL attached to a destination or base location.
type Link struct {
	ID    LinkID
	URL   string
	Label string
}

type Destination struct {
	ID          DestinationID
	Name        string
	Description string
	Coord       Coordinate
	City        *string
	Category    Category

	Rating        *float64
	DurationHours float64
	Cost          *float64
	Notes         *string

	Links []Link
}

// BaseLocation is an accommodation entry within a day. It has no identity of
// its own; it is addressed by (dayID, index). Index 0 is the primary
// accommodation and is the only entry that drives routing.
type BaseLocation struct {
	Name    string
	Coord   Coordinate
	Context *string
	City    *string
	Notes   *string
	Links   []Link
}

type Day struct {
	ID   DayID
	Date time.Time // date-only semantics at the edges

	// Destinations is the visit order; sequence position is meaningful.
	Destinations []Destination

	// BaseLocations holds the primary accommodation at index 0; additional
	// entries are alternatives whose order is display-only.
	BaseLocations []BaseLocation
}

// PrimaryBase returns the routing-authoritative base location, if any.
func (d Day) PrimaryBase() *BaseLocation {
	if len(d.BaseLocations) == 0 {
		return nil
	}
	b := d.BaseLocations[0]
	return &b
}

func (d Day) DestinationIndex(id DestinationID) int {
	for i, dest := range d.Destinations {
		if dest.ID == id {
			return i
		}
	}
	return -1
}

type Trip struct {
	ID           TripID
	Name         string
	StartDate    time.Time // inclusive
	EndDate      time.Time // inclusive
	CountryCodes []string

	// Days are ordered by date, contiguous, one per calendar date in range.
	Days []Day
}

// DayIndex returns the position of the day within the trip, or -1.
func (t Trip) DayIndex(id DayID) int {
	for i, d := range t.Days {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (t *Trip) DayByID(id DayID) *Day {
	for i := range t.Days {
		if t.Days[i].ID == id {
			return &t.Days[i]
		}
	}
	return nil
}

// DaySpan is the number of calendar days in an inclusive date range.
func DaySpan(start, end time.Time) int {
	s := DateOnly(start)
	e := DateOnly(end)
	return int(e.Sub(s).Hours()/24) + 1
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
