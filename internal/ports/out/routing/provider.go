package routing

import (
	"context"
	"errors"

	"github.com/Thepalm86/tripweaver/internal/domain"
)

type Profile string

const (
	ProfileDriving Profile = "driving"
	ProfileWalking Profile = "walking"
	ProfileCycling Profile = "cycling"
)

// Route is one candidate route between ordered waypoints.
type Route struct {
	// Geometry is the ordered polyline, (lng, lat) pairs.
	Geometry        []domain.Coordinate
	DurationSeconds float64
	DistanceMeters  float64
}

// ErrNoRoute is returned when the provider cannot connect the waypoints.
// It must be distinguishable so a failed leg can be dropped without
// aborting the caller's other in-flight segment requests.
var ErrNoRoute = errors.New("no route found")

// Provider computes one route through the given ordered coordinates.
type Provider interface {
	Route(ctx context.Context, coords []domain.Coordinate, profile Profile) (Route, error)
}
