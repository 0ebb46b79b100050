package geocode

import (
	"context"

	"github.com/Thepalm86/tripweaver/internal/domain"
)

// Result is one forward-geocoding candidate.
type Result struct {
	Name        string
	DisplayName string
	Coord       domain.Coordinate
	Category    string
	City        string
	CountryCode string
}

// Geocoder resolves a free-text query into place candidates.
// Implementations must honor ctx cancellation promptly: the search service
// cancels superseded queries.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}
