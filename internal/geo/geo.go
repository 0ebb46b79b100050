package geo

import (
	"fmt"
	"math"

	"github.com/Thepalm86/tripweaver/internal/domain"
)

// coordPrecision is the number of decimal places coordinates are rounded to
// before being used in identity keys (~1.1m at the equator). Provider jitter
// below this threshold must not defeat segment caching.
const coordPrecision = 1e5

// Round snaps a coordinate component to the key precision.
func Round(v float64) float64 {
	return math.Round(v*coordPrecision) / coordPrecision
}

// Equal reports whether two coordinates are the same point at key precision.
func Equal(a, b domain.Coordinate) bool {
	return Round(a.Lng) == Round(b.Lng) && Round(a.Lat) == Round(b.Lat)
}

// SegmentKey is the content-addressed identity of a directed route segment.
// It is a structured tuple of rounded endpoint coordinates, not a string
// concatenation, so precision and delimiter bugs cannot collide keys.
type SegmentKey struct {
	FromLng float64
	FromLat float64
	ToLng   float64
	ToLat   float64
}

func KeyFor(from, to domain.Coordinate) SegmentKey {
	return SegmentKey{
		FromLng: Round(from.Lng),
		FromLat: Round(from.Lat),
		ToLng:   Round(to.Lng),
		ToLat:   Round(to.Lat),
	}
}

// String renders the key in a stable form usable as a map feature id or an
// external cache key.
func (k SegmentKey) String() string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", k.FromLng, k.FromLat, k.ToLng, k.ToLat)
}

// Bearing computes the initial great-circle bearing from one point to
// another, in degrees clockwise from north, normalized to [0, 360).
func Bearing(from, to domain.Coordinate) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Bounds returns the axis-aligned bounding box of a coordinate list.
// The ok result is false for an empty list.
func Bounds(coords []domain.Coordinate) (minLng, minLat, maxLng, maxLat float64, ok bool) {
	if len(coords) == 0 {
		return 0, 0, 0, 0, false
	}
	minLng, maxLng = coords[0].Lng, coords[0].Lng
	minLat, maxLat = coords[0].Lat, coords[0].Lat
	for _, c := range coords[1:] {
		minLng = math.Min(minLng, c.Lng)
		maxLng = math.Max(maxLng, c.Lng)
		minLat = math.Min(minLat, c.Lat)
		maxLat = math.Max(maxLat, c.Lat)
	}
	return minLng, minLat, maxLng, maxLat, true
}

// markerPalette cycles per destination index within a day. The order matches
// the timeline's numbered pins.
var markerPalette = []string{
	"#2563eb", // blue
	"#dc2626", // red
	"#16a34a", // green
	"#d97706", // amber
	"#9333ea", // purple
	"#0891b2", // cyan
	"#db2777", // pink
	"#65a30d", // lime
}

// MarkerColor assigns a stable color for the destination at the given index.
func MarkerColor(index int) string {
	if index < 0 {
		index = 0
	}
	return markerPalette[index%len(markerPalette)]
}
