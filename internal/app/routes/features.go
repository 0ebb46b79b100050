package routes

import (
	"fmt"

	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/geo"
)

// RouteLayer is the logical map layer all computed segments render on.
const RouteLayer = "route-segments"

// BuildFeatureCollection turns computed segments into the route layer's
// feature collection. Each feature carries its identity key, endpoint day
// ids, a human-readable label, and a bearing for directional arrow rendering.
func BuildFeatureCollection(segs []Segment) geo.FeatureCollection {
	features := make([]geo.Feature, 0, len(segs))
	for _, s := range segs {
		features = append(features, buildFeature(s))
	}
	return geo.FeatureCollection{Layer: RouteLayer, Features: features}
}

func buildFeature(s Segment) geo.Feature {
	geom := s.Route.Geometry
	if len(geom) < 2 {
		geom = []domain.Coordinate{s.From.Coord, s.To.Coord}
	}
	return geo.Feature{
		ID:       s.Key().String(),
		Geometry: geom,
		Properties: map[string]any{
			"segmentType":     s.SegmentType(),
			"segmentKind":     string(s.Kind),
			"fromDayId":       string(s.From.DayID),
			"toDayId":         string(s.To.DayID),
			"label":           segmentLabel(s),
			"durationSeconds": s.Route.DurationSeconds,
			"distanceMeters":  s.Route.DistanceMeters,
			"bearing":         geo.Bearing(geom[0], geom[len(geom)-1]),
		},
	}
}

func segmentLabel(s Segment) string {
	return fmt.Sprintf("%s to %s (%s, %s)",
		s.From.Name, s.To.Name,
		formatDuration(s.Route.DurationSeconds),
		formatDistance(s.Route.DistanceMeters))
}

func formatDuration(seconds float64) string {
	mins := int(seconds/60 + 0.5)
	if mins < 60 {
		return fmt.Sprintf("%d min", mins)
	}
	return fmt.Sprintf("%d h %d min", mins/60, mins%60)
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
