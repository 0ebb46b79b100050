package geo

import "github.com/Thepalm86/tripweaver/internal/domain"

// Feature state flags are transient render hints carried independently of
// geometry; the map surface applies them as per-feature state.
type FeatureState struct {
	Hover    bool `json:"hover,omitempty"`
	Selected bool `json:"selected,omitempty"`
	Active   bool `json:"active,omitempty"`
	Dimmed   bool `json:"dimmed,omitempty"`
}

// Feature is one renderable map feature: a marker (single coordinate) or a
// route line (polyline). Properties is a flat bag consumed by map styling.
type Feature struct {
	ID         string              `json:"id"`
	Geometry   []domain.Coordinate `json:"geometry"`
	Properties map[string]any      `json:"properties"`
}

// FeatureCollection is one logical map layer's worth of features.
type FeatureCollection struct {
	Layer    string    `json:"layer"`
	Features []Feature `json:"features"`
}
