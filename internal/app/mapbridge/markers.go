package mapbridge

import (
	"strconv"

	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/geo"
)

const (
	DestinationLayer = "destination-markers"
	BaseLayer        = "base-markers"
)

// MarkerLayers derives the destination and base marker layers from a store
// snapshot. Destination pin colors follow the in-day index so map markers
// match the timeline's numbered entries.
func MarkerLayers(snap itinerary.Snapshot) (destinations, bases geo.FeatureCollection) {
	destinations = geo.FeatureCollection{Layer: DestinationLayer}
	bases = geo.FeatureCollection{Layer: BaseLayer}
	if snap.Trip == nil {
		return destinations, bases
	}

	for _, day := range snap.Trip.Days {
		for i, d := range day.Destinations {
			destinations.Features = append(destinations.Features, geo.Feature{
				ID:       string(d.ID),
				Geometry: []domain.Coordinate{d.Coord},
				Properties: map[string]any{
					"name":     d.Name,
					"category": string(d.Category),
					"dayId":    string(day.ID),
					"index":    i,
					"color":    geo.MarkerColor(i),
				},
			})
		}
		for i, b := range day.BaseLocations {
			bases.Features = append(bases.Features, geo.Feature{
				ID:       baseFeatureID(day.ID, i),
				Geometry: []domain.Coordinate{b.Coord},
				Properties: map[string]any{
					"name":    b.Name,
					"dayId":   string(day.ID),
					"index":   i,
					"primary": i == 0,
				},
			})
		}
	}
	return destinations, bases
}

func baseFeatureID(dayID domain.DayID, index int) string {
	if index == 0 {
		return string(dayID) + ":base"
	}
	return string(dayID) + ":base:" + strconv.Itoa(index)
}

// MarkerFeatureStates returns render-state flags for the marker layers: the
// selected destination or base carries selected, everything else on that
// layer is dimmed while a selection of its kind is held, and the last hovered
// feature carries hover.
func (b *Bridge) MarkerFeatureStates() map[string]geo.FeatureState {
	snap := b.store.Snapshot()
	dests, baseCol := MarkerLayers(snap)

	b.mu.Lock()
	hoverDest := b.lastHover[DestinationLayer]
	hoverBase := b.lastHover[BaseLayer]
	b.mu.Unlock()

	selDest := ""
	if snap.Selection.Destination != nil {
		selDest = string(snap.Selection.Destination.ID)
	}
	selBase := ""
	if snap.Selection.Base != nil {
		selBase = baseFeatureID(snap.Selection.Base.DayID, snap.Selection.Base.Index)
	}

	out := make(map[string]geo.FeatureState, len(dests.Features)+len(baseCol.Features))
	for _, f := range dests.Features {
		st := geo.FeatureState{Hover: f.ID == hoverDest}
		if selDest != "" {
			if f.ID == selDest {
				st.Selected = true
			} else {
				st.Dimmed = true
			}
		}
		out[f.ID] = st
	}
	for _, f := range baseCol.Features {
		st := geo.FeatureState{Hover: f.ID == hoverBase}
		if selBase != "" {
			if f.ID == selBase {
				st.Selected = true
			} else {
				st.Dimmed = true
			}
		}
		out[f.ID] = st
	}
	return out
}
