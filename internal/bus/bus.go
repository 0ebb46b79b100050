// Package bus is the in-process signaling channel between planning surfaces.
// It is fire-and-forget: publishing never blocks on or fails for a missing
// subscriber, and no component may assume a published event was observed.
package bus

import (
	"sync"

	"github.com/Thepalm86/tripweaver/internal/geo"
)

// CameraFitRequest asks the map surface to fit its camera to a bounding box.
type CameraFitRequest struct {
	MinLng, MinLat float64
	MaxLng, MaxLat float64
	Padding        int
}

// SelectionChanged cross-announces a selection made in one surface so the
// others can mirror it. Payload fields are primitives on purpose; the bus
// sits below every app package.
type SelectionChanged struct {
	Kind   string // "destination" | "base" | "route" | "none"
	ID     string
	DayID  string
	Origin string // "map" | "timeline"
}

// RouteFeaturesUpdated carries the freshly computed route layer.
type RouteFeaturesUpdated struct {
	Collection geo.FeatureCollection
}

// Bus fans events out to subscribers synchronously, in subscription order.
type Bus struct {
	mu            sync.RWMutex
	cameraFit     []func(CameraFitRequest)
	selection     []func(SelectionChanged)
	routeFeatures []func(RouteFeaturesUpdated)
}

func New() *Bus { return &Bus{} }

func (b *Bus) OnCameraFit(fn func(CameraFitRequest)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cameraFit = append(b.cameraFit, fn)
}

func (b *Bus) PublishCameraFit(ev CameraFitRequest) {
	b.mu.RLock()
	subs := append(([]func(CameraFitRequest))(nil), b.cameraFit...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (b *Bus) OnSelectionChanged(fn func(SelectionChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection = append(b.selection, fn)
}

func (b *Bus) PublishSelectionChanged(ev SelectionChanged) {
	b.mu.RLock()
	subs := append(([]func(SelectionChanged))(nil), b.selection...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (b *Bus) OnRouteFeaturesUpdated(fn func(RouteFeaturesUpdated)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routeFeatures = append(b.routeFeatures, fn)
}

func (b *Bus) PublishRouteFeaturesUpdated(ev RouteFeaturesUpdated) {
	b.mu.RLock()
	subs := append(([]func(RouteFeaturesUpdated))(nil), b.routeFeatures...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
