package itinerary

import (
	"github.com/Thepalm86/tripweaver/internal/domain"
)

// Selection setters are synchronous: they touch no persistence and only
// publish change notifications. The three variants are mutually exclusive;
// setting any one clears the other two.

func (s *Service) SetSelectedDestination(d *domain.Destination, origin SelectionOrigin) {
	s.mu.Lock()
	if d == nil {
		s.sel = Selection{}
	} else {
		cp := domain.CloneDestination(*d)
		s.sel = Selection{Destination: &cp, Origin: origin}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Service) SetSelectedBaseLocation(ref *BaseRef, origin SelectionOrigin) {
	s.mu.Lock()
	if ref == nil {
		s.sel = Selection{}
	} else {
		cp := *ref
		s.sel = Selection{Base: &cp, Origin: origin}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Service) SetSelectedRouteSegment(id string, origin SelectionOrigin) {
	s.mu.Lock()
	if id == "" {
		s.sel = Selection{}
	} else {
		s.sel = Selection{RouteSegmentID: id, Origin: origin}
	}
	s.mu.Unlock()
	s.notify()
}

// SetSelectedDay changes the day context. The previously selected route
// segment belongs to the old context, so it is cleared.
func (s *Service) SetSelectedDay(dayID domain.DayID) {
	s.mu.Lock()
	s.selectedDayID = dayID
	if s.sel.RouteSegmentID != "" {
		s.sel = Selection{}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Service) SelectedDay() domain.DayID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedDayID
}

func (s *Service) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneSelectionLocked()
}

// SetRouteMode toggles the ad-hoc routing tool. Leaving route mode discards
// any pending start point.
func (s *Service) SetRouteMode(active bool) {
	s.mu.Lock()
	s.routeMode = active
	if !active {
		s.pendingStart = nil
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Service) RouteModeActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routeMode
}

// RegisterRoutePoint implements the two-click ad-hoc routing protocol:
//   - no pending start: the point becomes the pending start
//   - same point clicked again: the pending start is cleared (toggle-off)
//   - different point: the pair is finalized and the pending start cleared
//
// At most one pair is live at a time; finalizing discards any prior result.
func (s *Service) RegisterRoutePoint(p RoutePoint) (pair *RoutePair, toggledOff bool) {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.notify()
	}()

	if s.pendingStart == nil {
		cp := p
		s.pendingStart = &cp
		return nil, false
	}
	if s.pendingStart.sameAs(p) {
		s.pendingStart = nil
		return nil, true
	}
	out := &RoutePair{Start: *s.pendingStart, End: p}
	s.pendingStart = nil
	return out, false
}
