package itinerary

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Thepalm86/tripweaver/internal/domain"
)

// AddBaseLocation appends an accommodation to the day's alternatives. The
// first entry added becomes the primary (index 0) and drives routing.
func (s *Service) AddBaseLocation(ctx context.Context, dayID domain.DayID, b domain.BaseLocation) error {
	s.mu.RLock()
	exists := s.dayLocked(dayID) != nil
	s.mu.RUnlock()
	if !exists {
		return s.dayNotFound(dayID)
	}
	b.Name = domain.NormalizeHumanName(b.Name)
	if b.Name == "" {
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "must be non-empty"}}
	}

	s.setLoading(true)
	if err := s.gw.AddBaseLocation(ctx, dayID, b); err != nil {
		return s.fail("BASE_ADD_FAILED", err)
	}

	s.mu.Lock()
	if day := s.dayLocked(dayID); day != nil {
		day.BaseLocations = append(day.BaseLocations, domain.CloneBaseLocation(b))
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Service) RemoveBaseLocation(ctx context.Context, dayID domain.DayID, index int) error {
	s.mu.RLock()
	valid := false
	if day := s.dayLocked(dayID); day != nil {
		valid = index >= 0 && index < len(day.BaseLocations)
	}
	s.mu.RUnlock()
	if !valid {
		return s.baseIndexOutOfRange(dayID, index)
	}

	s.setLoading(true)
	if err := s.gw.RemoveBaseLocation(ctx, dayID, index); err != nil {
		return s.fail("BASE_REMOVE_FAILED", err)
	}

	s.mu.Lock()
	if day := s.dayLocked(dayID); day != nil && index < len(day.BaseLocations) {
		day.BaseLocations = append(day.BaseLocations[:index], day.BaseLocations[index+1:]...)
	}
	if s.sel.Base != nil && s.sel.Base.DayID == dayID {
		switch {
		case s.sel.Base.Index == index:
			s.sel = Selection{}
		case s.sel.Base.Index > index:
			s.sel.Base.Index--
		}
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Service) UpdateBaseLocation(ctx context.Context, dayID domain.DayID, index int, in UpdateBaseLocationInput) error {
	s.mu.RLock()
	var cur *domain.BaseLocation
	if day := s.dayLocked(dayID); day != nil && index >= 0 && index < len(day.BaseLocations) {
		b := domain.CloneBaseLocation(day.BaseLocations[index])
		cur = &b
	}
	s.mu.RUnlock()
	if cur == nil {
		return s.baseIndexOutOfRange(dayID, index)
	}

	if in.Name.IsSpecified() {
		if in.Name.IsNull() {
			return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "cannot be null"}}
		}
		name := domain.NormalizeHumanName(in.Name.Value())
		if name == "" {
			return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "must be non-empty"}}
		}
		cur.Name = name
	}
	if in.Coord.IsSpecified() && !in.Coord.IsNull() {
		cur.Coord = in.Coord.Value()
	}
	applyNullableString(&cur.Context, in.Context)
	applyNullableString(&cur.City, in.City)
	applyNullableString(&cur.Notes, in.Notes)
	if in.Links.IsSpecified() {
		if in.Links.IsNull() {
			cur.Links = nil
		} else {
			cur.Links = append([]domain.Link(nil), in.Links.Value()...)
			for i := range cur.Links {
				if cur.Links[i].ID == "" {
					cur.Links[i].ID = s.newLinkID()
				}
			}
		}
	}

	s.setLoading(true)
	if err := s.gw.UpdateBaseLocation(ctx, dayID, index, *cur); err != nil {
		return s.fail("BASE_UPDATE_FAILED", err)
	}

	s.mu.Lock()
	if day := s.dayLocked(dayID); day != nil && index < len(day.BaseLocations) {
		day.BaseLocations[index] = domain.CloneBaseLocation(*cur)
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

// ReorderBaseLocations moves an alternative within the day. Index 0 keeps
// its special status: whichever entry lands there becomes the routing base.
func (s *Service) ReorderBaseLocations(ctx context.Context, dayID domain.DayID, fromIndex, toIndex int) error {
	s.mu.RLock()
	n := -1
	if day := s.dayLocked(dayID); day != nil {
		n = len(day.BaseLocations)
	}
	s.mu.RUnlock()
	if n < 0 {
		return s.dayNotFound(dayID)
	}
	if n == 0 || fromIndex < 0 || fromIndex >= n {
		return nil
	}
	toIndex = clampIndex(toIndex, n-1)
	if fromIndex == toIndex {
		return nil
	}

	s.setLoading(true)
	if err := s.gw.ReorderBaseLocations(ctx, dayID, fromIndex, toIndex); err != nil {
		return s.fail("BASE_REORDER_FAILED", err)
	}

	s.mu.Lock()
	if day := s.dayLocked(dayID); day != nil && fromIndex < len(day.BaseLocations) {
		b := day.BaseLocations[fromIndex]
		rest := append(day.BaseLocations[:fromIndex], day.BaseLocations[fromIndex+1:]...)
		ti := clampIndex(toIndex, len(rest))
		day.BaseLocations = append(rest[:ti], append([]domain.BaseLocation{b}, rest[ti:]...)...)
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

// DuplicateBaseLocation clones the base location into each target day with
// fresh link IDs, best-effort per target like DuplicateDestination.
func (s *Service) DuplicateBaseLocation(ctx context.Context, sourceDayID domain.DayID, index int, targetDayIDs []domain.DayID) (DuplicateReport, error) {
	s.mu.RLock()
	var src *domain.BaseLocation
	if day := s.dayLocked(sourceDayID); day != nil && index >= 0 && index < len(day.BaseLocations) {
		b := domain.CloneBaseLocation(day.BaseLocations[index])
		src = &b
	}
	s.mu.RUnlock()
	if src == nil {
		return DuplicateReport{}, s.baseIndexOutOfRange(sourceDayID, index)
	}

	var report DuplicateReport
	for _, target := range targetDayIDs {
		s.mu.RLock()
		exists := s.dayLocked(target) != nil
		s.mu.RUnlock()
		if !exists {
			s.log.WithFields(logrus.Fields{"dayId": target}).Warn("duplicate target day missing, skipping")
			report.Outcomes = append(report.Outcomes, DuplicateOutcome{DayID: target, Err: "day not found"})
			continue
		}

		clone := domain.CloneBaseLocation(*src)
		clone.Links = s.freshLinks(clone.Links)
		if err := s.gw.AddBaseLocation(ctx, target, clone); err != nil {
			s.log.WithError(err).WithField("dayId", target).Warn("duplicate base location failed for target day")
			report.Outcomes = append(report.Outcomes, DuplicateOutcome{DayID: target, Err: err.Error()})
			continue
		}

		s.mu.Lock()
		if day := s.dayLocked(target); day != nil {
			day.BaseLocations = append(day.BaseLocations, domain.CloneBaseLocation(clone))
		}
		s.mu.Unlock()
		report.Outcomes = append(report.Outcomes, DuplicateOutcome{DayID: target, OK: true})
	}
	s.notify()
	return report, nil
}

func (s *Service) baseIndexOutOfRange(dayID domain.DayID, index int) error {
	return &Error{Status: 404, Code: "BASE_NOT_FOUND", Message: "base location not found", Details: map[string]any{"dayId": string(dayID), "index": index}}
}
