package itinerary

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Thepalm86/tripweaver/internal/domain"
)

// AddDestination appends a destination to the target day once the gateway
// confirms creation. There is no optimistic insert prior to confirmation:
// the canonical record (with its server-assigned ID) is what gets merged, so
// ghost or duplicate entries cannot appear.
func (s *Service) AddDestination(ctx context.Context, dayID domain.DayID, d domain.Destination) (domain.Destination, error) {
	s.mu.RLock()
	dayExists := s.trip != nil && s.trip.DayByID(dayID) != nil
	s.mu.RUnlock()
	if !dayExists {
		return domain.Destination{}, s.dayNotFound(dayID)
	}
	d.Name = domain.NormalizeHumanName(d.Name)
	if d.Name == "" {
		return domain.Destination{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "must be non-empty"}}
	}
	if d.Category == "" {
		d.Category = domain.CategoryAttraction
	}

	s.setLoading(true)
	created, err := s.gw.AddDestinationToDay(ctx, dayID, d)
	if err != nil {
		return domain.Destination{}, s.fail("DESTINATION_ADD_FAILED", err)
	}

	s.mu.Lock()
	if day := s.dayLocked(dayID); day != nil {
		day.Destinations = append(day.Destinations, domain.CloneDestination(created))
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return created, nil
}

// MoveDestination removes the destination from its source day and inserts it
// into the target day at insertIndex (clamped to [0, targetLength]). A move
// within one day is routed to ReorderDestinations; it is never handled here,
// so the two paths cannot double-apply.
func (s *Service) MoveDestination(ctx context.Context, id domain.DestinationID, fromDayID, toDayID domain.DayID, insertIndex int) error {
	if fromDayID == toDayID {
		s.mu.RLock()
		fromIdx := -1
		if day := s.dayLocked(fromDayID); day != nil {
			fromIdx = day.DestinationIndex(id)
		}
		s.mu.RUnlock()
		if fromIdx < 0 {
			return s.destinationNotFound(id)
		}
		return s.ReorderDestinations(ctx, fromDayID, fromIdx, insertIndex)
	}

	s.mu.RLock()
	var (
		fromOrder []domain.DestinationID
		toOrder   []domain.DestinationID
		fromIdx   = -1
		hasFrom   bool
		hasTo     bool
	)
	if day := s.dayLocked(fromDayID); day != nil {
		hasFrom = true
		fromIdx = day.DestinationIndex(id)
		for _, d := range day.Destinations {
			fromOrder = append(fromOrder, d.ID)
		}
	}
	if day := s.dayLocked(toDayID); day != nil {
		hasTo = true
		for _, d := range day.Destinations {
			toOrder = append(toOrder, d.ID)
		}
	}
	s.mu.RUnlock()

	if !hasFrom {
		return s.dayNotFound(fromDayID)
	}
	if !hasTo {
		return s.dayNotFound(toDayID)
	}
	if fromIdx < 0 {
		return s.destinationNotFound(id)
	}

	fromOrder = append(fromOrder[:fromIdx], fromOrder[fromIdx+1:]...)
	insertIndex = clampIndex(insertIndex, len(toOrder))
	toOrder = append(toOrder[:insertIndex], append([]domain.DestinationID{id}, toOrder[insertIndex:]...)...)

	s.setLoading(true)
	// The day reassignment must land before order re-persistence: reorder
	// assumes the row already belongs to the target day.
	if err := s.gw.MoveDestination(ctx, id, toDayID); err != nil {
		return s.fail("DESTINATION_MOVE_FAILED", err)
	}
	if err := s.gw.ReorderDestinations(ctx, fromDayID, fromOrder); err != nil {
		return s.fail("DESTINATION_MOVE_FAILED", err)
	}
	if err := s.gw.ReorderDestinations(ctx, toDayID, toOrder); err != nil {
		return s.fail("DESTINATION_MOVE_FAILED", err)
	}

	s.mu.Lock()
	s.applyMoveLocked(id, fromDayID, toDayID, insertIndex)
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Service) applyMoveLocked(id domain.DestinationID, fromDayID, toDayID domain.DayID, insertIndex int) {
	fromDay := s.dayLocked(fromDayID)
	toDay := s.dayLocked(toDayID)
	if fromDay == nil || toDay == nil {
		return
	}
	idx := fromDay.DestinationIndex(id)
	if idx < 0 {
		return
	}
	d := fromDay.Destinations[idx]
	fromDay.Destinations = append(fromDay.Destinations[:idx], fromDay.Destinations[idx+1:]...)
	// Clamp again: the target may have shrunk while the gateway round-trip
	// was in flight.
	insertIndex = clampIndex(insertIndex, len(toDay.Destinations))
	toDay.Destinations = append(toDay.Destinations[:insertIndex], append([]domain.Destination{d}, toDay.Destinations[insertIndex:]...)...)
}

// ReorderDestinations splices the element at fromIndex out and reinserts it
// at toIndex (clamped). Equal indices are a no-op with no persistence call.
func (s *Service) ReorderDestinations(ctx context.Context, dayID domain.DayID, fromIndex, toIndex int) error {
	s.mu.RLock()
	var order []domain.DestinationID
	day := s.dayLocked(dayID)
	if day != nil {
		for _, d := range day.Destinations {
			order = append(order, d.ID)
		}
	}
	s.mu.RUnlock()
	if day == nil {
		return s.dayNotFound(dayID)
	}
	n := len(order)
	if n == 0 || fromIndex < 0 || fromIndex >= n {
		return nil
	}
	toIndex = clampIndex(toIndex, n-1)
	if fromIndex == toIndex {
		return nil
	}

	id := order[fromIndex]
	order = append(order[:fromIndex], order[fromIndex+1:]...)
	order = append(order[:toIndex], append([]domain.DestinationID{id}, order[toIndex:]...)...)

	s.setLoading(true)
	if err := s.gw.ReorderDestinations(ctx, dayID, order); err != nil {
		return s.fail("DESTINATION_REORDER_FAILED", err)
	}

	s.mu.Lock()
	if day := s.dayLocked(dayID); day != nil && day.DestinationIndex(id) >= 0 {
		byID := make(map[domain.DestinationID]domain.Destination, len(day.Destinations))
		for _, d := range day.Destinations {
			byID[d.ID] = d
		}
		out := make([]domain.Destination, 0, len(order))
		for _, oid := range order {
			if d, ok := byID[oid]; ok {
				out = append(out, d)
			}
		}
		day.Destinations = out
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

// RemoveDestination deletes the destination and re-persists the remaining
// order so index gaps close.
func (s *Service) RemoveDestination(ctx context.Context, id domain.DestinationID, dayID domain.DayID) error {
	s.mu.RLock()
	var order []domain.DestinationID
	found := false
	if day := s.dayLocked(dayID); day != nil {
		for _, d := range day.Destinations {
			if d.ID == id {
				found = true
				continue
			}
			order = append(order, d.ID)
		}
	}
	s.mu.RUnlock()
	if !found {
		return s.destinationNotFound(id)
	}

	s.setLoading(true)
	if err := s.gw.RemoveDestinationFromDay(ctx, id); err != nil {
		return s.fail("DESTINATION_REMOVE_FAILED", err)
	}
	if err := s.gw.ReorderDestinations(ctx, dayID, order); err != nil {
		return s.fail("DESTINATION_REMOVE_FAILED", err)
	}

	s.mu.Lock()
	if day := s.dayLocked(dayID); day != nil {
		if idx := day.DestinationIndex(id); idx >= 0 {
			day.Destinations = append(day.Destinations[:idx], day.Destinations[idx+1:]...)
		}
	}
	if s.sel.Destination != nil && s.sel.Destination.ID == id {
		s.sel = Selection{}
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

// UpdateDestination applies a partial update and merges the gateway's
// canonical record.
func (s *Service) UpdateDestination(ctx context.Context, id domain.DestinationID, in UpdateDestinationInput) (domain.Destination, error) {
	s.mu.RLock()
	var cur *domain.Destination
	var ownerDayID domain.DayID
	if s.trip != nil {
	outer:
		for i := range s.trip.Days {
			for j := range s.trip.Days[i].Destinations {
				if s.trip.Days[i].Destinations[j].ID == id {
					d := domain.CloneDestination(s.trip.Days[i].Destinations[j])
					cur = &d
					ownerDayID = s.trip.Days[i].ID
					break outer
				}
			}
		}
	}
	s.mu.RUnlock()
	if cur == nil {
		return domain.Destination{}, s.destinationNotFound(id)
	}

	if in.Name.IsSpecified() {
		if in.Name.IsNull() {
			return domain.Destination{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "cannot be null"}}
		}
		name := domain.NormalizeHumanName(in.Name.Value())
		if name == "" {
			return domain.Destination{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "must be non-empty"}}
		}
		cur.Name = name
	}
	if in.Coord.IsSpecified() {
		if in.Coord.IsNull() {
			return domain.Destination{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid coordinates", Details: map[string]any{"coordinates": "cannot be null"}}
		}
		cur.Coord = in.Coord.Value()
	}
	if in.Description.IsSpecified() && !in.Description.IsNull() {
		cur.Description = in.Description.Value()
	}
	if in.Category.IsSpecified() && !in.Category.IsNull() {
		cur.Category = domain.ParseCategory(in.Category.Value())
	}
	applyNullableString(&cur.City, in.City)
	applyNullableString(&cur.Notes, in.Notes)
	applyNullableFloat(&cur.Rating, in.Rating)
	applyNullableFloat(&cur.Cost, in.Cost)
	if in.Duration.IsSpecified() && !in.Duration.IsNull() {
		cur.DurationHours = in.Duration.Value()
	}
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
	canonical, err := s.gw.UpdateDestination(ctx, *cur)
	if err != nil {
		return domain.Destination{}, s.fail("DESTINATION_UPDATE_FAILED", err)
	}

	s.mu.Lock()
	if day := s.dayLocked(ownerDayID); day != nil {
		if idx := day.DestinationIndex(id); idx >= 0 {
			day.Destinations[idx] = domain.CloneDestination(canonical)
		}
	}
	if s.sel.Destination != nil && s.sel.Destination.ID == id {
		d := domain.CloneDestination(canonical)
		s.sel.Destination = &d
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return canonical, nil
}

// DuplicateDestination clones the destination into each target day,
// generating fresh link IDs per clone. The batch is best-effort: a target
// day that no longer exists (or whose create fails) is recorded in the
// report and skipped; every successful clone is applied regardless.
func (s *Service) DuplicateDestination(ctx context.Context, sourceDayID domain.DayID, id domain.DestinationID, targetDayIDs []domain.DayID) (DuplicateReport, error) {
	s.mu.RLock()
	var src *domain.Destination
	if day := s.dayLocked(sourceDayID); day != nil {
		if idx := day.DestinationIndex(id); idx >= 0 {
			d := domain.CloneDestination(day.Destinations[idx])
			src = &d
		}
	}
	s.mu.RUnlock()
	if src == nil {
		return DuplicateReport{}, s.destinationNotFound(id)
	}

	var report DuplicateReport
	for _, target := range targetDayIDs {
		s.mu.RLock()
		exists := s.dayLocked(target) != nil
		s.mu.RUnlock()
		if !exists {
			s.log.WithFields(logrus.Fields{"dayId": target, "destinationId": id}).Warn("duplicate target day missing, skipping")
			report.Outcomes = append(report.Outcomes, DuplicateOutcome{DayID: target, Err: "day not found"})
			continue
		}

		clone := domain.CloneDestination(*src)
		clone.ID = ""
		clone.Links = s.freshLinks(clone.Links)
		created, err := s.gw.AddDestinationToDay(ctx, target, clone)
		if err != nil {
			s.log.WithError(err).WithField("dayId", target).Warn("duplicate destination failed for target day")
			report.Outcomes = append(report.Outcomes, DuplicateOutcome{DayID: target, Err: err.Error()})
			continue
		}

		s.mu.Lock()
		if day := s.dayLocked(target); day != nil {
			day.Destinations = append(day.Destinations, domain.CloneDestination(created))
		}
		s.mu.Unlock()
		report.Outcomes = append(report.Outcomes, DuplicateOutcome{DayID: target, OK: true})
	}
	s.notify()
	return report, nil
}

func (s *Service) destinationNotFound(id domain.DestinationID) error {
	return &Error{Status: 404, Code: "DESTINATION_NOT_FOUND", Message: "destination not found", Details: map[string]any{"destinationId": string(id)}}
}

func (s *Service) dayLocked(id domain.DayID) *domain.Day {
	if s.trip == nil {
		return nil
	}
	return s.trip.DayByID(id)
}

func applyNullableString(dst **string, o Optional[string]) {
	if !o.IsSpecified() {
		return
	}
	if o.IsNull() {
		*dst = nil
		return
	}
	v := o.Value()
	*dst = &v
}

func applyNullableFloat(dst **float64, o Optional[float64]) {
	if !o.IsSpecified() {
		return
	}
	if o.IsNull() {
		*dst = nil
		return
	}
	v := o.Value()
	*dst = &v
}
