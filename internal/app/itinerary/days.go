package itinerary

import (
	"context"
	"time"

	"github.com/Thepalm86/tripweaver/internal/domain"
)

// AddNewDay appends a day dated one day after the last existing day (or the
// trip start if none exist), then auto-selects it.
func (s *Service) AddNewDay(ctx context.Context) (domain.Day, error) {
	s.mu.RLock()
	tripID, err := s.tripIDLocked()
	var date = s.clk.Now()
	if err == nil {
		if n := len(s.trip.Days); n > 0 {
			date = s.trip.Days[n-1].Date.AddDate(0, 0, 1)
		} else {
			date = s.trip.StartDate
		}
	}
	s.mu.RUnlock()
	if err != nil {
		return domain.Day{}, err
	}

	s.setLoading(true)
	day, gerr := s.gw.AddDay(ctx, tripID, date)
	if gerr != nil {
		return domain.Day{}, s.fail("DAY_ADD_FAILED", gerr)
	}

	s.mu.Lock()
	if s.trip != nil {
		s.trip.Days = append(s.trip.Days, domain.CloneDay(day))
		if day.Date.After(s.trip.EndDate) {
			s.trip.EndDate = day.Date
		}
		s.selectedDayID = day.ID
		s.sel.RouteSegmentID = ""
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return day, nil
}

// DuplicateDay clones the day immediately after its source, shifting the
// dates of subsequent days, then auto-selects the clone.
func (s *Service) DuplicateDay(ctx context.Context, dayID domain.DayID) (domain.Day, error) {
	s.mu.RLock()
	tripID, err := s.tripIDLocked()
	exists := err == nil && s.dayLocked(dayID) != nil
	s.mu.RUnlock()
	if err != nil {
		return domain.Day{}, err
	}
	if !exists {
		return domain.Day{}, s.dayNotFound(dayID)
	}

	s.setLoading(true)
	clone, gerr := s.gw.DuplicateDay(ctx, tripID, dayID)
	if gerr != nil {
		return domain.Day{}, s.fail("DAY_DUPLICATE_FAILED", gerr)
	}

	s.mu.Lock()
	if s.trip != nil {
		if idx := s.trip.DayIndex(dayID); idx >= 0 {
			days := make([]domain.Day, 0, len(s.trip.Days)+1)
			days = append(days, s.trip.Days[:idx+1]...)
			days = append(days, domain.CloneDay(clone))
			days = append(days, s.trip.Days[idx+1:]...)
			s.trip.Days = days
			s.reflowDatesLocked()
		}
		s.selectedDayID = clone.ID
		s.sel.RouteSegmentID = ""
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return clone, nil
}

// RemoveDay deletes the day. Removing the trip's only day is refused. The
// selection is cleared if the removed day held it, and the trip's first
// remaining day becomes selected.
func (s *Service) RemoveDay(ctx context.Context, dayID domain.DayID) error {
	s.mu.RLock()
	tripID, err := s.tripIDLocked()
	dayCount := 0
	exists := false
	if err == nil {
		dayCount = len(s.trip.Days)
		exists = s.dayLocked(dayID) != nil
	}
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	if !exists {
		return s.dayNotFound(dayID)
	}
	if dayCount <= 1 {
		return &Error{Status: 409, Code: "LAST_DAY", Message: "cannot remove the trip's only day"}
	}

	s.setLoading(true)
	if gerr := s.gw.RemoveDay(ctx, tripID, dayID); gerr != nil {
		return s.fail("DAY_REMOVE_FAILED", gerr)
	}

	s.mu.Lock()
	if s.trip != nil {
		if s.selectionInDayLocked(dayID) {
			s.sel = Selection{}
		}
		if idx := s.trip.DayIndex(dayID); idx >= 0 {
			s.trip.Days = append(s.trip.Days[:idx], s.trip.Days[idx+1:]...)
			s.reflowDatesLocked()
		}
		if len(s.trip.Days) > 0 {
			s.selectedDayID = s.trip.Days[0].ID
		} else {
			s.selectedDayID = ""
		}
		s.sel.RouteSegmentID = ""
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

// UpdateTripDates recomputes the day structure for the new inclusive span:
// grown spans append empty days, shrunk spans drop trailing days (and their
// destinations), and every day's date is reassigned contiguously from start.
func (s *Service) UpdateTripDates(ctx context.Context, start, end time.Time) error {
	start = domain.DateOnly(start)
	end = domain.DateOnly(end)
	if end.Before(start) {
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid date range", Details: map[string]any{"endDate": "must be on or after startDate"}}
	}

	s.mu.RLock()
	tripID, err := s.tripIDLocked()
	var (
		have     int
		trailing []domain.DayID
	)
	if err == nil {
		have = len(s.trip.Days)
		want := domain.DaySpan(start, end)
		for i := want; i < have; i++ {
			trailing = append(trailing, s.trip.Days[i].ID)
		}
	}
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	want := domain.DaySpan(start, end)

	s.setLoading(true)
	if gerr := s.gw.UpdateTripDates(ctx, tripID, start, end); gerr != nil {
		return s.fail("TRIP_DATES_FAILED", gerr)
	}

	var appended []domain.Day
	for i := have; i < want; i++ {
		day, gerr := s.gw.AddDay(ctx, tripID, start.AddDate(0, 0, i))
		if gerr != nil {
			return s.fail("TRIP_DATES_FAILED", gerr)
		}
		appended = append(appended, day)
	}
	for _, id := range trailing {
		if gerr := s.gw.RemoveDay(ctx, tripID, id); gerr != nil {
			return s.fail("TRIP_DATES_FAILED", gerr)
		}
	}

	s.mu.Lock()
	if s.trip != nil {
		s.trip.StartDate = start
		s.trip.EndDate = end
		if len(s.trip.Days) > want {
			for _, id := range trailing {
				if s.selectionInDayLocked(id) {
					s.sel = Selection{}
				}
			}
			s.trip.Days = s.trip.Days[:want]
		}
		for _, d := range appended {
			s.trip.Days = append(s.trip.Days, domain.CloneDay(d))
		}
		s.reflowDatesLocked()
		if s.dayLocked(s.selectedDayID) == nil && len(s.trip.Days) > 0 {
			s.selectedDayID = s.trip.Days[0].ID
		}
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

// reflowDatesLocked reassigns contiguous dates from the trip start and keeps
// the end date in step with the day count.
func (s *Service) reflowDatesLocked() {
	if s.trip == nil {
		return
	}
	for i := range s.trip.Days {
		s.trip.Days[i].Date = s.trip.StartDate.AddDate(0, 0, i)
	}
	if n := len(s.trip.Days); n > 0 {
		s.trip.EndDate = s.trip.Days[n-1].Date
	}
}

func (s *Service) selectionInDayLocked(dayID domain.DayID) bool {
	if s.sel.Base != nil && s.sel.Base.DayID == dayID {
		return true
	}
	if s.sel.Destination != nil {
		if day := s.dayLocked(dayID); day != nil && day.DestinationIndex(s.sel.Destination.ID) >= 0 {
			return true
		}
	}
	return false
}
