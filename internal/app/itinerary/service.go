// Package itinerary implements the synchronized state container at the heart
// of the planning surface: the current trip structure, the active selection
// and the route-mode state. All mutations funnel through the Service and are
// confirmed by the persistence gateway before local state is touched.
package itinerary

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/ports/out/clock"
	"github.com/Thepalm86/tripweaver/internal/ports/out/tripgw"
)

type Service struct {
	gw  tripgw.Gateway
	clk clock.Clock
	log *logrus.Logger

	newLinkID func() domain.LinkID

	mu            sync.RWMutex
	trip          *domain.Trip
	selectedDayID domain.DayID
	sel           Selection
	routeMode     bool
	pendingStart  *RoutePoint
	lastErr       string
	loading       bool

	subs []func()
}

func NewService(gw tripgw.Gateway, clk clock.Clock, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		gw:        gw,
		clk:       clk,
		log:       log,
		newLinkID: func() domain.LinkID { return domain.LinkID(uuid.NewString()) },
	}
}

// SetNewLinkIDForTest overrides link ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewLinkIDForTest(fn func() domain.LinkID) {
	if fn != nil {
		s.newLinkID = fn
	}
}

// Subscribe registers a change listener invoked after every committed
// mutation or selection change. Listeners pull state via Snapshot; no payload
// is pushed to keep listeners decoupled from mutation internals.
func (s *Service) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Service) notify() {
	s.mu.RLock()
	subs := append(([]func())(nil), s.subs...)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// Snapshot returns an immutable view of the current state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		SelectedDayID: s.selectedDayID,
		Selection:     s.cloneSelectionLocked(),
		RouteMode:     s.routeMode,
		LastError:     s.lastErr,
		Loading:       s.loading,
	}
	if s.trip != nil {
		t := domain.CloneTrip(*s.trip)
		snap.Trip = &t
	}
	if s.pendingStart != nil {
		p := *s.pendingStart
		snap.PendingStart = &p
	}
	return snap
}

func (s *Service) cloneSelectionLocked() Selection {
	sel := s.sel
	if s.sel.Destination != nil {
		d := domain.CloneDestination(*s.sel.Destination)
		sel.Destination = &d
	}
	if s.sel.Base != nil {
		b := *s.sel.Base
		sel.Base = &b
	}
	return sel
}

// LoadTrip replaces local state with the canonical trip from the gateway and
// selects its first day.
func (s *Service) LoadTrip(ctx context.Context, id domain.TripID) error {
	s.setLoading(true)
	t, err := s.gw.GetTrip(ctx, id)
	if err != nil {
		return s.fail("TRIP_LOAD_FAILED", err)
	}
	s.mu.Lock()
	s.trip = &t
	s.sel = Selection{}
	s.pendingStart = nil
	s.lastErr = ""
	s.loading = false
	if len(t.Days) > 0 {
		s.selectedDayID = t.Days[0].ID
	} else {
		s.selectedDayID = ""
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// CreateTrip persists a new trip and loads it as the current one.
func (s *Service) CreateTrip(ctx context.Context, t domain.Trip) (domain.TripID, error) {
	if domain.NormalizeHumanName(t.Name) == "" {
		return "", &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "must be non-empty"}}
	}
	if t.EndDate.Before(t.StartDate) {
		return "", &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid date range", Details: map[string]any{"endDate": "must be on or after startDate"}}
	}
	t.Name = domain.NormalizeHumanName(t.Name)
	t.StartDate = domain.DateOnly(t.StartDate)
	t.EndDate = domain.DateOnly(t.EndDate)
	if len(t.Days) == 0 {
		for i := 0; i < domain.DaySpan(t.StartDate, t.EndDate); i++ {
			t.Days = append(t.Days, domain.Day{Date: t.StartDate.AddDate(0, 0, i)})
		}
	}
	s.setLoading(true)
	id, err := s.gw.CreateTrip(ctx, t)
	if err != nil {
		return "", s.fail("TRIP_CREATE_FAILED", err)
	}
	if err := s.LoadTrip(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateTrip applies a partial trip-level metadata update. Name cannot be
// null; country codes can be cleared with Null.
func (s *Service) UpdateTrip(ctx context.Context, in UpdateTripInput) error {
	s.mu.RLock()
	tripID, err := s.tripIDLocked()
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	var patch tripgw.TripPatch
	if in.Name.IsSpecified() {
		if in.Name.IsNull() {
			return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "cannot be null"}}
		}
		name := domain.NormalizeHumanName(in.Name.Value())
		if name == "" {
			return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "must be non-empty"}}
		}
		patch.Name = &name
	}
	if in.CountryCodes.IsSpecified() {
		if in.CountryCodes.IsNull() {
			// Non-nil empty slice means "clear" at the gateway contract.
			patch.CountryCodes = []string{}
		} else {
			patch.CountryCodes = append([]string{}, in.CountryCodes.Value()...)
		}
	}
	if patch.Name == nil && patch.CountryCodes == nil {
		return nil
	}

	s.setLoading(true)
	if err := s.gw.UpdateTrip(ctx, tripID, patch); err != nil {
		return s.fail("TRIP_UPDATE_FAILED", err)
	}

	s.mu.Lock()
	if s.trip != nil {
		if patch.Name != nil {
			s.trip.Name = *patch.Name
		}
		if patch.CountryCodes != nil {
			if len(patch.CountryCodes) == 0 {
				s.trip.CountryCodes = nil
			} else {
				s.trip.CountryCodes = append([]string(nil), patch.CountryCodes...)
			}
		}
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

// Trip mutation failure semantics: capture the message into store error
// state, clear the loading flag and leave the last-known-good trip intact.
func (s *Service) fail(code string, err error) error {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.loading = false
	s.mu.Unlock()
	s.log.WithError(err).WithField("code", code).Error("itinerary mutation failed")
	s.notify()
	return &Error{Status: 502, Code: code, Message: err.Error()}
}

func (s *Service) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	if v {
		s.lastErr = ""
	}
	s.mu.Unlock()
}

// ClearError resets store-level error state once the UI has surfaced it.
func (s *Service) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()
}

func (s *Service) tripIDLocked() (domain.TripID, error) {
	if s.trip == nil {
		return "", &Error{Status: 409, Code: "NO_TRIP_LOADED", Message: "no trip loaded"}
	}
	return s.trip.ID, nil
}

func (s *Service) dayNotFound(id domain.DayID) error {
	return &Error{Status: 404, Code: "DAY_NOT_FOUND", Message: "day not found", Details: map[string]any{"dayId": string(id)}}
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

func (s *Service) freshLinks(links []domain.Link) []domain.Link {
	if links == nil {
		return nil
	}
	out := make([]domain.Link, len(links))
	for i, l := range links {
		l.ID = s.newLinkID()
		out[i] = l
	}
	return out
}
