package tripgw

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/ports/out/tripgw"
)

// Gateway is an in-memory implementation of tripgw.Gateway.
// It is safe for concurrent use and assigns IDs the way the remote store
// would, so the confirm-then-merge flow is exercised for real in tests.
type Gateway struct {
	mu   sync.RWMutex
	byID map[domain.TripID]domain.Trip

	newTripID        func() domain.TripID
	newDayID         func() domain.DayID
	newDestinationID func() domain.DestinationID
}

func NewGateway() *Gateway {
	return &Gateway{
		byID:             make(map[domain.TripID]domain.Trip),
		newTripID:        func() domain.TripID { return domain.TripID(uuid.NewString()) },
		newDayID:         func() domain.DayID { return domain.DayID(uuid.NewString()) },
		newDestinationID: func() domain.DestinationID { return domain.DestinationID(uuid.NewString()) },
	}
}

// SetIDFactoriesForTest overrides ID generation for deterministic tests.
// Nil arguments leave the corresponding factory unchanged.
func (g *Gateway) SetIDFactoriesForTest(trip func() domain.TripID, day func() domain.DayID, dest func() domain.DestinationID) {
	if trip != nil {
		g.newTripID = trip
	}
	if day != nil {
		g.newDayID = day
	}
	if dest != nil {
		g.newDestinationID = dest
	}
}

func (g *Gateway) GetTrip(ctx context.Context, id domain.TripID) (domain.Trip, error) {
	_ = ctx
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.byID[id]
	if !ok {
		return domain.Trip{}, tripgw.ErrTripNotFound
	}
	return domain.CloneTrip(t), nil
}

func (g *Gateway) CreateTrip(ctx context.Context, t domain.Trip) (domain.TripID, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.ID == "" {
		t.ID = g.newTripID()
	}
	if _, ok := g.byID[t.ID]; ok {
		return "", tripgw.ErrAlreadyExists
	}
	for i := range t.Days {
		if t.Days[i].ID == "" {
			t.Days[i].ID = g.newDayID()
		}
		for j := range t.Days[i].Destinations {
			if t.Days[i].Destinations[j].ID == "" {
				t.Days[i].Destinations[j].ID = g.newDestinationID()
			}
		}
	}
	g.byID[t.ID] = domain.CloneTrip(t)
	return t.ID, nil
}

func (g *Gateway) UpdateTrip(ctx context.Context, id domain.TripID, patch tripgw.TripPatch) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.byID[id]
	if !ok {
		return tripgw.ErrTripNotFound
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.CountryCodes != nil {
		t.CountryCodes = append([]string(nil), patch.CountryCodes...)
	}
	g.byID[id] = t
	return nil
}

func (g *Gateway) AddDestinationToDay(ctx context.Context, dayID domain.DayID, d domain.Destination) (domain.Destination, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	day, err := g.findDayLocked(dayID)
	if err != nil {
		return domain.Destination{}, err
	}
	d = domain.CloneDestination(d)
	d.ID = g.newDestinationID()
	if d.Category == "" {
		d.Category = domain.CategoryAttraction
	}
	day.Destinations = append(day.Destinations, d)
	return domain.CloneDestination(d), nil
}

func (g *Gateway) UpdateDestination(ctx context.Context, d domain.Destination) (domain.Destination, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	day, idx, err := g.findDestinationLocked(d.ID)
	if err != nil {
		return domain.Destination{}, err
	}
	if d.Category == "" {
		d.Category = domain.CategoryAttraction
	}
	day.Destinations[idx] = domain.CloneDestination(d)
	return domain.CloneDestination(d), nil
}

func (g *Gateway) RemoveDestinationFromDay(ctx context.Context, id domain.DestinationID) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	day, idx, err := g.findDestinationLocked(id)
	if err != nil {
		return err
	}
	day.Destinations = append(day.Destinations[:idx], day.Destinations[idx+1:]...)
	return nil
}

func (g *Gateway) MoveDestination(ctx context.Context, id domain.DestinationID, toDayID domain.DayID) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	fromDay, idx, err := g.findDestinationLocked(id)
	if err != nil {
		return err
	}
	toDay, err := g.findDayLocked(toDayID)
	if err != nil {
		return err
	}
	d := fromDay.Destinations[idx]
	fromDay.Destinations = append(fromDay.Destinations[:idx], fromDay.Destinations[idx+1:]...)
	toDay.Destinations = append(toDay.Destinations, d)
	return nil
}

func (g *Gateway) ReorderDestinations(ctx context.Context, dayID domain.DayID, orderedIDs []domain.DestinationID) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	day, err := g.findDayLocked(dayID)
	if err != nil {
		return err
	}
	byID := make(map[domain.DestinationID]domain.Destination, len(day.Destinations))
	for _, d := range day.Destinations {
		byID[d.ID] = d
	}
	out := make([]domain.Destination, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		d, ok := byID[id]
		if !ok {
			return tripgw.ErrDestinationNotFound
		}
		out = append(out, d)
	}
	day.Destinations = out
	return nil
}

func (g *Gateway) AddBaseLocation(ctx context.Context, dayID domain.DayID, b domain.BaseLocation) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	day, err := g.findDayLocked(dayID)
	if err != nil {
		return err
	}
	day.BaseLocations = append(day.BaseLocations, domain.CloneBaseLocation(b))
	return nil
}

func (g *Gateway) RemoveBaseLocation(ctx context.Context, dayID domain.DayID, index int) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	day, err := g.findDayLocked(dayID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(day.BaseLocations) {
		return tripgw.ErrBaseIndexOutOfRange
	}
	day.BaseLocations = append(day.BaseLocations[:index], day.BaseLocations[index+1:]...)
	return nil
}

func (g *Gateway) UpdateBaseLocation(ctx context.Context, dayID domain.DayID, index int, b domain.BaseLocation) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	day, err := g.findDayLocked(dayID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(day.BaseLocations) {
		return tripgw.ErrBaseIndexOutOfRange
	}
	day.BaseLocations[index] = domain.CloneBaseLocation(b)
	return nil
}

func (g *Gateway) ReorderBaseLocations(ctx context.Context, dayID domain.DayID, fromIndex, toIndex int) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	day, err := g.findDayLocked(dayID)
	if err != nil {
		return err
	}
	n := len(day.BaseLocations)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return tripgw.ErrBaseIndexOutOfRange
	}
	if fromIndex == toIndex {
		return nil
	}
	b := day.BaseLocations[fromIndex]
	rest := append(day.BaseLocations[:fromIndex], day.BaseLocations[fromIndex+1:]...)
	day.BaseLocations = append(rest[:toIndex], append([]domain.BaseLocation{b}, rest[toIndex:]...)...)
	return nil
}

func (g *Gateway) AddDay(ctx context.Context, tripID domain.TripID, date time.Time) (domain.Day, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.byID[tripID]
	if !ok {
		return domain.Day{}, tripgw.ErrTripNotFound
	}
	day := domain.Day{
		ID:            g.newDayID(),
		Date:          domain.DateOnly(date),
		Destinations:  []domain.Destination{},
		BaseLocations: []domain.BaseLocation{},
	}
	t.Days = append(t.Days, day)
	if day.Date.After(t.EndDate) {
		t.EndDate = day.Date
	}
	g.byID[tripID] = t
	return domain.CloneDay(day), nil
}

func (g *Gateway) DuplicateDay(ctx context.Context, tripID domain.TripID, dayID domain.DayID) (domain.Day, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.byID[tripID]
	if !ok {
		return domain.Day{}, tripgw.ErrTripNotFound
	}
	idx := t.DayIndex(dayID)
	if idx < 0 {
		return domain.Day{}, tripgw.ErrDayNotFound
	}
	clone := domain.CloneDay(t.Days[idx])
	clone.ID = g.newDayID()
	for i := range clone.Destinations {
		clone.Destinations[i].ID = g.newDestinationID()
		for j := range clone.Destinations[i].Links {
			clone.Destinations[i].Links[j].ID = domain.LinkID(uuid.NewString())
		}
	}
	days := make([]domain.Day, 0, len(t.Days)+1)
	days = append(days, t.Days[:idx+1]...)
	days = append(days, clone)
	days = append(days, t.Days[idx+1:]...)
	t.Days = days
	reflowDatesLocked(&t)
	g.byID[tripID] = t
	return domain.CloneDay(clone), nil
}

func (g *Gateway) RemoveDay(ctx context.Context, tripID domain.TripID, dayID domain.DayID) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.byID[tripID]
	if !ok {
		return tripgw.ErrTripNotFound
	}
	idx := t.DayIndex(dayID)
	if idx < 0 {
		return tripgw.ErrDayNotFound
	}
	t.Days = append(t.Days[:idx], t.Days[idx+1:]...)
	reflowDatesLocked(&t)
	g.byID[tripID] = t
	return nil
}

func (g *Gateway) UpdateTripDates(ctx context.Context, tripID domain.TripID, start, end time.Time) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.byID[tripID]
	if !ok {
		return tripgw.ErrTripNotFound
	}
	t.StartDate = domain.DateOnly(start)
	t.EndDate = domain.DateOnly(end)
	reflowDatesLocked(&t)
	g.byID[tripID] = t
	return nil
}

// findDayLocked returns a pointer into the stored trip's day slice.
// The returned pointer is only valid while the write lock is held.
func (g *Gateway) findDayLocked(dayID domain.DayID) (*domain.Day, error) {
	for _, t := range g.byID {
		for i := range t.Days {
			if t.Days[i].ID == dayID {
				return &t.Days[i], nil
			}
		}
	}
	return nil, tripgw.ErrDayNotFound
}

func (g *Gateway) findDestinationLocked(id domain.DestinationID) (*domain.Day, int, error) {
	for _, t := range g.byID {
		for i := range t.Days {
			if idx := t.Days[i].DestinationIndex(id); idx >= 0 {
				return &t.Days[i], idx, nil
			}
		}
	}
	return nil, -1, tripgw.ErrDestinationNotFound
}

func reflowDatesLocked(t *domain.Trip) {
	for i := range t.Days {
		t.Days[i].Date = t.StartDate.AddDate(0, 0, i)
	}
	if n := len(t.Days); n > 0 {
		t.EndDate = t.Days[n-1].Date
	}
}
