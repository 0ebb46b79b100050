// Package dragdrop interprets pointer-drag lifecycle events into itinerary
// mutations. The drag gesture is modelled as an explicit state machine with
// typed payloads, independent of whatever pointer-event framework feeds it.
package dragdrop

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/domain"
)

// Planner is the slice of the itinerary store the coordinator needs.
type Planner interface {
	Snapshot() itinerary.Snapshot
	MoveDestination(ctx context.Context, id domain.DestinationID, fromDayID, toDayID domain.DayID, insertIndex int) error
	ReorderDestinations(ctx context.Context, dayID domain.DayID, fromIndex, toIndex int) error
	ReorderBaseLocations(ctx context.Context, dayID domain.DayID, fromIndex, toIndex int) error
}

// EntityKind identifies what is being dragged.
type EntityKind string

const (
	EntityDestination  EntityKind = "destination"
	EntityBaseLocation EntityKind = "base-location"
)

// TargetKind identifies what the pointer is over.
type TargetKind string

const (
	TargetDestinationRow TargetKind = "destination-row"
	TargetDayRegion      TargetKind = "day-region"
)

// Item is the payload captured at drag-start.
type Item struct {
	Kind          EntityKind
	DestinationID domain.DestinationID // destination drags only
	DayID         domain.DayID
	Index         int
}

// Target describes what is currently under the pointer.
type Target struct {
	Kind          TargetKind
	DayID         domain.DayID
	DestinationID domain.DestinationID // destination-row targets only
	Index         int                  // destination-row targets only
}

type state int

const (
	idle state = iota
	dragging
)

type Coordinator struct {
	planner Planner
	log     *logrus.Logger

	mu       sync.Mutex
	state    state
	item     Item
	preview  *domain.Destination
	hoverDay domain.DayID
}

func NewCoordinator(planner Planner, log *logrus.Logger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{planner: planner, log: log}
}

// Begin starts a drag gesture. For destination drags the full entity is
// snapshotted so the rendering layer can draw a floating preview.
func (c *Coordinator) Begin(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = dragging
	c.item = item
	c.preview = nil
	c.hoverDay = ""
	if item.Kind == EntityDestination {
		c.preview = c.lookupDestination(item.DestinationID)
	}
}

// Over updates the transient highlight state from whatever is under the
// pointer. A nil target means the pointer left all drop zones.
func (c *Coordinator) Over(target *Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != dragging {
		return
	}
	if target == nil {
		c.hoverDay = ""
		return
	}
	c.hoverDay = target.DayID
}

// HoverDay reports the day currently highlighted as a drop candidate.
func (c *Coordinator) HoverDay() domain.DayID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hoverDay
}

// Preview returns the floating-preview snapshot for the active drag, if any.
func (c *Coordinator) Preview() *domain.Destination {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.preview == nil {
		return nil
	}
	d := domain.CloneDestination(*c.preview)
	return &d
}

// Cancel aborts the gesture, discarding all transient state without touching
// the store.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Drop ends the gesture and dispatches at most one store operation:
// a same-day reorder, a cross-day move, or nothing when the item was dropped
// on itself or no valid target resolved.
func (c *Coordinator) Drop(ctx context.Context, target *Target) error {
	c.mu.Lock()
	if c.state != dragging {
		c.mu.Unlock()
		return nil
	}
	item := c.item
	c.reset()
	c.mu.Unlock()

	if target == nil {
		return nil
	}

	switch item.Kind {
	case EntityDestination:
		return c.dropDestination(ctx, item, *target)
	case EntityBaseLocation:
		return c.dropBaseLocation(ctx, item, *target)
	}
	return nil
}

func (c *Coordinator) dropDestination(ctx context.Context, item Item, target Target) error {
	if target.Kind == TargetDestinationRow && target.DestinationID == item.DestinationID {
		return nil
	}

	if target.DayID == item.DayID {
		toIndex := target.Index
		if target.Kind == TargetDayRegion {
			toIndex = c.dayLength(target.DayID) - 1
		}
		// Equal indices short-circuit inside the store; no persistence call
		// is made for a drop back onto the original slot.
		return c.planner.ReorderDestinations(ctx, item.DayID, item.Index, toIndex)
	}

	insertIndex := target.Index
	if target.Kind == TargetDayRegion {
		insertIndex = c.dayLength(target.DayID)
	}
	return c.planner.MoveDestination(ctx, item.DestinationID, item.DayID, target.DayID, insertIndex)
}

// Base locations only reorder within their own day; a drop that resolves to
// another day has no valid operation and is discarded.
func (c *Coordinator) dropBaseLocation(ctx context.Context, item Item, target Target) error {
	if target.DayID != item.DayID {
		c.log.WithFields(logrus.Fields{"fromDay": item.DayID, "toDay": target.DayID}).
			Debug("base location drop across days ignored")
		return nil
	}
	toIndex := target.Index
	if target.Kind == TargetDayRegion {
		toIndex = c.baseCount(target.DayID) - 1
	}
	return c.planner.ReorderBaseLocations(ctx, item.DayID, item.Index, toIndex)
}

func (c *Coordinator) reset() {
	c.state = idle
	c.item = Item{}
	c.preview = nil
	c.hoverDay = ""
}

func (c *Coordinator) lookupDestination(id domain.DestinationID) *domain.Destination {
	snap := c.planner.Snapshot()
	if snap.Trip == nil {
		return nil
	}
	for i := range snap.Trip.Days {
		if idx := snap.Trip.Days[i].DestinationIndex(id); idx >= 0 {
			d := domain.CloneDestination(snap.Trip.Days[i].Destinations[idx])
			return &d
		}
	}
	return nil
}

func (c *Coordinator) dayLength(dayID domain.DayID) int {
	snap := c.planner.Snapshot()
	if snap.Trip == nil {
		return 0
	}
	if day := snap.Trip.DayByID(dayID); day != nil {
		return len(day.Destinations)
	}
	return 0
}

func (c *Coordinator) baseCount(dayID domain.DayID) int {
	snap := c.planner.Snapshot()
	if snap.Trip == nil {
		return 0
	}
	if day := snap.Trip.DayByID(dayID); day != nil {
		return len(day.BaseLocations)
	}
	return 0
}
