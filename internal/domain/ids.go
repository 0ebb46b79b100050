package domain

// TripID is an internal identifier for a trip record.
type TripID string

// DayID is an internal identifier for a day record.
type DayID string

// DestinationID is an internal identifier for a destination record.
// Destination IDs are assigned by the persistence gateway, never locally.
type DestinationID string

// LinkID identifies a single link attached to a destination or base location.
type LinkID string
