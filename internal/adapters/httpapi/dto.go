package httpapi

import (
	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/ports/out/geocode"
)

// Coordinate is the wire form of a map coordinate.
type Coordinate struct {
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
}

type Link struct {
	ID    string `json:"id,omitempty"`
	URL   string `json:"url" validate:"required,url"`
	Label string `json:"label,omitempty"`
}

type Destination struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Coordinates   Coordinate `json:"coordinates"`
	City          *string    `json:"city,omitempty"`
	Category      string     `json:"category"`
	Rating        *float64   `json:"rating,omitempty"`
	DurationHours float64    `json:"durationHours,omitempty"`
	Cost          *float64   `json:"cost,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	Links         []Link     `json:"links,omitempty"`
}

type BaseLocation struct {
	Name        string     `json:"name"`
	Coordinates Coordinate `json:"coordinates"`
	Context     *string    `json:"context,omitempty"`
	City        *string    `json:"city,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Links       []Link     `json:"links,omitempty"`
}

type Day struct {
	ID            string         `json:"id"`
	Date          string         `json:"date"`
	Destinations  []Destination  `json:"destinations"`
	BaseLocations []BaseLocation `json:"baseLocations"`
}

type Trip struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	CountryCodes []string `json:"countryCodes,omitempty"`
	Days         []Day    `json:"days"`
}

type TripResponse struct {
	Trip Trip `json:"trip"`
}

type DayResponse struct {
	Day Day `json:"day"`
}

type DestinationResponse struct {
	Destination Destination `json:"destination"`
}

type CreateTripRequest struct {
	Name         string             `json:"name" validate:"required"`
	StartDate    openapi_types.Date `json:"startDate" validate:"required"`
	EndDate      openapi_types.Date `json:"endDate" validate:"required"`
	CountryCodes []string           `json:"countryCodes" validate:"omitempty,dive,iso3166_1_alpha2"`
}

// UpdateTripRequest patches trip metadata; null countryCodes clears them.
type UpdateTripRequest struct {
	Name         nullable.Nullable[string]   `json:"name,omitempty"`
	CountryCodes nullable.Nullable[[]string] `json:"countryCodes,omitempty"`
}

type UpdateTripDatesRequest struct {
	StartDate openapi_types.Date `json:"startDate" validate:"required"`
	EndDate   openapi_types.Date `json:"endDate" validate:"required"`
}

type AddDestinationRequest struct {
	Name          string     `json:"name" validate:"required"`
	Description   string     `json:"description"`
	Coordinates   Coordinate `json:"coordinates" validate:"required"`
	City          *string    `json:"city"`
	Category      string     `json:"category"`
	Rating        *float64   `json:"rating" validate:"omitempty,gte=0,lte=5"`
	DurationHours float64    `json:"durationHours" validate:"gte=0"`
	Cost          *float64   `json:"cost" validate:"omitempty,gte=0"`
	Notes         *string    `json:"notes"`
	Links         []Link     `json:"links" validate:"omitempty,dive"`
}

// UpdateDestinationRequest is a tri-state patch: omitted fields are left
// alone, null fields are cleared, present fields are replaced.
type UpdateDestinationRequest struct {
	Name          nullable.Nullable[string]     `json:"name,omitempty"`
	Description   nullable.Nullable[string]     `json:"description,omitempty"`
	Coordinates   nullable.Nullable[Coordinate] `json:"coordinates,omitempty"`
	City          nullable.Nullable[string]     `json:"city,omitempty"`
	Category      nullable.Nullable[string]     `json:"category,omitempty"`
	Rating        nullable.Nullable[float64]    `json:"rating,omitempty"`
	DurationHours nullable.Nullable[float64]    `json:"durationHours,omitempty"`
	Cost          nullable.Nullable[float64]    `json:"cost,omitempty"`
	Notes         nullable.Nullable[string]     `json:"notes,omitempty"`
	Links         nullable.Nullable[[]Link]     `json:"links,omitempty"`
}

type AddBaseLocationRequest struct {
	Name        string     `json:"name" validate:"required"`
	Coordinates Coordinate `json:"coordinates" validate:"required"`
	Context     *string    `json:"context"`
	City        *string    `json:"city"`
	Notes       *string    `json:"notes"`
	Links       []Link     `json:"links" validate:"omitempty,dive"`
}

type UpdateBaseLocationRequest struct {
	Name        nullable.Nullable[string]     `json:"name,omitempty"`
	Coordinates nullable.Nullable[Coordinate] `json:"coordinates,omitempty"`
	Context     nullable.Nullable[string]     `json:"context,omitempty"`
	City        nullable.Nullable[string]     `json:"city,omitempty"`
	Notes       nullable.Nullable[string]     `json:"notes,omitempty"`
	Links       nullable.Nullable[[]Link]     `json:"links,omitempty"`
}

type MoveDestinationRequest struct {
	FromDayID   string `json:"fromDayId" validate:"required"`
	ToDayID     string `json:"toDayId" validate:"required"`
	InsertIndex int    `json:"insertIndex" validate:"gte=0"`
}

type ReorderRequest struct {
	FromIndex int `json:"fromIndex" validate:"gte=0"`
	ToIndex   int `json:"toIndex" validate:"gte=0"`
}

type DuplicateRequest struct {
	TargetDayIDs []string `json:"targetDayIds" validate:"required,min=1"`
}

type DuplicateOutcome struct {
	DayID string `json:"dayId"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type DuplicateResponse struct {
	Outcomes  []DuplicateOutcome `json:"outcomes"`
	Succeeded int                `json:"succeeded"`
}

type SearchResult struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"displayName"`
	Coordinates Coordinate `json:"coordinates"`
	Category    string     `json:"category"`
	City        string     `json:"city,omitempty"`
	CountryCode string     `json:"countryCode,omitempty"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

const wireDateLayout = "2006-01-02"

func coordToWire(c domain.Coordinate) Coordinate { return Coordinate{Lng: c.Lng, Lat: c.Lat} }

func coordFromWire(c Coordinate) domain.Coordinate { return domain.Coordinate{Lng: c.Lng, Lat: c.Lat} }

func linksToWire(ls []domain.Link) []Link {
	if len(ls) == 0 {
		return nil
	}
	out := make([]Link, 0, len(ls))
	for _, l := range ls {
		out = append(out, Link{ID: string(l.ID), URL: l.URL, Label: l.Label})
	}
	return out
}

func linksFromWire(ls []Link) []domain.Link {
	if ls == nil {
		return nil
	}
	out := make([]domain.Link, 0, len(ls))
	for _, l := range ls {
		out = append(out, domain.Link{ID: domain.LinkID(l.ID), URL: l.URL, Label: l.Label})
	}
	return out
}

func destinationToWire(d domain.Destination) Destination {
	return Destination{
		ID:            string(d.ID),
		Name:          d.Name,
		Description:   d.Description,
		Coordinates:   coordToWire(d.Coord),
		City:          d.City,
		Category:      string(d.Category),
		Rating:        d.Rating,
		DurationHours: d.DurationHours,
		Cost:          d.Cost,
		Notes:         d.Notes,
		Links:         linksToWire(d.Links),
	}
}

func baseToWire(b domain.BaseLocation) BaseLocation {
	return BaseLocation{
		Name:        b.Name,
		Coordinates: coordToWire(b.Coord),
		Context:     b.Context,
		City:        b.City,
		Notes:       b.Notes,
		Links:       linksToWire(b.Links),
	}
}

func dayToWire(d domain.Day) Day {
	out := Day{
		ID:            string(d.ID),
		Date:          d.Date.Format(wireDateLayout),
		Destinations:  make([]Destination, 0, len(d.Destinations)),
		BaseLocations: make([]BaseLocation, 0, len(d.BaseLocations)),
	}
	for _, dest := range d.Destinations {
		out.Destinations = append(out.Destinations, destinationToWire(dest))
	}
	for _, b := range d.BaseLocations {
		out.BaseLocations = append(out.BaseLocations, baseToWire(b))
	}
	return out
}

func tripToWire(t domain.Trip) Trip {
	out := Trip{
		ID:           string(t.ID),
		Name:         t.Name,
		StartDate:    t.StartDate.Format(wireDateLayout),
		EndDate:      t.EndDate.Format(wireDateLayout),
		CountryCodes: t.CountryCodes,
		Days:         make([]Day, 0, len(t.Days)),
	}
	for _, d := range t.Days {
		out.Days = append(out.Days, dayToWire(d))
	}
	return out
}

func reportToWire(r itinerary.DuplicateReport) DuplicateResponse {
	out := DuplicateResponse{
		Outcomes:  make([]DuplicateOutcome, 0, len(r.Outcomes)),
		Succeeded: r.Succeeded(),
	}
	for _, o := range r.Outcomes {
		out.Outcomes = append(out.Outcomes, DuplicateOutcome{
			DayID: string(o.DayID),
			OK:    o.OK,
			Error: o.Err,
		})
	}
	return out
}

func searchResultsToWire(rs []geocode.Result) SearchResponse {
	out := SearchResponse{Results: make([]SearchResult, 0, len(rs))}
	for _, r := range rs {
		out.Results = append(out.Results, SearchResult{
			Name:        r.Name,
			DisplayName: r.DisplayName,
			Coordinates: coordToWire(r.Coord),
			Category:    r.Category,
			City:        r.City,
			CountryCode: r.CountryCode,
		})
	}
	return out
}

// optString and friends translate the wire tri-state into the application
// layer's Optional without leaking the nullable type past the adapter.
func optString(n nullable.Nullable[string]) itinerary.Optional[string] {
	return optFrom(n)
}

func optFloat(n nullable.Nullable[float64]) itinerary.Optional[float64] {
	return optFrom(n)
}

func optFrom[T any](n nullable.Nullable[T]) itinerary.Optional[T] {
	if !n.IsSpecified() {
		return itinerary.Unspecified[T]()
	}
	if n.IsNull() {
		return itinerary.Null[T]()
	}
	return itinerary.Some(n.MustGet())
}

func optCoord(n nullable.Nullable[Coordinate]) itinerary.Optional[domain.Coordinate] {
	if !n.IsSpecified() {
		return itinerary.Unspecified[domain.Coordinate]()
	}
	if n.IsNull() {
		return itinerary.Null[domain.Coordinate]()
	}
	return itinerary.Some(coordFromWire(n.MustGet()))
}

func optLinks(n nullable.Nullable[[]Link]) itinerary.Optional[[]domain.Link] {
	if !n.IsSpecified() {
		return itinerary.Unspecified[[]domain.Link]()
	}
	if n.IsNull() {
		return itinerary.Null[[]domain.Link]()
	}
	return itinerary.Some(linksFromWire(n.MustGet()))
}
