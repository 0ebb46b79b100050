// Package httpapi exposes the planning core over HTTP. It is a thin adapter:
// handlers decode and validate the wire shapes, delegate to the application
// services and translate their errors into the shared envelope.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/app/mapbridge"
	"github.com/Thepalm86/tripweaver/internal/app/routes"
	"github.com/Thepalm86/tripweaver/internal/app/search"
	"github.com/Thepalm86/tripweaver/internal/domain"
)

type Server struct {
	planner  *itinerary.Service
	engine   *routes.Engine
	searcher *search.Service
	validate *validator.Validate
	log      *logrus.Logger
}

func NewServer(planner *itinerary.Service, engine *routes.Engine, searcher *search.Service, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		planner:  planner,
		engine:   engine,
		searcher: searcher,
		validate: validator.New(),
		log:      log,
	}
}

// decode unmarshals and validates a JSON request body. A false return means
// the error response has already been written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "MALFORMED_BODY", "request body is not valid JSON", nil)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		details := map[string]any{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "request body failed validation", details)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) currentTrip(w http.ResponseWriter, r *http.Request) (domain.Trip, bool) {
	snap := s.planner.Snapshot()
	if snap.Trip == nil {
		writeError(w, r, http.StatusConflict, "NO_TRIP_LOADED", "no trip loaded", nil)
		return domain.Trip{}, false
	}
	return *snap.Trip, true
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := s.planner.CreateTrip(r.Context(), domain.Trip{
		Name:         req.Name,
		StartDate:    req.StartDate.Time,
		EndDate:      req.EndDate.Time,
		CountryCodes: req.CountryCodes,
	}); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trip, ok := s.currentTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, TripResponse{Trip: tripToWire(trip)})
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	id := domain.TripID(chi.URLParam(r, "tripID"))
	if err := s.planner.LoadTrip(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trip, ok := s.currentTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TripResponse{Trip: tripToWire(trip)})
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	var req UpdateTripRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.planner.UpdateTrip(r.Context(), itinerary.UpdateTripInput{
		Name:         optString(req.Name),
		CountryCodes: optFrom(req.CountryCodes),
	}); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trip, ok := s.currentTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TripResponse{Trip: tripToWire(trip)})
}

func (s *Server) handleUpdateTripDates(w http.ResponseWriter, r *http.Request) {
	var req UpdateTripDatesRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.planner.UpdateTripDates(r.Context(), req.StartDate.Time, req.EndDate.Time); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trip, ok := s.currentTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TripResponse{Trip: tripToWire(trip)})
}

func (s *Server) handleAddDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.planner.AddNewDay(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DayResponse{Day: dayToWire(day)})
}

func (s *Server) handleDuplicateDay(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	day, err := s.planner.DuplicateDay(r.Context(), dayID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DayResponse{Day: dayToWire(day)})
}

func (s *Server) handleRemoveDay(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	if err := s.planner.RemoveDay(r.Context(), dayID); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddDestination(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	var req AddDestinationRequest
	if !s.decode(w, r, &req) {
		return
	}
	dest, err := s.planner.AddDestination(r.Context(), dayID, domain.Destination{
		Name:          req.Name,
		Description:   req.Description,
		Coord:         coordFromWire(req.Coordinates),
		City:          req.City,
		Category:      domain.ParseCategory(req.Category),
		Rating:        req.Rating,
		DurationHours: req.DurationHours,
		Cost:          req.Cost,
		Notes:         req.Notes,
		Links:         linksFromWire(req.Links),
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DestinationResponse{Destination: destinationToWire(dest)})
}

func (s *Server) handleUpdateDestination(w http.ResponseWriter, r *http.Request) {
	id := domain.DestinationID(chi.URLParam(r, "destinationID"))
	var req UpdateDestinationRequest
	if !s.decode(w, r, &req) {
		return
	}
	dest, err := s.planner.UpdateDestination(r.Context(), id, itinerary.UpdateDestinationInput{
		Name:        optString(req.Name),
		Description: optString(req.Description),
		Coord:       optCoord(req.Coordinates),
		City:        optString(req.City),
		Category:    optString(req.Category),
		Rating:      optFloat(req.Rating),
		Duration:    optFloat(req.DurationHours),
		Cost:        optFloat(req.Cost),
		Notes:       optString(req.Notes),
		Links:       optLinks(req.Links),
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DestinationResponse{Destination: destinationToWire(dest)})
}

func (s *Server) handleRemoveDestination(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	id := domain.DestinationID(chi.URLParam(r, "destinationID"))
	if err := s.planner.RemoveDestination(r.Context(), id, dayID); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveDestination(w http.ResponseWriter, r *http.Request) {
	id := domain.DestinationID(chi.URLParam(r, "destinationID"))
	var req MoveDestinationRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.planner.MoveDestination(r.Context(), id, domain.DayID(req.FromDayID), domain.DayID(req.ToDayID), req.InsertIndex)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trip, ok := s.currentTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TripResponse{Trip: tripToWire(trip)})
}

func (s *Server) handleReorderDestinations(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	var req ReorderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.planner.ReorderDestinations(r.Context(), dayID, req.FromIndex, req.ToIndex); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trip, ok := s.currentTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TripResponse{Trip: tripToWire(trip)})
}

func (s *Server) handleDuplicateDestination(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	id := domain.DestinationID(chi.URLParam(r, "destinationID"))
	var req DuplicateRequest
	if !s.decode(w, r, &req) {
		return
	}
	report, err := s.planner.DuplicateDestination(r.Context(), dayID, id, dayIDs(req.TargetDayIDs))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToWire(report))
}

func (s *Server) handleAddBaseLocation(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	var req AddBaseLocationRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.planner.AddBaseLocation(r.Context(), dayID, domain.BaseLocation{
		Name:    req.Name,
		Coord:   coordFromWire(req.Coordinates),
		Context: req.Context,
		City:    req.City,
		Notes:   req.Notes,
		Links:   linksFromWire(req.Links),
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trip, ok := s.currentTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, TripResponse{Trip: tripToWire(trip)})
}

func (s *Server) handleUpdateBaseLocation(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	index, ok := s.baseIndex(w, r)
	if !ok {
		return
	}
	var req UpdateBaseLocationRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.planner.UpdateBaseLocation(r.Context(), dayID, index, itinerary.UpdateBaseLocationInput{
		Name:    optString(req.Name),
		Coord:   optCoord(req.Coordinates),
		Context: optString(req.Context),
		City:    optString(req.City),
		Notes:   optString(req.Notes),
		Links:   optLinks(req.Links),
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trip, ok := s.currentTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TripResponse{Trip: tripToWire(trip)})
}

func (s *Server) handleRemoveBaseLocation(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	index, ok := s.baseIndex(w, r)
	if !ok {
		return
	}
	if err := s.planner.RemoveBaseLocation(r.Context(), dayID, index); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderBaseLocations(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	var req ReorderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.planner.ReorderBaseLocations(r.Context(), dayID, req.FromIndex, req.ToIndex); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trip, ok := s.currentTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TripResponse{Trip: tripToWire(trip)})
}

func (s *Server) handleDuplicateBaseLocation(w http.ResponseWriter, r *http.Request) {
	dayID := domain.DayID(chi.URLParam(r, "dayID"))
	index, ok := s.baseIndex(w, r)
	if !ok {
		return
	}
	var req DuplicateRequest
	if !s.decode(w, r, &req) {
		return
	}
	report, err := s.planner.DuplicateBaseLocation(r.Context(), dayID, index, dayIDs(req.TargetDayIDs))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToWire(report))
}

// handleRouteFeatures recomputes the route layer synchronously and returns
// the feature collection. Recomputation is cheap for cached segments, so a
// GET is always fresh.
func (s *Server) handleRouteFeatures(w http.ResponseWriter, r *http.Request) {
	col := s.engine.ComputeNow(r.Context())
	writeJSON(w, http.StatusOK, col)
}

// handleMarkerFeatures serves the destination and base marker layers derived
// from the current snapshot.
func (s *Server) handleMarkerFeatures(w http.ResponseWriter, r *http.Request) {
	destinations, bases := mapbridge.MarkerLayers(s.planner.Snapshot())
	writeJSON(w, http.StatusOK, map[string]any{
		"destinations": destinations,
		"bases":        bases,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results, err := s.searcher.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "SEARCH_FAILED", "place search failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, searchResultsToWire(results))
}

func (s *Server) baseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "base location index must be a non-negative integer", map[string]any{"index": raw})
		return 0, false
	}
	return index, true
}

func dayIDs(ids []string) []domain.DayID {
	out := make([]domain.DayID, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.DayID(id))
	}
	return out
}
