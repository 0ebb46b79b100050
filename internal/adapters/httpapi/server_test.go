package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	memroutecache "github.com/Thepalm86/tripweaver/internal/adapters/memory/routecache"
	memtripgw "github.com/Thepalm86/tripweaver/internal/adapters/memory/tripgw"
	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/app/routes"
	"github.com/Thepalm86/tripweaver/internal/app/search"
	"github.com/Thepalm86/tripweaver/internal/bus"
	"github.com/Thepalm86/tripweaver/internal/domain"
	platformclock "github.com/Thepalm86/tripweaver/internal/platform/clock"
	"github.com/Thepalm86/tripweaver/internal/ports/out/geocode"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routing"
)

type lineProvider struct{}

func (lineProvider) Route(_ context.Context, coords []domain.Coordinate, _ routing.Profile) (routing.Route, error) {
	return routing.Route{
		Geometry:        coords,
		DurationSeconds: 600,
		DistanceMeters:  5000,
	}, nil
}

type fixedGeocoder struct {
	results []geocode.Result
	err     error
}

func (g fixedGeocoder) Search(context.Context, string, int) ([]geocode.Result, error) {
	return g.results, g.err
}

func newTestRouter(t *testing.T, geocoder geocode.Geocoder) (http.Handler, *itinerary.Service) {
	t.Helper()

	gw := memtripgw.NewGateway()
	tripSeq, daySeq, destSeq := 0, 0, 0
	gw.SetIDFactoriesForTest(
		func() domain.TripID { tripSeq++; return domain.TripID(fmt.Sprintf("trip-%d", tripSeq)) },
		func() domain.DayID { daySeq++; return domain.DayID(fmt.Sprintf("day-%d", daySeq)) },
		func() domain.DestinationID { destSeq++; return domain.DestinationID(fmt.Sprintf("dest-%d", destSeq)) },
	)

	planner := itinerary.NewService(gw, platformclock.NewSystemClock(), nil)
	engine := routes.NewEngine(planner, lineProvider{}, memroutecache.NewCache(), bus.New(), nil)
	if geocoder == nil {
		geocoder = fixedGeocoder{}
	}
	searcher := search.NewService(geocoder, nil)

	api := NewServer(planner, engine, searcher, nil)
	return NewRouter(api), planner
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createTrip(t *testing.T, h http.Handler) Trip {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/trips",
		`{"name":"Italy","startDate":"2026-06-01","endDate":"2026-06-03"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create trip status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload TripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode create trip: %v", err)
	}
	return payload.Trip
}

func TestCreateTrip_MaterializesOneDayPerDate(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)

	if len(trip.Days) != 3 {
		t.Fatalf("days = %d, want 3", len(trip.Days))
	}
	wantDates := []string{"2026-06-01", "2026-06-02", "2026-06-03"}
	for i, d := range trip.Days {
		if d.Date != wantDates[i] {
			t.Fatalf("day %d date = %s, want %s", i, d.Date, wantDates[i])
		}
	}
}

func TestCreateTrip_RejectsInvertedDateRange(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/trips",
		`{"name":"Italy","startDate":"2026-06-05","endDate":"2026-06-01"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if payload.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("code = %s, want VALIDATION_ERROR", payload.Error.Code)
	}
}

func TestCreateTrip_MalformedBodyIs400(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/trips", `{"name":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAddDestination_AndReorder(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)
	dayID := trip.Days[0].ID

	for _, name := range []string{"Colosseum", "Pantheon"} {
		body := fmt.Sprintf(`{"name":%q,"coordinates":{"lng":12.49,"lat":41.89},"category":"attraction"}`, name)
		rec := doJSON(t, h, http.MethodPost, "/days/"+dayID+"/destinations", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add %s status=%d body=%s", name, rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, h, http.MethodPost, "/days/"+dayID+"/destinations/reorder",
		`{"fromIndex":0,"toIndex":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload TripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode reorder: %v", err)
	}
	got := payload.Trip.Days[0].Destinations
	if got[0].Name != "Pantheon" || got[1].Name != "Colosseum" {
		t.Fatalf("order = [%s, %s], want [Pantheon, Colosseum]", got[0].Name, got[1].Name)
	}
}

func TestUpdateDestination_TriStatePatch(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)
	dayID := trip.Days[0].ID

	rec := doJSON(t, h, http.MethodPost, "/days/"+dayID+"/destinations",
		`{"name":"Colosseum","coordinates":{"lng":12.49,"lat":41.89},"notes":"book ahead","rating":4.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created DestinationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	// Rename, clear notes with an explicit null, leave rating untouched.
	rec = doJSON(t, h, http.MethodPatch, "/days/"+dayID+"/destinations/"+created.Destination.ID,
		`{"name":"Colosseo","notes":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rec.Code, rec.Body.String())
	}
	var updated DestinationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Destination.Name != "Colosseo" {
		t.Fatalf("name = %s, want Colosseo", updated.Destination.Name)
	}
	if updated.Destination.Notes != nil {
		t.Fatalf("notes = %v, want cleared", *updated.Destination.Notes)
	}
	if updated.Destination.Rating == nil || *updated.Destination.Rating != 4.5 {
		t.Fatalf("rating = %v, want preserved 4.5", updated.Destination.Rating)
	}
}

func TestMoveDestination_AcrossDays(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)
	fromDay, toDay := trip.Days[0].ID, trip.Days[1].ID

	rec := doJSON(t, h, http.MethodPost, "/days/"+fromDay+"/destinations",
		`{"name":"Colosseum","coordinates":{"lng":12.49,"lat":41.89}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created DestinationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	body := fmt.Sprintf(`{"fromDayId":%q,"toDayId":%q,"insertIndex":0}`, fromDay, toDay)
	rec = doJSON(t, h, http.MethodPost, "/days/"+fromDay+"/destinations/"+created.Destination.ID+"/move", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("move status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload TripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode move: %v", err)
	}
	if n := len(payload.Trip.Days[0].Destinations); n != 0 {
		t.Fatalf("source day has %d destinations, want 0", n)
	}
	if n := len(payload.Trip.Days[1].Destinations); n != 1 {
		t.Fatalf("target day has %d destinations, want 1", n)
	}
}

func TestDuplicateDestination_ReportsPartialSuccess(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)
	dayID := trip.Days[0].ID

	rec := doJSON(t, h, http.MethodPost, "/days/"+dayID+"/destinations",
		`{"name":"Colosseum","coordinates":{"lng":12.49,"lat":41.89}}`)
	var created DestinationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	body := fmt.Sprintf(`{"targetDayIds":[%q,"ghost-day"]}`, trip.Days[1].ID)
	rec = doJSON(t, h, http.MethodPost, "/days/"+dayID+"/destinations/"+created.Destination.ID+"/duplicate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload DuplicateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode duplicate: %v", err)
	}
	if payload.Succeeded != 1 {
		t.Fatalf("succeeded = %d, want 1", payload.Succeeded)
	}
	if len(payload.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(payload.Outcomes))
	}
	if payload.Outcomes[1].OK || payload.Outcomes[1].Error == "" {
		t.Fatalf("second outcome = %+v, want failure with message", payload.Outcomes[1])
	}
}

func TestRemoveDay_LastDayIsConflict(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/trips",
		`{"name":"Overnight","startDate":"2026-06-01","endDate":"2026-06-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload TripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	rec = doJSON(t, h, http.MethodDelete, "/days/"+payload.Trip.Days[0].ID, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var errBody ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errBody.Error.Code != "LAST_DAY" {
		t.Fatalf("code = %s, want LAST_DAY", errBody.Error.Code)
	}
}

func TestUpdateTrip_PatchesNameAndClearsCountryCodes(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)

	rec := doJSON(t, h, http.MethodPatch, "/trips/"+trip.ID,
		`{"name":"Grand Tour","countryCodes":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload TripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Trip.Name != "Grand Tour" {
		t.Fatalf("name = %s, want Grand Tour", payload.Trip.Name)
	}
	if len(payload.Trip.CountryCodes) != 0 {
		t.Fatalf("countryCodes = %v, want cleared", payload.Trip.CountryCodes)
	}
}

func TestUpdateTripDates_ReflowsDays(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)

	rec := doJSON(t, h, http.MethodPatch, "/trips/"+trip.ID+"/dates",
		`{"startDate":"2026-07-01","endDate":"2026-07-05"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload TripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Trip.Days) != 5 {
		t.Fatalf("days = %d, want 5", len(payload.Trip.Days))
	}
	if payload.Trip.Days[0].Date != "2026-07-01" || payload.Trip.Days[4].Date != "2026-07-05" {
		t.Fatalf("dates = %s..%s, want 2026-07-01..2026-07-05",
			payload.Trip.Days[0].Date, payload.Trip.Days[4].Date)
	}
}

func TestBaseLocations_AddUpdateRemove(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)
	dayID := trip.Days[0].ID

	rec := doJSON(t, h, http.MethodPost, "/days/"+dayID+"/bases",
		`{"name":"Hotel Roma","coordinates":{"lng":12.48,"lat":41.90},"notes":"near station"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPatch, "/days/"+dayID+"/bases/0",
		`{"name":"Hotel Centrale","notes":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload TripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	base := payload.Trip.Days[0].BaseLocations[0]
	if base.Name != "Hotel Centrale" {
		t.Fatalf("name = %s, want Hotel Centrale", base.Name)
	}
	if base.Notes != nil {
		t.Fatalf("notes = %v, want cleared", *base.Notes)
	}

	rec = doJSON(t, h, http.MethodDelete, "/days/"+dayID+"/bases/0", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestBaseLocations_BadIndexIs422(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)
	dayID := trip.Days[0].ID

	rec := doJSON(t, h, http.MethodDelete, "/days/"+dayID+"/bases/zero", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouteFeatures_ReturnsLayer(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)
	dayID := trip.Days[0].ID

	rec := doJSON(t, h, http.MethodPost, "/days/"+dayID+"/bases",
		`{"name":"Hotel Roma","coordinates":{"lng":12.48,"lat":41.90}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add base status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/days/"+dayID+"/destinations",
		`{"name":"Colosseum","coordinates":{"lng":12.49,"lat":41.89}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add dest status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/routes", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Layer    string `json:"layer"`
		Features []struct {
			ID string `json:"id"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Layer != "route-segments" {
		t.Fatalf("layer = %s, want route-segments", payload.Layer)
	}
	if len(payload.Features) != 1 {
		t.Fatalf("features = %d, want 1", len(payload.Features))
	}
}

func TestMarkerFeatures_ReturnsBothLayers(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	trip := createTrip(t, h)
	dayID := trip.Days[0].ID

	rec := doJSON(t, h, http.MethodPost, "/days/"+dayID+"/destinations",
		`{"name":"Colosseum","coordinates":{"lng":12.49,"lat":41.89}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add dest status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/days/"+dayID+"/bases",
		`{"name":"Hotel Roma","coordinates":{"lng":12.48,"lat":41.90}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add base status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/markers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Destinations struct {
			Layer    string `json:"layer"`
			Features []struct {
				ID string `json:"id"`
			} `json:"features"`
		} `json:"destinations"`
		Bases struct {
			Layer    string `json:"layer"`
			Features []struct {
				ID string `json:"id"`
			} `json:"features"`
		} `json:"bases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Destinations.Layer != "destination-markers" || len(payload.Destinations.Features) != 1 {
		t.Fatalf("destinations = %+v", payload.Destinations)
	}
	if payload.Bases.Layer != "base-markers" || len(payload.Bases.Features) != 1 {
		t.Fatalf("bases = %+v", payload.Bases)
	}
}

func TestSearch_MapsGeocoderResults(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, fixedGeocoder{results: []geocode.Result{{
		Name:        "Rome",
		DisplayName: "Rome, Lazio, Italy",
		Coord:       domain.Coordinate{Lng: 12.4964, Lat: 41.9028},
		Category:    "city",
		CountryCode: "it",
	}}})

	rec := doJSON(t, h, http.MethodGet, "/search?q=rome", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(payload.Results))
	}
	got := payload.Results[0]
	if got.Name != "Rome" || got.Category != "city" || got.CountryCode != "it" {
		t.Fatalf("result = %+v", got)
	}
}

func TestSearch_EmptyQueryReturnsNoResults(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, fixedGeocoder{err: context.DeadlineExceeded})
	rec := doJSON(t, h, http.MethodGet, "/search?q=", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Results) != 0 {
		t.Fatalf("results = %d, want 0", len(payload.Results))
	}
}

func TestGetTrip_UnknownIDIs502WithDetails(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/trips/ghost", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "TRIP_LOAD_FAILED" {
		t.Fatalf("code = %s, want TRIP_LOAD_FAILED", payload.Error.Code)
	}
	if payload.Error.RequestID == "" {
		t.Fatalf("requestId missing from error envelope")
	}
}
