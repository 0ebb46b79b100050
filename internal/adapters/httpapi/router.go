package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: handlers decode and validate, the
// application services own all planning semantics.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoint is deliberately out-of-spec (used for infra checks).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.handleCreateTrip)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.handleGetTrip)
			r.Patch("/", s.handleUpdateTrip)
			r.Patch("/dates", s.handleUpdateTripDates)
			r.Post("/days", s.handleAddDay)
		})
	})

	r.Route("/days/{dayID}", func(r chi.Router) {
		r.Delete("/", s.handleRemoveDay)
		r.Post("/duplicate", s.handleDuplicateDay)

		r.Route("/destinations", func(r chi.Router) {
			r.Post("/", s.handleAddDestination)
			r.Post("/reorder", s.handleReorderDestinations)
			r.Route("/{destinationID}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateDestination)
				r.Delete("/", s.handleRemoveDestination)
				r.Post("/move", s.handleMoveDestination)
				r.Post("/duplicate", s.handleDuplicateDestination)
			})
		})

		r.Route("/bases", func(r chi.Router) {
			r.Post("/", s.handleAddBaseLocation)
			r.Post("/reorder", s.handleReorderBaseLocations)
			r.Route("/{index}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateBaseLocation)
				r.Delete("/", s.handleRemoveBaseLocation)
				r.Post("/duplicate", s.handleDuplicateBaseLocation)
			})
		})
	})

	r.Get("/routes", s.handleRouteFeatures)
	r.Get("/markers", s.handleMarkerFeatures)
	r.Get("/search", s.handleSearch)

	return r
}
