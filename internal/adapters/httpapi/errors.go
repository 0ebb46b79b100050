package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
)

// ErrorResponse is the uniform error envelope for every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	body := ErrorResponse{Error: ErrorBody{
		Code:    code,
		Message: message,
		Details: details,
	}}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		body.Error.RequestID = rid
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeAppError maps application-layer errors onto the envelope. Anything
// that is not an *itinerary.Error is treated as an internal failure and not
// echoed to the client.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *itinerary.Error
	if errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	s.log.WithError(err).Error("unhandled error in http adapter")
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
