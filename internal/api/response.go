// Package api holds the JSON response helpers and the mapping from engine
// errors to HTTP status codes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"documind/internal/models"
)

// ErrorResponse is the wire shape of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error JSON response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// Status maps engine errors to HTTP status codes. Client mistakes map to
// 400/404; failures of the external capabilities map to 502 so they are
// distinguishable from bugs in this service.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidConfig),
		errors.Is(err, models.ErrEmptyDocument),
		errors.Is(err, models.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrEmbeddingFailure),
		errors.Is(err, models.ErrGenerationFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes the error response appropriate for err.
func HandleError(w http.ResponseWriter, err error) {
	Error(w, Status(err), err.Error())
}
