package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/valetparking/backend/pkg/errors"
)

// envelope is the body of every API response
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// dataEnvelope keeps "data" present even when it is null
type dataEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithData(w http.ResponseWriter, statusCode int, data interface{}) {
	respondWithJSON(w, statusCode, dataEnvelope{Success: true, Data: data})
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, envelope{Success: false, Error: message})
}

// respondWithAppError maps a typed error onto its HTTP status. Internal
// details are logged, never returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())

	var message string
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, message)
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, message)
	case apperrors.ErrorTypeInvalidTransition:
		respondWithError(w, http.StatusConflict, message)
	case apperrors.ErrorTypeUnauthorized:
		respondWithError(w, http.StatusUnauthorized, message)
	case apperrors.ErrorTypeUnavailable:
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Store unavailable")
		w.Header().Set("Retry-After", "1")
		respondWithError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
