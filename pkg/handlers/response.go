package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/apperrors"
)

// ApiResponse is the success envelope shared by all API endpoints.
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// validationResponse renders a ValidationError as a per-field message map.
func validationResponse(w http.ResponseWriter, ve *apperrors.ValidationError) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	return json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   "validation_error",
		"message": ve.Error(),
		"fields":  ve.Fields,
	})
}

// WriteServiceError maps service-layer errors onto HTTP statuses and writes
// the error envelope. fallbackCode names the failed operation for the
// catch-all 500 case.
func WriteServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallbackCode string) {
	var writeErr error
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeErr = ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		writeErr = ErrorResponse(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperrors.ErrReferentialGap):
		writeErr = ErrorResponse(w, http.StatusConflict, "data_missing", err.Error())
	case errors.Is(err, apperrors.ErrTestInProgress):
		writeErr = ErrorResponse(w, http.StatusConflict, "test_in_progress", err.Error())
	default:
		if ve, ok := apperrors.AsValidationError(err); ok {
			writeErr = validationResponse(w, ve)
			break
		}
		writeErr = ErrorResponse(w, http.StatusInternalServerError, fallbackCode, err.Error())
	}
	if writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}

// DecodeJSON decodes the request body into dst, writing the standard 400
// response on failure. Returns false when decoding failed.
func DecodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}
