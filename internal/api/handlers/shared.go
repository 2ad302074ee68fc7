package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/validation"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// respondError sends a structured error response
func respondError(w http.ResponseWriter, status int, message string, details interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"error":   message,
		"details": details,
	})
}

// respondServiceError maps service-layer errors onto HTTP status codes.
// Validation failures become 400 with per-field details, missing entities
// become 404, everything else a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, validation.ErrInvalidUUID):
		respondError(w, http.StatusBadRequest, "invalid UUID format", err.Error())
	case errors.Is(err, apperrors.ErrMetadataNotFound),
		errors.Is(err, apperrors.ErrOptionTradeNotFound),
		errors.Is(err, apperrors.ErrSettingNotFound),
		errors.Is(err, apperrors.ErrQuoteNotFound):
		respondError(w, http.StatusNotFound, err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "internal server error", err.Error())
	}
}
