package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/remi-music/studio/internal/gateway"
	"github.com/remi-music/studio/internal/models"
	"github.com/rs/zerolog/log"
)

// Error codes surfaced in the error envelope.
const (
	codeInvalidRequest   = "INVALID_REQUEST"
	codeValidationFailed = "VALIDATION_ERROR"
	codeGenerationFailed = "MUSIC_GENERATION_FAILED"
	codeAssistFailed     = "ASSIST_GENERATION_FAILED"
	codeHistoryFailed    = "HISTORY_FETCH_FAILED"
)

// errorBody is the error envelope: {"error":{"code":...,"message":...}}.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeData writes the success envelope {"data": ...}.
func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes the error envelope with the given status.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]errorBody{"error": {Code: code, Message: message}})
}

// writeServiceError maps service errors to the error envelope: validation
// failures are the caller's fault, gateway failures carry the upstream
// message, anything else is opaque.
func writeServiceError(w http.ResponseWriter, err error, fallbackCode string) {
	var valErr *models.ValidationError
	if errors.As(err, &valErr) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, valErr.Message)
		return
	}

	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		writeError(w, http.StatusBadGateway, fallbackCode, gwErr.Message)
		return
	}

	writeError(w, http.StatusInternalServerError, fallbackCode, err.Error())
}
