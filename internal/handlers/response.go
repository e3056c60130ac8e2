package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-catalog/internal/logger"
	"github.com/sbilibin2017/gw-catalog/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

func writeValidationErrors(w http.ResponseWriter, errs []models.FieldError) {
	writeJSON(w, http.StatusBadRequest, models.ValidationErrorResponse{Errors: errs})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeServerError(w, err, "Internal server error")
}

// writeServerError logs err and answers 500 with message only.
func writeServerError(w http.ResponseWriter, err error, message string) {
	logger.Log.Errorw("internal server error", "err", err)
	writeError(w, http.StatusInternalServerError, message)
}
