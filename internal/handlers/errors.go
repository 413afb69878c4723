package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gradewatch/internal/service"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

func respondWithFieldErrors(w http.ResponseWriter, fields map[string]string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrValidationFailed, Fields: fields})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondWithServiceError maps service errors to HTTP statuses
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		respondWithError(w, http.StatusNotFound, ErrStudentNotFound, "", nil)
	case errors.Is(err, service.ErrUnknownTerm):
		respondWithError(w, http.StatusNotFound, ErrUnknownTerm, "", nil)
	case errors.Is(err, service.ErrUnknownKind):
		respondWithError(w, http.StatusNotFound, ErrUnknownKind, "", nil)
	case errors.Is(err, service.ErrInvalidDate):
		respondWithFieldErrors(w, map[string]string{"date": err.Error()})
	case errors.Is(err, service.ErrEmailDisabled):
		respondWithError(w, http.StatusServiceUnavailable, ErrAlertsDisabled, "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
