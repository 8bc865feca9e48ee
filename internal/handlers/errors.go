package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"wordslayer/internal/logger"
	"wordslayer/internal/service"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			log.Error(logMsg, "status", status, "error", err)
		} else {
			log.Debug(logMsg, "status", status, "error", err)
		}
	}

	respondJSON(w, status, errorBody{Error: userMsg})
}

// respondServiceError maps service errors to HTTP statuses
func respondServiceError(w http.ResponseWriter, log *logger.Logger, logMsg string, err error) {
	switch {
	case service.IsNotFound(err):
		respondWithError(w, log, http.StatusNotFound, err.Error(), logMsg, err)
	case errors.Is(err, service.ErrAttemptClosed), errors.Is(err, service.ErrBatchConflict):
		respondWithError(w, log, http.StatusConflict, err.Error(), logMsg, err)
	case errors.Is(err, service.ErrWordMismatch),
		errors.Is(err, service.ErrInvalidTagAction),
		errors.Is(err, service.ErrInvalidDate):
		respondWithError(w, log, http.StatusBadRequest, err.Error(), logMsg, err)
	case errors.Is(err, service.ErrJudgeUnavailable):
		respondWithError(w, log, http.StatusServiceUnavailable, "Phrase judging is unavailable", logMsg, err)
	default:
		respondWithError(w, log, http.StatusInternalServerError, "Internal server error", logMsg, err)
	}
}
