package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"wordslayer/internal/logger"
	"wordslayer/internal/service"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, logger.NewNop(), 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	var body errorBody
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body.Error)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
}

func TestRespondWithErrorLogsServerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	recorder := httptest.NewRecorder()
	respondWithError(recorder, log, 500, "Internal server error", "", errors.New("boom"))

	entries := logs.FilterMessage("Internal server error").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v, want %v", entries[0].Level, zapcore.ErrorLevel)
	}
	if got := fmt.Sprint(entries[0].ContextMap()["error"]); got != "boom" {
		t.Errorf("error field = %v, want boom", got)
	}
}

func TestRespondServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"batch not found", fmt.Errorf("batch 3: %w", service.ErrBatchNotFound), http.StatusNotFound},
		{"attempt not found", service.ErrAttemptNotFound, http.StatusNotFound},
		{"profile not found", service.ErrProfileNotFound, http.StatusNotFound},
		{"attempt closed", service.ErrAttemptClosed, http.StatusConflict},
		{"batch conflict", service.ErrBatchConflict, http.StatusConflict},
		{"word mismatch", service.ErrWordMismatch, http.StatusBadRequest},
		{"tag action", service.ErrInvalidTagAction, http.StatusBadRequest},
		{"date", service.ErrInvalidDate, http.StatusBadRequest},
		{"judge", service.ErrJudgeUnavailable, http.StatusServiceUnavailable},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondServiceError(recorder, logger.NewNop(), "op failed", tt.err)
			if recorder.Code != tt.want {
				t.Errorf("status = %v, want %v", recorder.Code, tt.want)
			}
		})
	}
}
