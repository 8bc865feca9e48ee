package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"wordslayer/internal/logger"
	"wordslayer/internal/service"
	"wordslayer/internal/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BatchHandler manages the learner's study batches
type BatchHandler struct {
	batches *service.BatchService
	log     *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batches *service.BatchService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{batches: batches, log: log}
}

type batchWordsRequest struct {
	Words []string `json:"words"`
}

// decodeWords reads and validates a word list body
func (h *BatchHandler) decodeWords(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req batchWordsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid request body", "", err)
		return nil, false
	}
	if err := validation.ValidateWords(req.Words); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return nil, false
	}
	return req.Words, true
}

// batchRoute resolves user, bank and batch ids of a batch route
func (h *BatchHandler) batchRoute(w http.ResponseWriter, r *http.Request) (int64, int64, int64, bool) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return 0, 0, 0, false
	}
	batchID, err := pathID(r, "batchID")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid batch ID", "", err)
		return 0, 0, 0, false
	}
	return userID, bankID, batchID, true
}

// ListBatches lists hard word batches first, then the others
func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	batches, err := h.batches.ListBatches(r.Context(), userID, bankID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to list batches", err)
		return
	}
	respondJSON(w, http.StatusOK, batches)
}

// CreateBatch creates a batch from the given words
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	words, ok := h.decodeWords(w, r)
	if !ok {
		return
	}

	batch, err := h.batches.CreateBatch(r.Context(), userID, bankID, words)
	if err != nil {
		respondServiceError(w, h.log, "Failed to create batch", err)
		return
	}
	respondJSON(w, http.StatusCreated, batch)
}

// GetBatch returns one batch
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	userID, bankID, batchID, ok := h.batchRoute(w, r)
	if !ok {
		return
	}

	batch, err := h.batches.GetBatch(r.Context(), userID, bankID, batchID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to load batch", err)
		return
	}
	respondJSON(w, http.StatusOK, batch)
}

// SetWords replaces the words of a batch
func (h *BatchHandler) SetWords(w http.ResponseWriter, r *http.Request) {
	userID, bankID, batchID, ok := h.batchRoute(w, r)
	if !ok {
		return
	}

	words, ok := h.decodeWords(w, r)
	if !ok {
		return
	}

	if err := h.batches.SetBatchWords(r.Context(), userID, bankID, batchID, words); err != nil {
		respondServiceError(w, h.log, "Failed to set batch words", err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Reset marks every word of a batch unmemorized
func (h *BatchHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, bankID, batchID, ok := h.batchRoute(w, r)
	if !ok {
		return
	}

	if err := h.batches.ResetBatchStatus(r.Context(), userID, bankID, batchID); err != nil {
		respondServiceError(w, h.log, "Failed to reset batch", err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Export downloads a batch as an .xlsx workbook
func (h *BatchHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, bankID, batchID, ok := h.batchRoute(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	batch, err := h.batches.ExportBatch(r.Context(), userID, bankID, batchID, &buf)
	if err != nil {
		respondServiceError(w, h.log, "Failed to export batch", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, batch.BatchNo))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("Failed to write batch export", "batch", batch.BatchNo, "error", err)
	}
}

// HardWordsSince lists hard words counting only answers on or after ?date=YYYY-MM-DD
func (h *BatchHandler) HardWordsSince(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	words, err := h.batches.GetHardWordsSince(r.Context(), userID, bankID, r.URL.Query().Get("date"))
	if err != nil {
		respondServiceError(w, h.log, "Failed to load hard words", err)
		return
	}
	respondJSON(w, http.StatusOK, words)
}
