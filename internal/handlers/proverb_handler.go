package handlers

import (
	"net/http"

	"wordslayer/internal/logger"
	"wordslayer/internal/models"
	"wordslayer/internal/service"
)

const maxProverbLength = 512

// ProverbHandler serves the proverb rotation
type ProverbHandler struct {
	proverbs *service.ProverbService
	log      *logger.Logger
}

// NewProverbHandler creates a new proverb handler
func NewProverbHandler(proverbs *service.ProverbService, log *logger.Logger) *ProverbHandler {
	return &ProverbHandler{proverbs: proverbs, log: log}
}

// Next returns the proverb to show the learner now
func (h *ProverbHandler) Next(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, h.log, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	p, err := h.proverbs.NextForDisplay(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to load proverb", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// List returns every proverb
func (h *ProverbHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.proverbs.List(r.Context())
	if err != nil {
		respondServiceError(w, h.log, "Failed to list proverbs", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

type addProverbsRequest struct {
	Proverbs []models.Proverb `json:"proverbs"`
}

// Add stores new proverbs. Known proverbs are skipped.
func (h *ProverbHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addProverbsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	for _, p := range req.Proverbs {
		if len(p.Proverb) > maxProverbLength || len(p.Explanation) > maxProverbLength {
			respondWithError(w, h.log, http.StatusBadRequest, "Proverb is too long", "", nil)
			return
		}
	}

	added, err := h.proverbs.Add(r.Context(), req.Proverbs)
	if err != nil {
		respondServiceError(w, h.log, "Failed to add proverbs", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"added": added})
}
