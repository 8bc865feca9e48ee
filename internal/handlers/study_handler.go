package handlers

import (
	"net/http"
	"strconv"

	"wordslayer/internal/logger"
	"wordslayer/internal/models"
	"wordslayer/internal/service"
	"wordslayer/internal/validation"
)

// StudyHandler serves the learner's study session and progress
type StudyHandler struct {
	study     *service.StudyService
	incentive *service.IncentiveService
	log       *logger.Logger
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(study *service.StudyService, incentive *service.IncentiveService, log *logger.Logger) *StudyHandler {
	return &StudyHandler{study: study, incentive: incentive, log: log}
}

type switchBankRequest struct {
	Words []models.WordSeed `json:"words"`
}

// SwitchBank adopts a word bank for the learner
func (h *StudyHandler) SwitchBank(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	var req switchBankRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	for _, seed := range req.Words {
		if err := validation.ValidateWord(seed.Word); err != nil {
			respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
		for _, flag := range seed.Flags {
			if err := validation.ValidateTag(flag); err != nil {
				respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
				return
			}
		}
	}

	if err := h.study.SwitchWordBank(r.Context(), userID, bankID, req.Words); err != nil {
		respondServiceError(w, h.log, "Failed to switch word bank", err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// CurrentBank returns the word bank the learner switched to last
func (h *StudyHandler) CurrentBank(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, h.log, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	bankID, err := h.study.CurrentWordBank(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to load current word bank", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"word_bank_id": bankID})
}

// NextTask serves the next word to study
func (h *StudyHandler) NextTask(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	opts := service.SelectOptions{Tag: r.URL.Query().Get("tag")}
	if raw := r.URL.Query().Get("batch_id"); raw != "" {
		batchID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, h.log, http.StatusBadRequest, "Invalid batch ID", "", err)
			return
		}
		opts.BatchID = &batchID
	}

	task, err := h.study.SelectNext(r.Context(), userID, bankID, opts)
	if err != nil {
		respondServiceError(w, h.log, "Failed to select next word", err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// SubmitAnswer records the answer of an open attempt
func (h *StudyHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	var in service.AnswerInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	if in.SeqID == "" || in.Word == "" {
		respondWithError(w, h.log, http.StatusBadRequest, "seq_id and word are required", "", nil)
		return
	}

	result, err := h.study.SubmitAnswer(r.Context(), userID, bankID, in)
	if err != nil {
		respondServiceError(w, h.log, "Failed to submit answer", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type statsResponse struct {
	Stats  models.StatusStats `json:"stats"`
	Ratios models.Ratios      `json:"ratios"`
}

// Stats returns status counts and mastery ratios
func (h *StudyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	stats, err := h.study.GetStatusStats(r.Context(), userID, bankID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to load status stats", err)
		return
	}
	respondJSON(w, http.StatusOK, statsResponse{Stats: stats, Ratios: service.RatiosFromStats(stats)})
}

// ListWords lists the learner's words, optionally filtered by ?status=
func (h *StudyHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	var status *models.WordStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < int(models.WordStatusWait) || n > int(models.WordStatusMastered) {
			respondWithError(w, h.log, http.StatusBadRequest, "Invalid status", "", err)
			return
		}
		s := models.WordStatus(n)
		status = &s
	}

	words, err := h.study.ListUserWords(r.Context(), userID, bankID, status)
	if err != nil {
		respondServiceError(w, h.log, "Failed to list words", err)
		return
	}
	if words == nil {
		words = []models.UserWord{}
	}
	respondJSON(w, http.StatusOK, words)
}

type tagsRequest struct {
	Words  []string          `json:"words"`
	Tags   []string          `json:"tags"`
	Action service.TagAction `json:"action"`
}

// SetTags adds or removes tags on words
func (h *StudyHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	var req tagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	if err := validation.ValidateWords(req.Words); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	for _, tag := range req.Tags {
		if err := validation.ValidateTag(tag); err != nil {
			respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
	}

	if err := h.study.SetWordTags(r.Context(), userID, bankID, req.Words, req.Tags, req.Action); err != nil {
		respondServiceError(w, h.log, "Failed to set tags", err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ListRecords returns the study history. ?snapshot=false shows live statuses.
func (h *StudyHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	useSnapshot := true
	if raw := r.URL.Query().Get("snapshot"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, h.log, http.StatusBadRequest, "Invalid snapshot flag", "", err)
			return
		}
		useSnapshot = b
	}

	days, err := h.study.ListStudyRecords(r.Context(), userID, bankID, useSnapshot)
	if err != nil {
		respondServiceError(w, h.log, "Failed to list study records", err)
		return
	}
	respondJSON(w, http.StatusOK, days)
}

// HardWords reports words answered incorrectly at least ?fault_count= times
func (h *StudyHandler) HardWords(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	faultCount := 2
	if raw := r.URL.Query().Get("fault_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, h.log, http.StatusBadRequest, "Invalid fault count", "", err)
			return
		}
		faultCount = n
	}

	reports, err := h.study.HardWordRecords(r.Context(), userID, bankID, faultCount)
	if err != nil {
		respondServiceError(w, h.log, "Failed to load hard words", err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// Profile returns the learner's profile card
func (h *StudyHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	profile, err := h.incentive.GetProfile(r.Context(), userID, bankID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to load profile", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Awards lists the learner's awards by type
func (h *StudyHandler) Awards(w http.ResponseWriter, r *http.Request) {
	userID, bankID, ok := requestOwner(w, r, h.log)
	if !ok {
		return
	}

	groups, err := h.incentive.ListAwards(r.Context(), userID, bankID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to list awards", err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

type judgeRequest struct {
	Phrase string `json:"phrase"`
	Answer string `json:"answer"`
}

// JudgePhrase grades a free-form phrase answer
func (h *StudyHandler) JudgePhrase(w http.ResponseWriter, r *http.Request) {
	var req judgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	correct, err := h.study.JudgePhrase(r.Context(), req.Phrase, req.Answer)
	if err != nil {
		respondServiceError(w, h.log, "Failed to judge phrase", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_correct": correct})
}
