package service

import (
	"context"
	"fmt"
	"time"

	"wordslayer/internal/database"
	"wordslayer/internal/models"
	"wordslayer/internal/repository"
)

// MasteryWindow is how far apart the first and latest correct answers must be
// for a word to count as mastered
const MasteryWindow = 30 * 24 * time.Hour

// ComputeStatus derives a word's status from the latest result and the times
// of every correct answer, oldest first.
func ComputeStatus(latest models.StudyResult, correctTimes []time.Time) models.WordStatus {
	if latest != models.StudyResultCorrect {
		return models.WordStatusWait
	}
	if len(correctTimes) < 2 {
		return models.WordStatusInProgress
	}
	if correctTimes[len(correctTimes)-1].Sub(correctTimes[0]) > MasteryWindow {
		return models.WordStatusMastered
	}
	return models.WordStatusInProgress
}

// MasteryEvaluator computes word status from the stored answer history
type MasteryEvaluator struct {
	records *repository.StudyRecordRepository
}

// NewMasteryEvaluator creates an evaluator reading from records
func NewMasteryEvaluator(records *repository.StudyRecordRepository) *MasteryEvaluator {
	return &MasteryEvaluator{records: records}
}

// Evaluate returns the status of word given the latest result. It reads through
// q so the latest attempt, written in the same transaction, is part of the history.
func (e *MasteryEvaluator) Evaluate(ctx context.Context, q database.DBTX, userID, wordBankID int64, word string, latest models.StudyResult) (models.WordStatus, error) {
	if latest != models.StudyResultCorrect {
		return models.WordStatusWait, nil
	}
	times, err := e.records.WithTx(q).ListCorrectTimes(ctx, userID, wordBankID, word)
	if err != nil {
		return models.WordStatusWait, fmt.Errorf("failed to evaluate mastery of %q: %w", word, err)
	}
	return ComputeStatus(latest, times), nil
}
