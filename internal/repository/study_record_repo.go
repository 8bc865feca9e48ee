package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wordslayer/internal/database"
	"wordslayer/internal/models"
)

const studyRecordColumns = `id, user_id, word_bank_id, word, seq_id, record_time, answer_info,
	study_result, word_status, created_at, updated_at`

// UserBankPair identifies one learner in one word bank
type UserBankPair struct {
	UserID     int64 `db:"user_id"`
	WordBankID int64 `db:"word_bank_id"`
}

// AnswerStats counts answered attempts for a pair
type AnswerStats struct {
	UserBankPair
	Total   int `db:"total"`
	Correct int `db:"correct"`
}

// StudyRecordRepository handles study record database operations
type StudyRecordRepository struct {
	db database.DBTX
}

// NewStudyRecordRepository creates a new study record repository
func NewStudyRecordRepository(db database.DBTX) *StudyRecordRepository {
	return &StudyRecordRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *StudyRecordRepository) WithTx(tx database.DBTX) *StudyRecordRepository {
	return &StudyRecordRepository{db: tx}
}

// Create inserts an open attempt and sets its ID
func (r *StudyRecordRepository) Create(ctx context.Context, rec *models.StudyRecord) error {
	query := `
		INSERT INTO study_records (user_id, word_bank_id, word, seq_id, answer_info, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		rec.UserID, rec.WordBankID, rec.Word, rec.SeqID, rec.AnswerInfo, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create study record: %w", err)
	}
	rec.ID = id
	return nil
}

// GetOpen returns the latest unanswered attempt of a pair, or nil
func (r *StudyRecordRepository) GetOpen(ctx context.Context, userID, wordBankID int64) (*models.StudyRecord, error) {
	query := `SELECT ` + studyRecordColumns + ` FROM study_records
		WHERE user_id = ? AND word_bank_id = ? AND record_time IS NULL
		ORDER BY id DESC LIMIT 1`

	var rec models.StudyRecord
	if err := r.db.GetContext(ctx, &rec, query, userID, wordBankID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open study record: %w", err)
	}
	return &rec, nil
}

// GetBySeqID returns the attempt with the given seq id, or nil
func (r *StudyRecordRepository) GetBySeqID(ctx context.Context, seqID string) (*models.StudyRecord, error) {
	query := `SELECT ` + studyRecordColumns + ` FROM study_records WHERE seq_id = ?`

	var rec models.StudyRecord
	if err := r.db.GetContext(ctx, &rec, query, seqID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get study record: %w", err)
	}
	return &rec, nil
}

// Close answers an open attempt. It reports false when no open attempt
// matched, so a second submission of the same attempt changes nothing.
func (r *StudyRecordRepository) Close(ctx context.Context, rec *models.StudyRecord, result models.StudyResult, items models.AnswerItems, now time.Time) (bool, error) {
	query := `
		UPDATE study_records
		SET record_time = ?, study_result = ?, answer_info = ?, updated_at = ?
		WHERE seq_id = ? AND user_id = ? AND word_bank_id = ? AND record_time IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, now, result, items, now, rec.SeqID, rec.UserID, rec.WordBankID)
	if err != nil {
		return false, fmt.Errorf("failed to close study record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to close study record: %w", err)
	}
	return n == 1, nil
}

// SetStatusSnapshot stamps the mastery status computed for an attempt
func (r *StudyRecordRepository) SetStatusSnapshot(ctx context.Context, seqID string, status models.WordStatus, now time.Time) error {
	query := `UPDATE study_records SET word_status = ?, updated_at = ? WHERE seq_id = ?`
	if _, err := r.db.ExecContext(ctx, query, status, now, seqID); err != nil {
		return fmt.Errorf("failed to update study record status: %w", err)
	}
	return nil
}

// ListCorrectTimes returns the answer times of every correct attempt of a word, oldest first
func (r *StudyRecordRepository) ListCorrectTimes(ctx context.Context, userID, wordBankID int64, word string) ([]time.Time, error) {
	query := `
		SELECT record_time FROM study_records
		WHERE user_id = ? AND word_bank_id = ? AND word = ?
		  AND study_result = ? AND record_time IS NOT NULL
		ORDER BY record_time ASC
	`
	var times []time.Time
	if err := r.db.SelectContext(ctx, &times, query, userID, wordBankID, word, models.StudyResultCorrect); err != nil {
		return nil, fmt.Errorf("failed to list correct answers: %w", err)
	}
	return times, nil
}

// ListWordsAnsweredBetween returns the distinct words answered in [from, to)
func (r *StudyRecordRepository) ListWordsAnsweredBetween(ctx context.Context, userID, wordBankID int64, from, to time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT word FROM study_records
		WHERE user_id = ? AND word_bank_id = ? AND record_time >= ? AND record_time < ?
	`
	var words []string
	if err := r.db.SelectContext(ctx, &words, query, userID, wordBankID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list answered words: %w", err)
	}
	return words, nil
}

// ListWordsCreatedBetween returns the distinct words of attempts created in [from, to)
func (r *StudyRecordRepository) ListWordsCreatedBetween(ctx context.Context, userID, wordBankID int64, from, to time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT word FROM study_records
		WHERE user_id = ? AND word_bank_id = ? AND created_at >= ? AND created_at < ?
	`
	var words []string
	if err := r.db.SelectContext(ctx, &words, query, userID, wordBankID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list attempted words: %w", err)
	}
	return words, nil
}

// ListIncorrectWordsCreatedBetween returns the distinct words missed by attempts
// created in [from, to), in order of the first miss
func (r *StudyRecordRepository) ListIncorrectWordsCreatedBetween(ctx context.Context, userID, wordBankID int64, from, to time.Time) ([]string, error) {
	query := `
		SELECT word FROM study_records
		WHERE user_id = ? AND word_bank_id = ? AND study_result = ?
		  AND created_at >= ? AND created_at < ?
		GROUP BY word
		ORDER BY MIN(id)
	`
	var words []string
	if err := r.db.SelectContext(ctx, &words, query, userID, wordBankID, models.StudyResultIncorrect, from, to); err != nil {
		return nil, fmt.Errorf("failed to list incorrect words: %w", err)
	}
	return words, nil
}

// CountCorrectBetween counts correct answers given in [from, to)
func (r *StudyRecordRepository) CountCorrectBetween(ctx context.Context, userID, wordBankID int64, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM study_records
		WHERE user_id = ? AND word_bank_id = ? AND study_result = ?
		  AND record_time >= ? AND record_time < ?
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, wordBankID, models.StudyResultCorrect, from, to); err != nil {
		return 0, fmt.Errorf("failed to count correct answers: %w", err)
	}
	return count, nil
}

// ListHardWords returns words answered incorrectly at least faultCount times
// among attempts answered at or after since, ordered by their first answer.
func (r *StudyRecordRepository) ListHardWords(ctx context.Context, userID, wordBankID int64, faultCount int, since time.Time) ([]string, error) {
	query := `
		SELECT word FROM study_records
		WHERE user_id = ? AND word_bank_id = ? AND record_time IS NOT NULL AND record_time >= ?
		GROUP BY word
		HAVING SUM(CASE WHEN study_result = ? THEN 1 ELSE 0 END) >= ?
		ORDER BY MIN(record_time), word
	`
	var words []string
	err := r.db.SelectContext(ctx, &words, query,
		userID, wordBankID, since, models.StudyResultIncorrect, faultCount)
	if err != nil {
		return nil, fmt.Errorf("failed to list hard words: %w", err)
	}
	return words, nil
}

// ListAnswered returns every answered attempt of a pair, newest first
func (r *StudyRecordRepository) ListAnswered(ctx context.Context, userID, wordBankID int64) ([]models.StudyRecord, error) {
	query := `SELECT ` + studyRecordColumns + ` FROM study_records
		WHERE user_id = ? AND word_bank_id = ? AND record_time IS NOT NULL
		ORDER BY record_time DESC, id DESC`

	var records []models.StudyRecord
	if err := r.db.SelectContext(ctx, &records, query, userID, wordBankID); err != nil {
		return nil, fmt.Errorf("failed to list study records: %w", err)
	}
	return records, nil
}

// ListPairs returns every (user, word bank) pair with at least one attempt
func (r *StudyRecordRepository) ListPairs(ctx context.Context) ([]UserBankPair, error) {
	query := `
		SELECT user_id, word_bank_id FROM study_records
		GROUP BY user_id, word_bank_id
		ORDER BY user_id, word_bank_id
	`
	var pairs []UserBankPair
	if err := r.db.SelectContext(ctx, &pairs, query); err != nil {
		return nil, fmt.Errorf("failed to list study pairs: %w", err)
	}
	return pairs, nil
}

// AnswerStatsSince aggregates answered attempts per pair since the given time
func (r *StudyRecordRepository) AnswerStatsSince(ctx context.Context, since time.Time) ([]AnswerStats, error) {
	query := `
		SELECT user_id, word_bank_id,
		       COUNT(*) AS total,
		       SUM(CASE WHEN study_result = ? THEN 1 ELSE 0 END) AS correct
		FROM study_records
		WHERE record_time IS NOT NULL AND record_time >= ?
		GROUP BY user_id, word_bank_id
		ORDER BY user_id, word_bank_id
	`
	var stats []AnswerStats
	if err := r.db.SelectContext(ctx, &stats, query, models.StudyResultCorrect, since); err != nil {
		return nil, fmt.Errorf("failed to aggregate answers: %w", err)
	}
	return stats, nil
}
