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

const userWordColumns = `id, user_id, word_bank_id, word, word_status, tags, updated_at`

// UserWordRepository handles user word database operations
type UserWordRepository struct {
	db database.DBTX
}

// NewUserWordRepository creates a new user word repository
func NewUserWordRepository(db database.DBTX) *UserWordRepository {
	return &UserWordRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *UserWordRepository) WithTx(tx database.DBTX) *UserWordRepository {
	return &UserWordRepository{db: tx}
}

// Count returns how many words a user holds in a bank
func (r *UserWordRepository) Count(ctx context.Context, userID, wordBankID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_words WHERE user_id = ? AND word_bank_id = ?`
	if err := r.db.GetContext(ctx, &count, query, userID, wordBankID); err != nil {
		return 0, fmt.Errorf("failed to count user words: %w", err)
	}
	return count, nil
}

// BulkCreate inserts one WAIT row per seed
func (r *UserWordRepository) BulkCreate(ctx context.Context, userID, wordBankID int64, seeds []models.WordSeed, now time.Time) error {
	query := `
		INSERT INTO user_words (user_id, word_bank_id, word, word_status, tags, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, seed := range seeds {
		_, err := r.db.ExecContext(ctx, query,
			userID, wordBankID, seed.Word, models.WordStatusWait, models.StringList(seed.Flags), now)
		if err != nil {
			return fmt.Errorf("failed to create user word %q: %w", seed.Word, err)
		}
	}
	return nil
}

// Get returns one user word, or nil
func (r *UserWordRepository) Get(ctx context.Context, userID, wordBankID int64, word string) (*models.UserWord, error) {
	query := `SELECT ` + userWordColumns + ` FROM user_words
		WHERE user_id = ? AND word_bank_id = ? AND word = ?`

	var uw models.UserWord
	if err := r.db.GetContext(ctx, &uw, query, userID, wordBankID, word); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user word: %w", err)
	}
	return &uw, nil
}

// ListByStatus returns the user words in any of the given statuses, ordered by
// status then least recently touched. An empty status list returns every word.
func (r *UserWordRepository) ListByStatus(ctx context.Context, userID, wordBankID int64, statuses ...models.WordStatus) ([]models.UserWord, error) {
	query := `SELECT ` + userWordColumns + ` FROM user_words WHERE user_id = ? AND word_bank_id = ?`
	args := []interface{}{userID, wordBankID}
	if len(statuses) > 0 {
		query += ` AND word_status IN (?)`
		args = append(args, statuses)
	}
	query += ` ORDER BY word_status, updated_at, id`

	var words []models.UserWord
	if err := r.db.SelectContext(ctx, &words, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list user words: %w", err)
	}
	return words, nil
}

// ListByWords returns the user words matching the given words
func (r *UserWordRepository) ListByWords(ctx context.Context, userID, wordBankID int64, words []string) ([]models.UserWord, error) {
	if len(words) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userWordColumns + ` FROM user_words
		WHERE user_id = ? AND word_bank_id = ? AND word IN (?)
		ORDER BY id`

	var out []models.UserWord
	if err := r.db.SelectContext(ctx, &out, query, userID, wordBankID, words); err != nil {
		return nil, fmt.Errorf("failed to list user words: %w", err)
	}
	return out, nil
}

// UpdateStatus sets the mastery status of one word
func (r *UserWordRepository) UpdateStatus(ctx context.Context, userID, wordBankID int64, word string, status models.WordStatus, now time.Time) error {
	query := `
		UPDATE user_words SET word_status = ?, updated_at = ?
		WHERE user_id = ? AND word_bank_id = ? AND word = ?
	`
	if _, err := r.db.ExecContext(ctx, query, status, now, userID, wordBankID, word); err != nil {
		return fmt.Errorf("failed to update user word status: %w", err)
	}
	return nil
}

// UpdateTags replaces the tags of one word
func (r *UserWordRepository) UpdateTags(ctx context.Context, id int64, tags models.StringList) error {
	query := `UPDATE user_words SET tags = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, tags, id); err != nil {
		return fmt.Errorf("failed to update user word tags: %w", err)
	}
	return nil
}

// StatusStats counts the words of a pair by status
func (r *UserWordRepository) StatusStats(ctx context.Context, userID, wordBankID int64) (models.StatusStats, error) {
	query := `
		SELECT word_status, COUNT(*) AS count FROM user_words
		WHERE user_id = ? AND word_bank_id = ?
		GROUP BY word_status
	`
	var rows []struct {
		WordStatus models.WordStatus `db:"word_status"`
		Count      int               `db:"count"`
	}
	var stats models.StatusStats
	if err := r.db.SelectContext(ctx, &rows, query, userID, wordBankID); err != nil {
		return stats, fmt.Errorf("failed to count user words by status: %w", err)
	}

	for _, row := range rows {
		switch row.WordStatus {
		case models.WordStatusWait:
			stats.Wait = row.Count
		case models.WordStatusInProgress:
			stats.InProgress = row.Count
		case models.WordStatusMastered:
			stats.Mastered = row.Count
		}
		stats.Total += row.Count
	}
	return stats, nil
}
