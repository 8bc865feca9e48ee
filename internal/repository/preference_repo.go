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

// PreferenceRepository handles per-user preferences
type PreferenceRepository struct {
	db database.DBTX
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db database.DBTX) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *PreferenceRepository) WithTx(tx database.DBTX) *PreferenceRepository {
	return &PreferenceRepository{db: tx}
}

// Get returns the preferences of a user, or nil
func (r *PreferenceRepository) Get(ctx context.Context, userID int64) (*models.UserPreference, error) {
	query := `SELECT user_id, current_word_bank_id, updated_at FROM user_preferences WHERE user_id = ?`

	var p models.UserPreference
	if err := r.db.GetContext(ctx, &p, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &p, nil
}

// SetCurrentWordBank records the word bank the user studies now
func (r *PreferenceRepository) SetCurrentWordBank(ctx context.Context, userID, wordBankID int64, now time.Time) error {
	insert := r.db.GetDialect().InsertIgnore(`
		INSERT INTO user_preferences (user_id, current_word_bank_id, updated_at) VALUES (?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, insert, userID, wordBankID, now); err != nil {
		return fmt.Errorf("failed to set current word bank: %w", err)
	}
	update := `UPDATE user_preferences SET current_word_bank_id = ?, updated_at = ? WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, update, wordBankID, now, userID); err != nil {
		return fmt.Errorf("failed to set current word bank: %w", err)
	}
	return nil
}
