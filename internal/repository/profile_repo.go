package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wordslayer/internal/database"
	"wordslayer/internal/models"
)

// ProfileRepository handles per-bank learner profiles
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ProfileRepository) WithTx(tx database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

// Get returns the profile of a pair, or nil
func (r *ProfileRepository) Get(ctx context.Context, userID, wordBankID int64) (*models.Profile, error) {
	query := `
		SELECT id, user_id, word_bank_id, experience, morale, level
		FROM user_word_bank_profiles
		WHERE user_id = ? AND word_bank_id = ?
	`
	var p models.Profile
	if err := r.db.GetContext(ctx, &p, query, userID, wordBankID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// Create inserts a profile and sets its ID
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO user_word_bank_profiles (user_id, word_bank_id, experience, morale, level)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, p.UserID, p.WordBankID, p.Experience, p.Morale, p.Level)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	p.ID = id
	return nil
}

// UpdateProgress writes experience and level
func (r *ProfileRepository) UpdateProgress(ctx context.Context, p *models.Profile) error {
	query := `UPDATE user_word_bank_profiles SET experience = ?, level = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, p.Experience, p.Level, p.ID); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// AdjustMorale adds delta to the morale of a pair. It reports false when the pair has no profile.
func (r *ProfileRepository) AdjustMorale(ctx context.Context, userID, wordBankID int64, delta int) (bool, error) {
	query := `
		UPDATE user_word_bank_profiles SET morale = morale + ?
		WHERE user_id = ? AND word_bank_id = ?
	`
	res, err := r.db.ExecContext(ctx, query, delta, userID, wordBankID)
	if err != nil {
		return false, fmt.Errorf("failed to adjust morale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to adjust morale: %w", err)
	}
	return n > 0, nil
}
