package repository

import (
	"context"
	"fmt"
	"time"

	"wordslayer/internal/database"
)

// GrantRepository stores the daily probability award markers.
// At most one marker exists per (user, word bank, date).
type GrantRepository struct {
	db database.DBTX
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(db database.DBTX) *GrantRepository {
	return &GrantRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GrantRepository) WithTx(tx database.DBTX) *GrantRepository {
	return &GrantRepository{db: tx}
}

// Exists reports whether a probability award was granted on date (YYYY-MM-DD)
func (r *GrantRepository) Exists(ctx context.Context, userID, wordBankID int64, date string) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM probability_award_grants
		WHERE user_id = ? AND word_bank_id = ? AND grant_date = ?
	`
	if err := r.db.GetContext(ctx, &count, query, userID, wordBankID, date); err != nil {
		return false, fmt.Errorf("failed to check award grant: %w", err)
	}
	return count > 0, nil
}

// Claim stores the marker for date and reports whether this call created it.
// A marker that already exists, or is being written by a concurrent
// transaction, yields false.
func (r *GrantRepository) Claim(ctx context.Context, userID, wordBankID int64, date string, now time.Time) (bool, error) {
	query := r.db.GetDialect().InsertIgnore(`
		INSERT INTO probability_award_grants (user_id, word_bank_id, grant_date, created_at)
		VALUES (?, ?, ?, ?)`)
	res, err := r.db.ExecContext(ctx, query, userID, wordBankID, date, now)
	if err != nil {
		return false, fmt.Errorf("failed to claim award grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim award grant: %w", err)
	}
	return n > 0, nil
}
