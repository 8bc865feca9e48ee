package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wordslayer/internal/database"
	"wordslayer/internal/models"
)

const proverbColumns = `id, proverb, explanation, created_at`

// ProverbRepository handles the proverb catalog and each user's position in it
type ProverbRepository struct {
	db database.DBTX
}

// NewProverbRepository creates a new proverb repository
func NewProverbRepository(db database.DBTX) *ProverbRepository {
	return &ProverbRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ProverbRepository) WithTx(tx database.DBTX) *ProverbRepository {
	return &ProverbRepository{db: tx}
}

// Add inserts a proverb and reports whether it was new. A proverb whose
// text is already stored is left untouched.
func (r *ProverbRepository) Add(ctx context.Context, p *models.Proverb) (bool, error) {
	query := r.db.GetDialect().InsertIgnore(`
		INSERT INTO proverbs (proverb, explanation, created_at)
		VALUES (?, ?, ?)`)
	res, err := r.db.ExecContext(ctx, query, p.Proverb, p.Explanation, p.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to add proverb: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add proverb: %w", err)
	}
	return n > 0, nil
}

// List returns every proverb in id order
func (r *ProverbRepository) List(ctx context.Context) ([]models.Proverb, error) {
	query := `SELECT ` + proverbColumns + ` FROM proverbs ORDER BY id`

	var out []models.Proverb
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("failed to list proverbs: %w", err)
	}
	return out, nil
}

// NextAfter returns the proverb with the smallest id above id, or nil
func (r *ProverbRepository) NextAfter(ctx context.Context, id int64) (*models.Proverb, error) {
	query := `SELECT ` + proverbColumns + ` FROM proverbs WHERE id > ? ORDER BY id LIMIT 1`

	var p models.Proverb
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get next proverb: %w", err)
	}
	return &p, nil
}

// LastShown returns the id of the proverb shown to the user most recently,
// or 0 when nothing was shown yet
func (r *ProverbRepository) LastShown(ctx context.Context, userID int64) (int64, error) {
	var id int64
	query := `SELECT last_proverb_id FROM user_proverb_seqs WHERE user_id = ?`
	if err := r.db.GetContext(ctx, &id, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get proverb position: %w", err)
	}
	return id, nil
}

// SetLastShown records the proverb shown to the user
func (r *ProverbRepository) SetLastShown(ctx context.Context, userID, proverbID int64) error {
	insert := r.db.GetDialect().InsertIgnore(`
		INSERT INTO user_proverb_seqs (user_id, last_proverb_id) VALUES (?, ?)`)
	if _, err := r.db.ExecContext(ctx, insert, userID, proverbID); err != nil {
		return fmt.Errorf("failed to set proverb position: %w", err)
	}
	update := `UPDATE user_proverb_seqs SET last_proverb_id = ? WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, update, proverbID, userID); err != nil {
		return fmt.Errorf("failed to set proverb position: %w", err)
	}
	return nil
}
