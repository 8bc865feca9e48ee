package repository

import (
	"context"
	"fmt"

	"wordslayer/internal/database"
	"wordslayer/internal/models"
)

// AwardRepository handles the award catalog and user award holdings
type AwardRepository struct {
	db database.DBTX
}

// NewAwardRepository creates a new award repository
func NewAwardRepository(db database.DBTX) *AwardRepository {
	return &AwardRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AwardRepository) WithTx(tx database.DBTX) *AwardRepository {
	return &AwardRepository{db: tx}
}

// ListCatalog returns every catalog award ordered by type and id
func (r *AwardRepository) ListCatalog(ctx context.Context) ([]models.Award, error) {
	query := `
		SELECT id, award_type, name, description, image_path, video_path, algo_type, algo_value, init_unlocked
		FROM awards
		ORDER BY award_type, id
	`
	var awards []models.Award
	if err := r.db.SelectContext(ctx, &awards, query); err != nil {
		return nil, fmt.Errorf("failed to list award catalog: %w", err)
	}
	return awards, nil
}

// CountUserAwards returns how many award rows a pair holds
func (r *AwardRepository) CountUserAwards(ctx context.Context, userID, wordBankID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_word_bank_awards WHERE user_id = ? AND word_bank_id = ?`
	if err := r.db.GetContext(ctx, &count, query, userID, wordBankID); err != nil {
		return 0, fmt.Errorf("failed to count user awards: %w", err)
	}
	return count, nil
}

// SeedUserAwards creates one holding per catalog award
func (r *AwardRepository) SeedUserAwards(ctx context.Context, userID, wordBankID int64, catalog []models.Award) error {
	query := `
		INSERT INTO user_word_bank_awards (user_id, word_bank_id, award_id, num, is_unlocked)
		VALUES (?, ?, ?, 0, ?)
	`
	for _, award := range catalog {
		if _, err := r.db.ExecContext(ctx, query, userID, wordBankID, award.ID, award.InitUnlocked); err != nil {
			return fmt.Errorf("failed to seed user award %d: %w", award.ID, err)
		}
	}
	return nil
}

// ListUserAwards returns a pair's holdings joined with the catalog, ordered by type and award id
func (r *AwardRepository) ListUserAwards(ctx context.Context, userID, wordBankID int64) ([]*models.UserAward, error) {
	query := `
		SELECT ua.id, ua.user_id, ua.word_bank_id, ua.award_id, ua.num, ua.is_unlocked,
		       a.award_type, a.name, a.description, a.image_path, a.video_path, a.algo_type, a.algo_value
		FROM user_word_bank_awards ua
		JOIN awards a ON a.id = ua.award_id
		WHERE ua.user_id = ? AND ua.word_bank_id = ?
		ORDER BY a.award_type, a.id
	`
	var awards []*models.UserAward
	if err := r.db.SelectContext(ctx, &awards, query, userID, wordBankID); err != nil {
		return nil, fmt.Errorf("failed to list user awards: %w", err)
	}
	return awards, nil
}

// SaveHoldings writes num and unlock state of each holding.
// Unlocking is monotonic: a stored unlock is never cleared here.
func (r *AwardRepository) SaveHoldings(ctx context.Context, awards []*models.UserAward) error {
	query := `
		UPDATE user_word_bank_awards
		SET num = ?, is_unlocked = (is_unlocked OR ?)
		WHERE id = ?
	`
	for _, a := range awards {
		if _, err := r.db.ExecContext(ctx, query, a.Num, a.IsUnlocked, a.ID); err != nil {
			return fmt.Errorf("failed to save user award %d: %w", a.ID, err)
		}
	}
	return nil
}
