package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wordslayer/internal/database"
	"wordslayer/internal/models"
)

// ErrVersionConflict is returned when a batch changed since it was read
var ErrVersionConflict = errors.New("batch was modified concurrently")

const batchColumns = `id, user_id, word_bank_id, batch_no, words, is_finished, capacity, version, created_at, updated_at`

// BatchRepository handles study batch database operations
type BatchRepository struct {
	db database.DBTX
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db database.DBTX) *BatchRepository {
	return &BatchRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *BatchRepository) WithTx(tx database.DBTX) *BatchRepository {
	return &BatchRepository{db: tx}
}

// Create inserts a batch and sets its ID and version
func (r *BatchRepository) Create(ctx context.Context, b *models.BatchRecord) error {
	query := `
		INSERT INTO study_batch_records
			(user_id, word_bank_id, batch_no, words, is_finished, capacity, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		b.UserID, b.WordBankID, b.BatchNo, b.Words, b.IsFinished, b.Capacity, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create batch %s: %w", b.BatchNo, err)
	}
	b.ID = id
	b.Version = 1
	return nil
}

// Save writes words and the finished flag when the stored version still matches.
// It returns ErrVersionConflict otherwise.
func (r *BatchRepository) Save(ctx context.Context, b *models.BatchRecord, now time.Time) error {
	query := `
		UPDATE study_batch_records
		SET words = ?, is_finished = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := r.db.ExecContext(ctx, query, b.Words, b.IsFinished, now, b.ID, b.Version)
	if err != nil {
		return fmt.Errorf("failed to save batch %d: %w", b.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save batch %d: %w", b.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("batch %d: %w", b.ID, ErrVersionConflict)
	}
	b.Version++
	b.UpdatedAt = now
	return nil
}

// Get returns a batch by id, or nil
func (r *BatchRepository) Get(ctx context.Context, id int64) (*models.BatchRecord, error) {
	query := `SELECT ` + batchColumns + ` FROM study_batch_records WHERE id = ?`

	var b models.BatchRecord
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &b, nil
}

// GetByBatchNo returns the batch of a pair with the given name, or nil
func (r *BatchRepository) GetByBatchNo(ctx context.Context, userID, wordBankID int64, batchNo string) (*models.BatchRecord, error) {
	query := `SELECT ` + batchColumns + ` FROM study_batch_records
		WHERE user_id = ? AND word_bank_id = ? AND batch_no = ?`

	var b models.BatchRecord
	if err := r.db.GetContext(ctx, &b, query, userID, wordBankID, batchNo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch %s: %w", batchNo, err)
	}
	return &b, nil
}

// List returns every batch of a pair, newest id first
func (r *BatchRepository) List(ctx context.Context, userID, wordBankID int64) ([]models.BatchRecord, error) {
	query := `SELECT ` + batchColumns + ` FROM study_batch_records
		WHERE user_id = ? AND word_bank_id = ?
		ORDER BY id DESC`

	var batches []models.BatchRecord
	if err := r.db.SelectContext(ctx, &batches, query, userID, wordBankID); err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// ListByPrefix returns the batches of a pair whose name starts with prefix,
// oldest first
func (r *BatchRepository) ListByPrefix(ctx context.Context, userID, wordBankID int64, prefix string) ([]models.BatchRecord, error) {
	query := `SELECT ` + batchColumns + ` FROM study_batch_records
		WHERE user_id = ? AND word_bank_id = ? AND batch_no LIKE ?
		ORDER BY created_at, id`

	var rows []models.BatchRecord
	if err := r.db.SelectContext(ctx, &rows, query, userID, wordBankID, prefix+"%"); err != nil {
		return nil, fmt.Errorf("failed to list %s batches: %w", prefix, err)
	}

	// LIKE treats "_" as a wildcard
	batches := rows[:0]
	for _, b := range rows {
		if strings.HasPrefix(b.BatchNo, prefix) {
			batches = append(batches, b)
		}
	}
	return batches, nil
}
