package service

import (
	"context"
	"time"

	"wordslayer/internal/database"
	"wordslayer/internal/logger"
	"wordslayer/internal/models"
	"wordslayer/internal/repository"
)

// WeeklyIncorrectBatcher collects the words answered incorrectly this week
// into one IW_ batch per pair
type WeeklyIncorrectBatcher struct {
	db       *database.DB
	records  *repository.StudyRecordRepository
	batches  *repository.BatchRepository
	calendar *Calendar
	log      *logger.Logger
}

// NewWeeklyIncorrectBatcher creates the weekly incorrect word job
func NewWeeklyIncorrectBatcher(db *database.DB, calendar *Calendar, log *logger.Logger) *WeeklyIncorrectBatcher {
	return &WeeklyIncorrectBatcher{
		db:       db,
		records:  repository.NewStudyRecordRepository(db),
		batches:  repository.NewBatchRepository(db),
		calendar: calendar,
		log:      log.With("job", "weekly_incorrect_batcher"),
	}
}

// Run updates this week's batch of every pair, one transaction per pair
func (j *WeeklyIncorrectBatcher) Run(ctx context.Context) error {
	pairs, err := j.records.ListPairs(ctx)
	if err != nil {
		return err
	}

	start, end := j.calendar.WeekBounds(j.calendar.Now())
	batchNo := j.calendar.WeeklyBatchNo(start)

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.batchPair(ctx, pair, batchNo, start, end); err != nil {
			j.log.Error("Failed to update weekly batch", "user_id", pair.UserID, "word_bank_id", pair.WordBankID,
				"batch", batchNo, "error", err)
		}
	}
	return nil
}

func (j *WeeklyIncorrectBatcher) batchPair(ctx context.Context, pair repository.UserBankPair, batchNo string, start, end time.Time) error {
	return j.db.RunInTx(ctx, func(tx *database.Tx) error {
		words, err := j.records.WithTx(tx).ListIncorrectWordsCreatedBetween(ctx, pair.UserID, pair.WordBankID, start, end)
		if err != nil {
			return err
		}

		batches := j.batches.WithTx(tx)
		b, err := batches.GetByBatchNo(ctx, pair.UserID, pair.WordBankID, batchNo)
		if err != nil {
			return err
		}

		now := j.calendar.Now()
		if b == nil {
			if len(words) == 0 {
				return nil
			}
			b = &models.BatchRecord{
				UserID:     pair.UserID,
				WordBankID: pair.WordBankID,
				BatchNo:    batchNo,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			b.Append(words)
			j.log.Info("Weekly batch created", "user_id", pair.UserID, "word_bank_id", pair.WordBankID,
				"batch", batchNo, "words", len(words))
			return batches.Create(ctx, b)
		}

		added := b.Append(words)
		if added == 0 {
			return nil
		}
		j.log.Info("Weekly batch extended", "user_id", pair.UserID, "word_bank_id", pair.WordBankID,
			"batch", batchNo, "added", added)
		return batches.Save(ctx, b, now)
	})
}
