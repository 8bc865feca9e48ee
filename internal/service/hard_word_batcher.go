package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wordslayer/internal/database"
	"wordslayer/internal/logger"
	"wordslayer/internal/models"
	"wordslayer/internal/notify"
	"wordslayer/internal/repository"
)

// HardWordBatcher groups words answered incorrectly too often into HW_ batches
type HardWordBatcher struct {
	db         *database.DB
	records    *repository.StudyRecordRepository
	batches    *repository.BatchRepository
	notifier   notify.Notifier
	calendar   *Calendar
	batchSize  int
	faultCount int
	log        *logger.Logger
}

// NewHardWordBatcher creates the hard word job
func NewHardWordBatcher(db *database.DB, calendar *Calendar, notifier notify.Notifier, batchSize, faultCount int, log *logger.Logger) *HardWordBatcher {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &HardWordBatcher{
		db:         db,
		records:    repository.NewStudyRecordRepository(db),
		batches:    repository.NewBatchRepository(db),
		notifier:   notifier,
		calendar:   calendar,
		batchSize:  batchSize,
		faultCount: faultCount,
		log:        log.With("job", "hard_word_batcher"),
	}
}

// Run updates the HW batches of every pair in one transaction. Each pair runs
// in its own savepoint so a failing pair leaves no partial writes behind. A
// cancelled ctx stops the pair loop and commits what was computed so far.
func (j *HardWordBatcher) Run(ctx context.Context) error {
	var events []notify.BatchEvent
	txCtx := context.WithoutCancel(ctx)

	err := j.db.RunInTx(txCtx, func(tx *database.Tx) error {
		pairs, err := j.records.WithTx(tx).ListPairs(txCtx)
		if err != nil {
			return err
		}
		for i, pair := range pairs {
			if ctx.Err() != nil {
				j.log.Warn("Hard word run interrupted", "remaining_pairs", len(pairs)-i)
				break
			}
			var pairEvents []notify.BatchEvent
			err := tx.RunInSavepoint(txCtx, "hard_word_pair", func() error {
				var err error
				pairEvents, err = j.batchPair(txCtx, tx, pair)
				return err
			})
			if errors.Is(err, repository.ErrVersionConflict) {
				return err
			}
			if err != nil {
				j.log.Error("Failed to batch hard words", "user_id", pair.UserID, "word_bank_id", pair.WordBankID, "error", err)
				continue
			}
			events = append(events, pairEvents...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("hard word run rolled back: %w", err)
	}

	for _, ev := range events {
		if err := j.notifier.NotifyBatch(txCtx, ev); err != nil {
			j.log.Warn("Failed to notify batch", "batch", ev.BatchNo, "user_id", ev.UserID, "error", err)
		}
	}
	j.log.Info("Hard word run finished", "batches_touched", len(events))
	return nil
}

func (j *HardWordBatcher) batchPair(ctx context.Context, tx *database.Tx, pair repository.UserBankPair) ([]notify.BatchEvent, error) {
	hard, err := j.records.WithTx(tx).ListHardWords(ctx, pair.UserID, pair.WordBankID, j.faultCount, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(hard) == 0 {
		return nil, nil
	}

	batches := j.batches.WithTx(tx)
	existing, err := batches.ListByPrefix(ctx, pair.UserID, pair.WordBankID, models.HardWordBatchPrefix)
	if err != nil {
		return nil, err
	}
	batched := make(map[string]bool)
	for _, b := range existing {
		for _, w := range b.Words {
			batched[w.Word] = true
		}
	}
	pending := make([]string, 0, len(hard))
	for _, w := range hard {
		if !batched[w] {
			pending = append(pending, w)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	var last *models.BatchRecord
	if len(existing) > 0 {
		last = &existing[len(existing)-1]
	}
	plan := PlanHardWordBatches(last, pending, j.batchSize)

	now := j.calendar.Now()
	var events []notify.BatchEvent
	if len(plan.Fill) > 0 {
		last.Append(plan.Fill)
		if err := batches.Save(ctx, last, now); err != nil {
			return nil, err
		}
		events = append(events, notify.BatchEvent{
			UserID: pair.UserID, WordBankID: pair.WordBankID, BatchNo: last.BatchNo, Added: plan.Fill,
		})
	}

	for i, chunk := range plan.Chunks {
		b := &models.BatchRecord{
			UserID:     pair.UserID,
			WordBankID: pair.WordBankID,
			BatchNo:    fmt.Sprintf("%s%d", models.HardWordBatchPrefix, plan.NextSeq+i),
			Capacity:   j.batchSize,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		b.Append(chunk)
		if err := batches.Create(ctx, b); err != nil {
			return nil, err
		}
		events = append(events, notify.BatchEvent{
			UserID: pair.UserID, WordBankID: pair.WordBankID, BatchNo: b.BatchNo, Created: true, Added: chunk,
		})
	}
	return events, nil
}

// HardWordPlan says how pending hard words are distributed
type HardWordPlan struct {
	// Fill goes into the last existing batch
	Fill []string
	// Chunks become new batches numbered from NextSeq
	Chunks  [][]string
	NextSeq int
}

// PlanHardWordBatches fills the last batch up to its own capacity and splits
// the rest into new batches of at most size words. A last batch without a
// stored capacity is filled up to size.
func PlanHardWordBatches(last *models.BatchRecord, words []string, size int) HardWordPlan {
	plan := HardWordPlan{NextSeq: 1}
	if size <= 0 || len(words) == 0 {
		return plan
	}

	if last != nil {
		plan.NextSeq = last.Sequence() + 1
		free := last.Free()
		if free < 0 {
			free = size - len(last.Words)
		}
		if free > 0 {
			n := min(free, len(words))
			plan.Fill = words[:n]
			words = words[n:]
		}
	}

	for len(words) > 0 {
		n := min(size, len(words))
		plan.Chunks = append(plan.Chunks, words[:n])
		words = words[n:]
	}
	return plan
}
