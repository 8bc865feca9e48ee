package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"wordslayer/internal/database"
	"wordslayer/internal/export"
	"wordslayer/internal/logger"
	"wordslayer/internal/models"
	"wordslayer/internal/repository"
)

const batchNameLayout = "20060102150405"

// BatchService manages study batches on behalf of a learner
type BatchService struct {
	db         *database.DB
	batches    *repository.BatchRepository
	words      *repository.UserWordRepository
	records    *repository.StudyRecordRepository
	calendar   *Calendar
	faultCount int
	log        *logger.Logger
}

// NewBatchService creates a batch service. faultCount is the number of
// incorrect answers that makes a word hard.
func NewBatchService(db *database.DB, calendar *Calendar, faultCount int, log *logger.Logger) *BatchService {
	return &BatchService{
		db:         db,
		batches:    repository.NewBatchRepository(db),
		words:      repository.NewUserWordRepository(db),
		records:    repository.NewStudyRecordRepository(db),
		calendar:   calendar,
		faultCount: faultCount,
		log:        log,
	}
}

// CreateBatch creates an unbounded batch named after the current local time.
// When the pair already has a batch with that name a -2, -3, ... suffix is
// added until the name is free.
func (s *BatchService) CreateBatch(ctx context.Context, userID, wordBankID int64, words []string) (*models.BatchRecord, error) {
	now := s.calendar.Now()
	b := &models.BatchRecord{
		UserID:     userID,
		WordBankID: wordBankID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Append(words)
	b.IsFinished = len(b.Words) == 0

	base := now.In(s.calendar.Location()).Format(batchNameLayout)
	err := s.db.RunInTx(ctx, func(tx *database.Tx) error {
		repo := s.batches.WithTx(tx)
		name := base
		for n := 2; ; n++ {
			taken, err := repo.GetByBatchNo(ctx, userID, wordBankID, name)
			if err != nil {
				return err
			}
			if taken == nil {
				break
			}
			name = fmt.Sprintf("%s-%d", base, n)
		}
		b.BatchNo = name
		return repo.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Batch created", "user_id", userID, "word_bank_id", wordBankID, "batch", b.BatchNo, "words", len(b.Words))
	return b, nil
}

// ListBatches returns hard-word batches first, then every other batch, each
// group newest first
func (s *BatchService) ListBatches(ctx context.Context, userID, wordBankID int64) ([]models.BatchSummary, error) {
	all, err := s.batches.List(ctx, userID, wordBankID)
	if err != nil {
		return nil, err
	}

	hard := make([]models.BatchSummary, 0, len(all))
	rest := make([]models.BatchSummary, 0, len(all))
	for _, b := range all {
		summary := models.BatchSummary{BatchRecord: b, WordCount: len(b.Words)}
		if strings.HasPrefix(b.BatchNo, models.HardWordBatchPrefix) {
			hard = append(hard, summary)
		} else {
			rest = append(rest, summary)
		}
	}
	return append(hard, rest...), nil
}

// GetBatch returns a batch owned by the pair
func (s *BatchService) GetBatch(ctx context.Context, userID, wordBankID, batchID int64) (*models.BatchRecord, error) {
	return s.owned(ctx, s.batches, userID, wordBankID, batchID)
}

func (s *BatchService) owned(ctx context.Context, repo *repository.BatchRepository, userID, wordBankID, batchID int64) (*models.BatchRecord, error) {
	b, err := repo.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b == nil || b.UserID != userID || b.WordBankID != wordBankID {
		return nil, fmt.Errorf("batch %d: %w", batchID, ErrBatchNotFound)
	}
	return b, nil
}

// SetBatchWords replaces the words of a batch. Words kept from the previous
// list keep their progress.
func (s *BatchService) SetBatchWords(ctx context.Context, userID, wordBankID, batchID int64, words []string) error {
	return s.db.RunInTx(ctx, func(tx *database.Tx) error {
		repo := s.batches.WithTx(tx)
		b, err := s.owned(ctx, repo, userID, wordBankID, batchID)
		if err != nil {
			return err
		}

		progress := make(map[string]bool, len(b.Words))
		for _, w := range b.Words {
			progress[w.Word] = w.IsMemorized
		}

		next := make(models.BatchWords, 0, len(words))
		seen := make(map[string]bool, len(words))
		finished := true
		for _, word := range words {
			if word == "" || seen[word] {
				continue
			}
			seen[word] = true
			next = append(next, models.BatchWord{Word: word, IsMemorized: progress[word]})
			if !progress[word] {
				finished = false
			}
		}
		b.Words = next
		b.IsFinished = finished
		return repo.Save(ctx, b, s.calendar.Now())
	})
}

// ResetBatchStatus marks every word of a batch unmemorized again.
// A batch that does not exist is ignored.
func (s *BatchService) ResetBatchStatus(ctx context.Context, userID, wordBankID, batchID int64) error {
	return s.db.RunInTx(ctx, func(tx *database.Tx) error {
		repo := s.batches.WithTx(tx)
		b, err := repo.Get(ctx, batchID)
		if err != nil {
			return err
		}
		if b == nil || b.UserID != userID || b.WordBankID != wordBankID {
			s.log.Warn("Reset of unknown batch ignored", "user_id", userID, "word_bank_id", wordBankID, "batch_id", batchID)
			return nil
		}
		b.ResetProgress()
		return repo.Save(ctx, b, s.calendar.Now())
	})
}

// GetHardWordsSince returns the hard words counting only answers given on or
// after the local date (YYYY-MM-DD)
func (s *BatchService) GetHardWordsSince(ctx context.Context, userID, wordBankID int64, date string) ([]string, error) {
	since, err := s.calendar.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidDate, date, err)
	}
	words, err := s.records.ListHardWords(ctx, userID, wordBankID, s.faultCount, since)
	if err != nil {
		return nil, err
	}
	if words == nil {
		words = []string{}
	}
	return words, nil
}

// ExportBatch writes the batch as an .xlsx workbook to w
func (s *BatchService) ExportBatch(ctx context.Context, userID, wordBankID, batchID int64, w io.Writer) (*models.BatchRecord, error) {
	b, err := s.GetBatch(ctx, userID, wordBankID, batchID)
	if err != nil {
		return nil, err
	}
	if err := s.WriteWorkbook(ctx, b, w); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteWorkbook renders any batch with the current status and tags of its words
func (s *BatchService) WriteWorkbook(ctx context.Context, b *models.BatchRecord, w io.Writer) error {
	live, err := s.words.ListByWords(ctx, b.UserID, b.WordBankID, b.WordList())
	if err != nil {
		return err
	}
	byWord := make(map[string]models.UserWord, len(live))
	for _, uw := range live {
		byWord[uw.Word] = uw
	}

	rows := make([]export.Row, 0, len(b.Words))
	for _, bw := range b.Words {
		row := export.Row{Word: bw.Word, Memorized: bw.IsMemorized, Status: models.WordStatusWait}
		if uw, ok := byWord[bw.Word]; ok {
			row.Status = uw.WordStatus
			row.Tags = uw.Tags
		}
		rows = append(rows, row)
	}
	return export.WriteBatch(w, b, rows)
}
