package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"wordslayer/internal/database"
	"wordslayer/internal/logger"
	"wordslayer/internal/models"
	"wordslayer/internal/repository"
)

// Outcome tells the caller what SelectNext produced
type Outcome string

const (
	// OutcomeTask means a word was served
	OutcomeTask Outcome = "task"
	// OutcomeCompleted means no word is waiting or in progress
	OutcomeCompleted Outcome = "completed"
	// OutcomeEmpty means every candidate was already answered today
	OutcomeEmpty Outcome = "empty"
)

// SelectOptions narrows the word selection
type SelectOptions struct {
	Tag     string
	BatchID *int64
}

// Task is the next word to study
type Task struct {
	Outcome    Outcome           `json:"outcome"`
	SeqID      string            `json:"seq_id,omitempty"`
	Word       string            `json:"word,omitempty"`
	MaskedWord string            `json:"masked_word,omitempty"`
	WordStatus models.WordStatus `json:"word_status"`
}

// AnswerInput is a learner's answer to a served task
type AnswerInput struct {
	SeqID  string             `json:"seq_id"`
	Word   string             `json:"word"`
	Items  models.AnswerItems `json:"answer_info"`
	Result models.StudyResult `json:"study_result"`
}

// AnswerResult is returned after an answer is recorded
type AnswerResult struct {
	Word       string                   `json:"word"`
	IsMastered bool                     `json:"is_mastered"`
	Result     models.StudyResult       `json:"study_result"`
	Awards     []models.IncentiveResult `json:"awards"`
}

// TagAction selects how SetWordTags combines tags
type TagAction int

const (
	TagAdd    TagAction = 1
	TagRemove TagAction = 2
)

// RecordDay groups answered attempts of one local date
type RecordDay struct {
	Date    string               `json:"date"`
	Records []models.StudyRecord `json:"records"`
}

// HardWordAttempt is one answered attempt of a hard word
type HardWordAttempt struct {
	RecordDate  string             `json:"record_date"`
	StudyResult models.StudyResult `json:"study_result"`
	AnswerInfo  models.AnswerItems `json:"answer_info"`
}

// HardWordReport lists the attempts of a word answered incorrectly too often
type HardWordReport struct {
	Word     string            `json:"word"`
	Attempts []HardWordAttempt `json:"attempts"`
}

// PhraseJudge grades free-form phrase answers
type PhraseJudge interface {
	Judge(ctx context.Context, phrase, answer string) (bool, error)
}

// StudyService serves words, records answers and reports progress
type StudyService struct {
	db        *database.DB
	words     *repository.UserWordRepository
	records   *repository.StudyRecordRepository
	batches   *repository.BatchRepository
	prefs     *repository.PreferenceRepository
	mastery   *MasteryEvaluator
	incentive *IncentiveService
	calendar  *Calendar
	judge     PhraseJudge
	log       *logger.Logger
	newSeqID  func() string
}

// NewStudyService creates a study service. judge may be nil.
func NewStudyService(db *database.DB, incentive *IncentiveService, calendar *Calendar, judge PhraseJudge, log *logger.Logger) *StudyService {
	records := repository.NewStudyRecordRepository(db)
	return &StudyService{
		db:        db,
		words:     repository.NewUserWordRepository(db),
		records:   records,
		batches:   repository.NewBatchRepository(db),
		prefs:     repository.NewPreferenceRepository(db),
		mastery:   NewMasteryEvaluator(records),
		incentive: incentive,
		calendar:  calendar,
		judge:     judge,
		log:       log,
		newSeqID:  uuid.NewString,
	}
}

// SelectNext picks the word the learner studies next and opens an attempt for it
func (s *StudyService) SelectNext(ctx context.Context, userID, wordBankID int64, opts SelectOptions) (*Task, error) {
	var task *Task
	err := s.db.RunInTx(ctx, func(tx *database.Tx) error {
		if opts.BatchID != nil {
			t, err := s.selectFromBatch(ctx, tx, userID, wordBankID, *opts.BatchID)
			if err != nil {
				return err
			}
			if t != nil {
				task = t
				return nil
			}
		}

		t, err := s.selectFromOrigin(ctx, tx, userID, wordBankID, opts.Tag)
		if err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// selectFromBatch returns nil when the batch has nothing left to serve
func (s *StudyService) selectFromBatch(ctx context.Context, tx *database.Tx, userID, wordBankID, batchID int64) (*Task, error) {
	batches := s.batches.WithTx(tx)
	batch, err := batches.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil || batch.UserID != userID || batch.WordBankID != wordBankID {
		return nil, fmt.Errorf("batch %d: %w", batchID, ErrBatchNotFound)
	}
	if batch.IsFinished {
		return nil, nil
	}

	start, end := s.calendar.Today()
	attempted, err := s.records.WithTx(tx).ListWordsCreatedBetween(ctx, userID, wordBankID, start, end)
	if err != nil {
		return nil, err
	}
	word, ok := batch.ConsumeNext(toSet(attempted))
	if err := batches.Save(ctx, batch, s.calendar.Now()); err != nil {
		return nil, err
	}
	if !ok {
		s.log.Debug("Batch exhausted for today", "user_id", userID, "word_bank_id", wordBankID, "batch", batch.BatchNo)
		return nil, nil
	}
	return s.openAttempt(ctx, tx, userID, wordBankID, word)
}

func (s *StudyService) selectFromOrigin(ctx context.Context, tx *database.Tx, userID, wordBankID int64, tag string) (*Task, error) {
	records := s.records.WithTx(tx)
	open, err := records.GetOpen(ctx, userID, wordBankID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return s.taskFor(ctx, tx, open)
	}

	candidates, err := s.words.WithTx(tx).ListByStatus(ctx, userID, wordBankID,
		models.WordStatusWait, models.WordStatusInProgress)
	if err != nil {
		return nil, err
	}
	if tag != "" {
		filtered := candidates[:0]
		for _, uw := range candidates {
			if uw.Tags.Contains(tag) {
				filtered = append(filtered, uw)
			}
		}
		candidates = filtered
	}
	if len(candidates) == 0 {
		return &Task{Outcome: OutcomeCompleted}, nil
	}

	start, end := s.calendar.Today()
	answered, err := records.ListWordsAnsweredBetween(ctx, userID, wordBankID, start, end)
	if err != nil {
		return nil, err
	}
	done := toSet(answered)
	for _, uw := range candidates {
		if !done[uw.Word] {
			return s.openAttempt(ctx, tx, userID, wordBankID, uw.Word)
		}
	}
	return &Task{Outcome: OutcomeEmpty}, nil
}

func (s *StudyService) openAttempt(ctx context.Context, tx *database.Tx, userID, wordBankID int64, word string) (*Task, error) {
	now := s.calendar.Now()
	rec := &models.StudyRecord{
		UserID:     userID,
		WordBankID: wordBankID,
		Word:       word,
		SeqID:      s.newSeqID(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.records.WithTx(tx).Create(ctx, rec); err != nil {
		return nil, err
	}
	return s.taskFor(ctx, tx, rec)
}

func (s *StudyService) taskFor(ctx context.Context, tx *database.Tx, rec *models.StudyRecord) (*Task, error) {
	status := models.WordStatusWait
	uw, err := s.words.WithTx(tx).Get(ctx, rec.UserID, rec.WordBankID, rec.Word)
	if err != nil {
		return nil, err
	}
	if uw != nil {
		status = uw.WordStatus
	}
	return &Task{
		Outcome:    OutcomeTask,
		SeqID:      rec.SeqID,
		Word:       rec.Word,
		MaskedWord: models.MaskWord(rec.Word, status),
		WordStatus: status,
	}, nil
}

// SubmitAnswer closes an open attempt, updates mastery and applies incentives,
// all in one transaction
func (s *StudyService) SubmitAnswer(ctx context.Context, userID, wordBankID int64, in AnswerInput) (*AnswerResult, error) {
	var result *AnswerResult
	err := s.db.RunInTx(ctx, func(tx *database.Tx) error {
		records := s.records.WithTx(tx)
		rec, err := records.GetBySeqID(ctx, in.SeqID)
		if err != nil {
			return err
		}
		if rec == nil || rec.UserID != userID || rec.WordBankID != wordBankID {
			return fmt.Errorf("seq %s: %w", in.SeqID, ErrAttemptNotFound)
		}
		if rec.Word != in.Word {
			return fmt.Errorf("seq %s: %w", in.SeqID, ErrWordMismatch)
		}

		now := s.calendar.Now()
		closed, err := records.Close(ctx, rec, in.Result, in.Items, now)
		if err != nil {
			return err
		}
		if !closed {
			return fmt.Errorf("seq %s: %w", in.SeqID, ErrAttemptClosed)
		}

		status, err := s.mastery.Evaluate(ctx, tx, userID, wordBankID, rec.Word, in.Result)
		if err != nil {
			return err
		}
		if err := records.SetStatusSnapshot(ctx, rec.SeqID, status, now); err != nil {
			return err
		}
		if err := s.words.WithTx(tx).UpdateStatus(ctx, userID, wordBankID, rec.Word, status, now); err != nil {
			return err
		}

		result = &AnswerResult{
			Word:       rec.Word,
			IsMastered: status == models.WordStatusMastered,
			Result:     in.Result,
			Awards:     []models.IncentiveResult{},
		}
		if in.Result != models.StudyResultCorrect {
			return nil
		}

		ratios, err := s.ratios(ctx, tx, userID, wordBankID)
		if err != nil {
			return err
		}
		awards, err := s.incentive.Apply(ctx, tx, userID, wordBankID, ratios)
		if err != nil {
			return err
		}
		result.Awards = awards
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetStatusStats counts a pair's words by status
func (s *StudyService) GetStatusStats(ctx context.Context, userID, wordBankID int64) (models.StatusStats, error) {
	return s.words.StatusStats(ctx, userID, wordBankID)
}

// GetMasteryRatios returns the memorized and slained ratios of a pair
func (s *StudyService) GetMasteryRatios(ctx context.Context, userID, wordBankID int64) (models.Ratios, error) {
	return s.ratios(ctx, s.db, userID, wordBankID)
}

func (s *StudyService) ratios(ctx context.Context, q database.DBTX, userID, wordBankID int64) (models.Ratios, error) {
	stats, err := s.words.WithTx(q).StatusStats(ctx, userID, wordBankID)
	if err != nil {
		return models.Ratios{}, err
	}
	return RatiosFromStats(stats), nil
}

// RatiosFromStats computes the progress ratios rounded to 4 decimals
func RatiosFromStats(stats models.StatusStats) models.Ratios {
	if stats.Total == 0 {
		return models.Ratios{}
	}
	total := float64(stats.Total)
	return models.Ratios{
		Memorized: roundTo(float64(stats.InProgress+stats.Mastered)/total, 4),
		Slained:   roundTo(float64(stats.Mastered)/total, 4),
	}
}

// SwitchWordBank makes a bank the learner's current one, seeding their words,
// awards and profile the first time
func (s *StudyService) SwitchWordBank(ctx context.Context, userID, wordBankID int64, seeds []models.WordSeed) error {
	return s.db.RunInTx(ctx, func(tx *database.Tx) error {
		words := s.words.WithTx(tx)
		count, err := words.Count(ctx, userID, wordBankID)
		if err != nil {
			return err
		}
		if count == 0 && len(seeds) > 0 {
			if err := words.BulkCreate(ctx, userID, wordBankID, dedupeSeeds(seeds), s.calendar.Now()); err != nil {
				return err
			}
			s.log.Info("Seeded word bank", "user_id", userID, "word_bank_id", wordBankID, "words", len(seeds))
		}
		if err := s.prefs.WithTx(tx).SetCurrentWordBank(ctx, userID, wordBankID, s.calendar.Now()); err != nil {
			return err
		}
		return s.incentive.InitIncentive(ctx, tx, userID, wordBankID)
	})
}

// CurrentWordBank returns the word bank the learner switched to last
func (s *StudyService) CurrentWordBank(ctx context.Context, userID int64) (int64, error) {
	pref, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if pref == nil || pref.CurrentWordBankID == nil {
		return 0, fmt.Errorf("user %d: %w", userID, ErrNoCurrentBank)
	}
	return *pref.CurrentWordBankID, nil
}

func dedupeSeeds(seeds []models.WordSeed) []models.WordSeed {
	seen := make(map[string]bool, len(seeds))
	out := make([]models.WordSeed, 0, len(seeds))
	for _, seed := range seeds {
		if seed.Word == "" || seen[seed.Word] {
			continue
		}
		seen[seed.Word] = true
		out = append(out, seed)
	}
	return out
}

// SetWordTags adds tags to, or removes tags from, the given words
func (s *StudyService) SetWordTags(ctx context.Context, userID, wordBankID int64, words, tags []string, action TagAction) error {
	if action != TagAdd && action != TagRemove {
		return fmt.Errorf("%d: %w", action, ErrInvalidTagAction)
	}
	return s.db.RunInTx(ctx, func(tx *database.Tx) error {
		repo := s.words.WithTx(tx)
		list, err := repo.ListByWords(ctx, userID, wordBankID, words)
		if err != nil {
			return err
		}
		for _, uw := range list {
			next := uw.Tags.Union(tags)
			if action == TagRemove {
				next = uw.Tags.Difference(tags)
			}
			if err := repo.UpdateTags(ctx, uw.ID, next); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUserWords returns a pair's words, optionally only those in one status
func (s *StudyService) ListUserWords(ctx context.Context, userID, wordBankID int64, status *models.WordStatus) ([]models.UserWord, error) {
	if status != nil {
		return s.words.ListByStatus(ctx, userID, wordBankID, *status)
	}
	return s.words.ListByStatus(ctx, userID, wordBankID)
}

// ListStudyRecords returns answered attempts grouped by local date, newest
// first. Without the snapshot the current word status replaces the stored one.
func (s *StudyService) ListStudyRecords(ctx context.Context, userID, wordBankID int64, useSnapshot bool) ([]RecordDay, error) {
	records, err := s.records.ListAnswered(ctx, userID, wordBankID)
	if err != nil {
		return nil, err
	}

	if !useSnapshot {
		words, err := s.words.ListByStatus(ctx, userID, wordBankID)
		if err != nil {
			return nil, err
		}
		live := make(map[string]models.WordStatus, len(words))
		for _, uw := range words {
			live[uw.Word] = uw.WordStatus
		}
		for i := range records {
			if st, ok := live[records[i].Word]; ok {
				records[i].WordStatus = &st
			}
		}
	}

	var days []RecordDay
	for _, rec := range records {
		date := s.calendar.DateKey(*rec.RecordTime)
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, RecordDay{Date: date})
		}
		last := &days[len(days)-1]
		last.Records = append(last.Records, rec)
	}
	return days, nil
}

// HardWordRecords reports the words answered incorrectly at least faultCount
// times with all their attempts, most attempted first
func (s *StudyService) HardWordRecords(ctx context.Context, userID, wordBankID int64, faultCount int) ([]HardWordReport, error) {
	hard, err := s.records.ListHardWords(ctx, userID, wordBankID, faultCount, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(hard) == 0 {
		return []HardWordReport{}, nil
	}

	records, err := s.records.ListAnswered(ctx, userID, wordBankID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(hard))
	reports := make([]HardWordReport, len(hard))
	for i, w := range hard {
		index[w] = i
		reports[i].Word = w
	}
	for _, rec := range records {
		i, ok := index[rec.Word]
		if !ok {
			continue
		}
		attempt := HardWordAttempt{
			RecordDate: s.calendar.DateKey(*rec.RecordTime),
			AnswerInfo: rec.AnswerInfo,
		}
		if rec.StudyResult != nil {
			attempt.StudyResult = *rec.StudyResult
		}
		reports[i].Attempts = append(reports[i].Attempts, attempt)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return len(reports[i].Attempts) > len(reports[j].Attempts)
	})
	return reports, nil
}

// JudgePhrase grades a phrase answer with the configured judge
func (s *StudyService) JudgePhrase(ctx context.Context, phrase, answer string) (bool, error) {
	if s.judge == nil {
		return false, ErrJudgeUnavailable
	}
	ok, err := s.judge.Judge(ctx, phrase, answer)
	if err != nil {
		return false, fmt.Errorf("failed to judge phrase: %w", err)
	}
	return ok, nil
}

// IsNotFound reports whether err is one of the not-found errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrProverbNotFound) ||
		errors.Is(err, ErrNoCurrentBank)
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
