package repository

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"wordslayer/internal/database"
	"wordslayer/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// answer creates an attempt for word and closes it at the given time
func answer(t *testing.T, repo *StudyRecordRepository, seq, word string, result models.StudyResult, at time.Time) {
	t.Helper()
	ctx := context.Background()
	rec := &models.StudyRecord{UserID: 1, WordBankID: 1, Word: word, SeqID: seq, CreatedAt: at, UpdatedAt: at}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	ok, err := repo.Close(ctx, rec, result, nil, at)
	if err != nil || !ok {
		t.Fatalf("Close() = %v, %v", ok, err)
	}
}

func TestStudyRecordLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudyRecordRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	rec := &models.StudyRecord{UserID: 1, WordBankID: 2, Word: "apple", SeqID: "seq-1", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	open, err := repo.GetOpen(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetOpen() error = %v", err)
	}
	if open == nil || open.SeqID != "seq-1" || !open.IsOpen() {
		t.Fatalf("GetOpen() = %+v, want open seq-1", open)
	}

	items := models.AnswerItems{{QuestionType: "word", Question: "a____", CorrectAnswer: "apple"}}
	ok, err := repo.Close(ctx, rec, models.StudyResultCorrect, items, now.Add(time.Minute))
	if err != nil || !ok {
		t.Fatalf("Close() = %v, %v, want true", ok, err)
	}

	ok, err = repo.Close(ctx, rec, models.StudyResultIncorrect, nil, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if ok {
		t.Error("second Close() = true, want false")
	}

	if err := repo.SetStatusSnapshot(ctx, "seq-1", models.WordStatusInProgress, now); err != nil {
		t.Fatalf("SetStatusSnapshot() error = %v", err)
	}

	got, err := repo.GetBySeqID(ctx, "seq-1")
	if err != nil {
		t.Fatalf("GetBySeqID() error = %v", err)
	}
	if got.IsOpen() || !got.IsCorrect() {
		t.Errorf("record open=%v correct=%v, want answered and correct", got.IsOpen(), got.IsCorrect())
	}
	if got.WordStatus == nil || *got.WordStatus != models.WordStatusInProgress {
		t.Errorf("WordStatus = %v, want IN_PROGRESS", got.WordStatus)
	}
	if len(got.AnswerInfo) != 1 || got.AnswerInfo[0].CorrectAnswer != "apple" {
		t.Errorf("AnswerInfo = %+v", got.AnswerInfo)
	}

	if open, _ := repo.GetOpen(ctx, 1, 2); open != nil {
		t.Errorf("GetOpen() after close = %+v, want nil", open)
	}
}

func TestStudyRecordQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudyRecordRepository(db)
	ctx := context.Background()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	answer(t, repo, "1", "apple", models.StudyResultIncorrect, day.Add(1*time.Hour))
	answer(t, repo, "2", "pear", models.StudyResultIncorrect, day.Add(2*time.Hour))
	answer(t, repo, "3", "apple", models.StudyResultIncorrect, day.Add(3*time.Hour))
	answer(t, repo, "4", "pear", models.StudyResultIncorrect, day.Add(4*time.Hour))
	answer(t, repo, "5", "plum", models.StudyResultIncorrect, day.Add(5*time.Hour))
	answer(t, repo, "6", "apple", models.StudyResultCorrect, day.Add(24*time.Hour+time.Hour))
	answer(t, repo, "7", "apple", models.StudyResultCorrect, day.Add(48*time.Hour))

	t.Run("ListHardWords", func(t *testing.T) {
		got, err := repo.ListHardWords(ctx, 1, 1, 2, time.Time{})
		if err != nil {
			t.Fatalf("ListHardWords() error = %v", err)
		}
		if want := []string{"apple", "pear"}; !reflect.DeepEqual(got, want) {
			t.Errorf("ListHardWords() = %v, want %v", got, want)
		}

		got, err = repo.ListHardWords(ctx, 1, 1, 2, day.Add(90*time.Minute))
		if err != nil {
			t.Fatalf("ListHardWords() since error = %v", err)
		}
		if want := []string{"pear"}; !reflect.DeepEqual(got, want) {
			t.Errorf("ListHardWords() since = %v, want %v", got, want)
		}
	})

	t.Run("ListCorrectTimes", func(t *testing.T) {
		got, err := repo.ListCorrectTimes(ctx, 1, 1, "apple")
		if err != nil {
			t.Fatalf("ListCorrectTimes() error = %v", err)
		}
		if len(got) != 2 || !got[0].Equal(day.Add(25*time.Hour)) || !got[1].Equal(day.Add(48*time.Hour)) {
			t.Errorf("ListCorrectTimes() = %v", got)
		}
	})

	t.Run("ListIncorrectWordsCreatedBetween", func(t *testing.T) {
		got, err := repo.ListIncorrectWordsCreatedBetween(ctx, 1, 1, day, day.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("ListIncorrectWordsCreatedBetween() error = %v", err)
		}
		if want := []string{"apple", "pear", "plum"}; !reflect.DeepEqual(got, want) {
			t.Errorf("ListIncorrectWordsCreatedBetween() = %v, want %v", got, want)
		}
	})

	t.Run("CountCorrectBetween", func(t *testing.T) {
		got, err := repo.CountCorrectBetween(ctx, 1, 1, day.Add(24*time.Hour), day.Add(48*time.Hour))
		if err != nil {
			t.Fatalf("CountCorrectBetween() error = %v", err)
		}
		if got != 1 {
			t.Errorf("CountCorrectBetween() = %v, want 1", got)
		}
	})

	t.Run("AnswerStatsSince", func(t *testing.T) {
		got, err := repo.AnswerStatsSince(ctx, day.Add(4*time.Hour))
		if err != nil {
			t.Fatalf("AnswerStatsSince() error = %v", err)
		}
		if len(got) != 1 || got[0].Total != 4 || got[0].Correct != 2 {
			t.Errorf("AnswerStatsSince() = %+v, want total 4 correct 2", got)
		}
	})

	t.Run("ListPairs", func(t *testing.T) {
		got, err := repo.ListPairs(ctx)
		if err != nil {
			t.Fatalf("ListPairs() error = %v", err)
		}
		if want := []UserBankPair{{UserID: 1, WordBankID: 1}}; !reflect.DeepEqual(got, want) {
			t.Errorf("ListPairs() = %v, want %v", got, want)
		}
	})
}

func TestBatchSaveVersionConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBatchRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	b := &models.BatchRecord{UserID: 1, WordBankID: 1, BatchNo: "HW_1", Capacity: 15, CreatedAt: now, UpdatedAt: now}
	b.Append([]string{"apple", "pear"})
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stale, err := repo.Get(ctx, b.ID)
	if err != nil || stale == nil {
		t.Fatalf("Get() = %v, %v", stale, err)
	}

	b.Words[0].IsMemorized = true
	if err := repo.Save(ctx, b, now); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if b.Version != 2 {
		t.Errorf("Version = %d, want 2", b.Version)
	}

	stale.Append([]string{"plum"})
	if err := repo.Save(ctx, stale, now); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale Save() error = %v, want ErrVersionConflict", err)
	}

	hw, err := repo.ListByPrefix(ctx, 1, 1, models.HardWordBatchPrefix)
	if err != nil {
		t.Fatalf("ListByPrefix() error = %v", err)
	}
	if len(hw) != 1 || len(hw[0].Words) != 2 || !hw[0].Words[0].IsMemorized {
		t.Errorf("ListByPrefix() = %+v", hw)
	}
}

func TestAwardHoldingsAreMonotonic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAwardRepository(db)
	ctx := context.Background()

	catalog, err := repo.ListCatalog(ctx)
	if err != nil {
		t.Fatalf("ListCatalog() error = %v", err)
	}
	if err := repo.SeedUserAwards(ctx, 1, 1, catalog); err != nil {
		t.Fatalf("SeedUserAwards() error = %v", err)
	}

	holdings, err := repo.ListUserAwards(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListUserAwards() error = %v", err)
	}
	if len(holdings) != len(catalog) {
		t.Fatalf("ListUserAwards() returned %d rows, want %d", len(holdings), len(catalog))
	}

	first := holdings[0]
	first.Grant()
	if err := repo.SaveHoldings(ctx, []*models.UserAward{first}); err != nil {
		t.Fatalf("SaveHoldings() error = %v", err)
	}
	first.IsUnlocked = false
	if err := repo.SaveHoldings(ctx, []*models.UserAward{first}); err != nil {
		t.Fatalf("SaveHoldings() error = %v", err)
	}

	holdings, _ = repo.ListUserAwards(ctx, 1, 1)
	if !holdings[0].IsUnlocked || holdings[0].Num != 1 {
		t.Errorf("holding = unlocked %v num %d, want unlocked 1", holdings[0].IsUnlocked, holdings[0].Num)
	}
}

func TestProfileMorale(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	ok, err := repo.AdjustMorale(ctx, 1, 1, 1)
	if err != nil || ok {
		t.Fatalf("AdjustMorale() without profile = %v, %v, want false", ok, err)
	}

	p := &models.Profile{UserID: 1, WordBankID: 1, Morale: models.DefaultMorale, Level: models.DefaultLevel}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.AdjustMorale(ctx, 1, 1, -1); err != nil {
		t.Fatalf("AdjustMorale() error = %v", err)
	}

	got, err := repo.Get(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Morale != models.DefaultMorale-1 {
		t.Errorf("Morale = %d, want %d", got.Morale, models.DefaultMorale-1)
	}
}

func TestGrantClaimOncePerDay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGrantRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	ok, err := repo.Claim(ctx, 1, 1, "2024-03-04", now)
	if err != nil || !ok {
		t.Fatalf("Claim() = %v, %v, want true", ok, err)
	}
	ok, err = repo.Claim(ctx, 1, 1, "2024-03-04", now)
	if err != nil || ok {
		t.Fatalf("second Claim() = %v, %v, want false", ok, err)
	}
	ok, err = repo.Claim(ctx, 1, 1, "2024-03-05", now)
	if err != nil || !ok {
		t.Fatalf("Claim() next day = %v, %v, want true", ok, err)
	}

	exists, err := repo.Exists(ctx, 1, 1, "2024-03-04")
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v, want true", exists, err)
	}
}

func TestProverbRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProverbRepository(db)
	ctx := context.Background()

	seeded, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(seeded) != 5 {
		t.Fatalf("List() = %d proverbs, want 5 seeded", len(seeded))
	}

	added, err := repo.Add(ctx, &models.Proverb{Proverb: seeded[0].Proverb, Explanation: "again", CreatedAt: time.Now().UTC()})
	if err != nil || added {
		t.Errorf("Add() duplicate = %v, %v, want false", added, err)
	}
	added, err = repo.Add(ctx, &models.Proverb{Proverb: "Time is money.", CreatedAt: time.Now().UTC()})
	if err != nil || !added {
		t.Errorf("Add() new = %v, %v, want true", added, err)
	}

	next, err := repo.NextAfter(ctx, seeded[1].ID)
	if err != nil || next == nil || next.ID != seeded[2].ID {
		t.Errorf("NextAfter() = %+v, %v, want %d", next, err, seeded[2].ID)
	}
	next, err = repo.NextAfter(ctx, 1<<40)
	if err != nil || next != nil {
		t.Errorf("NextAfter() past the end = %+v, %v, want nil", next, err)
	}

	if id, err := repo.LastShown(ctx, 7); err != nil || id != 0 {
		t.Errorf("LastShown() before any = %d, %v, want 0", id, err)
	}
	for _, id := range []int64{seeded[0].ID, seeded[3].ID} {
		if err := repo.SetLastShown(ctx, 7, id); err != nil {
			t.Fatalf("SetLastShown() error = %v", err)
		}
	}
	if id, err := repo.LastShown(ctx, 7); err != nil || id != seeded[3].ID {
		t.Errorf("LastShown() = %d, %v, want %d", id, err, seeded[3].ID)
	}
}

func TestPreferenceRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

	pref, err := repo.Get(ctx, 1)
	if err != nil || pref != nil {
		t.Fatalf("Get() before any = %+v, %v, want nil", pref, err)
	}

	if err := repo.SetCurrentWordBank(ctx, 1, 3, now); err != nil {
		t.Fatalf("SetCurrentWordBank() error = %v", err)
	}
	if err := repo.SetCurrentWordBank(ctx, 1, 4, now.Add(time.Hour)); err != nil {
		t.Fatalf("SetCurrentWordBank() second call error = %v", err)
	}

	pref, err = repo.Get(ctx, 1)
	if err != nil || pref == nil {
		t.Fatalf("Get() = %+v, %v", pref, err)
	}
	if pref.CurrentWordBankID == nil || *pref.CurrentWordBankID != 4 {
		t.Errorf("CurrentWordBankID = %v, want 4", pref.CurrentWordBankID)
	}
	if !pref.UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v, want %v", pref.UpdatedAt, now.Add(time.Hour))
	}
}
