package service

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"wordslayer/internal/logger"
	"wordslayer/internal/models"
	"wordslayer/internal/notify"
	"wordslayer/internal/repository"
)

type recordingNotifier struct {
	events []notify.BatchEvent
}

func (r *recordingNotifier) NotifyBatch(_ context.Context, ev notify.BatchEvent) error {
	r.events = append(r.events, ev)
	return nil
}

// answerAt writes an answered attempt directly
func (e *testEnv) answerAt(t *testing.T, userID int64, word string, result models.StudyResult, at time.Time) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewStudyRecordRepository(e.db)
	rec := &models.StudyRecord{
		UserID: userID, WordBankID: 1, Word: word,
		SeqID:     word + at.Format(time.RFC3339Nano) + string(rune('0'+userID)),
		CreatedAt: at, UpdatedAt: at,
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ok, err := repo.Close(ctx, rec, result, nil, at); err != nil || !ok {
		t.Fatalf("Close() = %v, %v", ok, err)
	}
}

func (e *testEnv) failTwice(t *testing.T, userID int64, words ...string) {
	t.Helper()
	for i, w := range words {
		at := e.now.Add(-time.Duration(len(words)-i) * time.Minute)
		e.answerAt(t, userID, w, models.StudyResultIncorrect, at)
		e.answerAt(t, userID, w, models.StudyResultIncorrect, at.Add(time.Second))
	}
}

func batchWords(t *testing.T, b []models.BatchRecord) [][]string {
	t.Helper()
	out := make([][]string, len(b))
	for i := range b {
		out[i] = b[i].WordList()
	}
	return out
}

func TestHardWordBatcherRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	job := NewHardWordBatcher(env.db, env.cal, notifier, 3, 2, logger.NewNop())
	repo := repository.NewBatchRepository(env.db)

	env.failTwice(t, 1, "apple", "pear", "plum", "fig")
	env.answerAt(t, 1, "kiwi", models.StudyResultIncorrect, env.now)

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	batches, err := repo.ListByPrefix(ctx, 1, 1, models.HardWordBatchPrefix)
	if err != nil {
		t.Fatalf("ListByPrefix() error = %v", err)
	}
	want := [][]string{{"apple", "pear", "plum"}, {"fig"}}
	if got := batchWords(t, batches); !reflect.DeepEqual(got, want) {
		t.Fatalf("batches = %v, want %v", got, want)
	}
	if batches[0].BatchNo != "HW_1" || batches[1].BatchNo != "HW_2" {
		t.Errorf("batch names = %v, %v", batches[0].BatchNo, batches[1].BatchNo)
	}
	if len(notifier.events) != 2 || !notifier.events[0].Created {
		t.Errorf("events = %+v, want two created batches", notifier.events)
	}

	if err := job.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if len(notifier.events) != 2 {
		t.Errorf("rerun sent %d more events, want none", len(notifier.events)-2)
	}

	env.now = env.now.Add(time.Hour)
	env.failTwice(t, 1, "kiwi", "lime", "date")
	if err := job.Run(ctx); err != nil {
		t.Fatalf("third Run() error = %v", err)
	}
	batches, _ = repo.ListByPrefix(ctx, 1, 1, models.HardWordBatchPrefix)
	want = [][]string{{"apple", "pear", "plum"}, {"fig", "kiwi", "lime"}, {"date"}}
	if got := batchWords(t, batches); !reflect.DeepEqual(got, want) {
		t.Errorf("batches = %v, want %v", got, want)
	}
	if batches[2].BatchNo != "HW_3" {
		t.Errorf("new batch name = %v, want HW_3", batches[2].BatchNo)
	}
	last := notifier.events[len(notifier.events)-2]
	if last.Created || last.BatchNo != "HW_2" {
		t.Errorf("fill event = %+v, want HW_2 extended", last)
	}
}

func TestHardWordBatcherIsolatesFailingPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	job := NewHardWordBatcher(env.db, env.cal, notifier, 3, 2, logger.NewNop())
	repo := repository.NewBatchRepository(env.db)

	// HW_1 is listed last, so its successor name HW_2 is already taken and
	// the new chunk for user 1 cannot be inserted after HW_1 was filled.
	taken := &models.BatchRecord{
		UserID: 1, WordBankID: 1, BatchNo: "HW_2", Capacity: 3,
		CreatedAt: env.now.Add(-2 * time.Hour), UpdatedAt: env.now.Add(-2 * time.Hour),
	}
	taken.Append([]string{"apple"})
	if err := repo.Create(ctx, taken); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	last := &models.BatchRecord{
		UserID: 1, WordBankID: 1, BatchNo: "HW_1", Capacity: 3,
		CreatedAt: env.now.Add(-time.Hour), UpdatedAt: env.now.Add(-time.Hour),
	}
	last.Append([]string{"pear", "plum"})
	if err := repo.Create(ctx, last); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	env.failTwice(t, 1, "fig", "kiwi", "lime")
	env.failTwice(t, 2, "date")

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := repo.GetByBatchNo(ctx, 1, 1, "HW_1")
	if err != nil {
		t.Fatalf("GetByBatchNo() error = %v", err)
	}
	if want := []string{"pear", "plum"}; !reflect.DeepEqual(got.WordList(), want) {
		t.Errorf("failed pair left HW_1 = %v, want %v", got.WordList(), want)
	}
	if got.Version != 1 {
		t.Errorf("failed pair left HW_1 version = %d, want 1", got.Version)
	}

	other, err := repo.ListByPrefix(ctx, 2, 1, models.HardWordBatchPrefix)
	if err != nil {
		t.Fatalf("ListByPrefix() error = %v", err)
	}
	if want := [][]string{{"date"}}; !reflect.DeepEqual(batchWords(t, other), want) {
		t.Errorf("other pair batches = %v, want %v", batchWords(t, other), want)
	}
	if len(notifier.events) != 1 || notifier.events[0].UserID != 2 {
		t.Errorf("events = %+v, want only the other pair's batch", notifier.events)
	}
}

func TestHardWordBatcherStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{}
	job := NewHardWordBatcher(env.db, env.cal, notifier, 3, 2, logger.NewNop())
	env.failTwice(t, 1, "apple")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(notifier.events) != 0 {
		t.Errorf("events = %+v, want none after cancel", notifier.events)
	}
}

func TestWeeklyIncorrectBatcherRun(t *testing.T) {
	env := newTestEnv(t) // Wednesday 2024-03-06
	ctx := context.Background()
	job := NewWeeklyIncorrectBatcher(env.db, env.cal, logger.NewNop())
	repo := repository.NewBatchRepository(env.db)

	env.answerAt(t, 1, "old", models.StudyResultIncorrect, env.now.AddDate(0, 0, -3))
	env.answerAt(t, 1, "apple", models.StudyResultIncorrect, env.now.AddDate(0, 0, -2))
	env.answerAt(t, 1, "pear", models.StudyResultCorrect, env.now.Add(-time.Hour))
	env.answerAt(t, 1, "apple", models.StudyResultIncorrect, env.now.Add(-time.Hour))
	env.answerAt(t, 2, "pear", models.StudyResultCorrect, env.now.Add(-time.Hour))

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	b, err := repo.GetByBatchNo(ctx, 1, 1, "IW_20240304-0310")
	if err != nil || b == nil {
		t.Fatalf("GetByBatchNo() = %v, %v", b, err)
	}
	if got := b.WordList(); !reflect.DeepEqual(got, []string{"apple"}) {
		t.Errorf("weekly words = %v, want [apple]", got)
	}
	if other, _ := repo.GetByBatchNo(ctx, 2, 1, "IW_20240304-0310"); other != nil {
		t.Errorf("user without mistakes got batch %+v", other)
	}

	b.Words[0].IsMemorized = true
	b.IsFinished = true
	if err := repo.Save(ctx, b, env.now); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	env.answerAt(t, 1, "pear", models.StudyResultIncorrect, env.now)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("third Run() error = %v", err)
	}
	b, _ = repo.GetByBatchNo(ctx, 1, 1, "IW_20240304-0310")
	want := models.BatchWords{{Word: "apple", IsMemorized: true}, {Word: "pear"}}
	if !reflect.DeepEqual(b.Words, want) || b.IsFinished {
		t.Errorf("weekly batch = %+v finished %v, want %+v reopened", b.Words, b.IsFinished, want)
	}
}

func TestMoraleServiceRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := NewMoraleService(env.db, env.cal, logger.NewNop())

	for _, user := range []int64{1, 2} {
		if err := env.study.SwitchWordBank(ctx, user, 1, seeds("apple")); err != nil {
			t.Fatalf("SwitchWordBank() error = %v", err)
		}
	}

	recent := env.now.Add(-30 * time.Minute)
	for i := 0; i < 4; i++ {
		env.answerAt(t, 1, "apple", models.StudyResultCorrect, recent.Add(time.Duration(i)*time.Second))
	}
	env.answerAt(t, 1, "apple", models.StudyResultIncorrect, recent.Add(10*time.Second))
	env.answerAt(t, 2, "apple", models.StudyResultIncorrect, recent)
	env.answerAt(t, 2, "apple", models.StudyResultCorrect, env.now.Add(-2*time.Hour))
	env.answerAt(t, 3, "apple", models.StudyResultCorrect, recent)

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	profiles := repository.NewProfileRepository(env.db)
	tests := []struct {
		user int64
		want int
	}{
		{1, models.DefaultMorale + 1},
		{2, models.DefaultMorale - 1},
	}
	for _, tt := range tests {
		p, err := profiles.Get(ctx, tt.user, 1)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if p.Morale != tt.want {
			t.Errorf("user %d morale = %d, want %d", tt.user, p.Morale, tt.want)
		}
	}
}

func TestCreateBatchNameCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var names []string
	for i := 0; i < 3; i++ {
		b, err := env.batches.CreateBatch(ctx, 1, 1, []string{"apple"})
		if err != nil {
			t.Fatalf("CreateBatch() #%d error = %v", i+1, err)
		}
		names = append(names, b.BatchNo)
	}
	want := []string{"20240306100000", "20240306100000-2", "20240306100000-3"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("CreateBatch() names = %v, want %v", names, want)
	}

	other, err := env.batches.CreateBatch(ctx, 2, 1, nil)
	if err != nil {
		t.Fatalf("CreateBatch() for another user error = %v", err)
	}
	if other.BatchNo != "20240306100000" {
		t.Errorf("CreateBatch() for another user = %v, want unsuffixed name", other.BatchNo)
	}
}

func TestBatchServiceAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.study.SwitchWordBank(ctx, 1, 1, seeds("apple", "pear", "plum")); err != nil {
		t.Fatalf("SwitchWordBank() error = %v", err)
	}

	custom, err := env.batches.CreateBatch(ctx, 1, 1, []string{"apple", "pear"})
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	env.failTwice(t, 1, "plum")
	job := NewHardWordBatcher(env.db, env.cal, nil, 15, 2, logger.NewNop())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	env.now = env.now.Add(time.Second)
	if _, err := env.batches.CreateBatch(ctx, 1, 1, nil); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	list, err := env.batches.ListBatches(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListBatches() error = %v", err)
	}
	names := make([]string, len(list))
	for i, b := range list {
		names[i] = b.BatchNo
	}
	if want := []string{"HW_1", "20240306100001", "20240306100000"}; !reflect.DeepEqual(names, want) {
		t.Errorf("ListBatches() = %v, want %v", names, want)
	}
	if list[2].WordCount != 2 {
		t.Errorf("WordCount = %d, want 2", list[2].WordCount)
	}

	custom.Words[0].IsMemorized = true
	if err := repository.NewBatchRepository(env.db).Save(ctx, custom, env.now); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := env.batches.SetBatchWords(ctx, 1, 1, custom.ID, []string{"plum", "apple", "plum"}); err != nil {
		t.Fatalf("SetBatchWords() error = %v", err)
	}
	got, _ := env.batches.GetBatch(ctx, 1, 1, custom.ID)
	want := models.BatchWords{{Word: "plum"}, {Word: "apple", IsMemorized: true}}
	if !reflect.DeepEqual(got.Words, want) {
		t.Errorf("SetBatchWords() words = %+v, want %+v", got.Words, want)
	}

	if err := env.batches.ResetBatchStatus(ctx, 1, 1, custom.ID); err != nil {
		t.Fatalf("ResetBatchStatus() error = %v", err)
	}
	got, _ = env.batches.GetBatch(ctx, 1, 1, custom.ID)
	if got.Words[1].IsMemorized || got.IsFinished {
		t.Errorf("ResetBatchStatus() left %+v", got)
	}
	if err := env.batches.ResetBatchStatus(ctx, 1, 1, 9999); err != nil {
		t.Errorf("ResetBatchStatus() unknown batch error = %v, want nil", err)
	}

	if err := env.batches.SetBatchWords(ctx, 2, 1, custom.ID, nil); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("SetBatchWords() by another user error = %v, want ErrBatchNotFound", err)
	}

	hard, err := env.batches.GetHardWordsSince(ctx, 1, 1, "2024-03-06")
	if err != nil {
		t.Fatalf("GetHardWordsSince() error = %v", err)
	}
	if !reflect.DeepEqual(hard, []string{"plum"}) {
		t.Errorf("GetHardWordsSince() = %v, want [plum]", hard)
	}
	hard, _ = env.batches.GetHardWordsSince(ctx, 1, 1, "2024-03-07")
	if len(hard) != 0 {
		t.Errorf("GetHardWordsSince(tomorrow) = %v, want none", hard)
	}
	if _, err := env.batches.GetHardWordsSince(ctx, 1, 1, "yesterday"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("GetHardWordsSince() with bad date error = %v, want ErrInvalidDate", err)
	}

	var buf bytes.Buffer
	if _, err := env.batches.ExportBatch(ctx, 1, 1, custom.ID, &buf); err != nil {
		t.Fatalf("ExportBatch() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("ExportBatch() wrote nothing")
	}

	report, err := env.study.HardWordRecords(ctx, 1, 1, 2)
	if err != nil {
		t.Fatalf("HardWordRecords() error = %v", err)
	}
	if len(report) != 1 || report[0].Word != "plum" || len(report[0].Attempts) != 2 {
		t.Errorf("HardWordRecords() = %+v", report)
	}
}
