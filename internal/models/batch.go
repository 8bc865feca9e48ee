package models

import (
	"database/sql/driver"
	"strconv"
	"strings"
	"time"
)

const (
	HardWordBatchPrefix        = "HW_"
	WeeklyIncorrectBatchPrefix = "IW_"
)

// BatchWord is one entry of a study batch
type BatchWord struct {
	Word        string `json:"word"`
	IsMemorized bool   `json:"is_memorized"`
}

// BatchWords is stored as a JSON column
type BatchWords []BatchWord

func (w *BatchWords) Scan(src interface{}) error {
	var out []BatchWord
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*w = out
	return nil
}

func (w BatchWords) Value() (driver.Value, error) {
	if w == nil {
		return "[]", nil
	}
	return valueJSON([]BatchWord(w))
}

// BatchRecord is a named, ordered group of words studied together.
// Version guards concurrent writers, every save increments it.
type BatchRecord struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	WordBankID int64      `db:"word_bank_id" json:"word_bank_id"`
	BatchNo    string     `db:"batch_no" json:"batch_no"`
	Words      BatchWords `db:"words" json:"words"`
	IsFinished bool       `db:"is_finished" json:"is_finished"`
	Capacity   int        `db:"capacity" json:"capacity"`
	Version    int64      `db:"version" json:"version"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// ConsumeNext walks the batch in order and returns the first word that has
// not been attempted today.
//
// Attempt marks consumed: every unmemorized entry the walk passes over is
// marked memorized, including entries skipped because they were already
// attempted today, and the selected entry itself is marked before the learner
// answers it. When no unmemorized entry is left the batch is finished.
func (b *BatchRecord) ConsumeNext(attemptedToday map[string]bool) (string, bool) {
	selected := ""
	found := false
	for i := range b.Words {
		if b.Words[i].IsMemorized {
			continue
		}
		b.Words[i].IsMemorized = true
		if !attemptedToday[b.Words[i].Word] {
			selected = b.Words[i].Word
			found = true
			break
		}
	}

	if b.allMemorized() {
		b.IsFinished = true
	}
	return selected, found
}

func (b *BatchRecord) allMemorized() bool {
	for _, w := range b.Words {
		if !w.IsMemorized {
			return false
		}
	}
	return true
}

// Contains reports whether word is part of the batch
func (b *BatchRecord) Contains(word string) bool {
	for _, w := range b.Words {
		if w.Word == word {
			return true
		}
	}
	return false
}

// Append adds the words not yet in the batch as unmemorized entries and
// reopens the batch when anything was added. It returns the number added.
func (b *BatchRecord) Append(words []string) int {
	added := 0
	for _, word := range words {
		if b.Contains(word) {
			continue
		}
		b.Words = append(b.Words, BatchWord{Word: word})
		added++
	}
	if added > 0 {
		b.IsFinished = false
	}
	return added
}

// Free returns how many words still fit. Unbounded batches report -1.
func (b *BatchRecord) Free() int {
	if b.Capacity <= 0 {
		return -1
	}
	if n := b.Capacity - len(b.Words); n > 0 {
		return n
	}
	return 0
}

// ResetProgress marks every entry unmemorized and reopens the batch
func (b *BatchRecord) ResetProgress() {
	for i := range b.Words {
		b.Words[i].IsMemorized = false
	}
	b.IsFinished = false
}

// WordList returns the batch words in order
func (b *BatchRecord) WordList() []string {
	out := make([]string, len(b.Words))
	for i, w := range b.Words {
		out[i] = w.Word
	}
	return out
}

// Sequence parses the number after the last underscore of the batch name.
// It returns 0 when the name carries no number.
func (b *BatchRecord) Sequence() int {
	idx := strings.LastIndex(b.BatchNo, "_")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(b.BatchNo[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

// BatchSummary is a batch listing entry
type BatchSummary struct {
	BatchRecord
	WordCount int `json:"word_count"`
}
