package models

import (
	"database/sql/driver"
	"time"
)

// AnswerItem is one question inside an attempt
type AnswerItem struct {
	QuestionType  string  `json:"question_type"` // word, inflection, phrase
	Question      string  `json:"question"`
	CorrectAnswer string  `json:"correct_answer"`
	UserAnswer    *string `json:"user_answer,omitempty"`
	IsCorrect     *bool   `json:"is_correct,omitempty"`
}

// AnswerItems is stored as a JSON column
type AnswerItems []AnswerItem

func (a *AnswerItems) Scan(src interface{}) error {
	var out []AnswerItem
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

func (a AnswerItems) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return valueJSON([]AnswerItem(a))
}

// StudyRecord is one attempt at a word. RecordTime is nil while the attempt is open.
type StudyRecord struct {
	ID          int64        `db:"id" json:"id"`
	UserID      int64        `db:"user_id" json:"user_id"`
	WordBankID  int64        `db:"word_bank_id" json:"word_bank_id"`
	Word        string       `db:"word" json:"word"`
	SeqID       string       `db:"seq_id" json:"seq_id"`
	RecordTime  *time.Time   `db:"record_time" json:"record_time,omitempty"`
	AnswerInfo  AnswerItems  `db:"answer_info" json:"answer_info"`
	StudyResult *StudyResult `db:"study_result" json:"study_result,omitempty"`
	WordStatus  *WordStatus  `db:"word_status" json:"word_status,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// IsOpen reports whether the attempt has not been answered yet
func (r *StudyRecord) IsOpen() bool {
	return r.RecordTime == nil
}

// IsCorrect reports whether the attempt was answered correctly
func (r *StudyRecord) IsCorrect() bool {
	return r.StudyResult != nil && *r.StudyResult == StudyResultCorrect
}

// UserWord is a word of a bank as seen by one user
type UserWord struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	WordBankID int64      `db:"word_bank_id" json:"word_bank_id"`
	Word       string     `db:"word" json:"word"`
	WordStatus WordStatus `db:"word_status" json:"word_status"`
	Tags       StringList `db:"tags" json:"tags"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// WordSeed is a bank word handed in when a user adopts a bank
type WordSeed struct {
	Word  string   `json:"word"`
	Flags []string `json:"flags"`
}

// StatusStats counts user words by status
type StatusStats struct {
	Wait       int `json:"wait"`
	InProgress int `json:"in_progress"`
	Mastered   int `json:"mastered"`
	Total      int `json:"total"`
}

// Ratios are the progress ratios fed to the incentive engine
type Ratios struct {
	Memorized float64 `json:"memorized"`
	Slained   float64 `json:"slained"`
}

// MaskWord hides everything but the first letter of a word that is not yet mastered
func MaskWord(word string, status WordStatus) string {
	if status == WordStatusMastered {
		return word
	}
	runes := []rune(word)
	if len(runes) <= 1 {
		return word
	}
	masked := make([]rune, len(runes))
	masked[0] = runes[0]
	for i := 1; i < len(runes); i++ {
		masked[i] = '*'
	}
	return string(masked)
}
