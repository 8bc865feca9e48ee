package models

import "time"

// Proverb is a saying shown to learners in rotation
type Proverb struct {
	ID          int64     `db:"id" json:"id"`
	Proverb     string    `db:"proverb" json:"proverb"`
	Explanation string    `db:"explanation" json:"explanation"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserPreference holds per-user settings that are not tied to a word bank
type UserPreference struct {
	UserID            int64     `db:"user_id" json:"user_id"`
	CurrentWordBankID *int64    `db:"current_word_bank_id" json:"current_word_bank_id"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
