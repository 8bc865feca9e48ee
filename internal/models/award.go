package models

// Award is a catalog entry
type Award struct {
	ID           int64     `db:"id" json:"id"`
	AwardType    AwardType `db:"award_type" json:"award_type"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	ImagePath    string    `db:"image_path" json:"image_path"`
	VideoPath    string    `db:"video_path" json:"video_path"`
	AlgoType     AlgoType  `db:"algo_type" json:"algo_type"`
	AlgoValue    float64   `db:"algo_value" json:"algo_value"`
	InitUnlocked bool      `db:"init_unlocked" json:"init_unlocked"`
}

// UserAward is a user's holding of one catalog award, joined with the catalog fields
type UserAward struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	WordBankID  int64     `db:"word_bank_id" json:"word_bank_id"`
	AwardID     int64     `db:"award_id" json:"award_id"`
	Num         int       `db:"num" json:"num"`
	IsUnlocked  bool      `db:"is_unlocked" json:"is_unlocked"`
	AwardType   AwardType `db:"award_type" json:"award_type"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	ImagePath   string    `db:"image_path" json:"image_path"`
	VideoPath   string    `db:"video_path" json:"video_path"`
	AlgoType    AlgoType  `db:"algo_type" json:"algo_type"`
	AlgoValue   float64   `db:"algo_value" json:"algo_value"`
}

// Grant unlocks the award and counts one more of it
func (a *UserAward) Grant() {
	a.IsUnlocked = true
	a.Num++
}

// Result converts the award into the payload returned to the learner
func (a *UserAward) Result() IncentiveResult {
	return IncentiveResult{
		AwardType: a.AwardType,
		AwardName: a.Name,
		ImagePath: a.ImagePath,
		VideoPath: a.VideoPath,
	}
}

// IncentiveResult describes an award granted by one answer
type IncentiveResult struct {
	AwardType AwardType `json:"award_type"`
	AwardName string    `json:"award_name"`
	ImagePath string    `json:"image_path"`
	VideoPath string    `json:"video_path"`
}

// Profile is a user's progression within one word bank
type Profile struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	WordBankID int64     `db:"word_bank_id" json:"word_bank_id"`
	Experience float64   `db:"experience" json:"experience"`
	Morale     int       `db:"morale" json:"morale"`
	Level      UserLevel `db:"level" json:"level"`
}

const (
	DefaultMorale = 60
	DefaultLevel  = LevelKungFuKid
)
