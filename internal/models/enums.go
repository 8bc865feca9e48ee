package models

// WordStatus is the mastery state of a word for one user and word bank
type WordStatus int

const (
	WordStatusWait       WordStatus = 0
	WordStatusInProgress WordStatus = 1
	WordStatusMastered   WordStatus = 2
)

func (s WordStatus) String() string {
	switch s {
	case WordStatusWait:
		return "WAIT"
	case WordStatusInProgress:
		return "IN_PROGRESS"
	case WordStatusMastered:
		return "MASTERED"
	default:
		return "UNKNOWN"
	}
}

// StudyResult is the overall outcome of one attempt
type StudyResult int

const (
	StudyResultIncorrect StudyResult = 0
	StudyResultCorrect   StudyResult = 1
)

func (r StudyResult) String() string {
	if r == StudyResultCorrect {
		return "CORRECT"
	}
	return "INCORRECT"
}

// AwardType groups catalog awards for display
type AwardType int

const (
	AwardTypeTreasure AwardType = 1
	AwardTypeManual   AwardType = 2
	AwardTypeSword    AwardType = 3
	AwardTypeArmor    AwardType = 4
)

var awardTypeNames = map[AwardType]string{
	AwardTypeTreasure: "Treasure",
	AwardTypeManual:   "Manual",
	AwardTypeSword:    "Sword",
	AwardTypeArmor:    "Armor",
}

func (t AwardType) String() string {
	if name, ok := awardTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// AlgoType selects how an award is earned
type AlgoType int

const (
	// AlgoMemorizedRatio unlocks once (in progress + mastered) / total reaches algo_value
	AlgoMemorizedRatio AlgoType = 1
	// AlgoSlainedRatio unlocks once mastered / total reaches algo_value
	AlgoSlainedRatio AlgoType = 2
	// AlgoProbability is drawn by weight once per day
	AlgoProbability AlgoType = 3
)

func (a AlgoType) String() string {
	switch a {
	case AlgoMemorizedRatio:
		return "MEMORIZED_RATIO"
	case AlgoSlainedRatio:
		return "SLAINED_RATIO"
	case AlgoProbability:
		return "PROBABILITY"
	default:
		return "UNKNOWN"
	}
}

// UserLevel is derived from the slained ratio
type UserLevel int

const (
	LevelKungFuKid     UserLevel = 1
	LevelRisingStar    UserLevel = 2
	LevelWanderingHero UserLevel = 3
	LevelGrandmaster   UserLevel = 4
	LevelSupreme       UserLevel = 5
)

var levelNames = map[UserLevel]string{
	LevelKungFuKid:     "Kung Fu Kid",
	LevelRisingStar:    "Rising Star",
	LevelWanderingHero: "Wandering Hero",
	LevelGrandmaster:   "Grandmaster",
	LevelSupreme:       "Martial Supreme",
}

func (l UserLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "Unknown"
}

// LevelForSlainedRatio maps a slained ratio onto its level bucket
func LevelForSlainedRatio(ratio float64) UserLevel {
	switch {
	case ratio < 0.2:
		return LevelKungFuKid
	case ratio < 0.5:
		return LevelRisingStar
	case ratio < 0.8:
		return LevelWanderingHero
	case ratio < 1.0:
		return LevelGrandmaster
	default:
		return LevelSupreme
	}
}
