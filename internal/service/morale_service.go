package service

import (
	"context"
	"time"

	"wordslayer/internal/database"
	"wordslayer/internal/logger"
	"wordslayer/internal/repository"
)

const (
	moraleWindow     = time.Hour
	moraleRaiseRatio = 0.8
	moraleDropRatio  = 0.7
)

// MoraleService nudges morale by the accuracy of the last hour
type MoraleService struct {
	records  *repository.StudyRecordRepository
	profiles *repository.ProfileRepository
	calendar *Calendar
	log      *logger.Logger
}

// NewMoraleService creates the morale job
func NewMoraleService(db *database.DB, calendar *Calendar, log *logger.Logger) *MoraleService {
	return &MoraleService{
		records:  repository.NewStudyRecordRepository(db),
		profiles: repository.NewProfileRepository(db),
		calendar: calendar,
		log:      log.With("job", "morale"),
	}
}

// MoraleDelta returns +1, -1 or 0 for the accuracy of a window
func MoraleDelta(correct, total int) int {
	if total == 0 {
		return 0
	}
	ratio := float64(correct) / float64(total)
	switch {
	case ratio >= moraleRaiseRatio:
		return 1
	case ratio <= moraleDropRatio:
		return -1
	default:
		return 0
	}
}

// Run adjusts the morale of every pair that answered in the last hour
func (s *MoraleService) Run(ctx context.Context) error {
	stats, err := s.records.AnswerStatsSince(ctx, s.calendar.Now().Add(-moraleWindow))
	if err != nil {
		return err
	}

	for _, st := range stats {
		if err := ctx.Err(); err != nil {
			return err
		}
		delta := MoraleDelta(st.Correct, st.Total)
		if delta == 0 {
			continue
		}
		ok, err := s.profiles.AdjustMorale(ctx, st.UserID, st.WordBankID, delta)
		if err != nil {
			s.log.Error("Failed to adjust morale", "user_id", st.UserID, "word_bank_id", st.WordBankID, "error", err)
			continue
		}
		if !ok {
			s.log.Warn("No profile for morale update", "user_id", st.UserID, "word_bank_id", st.WordBankID)
			continue
		}
		s.log.Debug("Morale adjusted", "user_id", st.UserID, "word_bank_id", st.WordBankID,
			"delta", delta, "correct", st.Correct, "total", st.Total)
	}
	return nil
}
