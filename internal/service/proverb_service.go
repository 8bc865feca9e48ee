package service

import (
	"context"
	"fmt"
	"strings"

	"wordslayer/internal/database"
	"wordslayer/internal/logger"
	"wordslayer/internal/models"
	"wordslayer/internal/repository"
)

// ProverbService rotates proverbs through each learner's screen
type ProverbService struct {
	db       *database.DB
	proverbs *repository.ProverbRepository
	calendar *Calendar
	log      *logger.Logger
}

// NewProverbService creates a proverb service
func NewProverbService(db *database.DB, calendar *Calendar, log *logger.Logger) *ProverbService {
	return &ProverbService{
		db:       db,
		proverbs: repository.NewProverbRepository(db),
		calendar: calendar,
		log:      log,
	}
}

// NextForDisplay returns the proverb after the one the user saw last and
// remembers it. After the last proverb the rotation starts over.
func (s *ProverbService) NextForDisplay(ctx context.Context, userID int64) (*models.Proverb, error) {
	var shown *models.Proverb
	err := s.db.RunInTx(ctx, func(tx *database.Tx) error {
		repo := s.proverbs.WithTx(tx)
		last, err := repo.LastShown(ctx, userID)
		if err != nil {
			return err
		}
		p, err := repo.NextAfter(ctx, last)
		if err != nil {
			return err
		}
		if p == nil && last > 0 {
			if p, err = repo.NextAfter(ctx, 0); err != nil {
				return err
			}
		}
		if p == nil {
			return ErrProverbNotFound
		}
		shown = p
		return repo.SetLastShown(ctx, userID, p.ID)
	})
	if err != nil {
		return nil, err
	}
	return shown, nil
}

// List returns every proverb
func (s *ProverbService) List(ctx context.Context) ([]models.Proverb, error) {
	return s.proverbs.List(ctx)
}

// Add stores proverbs whose text is not known yet and returns how many were new
func (s *ProverbService) Add(ctx context.Context, proverbs []models.Proverb) (int, error) {
	added := 0
	err := s.db.RunInTx(ctx, func(tx *database.Tx) error {
		repo := s.proverbs.WithTx(tx)
		now := s.calendar.Now()
		for _, p := range proverbs {
			p.Proverb = strings.TrimSpace(p.Proverb)
			if p.Proverb == "" {
				continue
			}
			p.CreatedAt = now
			ok, err := repo.Add(ctx, &p)
			if err != nil {
				return fmt.Errorf("proverb %q: %w", p.Proverb, err)
			}
			if ok {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("Proverbs added", "added", added, "submitted", len(proverbs))
	return added, nil
}
