package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"wordslayer/internal/database"
	"wordslayer/internal/logger"
	"wordslayer/internal/models"
	"wordslayer/internal/repository"
)

// DefaultArmorImage is shown while no armor beyond the starter robe is unlocked
const DefaultArmorImage = "/images/armors/xuanyiwujian.jpg"

const (
	ironSwordName = "Iron Sword"
	blackRobeName = "Black Robe"
)

// resolveOrder is the order award categories are evaluated in
var resolveOrder = []models.AlgoType{
	models.AlgoProbability,
	models.AlgoMemorizedRatio,
	models.AlgoSlainedRatio,
}

// IncentiveService turns study progress into profile updates and awards
type IncentiveService struct {
	db        *database.DB
	profiles  *repository.ProfileRepository
	awards    *repository.AwardRepository
	grants    *repository.GrantRepository
	records   *repository.StudyRecordRepository
	calendar  *Calendar
	resolvers map[models.AlgoType]AwardResolver
	log       *logger.Logger
}

// NewIncentiveService creates an incentive service evaluating the given resolvers
func NewIncentiveService(db *database.DB, calendar *Calendar, log *logger.Logger, resolvers ...AwardResolver) *IncentiveService {
	byType := make(map[models.AlgoType]AwardResolver, len(resolvers))
	for _, r := range resolvers {
		byType[r.AlgoType()] = r
	}
	return &IncentiveService{
		db:        db,
		profiles:  repository.NewProfileRepository(db),
		awards:    repository.NewAwardRepository(db),
		grants:    repository.NewGrantRepository(db),
		records:   repository.NewStudyRecordRepository(db),
		calendar:  calendar,
		resolvers: byType,
		log:       log,
	}
}

// DefaultResolvers returns the probability and both ratio resolvers
func DefaultResolvers(grandAwardName string, dailyCorrectMinimum int) []AwardResolver {
	return []AwardResolver{
		NewProbabilityResolver(grandAwardName, dailyCorrectMinimum),
		RatioThresholdResolver{Kind: models.AlgoMemorizedRatio},
		RatioThresholdResolver{Kind: models.AlgoSlainedRatio},
	}
}

// Apply updates the pair's profile from the ratios and grants every award
// they earn. It runs inside the caller's transaction.
func (s *IncentiveService) Apply(ctx context.Context, tx database.DBTX, userID, wordBankID int64, ratios models.Ratios) ([]models.IncentiveResult, error) {
	profiles := s.profiles.WithTx(tx)
	profile, err := profiles.Get(ctx, userID, wordBankID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("user %d bank %d: %w", userID, wordBankID, ErrProfileNotFound)
	}

	profile.Experience = roundTo(ratios.Memorized*100, 1)
	profile.Level = models.LevelForSlainedRatio(ratios.Slained)
	if err := profiles.UpdateProgress(ctx, profile); err != nil {
		return nil, err
	}

	awards := s.awards.WithTx(tx)
	holdings, err := awards.ListUserAwards(ctx, userID, wordBankID)
	if err != nil {
		return nil, err
	}
	groups := make(map[models.AlgoType][]*models.UserAward)
	for _, h := range holdings {
		groups[h.AlgoType] = append(groups[h.AlgoType], h)
	}

	rc := ResolveContext{
		UserID:         userID,
		WordBankID:     wordBankID,
		MemorizedRatio: ratios.Memorized,
		SlainedRatio:   ratios.Slained,
	}
	now := s.calendar.Now()
	dateKey := s.calendar.DateKey(now)
	if err := s.loadDailyState(ctx, tx, &rc, dateKey); err != nil {
		return nil, err
	}

	for algo, group := range groups {
		if _, ok := s.resolvers[algo]; !ok {
			for _, h := range group {
				s.log.Error("Skipping award with unknown algo type",
					"user_id", userID, "word_bank_id", wordBankID,
					"award_id", h.AwardID, "award", h.Name, "algo_type", int(algo))
			}
		}
	}

	var changed []*models.UserAward
	seen := make(map[int64]bool)
	for _, algo := range resolveOrder {
		resolver, ok := s.resolvers[algo]
		if !ok || len(groups[algo]) == 0 {
			continue
		}

		local := rc
		if gated, ok := resolver.(DailyGated); ok && gated.GateOpen(local) {
			claimed, err := s.grants.WithTx(tx).Claim(ctx, userID, wordBankID, dateKey, now)
			if err != nil {
				return nil, err
			}
			// another answer drew today's award first
			local.GrantedToday = !claimed
		}

		res, err := resolver.Resolve(local, groups[algo])
		if err != nil {
			return nil, fmt.Errorf("user %d bank %d: %w", userID, wordBankID, err)
		}
		for _, h := range res.Granted {
			if !seen[h.ID] {
				seen[h.ID] = true
				changed = append(changed, h)
			}
		}
	}

	if err := awards.SaveHoldings(ctx, changed); err != nil {
		return nil, err
	}

	results := make([]models.IncentiveResult, 0, len(changed))
	for _, h := range changed {
		results = append(results, h.Result())
	}
	if len(results) > 0 {
		s.log.Info("Awards granted", "user_id", userID, "word_bank_id", wordBankID, "count", len(results))
	}
	return results, nil
}

func (s *IncentiveService) loadDailyState(ctx context.Context, tx database.DBTX, rc *ResolveContext, dateKey string) error {
	start, end := s.calendar.Today()
	count, err := s.records.WithTx(tx).CountCorrectBetween(ctx, rc.UserID, rc.WordBankID, start, end)
	if err != nil {
		return err
	}
	granted, err := s.grants.WithTx(tx).Exists(ctx, rc.UserID, rc.WordBankID, dateKey)
	if err != nil {
		return err
	}
	rc.CorrectToday = count
	rc.GrantedToday = granted
	return nil
}

// InitIncentive seeds the award holdings and profile of a pair when missing
func (s *IncentiveService) InitIncentive(ctx context.Context, tx database.DBTX, userID, wordBankID int64) error {
	awards := s.awards.WithTx(tx)
	count, err := awards.CountUserAwards(ctx, userID, wordBankID)
	if err != nil {
		return err
	}
	if count == 0 {
		catalog, err := awards.ListCatalog(ctx)
		if err != nil {
			return err
		}
		if err := awards.SeedUserAwards(ctx, userID, wordBankID, catalog); err != nil {
			return err
		}
	}

	profiles := s.profiles.WithTx(tx)
	profile, err := profiles.Get(ctx, userID, wordBankID)
	if err != nil {
		return err
	}
	if profile != nil {
		return nil
	}
	return profiles.Create(ctx, &models.Profile{
		UserID:     userID,
		WordBankID: wordBankID,
		Morale:     models.DefaultMorale,
		Level:      models.DefaultLevel,
	})
}

// ProfileView is the learner's profile card
type ProfileView struct {
	Level      models.UserLevel `json:"level"`
	LevelName  string           `json:"level_name"`
	Experience float64          `json:"experience"`
	Morale     int              `json:"morale"`
	ImagePath  string           `json:"image_path"`
}

// GetProfile returns the profile card of a pair. The image is the last
// unlocked armor by award id.
func (s *IncentiveService) GetProfile(ctx context.Context, userID, wordBankID int64) (*ProfileView, error) {
	profile, err := s.profiles.Get(ctx, userID, wordBankID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("user %d bank %d: %w", userID, wordBankID, ErrProfileNotFound)
	}

	holdings, err := s.awards.ListUserAwards(ctx, userID, wordBankID)
	if err != nil {
		return nil, err
	}

	image := DefaultArmorImage
	var lastID int64
	for _, h := range holdings {
		if h.AwardType == models.AwardTypeArmor && h.IsUnlocked && h.AwardID > lastID {
			lastID = h.AwardID
			image = h.ImagePath
		}
	}

	return &ProfileView{
		Level:      profile.Level,
		LevelName:  profile.Level.String(),
		Experience: profile.Experience,
		Morale:     profile.Morale,
		ImagePath:  image,
	}, nil
}

// AwardGroup is one award type with the pair's holdings of it
type AwardGroup struct {
	AwardType models.AwardType    `json:"award_type"`
	TypeName  string              `json:"type_name"`
	Awards    []*models.UserAward `json:"awards"`
}

// ListAwards returns the pair's holdings grouped by award type
func (s *IncentiveService) ListAwards(ctx context.Context, userID, wordBankID int64) ([]AwardGroup, error) {
	holdings, err := s.awards.ListUserAwards(ctx, userID, wordBankID)
	if err != nil {
		return nil, err
	}

	ironSwordLocked := false
	for _, h := range holdings {
		if h.Name == ironSwordName && !h.IsUnlocked {
			ironSwordLocked = true
		}
	}

	byType := make(map[models.AwardType][]*models.UserAward)
	for _, h := range holdings {
		if ironSwordLocked && h.Name == blackRobeName {
			h.ImagePath = DefaultArmorImage
		}
		byType[h.AwardType] = append(byType[h.AwardType], h)
	}

	groups := make([]AwardGroup, 0, len(byType))
	for t, list := range byType {
		groups = append(groups, AwardGroup{AwardType: t, TypeName: t.String(), Awards: list})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].AwardType < groups[j].AwardType })
	return groups, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
