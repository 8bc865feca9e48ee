package service

import (
	"fmt"
	"math/rand"

	"wordslayer/internal/models"
)

// ResolveContext is everything a resolver may base a decision on. It is
// computed once per answer before any resolver runs.
type ResolveContext struct {
	UserID         int64
	WordBankID     int64
	MemorizedRatio float64
	SlainedRatio   float64
	CorrectToday   int
	GrantedToday   bool
}

// Resolution lists the holdings a resolver changed
type Resolution struct {
	Granted []*models.UserAward
}

// AwardResolver decides which holdings of one algo type are granted
type AwardResolver interface {
	AlgoType() models.AlgoType
	Resolve(rc ResolveContext, holdings []*models.UserAward) (Resolution, error)
}

// DailyGated is implemented by resolvers that grant at most once per day.
// The engine claims the day before resolving when the gate is open.
type DailyGated interface {
	GateOpen(rc ResolveContext) bool
}

// ProbabilityResolver draws one award per day by weight once enough correct
// answers were given that day. Full mastery unlocks the whole tier.
type ProbabilityResolver struct {
	GrandAwardName      string
	DailyCorrectMinimum int
	// Float64 returns a number in [0, 1)
	Float64 func() float64
}

// NewProbabilityResolver creates a resolver drawing with math/rand
func NewProbabilityResolver(grandAwardName string, dailyCorrectMinimum int) *ProbabilityResolver {
	return &ProbabilityResolver{
		GrandAwardName:      grandAwardName,
		DailyCorrectMinimum: dailyCorrectMinimum,
		Float64:             rand.Float64,
	}
}

func (p *ProbabilityResolver) AlgoType() models.AlgoType {
	return models.AlgoProbability
}

// GateOpen reports whether today's draw may happen
func (p *ProbabilityResolver) GateOpen(rc ResolveContext) bool {
	return !rc.GrantedToday && rc.CorrectToday >= p.DailyCorrectMinimum
}

func (p *ProbabilityResolver) Resolve(rc ResolveContext, holdings []*models.UserAward) (Resolution, error) {
	var res Resolution

	if p.GateOpen(rc) {
		if drawn := p.draw(holdings); drawn != nil {
			drawn.Grant()
			res.Granted = append(res.Granted, drawn)
		}
	}

	// The grand award override ignores the daily gate
	if rc.SlainedRatio >= 1.0 && len(holdings) > 0 {
		grand := findByName(holdings, p.GrandAwardName)
		if grand == nil {
			return res, fmt.Errorf("%w: grand award %q is not in the catalog", ErrAwardCatalog, p.GrandAwardName)
		}
		if !grand.IsUnlocked {
			for _, h := range holdings {
				if !h.IsUnlocked {
					h.Grant()
					res.Granted = append(res.Granted, h)
				}
			}
		}
	}

	return res, nil
}

// draw picks one holding with probability weight / total weight
func (p *ProbabilityResolver) draw(holdings []*models.UserAward) *models.UserAward {
	total := 0.0
	for _, h := range holdings {
		if h.AlgoValue > 0 {
			total += h.AlgoValue
		}
	}
	if total <= 0 {
		return nil
	}

	r := p.Float64() * total
	var last *models.UserAward
	for _, h := range holdings {
		if h.AlgoValue <= 0 {
			continue
		}
		last = h
		r -= h.AlgoValue
		if r < 0 {
			return h
		}
	}
	return last
}

func findByName(holdings []*models.UserAward, name string) *models.UserAward {
	for _, h := range holdings {
		if h.Name == name {
			return h
		}
	}
	return nil
}

// RatioThresholdResolver unlocks every locked award whose threshold the ratio reached
type RatioThresholdResolver struct {
	Kind models.AlgoType
}

func (r RatioThresholdResolver) AlgoType() models.AlgoType {
	return r.Kind
}

func (r RatioThresholdResolver) Resolve(rc ResolveContext, holdings []*models.UserAward) (Resolution, error) {
	var ratio float64
	switch r.Kind {
	case models.AlgoMemorizedRatio:
		ratio = rc.MemorizedRatio
	case models.AlgoSlainedRatio:
		ratio = rc.SlainedRatio
	default:
		return Resolution{}, fmt.Errorf("%w: %v is not a ratio algo type", ErrAwardCatalog, r.Kind)
	}

	var res Resolution
	for _, h := range holdings {
		if !h.IsUnlocked && ratio >= h.AlgoValue {
			h.IsUnlocked = true
			res.Granted = append(res.Granted, h)
		}
	}
	return res, nil
}
