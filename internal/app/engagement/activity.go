package engagement

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/domain"
)

// ─── Wellness ───────────────────────────────────────────────────────────────

var wellnessStreaks = map[domain.WellnessActivity]domain.StreakType{
	domain.WellnessTarot:      domain.StreakTarot,
	domain.WellnessIChing:     domain.StreakIChing,
	domain.WellnessMeditation: domain.StreakMeditation,
}

var wellnessMetrics = map[domain.WellnessActivity]domain.Metric{
	domain.WellnessTarot:      domain.MetricTarotStreak,
	domain.WellnessIChing:     domain.MetricIChingStreak,
	domain.WellnessMeditation: domain.MetricMeditationStreak,
}

// holisticThreshold is the tarot and I Ching streak both must reach.
const holisticThreshold = 7

// WellnessResult is the reply of TrackWellnessActivity.
type WellnessResult struct {
	domain.Outcome
	Activity        domain.WellnessActivity `json:"activity"`
	Streak          domain.StreakRecord     `json:"streak"`
	NewAchievements []domain.AchievementDef `json:"new_achievements"`
}

// TrackWellnessActivity records a tarot, I Ching or meditation session.
func (s *Service) TrackWellnessActivity(ctx context.Context, userID uuid.UUID, activity domain.WellnessActivity) WellnessResult {
	streakType, ok := wellnessStreaks[activity]
	if !ok || userID == uuid.Nil {
		return WellnessResult{Outcome: domain.Failed(invalidActivity(userID, string(activity))), Activity: activity, NewAchievements: []domain.AchievementDef{}}
	}

	v, err := s.guarded(ctx, userID, "wellness", string(activity), func() (any, error) {
		rec, err := s.backend.TrackWellnessActivity(ctx, userID, activity)
		if err != nil {
			if s.degrade(domain.OpTrackWellnessActivity, err) {
				return WellnessResult{Outcome: domain.DegradedOK(), Activity: activity,
					Streak: domain.ZeroStreak(streakType), NewAchievements: []domain.AchievementDef{}}, nil
			}
			return WellnessResult{Outcome: domain.Failed(err), Activity: activity, Streak: domain.ZeroStreak(streakType), NewAchievements: []domain.AchievementDef{}}, nil
		}
		rec = normalizeStreak(rec)
		return WellnessResult{
			Outcome:         domain.OK(),
			Activity:        activity,
			Streak:          rec,
			NewAchievements: s.checkWellness(ctx, userID, activity, rec),
		}, nil
	})
	if err != nil {
		return WellnessResult{Outcome: domain.Failed(err), Activity: activity, NewAchievements: []domain.AchievementDef{}}
	}
	return v.(WellnessResult)
}

func (s *Service) checkWellness(ctx context.Context, userID uuid.UUID, activity domain.WellnessActivity, rec domain.StreakRecord) []domain.AchievementDef {
	unlocked := []domain.AchievementDef{}
	unlocked = s.awardOneShot(ctx, userID, string(activity)+"_first", unlocked)
	unlocked = s.awardLadder(ctx, userID, s.catalog.Ladder(domain.CatWellness, wellnessMetrics[activity]), rec.CurrentStreak, unlocked)

	tarot, iching := rec, rec
	switch activity {
	case domain.WellnessTarot:
		iching = s.fetchStreak(ctx, userID, domain.StreakIChing)
	case domain.WellnessIChing:
		tarot = s.fetchStreak(ctx, userID, domain.StreakTarot)
	default:
		tarot = s.fetchStreak(ctx, userID, domain.StreakTarot)
		iching = s.fetchStreak(ctx, userID, domain.StreakIChing)
	}
	if tarot.CurrentStreak >= holisticThreshold && iching.CurrentStreak >= holisticThreshold {
		unlocked = s.awardOneShot(ctx, userID, "holistic_master", unlocked)
	}
	return unlocked
}

// ─── Social ─────────────────────────────────────────────────────────────────

var socialMetrics = map[domain.SocialActivity]domain.Metric{
	domain.SocialPost:      domain.MetricPosts,
	domain.SocialComment:   domain.MetricComments,
	domain.SocialFollower:  domain.MetricFollowers,
	domain.SocialGiftSent:  domain.MetricGiftsSent,
	domain.SocialViralPost: domain.MetricViralPosts,
	domain.SocialReferral:  domain.MetricReferrals,
}

// SocialResult is the reply of the social operations.
type SocialResult struct {
	domain.Outcome
	Activity        domain.SocialActivity   `json:"activity"`
	Stats           domain.SocialStats      `json:"stats"`
	NewAchievements []domain.AchievementDef `json:"new_achievements"`
}

// TrackSocialActivity increments a social counter and checks its ladder.
func (s *Service) TrackSocialActivity(ctx context.Context, userID uuid.UUID, activity domain.SocialActivity) SocialResult {
	if _, ok := socialMetrics[activity]; !ok || userID == uuid.Nil {
		return SocialResult{Outcome: domain.Failed(invalidActivity(userID, string(activity))), Activity: activity, NewAchievements: []domain.AchievementDef{}}
	}
	return s.social(ctx, userID, activity, domain.OpTrackSocialActivity, func() (domain.SocialStats, error) {
		return s.backend.TrackSocialActivity(ctx, userID, activity)
	})
}

// UpdateSocialStats sets an absolute counter value (e.g. follower count from
// the social graph) and checks its ladder.
func (s *Service) UpdateSocialStats(ctx context.Context, userID uuid.UUID, stat domain.SocialActivity, value int) SocialResult {
	if _, ok := socialMetrics[stat]; !ok || userID == uuid.Nil {
		return SocialResult{Outcome: domain.Failed(invalidActivity(userID, string(stat))), Activity: stat, NewAchievements: []domain.AchievementDef{}}
	}
	if value < 0 {
		err := fmt.Errorf("%w: %s = %d", domain.ErrInvalidStat, stat, value)
		return SocialResult{Outcome: domain.Failed(err), Activity: stat, NewAchievements: []domain.AchievementDef{}}
	}
	return s.social(ctx, userID, stat, domain.OpUpdateSocialStats, func() (domain.SocialStats, error) {
		return s.backend.UpdateSocialStats(ctx, userID, stat, value)
	})
}

// GetSocialStats returns the user's social counters.
func (s *Service) GetSocialStats(ctx context.Context, userID uuid.UUID) SocialResult {
	stats, err := s.backend.GetSocialStats(ctx, userID)
	if err != nil {
		if s.degrade(domain.OpGetSocialStats, err) {
			return SocialResult{Outcome: domain.DegradedOK()}
		}
		return SocialResult{Outcome: domain.Failed(err), NewAchievements: []domain.AchievementDef{}}
	}
	return SocialResult{Outcome: domain.OK(), Stats: stats}
}

func (s *Service) social(ctx context.Context, userID uuid.UUID, activity domain.SocialActivity, op string, call func() (domain.SocialStats, error)) SocialResult {
	v, err := s.guarded(ctx, userID, "social", string(activity), func() (any, error) {
		stats, err := call()
		if err != nil {
			if s.degrade(op, err) {
				return SocialResult{Outcome: domain.DegradedOK(), Activity: activity, NewAchievements: []domain.AchievementDef{}}, nil
			}
			return SocialResult{Outcome: domain.Failed(err), Activity: activity, NewAchievements: []domain.AchievementDef{}}, nil
		}
		ladder := s.catalog.Ladder(domain.CatSocial, socialMetrics[activity])
		return SocialResult{
			Outcome:         domain.OK(),
			Activity:        activity,
			Stats:           stats,
			NewAchievements: s.awardLadder(ctx, userID, ladder, stats.Count(activity), []domain.AchievementDef{}),
		}, nil
	})
	if err != nil {
		return SocialResult{Outcome: domain.Failed(err), Activity: activity, NewAchievements: []domain.AchievementDef{}}
	}
	return v.(SocialResult)
}

// ─── Trading ────────────────────────────────────────────────────────────────

// TradingResult is the reply of TrackTradingActivity.
type TradingResult struct {
	domain.Outcome
	Activity        domain.TradingActivity  `json:"activity"`
	Stats           domain.TradingStats     `json:"stats"`
	NewAchievements []domain.AchievementDef `json:"new_achievements"`
}

// TrackTradingActivity records a logged trade and checks the trade count and
// win streak ladders.
func (s *Service) TrackTradingActivity(ctx context.Context, userID uuid.UUID, activity domain.TradingActivity) TradingResult {
	switch activity {
	case domain.TradingTrade, domain.TradingWinning, domain.TradingLosing:
	default:
		return TradingResult{Outcome: domain.Failed(invalidActivity(userID, string(activity))), Activity: activity, NewAchievements: []domain.AchievementDef{}}
	}
	if userID == uuid.Nil {
		return TradingResult{Outcome: domain.Failed(domain.ErrInvalidUser), Activity: activity, NewAchievements: []domain.AchievementDef{}}
	}

	v, err := s.guarded(ctx, userID, "trading", string(activity), func() (any, error) {
		stats, err := s.backend.TrackTradingActivity(ctx, userID, activity)
		if err != nil {
			if s.degrade(domain.OpTrackTradingActivity, err) {
				return TradingResult{Outcome: domain.DegradedOK(), Activity: activity, NewAchievements: []domain.AchievementDef{}}, nil
			}
			return TradingResult{Outcome: domain.Failed(err), Activity: activity, NewAchievements: []domain.AchievementDef{}}, nil
		}
		unlocked := []domain.AchievementDef{}
		unlocked = s.awardLadder(ctx, userID, s.catalog.Ladder(domain.CatTrading, domain.MetricTrades), stats.TotalTrades, unlocked)
		unlocked = s.awardLadder(ctx, userID, s.catalog.Ladder(domain.CatTrading, domain.MetricWinStreak), stats.CurrentWinStreak, unlocked)
		return TradingResult{Outcome: domain.OK(), Activity: activity, Stats: stats, NewAchievements: unlocked}, nil
	})
	if err != nil {
		return TradingResult{Outcome: domain.Failed(err), Activity: activity, NewAchievements: []domain.AchievementDef{}}
	}
	return v.(TradingResult)
}

func invalidActivity(userID uuid.UUID, activity string) error {
	if userID == uuid.Nil {
		return domain.ErrInvalidUser
	}
	return fmt.Errorf("%w: %q", domain.ErrInvalidActivity, activity)
}
