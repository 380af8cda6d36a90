package engagement

import (
	"context"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/domain"
)

// Streak continuity (same day no-op, next day +1, freeze credits, reset to 1)
// is decided by the backend. The client only reads the records and never
// assumes continuity without asking.

// GetStreak returns one streak record. A missing capability yields a zeroed
// record with success.
func (s *Service) GetStreak(ctx context.Context, userID uuid.UUID, t domain.StreakType) StreakResult {
	if t == "" {
		t = domain.StreakCombo
	}
	rec, err := s.backend.GetUserStreak(ctx, userID, t)
	if err != nil {
		if s.degrade(domain.OpGetUserStreak, err) {
			return StreakResult{Outcome: domain.DegradedOK(), StreakRecord: domain.ZeroStreak(t)}
		}
		return StreakResult{Outcome: domain.Failed(err), StreakRecord: domain.ZeroStreak(t)}
	}
	if rec.StreakType == "" {
		rec.StreakType = t
	}
	return StreakResult{Outcome: domain.OK(), StreakRecord: normalizeStreak(rec)}
}

// GetAllStreaks returns every streak record of a user.
// When the capability is absent the core streak types are returned zeroed.
func (s *Service) GetAllStreaks(ctx context.Context, userID uuid.UUID) StreaksResult {
	recs, err := s.backend.GetAllUserStreaks(ctx, userID)
	if err != nil {
		if s.degrade(domain.OpGetAllUserStreaks, err) {
			return StreaksResult{Outcome: domain.DegradedOK(), Streaks: zeroStreaks()}
		}
		return StreaksResult{Outcome: domain.Failed(err), Streaks: zeroStreaks()}
	}
	out := make([]domain.StreakRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, normalizeStreak(r))
	}
	return StreaksResult{Outcome: domain.OK(), Streaks: out}
}

func zeroStreaks() []domain.StreakRecord {
	out := make([]domain.StreakRecord, 0, len(domain.CoreStreakTypes))
	for _, t := range domain.CoreStreakTypes {
		out = append(out, domain.ZeroStreak(t))
	}
	return out
}

// normalizeStreak clamps negative counters and restores current <= longest.
func normalizeStreak(r domain.StreakRecord) domain.StreakRecord {
	if r.CurrentStreak < 0 {
		r.CurrentStreak = 0
	}
	if r.TotalCompletions < 0 {
		r.TotalCompletions = 0
	}
	if r.FreezeCount < 0 {
		r.FreezeCount = 0
	}
	if r.LongestStreak < r.CurrentStreak {
		r.LongestStreak = r.CurrentStreak
	}
	return r
}
