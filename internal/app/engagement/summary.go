package engagement

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gemral/gem/internal/domain"
)

// HabitGridDays is the window of the GitHub-style habit grid.
const HabitGridDays = 35

// Summary part names reported in FailedParts.
const (
	PartDailyStatus  = "daily_status"
	PartComboStreak  = "combo_streak"
	PartStreaks      = "streaks"
	PartHabitGrid    = "habit_grid"
	PartAchievements = "achievements"
)

// SummaryResult is the reply of GetGamificationSummary.
// Success is always true; failed pieces hold zero values and are listed in FailedParts.
type SummaryResult struct {
	domain.Outcome
	DailyStatus  domain.DailyCompletionStatus `json:"daily_status"`
	ComboStreak  domain.StreakRecord          `json:"combo_streak"`
	Streaks      []domain.StreakRecord        `json:"streaks"`
	HabitGrid    []domain.HabitGridDay        `json:"habit_grid"`
	Achievements []domain.UnlockedAchievement `json:"achievements"`
	TotalPoints  int                          `json:"total_points"`
	FailedParts  []string                     `json:"failed_parts,omitempty"`
}

// UnlockedView joins an unlock row with its catalog definition.
type UnlockedView struct {
	domain.UnlockedAchievement
	Definition *domain.AchievementDef `json:"definition,omitempty"`
}

// AchievementsResult is the reply of GetAchievements.
type AchievementsResult struct {
	domain.Outcome
	Unlocked    []UnlockedView `json:"unlocked"`
	TotalPoints int            `json:"total_points"`
	Total       int            `json:"total"`
}

// GetGamificationSummary fetches every summary piece concurrently and joins on
// all of them. A failing piece never fails the summary.
func (s *Service) GetGamificationSummary(ctx context.Context, userID uuid.UUID) SummaryResult {
	res := SummaryResult{
		Outcome:      domain.OK(),
		DailyStatus:  domain.ZeroDailyStatus(dayOf(s.now())),
		ComboStreak:  domain.ZeroStreak(domain.StreakCombo),
		Streaks:      []domain.StreakRecord{},
		HabitGrid:    []domain.HabitGridDay{},
		Achievements: []domain.UnlockedAchievement{},
	}

	var (
		mu       sync.Mutex
		failed   []string
		degraded bool
	)
	fail := func(part, op string, err error) {
		unsupported := s.degrade(op, err)
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, part)
		degraded = degraded || unsupported
	}

	// Goroutines never return an error: settle all, never fail fast.
	var g errgroup.Group

	g.Go(func() error {
		status, err := s.backend.GetDailyCompletionStatus(ctx, userID)
		if err != nil {
			fail(PartDailyStatus, domain.OpGetDailyStatus, err)
			return nil
		}
		res.DailyStatus = status
		return nil
	})
	g.Go(func() error {
		rec, err := s.backend.GetUserStreak(ctx, userID, domain.StreakCombo)
		if err != nil {
			fail(PartComboStreak, domain.OpGetUserStreak, err)
			return nil
		}
		res.ComboStreak = normalizeStreak(rec)
		return nil
	})
	g.Go(func() error {
		recs, err := s.backend.GetAllUserStreaks(ctx, userID)
		if err != nil {
			fail(PartStreaks, domain.OpGetAllUserStreaks, err)
			return nil
		}
		streaks := make([]domain.StreakRecord, 0, len(recs))
		for _, r := range recs {
			streaks = append(streaks, normalizeStreak(r))
		}
		res.Streaks = streaks
		return nil
	})
	g.Go(func() error {
		grid, err := s.backend.GetHabitGridData(ctx, userID, HabitGridDays)
		if err != nil {
			fail(PartHabitGrid, domain.OpGetHabitGridData, err)
			return nil
		}
		if grid != nil {
			res.HabitGrid = grid
		}
		return nil
	})
	g.Go(func() error {
		unlocked, err := s.backend.GetUserAchievements(ctx, userID)
		if err != nil {
			fail(PartAchievements, domain.OpGetUserAchievements, err)
			return nil
		}
		if unlocked != nil {
			res.Achievements = unlocked
		}
		return nil
	})

	_ = g.Wait()

	res.TotalPoints = TotalPoints(res.Achievements)
	sort.Strings(failed)
	res.FailedParts = failed
	res.Degraded = degraded
	return res
}

// GetAchievements returns the unlocked achievements joined with the catalog.
func (s *Service) GetAchievements(ctx context.Context, userID uuid.UUID) AchievementsResult {
	res := AchievementsResult{Unlocked: []UnlockedView{}, Total: s.catalog.Len()}

	unlocked, err := s.backend.GetUserAchievements(ctx, userID)
	if err != nil {
		if s.degrade(domain.OpGetUserAchievements, err) {
			res.Outcome = domain.DegradedOK()
			return res
		}
		res.Outcome = domain.Failed(err)
		return res
	}

	for _, u := range unlocked {
		view := UnlockedView{UnlockedAchievement: u}
		if def, ok := s.catalog.Get(u.AchievementID); ok {
			view.Definition = &def
		}
		res.Unlocked = append(res.Unlocked, view)
	}
	res.TotalPoints = TotalPoints(unlocked)
	res.Outcome = domain.OK()
	return res
}

// TotalPoints sums the points awarded across unlock rows.
func TotalPoints(unlocked []domain.UnlockedAchievement) int {
	total := 0
	for _, u := range unlocked {
		total += u.PointsAwarded
	}
	return total
}
