package engagement

import (
	"sort"
	"time"

	"github.com/gemral/gem/internal/domain"
)

// ─── View Models ────────────────────────────────────────────────────────────
// UI-ready shapes built from service results. Pure functions.

// GamificationView is the dashboard card.
type GamificationView struct {
	LevelInfo
	TotalPoints        int                          `json:"total_points"`
	CurrentStreak      int                          `json:"current_streak"`
	LongestStreak      int                          `json:"longest_streak"`
	TodayCombo         int                          `json:"today_combo"`
	Multiplier         float64                      `json:"multiplier"`
	Quests             []QuestStatus                `json:"quests"`
	UnlockedCount      int                          `json:"unlocked_count"`
	TotalAchievements  int                          `json:"total_achievements"`
	RecentAchievements []domain.UnlockedAchievement `json:"recent_achievements"`
	HabitGrid          []domain.HabitGridDay        `json:"habit_grid"`
}

// recentLimit caps RecentAchievements.
const recentLimit = 5

// BuildGamificationView adapts a summary into the dashboard card.
func BuildGamificationView(sum SummaryResult, catalog *Catalog) GamificationView {
	recent := make([]domain.UnlockedAchievement, len(sum.Achievements))
	copy(recent, sum.Achievements)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].UnlockedAt.After(recent[j].UnlockedAt) })
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	multiplier := sum.DailyStatus.Multiplier
	if multiplier < 1.0 {
		multiplier = MultiplierForCombo(sum.DailyStatus.ComboCount)
	}

	total := 0
	if catalog != nil {
		total = catalog.Len()
	}

	return GamificationView{
		LevelInfo:          LevelFor(int64(sum.TotalPoints)),
		TotalPoints:        sum.TotalPoints,
		CurrentStreak:      sum.ComboStreak.CurrentStreak,
		LongestStreak:      sum.ComboStreak.LongestStreak,
		TodayCombo:         sum.DailyStatus.ComboCount,
		Multiplier:         multiplier,
		Quests:             QuestBoard(sum.DailyStatus),
		UnlockedCount:      len(sum.Achievements),
		TotalAchievements:  total,
		RecentAchievements: recent,
		HabitGrid:          sum.HabitGrid,
	}
}

// StreakView is the streak widget.
type StreakView struct {
	StreakType       domain.StreakType `json:"streak_type"`
	Current          int               `json:"current"`
	Longest          int               `json:"longest"`
	TotalCompletions int               `json:"total_completions"`
	FreezeCount      int               `json:"freeze_count"`
	IsActiveToday    bool              `json:"is_active_today"`
	NextMilestone    int               `json:"next_milestone,omitempty"`
	DaysToMilestone  int               `json:"days_to_milestone,omitempty"`
}

// BuildStreakView adapts a streak record. Milestones come from the combo
// streak ladder of the catalog.
func BuildStreakView(rec domain.StreakRecord, catalog *Catalog, now time.Time) StreakView {
	v := StreakView{
		StreakType:       rec.StreakType,
		Current:          rec.CurrentStreak,
		Longest:          rec.LongestStreak,
		TotalCompletions: rec.TotalCompletions,
		FreezeCount:      rec.FreezeCount,
	}
	if rec.LastCompletionDate != nil {
		v.IsActiveToday = dayOf(*rec.LastCompletionDate).Equal(dayOf(now))
	}
	if catalog == nil {
		return v
	}
	for _, def := range catalog.Ladder(domain.CatStreak, domain.MetricComboStreak) {
		if def.Threshold > rec.CurrentStreak {
			v.NextMilestone = def.Threshold
			v.DaysToMilestone = def.Threshold - rec.CurrentStreak
			break
		}
	}
	return v
}
