// Package domain holds the gamification types shared by every layer.
// Streaks, combos, achievements, account health and insights.
// Aggregation lives in the remote backend; these types describe its replies.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ─── Outcome Envelope ───────────────────────────────────────────────────────

// Outcome is embedded by every public result. A failed outcome is a no-op
// for the caller ("try again later"), never a fatal condition.
type Outcome struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Degraded  bool      `json:"degraded,omitempty"` // default served, backend capability absent
}

// Envelope returns the outcome. Promoted to every result embedding Outcome.
func (o Outcome) Envelope() Outcome { return o }

// OK returns a successful outcome.
func OK() Outcome { return Outcome{Success: true} }

// DegradedOK returns a successful outcome built from defaults.
func DegradedOK() Outcome { return Outcome{Success: true, Degraded: true} }

// Failed converts an error into a failed outcome.
func Failed(err error) Outcome {
	kind := KindOf(err)
	if kind == KindNone {
		kind = KindTransient
	}
	return Outcome{Success: false, Error: err.Error(), ErrorKind: kind}
}

// ─── Achievement Types ──────────────────────────────────────────────────────

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatStreak   AchievementCategory = "streak"
	CatCombo    AchievementCategory = "combo"
	CatAction   AchievementCategory = "action"
	CatTrading  AchievementCategory = "trading"
	CatWellness AchievementCategory = "wellness"
	CatSocial   AchievementCategory = "social"
)

// CategoryOrder is the display order of achievement categories.
var CategoryOrder = []AchievementCategory{CatStreak, CatCombo, CatAction, CatTrading, CatWellness, CatSocial}

// Metric names the counter a threshold achievement measures.
type Metric string

const (
	MetricNone             Metric = ""
	MetricComboStreak      Metric = "combo_streak"
	MetricActionStreak     Metric = "action_streak"
	MetricActionTotal      Metric = "action_total"
	MetricTarotStreak      Metric = "tarot_streak"
	MetricIChingStreak     Metric = "iching_streak"
	MetricMeditationStreak Metric = "meditation_streak"
	MetricPosts            Metric = "post_count"
	MetricComments         Metric = "comment_count"
	MetricFollowers        Metric = "follower_count"
	MetricGiftsSent        Metric = "gift_sent_count"
	MetricViralPosts       Metric = "viral_post_count"
	MetricReferrals        Metric = "referral_count"
	MetricTrades           Metric = "trade_count"
	MetricWinStreak        Metric = "win_streak"
)

// AchievementDef is an immutable catalog entry.
// Threshold == 0 marks a one-shot achievement.
type AchievementDef struct {
	ID          string              `json:"id"`
	Category    AchievementCategory `json:"category"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Points      int                 `json:"points"`
	Threshold   int                 `json:"threshold,omitempty"`
	Metric      Metric              `json:"metric,omitempty"`
}

// OneShot reports whether the achievement has no threshold.
func (a AchievementDef) OneShot() bool { return a.Threshold <= 0 }

// UnlockedAchievement is a per-user unlock row owned by the backend.
// PointsAwarded is copied at award time and never changes.
type UnlockedAchievement struct {
	UserID        uuid.UUID           `json:"user_id"`
	AchievementID string              `json:"achievement_id"`
	Category      AchievementCategory `json:"category"`
	PointsAwarded int                 `json:"points_awarded"`
	TriggerValue  *int                `json:"trigger_value,omitempty"`
	UnlockedAt    time.Time           `json:"unlocked_at"`
}

// AwardRequest is the input of the remote award operation.
type AwardRequest struct {
	UserID        uuid.UUID
	AchievementID string
	Category      AchievementCategory
	Points        int
	TriggerValue  *int
}

// ─── Streak Types ───────────────────────────────────────────────────────────

// StreakType identifies what a streak counts.
type StreakType string

const (
	StreakCombo       StreakType = "combo"
	StreakAction      StreakType = "action"
	StreakAffirmation StreakType = "affirmation"
	StreakHabit       StreakType = "habit"
	StreakGoal        StreakType = "goal"
	StreakTarot       StreakType = "tarot"
	StreakIChing      StreakType = "iching"
	StreakMeditation  StreakType = "meditation"
	StreakGeneral     StreakType = "general"
	StreakChat        StreakType = "chat"
	StreakRitual      StreakType = "ritual"
	StreakGratitude   StreakType = "gratitude"
	StreakDivination  StreakType = "divination"
)

// CoreStreakTypes are returned zeroed when the streak backend is absent.
var CoreStreakTypes = []StreakType{
	StreakCombo, StreakAction, StreakAffirmation, StreakHabit, StreakGoal,
	StreakTarot, StreakIChing, StreakMeditation,
}

// StreakRecord is one streak counter. Invariant: CurrentStreak <= LongestStreak.
type StreakRecord struct {
	StreakType         StreakType `json:"streak_type"`
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	TotalCompletions   int        `json:"total_completions"`
	LastCompletionDate *time.Time `json:"last_completion_date"`
	FreezeCount        int        `json:"freeze_count"`
}

// ZeroStreak returns the default record for a streak type.
func ZeroStreak(t StreakType) StreakRecord {
	return StreakRecord{StreakType: t}
}

// ─── Daily Quest / Combo Types ──────────────────────────────────────────────

// QuestCategory is one of the four daily quest categories.
type QuestCategory string

const (
	QuestAffirmation QuestCategory = "affirmation"
	QuestHabit       QuestCategory = "habit"
	QuestGoal        QuestCategory = "goal"
	QuestAction      QuestCategory = "action"
)

// DailyCompletionStatus is the per-day quest record. Flags only go false->true.
type DailyCompletionStatus struct {
	Date            time.Time `json:"date"`
	AffirmationDone bool      `json:"affirmation_done"`
	HabitDone       bool      `json:"habit_done"`
	GoalDone        bool      `json:"goal_done"`
	ActionDone      bool      `json:"action_done"`
	ComboCount      int       `json:"combo_count"`
	Multiplier      float64   `json:"multiplier"`
}

// ZeroDailyStatus returns the all-false status for a day.
func ZeroDailyStatus(day time.Time) DailyCompletionStatus {
	return DailyCompletionStatus{Date: day, Multiplier: 1.0}
}

// Done reports whether the given category flag is set.
func (d DailyCompletionStatus) Done(c QuestCategory) bool {
	switch c {
	case QuestAffirmation:
		return d.AffirmationDone
	case QuestHabit:
		return d.HabitDone
	case QuestGoal:
		return d.GoalDone
	case QuestAction:
		return d.ActionDone
	}
	return false
}

// CompletionData is the remote reply of track_daily_completion.
type CompletionData struct {
	Status       DailyCompletionStatus `json:"status"`
	ComboCount   int                   `json:"combo_count"`
	Multiplier   float64               `json:"multiplier"`
	IsFullCombo  bool                  `json:"is_full_combo"`   // the 3 legacy categories
	IsFullCombo4 bool                  `json:"is_full_combo_4"` // all 4 categories
}

// HabitGridDay is one cell of the habit grid.
type HabitGridDay struct {
	Date            time.Time `json:"date"`
	AffirmationDone bool      `json:"affirmation_done"`
	HabitDone       bool      `json:"habit_done"`
	GoalDone        bool      `json:"goal_done"`
	ActionDone      bool      `json:"action_done"`
	ComboCount      int       `json:"combo_count"`
}

// ─── Wellness / Social / Trading ────────────────────────────────────────────

// WellnessActivity is a tracked wellness practice.
type WellnessActivity string

const (
	WellnessTarot      WellnessActivity = "tarot"
	WellnessIChing     WellnessActivity = "iching"
	WellnessMeditation WellnessActivity = "meditation"
)

// SocialActivity is a tracked social counter.
type SocialActivity string

const (
	SocialPost      SocialActivity = "post"
	SocialComment   SocialActivity = "comment"
	SocialFollower  SocialActivity = "follower"
	SocialGiftSent  SocialActivity = "gift_sent"
	SocialViralPost SocialActivity = "viral_post"
	SocialReferral  SocialActivity = "referral"
)

// SocialStats are the user's social counters.
type SocialStats struct {
	Posts      int `json:"posts"`
	Comments   int `json:"comments"`
	Followers  int `json:"followers"`
	GiftsSent  int `json:"gifts_sent"`
	ViralPosts int `json:"viral_posts"`
	Referrals  int `json:"referrals"`
}

// Count returns the counter for an activity.
func (s SocialStats) Count(a SocialActivity) int {
	switch a {
	case SocialPost:
		return s.Posts
	case SocialComment:
		return s.Comments
	case SocialFollower:
		return s.Followers
	case SocialGiftSent:
		return s.GiftsSent
	case SocialViralPost:
		return s.ViralPosts
	case SocialReferral:
		return s.Referrals
	}
	return 0
}

// TradingActivity is a tracked trading event.
type TradingActivity string

const (
	TradingTrade   TradingActivity = "trade"
	TradingWinning TradingActivity = "winning_trade"
	TradingLosing  TradingActivity = "losing_trade"
)

// TradingStats are the user's trading counters.
type TradingStats struct {
	TotalTrades      int `json:"total_trades"`
	WinningTrades    int `json:"winning_trades"`
	CurrentWinStreak int `json:"current_win_streak"`
	BestWinStreak    int `json:"best_win_streak"`
}
