package domain

import (
	"context"

	"github.com/google/uuid"
)

// ─── Backend Interfaces ─────────────────────────────────────────────────────
// The remote backend is a black box. Every operation may be absent in a given
// deployment; implementations report that as a KindNotSupported BackendError.

// GamificationBackend is the remote contract for streaks, combos and awards.
type GamificationBackend interface {
	TrackDailyCompletion(ctx context.Context, userID uuid.UUID, category QuestCategory) (CompletionData, error)
	GetDailyCompletionStatus(ctx context.Context, userID uuid.UUID) (DailyCompletionStatus, error)
	GetUserStreak(ctx context.Context, userID uuid.UUID, streakType StreakType) (StreakRecord, error)
	GetAllUserStreaks(ctx context.Context, userID uuid.UUID) ([]StreakRecord, error)
	GetHabitGridData(ctx context.Context, userID uuid.UUID, days int) ([]HabitGridDay, error)

	// AwardAchievement returns true only if this call inserted the unlock row.
	AwardAchievement(ctx context.Context, req AwardRequest) (bool, error)
	GetUserAchievements(ctx context.Context, userID uuid.UUID) ([]UnlockedAchievement, error)

	TrackWellnessActivity(ctx context.Context, userID uuid.UUID, activity WellnessActivity) (StreakRecord, error)
	TrackSocialActivity(ctx context.Context, userID uuid.UUID, activity SocialActivity) (SocialStats, error)
	UpdateSocialStats(ctx context.Context, userID uuid.UUID, stat SocialActivity, value int) (SocialStats, error)
	GetSocialStats(ctx context.Context, userID uuid.UUID) (SocialStats, error)
	TrackTradingActivity(ctx context.Context, userID uuid.UUID, activity TradingActivity) (TradingStats, error)
}

// AnalyticsBackend is the remote contract for pre-aggregated analytics.
// Nothing behind it is computed by this module.
type AnalyticsBackend interface {
	UserProgressAnalysis(ctx context.Context, userID uuid.UUID) (ProgressAnalysis, error)
	GetUserCohortComparison(ctx context.Context, userID uuid.UUID) (CohortComparison, error)
	GetAccountHealthSnapshot(ctx context.Context, userID uuid.UUID) (HealthSnapshot, error)
}

// Backend is a full remote backend.
type Backend interface {
	GamificationBackend
	AnalyticsBackend
}

// ─── Remote Operation Names ─────────────────────────────────────────────────
// Names of the remote functions. Used for logging, metrics and fault injection.

const (
	OpTrackDailyCompletion  = "track_daily_completion"
	OpGetDailyStatus        = "get_daily_completion_status"
	OpGetUserStreak         = "get_user_streak"
	OpGetAllUserStreaks     = "get_all_user_streaks"
	OpGetHabitGridData      = "get_habit_grid_data"
	OpAwardAchievement      = "award_achievement"
	OpGetUserAchievements   = "get_user_achievements"
	OpTrackWellnessActivity = "track_wellness_activity"
	OpTrackSocialActivity   = "track_social_activity"
	OpUpdateSocialStats     = "update_social_stats"
	OpGetSocialStats        = "get_social_stats"
	OpTrackTradingActivity  = "track_trading_activity"
	OpUserProgressAnalysis  = "user_progress_analysis"
	OpGetCohortComparison   = "get_user_cohort_comparison"
	OpGetAccountHealthSnap  = "get_account_health_snapshot"
)
