package backend

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/breaker"
	"github.com/gemral/gem/internal/infra/metrics"
)

// Instrumented records latency and outcome kind of every call of the wrapped
// backend. With a breaker, calls fail fast as transient while it is open.
type Instrumented struct {
	next    domain.Backend
	breaker *breaker.Breaker
}

// Instrument wraps a backend with Prometheus instrumentation. cb may be nil.
func Instrument(next domain.Backend, cb *breaker.Breaker) *Instrumented {
	return &Instrumented{next: next, breaker: cb}
}

func observe(op string, start time.Time, err error) {
	metrics.BackendLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	metrics.BackendCalls.WithLabelValues(op, outcome).Inc()
}

// call runs fn behind the breaker. Only transient failures count against
// it; an absent capability or a rejected argument is still an answer.
func call[T any](i *Instrumented, op string, fn func() (T, error)) (T, error) {
	if i.breaker != nil {
		if err := i.breaker.Allow(); err != nil {
			var zero T
			metrics.BackendCalls.WithLabelValues(op, "rejected").Inc()
			return zero, domain.NewBackendError(op, domain.KindTransient, err)
		}
	}

	start := time.Now()
	out, err := fn()
	observe(op, start, err)

	if i.breaker != nil {
		switch {
		case err == nil:
			i.breaker.RecordSuccess()
		case errors.Is(err, context.Canceled):
		case domain.KindOf(err) == domain.KindTransient:
			i.breaker.RecordFailure()
		default:
			i.breaker.RecordSuccess()
		}
	}
	return out, err
}

func (i *Instrumented) TrackDailyCompletion(ctx context.Context, userID uuid.UUID, category domain.QuestCategory) (domain.CompletionData, error) {
	return call(i, domain.OpTrackDailyCompletion, func() (domain.CompletionData, error) {
		return i.next.TrackDailyCompletion(ctx, userID, category)
	})
}

func (i *Instrumented) GetDailyCompletionStatus(ctx context.Context, userID uuid.UUID) (domain.DailyCompletionStatus, error) {
	return call(i, domain.OpGetDailyStatus, func() (domain.DailyCompletionStatus, error) {
		return i.next.GetDailyCompletionStatus(ctx, userID)
	})
}

func (i *Instrumented) GetUserStreak(ctx context.Context, userID uuid.UUID, streakType domain.StreakType) (domain.StreakRecord, error) {
	return call(i, domain.OpGetUserStreak, func() (domain.StreakRecord, error) {
		return i.next.GetUserStreak(ctx, userID, streakType)
	})
}

func (i *Instrumented) GetAllUserStreaks(ctx context.Context, userID uuid.UUID) ([]domain.StreakRecord, error) {
	return call(i, domain.OpGetAllUserStreaks, func() ([]domain.StreakRecord, error) {
		return i.next.GetAllUserStreaks(ctx, userID)
	})
}

func (i *Instrumented) GetHabitGridData(ctx context.Context, userID uuid.UUID, days int) ([]domain.HabitGridDay, error) {
	return call(i, domain.OpGetHabitGridData, func() ([]domain.HabitGridDay, error) {
		return i.next.GetHabitGridData(ctx, userID, days)
	})
}

func (i *Instrumented) AwardAchievement(ctx context.Context, req domain.AwardRequest) (bool, error) {
	return call(i, domain.OpAwardAchievement, func() (bool, error) {
		return i.next.AwardAchievement(ctx, req)
	})
}

func (i *Instrumented) GetUserAchievements(ctx context.Context, userID uuid.UUID) ([]domain.UnlockedAchievement, error) {
	return call(i, domain.OpGetUserAchievements, func() ([]domain.UnlockedAchievement, error) {
		return i.next.GetUserAchievements(ctx, userID)
	})
}

func (i *Instrumented) TrackWellnessActivity(ctx context.Context, userID uuid.UUID, activity domain.WellnessActivity) (domain.StreakRecord, error) {
	return call(i, domain.OpTrackWellnessActivity, func() (domain.StreakRecord, error) {
		return i.next.TrackWellnessActivity(ctx, userID, activity)
	})
}

func (i *Instrumented) TrackSocialActivity(ctx context.Context, userID uuid.UUID, activity domain.SocialActivity) (domain.SocialStats, error) {
	return call(i, domain.OpTrackSocialActivity, func() (domain.SocialStats, error) {
		return i.next.TrackSocialActivity(ctx, userID, activity)
	})
}

func (i *Instrumented) UpdateSocialStats(ctx context.Context, userID uuid.UUID, stat domain.SocialActivity, value int) (domain.SocialStats, error) {
	return call(i, domain.OpUpdateSocialStats, func() (domain.SocialStats, error) {
		return i.next.UpdateSocialStats(ctx, userID, stat, value)
	})
}

func (i *Instrumented) GetSocialStats(ctx context.Context, userID uuid.UUID) (domain.SocialStats, error) {
	return call(i, domain.OpGetSocialStats, func() (domain.SocialStats, error) {
		return i.next.GetSocialStats(ctx, userID)
	})
}

func (i *Instrumented) TrackTradingActivity(ctx context.Context, userID uuid.UUID, activity domain.TradingActivity) (domain.TradingStats, error) {
	return call(i, domain.OpTrackTradingActivity, func() (domain.TradingStats, error) {
		return i.next.TrackTradingActivity(ctx, userID, activity)
	})
}

func (i *Instrumented) UserProgressAnalysis(ctx context.Context, userID uuid.UUID) (domain.ProgressAnalysis, error) {
	return call(i, domain.OpUserProgressAnalysis, func() (domain.ProgressAnalysis, error) {
		return i.next.UserProgressAnalysis(ctx, userID)
	})
}

func (i *Instrumented) GetUserCohortComparison(ctx context.Context, userID uuid.UUID) (domain.CohortComparison, error) {
	return call(i, domain.OpGetCohortComparison, func() (domain.CohortComparison, error) {
		return i.next.GetUserCohortComparison(ctx, userID)
	})
}

func (i *Instrumented) GetAccountHealthSnapshot(ctx context.Context, userID uuid.UUID) (domain.HealthSnapshot, error) {
	return call(i, domain.OpGetAccountHealthSnap, func() (domain.HealthSnapshot, error) {
		return i.next.GetAccountHealthSnapshot(ctx, userID)
	})
}

var _ domain.Backend = (*Instrumented)(nil)
