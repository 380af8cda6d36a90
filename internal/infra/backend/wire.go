package backend

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gemral/gem/internal/domain"
)

// ─── Wire Types ─────────────────────────────────────────────────────────────
// jsonb replies of the remote functions. Dates arrive as Postgres "date"
// values ("2006-01-02") or timestamps.

type wireDate struct {
	t *time.Time
}

var dateLayouts = []string{"2006-01-02", time.RFC3339Nano, "2006-01-02T15:04:05.999999"}

func (d *wireDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		d.t = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.t = &t
			return nil
		}
	}
	return fmt.Errorf("date: unrecognized format %q", s)
}

func (d wireDate) value() time.Time {
	if d.t == nil {
		return time.Time{}
	}
	return *d.t
}

type wireStreak struct {
	StreakType         string   `json:"streak_type"`
	CurrentStreak      int      `json:"current_streak"`
	LongestStreak      int      `json:"longest_streak"`
	TotalCompletions   int      `json:"total_completions"`
	LastCompletionDate wireDate `json:"last_completion_date"`
	FreezeCount        int      `json:"freeze_count"`
}

func (w wireStreak) toDomain(fallback domain.StreakType) domain.StreakRecord {
	t := domain.StreakType(w.StreakType)
	if t == "" {
		t = fallback
	}
	return domain.StreakRecord{
		StreakType:         t,
		CurrentStreak:      w.CurrentStreak,
		LongestStreak:      w.LongestStreak,
		TotalCompletions:   w.TotalCompletions,
		LastCompletionDate: w.LastCompletionDate.t,
		FreezeCount:        w.FreezeCount,
	}
}

type wireDaily struct {
	Date            wireDate `json:"date"`
	AffirmationDone bool     `json:"affirmation_done"`
	HabitDone       bool     `json:"habit_done"`
	GoalDone        bool     `json:"goal_done"`
	ActionDone      bool     `json:"action_done"`
	ComboCount      int      `json:"combo_count"`
	Multiplier      float64  `json:"multiplier"`
}

func (w wireDaily) toDomain() domain.DailyCompletionStatus {
	m := w.Multiplier
	if m < 1.0 {
		m = 1.0
	}
	return domain.DailyCompletionStatus{
		Date:            w.Date.value(),
		AffirmationDone: w.AffirmationDone,
		HabitDone:       w.HabitDone,
		GoalDone:        w.GoalDone,
		ActionDone:      w.ActionDone,
		ComboCount:      w.ComboCount,
		Multiplier:      m,
	}
}

type wireCompletion struct {
	wireDaily
	IsFullCombo  bool `json:"is_full_combo"`
	IsFullCombo4 bool `json:"is_full_combo_4"`
}

func (w wireCompletion) toDomain() domain.CompletionData {
	status := w.wireDaily.toDomain()
	return domain.CompletionData{
		Status:       status,
		ComboCount:   status.ComboCount,
		Multiplier:   status.Multiplier,
		IsFullCombo:  w.IsFullCombo,
		IsFullCombo4: w.IsFullCombo4 || status.ComboCount >= 4,
	}
}

type wireGridDay struct {
	Date            wireDate `json:"date"`
	AffirmationDone bool     `json:"affirmation_done"`
	HabitDone       bool     `json:"habit_done"`
	GoalDone        bool     `json:"goal_done"`
	ActionDone      bool     `json:"action_done"`
	ComboCount      int      `json:"combo_count"`
}

func (w wireGridDay) toDomain() domain.HabitGridDay {
	return domain.HabitGridDay{
		Date:            w.Date.value(),
		AffirmationDone: w.AffirmationDone,
		HabitDone:       w.HabitDone,
		GoalDone:        w.GoalDone,
		ActionDone:      w.ActionDone,
		ComboCount:      w.ComboCount,
	}
}

type wireSocial struct {
	PostCount      int `json:"post_count"`
	CommentCount   int `json:"comment_count"`
	FollowerCount  int `json:"follower_count"`
	GiftSentCount  int `json:"gift_sent_count"`
	ViralPostCount int `json:"viral_post_count"`
	ReferralCount  int `json:"referral_count"`
}

func (w wireSocial) toDomain() domain.SocialStats {
	return domain.SocialStats{
		Posts:      w.PostCount,
		Comments:   w.CommentCount,
		Followers:  w.FollowerCount,
		GiftsSent:  w.GiftSentCount,
		ViralPosts: w.ViralPostCount,
		Referrals:  w.ReferralCount,
	}
}

type wireHealth struct {
	UserID         string          `json:"user_id"`
	SnapshotDate   wireDate        `json:"snapshot_date"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	BalancePct     float64         `json:"balance_pct"`
	HealthStatus   string          `json:"health_status"`
	DailyChangePct float64         `json:"daily_change_pct"`
}

func (w wireHealth) toDomain() domain.HealthSnapshot {
	return domain.HealthSnapshot{
		Date:           w.SnapshotDate.value(),
		Balance:        w.Balance,
		InitialBalance: w.InitialBalance,
		BalancePct:     w.BalancePct,
		HealthStatus:   domain.HealthStatus(w.HealthStatus),
		DailyChangePct: w.DailyChangePct,
	}
}
