package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// ─── Errors ─────────────────────────────────────────────────────────────────

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"invalid category", ErrInvalidCategory, KindValidation},
		{"wrapped invalid user", fmt.Errorf("load: %w", ErrInvalidUser), KindValidation},
		{"invalid stat", ErrInvalidStat, KindValidation},
		{"capability absent", ErrCapabilityAbsent, KindNotSupported},
		{"backend error", NewBackendError(OpGetUserStreak, KindNotSupported, errors.New("42883")), KindNotSupported},
		{"wrapped backend error", fmt.Errorf("x: %w", NewBackendError("op", KindValidation, errors.New("bad"))), KindValidation},
		{"unknown", errors.New("connection reset"), KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBackendError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewBackendError(OpAwardAchievement, KindTransient, inner)
	if !errors.Is(err, inner) {
		t.Error("BackendError should unwrap to its cause")
	}
	if err.Error() != "award_achievement: transient: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

// ─── Outcome ────────────────────────────────────────────────────────────────

func TestOutcomeHelpers(t *testing.T) {
	if o := OK(); !o.Success || o.Degraded || o.Error != "" {
		t.Errorf("unexpected OK %+v", o)
	}
	if o := DegradedOK(); !o.Success || !o.Degraded {
		t.Errorf("unexpected DegradedOK %+v", o)
	}

	o := Failed(ErrInvalidCategory)
	if o.Success || o.ErrorKind != KindValidation || o.Error != ErrInvalidCategory.Error() {
		t.Errorf("unexpected Failed %+v", o)
	}
	if o.Envelope() != o {
		t.Error("Envelope should return the outcome itself")
	}
}

// ─── Value Helpers ──────────────────────────────────────────────────────────

func TestDailyCompletionStatus_Done(t *testing.T) {
	s := ZeroDailyStatus(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if s.Multiplier != 1.0 {
		t.Errorf("expected multiplier 1.0, got %v", s.Multiplier)
	}
	s.HabitDone = true
	s.ActionDone = true

	tests := []struct {
		c    QuestCategory
		want bool
	}{
		{QuestAffirmation, false},
		{QuestHabit, true},
		{QuestGoal, false},
		{QuestAction, true},
		{QuestCategory("meditate"), false},
	}
	for _, tt := range tests {
		if got := s.Done(tt.c); got != tt.want {
			t.Errorf("Done(%s) = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestSocialStats_Count(t *testing.T) {
	s := SocialStats{Posts: 1, Comments: 2, Followers: 3, GiftsSent: 4, ViralPosts: 5, Referrals: 6}
	want := map[SocialActivity]int{
		SocialPost: 1, SocialComment: 2, SocialFollower: 3,
		SocialGiftSent: 4, SocialViralPost: 5, SocialReferral: 6,
		SocialActivity("like"): 0,
	}
	for a, n := range want {
		if got := s.Count(a); got != n {
			t.Errorf("Count(%s) = %d, want %d", a, got, n)
		}
	}
}

func TestPracticeLevelForDays(t *testing.T) {
	tests := []struct {
		days int
		want PracticeLevel
	}{
		{0, PracticeInactive},
		{1, PracticeCasual},
		{5, PracticeCasual},
		{6, PracticeRegular},
		{15, PracticeCommitted},
		{24, PracticeCommitted},
		{25, PracticeDevoted},
		{30, PracticeDevoted},
	}
	for _, tt := range tests {
		if got := PracticeLevelForDays(tt.days); got != tt.want {
			t.Errorf("PracticeLevelForDays(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestEmptyValues(t *testing.T) {
	if !(HealthSnapshot{}).Empty() {
		t.Error("zero snapshot should be empty")
	}
	if (HealthSnapshot{Date: time.Now()}).Empty() {
		t.Error("dated snapshot should not be empty")
	}
	if z := ZeroStreak(StreakCombo); z.StreakType != StreakCombo || z.CurrentStreak != 0 {
		t.Errorf("unexpected zero streak %+v", z)
	}
	st := NewOnboardingState()
	if st.ViewedTooltips == nil || st.DismissedDiscoveries == nil || st.TourProgress == nil {
		t.Error("onboarding maps should be non-nil")
	}
}
