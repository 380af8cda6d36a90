package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/breaker"
)

var testUser = uuid.MustParse("5f0c7a7e-1c2d-4b8e-9a3f-0d1e2f3a4b5c")

func fixedClock(day int) func() time.Time {
	return func() time.Time { return time.Date(2026, 3, day, 9, 30, 0, 0, time.UTC) }
}

// ─── Classify ───────────────────────────────────────────────────────────────

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"nil", nil, domain.KindNone},
		{"undefined function", &pgconn.PgError{Code: "42883"}, domain.KindNotSupported},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, domain.KindNotSupported},
		{"undefined column", &pgconn.PgError{Code: "42703"}, domain.KindNotSupported},
		{"undefined object", &pgconn.PgError{Code: "42704"}, domain.KindNotSupported},
		{"feature not supported", &pgconn.PgError{Code: "0A000"}, domain.KindNotSupported},
		{"invalid parameter", &pgconn.PgError{Code: "22023"}, domain.KindValidation},
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.KindValidation},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, domain.KindTransient},
		{"wrapped pg error", fmt.Errorf("call: %w", &pgconn.PgError{Code: "42883"}), domain.KindNotSupported},
		{"plain error", errors.New("connection reset"), domain.KindTransient},
		{"classified", domain.NewBackendError("x", domain.KindValidation, errors.New("bad")), domain.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWrap_DeadlineIsTransient(t *testing.T) {
	err := wrap(domain.OpGetUserStreak, context.DeadlineExceeded)
	if domain.KindOf(err) != domain.KindTransient {
		t.Errorf("expected transient, got %q", domain.KindOf(err))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("wrapped error should unwrap to DeadlineExceeded")
	}
}

// ─── Memory Simulator ───────────────────────────────────────────────────────

func TestMemory_StreakContinuity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	steps := []struct {
		day     int
		current int
	}{
		{1, 1},
		{1, 1}, // same day is a no-op
		{2, 2},
		{3, 3},
		{6, 1}, // gap resets
		{7, 2},
	}
	for _, s := range steps {
		m.SetClock(fixedClock(s.day))
		if _, err := m.TrackDailyCompletion(ctx, testUser, domain.QuestAction); err != nil {
			t.Fatalf("day %d: %v", s.day, err)
		}
		rec, _ := m.GetUserStreak(ctx, testUser, domain.StreakAction)
		if rec.CurrentStreak != s.current {
			t.Errorf("day %d: expected streak %d, got %d", s.day, s.current, rec.CurrentStreak)
		}
	}

	rec, _ := m.GetUserStreak(ctx, testUser, domain.StreakAction)
	if rec.LongestStreak != 3 {
		t.Errorf("expected longest 3, got %d", rec.LongestStreak)
	}
	if rec.TotalCompletions != 5 {
		t.Errorf("expected 5 completions (same-day repeat not counted), got %d", rec.TotalCompletions)
	}
}

func TestMemory_FreezeCreditBridgesOneDay(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	last := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m.SetStreak(testUser, domain.StreakRecord{
		StreakType: domain.StreakTarot, CurrentStreak: 4, LongestStreak: 4,
		TotalCompletions: 4, LastCompletionDate: &last, FreezeCount: 1,
	})

	m.SetClock(fixedClock(3)) // missed day 2
	rec, err := m.TrackWellnessActivity(ctx, testUser, domain.WellnessTarot)
	if err != nil {
		t.Fatalf("TrackWellnessActivity: %v", err)
	}
	if rec.CurrentStreak != 5 || rec.FreezeCount != 0 {
		t.Errorf("expected streak 5 with 0 freezes, got %d / %d", rec.CurrentStreak, rec.FreezeCount)
	}

	m.SetClock(fixedClock(5)) // missed day 4, no freeze left
	rec, _ = m.TrackWellnessActivity(ctx, testUser, domain.WellnessTarot)
	if rec.CurrentStreak != 1 {
		t.Errorf("expected reset to 1, got %d", rec.CurrentStreak)
	}
}

func TestMemory_StreakGapUsesCalendarDays(t *testing.T) {
	tests := []struct {
		name        string
		last        time.Time
		now         time.Time
		wantCurrent int
		wantTotal   int
	}{
		{"late yesterday, early today",
			time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC), time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 7, 7},
		{"morning yesterday, morning today",
			time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 7, 7},
		{"earlier today",
			time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC), 6, 6},
		{"two days ago late, no freeze",
			time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC), 1, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory()
			last := tt.last
			m.SetStreak(testUser, domain.StreakRecord{
				StreakType: domain.StreakTarot, CurrentStreak: 6, LongestStreak: 6,
				TotalCompletions: 6, LastCompletionDate: &last,
			})
			now := tt.now
			m.SetClock(func() time.Time { return now })

			rec, err := m.TrackWellnessActivity(context.Background(), testUser, domain.WellnessTarot)
			if err != nil {
				t.Fatalf("TrackWellnessActivity: %v", err)
			}
			if rec.CurrentStreak != tt.wantCurrent || rec.TotalCompletions != tt.wantTotal {
				t.Errorf("expected current=%d total=%d, got current=%d total=%d",
					tt.wantCurrent, tt.wantTotal, rec.CurrentStreak, rec.TotalCompletions)
			}
			if tt.wantTotal == 7 {
				y, mo, d := now.Date()
				want := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
				if !rec.LastCompletionDate.Equal(want) {
					t.Errorf("expected last completion %v, got %v", want, rec.LastCompletionDate)
				}
			}
		})
	}
}

func TestMemory_ComboCounting(t *testing.T) {
	m := NewMemory()
	m.SetClock(fixedClock(10))
	ctx := context.Background()

	var data domain.CompletionData
	for _, c := range []domain.QuestCategory{domain.QuestAffirmation, domain.QuestHabit, domain.QuestGoal} {
		data, _ = m.TrackDailyCompletion(ctx, testUser, c)
	}
	if !data.IsFullCombo || data.IsFullCombo4 || data.ComboCount != 3 {
		t.Errorf("expected legacy full combo with 3, got %+v", data)
	}
	if data.Multiplier != 1.5 {
		t.Errorf("expected multiplier 1.5, got %v", data.Multiplier)
	}

	data, _ = m.TrackDailyCompletion(ctx, testUser, domain.QuestAction)
	if !data.IsFullCombo4 || data.ComboCount != 4 || data.Multiplier != 2.0 {
		t.Errorf("expected full combo 4, got %+v", data)
	}

	combo, _ := m.GetUserStreak(ctx, testUser, domain.StreakCombo)
	if combo.CurrentStreak != 1 || combo.TotalCompletions != 1 {
		t.Errorf("expected combo streak 1, got %+v", combo)
	}
}

func TestMemory_AwardUnique(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	req := domain.AwardRequest{UserID: testUser, AchievementID: "streak_7", Category: domain.CatStreak, Points: 70}

	first, err := m.AwardAchievement(ctx, req)
	if err != nil || !first {
		t.Fatalf("first award: %v %v", first, err)
	}
	second, err := m.AwardAchievement(ctx, req)
	if err != nil || second {
		t.Fatalf("second award should be false, got %v %v", second, err)
	}

	rows, _ := m.GetUserAchievements(ctx, testUser)
	if len(rows) != 1 || rows[0].PointsAwarded != 70 {
		t.Errorf("expected one row worth 70, got %+v", rows)
	}
}

func TestMemory_FaultInjection(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Disable(domain.OpGetUserStreak)
	_, err := m.GetUserStreak(ctx, testUser, domain.StreakCombo)
	if !domain.IsNotSupported(err) {
		t.Errorf("expected not supported, got %v", err)
	}

	m.Fail(domain.OpGetHabitGridData, errors.New("timeout"))
	_, err = m.GetHabitGridData(ctx, testUser, 35)
	if domain.KindOf(err) != domain.KindTransient {
		t.Errorf("expected transient, got %v", err)
	}

	if m.Calls(domain.OpGetUserStreak) != 1 || m.Calls(domain.OpGetHabitGridData) != 1 {
		t.Error("failed calls should still be counted")
	}

	m.ClearFaults()
	if _, err := m.GetUserStreak(ctx, testUser, domain.StreakCombo); err != nil {
		t.Errorf("expected no error after ClearFaults, got %v", err)
	}
}

func TestMemory_HabitGridWindow(t *testing.T) {
	m := NewMemory()
	m.SetClock(fixedClock(20))
	ctx := context.Background()
	_, _ = m.TrackDailyCompletion(ctx, testUser, domain.QuestHabit)

	grid, err := m.GetHabitGridData(ctx, testUser, 35)
	if err != nil {
		t.Fatalf("GetHabitGridData: %v", err)
	}
	if len(grid) != 35 {
		t.Fatalf("expected 35 days, got %d", len(grid))
	}
	lastDay := grid[len(grid)-1]
	if !lastDay.HabitDone || lastDay.ComboCount != 1 {
		t.Errorf("expected today's habit in last cell, got %+v", lastDay)
	}
	if !grid[0].Date.Before(lastDay.Date) {
		t.Error("grid should be in ascending date order")
	}
}

func TestMemory_Trading(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, a := range []domain.TradingActivity{domain.TradingWinning, domain.TradingWinning, domain.TradingLosing, domain.TradingWinning} {
		_, _ = m.TrackTradingActivity(ctx, testUser, a)
	}
	stats, _ := m.TrackTradingActivity(ctx, testUser, domain.TradingTrade)
	if stats.TotalTrades != 5 || stats.WinningTrades != 3 || stats.CurrentWinStreak != 1 || stats.BestWinStreak != 2 {
		t.Errorf("unexpected trading stats %+v", stats)
	}
}

// ─── Instrumented ───────────────────────────────────────────────────────────

func TestInstrumented_BreakerFailsFast(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	cb := breaker.New("test-backend", breaker.Config{FailureThreshold: 2, ResetTimeout: time.Minute})
	b := Instrument(m, cb)

	m.Fail(domain.OpGetUserStreak, errors.New("timeout"))
	for i := 0; i < 2; i++ {
		if _, err := b.GetUserStreak(ctx, testUser, domain.StreakCombo); err == nil {
			t.Fatal("expected injected failure")
		}
	}
	if cb.State() != breaker.Open {
		t.Fatalf("expected open breaker, got %s", cb.State())
	}

	calls := m.TotalCalls()
	_, err := b.GetDailyCompletionStatus(ctx, testUser)
	if !errors.Is(err, breaker.ErrOpen) || domain.KindOf(err) != domain.KindTransient {
		t.Errorf("expected transient ErrOpen, got %v", err)
	}
	if m.TotalCalls() != calls {
		t.Error("open breaker should not reach the backend")
	}
}

func TestInstrumented_NotSupportedKeepsBreakerClosed(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	cb := breaker.New("test-backend", breaker.Config{FailureThreshold: 1})
	b := Instrument(m, cb)

	m.Disable(domain.OpGetUserStreak)
	_, err := b.GetUserStreak(ctx, testUser, domain.StreakCombo)
	if !domain.IsNotSupported(err) {
		t.Fatalf("expected not supported, got %v", err)
	}
	if cb.State() != breaker.Closed {
		t.Errorf("absent capability should not trip the breaker, got %s", cb.State())
	}
}

// ─── Wire Decoding ──────────────────────────────────────────────────────────

func TestWireCompletion_Decode(t *testing.T) {
	raw := `{"date":"2026-03-04","affirmation_done":true,"habit_done":true,"goal_done":true,
		"action_done":false,"combo_count":3,"multiplier":1.5,"is_full_combo":true,"is_full_combo_4":false}`
	var w wireCompletion
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	data := w.toDomain()
	if !data.IsFullCombo || data.IsFullCombo4 || data.ComboCount != 3 {
		t.Errorf("unexpected completion %+v", data)
	}
	if data.Status.Date.Day() != 4 {
		t.Errorf("expected day 4, got %v", data.Status.Date)
	}
}

func TestWireStreak_NullDate(t *testing.T) {
	var w wireStreak
	if err := json.Unmarshal([]byte(`{"current_streak":0,"last_completion_date":null}`), &w); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	rec := w.toDomain(domain.StreakCombo)
	if rec.LastCompletionDate != nil || rec.StreakType != domain.StreakCombo {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestWireHealth_DecimalBalance(t *testing.T) {
	raw := `{"snapshot_date":"2026-03-04T00:00:00Z","balance":"4250.50","initial_balance":5000,
		"balance_pct":85.01,"health_status":"healthy","daily_change_pct":-1.2}`
	var w wireHealth
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	snap := w.toDomain()
	if snap.Balance.String() != "4250.5" || snap.InitialBalance.IntPart() != 5000 {
		t.Errorf("unexpected balances %s / %s", snap.Balance, snap.InitialBalance)
	}
}

func TestCallSQL(t *testing.T) {
	got := callSQL(domain.OpAwardAchievement, 3)
	want := "SELECT to_jsonb(award_achievement($1, $2, $3))"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestListSQL(t *testing.T) {
	got := listSQL(domain.OpGetHabitGridData, 2)
	want := "SELECT coalesce(jsonb_agg(to_jsonb(t)), '[]'::jsonb) FROM get_habit_grid_data($1, $2) t"
	if got != want {
		t.Errorf("listSQL = %q, want %q", got, want)
	}
}

func TestUnwrapList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"rows", `[{"streak_type":"habit"},{"streak_type":"goal"}]`, 2},
		{"single row", `[{"streak_type":"habit"}]`, 1},
		{"one jsonb array", `[[{"streak_type":"habit"},{"streak_type":"goal"}]]`, 2},
		{"one null", `[null]`, 0},
		{"empty", `[]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ws []wireStreak
			if err := json.Unmarshal(unwrapList([]byte(tt.raw)), &ws); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(ws) != tt.want {
				t.Errorf("expected %d records, got %d", tt.want, len(ws))
			}
		})
	}
}
