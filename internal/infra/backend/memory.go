package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gemral/gem/internal/domain"
)

// Memory is an in-process stand-in for the remote backend.
// It reproduces the server-side rules the client depends on (streak
// continuity with freeze credits, combo counting, unique award rows) and
// supports fault injection so degradation paths can be exercised.
type Memory struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[uuid.UUID]*memUser
	disabled map[string]bool
	failures map[string]error
	calls    map[string]int
}

type memUser struct {
	daily    map[string]domain.DailyCompletionStatus // key: YYYY-MM-DD
	streaks  map[domain.StreakType]*domain.StreakRecord
	awards   []domain.UnlockedAchievement
	awardIDs map[string]bool
	social   domain.SocialStats
	trading  domain.TradingStats
	progress *domain.ProgressAnalysis
	cohort   *domain.CohortComparison
	health   *domain.HealthSnapshot
}

// NewMemory creates an empty simulator using the wall clock.
func NewMemory() *Memory {
	return &Memory{
		now:      time.Now,
		users:    make(map[uuid.UUID]*memUser),
		disabled: make(map[string]bool),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// ─── Test Controls ──────────────────────────────────────────────────────────

// SetClock replaces the time source.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Disable makes op fail with the "function does not exist" signature.
func (m *Memory) Disable(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled[op] = true
}

// Fail makes op fail with err until ClearFaults.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// ClearFaults removes every injected fault.
func (m *Memory) ClearFaults() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = make(map[string]bool)
	m.failures = make(map[string]error)
}

// Calls returns how many times op was invoked, failed calls included.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of invocations across all operations.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// SetStreak seeds a streak record.
func (m *Memory) SetStreak(userID uuid.UUID, rec domain.StreakRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := rec
	m.user(userID).streaks[rec.StreakType] = &r
}

// SetProgress seeds the progress analysis fixture.
func (m *Memory) SetProgress(userID uuid.UUID, a domain.ProgressAnalysis) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).progress = &a
}

// SetCohort seeds the cohort comparison fixture.
func (m *Memory) SetCohort(userID uuid.UUID, c domain.CohortComparison) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).cohort = &c
}

// SetHealth seeds the account health fixture.
func (m *Memory) SetHealth(userID uuid.UUID, h domain.HealthSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).health = &h
}

// ─── Internals ──────────────────────────────────────────────────────────────

// enter counts the call and returns the injected fault, if any. Caller holds mu.
func (m *Memory) enter(op string) error {
	m.calls[op]++
	if m.disabled[op] {
		return wrap(op, &pgconn.PgError{
			Severity: "ERROR",
			Code:     "42883",
			Message:  fmt.Sprintf("function %s does not exist", op),
		})
	}
	if err, ok := m.failures[op]; ok {
		return wrap(op, err)
	}
	return nil
}

func (m *Memory) user(id uuid.UUID) *memUser {
	u, ok := m.users[id]
	if !ok {
		u = &memUser{
			daily:    make(map[string]domain.DailyCompletionStatus),
			streaks:  make(map[domain.StreakType]*domain.StreakRecord),
			awardIDs: make(map[string]bool),
		}
		m.users[id] = u
	}
	return u
}

func (m *Memory) today() time.Time {
	return utcDay(m.now())
}

// utcDay truncates t to midnight of its UTC calendar day.
func utcDay(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func (u *memUser) streak(t domain.StreakType) *domain.StreakRecord {
	rec, ok := u.streaks[t]
	if !ok {
		r := domain.ZeroStreak(t)
		rec = &r
		u.streaks[t] = rec
	}
	return rec
}

// advanceStreak records a completion on day.
// Same day: no-op. Next day: extend. One missed day: spend a freeze credit
// if one is left. Otherwise the streak restarts at 1. Gaps count UTC
// calendar days, whatever the time of the last completion.
func advanceStreak(rec *domain.StreakRecord, day time.Time) {
	day = utcDay(day)
	if rec.LastCompletionDate != nil {
		last := utcDay(*rec.LastCompletionDate)
		gapDays := int(day.Sub(last).Hours() / 24)
		switch {
		case gapDays <= 0:
			return
		case gapDays == 1:
			rec.CurrentStreak++
		case gapDays == 2 && rec.FreezeCount > 0:
			rec.FreezeCount--
			rec.CurrentStreak++
		default:
			rec.CurrentStreak = 1
		}
	} else {
		rec.CurrentStreak = 1
	}

	d := day
	rec.LastCompletionDate = &d
	rec.TotalCompletions++
	if rec.CurrentStreak > rec.LongestStreak {
		rec.LongestStreak = rec.CurrentStreak
	}
}

func comboMultiplier(count int) float64 {
	switch {
	case count >= 4:
		return 2.0
	case count == 3:
		return 1.5
	case count == 2:
		return 1.2
	}
	return 1.0
}

func legacyCombo(s domain.DailyCompletionStatus) bool {
	return s.AffirmationDone && s.HabitDone && s.GoalDone
}

// ─── Gamification ───────────────────────────────────────────────────────────

func (m *Memory) TrackDailyCompletion(_ context.Context, userID uuid.UUID, category domain.QuestCategory) (domain.CompletionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpTrackDailyCompletion); err != nil {
		return domain.CompletionData{}, err
	}

	u := m.user(userID)
	day := m.today()
	key := day.Format("2006-01-02")
	status, ok := u.daily[key]
	if !ok {
		status = domain.ZeroDailyStatus(day)
	}
	wasFullCombo := legacyCombo(status)

	switch category {
	case domain.QuestAffirmation:
		status.AffirmationDone = true
	case domain.QuestHabit:
		status.HabitDone = true
	case domain.QuestGoal:
		status.GoalDone = true
	case domain.QuestAction:
		status.ActionDone = true
	default:
		return domain.CompletionData{}, wrap(domain.OpTrackDailyCompletion,
			&pgconn.PgError{Code: "22023", Message: fmt.Sprintf("invalid category %q", category)})
	}

	status.ComboCount = 0
	for _, done := range []bool{status.AffirmationDone, status.HabitDone, status.GoalDone, status.ActionDone} {
		if done {
			status.ComboCount++
		}
	}
	status.Multiplier = comboMultiplier(status.ComboCount)
	u.daily[key] = status

	advanceStreak(u.streak(domain.StreakType(category)), day)
	if legacyCombo(status) && !wasFullCombo {
		advanceStreak(u.streak(domain.StreakCombo), day)
	}

	return domain.CompletionData{
		Status:       status,
		ComboCount:   status.ComboCount,
		Multiplier:   status.Multiplier,
		IsFullCombo:  legacyCombo(status),
		IsFullCombo4: status.ComboCount >= 4,
	}, nil
}

func (m *Memory) GetDailyCompletionStatus(_ context.Context, userID uuid.UUID) (domain.DailyCompletionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpGetDailyStatus); err != nil {
		return domain.DailyCompletionStatus{}, err
	}
	day := m.today()
	if s, ok := m.user(userID).daily[day.Format("2006-01-02")]; ok {
		return s, nil
	}
	return domain.ZeroDailyStatus(day), nil
}

func (m *Memory) GetUserStreak(_ context.Context, userID uuid.UUID, streakType domain.StreakType) (domain.StreakRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpGetUserStreak); err != nil {
		return domain.StreakRecord{}, err
	}
	return *m.user(userID).streak(streakType), nil
}

func (m *Memory) GetAllUserStreaks(_ context.Context, userID uuid.UUID) ([]domain.StreakRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpGetAllUserStreaks); err != nil {
		return nil, err
	}
	u := m.user(userID)
	out := make([]domain.StreakRecord, 0, len(u.streaks))
	for _, rec := range u.streaks {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StreakType < out[j].StreakType })
	return out, nil
}

func (m *Memory) GetHabitGridData(_ context.Context, userID uuid.UUID, days int) ([]domain.HabitGridDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpGetHabitGridData); err != nil {
		return nil, err
	}
	u := m.user(userID)
	today := m.today()
	out := make([]domain.HabitGridDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		s := u.daily[day.Format("2006-01-02")]
		out = append(out, domain.HabitGridDay{
			Date:            day,
			AffirmationDone: s.AffirmationDone,
			HabitDone:       s.HabitDone,
			GoalDone:        s.GoalDone,
			ActionDone:      s.ActionDone,
			ComboCount:      s.ComboCount,
		})
	}
	return out, nil
}

func (m *Memory) AwardAchievement(_ context.Context, req domain.AwardRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpAwardAchievement); err != nil {
		return false, err
	}
	u := m.user(req.UserID)
	if u.awardIDs[req.AchievementID] {
		return false, nil
	}
	u.awardIDs[req.AchievementID] = true
	u.awards = append(u.awards, domain.UnlockedAchievement{
		UserID:        req.UserID,
		AchievementID: req.AchievementID,
		Category:      req.Category,
		PointsAwarded: req.Points,
		TriggerValue:  req.TriggerValue,
		UnlockedAt:    m.now().UTC(),
	})
	return true, nil
}

func (m *Memory) GetUserAchievements(_ context.Context, userID uuid.UUID) ([]domain.UnlockedAchievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpGetUserAchievements); err != nil {
		return nil, err
	}
	u := m.user(userID)
	out := make([]domain.UnlockedAchievement, len(u.awards))
	copy(out, u.awards)
	return out, nil
}

func (m *Memory) TrackWellnessActivity(_ context.Context, userID uuid.UUID, activity domain.WellnessActivity) (domain.StreakRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpTrackWellnessActivity); err != nil {
		return domain.StreakRecord{}, err
	}
	rec := m.user(userID).streak(domain.StreakType(activity))
	advanceStreak(rec, m.today())
	return *rec, nil
}

func (m *Memory) TrackSocialActivity(_ context.Context, userID uuid.UUID, activity domain.SocialActivity) (domain.SocialStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpTrackSocialActivity); err != nil {
		return domain.SocialStats{}, err
	}
	u := m.user(userID)
	if err := setSocial(&u.social, activity, u.social.Count(activity)+1); err != nil {
		return domain.SocialStats{}, wrap(domain.OpTrackSocialActivity, err)
	}
	return u.social, nil
}

func (m *Memory) UpdateSocialStats(_ context.Context, userID uuid.UUID, stat domain.SocialActivity, value int) (domain.SocialStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpUpdateSocialStats); err != nil {
		return domain.SocialStats{}, err
	}
	u := m.user(userID)
	if err := setSocial(&u.social, stat, value); err != nil {
		return domain.SocialStats{}, wrap(domain.OpUpdateSocialStats, err)
	}
	return u.social, nil
}

func (m *Memory) GetSocialStats(_ context.Context, userID uuid.UUID) (domain.SocialStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpGetSocialStats); err != nil {
		return domain.SocialStats{}, err
	}
	return m.user(userID).social, nil
}

func setSocial(s *domain.SocialStats, a domain.SocialActivity, v int) error {
	switch a {
	case domain.SocialPost:
		s.Posts = v
	case domain.SocialComment:
		s.Comments = v
	case domain.SocialFollower:
		s.Followers = v
	case domain.SocialGiftSent:
		s.GiftsSent = v
	case domain.SocialViralPost:
		s.ViralPosts = v
	case domain.SocialReferral:
		s.Referrals = v
	default:
		return &pgconn.PgError{Code: "22023", Message: fmt.Sprintf("invalid social stat %q", a)}
	}
	return nil
}

func (m *Memory) TrackTradingActivity(_ context.Context, userID uuid.UUID, activity domain.TradingActivity) (domain.TradingStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpTrackTradingActivity); err != nil {
		return domain.TradingStats{}, err
	}
	t := &m.user(userID).trading
	t.TotalTrades++
	switch activity {
	case domain.TradingWinning:
		t.WinningTrades++
		t.CurrentWinStreak++
		if t.CurrentWinStreak > t.BestWinStreak {
			t.BestWinStreak = t.CurrentWinStreak
		}
	case domain.TradingLosing:
		t.CurrentWinStreak = 0
	}
	return *t, nil
}

// ─── Analytics ──────────────────────────────────────────────────────────────

func (m *Memory) UserProgressAnalysis(_ context.Context, userID uuid.UUID) (domain.ProgressAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpUserProgressAnalysis); err != nil {
		return domain.ProgressAnalysis{}, err
	}
	if p := m.user(userID).progress; p != nil {
		return *p, nil
	}
	return domain.ProgressAnalysis{PracticeLevel: domain.PracticeInactive}, nil
}

func (m *Memory) GetUserCohortComparison(_ context.Context, userID uuid.UUID) (domain.CohortComparison, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpGetCohortComparison); err != nil {
		return domain.CohortComparison{}, err
	}
	if c := m.user(userID).cohort; c != nil {
		return *c, nil
	}
	return domain.CohortComparison{PracticeLevel: domain.PracticeInactive}, nil
}

func (m *Memory) GetAccountHealthSnapshot(_ context.Context, userID uuid.UUID) (domain.HealthSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(domain.OpGetAccountHealthSnap); err != nil {
		return domain.HealthSnapshot{}, err
	}
	if h := m.user(userID).health; h != nil {
		return *h, nil
	}
	return domain.HealthSnapshot{}, nil
}

var _ domain.Backend = (*Memory)(nil)
