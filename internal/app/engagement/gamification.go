// Package engagement implements the gem gamification rules engine.
// Daily quests and combos, streak checkpoints, idempotent achievement awards,
// wellness/social/trading ladders and the summary view.
//
// Aggregation lives in the remote backend. This package orchestrates calls,
// re-evaluates every qualifying checkpoint on each event, and degrades to
// zero values when a backend capability is missing.
package engagement

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/inflight"
	"github.com/gemral/gem/internal/infra/metrics"
)

// Guard serializes track calls sharing a key.
// *inflight.Guard satisfies it.
type Guard interface {
	Do(ctx context.Context, key string, fn func() (any, error)) (any, error)
}

// Service is the streak/combo orchestrator. Construct one per process and inject it.
type Service struct {
	backend domain.GamificationBackend
	catalog *Catalog
	gate    *AwardGate
	guard   Guard
	now     func() time.Time
}

// NewService creates the orchestrator. guard may be nil.
func NewService(backend domain.GamificationBackend, catalog *Catalog, guard Guard) *Service {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Service{
		backend: backend,
		catalog: catalog,
		gate:    NewAwardGate(backend),
		guard:   guard,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for default values.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Catalog returns the achievement catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// Now returns the current time of the service clock.
func (s *Service) Now() time.Time { return s.now() }

// ─── Results ────────────────────────────────────────────────────────────────

// CompletionResult is the reply of TrackCompletion.
type CompletionResult struct {
	domain.Outcome
	Category        domain.QuestCategory         `json:"category"`
	Status          domain.DailyCompletionStatus `json:"status"`
	ComboCount      int                          `json:"combo_count"`
	Multiplier      float64                      `json:"multiplier"`
	IsFullCombo     bool                         `json:"is_full_combo"`
	IsFullCombo4    bool                         `json:"is_full_combo_4"`
	NewAchievements []domain.AchievementDef      `json:"new_achievements"`
}

// DailyStatusResult is the reply of GetDailyStatus.
type DailyStatusResult struct {
	domain.Outcome
	Status domain.DailyCompletionStatus `json:"status"`
}

// StreakResult is the reply of GetStreak. The record is flattened.
type StreakResult struct {
	domain.Outcome
	domain.StreakRecord
}

// StreaksResult is the reply of GetAllStreaks.
type StreaksResult struct {
	domain.Outcome
	Streaks []domain.StreakRecord `json:"streaks"`
}

// ─── Daily Completion ───────────────────────────────────────────────────────

// TrackCompletion records a daily quest completion and runs the achievement pass.
// An unknown category is rejected without any backend call.
func (s *Service) TrackCompletion(ctx context.Context, userID uuid.UUID, category domain.QuestCategory) CompletionResult {
	if userID == uuid.Nil {
		return CompletionResult{Outcome: domain.Failed(domain.ErrInvalidUser), Category: category, NewAchievements: []domain.AchievementDef{}}
	}
	if !ValidQuestCategory(category) {
		err := fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
		return CompletionResult{Outcome: domain.Failed(err), Category: category, NewAchievements: []domain.AchievementDef{}}
	}

	v, err := s.guarded(ctx, userID, "completion", string(category), func() (any, error) {
		return s.trackCompletion(ctx, userID, category), nil
	})
	if err != nil {
		log.Printf("[engagement] completion %s/%s rejected: %v", userID, category, err)
		return CompletionResult{Outcome: domain.Failed(err), Category: category, NewAchievements: []domain.AchievementDef{}}
	}
	return v.(CompletionResult)
}

func (s *Service) trackCompletion(ctx context.Context, userID uuid.UUID, category domain.QuestCategory) CompletionResult {
	data, err := s.backend.TrackDailyCompletion(ctx, userID, category)
	if err != nil {
		if s.degrade(domain.OpTrackDailyCompletion, err) {
			return CompletionResult{
				Outcome:         domain.DegradedOK(),
				Category:        category,
				Status:          domain.ZeroDailyStatus(dayOf(s.now())),
				Multiplier:      1.0,
				NewAchievements: []domain.AchievementDef{},
			}
		}
		return CompletionResult{Outcome: domain.Failed(err), Category: category, Multiplier: 1.0, NewAchievements: []domain.AchievementDef{}}
	}

	metrics.Completions.WithLabelValues(string(category)).Inc()

	return CompletionResult{
		Outcome:         domain.OK(),
		Category:        category,
		Status:          data.Status,
		ComboCount:      data.ComboCount,
		Multiplier:      data.Multiplier,
		IsFullCombo:     data.IsFullCombo,
		IsFullCombo4:    data.IsFullCombo4,
		NewAchievements: s.CheckAchievements(ctx, userID, data, category),
	}
}

// CheckAchievements is the rules pass run after every successful completion.
// Steps run in a fixed order so the returned list is deterministic:
// full-combo one-shots, action checks, combo streak ladder, combo-streak ladder.
// Every checkpoint at or below the current value is attempted, so a streak
// that jumped while offline still earns every skipped checkpoint.
func (s *Service) CheckAchievements(ctx context.Context, userID uuid.UUID, data domain.CompletionData, category domain.QuestCategory) []domain.AchievementDef {
	unlocked := []domain.AchievementDef{}

	// 1. Legacy full combo
	if data.IsFullCombo {
		unlocked = s.awardOneShot(ctx, userID, "first_combo", unlocked)
	}

	// 2. All four categories
	if data.IsFullCombo4 || data.ComboCount >= 4 {
		unlocked = s.awardOneShot(ctx, userID, "full_combo_4", unlocked)
	}

	// 3. Action category
	if category == domain.QuestAction {
		unlocked = s.awardOneShot(ctx, userID, "first_action", unlocked)
		action := s.fetchStreak(ctx, userID, domain.StreakAction)
		unlocked = s.awardLadder(ctx, userID, s.catalog.Ladder(domain.CatAction, domain.MetricActionStreak), action.CurrentStreak, unlocked)
		unlocked = s.awardLadder(ctx, userID, s.catalog.Ladder(domain.CatAction, domain.MetricActionTotal), action.TotalCompletions, unlocked)
	}

	// 4. Combo streak checkpoints
	combo := s.fetchStreak(ctx, userID, domain.StreakCombo)
	unlocked = s.awardLadder(ctx, userID, s.catalog.Ladder(domain.CatStreak, domain.MetricComboStreak), combo.CurrentStreak, unlocked)
	unlocked = s.awardLadder(ctx, userID, s.catalog.Ladder(domain.CatCombo, domain.MetricComboStreak), combo.CurrentStreak, unlocked)

	return unlocked
}

// GetDailyStatus returns today's completion flags.
func (s *Service) GetDailyStatus(ctx context.Context, userID uuid.UUID) DailyStatusResult {
	status, err := s.backend.GetDailyCompletionStatus(ctx, userID)
	if err != nil {
		zero := domain.ZeroDailyStatus(dayOf(s.now()))
		if s.degrade(domain.OpGetDailyStatus, err) {
			return DailyStatusResult{Outcome: domain.DegradedOK(), Status: zero}
		}
		return DailyStatusResult{Outcome: domain.Failed(err), Status: zero}
	}
	return DailyStatusResult{Outcome: domain.OK(), Status: status}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// guarded runs fn through the in-flight guard when one is configured.
func (s *Service) guarded(ctx context.Context, userID uuid.UUID, kind, category string, fn func() (any, error)) (any, error) {
	if s.guard == nil {
		return fn()
	}
	return s.guard.Do(ctx, inflight.Key(userID, kind, category), fn)
}

// degrade logs a backend failure and reports whether it is a missing capability,
// in which case the caller serves defaults with success.
func (s *Service) degrade(op string, err error) bool {
	if domain.IsNotSupported(err) {
		metrics.Degraded.WithLabelValues(op).Inc()
		log.Printf("[engagement] %s not deployed, serving defaults", op)
		return true
	}
	log.Printf("[engagement] %s failed: %v", op, err)
	return false
}

// fetchStreak re-reads a streak for checkpoint evaluation. Failures read as zero.
func (s *Service) fetchStreak(ctx context.Context, userID uuid.UUID, t domain.StreakType) domain.StreakRecord {
	rec, err := s.backend.GetUserStreak(ctx, userID, t)
	if err != nil {
		s.degrade(domain.OpGetUserStreak, err)
		return domain.ZeroStreak(t)
	}
	return rec
}

// awardOneShot attempts a one-shot achievement and appends it when newly granted.
func (s *Service) awardOneShot(ctx context.Context, userID uuid.UUID, id string, unlocked []domain.AchievementDef) []domain.AchievementDef {
	def, ok := s.catalog.Get(id)
	if !ok {
		log.Printf("[engagement] unknown achievement %q", id)
		return unlocked
	}
	if s.gate.AwardDef(ctx, userID, def, nil) {
		unlocked = append(unlocked, def)
	}
	return unlocked
}

// awardLadder attempts every checkpoint of an ascending ladder reached by value.
func (s *Service) awardLadder(ctx context.Context, userID uuid.UUID, ladder []domain.AchievementDef, value int, unlocked []domain.AchievementDef) []domain.AchievementDef {
	for _, def := range ladder {
		if value < def.Threshold {
			break
		}
		trigger := value
		if s.gate.AwardDef(ctx, userID, def, &trigger) {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}
