package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemral/gem/internal/domain"
)

// Postgres calls the remote SQL functions over a pgx pool.
// Each function takes the user id first. Single-value functions return one
// jsonb value; the list functions (get_all_user_streaks, get_habit_grid_data)
// may return rows or one jsonb array.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// PostgresConfig configures the pool.
type PostgresConfig struct {
	DatabaseURL string
	MaxConns    int32
	CallTimeout time.Duration
}

// NewPostgres connects and pings the database.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	log.Printf("[backend] postgres connected (max_conns=%d)", poolCfg.MaxConns)
	return &Postgres{pool: pool, timeout: timeout}, nil
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// rpc calls SELECT op($1, ...) and decodes the jsonb reply into out.
// A NULL reply leaves out untouched.
func (p *Postgres) rpc(ctx context.Context, op string, out any, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var raw []byte
	if err := p.pool.QueryRow(ctx, callSQL(op, len(args)), args...).Scan(&raw); err != nil {
		return wrap(op, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewBackendError(op, domain.KindTransient, fmt.Errorf("decode reply: %w", err))
	}
	return nil
}

// rpcList calls a function that returns rows and decodes them as a JSON array
// into out. A function that instead returns one jsonb array is unwrapped, so
// both shapes of the list functions are accepted.
func (p *Postgres) rpcList(ctx context.Context, op string, out any, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var raw []byte
	if err := p.pool.QueryRow(ctx, listSQL(op, len(args)), args...).Scan(&raw); err != nil {
		return wrap(op, err)
	}
	if err := json.Unmarshal(unwrapList(raw), out); err != nil {
		return domain.NewBackendError(op, domain.KindTransient, fmt.Errorf("decode reply: %w", err))
	}
	return nil
}

// unwrapList turns [[a, b]] into [a, b]. Any other array is returned as is.
func unwrapList(raw []byte) []byte {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil || len(rows) != 1 {
		return raw
	}
	inner := bytes.TrimSpace(rows[0])
	if len(inner) > 0 && inner[0] == '[' {
		return inner
	}
	if string(inner) == "null" {
		return []byte("[]")
	}
	return raw
}

// listSQL builds "SELECT coalesce(jsonb_agg(to_jsonb(t)), '[]'::jsonb) FROM op($1) t".
func listSQL(op string, n int) string {
	return fmt.Sprintf("SELECT coalesce(jsonb_agg(to_jsonb(t)), '[]'::jsonb) FROM %s(%s) t",
		op, placeholders(n))
}

func placeholders(n int) string {
	params := make([]string, n)
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(params, ", ")
}

// callSQL builds "SELECT to_jsonb(op($1, $2))". op is always a package constant.
func callSQL(op string, n int) string {
	return fmt.Sprintf("SELECT to_jsonb(%s(%s))", op, placeholders(n))
}

// ─── Gamification ───────────────────────────────────────────────────────────

func (p *Postgres) TrackDailyCompletion(ctx context.Context, userID uuid.UUID, category domain.QuestCategory) (domain.CompletionData, error) {
	var w wireCompletion
	if err := p.rpc(ctx, domain.OpTrackDailyCompletion, &w, userID, string(category)); err != nil {
		return domain.CompletionData{}, err
	}
	return w.toDomain(), nil
}

func (p *Postgres) GetDailyCompletionStatus(ctx context.Context, userID uuid.UUID) (domain.DailyCompletionStatus, error) {
	var w wireDaily
	if err := p.rpc(ctx, domain.OpGetDailyStatus, &w, userID); err != nil {
		return domain.DailyCompletionStatus{}, err
	}
	return w.toDomain(), nil
}

func (p *Postgres) GetUserStreak(ctx context.Context, userID uuid.UUID, streakType domain.StreakType) (domain.StreakRecord, error) {
	var w wireStreak
	if err := p.rpc(ctx, domain.OpGetUserStreak, &w, userID, string(streakType)); err != nil {
		return domain.StreakRecord{}, err
	}
	return w.toDomain(streakType), nil
}

func (p *Postgres) GetAllUserStreaks(ctx context.Context, userID uuid.UUID) ([]domain.StreakRecord, error) {
	var ws []wireStreak
	if err := p.rpcList(ctx, domain.OpGetAllUserStreaks, &ws, userID); err != nil {
		return nil, err
	}
	out := make([]domain.StreakRecord, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain(domain.StreakGeneral))
	}
	return out, nil
}

func (p *Postgres) GetHabitGridData(ctx context.Context, userID uuid.UUID, days int) ([]domain.HabitGridDay, error) {
	var ws []wireGridDay
	if err := p.rpcList(ctx, domain.OpGetHabitGridData, &ws, userID, days); err != nil {
		return nil, err
	}
	out := make([]domain.HabitGridDay, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// AwardAchievement relies on the unique (user_id, achievement_id) constraint
// enforced by the remote function.
func (p *Postgres) AwardAchievement(ctx context.Context, req domain.AwardRequest) (bool, error) {
	var awarded bool
	err := p.rpc(ctx, domain.OpAwardAchievement, &awarded,
		req.UserID, req.AchievementID, string(req.Category), req.Points, req.TriggerValue)
	return awarded, err
}

func (p *Postgres) GetUserAchievements(ctx context.Context, userID uuid.UUID) ([]domain.UnlockedAchievement, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT achievement_id, category, points_awarded, trigger_value, unlocked_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY unlocked_at ASC
	`, userID)
	if err != nil {
		return nil, wrap(domain.OpGetUserAchievements, err)
	}
	defer rows.Close()

	var out []domain.UnlockedAchievement
	for rows.Next() {
		var (
			u        domain.UnlockedAchievement
			category string
			trigger  *int32
		)
		if err := rows.Scan(&u.AchievementID, &category, &u.PointsAwarded, &trigger, &u.UnlockedAt); err != nil {
			return nil, wrap(domain.OpGetUserAchievements, err)
		}
		u.UserID = userID
		u.Category = domain.AchievementCategory(category)
		if trigger != nil {
			v := int(*trigger)
			u.TriggerValue = &v
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(domain.OpGetUserAchievements, err)
	}
	return out, nil
}

func (p *Postgres) TrackWellnessActivity(ctx context.Context, userID uuid.UUID, activity domain.WellnessActivity) (domain.StreakRecord, error) {
	var w wireStreak
	if err := p.rpc(ctx, domain.OpTrackWellnessActivity, &w, userID, string(activity)); err != nil {
		return domain.StreakRecord{}, err
	}
	return w.toDomain(domain.StreakType(activity)), nil
}

func (p *Postgres) TrackSocialActivity(ctx context.Context, userID uuid.UUID, activity domain.SocialActivity) (domain.SocialStats, error) {
	var w wireSocial
	if err := p.rpc(ctx, domain.OpTrackSocialActivity, &w, userID, string(activity)); err != nil {
		return domain.SocialStats{}, err
	}
	return w.toDomain(), nil
}

func (p *Postgres) UpdateSocialStats(ctx context.Context, userID uuid.UUID, stat domain.SocialActivity, value int) (domain.SocialStats, error) {
	var w wireSocial
	if err := p.rpc(ctx, domain.OpUpdateSocialStats, &w, userID, string(stat), value); err != nil {
		return domain.SocialStats{}, err
	}
	return w.toDomain(), nil
}

func (p *Postgres) GetSocialStats(ctx context.Context, userID uuid.UUID) (domain.SocialStats, error) {
	var w wireSocial
	if err := p.rpc(ctx, domain.OpGetSocialStats, &w, userID); err != nil {
		return domain.SocialStats{}, err
	}
	return w.toDomain(), nil
}

func (p *Postgres) TrackTradingActivity(ctx context.Context, userID uuid.UUID, activity domain.TradingActivity) (domain.TradingStats, error) {
	var stats domain.TradingStats
	err := p.rpc(ctx, domain.OpTrackTradingActivity, &stats, userID, string(activity))
	return stats, err
}

// ─── Analytics ──────────────────────────────────────────────────────────────

func (p *Postgres) UserProgressAnalysis(ctx context.Context, userID uuid.UUID) (domain.ProgressAnalysis, error) {
	var a domain.ProgressAnalysis
	err := p.rpc(ctx, domain.OpUserProgressAnalysis, &a, userID)
	if err == nil && a.PracticeLevel == "" {
		a.PracticeLevel = domain.PracticeLevelForDays(a.Current.ActiveDays)
	}
	return a, err
}

func (p *Postgres) GetUserCohortComparison(ctx context.Context, userID uuid.UUID) (domain.CohortComparison, error) {
	var c domain.CohortComparison
	err := p.rpc(ctx, domain.OpGetCohortComparison, &c, userID)
	return c, err
}

func (p *Postgres) GetAccountHealthSnapshot(ctx context.Context, userID uuid.UUID) (domain.HealthSnapshot, error) {
	var w wireHealth
	if err := p.rpc(ctx, domain.OpGetAccountHealthSnap, &w, userID); err != nil {
		return domain.HealthSnapshot{}, err
	}
	snap := w.toDomain()
	snap.UserID = userID
	return snap, nil
}

var _ domain.Backend = (*Postgres)(nil)
