package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Account Health ─────────────────────────────────────────────────────────

// HealthStatus is the band a trading account's balance falls into.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthWarning HealthStatus = "warning"
	HealthDanger  HealthStatus = "danger"
	HealthBurned  HealthStatus = "burned"
	HealthWiped   HealthStatus = "wiped"
)

// HealthOrder ranks statuses from worst to best.
var HealthOrder = []HealthStatus{HealthWiped, HealthBurned, HealthDanger, HealthWarning, HealthHealthy}

// HealthSnapshot is the daily account health record.
// HealthStatus always equals the local classification of Balance/InitialBalance,
// or of BalancePct when no initial balance is known.
type HealthSnapshot struct {
	UserID         uuid.UUID       `json:"user_id"`
	Date           time.Time       `json:"date"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	BalancePct     float64         `json:"balance_pct"`
	HealthStatus   HealthStatus    `json:"health_status"`
	DailyChangePct float64         `json:"daily_change_pct"`
}

// Empty reports a snapshot the backend had no row for.
func (h HealthSnapshot) Empty() bool { return h.Date.IsZero() }

// ─── Progress Analytics ─────────────────────────────────────────────────────

// PracticeLevel classifies how many days per month a user is active.
type PracticeLevel string

const (
	PracticeInactive  PracticeLevel = "inactive"
	PracticeCasual    PracticeLevel = "casual"
	PracticeRegular   PracticeLevel = "regular"
	PracticeCommitted PracticeLevel = "committed"
	PracticeDevoted   PracticeLevel = "devoted"
)

// PracticeLevelForDays maps active days in the last 30 to a practice level.
func PracticeLevelForDays(days int) PracticeLevel {
	switch {
	case days >= 25:
		return PracticeDevoted
	case days >= 15:
		return PracticeCommitted
	case days >= 6:
		return PracticeRegular
	case days >= 1:
		return PracticeCasual
	}
	return PracticeInactive
}

// KPISnapshot is one period of already-aggregated trading and practice KPIs.
type KPISnapshot struct {
	WinRate          float64 `json:"win_rate"`
	DisciplineScore  float64 `json:"discipline_score"`
	TotalTrades      int     `json:"total_trades"`
	ActiveDays       int     `json:"active_days"`
	WellnessSessions int     `json:"wellness_sessions"`
}

// EvolutionPoint is one sample of the KPI evolution series.
type EvolutionPoint struct {
	Date            string  `json:"date"` // YYYY-MM-DD
	WinRate         float64 `json:"win_rate"`
	DisciplineScore float64 `json:"discipline_score"`
}

// ProgressAnalysis is the reply of user_progress_analysis.
type ProgressAnalysis struct {
	Current              KPISnapshot      `json:"current"`
	Previous             KPISnapshot      `json:"previous"`
	WinRatePercentile    float64          `json:"win_rate_percentile"`
	DisciplinePercentile float64          `json:"discipline_percentile"`
	PracticeLevel        PracticeLevel    `json:"practice_level"`
	Evolution            []EvolutionPoint `json:"evolution"`
}

// CohortComparison is the reply of get_user_cohort_comparison.
type CohortComparison struct {
	PracticeLevel PracticeLevel `json:"practice_level"`
	CohortSize    int           `json:"cohort_size"`
	User          KPISnapshot   `json:"user"`
	CohortAvg     KPISnapshot   `json:"cohort_avg"`
}

// ─── Insights ───────────────────────────────────────────────────────────────

// InsightType is the tone of an insight.
type InsightType string

const (
	InsightPositive InsightType = "positive"
	InsightWarning  InsightType = "warning"
	InsightNeutral  InsightType = "neutral"
)

// InsightIcon is a symbolic icon name from a closed set.
type InsightIcon string

const (
	IconTrendingUp   InsightIcon = "trending-up"
	IconTrendingDown InsightIcon = "trending-down"
	IconAward        InsightIcon = "award"
	IconTarget       InsightIcon = "target"
	IconAlert        InsightIcon = "alert-triangle"
	IconFlame        InsightIcon = "flame"
	IconMoon         InsightIcon = "moon"
	IconHeart        InsightIcon = "heart"
	IconUsers        InsightIcon = "users"
	IconSparkles     InsightIcon = "sparkles"
)

// InsightRecord is one generated insight. Never persisted.
type InsightRecord struct {
	Type InsightType `json:"type"`
	Icon InsightIcon `json:"icon"`
	Text string      `json:"text"`
}

// NextStep is an actionable recommendation.
type NextStep struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
}
