// Package metrics provides Prometheus metrics for gem.
// Counters, gauges and histograms for backend calls, awards, cache and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Backend ────────────────────────────────────────────────────────────────

// BackendLatency tracks remote operation duration in seconds.
var BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "gem",
	Name:      "backend_latency_seconds",
	Help:      "Remote backend operation duration in seconds.",
	Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
}, []string{"op"})

// BackendCalls counts remote operations by outcome kind ("ok" on success).
var BackendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gem",
	Name:      "backend_calls_total",
	Help:      "Total remote backend operations by outcome.",
}, []string{"op", "outcome"})

// Degraded counts results synthesized from defaults because a capability was absent.
var Degraded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gem",
	Name:      "degraded_total",
	Help:      "Results served from defaults because a backend capability is absent.",
}, []string{"op"})

// BreakerState tracks the backend circuit breaker (0=closed, 1=open, 2=half_open).
var BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "gem",
	Name:      "breaker_state",
	Help:      "Circuit breaker state (0=closed, 1=open, 2=half_open).",
}, []string{"breaker"})

// ─── Gamification ───────────────────────────────────────────────────────────

// Completions counts daily quest completions by category.
var Completions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gem",
	Name:      "completions_total",
	Help:      "Total daily quest completions tracked.",
}, []string{"category"})

// AwardAttempts counts award attempts by result (new, existing, unsupported, error).
var AwardAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gem",
	Name:      "award_attempts_total",
	Help:      "Total achievement award attempts by result.",
}, []string{"result"})

// AchievementsAwarded counts newly unlocked achievements by category.
var AchievementsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gem",
	Name:      "achievements_awarded_total",
	Help:      "Total achievements newly unlocked.",
}, []string{"category"})

// InFlightRejected counts track calls rejected because a duplicate was running.
var InFlightRejected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "gem",
	Name:      "inflight_rejected_total",
	Help:      "Track operations rejected by the in-flight guard.",
})

// InsightsGenerated counts generated insights by type.
var InsightsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gem",
	Name:      "insights_generated_total",
	Help:      "Total personal insights generated.",
}, []string{"type"})

// ─── Cache ──────────────────────────────────────────────────────────────────

// CacheRequests counts cache lookups by namespace and result (hit, miss, stale).
var CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gem",
	Name:      "cache_requests_total",
	Help:      "Cache lookups by namespace and result.",
}, []string{"namespace", "result"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks dependency health (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "gem",
	Name:      "health_check_status",
	Help:      "Dependency health check status (1=healthy, 0=unhealthy).",
}, []string{"check"})

// AccountHealthDisagreements counts snapshots where the remote band differed from the local one.
var AccountHealthDisagreements = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "gem",
	Name:      "account_health_disagreements_total",
	Help:      "Health snapshots reclassified locally.",
})
