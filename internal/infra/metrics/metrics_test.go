package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestBackendMetrics(t *testing.T) {
	BackendLatency.WithLabelValues("get_user_streak").Observe(0.02)
	BackendCalls.WithLabelValues("get_user_streak", "ok").Inc()
	Degraded.WithLabelValues("get_user_streak").Inc()
	BreakerState.WithLabelValues("backend").Set(0)

	names := gatheredNames(t)
	expected := []string{
		"gem_backend_latency_seconds",
		"gem_backend_calls_total",
		"gem_degraded_total",
		"gem_breaker_state",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestGamificationMetrics(t *testing.T) {
	Completions.WithLabelValues("action").Inc()
	AwardAttempts.WithLabelValues("new").Inc()
	AchievementsAwarded.WithLabelValues("streak").Inc()
	InFlightRejected.Inc()
	InsightsGenerated.WithLabelValues("positive").Inc()

	names := gatheredNames(t)
	expected := []string{
		"gem_completions_total",
		"gem_award_attempts_total",
		"gem_achievements_awarded_total",
		"gem_inflight_rejected_total",
		"gem_insights_generated_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestCacheAndHealthMetrics(t *testing.T) {
	CacheRequests.WithLabelValues("health", "hit").Inc()
	HealthCheckStatus.WithLabelValues("sqlite").Set(1)
	AccountHealthDisagreements.Inc()

	names := gatheredNames(t)
	for _, name := range []string{
		"gem_cache_requests_total",
		"gem_health_check_status",
		"gem_account_health_disagreements_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}
