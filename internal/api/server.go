// Package api provides the HTTP server for gem.
// Every gamification, insight and onboarding operation is exposed under /api/v1.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gemral/gem/internal/app/accounthealth"
	"github.com/gemral/gem/internal/app/engagement"
	"github.com/gemral/gem/internal/app/insight"
	"github.com/gemral/gem/internal/app/onboarding"
	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/health"
	"github.com/gemral/gem/internal/infra/cache"
)

// Services are the application services the API fronts.
type Services struct {
	Engagement    *engagement.Service
	AccountHealth *accounthealth.Service
	Insights      *insight.Service
	Onboarding    *onboarding.Service
	Cache         *cache.Manager
	Checker       *health.Checker
}

// Server is the gem HTTP API server.
type Server struct {
	svc            Services
	metricsEnabled bool
	jwtSecret      []byte
	version        string
	timeout        time.Duration
}

// NewServer creates a new API server.
func NewServer(svc Services) *Server {
	return &Server{svc: svc, version: "dev", timeout: 30 * time.Second}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetJWTSecret turns on bearer authentication for user routes.
func (s *Server) SetJWTSecret(secret string) { s.jwtSecret = []byte(secret) }

// SetVersion sets the version reported by /api/version.
func (s *Server) SetVersion(v string) { s.version = v }

// SetTimeout sets the per-request timeout.
func (s *Server) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": s.version,
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/achievements", s.handleCatalog)
		r.Get("/quests", s.handleQuests)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(s.userMiddleware)

			r.Post("/completions", s.handleTrackCompletion)
			r.Get("/daily", s.handleDailyStatus)
			r.Get("/streaks", s.handleAllStreaks)
			r.Get("/streaks/{type}", s.handleStreak)
			r.Get("/streak-view", s.handleStreakView)
			r.Get("/achievements", s.handleAchievements)
			r.Get("/summary", s.handleSummary)
			r.Get("/view", s.handleView)

			r.Post("/wellness", s.handleWellness)
			r.Post("/social", s.handleSocial)
			r.Get("/social/stats", s.handleSocialStats)
			r.Put("/social/stats", s.handleUpdateSocialStats)
			r.Post("/trading", s.handleTrading)

			r.Get("/insights", s.handleInsights)
			r.Get("/next-steps", s.handleNextSteps)
			r.Get("/account-health", s.handleAccountHealth)
			r.Delete("/cache", s.handleLogout)

			r.Get("/onboarding", s.handleOnboardingState)
			r.Post("/onboarding/tooltips/{id}", s.handleTooltipViewed)
			r.Post("/onboarding/discoveries/{id}", s.handleDiscoveryDismissed)
			r.Put("/onboarding/tours/{tour}", s.handleTourProgress)
			r.Delete("/onboarding", s.handleOnboardingReset)
		})
	})

	return r
}

// ─── Responses ──────────────────────────────────────────────────────────────

// enveloped is implemented by every result embedding domain.Outcome.
type enveloped interface {
	Envelope() domain.Outcome
}

// writeResult writes a service result. Validation failures are 400; every
// other outcome, failed or not, is 200 with the envelope.
func writeResult(w http.ResponseWriter, res enveloped) {
	status := http.StatusOK
	if res.Envelope().ErrorKind == domain.KindValidation {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a failed envelope with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	o := domain.Outcome{Success: false, Error: msg}
	if status == http.StatusBadRequest {
		o.ErrorKind = domain.KindValidation
	}
	writeJSON(w, status, o)
}

// corsMiddleware adds CORS headers for the web client.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
