package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gemral/gem/internal/app/engagement"
	"github.com/gemral/gem/internal/domain"
)

// ─── Service Health ─────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Checker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	statuses := s.svc.Checker.Statuses()
	if len(statuses) == 0 {
		statuses = s.svc.Checker.RunOnce(r.Context())
	}
	status, code := "ok", http.StatusOK
	if !s.svc.Checker.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": statuses,
	})
}

// ─── Catalog ────────────────────────────────────────────────────────────────

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := s.svc.Engagement.Catalog()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": catalog.Grouped(),
		"total":      catalog.Len(),
	})
}

func (s *Server) handleQuests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"quests":  engagement.DailyQuests(),
	})
}

// ─── Daily Quests & Streaks ─────────────────────────────────────────────────

func (s *Server) handleTrackCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.svc.Engagement.TrackCompletion(r.Context(), userFrom(r), domain.QuestCategory(req.Category)))
}

func (s *Server) handleDailyStatus(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Engagement.GetDailyStatus(r.Context(), userFrom(r)))
}

func (s *Server) handleAllStreaks(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Engagement.GetAllStreaks(r.Context(), userFrom(r)))
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	t := domain.StreakType(chi.URLParam(r, "type"))
	writeResult(w, s.svc.Engagement.GetStreak(r.Context(), userFrom(r), t))
}

type streakViewResult struct {
	domain.Outcome
	View engagement.StreakView `json:"view"`
}

func (s *Server) handleStreakView(w http.ResponseWriter, r *http.Request) {
	t := domain.StreakType(r.URL.Query().Get("type"))
	res := s.svc.Engagement.GetStreak(r.Context(), userFrom(r), t)
	writeResult(w, streakViewResult{
		Outcome: res.Outcome,
		View:    engagement.BuildStreakView(res.StreakRecord, s.svc.Engagement.Catalog(), s.svc.Engagement.Now()),
	})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Engagement.GetAchievements(r.Context(), userFrom(r)))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Engagement.GetGamificationSummary(r.Context(), userFrom(r)))
}

type gamificationViewResult struct {
	domain.Outcome
	View        engagement.GamificationView `json:"view"`
	FailedParts []string                    `json:"failed_parts,omitempty"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sum := s.svc.Engagement.GetGamificationSummary(r.Context(), userFrom(r))
	writeResult(w, gamificationViewResult{
		Outcome:     sum.Outcome,
		View:        engagement.BuildGamificationView(sum, s.svc.Engagement.Catalog()),
		FailedParts: sum.FailedParts,
	})
}

// ─── Activities ─────────────────────────────────────────────────────────────

func (s *Server) handleWellness(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.svc.Engagement.TrackWellnessActivity(r.Context(), userFrom(r), domain.WellnessActivity(req.Activity)))
}

func (s *Server) handleSocial(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.svc.Engagement.TrackSocialActivity(r.Context(), userFrom(r), domain.SocialActivity(req.Activity)))
}

func (s *Server) handleSocialStats(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Engagement.GetSocialStats(r.Context(), userFrom(r)))
}

func (s *Server) handleUpdateSocialStats(w http.ResponseWriter, r *http.Request) {
	var req socialStatsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.svc.Engagement.UpdateSocialStats(r.Context(), userFrom(r), domain.SocialActivity(req.Stat), *req.Value))
}

func (s *Server) handleTrading(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.svc.Engagement.TrackTradingActivity(r.Context(), userFrom(r), domain.TradingActivity(req.Activity)))
}

// ─── Insights & Account Health ──────────────────────────────────────────────

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Insights.GetPersonalInsights(r.Context(), userFrom(r)))
}

func (s *Server) handleNextSteps(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Insights.GetNextSteps(r.Context(), userFrom(r)))
}

func (s *Server) handleAccountHealth(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("refresh") == "true"
	writeResult(w, s.svc.AccountHealth.Snapshot(r.Context(), userFrom(r), force))
}

// handleLogout drops every cached entry and the in-memory onboarding copy.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)
	if s.svc.Onboarding != nil {
		s.svc.Onboarding.Forget(userID)
	}
	if err := s.svc.Cache.InvalidateUser(r.Context(), userID); err != nil {
		writeResult(w, domain.Failed(err))
		return
	}
	writeResult(w, domain.OK())
}

// ─── Onboarding ─────────────────────────────────────────────────────────────

type onboardingResult struct {
	domain.Outcome
	State domain.OnboardingState `json:"state"`
}

type tourResult struct {
	domain.Outcome
	Tour     string              `json:"tour"`
	Progress domain.TourProgress `json:"progress"`
}

func (s *Server) handleOnboardingState(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Onboarding.State(r.Context(), userFrom(r))
	if err != nil {
		writeResult(w, onboardingResult{Outcome: domain.Failed(err), State: st})
		return
	}
	writeResult(w, onboardingResult{Outcome: domain.OK(), State: st})
}

func (s *Server) handleTooltipViewed(w http.ResponseWriter, r *http.Request) {
	writeResult(w, outcomeOf(s.svc.Onboarding.MarkTooltipViewed(r.Context(), userFrom(r), chi.URLParam(r, "id"))))
}

func (s *Server) handleDiscoveryDismissed(w http.ResponseWriter, r *http.Request) {
	writeResult(w, outcomeOf(s.svc.Onboarding.DismissDiscovery(r.Context(), userFrom(r), chi.URLParam(r, "id"))))
}

func (s *Server) handleTourProgress(w http.ResponseWriter, r *http.Request) {
	var req tourRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tour := chi.URLParam(r, "tour")
	p, err := s.svc.Onboarding.SetTourProgress(r.Context(), userFrom(r), tour,
		domain.TourProgress{Step: req.Step, Completed: req.Completed})
	writeResult(w, tourResult{Outcome: outcomeOf(err), Tour: tour, Progress: p})
}

func (s *Server) handleOnboardingReset(w http.ResponseWriter, r *http.Request) {
	writeResult(w, outcomeOf(s.svc.Onboarding.Reset(r.Context(), userFrom(r))))
}

func outcomeOf(err error) domain.Outcome {
	if err != nil {
		return domain.Failed(err)
	}
	return domain.OK()
}
