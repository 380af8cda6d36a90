package engagement

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/metrics"
)

// AwardGate grants an achievement at most once per user.
// Uniqueness is enforced remotely; the gate only translates the reply.
// Award never returns an error: every failure reads as "not newly granted".
type AwardGate struct {
	backend domain.GamificationBackend
}

// NewAwardGate creates an award gate over a backend.
func NewAwardGate(backend domain.GamificationBackend) *AwardGate {
	return &AwardGate{backend: backend}
}

// Award returns true only if this call inserted the unlock row.
func (g *AwardGate) Award(ctx context.Context, req domain.AwardRequest) bool {
	if req.UserID == uuid.Nil || req.AchievementID == "" {
		return false
	}

	isNew, err := g.backend.AwardAchievement(ctx, req)
	if err != nil {
		if domain.IsNotSupported(err) {
			metrics.AwardAttempts.WithLabelValues("unsupported").Inc()
			log.Printf("[award] award_achievement not deployed, skipped %s", req.AchievementID)
			return false
		}
		metrics.AwardAttempts.WithLabelValues("error").Inc()
		log.Printf("[award] %s for %s failed: %v", req.AchievementID, req.UserID, err)
		return false
	}
	if !isNew {
		metrics.AwardAttempts.WithLabelValues("existing").Inc()
		return false
	}

	metrics.AwardAttempts.WithLabelValues("new").Inc()
	metrics.AchievementsAwarded.WithLabelValues(string(req.Category)).Inc()
	log.Printf("[award] %s unlocked %s (+%d)", req.UserID, req.AchievementID, req.Points)
	return true
}

// AwardDef awards a catalog definition, copying its points.
func (g *AwardGate) AwardDef(ctx context.Context, userID uuid.UUID, def domain.AchievementDef, trigger *int) bool {
	return g.Award(ctx, domain.AwardRequest{
		UserID:        userID,
		AchievementID: def.ID,
		Category:      def.Category,
		Points:        def.Points,
		TriggerValue:  trigger,
	})
}
