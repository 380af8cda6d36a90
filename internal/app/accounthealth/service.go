package accounthealth

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/cache"
	"github.com/gemral/gem/internal/infra/metrics"
)

// CacheNamespace is the cache namespace of health snapshots.
const CacheNamespace = "account_health"

var hundred = decimal.NewFromInt(100)

// Result is the reply of Snapshot. Snapshot is nil when none exists.
type Result struct {
	domain.Outcome
	Snapshot *domain.HealthSnapshot `json:"snapshot,omitempty"`
	Info     *Info                  `json:"info,omitempty"`
	Source   cache.Source           `json:"source,omitempty"`
}

// Service reads account health snapshots through the cache.
type Service struct {
	backend domain.AnalyticsBackend
	cache   *cache.Cache[domain.HealthSnapshot]
}

// NewService creates the service. ttl <= 0 uses cache.DefaultHealthTTL.
func NewService(backend domain.AnalyticsBackend, mgr *cache.Manager, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = cache.DefaultHealthTTL
	}
	return &Service{
		backend: backend,
		cache:   cache.NewCache[domain.HealthSnapshot](mgr, CacheNamespace, ttl),
	}
}

// Snapshot returns the latest health snapshot with the band recomputed
// locally. force skips the fresh-cache check.
func (s *Service) Snapshot(ctx context.Context, userID uuid.UUID, force bool) Result {
	if userID == uuid.Nil {
		return Result{Outcome: domain.Failed(domain.ErrInvalidUser)}
	}

	snap, src, err := s.cache.Fetch(ctx, userID, force, func(ctx context.Context) (domain.HealthSnapshot, error) {
		snap, err := s.backend.GetAccountHealthSnapshot(ctx, userID)
		if err != nil || snap.Empty() {
			return snap, err
		}
		return Reclassify(snap), nil
	})
	if err != nil {
		if domain.IsNotSupported(err) {
			metrics.Degraded.WithLabelValues(domain.OpGetAccountHealthSnap).Inc()
			log.Printf("[accounthealth] %s not deployed", domain.OpGetAccountHealthSnap)
			return Result{Outcome: domain.DegradedOK()}
		}
		log.Printf("[accounthealth] snapshot for %s failed: %v", userID, err)
		return Result{Outcome: domain.Failed(err)}
	}

	if snap.Empty() {
		return Result{Outcome: domain.OK(), Source: src}
	}
	info := StatusInfo(snap.HealthStatus)
	return Result{Outcome: domain.OK(), Snapshot: &snap, Info: &info, Source: src}
}

// Reclassify recomputes BalancePct from the balances when possible and
// overwrites HealthStatus with the local band.
func Reclassify(snap domain.HealthSnapshot) domain.HealthSnapshot {
	if snap.InitialBalance.IsPositive() {
		pct, _ := snap.Balance.Mul(hundred).DivRound(snap.InitialBalance, 8).Float64()
		snap.BalancePct = pct
	}
	snap.BalancePct = NormalizePct(snap.BalancePct)

	local := StatusOf(snap)
	if snap.HealthStatus != "" && snap.HealthStatus != local {
		metrics.AccountHealthDisagreements.Inc()
		log.Printf("[accounthealth] remote status %s disagrees with %s at %.2f%%, using local",
			snap.HealthStatus, local, snap.BalancePct)
	}
	snap.HealthStatus = local
	return snap
}
