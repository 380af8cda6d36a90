// Package insight turns pre-aggregated analytics into personal insights and
// next-step recommendations. Nothing here computes KPIs; it only reads them.
package insight

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gemral/gem/internal/app/accounthealth"
	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/cache"
	"github.com/gemral/gem/internal/infra/metrics"
)

// Cache namespaces and part names reported in FailedParts.
const (
	NamespaceProgress = "progress_analysis"
	NamespaceCohort   = "cohort_comparison"

	PartProgress = "progress"
	PartCohort   = "cohort"
	PartHealth   = "health"
)

// Config tunes the generator.
type Config struct {
	Locale       Locale
	MaxInsights  int
	MaxNextSteps int
	AnalyticsTTL time.Duration
}

// InsightsResult is the reply of GetPersonalInsights. Always non-empty.
type InsightsResult struct {
	domain.Outcome
	Insights    []domain.InsightRecord `json:"insights"`
	FailedParts []string               `json:"failed_parts,omitempty"`
}

// NextStepsResult is the reply of GetNextSteps. Always non-empty.
type NextStepsResult struct {
	domain.Outcome
	Steps       []domain.NextStep `json:"steps"`
	FailedParts []string          `json:"failed_parts,omitempty"`
}

// Service generates insights for one user at a time.
type Service struct {
	backend  domain.AnalyticsBackend
	health   *accounthealth.Service
	progress *cache.Cache[domain.ProgressAnalysis]
	cohort   *cache.Cache[domain.CohortComparison]
	cfg      Config
}

// NewService wires the generator. health may be nil, in which case the
// health rule never fires.
func NewService(backend domain.AnalyticsBackend, health *accounthealth.Service, mgr *cache.Manager, cfg Config) *Service {
	if cfg.AnalyticsTTL <= 0 {
		cfg.AnalyticsTTL = cache.DefaultAnalyticsTTL
	}
	if cfg.Locale == "" {
		cfg.Locale = LocaleVI
	}
	return &Service{
		backend:  backend,
		health:   health,
		progress: cache.NewCache[domain.ProgressAnalysis](mgr, NamespaceProgress, cfg.AnalyticsTTL),
		cohort:   cache.NewCache[domain.CohortComparison](mgr, NamespaceCohort, cfg.AnalyticsTTL),
		cfg:      cfg,
	}
}

// GetPersonalInsights reads progress, cohort and health concurrently, each
// independently fault tolerant, then applies the rules in fixed order.
func (s *Service) GetPersonalInsights(ctx context.Context, userID uuid.UUID) InsightsResult {
	if userID == uuid.Nil {
		return InsightsResult{Outcome: domain.Failed(domain.ErrInvalidUser)}
	}

	in, failed, degraded := s.gather(ctx, userID, true)
	insights := Generate(in, s.cfg.Locale, s.cfg.MaxInsights)
	for _, ins := range insights {
		metrics.InsightsGenerated.WithLabelValues(string(ins.Type)).Inc()
	}

	res := InsightsResult{Outcome: domain.OK(), Insights: insights, FailedParts: failed}
	res.Degraded = degraded
	return res
}

// GetNextSteps returns at most MaxNextSteps recommendations.
func (s *Service) GetNextSteps(ctx context.Context, userID uuid.UUID) NextStepsResult {
	if userID == uuid.Nil {
		return NextStepsResult{Outcome: domain.Failed(domain.ErrInvalidUser)}
	}

	in, failed, degraded := s.gather(ctx, userID, false)
	res := NextStepsResult{
		Outcome:     domain.OK(),
		Steps:       NextSteps(in, s.cfg.Locale, s.cfg.MaxNextSteps),
		FailedParts: failed,
	}
	res.Degraded = degraded
	return res
}

// gather fetches the inputs. Goroutines never fail the group.
func (s *Service) gather(ctx context.Context, userID uuid.UUID, withHealth bool) (Inputs, []string, bool) {
	var (
		in       Inputs
		mu       sync.Mutex
		failed   []string
		degraded bool
	)
	fail := func(part, op string, err error) {
		unsupported := domain.IsNotSupported(err)
		if unsupported {
			metrics.Degraded.WithLabelValues(op).Inc()
			log.Printf("[insight] %s not deployed", op)
		} else {
			log.Printf("[insight] %s for %s failed: %v", op, userID, err)
		}
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, part)
		degraded = degraded || unsupported
	}

	var g errgroup.Group

	g.Go(func() error {
		p, _, err := s.progress.Fetch(ctx, userID, false, func(ctx context.Context) (domain.ProgressAnalysis, error) {
			return s.backend.UserProgressAnalysis(ctx, userID)
		})
		if err != nil {
			fail(PartProgress, domain.OpUserProgressAnalysis, err)
			return nil
		}
		in.Progress = &p
		return nil
	})
	g.Go(func() error {
		c, _, err := s.cohort.Fetch(ctx, userID, false, func(ctx context.Context) (domain.CohortComparison, error) {
			return s.backend.GetUserCohortComparison(ctx, userID)
		})
		if err != nil {
			fail(PartCohort, domain.OpGetCohortComparison, err)
			return nil
		}
		in.Cohort = &c
		return nil
	})
	if withHealth && s.health != nil {
		g.Go(func() error {
			res := s.health.Snapshot(ctx, userID, false)
			switch {
			case !res.Success:
				mu.Lock()
				failed = append(failed, PartHealth)
				mu.Unlock()
			case res.Degraded:
				mu.Lock()
				failed = append(failed, PartHealth)
				degraded = true
				mu.Unlock()
			default:
				in.Health = res.Snapshot
			}
			return nil
		})
	}

	_ = g.Wait()

	sort.Strings(failed)
	return in, failed, degraded
}
