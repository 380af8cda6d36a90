package insight

import (
	"math"

	"github.com/gemral/gem/internal/app/accounthealth"
	"github.com/gemral/gem/internal/domain"
)

// Rule thresholds.
const (
	WinRateDeltaMin     = 5.0
	TopPercentileMin    = 80.0
	DisciplineHighMin   = 80.0
	DisciplineLowMax    = 50.0
	StepDisciplineMax   = 60.0
	StepWellnessMin     = 4
	StepWinRateMax      = 50.0
	DefaultMaxInsights  = 5
	DefaultMaxNextSteps = 3
)

// Inputs are the analytics a rule pass reads. A nil part was unavailable.
type Inputs struct {
	Progress *domain.ProgressAnalysis
	Cohort   *domain.CohortComparison
	Health   *domain.HealthSnapshot
}

func (in Inputs) practiceLevel() domain.PracticeLevel {
	if in.Progress != nil && in.Progress.PracticeLevel != "" {
		return in.Progress.PracticeLevel
	}
	if in.Cohort != nil {
		return in.Cohort.PracticeLevel
	}
	return ""
}

func (in Inputs) current() (domain.KPISnapshot, bool) {
	if in.Progress != nil {
		return in.Progress.Current, true
	}
	if in.Cohort != nil {
		return in.Cohort.User, true
	}
	return domain.KPISnapshot{}, false
}

// Generate applies the insight rules in order. Every qualifying rule fires;
// the result keeps the first limit records, or one neutral record if none qualify.
func Generate(in Inputs, locale Locale, limit int) []domain.InsightRecord {
	if limit <= 0 {
		limit = DefaultMaxInsights
	}
	var out []domain.InsightRecord
	add := func(t domain.InsightType, icon domain.InsightIcon, text string) {
		out = append(out, domain.InsightRecord{Type: t, Icon: icon, Text: text})
	}

	if p := in.Progress; p != nil {
		delta := p.Current.WinRate - p.Previous.WinRate
		switch {
		case delta > WinRateDeltaMin:
			add(domain.InsightPositive, domain.IconTrendingUp, locale.text(msgWinRateUp, delta))
		case delta < -WinRateDeltaMin:
			add(domain.InsightWarning, domain.IconTrendingDown, locale.text(msgWinRateDown, -delta))
		}

		if p.WinRatePercentile >= TopPercentileMin {
			add(domain.InsightPositive, domain.IconAward, locale.text(msgTopPercentile, topPercent(p.WinRatePercentile)))
		}

		switch d := p.Current.DisciplineScore; {
		case d >= DisciplineHighMin:
			add(domain.InsightPositive, domain.IconTarget, locale.text(msgDisciplineHigh, d))
		case d < DisciplineLowMax:
			add(domain.InsightWarning, domain.IconAlert, locale.text(msgDisciplineLow, d))
		}
	}

	switch in.practiceLevel() {
	case domain.PracticeDevoted:
		add(domain.InsightPositive, domain.IconFlame, locale.text(msgDevoted))
	case domain.PracticeInactive:
		add(domain.InsightWarning, domain.IconMoon, locale.text(msgInactive))
	}

	if h := in.Health; h != nil && !h.Empty() {
		status := accounthealth.StatusOf(*h)
		switch {
		case status == domain.HealthHealthy:
			add(domain.InsightPositive, domain.IconHeart, locale.text(msgHealthy))
		case accounthealth.IsCritical(status):
			add(domain.InsightWarning, domain.IconAlert, locale.text(msgCritical))
		}
	}

	if c := in.Cohort; c != nil && c.CohortSize > 0 {
		if c.User.WinRate > c.CohortAvg.WinRate {
			add(domain.InsightPositive, domain.IconUsers, locale.text(msgAboveCohortWinRate, c.CohortSize))
		}
		if c.User.DisciplineScore > c.CohortAvg.DisciplineScore {
			add(domain.InsightPositive, domain.IconUsers, locale.text(msgAboveCohortDiscipline))
		}
	}

	if len(out) == 0 {
		return []domain.InsightRecord{{
			Type: domain.InsightNeutral,
			Icon: domain.IconSparkles,
			Text: locale.text(msgFallback),
		}}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// topPercent turns a percentile into the "top N%" figure, at least 1.
func topPercent(percentile float64) int {
	n := int(math.Round(100 - percentile))
	if n < 1 {
		return 1
	}
	return n
}

// NextSteps returns up to limit recommendations in priority order, or the
// maintain-performance step when none apply.
func NextSteps(in Inputs, locale Locale, limit int) []domain.NextStep {
	if limit <= 0 {
		limit = DefaultMaxNextSteps
	}
	var ids []string

	switch in.practiceLevel() {
	case domain.PracticeInactive, domain.PracticeCasual:
		ids = append(ids, StepIncreasePractice)
	}
	if kpi, ok := in.current(); ok {
		if kpi.DisciplineScore < StepDisciplineMax {
			ids = append(ids, StepImproveDiscipline)
		}
		if kpi.WellnessSessions < StepWellnessMin {
			ids = append(ids, StepWellnessPractice)
		}
		if kpi.TotalTrades > 0 && kpi.WinRate < StepWinRateMax {
			ids = append(ids, StepReviewStrategy)
		}
	}

	if len(ids) == 0 {
		ids = []string{StepMaintainPerformance}
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	steps := make([]domain.NextStep, 0, len(ids))
	for _, id := range ids {
		steps = append(steps, locale.step(id))
	}
	return steps
}
