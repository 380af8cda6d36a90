package accounthealth

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/backend"
	"github.com/gemral/gem/internal/infra/cache"
)

// ─── Classifier ─────────────────────────────────────────────────────────────

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want domain.HealthStatus
	}{
		{100, domain.HealthHealthy},
		{80, domain.HealthHealthy},
		{79.99, domain.HealthWarning},
		{50, domain.HealthWarning},
		{49.99, domain.HealthDanger},
		{10, domain.HealthDanger},
		{9.99, domain.HealthBurned},
		{3, domain.HealthBurned},
		{2.99, domain.HealthWiped},
		{0, domain.HealthWiped},
		{-5, domain.HealthWiped},
		{math.NaN(), domain.HealthWiped},
		{math.Inf(1), domain.HealthWiped},
		{math.Inf(-1), domain.HealthWiped},
		{250, domain.HealthHealthy},
	}
	for _, tt := range tests {
		if got := Classify(tt.pct); got != tt.want {
			t.Errorf("Classify(%v): expected %s, got %s", tt.pct, tt.want, got)
		}
	}
}

func TestClassify_Monotonic(t *testing.T) {
	prev := Classify(0)
	for pct := 0.0; pct <= 120; pct += 0.25 {
		cur := Classify(pct)
		if CompareStatus(cur, prev) < 0 {
			t.Fatalf("status got worse from %s to %s at %.2f", prev, cur, pct)
		}
		prev = cur
	}
}

func TestClassifyBalance_EdgesAreExact(t *testing.T) {
	tests := []struct {
		balance string
		initial string
		want    domain.HealthStatus
	}{
		{"80", "100", domain.HealthHealthy},
		{"79.99999999999999999", "100", domain.HealthWarning},
		{"49.999999999999999999999", "100", domain.HealthDanger},
		{"2999.99999999999999999", "100000", domain.HealthBurned},
		{"2.99999999999999999", "100", domain.HealthWiped},
		{"-5", "100", domain.HealthWiped},
		{"240", "300", domain.HealthHealthy},
	}
	for _, tt := range tests {
		got := ClassifyBalance(decimal.RequireFromString(tt.balance), decimal.RequireFromString(tt.initial))
		if got != tt.want {
			t.Errorf("ClassifyBalance(%s, %s) = %s, want %s", tt.balance, tt.initial, got, tt.want)
		}
	}
}

func TestReclassify_JustBelowEdge(t *testing.T) {
	snap := Reclassify(domain.HealthSnapshot{
		Balance:        decimal.RequireFromString("79.99999999999999999"),
		InitialBalance: decimal.NewFromInt(100),
		HealthStatus:   domain.HealthHealthy,
	})
	if snap.HealthStatus != domain.HealthWarning {
		t.Errorf("expected warning just below 80%%, got %s (pct %v)", snap.HealthStatus, snap.BalancePct)
	}
}

func TestStatusOf(t *testing.T) {
	withBalances := domain.HealthSnapshot{
		Balance: decimal.RequireFromString("79.99999999999999999"), InitialBalance: decimal.NewFromInt(100),
		BalancePct: 80,
	}
	if got := StatusOf(withBalances); got != domain.HealthWarning {
		t.Errorf("balances must win over pct, got %s", got)
	}
	if got := StatusOf(domain.HealthSnapshot{BalancePct: 80}); got != domain.HealthHealthy {
		t.Errorf("expected healthy from pct alone, got %s", got)
	}
}

func TestCompareStatus(t *testing.T) {
	if CompareStatus(domain.HealthWiped, domain.HealthHealthy) != -1 {
		t.Error("wiped should rank below healthy")
	}
	if CompareStatus(domain.HealthWarning, domain.HealthDanger) != 1 {
		t.Error("warning should rank above danger")
	}
	if CompareStatus(domain.HealthBurned, domain.HealthBurned) != 0 {
		t.Error("equal statuses should compare 0")
	}
}

func TestIsCritical_NeedsAttention(t *testing.T) {
	tests := []struct {
		status    domain.HealthStatus
		critical  bool
		attention bool
	}{
		{domain.HealthHealthy, false, false},
		{domain.HealthWarning, false, false},
		{domain.HealthDanger, false, true},
		{domain.HealthBurned, true, true},
		{domain.HealthWiped, true, true},
	}
	for _, tt := range tests {
		if IsCritical(tt.status) != tt.critical {
			t.Errorf("IsCritical(%s): expected %v", tt.status, tt.critical)
		}
		if NeedsAttention(tt.status) != tt.attention {
			t.Errorf("NeedsAttention(%s): expected %v", tt.status, tt.attention)
		}
	}
}

func TestStatusInfo(t *testing.T) {
	for _, s := range domain.HealthOrder {
		info := StatusInfo(s)
		if info.Status != s || info.Label == "" || info.Icon == "" {
			t.Errorf("incomplete info for %s: %+v", s, info)
		}
	}
	if StatusInfo("bogus").Status != domain.HealthWiped {
		t.Error("unknown status should fall back to wiped")
	}
}

// ─── Service ────────────────────────────────────────────────────────────────

func newTestService(t *testing.T) (*Service, *backend.Memory) {
	t.Helper()
	mem := backend.NewMemory()
	mgr := cache.NewManager(cache.NewMemoryStore(), time.Hour)
	return NewService(mem, mgr, time.Minute), mem
}

func TestService_ReclassifiesLocally(t *testing.T) {
	svc, mem := newTestService(t)
	user := uuid.New()
	mem.SetHealth(user, domain.HealthSnapshot{
		UserID:         user,
		Date:           time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Balance:        decimal.NewFromInt(400),
		InitialBalance: decimal.NewFromInt(1000),
		BalancePct:     91,
		HealthStatus:   domain.HealthHealthy,
	})

	res := svc.Snapshot(context.Background(), user, false)
	if !res.Success || res.Snapshot == nil {
		t.Fatalf("expected snapshot, got %+v", res)
	}
	if res.Snapshot.BalancePct != 40 {
		t.Errorf("expected pct recomputed to 40, got %v", res.Snapshot.BalancePct)
	}
	if res.Snapshot.HealthStatus != domain.HealthDanger {
		t.Errorf("expected local band danger, got %s", res.Snapshot.HealthStatus)
	}
	if res.Info == nil || res.Info.Status != domain.HealthDanger {
		t.Errorf("expected danger info, got %+v", res.Info)
	}
}

func TestService_CachesWithinTTL(t *testing.T) {
	svc, mem := newTestService(t)
	user := uuid.New()
	mem.SetHealth(user, domain.HealthSnapshot{Date: time.Now(), BalancePct: 85})
	ctx := context.Background()

	first := svc.Snapshot(ctx, user, false)
	second := svc.Snapshot(ctx, user, false)
	if first.Source != cache.SourceRemote || second.Source != cache.SourceCache {
		t.Errorf("expected remote then cache, got %s / %s", first.Source, second.Source)
	}
	if mem.Calls(domain.OpGetAccountHealthSnap) != 1 {
		t.Errorf("expected 1 remote call, got %d", mem.Calls(domain.OpGetAccountHealthSnap))
	}

	svc.Snapshot(ctx, user, true)
	if mem.Calls(domain.OpGetAccountHealthSnap) != 2 {
		t.Error("force should bypass the cache")
	}
}

func TestService_ServesStaleOnFailure(t *testing.T) {
	svc, mem := newTestService(t)
	user := uuid.New()
	mem.SetHealth(user, domain.HealthSnapshot{Date: time.Now(), BalancePct: 60})
	ctx := context.Background()

	svc.Snapshot(ctx, user, false)
	mem.Fail(domain.OpGetAccountHealthSnap, errors.New("timeout"))

	res := svc.Snapshot(ctx, user, true)
	if !res.Success || res.Source != cache.SourceStale {
		t.Errorf("expected stale success, got %+v", res)
	}
	if res.Snapshot == nil || res.Snapshot.HealthStatus != domain.HealthWarning {
		t.Errorf("expected stale warning snapshot, got %+v", res.Snapshot)
	}
}

func TestService_Degradation(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	mem.Disable(domain.OpGetAccountHealthSnap)
	res := svc.Snapshot(ctx, uuid.New(), false)
	if !res.Success || !res.Degraded || res.Snapshot != nil {
		t.Errorf("expected degraded success without snapshot, got %+v", res)
	}

	mem.ClearFaults()
	mem.Fail(domain.OpGetAccountHealthSnap, errors.New("connection reset"))
	res = svc.Snapshot(ctx, uuid.New(), false)
	if res.Success || res.ErrorKind != domain.KindTransient {
		t.Errorf("expected transient failure, got %+v", res)
	}

	res = svc.Snapshot(ctx, uuid.Nil, false)
	if res.Success || res.ErrorKind != domain.KindValidation {
		t.Errorf("expected validation failure for nil user, got %+v", res)
	}
}

func TestService_NoSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	res := svc.Snapshot(context.Background(), uuid.New(), false)
	if !res.Success || res.Snapshot != nil || res.Degraded {
		t.Errorf("expected success without snapshot, got %+v", res)
	}
}
