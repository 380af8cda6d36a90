package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/domain"
	"github.com/gemral/gem/internal/infra/sqlite"
)

var _ Store = (*sqlite.DB)(nil)

func newTestService(t *testing.T) (*Service, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(db), db
}

func TestTooltips(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	if !svc.ShouldShowTooltip(ctx, user, "combo_meter") {
		t.Error("new tooltip should show")
	}
	if err := svc.MarkTooltipViewed(ctx, user, "combo_meter"); err != nil {
		t.Fatalf("MarkTooltipViewed() error: %v", err)
	}
	if svc.ShouldShowTooltip(ctx, user, "combo_meter") {
		t.Error("viewed tooltip should not show")
	}
	if err := svc.MarkTooltipViewed(ctx, user, "combo_meter"); err != nil {
		t.Errorf("marking twice should be a no-op, got %v", err)
	}
	if err := svc.MarkTooltipViewed(ctx, user, ""); !errors.Is(err, domain.ErrInvalidActivity) {
		t.Errorf("expected ErrInvalidActivity for empty id, got %v", err)
	}
}

func TestWriteThrough(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	_ = svc.DismissDiscovery(ctx, user, "habit_grid")
	_, _ = svc.AdvanceTour(ctx, user, "welcome")

	fresh := NewService(db)
	st, err := fresh.State(ctx, user)
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}
	if !st.DismissedDiscoveries["habit_grid"] {
		t.Error("dismissal should be persisted")
	}
	if st.TourProgress["welcome"].Step != 1 {
		t.Errorf("expected tour step 1, got %+v", st.TourProgress["welcome"])
	}
}

func TestTours(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	for i := 0; i < 3; i++ {
		_, _ = svc.AdvanceTour(ctx, user, "welcome")
	}
	p, err := svc.CompleteTour(ctx, user, "welcome")
	if err != nil {
		t.Fatalf("CompleteTour() error: %v", err)
	}
	if p.Step != 3 || !p.Completed {
		t.Errorf("expected completed at step 3, got %+v", p)
	}

	p, _ = svc.AdvanceTour(ctx, user, "welcome")
	if p.Step != 3 {
		t.Errorf("completed tour should not advance, got %+v", p)
	}

	p, err = svc.SetTourProgress(ctx, user, "trading", domain.TourProgress{Step: 5})
	if err != nil || p.Step != 5 {
		t.Errorf("expected step 5, got %+v (%v)", p, err)
	}
	if _, err := svc.SetTourProgress(ctx, user, "trading", domain.TourProgress{Step: -1}); err == nil {
		t.Error("negative step should be rejected")
	}
}

func TestStateIsCopy(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	st, _ := svc.State(ctx, user)
	st.ViewedTooltips["combo_meter"] = true
	if !svc.ShouldShowTooltip(ctx, user, "combo_meter") {
		t.Error("mutating the returned state should not affect the service")
	}
}

func TestReset(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	_ = svc.MarkTooltipViewed(ctx, user, "combo_meter")
	if err := svc.Reset(ctx, user); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if !svc.ShouldShowTooltip(ctx, user, "combo_meter") {
		t.Error("tooltip should show again after reset")
	}
	if err := svc.Reset(ctx, uuid.Nil); !errors.Is(err, domain.ErrInvalidUser) {
		t.Errorf("expected ErrInvalidUser, got %v", err)
	}
}
