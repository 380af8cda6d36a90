// Package onboarding tracks which tooltips a user has seen, which discovery
// cards they dismissed and how far they got in each guided tour.
package onboarding

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/domain"
)

// Store persists onboarding state. Implemented by sqlite.DB.
type Store interface {
	LoadOnboarding(ctx context.Context, userID uuid.UUID) (domain.OnboardingState, error)
	MarkOnboardingItem(ctx context.Context, userID uuid.UUID, kind domain.OnboardingKind, item string) error
	SaveTourProgress(ctx context.Context, userID uuid.UUID, tour string, p domain.TourProgress) error
	DeleteOnboarding(ctx context.Context, userID uuid.UUID) error
}

// Service holds onboarding state per user, loaded lazily and written through.
type Service struct {
	store Store

	mu     sync.Mutex
	states map[uuid.UUID]*domain.OnboardingState
}

// NewService creates an onboarding service over store.
func NewService(store Store) *Service {
	return &Service{store: store, states: make(map[uuid.UUID]*domain.OnboardingState)}
}

// load returns the cached state, reading it from the store on first use.
// Caller must hold s.mu.
func (s *Service) load(ctx context.Context, userID uuid.UUID) (*domain.OnboardingState, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrInvalidUser
	}
	if st, ok := s.states[userID]; ok {
		return st, nil
	}
	st, err := s.store.LoadOnboarding(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load onboarding: %w", err)
	}
	s.states[userID] = &st
	return &st, nil
}

// State returns a copy of the user's onboarding state.
func (s *Service) State(ctx context.Context, userID uuid.UUID) (domain.OnboardingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx, userID)
	if err != nil {
		return domain.NewOnboardingState(), err
	}
	out := domain.NewOnboardingState()
	for k, v := range st.ViewedTooltips {
		out.ViewedTooltips[k] = v
	}
	for k, v := range st.DismissedDiscoveries {
		out.DismissedDiscoveries[k] = v
	}
	for k, v := range st.TourProgress {
		out.TourProgress[k] = v
	}
	return out, nil
}

// ShouldShowTooltip reports whether the tooltip has not been viewed yet.
// A load failure hides the tooltip.
func (s *Service) ShouldShowTooltip(ctx context.Context, userID uuid.UUID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx, userID)
	if err != nil {
		return false
	}
	return !st.ViewedTooltips[id]
}

// MarkTooltipViewed records a viewed tooltip.
func (s *Service) MarkTooltipViewed(ctx context.Context, userID uuid.UUID, id string) error {
	return s.mark(ctx, userID, domain.OnboardingTooltip, id)
}

// DismissDiscovery records a dismissed discovery card.
func (s *Service) DismissDiscovery(ctx context.Context, userID uuid.UUID, id string) error {
	return s.mark(ctx, userID, domain.OnboardingDiscovery, id)
}

func (s *Service) mark(ctx context.Context, userID uuid.UUID, kind domain.OnboardingKind, id string) error {
	if id == "" {
		return fmt.Errorf("empty %s id: %w", kind, domain.ErrInvalidActivity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	set := st.ViewedTooltips
	if kind == domain.OnboardingDiscovery {
		set = st.DismissedDiscoveries
	}
	if set[id] {
		return nil
	}
	if err := s.store.MarkOnboardingItem(ctx, userID, kind, id); err != nil {
		return fmt.Errorf("save %s %s: %w", kind, id, err)
	}
	set[id] = true
	return nil
}

// ─── Tours ──────────────────────────────────────────────────────────────────

// AdvanceTour moves a tour one step forward. A completed tour does not move.
func (s *Service) AdvanceTour(ctx context.Context, userID uuid.UUID, tour string) (domain.TourProgress, error) {
	return s.updateTour(ctx, userID, tour, func(p domain.TourProgress) domain.TourProgress {
		if !p.Completed {
			p.Step++
		}
		return p
	})
}

// CompleteTour marks a tour completed at its current step.
func (s *Service) CompleteTour(ctx context.Context, userID uuid.UUID, tour string) (domain.TourProgress, error) {
	return s.updateTour(ctx, userID, tour, func(p domain.TourProgress) domain.TourProgress {
		p.Completed = true
		return p
	})
}

// SetTourProgress overwrites a tour's progress.
func (s *Service) SetTourProgress(ctx context.Context, userID uuid.UUID, tour string, progress domain.TourProgress) (domain.TourProgress, error) {
	if progress.Step < 0 {
		return domain.TourProgress{}, fmt.Errorf("negative tour step: %w", domain.ErrInvalidStat)
	}
	return s.updateTour(ctx, userID, tour, func(domain.TourProgress) domain.TourProgress {
		return progress
	})
}

func (s *Service) updateTour(ctx context.Context, userID uuid.UUID, tour string, next func(domain.TourProgress) domain.TourProgress) (domain.TourProgress, error) {
	if tour == "" {
		return domain.TourProgress{}, fmt.Errorf("empty tour id: %w", domain.ErrInvalidActivity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx, userID)
	if err != nil {
		return domain.TourProgress{}, err
	}
	p := next(st.TourProgress[tour])
	if err := s.store.SaveTourProgress(ctx, userID, tour, p); err != nil {
		return st.TourProgress[tour], fmt.Errorf("save tour %s: %w", tour, err)
	}
	st.TourProgress[tour] = p
	return p, nil
}

// Reset forgets all onboarding state of a user.
func (s *Service) Reset(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return domain.ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteOnboarding(ctx, userID); err != nil {
		return fmt.Errorf("reset onboarding: %w", err)
	}
	delete(s.states, userID)
	return nil
}

// Forget drops the in-memory copy of a user's state, keeping what is stored.
func (s *Service) Forget(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
