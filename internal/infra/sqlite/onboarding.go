package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gemral/gem/internal/domain"
)

// ─── Onboarding State ───────────────────────────────────────────────────────

// LoadOnboarding reads every onboarding row of a user.
func (d *DB) LoadOnboarding(ctx context.Context, userID uuid.UUID) (domain.OnboardingState, error) {
	state := domain.NewOnboardingState()

	rows, err := d.db.QueryContext(ctx,
		`SELECT kind, item, value FROM onboarding_state WHERE user_id = ?`, userID.String())
	if err != nil {
		return state, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, item, value string
		if err := rows.Scan(&kind, &item, &value); err != nil {
			return state, err
		}
		switch domain.OnboardingKind(kind) {
		case domain.OnboardingTooltip:
			state.ViewedTooltips[item] = true
		case domain.OnboardingDiscovery:
			state.DismissedDiscoveries[item] = true
		case domain.OnboardingTour:
			var p domain.TourProgress
			if err := json.Unmarshal([]byte(value), &p); err != nil {
				return state, fmt.Errorf("decode tour %q: %w", item, err)
			}
			state.TourProgress[item] = p
		}
	}
	return state, rows.Err()
}

// MarkOnboardingItem records a viewed tooltip or dismissed discovery.
func (d *DB) MarkOnboardingItem(ctx context.Context, userID uuid.UUID, kind domain.OnboardingKind, item string) error {
	return d.putOnboarding(ctx, userID, kind, item, "1")
}

// SaveTourProgress stores the progress of one tour.
func (d *DB) SaveTourProgress(ctx context.Context, userID uuid.UUID, tour string, p domain.TourProgress) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return d.putOnboarding(ctx, userID, domain.OnboardingTour, tour, string(b))
}

// DeleteOnboarding removes every onboarding row of a user.
func (d *DB) DeleteOnboarding(ctx context.Context, userID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM onboarding_state WHERE user_id = ?`, userID.String())
	return err
}

func (d *DB) putOnboarding(ctx context.Context, userID uuid.UUID, kind domain.OnboardingKind, item, value string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO onboarding_state (user_id, kind, item, value, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, kind, item) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		userID.String(), string(kind), item, value, time.Now().Unix(),
	)
	return err
}
