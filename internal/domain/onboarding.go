package domain

// OnboardingKind names one of the persisted onboarding maps.
type OnboardingKind string

const (
	OnboardingTooltip   OnboardingKind = "tooltip"
	OnboardingDiscovery OnboardingKind = "discovery"
	OnboardingTour      OnboardingKind = "tour"
)

// TourProgress is the position of a user inside a guided tour.
type TourProgress struct {
	Step      int  `json:"step"`
	Completed bool `json:"completed"`
}

// OnboardingState is the device-side tooltip, discovery and tour state of a user.
type OnboardingState struct {
	ViewedTooltips       map[string]bool         `json:"viewed_tooltips"`
	DismissedDiscoveries map[string]bool         `json:"dismissed_discoveries"`
	TourProgress         map[string]TourProgress `json:"tour_progress"`
}

// NewOnboardingState returns an empty state with non-nil maps.
func NewOnboardingState() OnboardingState {
	return OnboardingState{
		ViewedTooltips:       make(map[string]bool),
		DismissedDiscoveries: make(map[string]bool),
		TourProgress:         make(map[string]TourProgress),
	}
}
