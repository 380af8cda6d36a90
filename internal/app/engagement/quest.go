package engagement

import (
	"time"

	"github.com/gemral/gem/internal/domain"
)

// DailyQuest describes one of the four daily quest categories.
type DailyQuest struct {
	Category    domain.QuestCategory `json:"category"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Icon        string               `json:"icon"`
	Order       int                  `json:"order"`
}

// dailyQuests is the fixed quest board. The first three are the legacy combo set.
var dailyQuests = []DailyQuest{
	{Category: domain.QuestAffirmation, Title: "Khẳng định", Description: "Read today's affirmation", Icon: "✨", Order: 1},
	{Category: domain.QuestHabit, Title: "Thói quen", Description: "Check off a daily habit", Icon: "✅", Order: 2},
	{Category: domain.QuestGoal, Title: "Mục tiêu", Description: "Review your goals", Icon: "🎯", Order: 3},
	{Category: domain.QuestAction, Title: "Hành động", Description: "Take one concrete action", Icon: "⚡", Order: 4},
}

// DailyQuests returns the quest board in display order.
func DailyQuests() []DailyQuest {
	out := make([]DailyQuest, len(dailyQuests))
	copy(out, dailyQuests)
	return out
}

// ValidQuestCategory reports whether c is one of the four quest categories.
// This is the only input check done before a completion reaches the backend.
func ValidQuestCategory(c domain.QuestCategory) bool {
	for _, q := range dailyQuests {
		if q.Category == c {
			return true
		}
	}
	return false
}

// comboMultipliers maps combo count to the server-side reward multiplier.
var comboMultipliers = map[int]float64{
	0: 1.0,
	1: 1.0,
	2: 1.2,
	3: 1.5,
	4: 2.0,
}

// MultiplierForCombo returns the reward multiplier for a combo count.
// The backend owns the real value; this is used for display only.
func MultiplierForCombo(count int) float64 {
	if count > 4 {
		count = 4
	}
	if m, ok := comboMultipliers[count]; ok {
		return m
	}
	return 1.0
}

// QuestStatus is one quest board row with today's state.
type QuestStatus struct {
	DailyQuest
	Done bool `json:"done"`
}

// QuestBoard merges the quest definitions with today's completion flags.
func QuestBoard(status domain.DailyCompletionStatus) []QuestStatus {
	board := make([]QuestStatus, 0, len(dailyQuests))
	for _, q := range dailyQuests {
		board = append(board, QuestStatus{DailyQuest: q, Done: status.Done(q.Category)})
	}
	return board
}

// dayOf truncates t to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
