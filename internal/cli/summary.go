package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gemral/gem/internal/app/engagement"
	"github.com/gemral/gem/internal/daemon"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show level, streak, today's quests and recent achievements",
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	userID, err := currentUser()
	if err != nil {
		return err
	}
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	sum := d.Engagement.GetGamificationSummary(context.Background(), userID)
	if jsonOutput {
		return printJSON(sum)
	}
	view := engagement.BuildGamificationView(sum, d.Engagement.Catalog())

	fmt.Printf("Level %d  %s  %.0f%%\n", view.Level, bar(view.XPProgress, 20), view.XPProgress)
	fmt.Printf("XP: %d (%d to next level)\n", view.XP, view.XPToNext)
	fmt.Printf("Streak: %d day(s), longest %d\n", view.CurrentStreak, view.LongestStreak)
	fmt.Printf("Today: combo %d/4 (x%.1f)\n", view.TodayCombo, view.Multiplier)
	for _, q := range view.Quests {
		mark := "○"
		if q.Done {
			mark = "●"
		}
		fmt.Printf("  %s %s\n", mark, q.Title)
	}
	fmt.Printf("Achievements: %d/%d\n", view.UnlockedCount, view.TotalAchievements)
	for _, a := range view.RecentAchievements {
		title := a.AchievementID
		if def, ok := d.Engagement.Catalog().Get(a.AchievementID); ok {
			title = def.Icon + " " + def.Title
		}
		fmt.Printf("  %s  %s\n", a.UnlockedAt.Format("2006-01-02"), title)
	}
	if len(sum.FailedParts) > 0 {
		fmt.Printf("\n(unavailable: %s)\n", strings.Join(sum.FailedParts, ", "))
	}
	return nil
}
