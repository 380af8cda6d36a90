package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gemral/gem/internal/daemon"
	"github.com/gemral/gem/internal/domain"
)

func init() {
	rootCmd.AddCommand(trackCmd)
}

var trackCmd = &cobra.Command{
	Use:       "track <affirmation|habit|goal|action>",
	Short:     "Record a daily quest completion",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"affirmation", "habit", "goal", "action"},
	RunE:      runTrack,
}

func runTrack(cmd *cobra.Command, args []string) error {
	userID, err := currentUser()
	if err != nil {
		return err
	}
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	res := d.Engagement.TrackCompletion(context.Background(), userID, domain.QuestCategory(args[0]))
	if jsonOutput {
		return printJSON(res)
	}
	if err := checkOutcome(res.Outcome); err != nil {
		return err
	}

	fmt.Printf("✓ %s done\n", res.Category)
	fmt.Printf("Combo: %d/4  (x%.1f)\n", res.ComboCount, res.Multiplier)
	switch {
	case res.IsFullCombo4:
		fmt.Println("🔥 Full combo! All four quests completed today.")
	case res.IsFullCombo:
		fmt.Println("⚡ Combo! Affirmation, habit and goal completed today.")
	}
	printUnlocked(res.NewAchievements)
	return nil
}
