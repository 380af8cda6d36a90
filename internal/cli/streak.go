package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gemral/gem/internal/app/engagement"
	"github.com/gemral/gem/internal/daemon"
	"github.com/gemral/gem/internal/domain"
)

func init() {
	rootCmd.AddCommand(streakCmd)
}

var streakCmd = &cobra.Command{
	Use:   "streak [type]",
	Short: "Show one streak, or all streaks when no type is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStreak,
}

func runStreak(cmd *cobra.Command, args []string) error {
	userID, err := currentUser()
	if err != nil {
		return err
	}
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()
	ctx := context.Background()

	if len(args) == 1 {
		res := d.Engagement.GetStreak(ctx, userID, domain.StreakType(args[0]))
		if jsonOutput {
			return printJSON(res)
		}
		if err := checkOutcome(res.Outcome); err != nil {
			return err
		}
		view := engagement.BuildStreakView(res.StreakRecord, d.Engagement.Catalog(), d.Engagement.Now())
		today := ""
		if view.IsActiveToday {
			today = " ✓ today"
		}
		fmt.Printf("%s streak: %d day(s), longest %d%s\n", view.StreakType, view.Current, view.Longest, today)
		if view.NextMilestone > 0 {
			fmt.Printf("Next milestone: %d days (%d to go)\n", view.NextMilestone, view.DaysToMilestone)
		}
		return nil
	}

	res := d.Engagement.GetAllStreaks(ctx, userID)
	if jsonOutput {
		return printJSON(res)
	}
	if err := checkOutcome(res.Outcome); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tCURRENT\tLONGEST\tTOTAL\tLAST")
	for _, s := range res.Streaks {
		last := "-"
		if s.LastCompletionDate != nil {
			last = s.LastCompletionDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
			s.StreakType, s.CurrentStreak, s.LongestStreak, s.TotalCompletions, last)
	}
	return w.Flush()
}
