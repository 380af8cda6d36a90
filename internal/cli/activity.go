package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gemral/gem/internal/daemon"
	"github.com/gemral/gem/internal/domain"
)

func init() {
	rootCmd.AddCommand(wellnessCmd)
	rootCmd.AddCommand(socialCmd)
	rootCmd.AddCommand(tradingCmd)
}

var wellnessCmd = &cobra.Command{
	Use:       "wellness <tarot|iching|meditation>",
	Short:     "Record a wellness session",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tarot", "iching", "meditation"},
	RunE:      runWellness,
}

var socialCmd = &cobra.Command{
	Use:   "social <post|comment|follower|gift_sent|viral_post|referral>",
	Short: "Record a social activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runSocial,
}

var tradingCmd = &cobra.Command{
	Use:   "trading <trade|winning_trade|losing_trade>",
	Short: "Record a logged trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrading,
}

func runWellness(cmd *cobra.Command, args []string) error {
	userID, err := currentUser()
	if err != nil {
		return err
	}
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	res := d.Engagement.TrackWellnessActivity(context.Background(), userID, domain.WellnessActivity(args[0]))
	if jsonOutput {
		return printJSON(res)
	}
	if err := checkOutcome(res.Outcome); err != nil {
		return err
	}
	fmt.Printf("✓ %s recorded, streak %d day(s)\n", res.Activity, res.Streak.CurrentStreak)
	printUnlocked(res.NewAchievements)
	return nil
}

func runSocial(cmd *cobra.Command, args []string) error {
	userID, err := currentUser()
	if err != nil {
		return err
	}
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	activity := domain.SocialActivity(args[0])
	res := d.Engagement.TrackSocialActivity(context.Background(), userID, activity)
	if jsonOutput {
		return printJSON(res)
	}
	if err := checkOutcome(res.Outcome); err != nil {
		return err
	}
	fmt.Printf("✓ %s recorded, total %d\n", res.Activity, res.Stats.Count(activity))
	printUnlocked(res.NewAchievements)
	return nil
}

func runTrading(cmd *cobra.Command, args []string) error {
	userID, err := currentUser()
	if err != nil {
		return err
	}
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	res := d.Engagement.TrackTradingActivity(context.Background(), userID, domain.TradingActivity(args[0]))
	if jsonOutput {
		return printJSON(res)
	}
	if err := checkOutcome(res.Outcome); err != nil {
		return err
	}
	fmt.Printf("✓ %s recorded: %d trades, %d wins, win streak %d (best %d)\n",
		res.Activity, res.Stats.TotalTrades, res.Stats.WinningTrades,
		res.Stats.CurrentWinStreak, res.Stats.BestWinStreak)
	printUnlocked(res.NewAchievements)
	return nil
}
