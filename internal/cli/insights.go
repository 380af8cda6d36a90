package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gemral/gem/internal/daemon"
)

func init() {
	rootCmd.AddCommand(insightsCmd)
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show personal insights and recommended next steps",
	RunE:  runInsights,
}

func runInsights(cmd *cobra.Command, args []string) error {
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

	insights := d.Insights.GetPersonalInsights(ctx, userID)
	steps := d.Insights.GetNextSteps(ctx, userID)
	if jsonOutput {
		return printJSON(map[string]any{"insights": insights, "next_steps": steps})
	}
	if err := checkOutcome(insights.Outcome); err != nil {
		return err
	}

	fmt.Println("Insights:")
	for _, in := range insights.Insights {
		fmt.Printf("  [%s] %s\n", in.Type, in.Text)
	}
	if steps.Success && len(steps.Steps) > 0 {
		fmt.Println()
		fmt.Println("Next steps:")
		for i, s := range steps.Steps {
			fmt.Printf("  %d. %s: %s (%s)\n", i+1, s.Title, s.Description, s.Action)
		}
	}
	if len(insights.FailedParts) > 0 {
		fmt.Printf("\n(unavailable: %s)\n", strings.Join(insights.FailedParts, ", "))
	}
	return nil
}
