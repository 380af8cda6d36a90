package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gemral/gem/internal/app/accounthealth"
	"github.com/gemral/gem/internal/daemon"
)

func init() {
	healthCmd.Flags().BoolVar(&healthRefresh, "refresh", false, "Bypass the cache")
	healthCmd.Flags().BoolVar(&healthServices, "services", false, "Check service dependencies instead")
	rootCmd.AddCommand(healthCmd)
}

var (
	healthRefresh  bool
	healthServices bool
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show account health, or dependency health with --services",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()
	ctx := context.Background()

	if healthServices {
		statuses := d.Health.RunOnce(ctx)
		if jsonOutput {
			return printJSON(statuses)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CHECK\tHEALTHY\tERROR")
		for _, s := range statuses {
			fmt.Fprintf(w, "%s\t%v\t%s\n", s.Name, s.Healthy, s.Error)
		}
		return w.Flush()
	}

	userID, err := currentUser()
	if err != nil {
		return err
	}
	res := d.AccountHealth.Snapshot(ctx, userID, healthRefresh)
	if jsonOutput {
		return printJSON(res)
	}
	if err := checkOutcome(res.Outcome); err != nil {
		return err
	}
	if res.Snapshot == nil {
		fmt.Println("No account health data yet.")
		return nil
	}

	snap := res.Snapshot
	fmt.Printf("%s %s  %.1f%%  %s\n", res.Info.Icon, res.Info.Label, snap.BalancePct, bar(snap.BalancePct, 20))
	fmt.Printf("Balance: %s / %s (daily %+.2f%%)\n",
		snap.Balance.StringFixed(2), snap.InitialBalance.StringFixed(2), snap.DailyChangePct)
	if accounthealth.NeedsAttention(snap.HealthStatus) {
		fmt.Println("⚠ This account needs attention.")
	}
	fmt.Printf("As of %s (%s)\n", snap.Date.Format("2006-01-02"), res.Source)
	return nil
}
