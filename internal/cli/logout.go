package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gemral/gem/internal/daemon"
)

func init() {
	logoutCmd.Flags().BoolVar(&logoutOnboarding, "onboarding", false, "Also reset onboarding progress")
	rootCmd.AddCommand(logoutCmd)
}

var logoutOnboarding bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop every cached entry of the user",
	RunE:  runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
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

	if err := d.Cache.InvalidateUser(ctx, userID); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	if logoutOnboarding {
		if err := d.Onboarding.Reset(ctx, userID); err != nil {
			return fmt.Errorf("reset onboarding: %w", err)
		}
	}
	d.Onboarding.Forget(userID)
	if err := d.DB.DeleteDeviceInfo(deviceUserKey); err != nil {
		return fmt.Errorf("forget user: %w", err)
	}
	fmt.Println("✓ Logged out, cache cleared")
	return nil
}
