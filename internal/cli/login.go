package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gemral/gem/internal/daemon"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login <user-id>",
	Short: "Remember a user for later commands",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil || id == uuid.Nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.DB.SetDeviceInfo(deviceUserKey, id.String()); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	fmt.Printf("✓ Logged in as %s\n", id)
	return nil
}
