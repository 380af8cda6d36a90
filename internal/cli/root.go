// Package cli implements the gem command-line interface using Cobra.
// Each subcommand drives one service of the daemon for a single user.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gem",
	Short: "gem — gamification rules engine",
	Long: `gem tracks daily quests, streaks and combos, awards achievements,
classifies account health and generates personal insights.

Run 'gem serve' to expose the HTTP API, or use the subcommands directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var userFlag string

func init() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", os.Getenv("GEM_USER"), "User id (defaults to $GEM_USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
