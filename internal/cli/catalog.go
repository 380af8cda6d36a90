package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gemral/gem/internal/app/engagement"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"achievements"},
	Short:   "List every achievement that can be unlocked",
	RunE:    runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	catalog := engagement.NewCatalog()
	if jsonOutput {
		return printJSON(catalog.Grouped())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tTITLE\tPOINTS\tTHRESHOLD")
	for _, def := range catalog.All() {
		threshold := "-"
		if !def.OneShot() {
			threshold = fmt.Sprintf("%d", def.Threshold)
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%d\t%s\n",
			def.ID, def.Category, def.Icon, def.Title, def.Points, threshold)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d achievements\n", catalog.Len())
	return nil
}
