package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/trailquest/internal/catalog"
)

var importCmd = &cobra.Command{
	Use:   "import <catalog.json>",
	Short: "Validate and import a module catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		cat, err := catalog.Parse(raw)
		if err != nil {
			return err
		}

		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		results, err := catalog.NewImporter(rt.store.Catalog(), rt.log).Import(cmd.Context(), cat)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range results {
			line := fmt.Sprintf("%-10s %-24s %s", r.Action, r.ModuleID, r.Version)
			if r.Previous != "" && r.Previous != r.Version {
				line += fmt.Sprintf(" (was %s)", r.Previous)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}
