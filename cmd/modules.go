package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/trailquest/internal/rewards"
	"github.com/abhisek/trailquest/internal/ui/trailview"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the imported modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		modules, err := rt.eng.Modules(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-24s  %-32s  %-8s  %6s  %s\n", "ID", "Title", "Version", "Phases", "Reward")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, m := range modules {
			title := m.Title
			if len(title) > 32 {
				title = title[:29] + "..."
			}
			reward := rewards.ModuleReward(m.Phases, m.Bonus)
			fmt.Fprintf(out, "%-24s  %-32s  %-8s  %6d  %d XP, %d coins\n",
				m.ID, title, m.Version, len(m.Phases), reward.XP, reward.Coins)
		}
		fmt.Fprintf(out, "\n%d modules\n", len(modules))
		return nil
	},
}

var trailCmd = &cobra.Command{
	Use:   "trail <module>",
	Short: "Show a module's trail with locks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		view, err := rt.eng.ComputeTrail(cmd.Context(), userFlag(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), trailview.Render(view, trailview.NoSelection, 72))
		return nil
	},
}
