package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute running totals from the reward ledger",
	Long: "Recompute XP, coins and level from the append-only reward ledger. Use after a\n" +
		"grant was recorded but its totals update failed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		if all, _ := cmd.Flags().GetBool("all"); all {
			limit, _ := cmd.Flags().GetInt("concurrency")
			results, err := rt.eng.ReconcileAll(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(out, "%-24s %6d XP %6d coins  level %d\n", r.UserID, r.Totals.XP, r.Totals.Coins, r.Totals.Level)
			}
			fmt.Fprintf(out, "\n%d users reconciled\n", len(results))
			return nil
		}

		user := userFlag(cmd)
		t, err := rt.eng.Reconcile(cmd.Context(), user)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d XP, %d coins, level %d\n", user, t.XP, t.Coins, t.Level)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().Bool("all", false, "Reconcile every user")
	reconcileCmd.Flags().Int("concurrency", 4, "Users reconciled in parallel with --all")
}
