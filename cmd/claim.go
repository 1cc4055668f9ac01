package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/trailquest/internal/engine"
)

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim a reward",
}

var claimDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Claim today's daily bonus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		c, err := rt.eng.ClaimDailyBonus(cmd.Context(), userFlag(cmd))
		if err != nil {
			return err
		}
		printClaim(cmd.OutOrStdout(), "daily bonus", c)
		return nil
	},
}

var claimModuleCmd = &cobra.Command{
	Use:   "module <module>",
	Short: "Claim a completed module's reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		c, err := rt.eng.ClaimModuleReward(cmd.Context(), userFlag(cmd), args[0])
		if err != nil {
			return err
		}
		printClaim(cmd.OutOrStdout(), "module "+args[0], c)
		return nil
	},
}

func printClaim(out io.Writer, what string, c *engine.Claim) {
	if !c.Granted() {
		fmt.Fprintf(out, "%s: already granted\n", what)
		return
	}
	fmt.Fprintf(out, "%s: +%d XP, +%d coins", what, c.Grant.Amount.XP, c.Grant.Amount.Coins)
	if c.Grant.BadgeID != "" {
		fmt.Fprintf(out, ", badge %s", c.Grant.BadgeID)
	}
	fmt.Fprintln(out)
	if c.TotalsStale {
		fmt.Fprintln(out, "totals will catch up on the next `trailquest reconcile`")
		return
	}
	fmt.Fprintf(out, "total: %d XP, %d coins, level %d\n", c.Totals.XP, c.Totals.Coins, c.Totals.Level)
}

func init() {
	claimCmd.AddCommand(claimDailyCmd)
	claimCmd.AddCommand(claimModuleCmd)
}
