package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/trailquest/internal/engine"
)

var startCmd = &cobra.Command{
	Use:   "start <phase>",
	Short: "Start a phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.eng.StartPhase(cmd.Context(), userFlag(cmd), args[0])
		if err != nil {
			return err
		}
		if res.Replay {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: already completed (replay)\n", res.PhaseID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.PhaseID, res.Status)
		}
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <phase>",
	Short: "Complete a phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rating *int
		if cmd.Flags().Changed("rating") {
			r, _ := cmd.Flags().GetInt("rating")
			rating = &r
		}

		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.eng.CompletePhase(cmd.Context(), userFlag(cmd), args[0], rating)
		if err != nil {
			return err
		}
		printPhaseResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func printPhaseResult(out io.Writer, res *engine.PhaseResult) {
	if res.Replay {
		fmt.Fprintf(out, "%s: already completed (replay)\n", res.PhaseID)
	} else {
		fmt.Fprintf(out, "%s: %s\n", res.PhaseID, res.Status)
	}
	fmt.Fprintf(out, "module %s: %.0f%%\n", res.ModuleID, res.Progress)
	if res.ModuleComplete {
		fmt.Fprintf(out, "module complete, claim %d XP and %d coins with `trailquest claim module %s`\n",
			res.RewardPreview.XP, res.RewardPreview.Coins, res.ModuleID)
	}
}

func init() {
	completeCmd.Flags().Int("rating", 0, "Rate the phase from 1 to 5")
}
