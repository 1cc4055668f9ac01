package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/trailquest/internal/app"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Check in for today and collect the daily bonus",
	Long: "Record today's login, claim the daily bonus and show every reward earned\n" +
		"on the rewards screen, one card at a time.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		user := userFlag(cmd)

		login, err := rt.eng.Login(ctx, user)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if _, err := rt.eng.ClaimDailyBonus(ctx, user); err != nil {
			return fmt.Errorf("daily bonus: %w", err)
		}

		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			for {
				cur, ok := rt.queue.Current()
				if !ok {
					break
				}
				n := cur.Notification
				fmt.Fprintf(cmd.OutOrStdout(), "%s: +%d XP, +%d coins\n", n.Title, n.XP, n.Coins)
				rt.eng.DismissCurrent()
			}
		} else if err := app.ShowRewards(rt.eng); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "streak: %d day(s)\n", login.Streak)
		return nil
	},
}

func init() {
	playCmd.Flags().Bool("no-ui", false, "Print rewards instead of showing the rewards screen")
}
