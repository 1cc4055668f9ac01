package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Record a login for today and update the streak",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.eng.Login(cmd.Context(), userFlag(cmd))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if res.Changed {
			fmt.Fprintf(out, "streak: %d day(s)\n", res.Streak)
		} else {
			fmt.Fprintf(out, "already logged in on %s, streak %d\n", res.LastLogin, res.Streak)
		}
		if res.Milestone != nil {
			printClaim(out, fmt.Sprintf("%d-day streak", res.Streak), res.Milestone)
		}
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show XP, coins, level, streak and badges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		p, err := rt.eng.Profile(cmd.Context(), userFlag(cmd))
		if err != nil {
			return err
		}

		lastLogin := "never"
		if p.LastLogin != nil {
			lastLogin = p.LastLogin.String()
		}
		badges := "none"
		if len(p.Badges) > 0 {
			badges = strings.Join(p.Badges, ", ")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "user:        %s\n", p.UserID)
		fmt.Fprintf(out, "level:       %d\n", p.Totals.Level)
		fmt.Fprintf(out, "xp:          %d\n", p.Totals.XP)
		fmt.Fprintf(out, "coins:       %d\n", p.Totals.Coins)
		fmt.Fprintf(out, "streak:      %d day(s), next milestone at %d\n", p.StreakDays, p.NextMilestone)
		fmt.Fprintf(out, "last login:  %s\n", lastLogin)
		fmt.Fprintf(out, "badges:      %s\n", badges)
		return nil
	},
}
