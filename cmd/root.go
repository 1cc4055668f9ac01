package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/trailquest/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "trailquest",
	Short: "Learning trails with streaks and rewards",
	Long: "TrailQuest walks learners through modules phase by phase, unlocking each step\n" +
		"as the previous one is completed, and pays XP and coins exactly once per reward.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		user := userFlag(cmd)
		if _, err := rt.eng.Login(cmd.Context(), user); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		return app.Run(rt.eng, user)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Database path (sqlite) or connection string (postgres); overrides TRAILQUEST_DB")
	pf.String("driver", "", "Database driver: sqlite or postgres; overrides TRAILQUEST_DB_DRIVER")
	pf.String("user", "", "User id to act as; overrides TRAILQUEST_USER (default \"local\")")
	pf.String("today", "", "Pretend today is this date (YYYY-MM-DD) in the reference timezone")
	pf.BoolP("verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(trailCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(versionCmd)
}
