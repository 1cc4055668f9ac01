package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/trailquest/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the progression and rewards HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		addr := rt.cfg.HTTPAddr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return api.NewServer(addr, rt.eng, rt.log).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address; overrides TRAILQUEST_HTTP_ADDR")
}
