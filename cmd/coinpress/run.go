package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"coinpress/internal/app"
	"coinpress/internal/config"
	"coinpress/internal/logging"
)

func newRunCmd() *cobra.Command {
	var daemon bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline pass (or loop with --daemon)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			if daemon {
				return application.RunDaemon(ctx)
			}
			return application.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&daemon, "daemon", false, "keep running on the configured interval")
	return cmd
}
