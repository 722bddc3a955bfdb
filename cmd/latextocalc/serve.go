package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/latextocalc/latextocalc/pkg/clipboard"
	"github.com/latextocalc/latextocalc/pkg/config"
	"github.com/latextocalc/latextocalc/pkg/server"
	"github.com/latextocalc/latextocalc/pkg/warmup"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local trigger server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if listen != "" {
				cfg.Listen = listen
			}

			clip := clipboard.NewSystem()
			a, err := newApp(cfg, appOptions{clipboard: clip})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Warmup.Enabled {
				current, _ := a.svc.Settings(ctx)
				w := warmup.New(a.dispatcher, cfg.Warmup.Delay, cfg.Warmup.Expression, current, a.logger)
				w.Start(ctx)
			}

			srv := server.New(cfg.Listen, a.svc, clip, a.logger)
			a.logger.Info("starting latextocalc", "config", flags.configPath, "primary", a.dispatcher.Primary().String())
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "override the listen address")
	return cmd
}
