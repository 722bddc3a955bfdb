package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/latextocalc/latextocalc/pkg/clipboard"
	"github.com/latextocalc/latextocalc/pkg/config"
	"github.com/latextocalc/latextocalc/pkg/mcp"
)

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start latextocalc as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			a, err := newApp(cfg, appOptions{clipboard: clipboard.Discard{}})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var hist mcp.HistoryReader
			if a.history != nil {
				hist = a.history
			}
			srv := mcp.New(a.svc, hist, a.svc.Cache(), version, a.logger)
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
