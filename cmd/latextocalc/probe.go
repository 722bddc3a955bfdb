package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/latextocalc/latextocalc/pkg/config"
	"github.com/latextocalc/latextocalc/pkg/dispatch"
	"github.com/latextocalc/latextocalc/pkg/probe"
	"github.com/latextocalc/latextocalc/pkg/router"
)

func newProbeCmd(flags *rootFlags) *cobra.Command {
	var endpoints bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check internet connectivity and, optionally, the primary endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(flags.configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			out := cmd.OutOrStdout()

			if probe.New(cfg.Probe.URL, nil, nil).Probe(ctx) {
				fmt.Fprintf(out, "internet:  reachable (%s)\n", cfg.Probe.URL)
			} else {
				fmt.Fprintf(out, "internet:  unreachable (%s)\n", cfg.Probe.URL)
			}

			if !endpoints {
				return nil
			}
			cfg, store, err := openSettings(flags)
			if err != nil {
				return err
			}
			defer store.Close()
			current, err := loadSettings(ctx, cfg, store)
			if err != nil {
				return err
			}
			d, err := dispatch.New(router.New(&cfg.Endpoints), dispatch.Options{
				Path:    cfg.Endpoints.Path,
				Timeout: cfg.Endpoints.Timeout,
				Origin:  cfg.Endpoints.Origin,
			})
			if err != nil {
				return err
			}
			start := time.Now()
			if err := d.Warmup(ctx, cfg.Warmup.Expression, current); err != nil {
				fmt.Fprintf(out, "primary:   failed (%s): %v\n", d.Primary(), err)
				return nil
			}
			fmt.Fprintf(out, "primary:   ok (%s, %d ms)\n", d.Primary(), time.Since(start).Milliseconds())
			return nil
		},
	}

	cmd.Flags().BoolVar(&endpoints, "endpoints", false, "also send one request to the primary endpoint")
	return cmd
}
