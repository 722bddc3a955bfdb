package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/latextocalc/latextocalc/pkg/config"
	"github.com/latextocalc/latextocalc/pkg/models"
)

func newCacheCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the translation cache of a running server",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(flags.configPath)
			if err != nil {
				return err
			}

			var stats models.CacheStats
			resp, err := resty.New().
				SetTimeout(5 * time.Second).
				R().
				SetContext(cmd.Context()).
				SetResult(&stats).
				Get(serverURL(cfg.Listen) + "/v1/cache/stats")
			if err != nil {
				return fmt.Errorf("query server at %s: %w", cfg.Listen, err)
			}
			if resp.IsError() {
				return fmt.Errorf("query server at %s: status %d", cfg.Listen, resp.StatusCode())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entries: %d\nHits:    %d\nMisses:  %d\n", stats.Entries, stats.Hits, stats.Misses)
			return nil
		},
	}

	cmd.AddCommand(statsCmd)
	return cmd
}

// serverURL turns a listen address into a base URL for local requests.
func serverURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		listen = "127.0.0.1" + listen
	}
	return "http://" + listen
}
