package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/latextocalc/latextocalc/pkg/config"
	"github.com/latextocalc/latextocalc/pkg/history"
)

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var (
		limit   int
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent translations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(flags.configPath)
			if err != nil {
				return err
			}

			rec, err := history.New(cfg.DBPath, 0)
			if err != nil {
				return err
			}
			defer rec.Close()

			ctx := context.Background()

			if summary {
				rows, err := rec.Summary(ctx)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No translations recorded.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "STATUS\tENDPOINT\tREQUESTS\tCACHED\tAVG MS")
				for _, r := range rows {
					endpoint := r.Endpoint
					if endpoint == "" {
						endpoint = "-"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\n",
						r.Status, endpoint, humanize.Comma(int64(r.RequestCount)), humanize.Comma(int64(r.CachedCount)), r.AvgTotalMs)
				}
				return w.Flush()
			}

			recs, err := rec.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No translations recorded.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tSTATUS\tINPUT\tOUTPUT\tCACHED\tTOTAL MS")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%.1f\n",
					humanize.Time(r.CreatedAt), r.Status, r.Input, r.Output, r.Cached, r.TotalMs)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().BoolVar(&summary, "summary", false, "show counts grouped by status and endpoint")
	return cmd
}
