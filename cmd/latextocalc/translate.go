package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/latextocalc/latextocalc/pkg/clipboard"
	"github.com/latextocalc/latextocalc/pkg/config"
	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/pipeline"
	"github.com/latextocalc/latextocalc/pkg/timing"
)

func newTranslateCmd(flags *rootFlags) *cobra.Command {
	var (
		fromStdin bool
		noCopy    bool
		showTimes bool
	)

	cmd := &cobra.Command{
		Use:   "translate [expression]",
		Short: "Translate one expression (default: the clipboard) and copy the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			system := clipboard.NewSystem()
			var src pipeline.TextSource = system
			switch {
			case len(args) > 0:
				src = clipboard.Static(strings.Join(args, " "))
			case fromStdin:
				src = clipboard.NewReader(os.Stdin)
			}

			var sink pipeline.ClipboardWriter = system
			if noCopy {
				sink = clipboard.Discard{}
			}

			a, err := newApp(cfg, appOptions{clipboard: sink})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := a.svc.Trigger(ctx, src)
			switch out.Status {
			case models.StatusTranslated, models.StatusClipboardError:
				fmt.Fprintln(cmd.OutOrStdout(), out.Result)
			case models.StatusCancelled:
				return context.Canceled
			}
			if showTimes && out.Breakdown != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), timing.Format(out.Breakdown))
			}
			if out.Status != models.StatusTranslated {
				return errors.New(out.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the expression from stdin")
	cmd.Flags().BoolVar(&noCopy, "no-copy", false, "print the result without writing the clipboard")
	cmd.Flags().BoolVar(&showTimes, "timing", false, "print the timing breakdown")
	return cmd
}
