package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/latextocalc/latextocalc/pkg/config"
	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/settings"
)

func newSettingsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the translation settings",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openSettings(flags)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			current, err := loadSettings(cmd.Context(), cfg, store)
			if err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), current)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set key=bool...",
		Short: "Change settings, e.g. SC_on=true e_on=false",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := parseAssignments(args)
			if err != nil {
				return err
			}

			cfg, store, err := openSettings(flags)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			current, err := loadSettings(ctx, cfg, store)
			if err != nil {
				return err
			}
			next := current.Apply(changes)
			if err := store.Save(ctx, next); err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), next)
		},
	}

	cmd.AddCommand(getCmd, setCmd)
	return cmd
}

func openSettings(flags *rootFlags) (*config.Config, *settings.SQLiteStore, error) {
	cfg, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	store, err := settings.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

// loadSettings overlays the stored settings onto the configured defaults.
func loadSettings(ctx context.Context, cfg *config.Config, store *settings.SQLiteStore) (models.Settings, error) {
	stored, err := store.Load(ctx)
	if errors.Is(err, settings.ErrNotFound) {
		return cfg.Settings.Normalize(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg.Settings.Apply(stored), nil
}

func parseAssignments(args []string) (models.Settings, error) {
	changes := make(models.Settings, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid setting %q, want key=true|false", arg)
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		changes[key] = v
	}
	return changes, nil
}

func printSettings(out io.Writer, s models.Settings) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SETTING\tVALUE")
	for _, k := range s.Keys() {
		fmt.Fprintf(w, "%s\t%t\n", k, s[k])
	}
	return w.Flush()
}
