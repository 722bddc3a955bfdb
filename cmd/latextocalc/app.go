package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/latextocalc/latextocalc/pkg/config"
	"github.com/latextocalc/latextocalc/pkg/dispatch"
	"github.com/latextocalc/latextocalc/pkg/history"
	"github.com/latextocalc/latextocalc/pkg/notify"
	"github.com/latextocalc/latextocalc/pkg/pipeline"
	"github.com/latextocalc/latextocalc/pkg/probe"
	"github.com/latextocalc/latextocalc/pkg/router"
	"github.com/latextocalc/latextocalc/pkg/settings"
	"github.com/latextocalc/latextocalc/pkg/timing"
)

// app holds the wired components shared by the serve, translate and mcp
// commands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	dispatcher *dispatch.Dispatcher
	prober     *probe.Prober
	store      *settings.SQLiteStore
	history    *history.SQLiteRecorder
	svc        *pipeline.Service
}

type appOptions struct {
	clipboard pipeline.ClipboardWriter
	notifier  notify.Notifier
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	logger := slog.Default()

	tracker := timing.New(logger)
	client := dispatch.NewClient(logger)

	d, err := dispatch.New(router.New(&cfg.Endpoints), dispatch.Options{
		Path:    cfg.Endpoints.Path,
		Timeout: cfg.Endpoints.Timeout,
		Origin:  cfg.Endpoints.Origin,
		Client:  client,
		Logger:  logger,
		Timing:  tracker,
	})
	if err != nil {
		return nil, err
	}

	store, err := settings.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init settings store: %w", err)
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		dispatcher: d,
		prober:     probe.New(cfg.Probe.URL, client, logger),
		store:      store,
	}

	var recorder pipeline.HistoryRecorder
	if cfg.History.Enabled {
		a.history, err = history.New(cfg.DBPath, cfg.History.RetentionDays)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init history: %w", err)
		}
		recorder = a.history
	}

	a.svc, err = pipeline.New(pipeline.Options{
		Translator: d,
		Prober:     a.prober,
		Timing:     tracker,
		Settings:   store,
		Defaults:   cfg.Settings,
		Clipboard:  opts.clipboard,
		Notifier:   opts.notifier,
		History:    recorder,
		Logger:     logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Close cancels in-flight work and releases the databases.
func (a *app) Close() error {
	if a.svc != nil {
		a.svc.Close()
	}
	var errs []error
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
