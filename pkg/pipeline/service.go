// Package pipeline runs one user-triggered translation from input capture to
// clipboard write, coordinating the cache, dispatcher, prober, supersession
// controller and timing tracker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latextocalc/latextocalc/pkg/cache"
	"github.com/latextocalc/latextocalc/pkg/controller"
	"github.com/latextocalc/latextocalc/pkg/dispatch"
	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/notify"
	"github.com/latextocalc/latextocalc/pkg/settings"
	"github.com/latextocalc/latextocalc/pkg/timing"
)

// TextSource yields the expression to translate.
type TextSource interface {
	ReadText(ctx context.Context) (string, error)
}

// ClipboardWriter receives the translated result.
type ClipboardWriter interface {
	WriteText(ctx context.Context, text string) error
}

// Translator performs the network dispatch. *dispatch.Dispatcher implements it.
type Translator interface {
	Translate(ctx context.Context, expression string, s models.Settings, requestID string) (dispatch.Result, error)
}

// Prober classifies a total dispatch failure. *probe.Prober implements it.
type Prober interface {
	Probe(ctx context.Context) bool
}

// SettingsStore persists settings. *settings.SQLiteStore implements it.
type SettingsStore interface {
	Load(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, s models.Settings) error
}

// HistoryRecorder stores finished pipelines. *history.SQLiteRecorder implements it.
type HistoryRecorder interface {
	Record(ctx context.Context, rec models.HistoryRecord) error
}

// Options wires a Service. Translator is required; everything else has a
// usable default.
type Options struct {
	Translator Translator
	Prober     Prober
	Cache      *cache.Cache
	Timing     *timing.Tracker
	Controller *controller.Controller
	Settings   SettingsStore
	Defaults   models.Settings
	Clipboard  ClipboardWriter
	Notifier   notify.Notifier
	History    HistoryRecorder
	Logger     *slog.Logger
	NewID      func() string
}

// Translation is the result of Service.Translate.
type Translation struct {
	Text     string `json:"result"`
	Cached   bool   `json:"cached"`
	Endpoint string `json:"endpoint,omitempty"`
}

// Service runs translation pipelines. Safe for concurrent use; a newer
// Trigger supersedes any pipeline still in flight.
type Service struct {
	translator Translator
	prober     Prober
	cache      *cache.Cache
	timing     *timing.Tracker
	ctrl       *controller.Controller
	store      SettingsStore
	defaults   models.Settings
	clipboard  ClipboardWriter
	notifier   notify.Notifier
	history    HistoryRecorder
	logger     *slog.Logger
	newID      func() string
	now        func() time.Time

	settingsMu sync.Mutex
	settings   models.Settings
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.Translator == nil {
		return nil, errors.New("pipeline: translator is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.New()
	}
	if opts.Timing == nil {
		opts.Timing = timing.New(opts.Logger)
	}
	if opts.Controller == nil {
		opts.Controller = controller.New()
	}
	if opts.Defaults == nil {
		opts.Defaults = models.DefaultSettings()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLog(opts.Logger)
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Service{
		translator: opts.Translator,
		prober:     opts.Prober,
		cache:      opts.Cache,
		timing:     opts.Timing,
		ctrl:       opts.Controller,
		store:      opts.Settings,
		defaults:   opts.Defaults.Normalize(),
		clipboard:  opts.Clipboard,
		notifier:   opts.Notifier,
		history:    opts.History,
		logger:     opts.Logger,
		newID:      opts.NewID,
		now:        time.Now,
	}, nil
}

// Cache returns the translation cache.
func (s *Service) Cache() *cache.Cache { return s.cache }

// Close cancels any pipeline still in flight.
func (s *Service) Close() { s.ctrl.Close() }

// Trigger runs one pipeline reading its input from src. The returned outcome
// always has a status; a superseded pipeline ends as StatusCancelled without
// notifying the user or touching the cache.
func (s *Service) Trigger(ctx context.Context, src TextSource) models.Outcome {
	id := s.newID()
	started := s.timing.Start(id).Keypress
	pctx := s.ctrl.Begin(ctx, id)
	defer s.ctrl.End(id)

	logger := s.logger.With("request_id", id)
	out := models.Outcome{RequestID: id}

	finish := func() models.Outcome {
		b := s.timing.Report(id)
		if b != nil {
			out.Breakdown = b
			out.TotalMs = b.TotalMs
		} else if out.TotalMs == 0 {
			out.TotalMs = float64(s.now().Sub(started).Microseconds()) / 1000
		}
		s.notify(pctx, id, &out, logger)
		s.record(ctx, out, logger)
		return out
	}

	text, err := src.ReadText(pctx)
	s.timing.Mark(id, timing.LatexReceived)
	if pctx.Err() != nil {
		out.Status = models.StatusCancelled
		return finish()
	}
	expr := strings.TrimSpace(text)
	if err != nil || expr == "" {
		if err != nil {
			logger.Debug("text source failed", "error", err)
		}
		out.Status = models.StatusNoInput
		out.Message = MsgNoInput
		return finish()
	}
	out.Input = expr

	s.timing.Mark(id, timing.SettingsLoadStart)
	current, err := s.Settings(pctx)
	s.timing.Mark(id, timing.SettingsLoadEnd)
	if err != nil {
		logger.Warn("settings unavailable, using defaults", "error", err)
	}

	result, cached := s.cache.Lookup(expr)
	if cached {
		at := s.now()
		s.timing.MarkAt(id, timing.NetworkStart, at)
		s.timing.MarkAt(id, timing.NetworkEnd, at)
		logger.Debug("cache hit", "input", expr)
	} else {
		res, err := s.translator.Translate(pctx, expr, current, id)
		if pctx.Err() != nil {
			out.Status = models.StatusCancelled
			return finish()
		}
		if err != nil {
			out.Status, out.Message = s.classify(pctx, err, logger)
			if pctx.Err() != nil {
				out.Status, out.Message = models.StatusCancelled, ""
			}
			return finish()
		}
		if !s.ctrl.Commit(id, func() { s.cache.Store(expr, res.Text) }) {
			out.Status = models.StatusCancelled
			return finish()
		}
		result = res.Text
		out.Endpoint = res.Candidate.BaseURL()
	}
	out.Result = result
	out.Cached = cached

	s.timing.Mark(id, timing.ClipboardPrepStart)
	payload := result
	s.timing.Mark(id, timing.ClipboardPrepEnd)

	s.timing.Mark(id, timing.ClipboardWriteStart)
	if s.clipboard != nil {
		if err := s.clipboard.WriteText(pctx, payload); err != nil {
			if pctx.Err() != nil {
				out.Status = models.StatusCancelled
				return finish()
			}
			logger.Warn("clipboard write failed", "error", err)
			out.Status = models.StatusClipboardError
			out.Message = MsgClipboardError
			return finish()
		}
	}
	s.timing.Mark(id, timing.ClipboardWritten)

	out.Status = models.StatusTranslated
	return finish()
}

// classify runs the connectivity probe once and picks the error category.
func (s *Service) classify(ctx context.Context, err error, logger *slog.Logger) (models.OutcomeStatus, string) {
	var derr *dispatch.Error
	if errors.As(err, &derr) {
		logger.Info("all endpoints failed", "attempts", len(derr.Attempts), "error", err)
	} else {
		logger.Warn("dispatch failed", "error", err)
	}
	if s.prober != nil && !s.prober.Probe(ctx) {
		return models.StatusNoInternet, MsgNoInternet
	}
	return models.StatusServerDown, MsgServerDown
}

// notify delivers the outcome to the user unless the pipeline was cancelled
// or superseded in the meantime.
func (s *Service) notify(ctx context.Context, id string, out *models.Outcome, logger *slog.Logger) {
	if out.Status == models.StatusCancelled {
		logger.Debug("pipeline cancelled")
		return
	}
	n := models.Notification{RequestID: id}
	if out.Status == models.StatusTranslated {
		n.Translated = true
		n.TotalTimeMs = out.TotalMs
	} else {
		n.Error = out.Message
		n.HelpURL = HelpURL
	}

	if !s.ctrl.IsActive(id) {
		out.Status, out.Message = models.StatusCancelled, ""
		logger.Debug("pipeline superseded before notification")
		return
	}
	// Delivery runs outside the controller lock so a slow notifier never
	// delays the next Begin; that Begin cancels ctx instead.
	out.Message = n.Text()
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Warn("notification failed", "error", err)
	}
}

func (s *Service) record(ctx context.Context, out models.Outcome, logger *slog.Logger) {
	if s.history == nil {
		return
	}
	rec := models.HistoryRecord{
		RequestID: out.RequestID,
		Input:     out.Input,
		Output:    out.Result,
		Status:    out.Status,
		Endpoint:  out.Endpoint,
		Cached:    out.Cached,
		TotalMs:   out.TotalMs,
		CreatedAt: s.now().UTC(),
	}
	if out.Status != models.StatusTranslated {
		rec.Error = out.Message
	}
	if err := s.history.Record(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("record history failed", "error", err)
	}
}

// Translate converts expression through the cache and dispatcher only. It
// neither touches the clipboard nor notifies the user, and does not take part
// in supersession.
func (s *Service) Translate(ctx context.Context, expression string) (Translation, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return Translation{}, ErrNoInput
	}
	if out, ok := s.cache.Lookup(expr); ok {
		return Translation{Text: out, Cached: true}, nil
	}

	current, err := s.Settings(ctx)
	if err != nil {
		s.logger.Warn("settings unavailable, using defaults", "error", err)
	}
	res, err := s.translator.Translate(ctx, expr, current, s.newID())
	if err != nil {
		return Translation{}, fmt.Errorf("translate: %w", err)
	}
	s.cache.Store(expr, res.Text)
	return Translation{Text: res.Text, Endpoint: res.Candidate.BaseURL()}, nil
}

// Settings returns the current settings, loading them from the store on
// first use. When the store has nothing saved the defaults are used. A load
// error returns the defaults together with the error and is retried on the
// next call.
func (s *Service) Settings(ctx context.Context) (models.Settings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	if s.settings != nil {
		return s.settings.Clone(), nil
	}
	if s.store == nil {
		s.settings = s.defaults.Clone()
		return s.settings.Clone(), nil
	}

	loaded, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, settings.ErrNotFound):
		s.settings = s.defaults.Clone()
	case err != nil:
		return s.defaults.Clone(), fmt.Errorf("load settings: %w", err)
	default:
		s.settings = s.defaults.Apply(loaded)
	}
	return s.settings.Clone(), nil
}

// UpdateSettings persists next and makes it the current settings. The TI/SC
// pair is normalized first.
func (s *Service) UpdateSettings(ctx context.Context, next models.Settings) (models.Settings, error) {
	normalized := next.Normalize()

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	if s.store != nil {
		if err := s.store.Save(ctx, normalized); err != nil {
			return nil, fmt.Errorf("save settings: %w", err)
		}
	}
	s.settings = normalized
	return normalized.Clone(), nil
}
