// Package warmup fires one throwaway translation at startup so the primary
// endpoint's connection is already open when the user first triggers.
package warmup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/latextocalc/latextocalc/pkg/models"
)

// Warmer sends the throwaway request. *dispatch.Dispatcher implements it.
type Warmer interface {
	Warmup(ctx context.Context, expression string, settings models.Settings) error
}

// Scheduler runs a single warmup in the background.
type Scheduler struct {
	warmer     Warmer
	delay      time.Duration
	expression string
	settings   models.Settings
	logger     *slog.Logger

	once sync.Once
	done chan struct{}
	err  error
}

// New creates a Scheduler. Nothing is sent until Start.
func New(w Warmer, delay time.Duration, expression string, settings models.Settings, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if expression == "" {
		expression = "1"
	}
	return &Scheduler{
		warmer:     w,
		delay:      delay,
		expression: expression,
		settings:   settings,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start launches the warmup goroutine. Only the first call has an effect.
func (s *Scheduler) Start(ctx context.Context) {
	s.once.Do(func() {
		go s.run(ctx)
	})
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			s.err = ctx.Err()
			return
		}
	}

	start := time.Now()
	s.err = s.warmer.Warmup(ctx, s.expression, s.settings)
	if s.err != nil {
		s.logger.Debug("warmup request failed", "error", s.err)
		return
	}
	s.logger.Debug("warmup request completed", "elapsed_ms", time.Since(start).Milliseconds())
}

// Wait blocks until the warmup finished and returns its error.
// It must only be called after Start.
func (s *Scheduler) Wait() error {
	<-s.done
	return s.err
}
