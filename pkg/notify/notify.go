// Package notify delivers pipeline notifications to the user.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/latextocalc/latextocalc/pkg/models"
)

// Notifier shows one notification.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Log writes notifications to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log notifier. A nil logger falls back to slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify logs n at info level on success and warn level on error.
func (l *Log) Notify(_ context.Context, n models.Notification) error {
	if n.Translated {
		l.logger.Info(n.Text(), "request_id", n.RequestID, "total_ms", n.TotalTimeMs)
		return nil
	}
	l.logger.Warn(n.Text(), "request_id", n.RequestID, "help", n.HelpURL)
	return nil
}

// Writer prints notifications as plain lines, for terminal use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer notifier over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify prints n, followed by the help link for errors.
func (w *Writer) Notify(_ context.Context, n models.Notification) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintln(w.w, n.Text()); err != nil {
		return err
	}
	if !n.Translated && n.HelpURL != "" {
		if _, err := fmt.Fprintf(w.w, "Help: %s\n", n.HelpURL); err != nil {
			return err
		}
	}
	return nil
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify calls every notifier and joins their errors.
func (m Multi) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
