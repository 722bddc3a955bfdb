package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/latextocalc/latextocalc/pkg/models"
)

func TestWriterSuccess(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriter(&buf)
	err := n.Notify(context.Background(), models.Notification{Translated: true, TotalTimeMs: 123.4})
	if err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Translated and copied to clipboard (123 ms).\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestWriterErrorWithHelp(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriter(&buf)
	_ = n.Notify(context.Background(), models.Notification{
		Error:   "Translation server is unreachable. Please try again later.",
		HelpURL: "https://example.com/help",
	})
	out := buf.String()
	if !strings.HasPrefix(out, "Translation server is unreachable.") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "Help: https://example.com/help") {
		t.Errorf("expected help link in %q", out)
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	_ = NewLog(logger).Notify(context.Background(), models.Notification{RequestID: "r1", Error: "boom"})
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "request_id=r1") {
		t.Errorf("unexpected log %q", buf.String())
	}
}

type failing struct{}

func (failing) Notify(context.Context, models.Notification) error { return errors.New("closed") }

func TestMultiJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	m := Multi{failing{}, NewWriter(&buf)}
	err := m.Notify(context.Background(), models.Notification{Translated: true})
	if err == nil {
		t.Error("expected joined error")
	}
	if buf.Len() == 0 {
		t.Error("later notifiers must still run after a failure")
	}
}
