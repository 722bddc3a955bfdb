// Package clipboard provides the text sources and result writers used by the
// translation pipeline, backed by the system clipboard.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("system clipboard unsupported")

// System reads and writes the OS clipboard.
type System struct {
	read  func() (string, error)
	write func(string) error
}

// NewSystem returns a System backed by github.com/atotto/clipboard.
func NewSystem() *System {
	return &System{read: clipboard.ReadAll, write: clipboard.WriteAll}
}

// ReadText returns the clipboard contents.
func (s *System) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if clipboard.Unsupported {
		return "", ErrUnsupported
	}
	text, err := s.read()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// WriteText replaces the clipboard contents.
func (s *System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := s.write(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Static is a text source that always yields the same expression.
type Static string

// ReadText returns the static text.
func (s Static) ReadText(ctx context.Context) (string, error) {
	return string(s), ctx.Err()
}

// Reader is a text source that drains an io.Reader once.
type Reader struct {
	r io.Reader
}

// NewReader wraps r, typically os.Stdin.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadText reads r to EOF and trims the trailing newline.
func (r *Reader) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := io.ReadAll(r.r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// Memory is an in-process clipboard. The zero value is ready to use.
type Memory struct {
	mu     sync.Mutex
	text   string
	writes int
}

// ReadText returns the last written text.
func (m *Memory) ReadText(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, ctx.Err()
}

// WriteText stores text.
func (m *Memory) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.writes++
	return nil
}

// Writes returns how many times WriteText succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Discard accepts writes and drops them.
type Discard struct{}

// WriteText does nothing.
func (Discard) WriteText(ctx context.Context, _ string) error {
	return ctx.Err()
}
