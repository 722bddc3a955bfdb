// Package timing records per-request phase timestamps and turns them into a
// breakdown of where a pipeline spent its time.
package timing

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/latextocalc/latextocalc/pkg/models"
)

// Point is a phase boundary within one pipeline.
type Point int

const (
	Keypress Point = iota
	LatexReceived
	SettingsLoadStart
	SettingsLoadEnd
	JSONSerializeStart
	JSONSerializeEnd
	NetworkStart
	NetworkEnd
	ParseStart
	ParseEnd
	ClipboardPrepStart
	ClipboardPrepEnd
	ClipboardWriteStart
	ClipboardWritten
)

// Timing holds one timestamp per Point. A zero time means "not reached".
type Timing struct {
	Keypress            time.Time
	LatexReceived       time.Time
	SettingsLoadStart   time.Time
	SettingsLoadEnd     time.Time
	JSONSerializeStart  time.Time
	JSONSerializeEnd    time.Time
	NetworkStart        time.Time
	NetworkEnd          time.Time
	ParseStart          time.Time
	ParseEnd            time.Time
	ClipboardPrepStart  time.Time
	ClipboardPrepEnd    time.Time
	ClipboardWriteStart time.Time
	ClipboardWritten    time.Time
}

func (t *Timing) field(p Point) *time.Time {
	switch p {
	case Keypress:
		return &t.Keypress
	case LatexReceived:
		return &t.LatexReceived
	case SettingsLoadStart:
		return &t.SettingsLoadStart
	case SettingsLoadEnd:
		return &t.SettingsLoadEnd
	case JSONSerializeStart:
		return &t.JSONSerializeStart
	case JSONSerializeEnd:
		return &t.JSONSerializeEnd
	case NetworkStart:
		return &t.NetworkStart
	case NetworkEnd:
		return &t.NetworkEnd
	case ParseStart:
		return &t.ParseStart
	case ParseEnd:
		return &t.ParseEnd
	case ClipboardPrepStart:
		return &t.ClipboardPrepStart
	case ClipboardPrepEnd:
		return &t.ClipboardPrepEnd
	case ClipboardWriteStart:
		return &t.ClipboardWriteStart
	case ClipboardWritten:
		return &t.ClipboardWritten
	}
	panic(fmt.Sprintf("timing: unknown point %d", p))
}

// At returns the timestamp recorded for p.
func (t Timing) At(p Point) time.Time {
	return *t.field(p)
}

// Phase is a labelled span between two points.
type Phase struct {
	Label string
	Start Point
	End   Point
}

// Phases are reported in this order.
var Phases = []Phase{
	{"LaTeX extraction", Keypress, LatexReceived},
	{"Settings load", SettingsLoadStart, SettingsLoadEnd},
	{"JSON serialize", JSONSerializeStart, JSONSerializeEnd},
	{"Network request", NetworkStart, NetworkEnd},
	{"Response parsing", ParseStart, ParseEnd},
	{"Clipboard prep", ClipboardPrepStart, ClipboardPrepEnd},
	{"Clipboard write", ClipboardWriteStart, ClipboardWritten},
}

// maxEntries bounds how many requests are retained at once.
const maxEntries = 10

// Tracker keeps timings for recent requests. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	timings map[string]*Timing
	order   []string
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a Tracker. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		timings: make(map[string]*Timing),
		now:     time.Now,
		logger:  logger,
	}
}

// Start begins tracking id with Keypress set to now. Starting an id that is
// already tracked resets it. When more than maxEntries are retained, the
// oldest by creation is evicted.
func (tr *Tracker) Start(id string) Timing {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, ok := tr.timings[id]; ok {
		tr.removeLocked(id)
	}
	t := &Timing{Keypress: tr.now()}
	tr.timings[id] = t
	tr.order = append(tr.order, id)
	for len(tr.order) > maxEntries {
		tr.removeLocked(tr.order[0])
	}
	return *t
}

// Mark records now for p. It reports false when id is not tracked.
func (tr *Tracker) Mark(id string, p Point) bool {
	return tr.MarkAt(id, p, tr.now())
}

// MarkAt records at for p. It reports false when id is not tracked.
func (tr *Tracker) MarkAt(id string, p Point, at time.Time) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	t, ok := tr.timings[id]
	if !ok {
		return false
	}
	*t.field(p) = at
	return true
}

// Timing returns a copy of the timestamps recorded for id.
func (tr *Tracker) Timing(id string) (Timing, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	t, ok := tr.timings[id]
	if !ok {
		return Timing{}, false
	}
	return *t, true
}

// Len returns the number of retained entries.
func (tr *Tracker) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.timings)
}

// Breakdown computes per-phase durations for id. It returns nil when the
// terminal point was never reached, the total is not positive, or a phase
// has only one of its points or a negative duration.
func (tr *Tracker) Breakdown(id string) *models.Breakdown {
	t, ok := tr.Timing(id)
	if !ok {
		return nil
	}
	return Compute(t)
}

// Compute builds a breakdown from t. See Tracker.Breakdown.
func Compute(t Timing) *models.Breakdown {
	if t.ClipboardWritten.IsZero() || t.Keypress.IsZero() {
		return nil
	}
	total := ms(t.ClipboardWritten.Sub(t.Keypress))
	if total <= 0 {
		return nil
	}

	b := &models.Breakdown{TotalMs: round(total), Phases: make([]models.PhaseTiming, 0, len(Phases))}
	for _, p := range Phases {
		start, end := t.At(p.Start), t.At(p.End)
		var d float64
		switch {
		case start.IsZero() && end.IsZero():
			// phase skipped entirely, e.g. network on a cache hit
		case start.IsZero() || end.IsZero():
			return nil
		default:
			d = ms(end.Sub(start))
		}
		if d < 0 {
			return nil
		}
		b.Phases = append(b.Phases, models.PhaseTiming{
			Label:      p.Label,
			DurationMs: round(d),
			Percent:    round(d / total * 100),
		})
	}
	return b
}

// Report logs the breakdown for id and stops tracking it.
func (tr *Tracker) Report(id string) *models.Breakdown {
	b := tr.Breakdown(id)
	if b == nil {
		tr.logger.Debug("timing breakdown incomplete", "request_id", id)
	} else {
		tr.logger.Debug(Format(b), "request_id", id)
	}

	tr.mu.Lock()
	tr.removeLocked(id)
	tr.mu.Unlock()
	return b
}

// Format renders b as an aligned multi-line table.
func Format(b *models.Breakdown) string {
	if b == nil {
		return "timing breakdown incomplete"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Timing breakdown (total: %.1f ms):", b.TotalMs)
	for _, p := range b.Phases {
		fmt.Fprintf(&sb, "\n    - %-18s %5.1f ms (%4.1f%%)", p.Label, p.DurationMs, p.Percent)
	}
	return sb.String()
}

func (tr *Tracker) removeLocked(id string) {
	delete(tr.timings, id)
	for i, v := range tr.order {
		if v == id {
			tr.order = append(tr.order[:i], tr.order[i+1:]...)
			return
		}
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func round(v float64) float64 {
	return math.Round(v*10) / 10
}
