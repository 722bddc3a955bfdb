package models

import "fmt"

// OutcomeStatus is the terminal state of a pipeline.
type OutcomeStatus string

const (
	StatusTranslated     OutcomeStatus = "translated"
	StatusCancelled      OutcomeStatus = "cancelled"
	StatusNoInput        OutcomeStatus = "no_input"
	StatusNoInternet     OutcomeStatus = "no_internet"
	StatusServerDown     OutcomeStatus = "server_down"
	StatusClipboardError OutcomeStatus = "clipboard_error"
)

// Outcome describes how one pipeline ended.
type Outcome struct {
	RequestID string        `json:"request_id"`
	Status    OutcomeStatus `json:"status"`
	Input     string        `json:"input,omitempty"`
	Result    string        `json:"result,omitempty"`
	Endpoint  string        `json:"endpoint,omitempty"`
	Cached    bool          `json:"cached"`
	Message   string        `json:"message,omitempty"`
	TotalMs   float64       `json:"total_ms,omitempty"`
	Breakdown *Breakdown    `json:"breakdown,omitempty"`
}

// Notification is what the popup surface receives: either Translated with
// the total time, or a non-empty Error.
type Notification struct {
	RequestID   string  `json:"request_id"`
	Translated  bool    `json:"translated"`
	TotalTimeMs float64 `json:"total_time_ms,omitempty"`
	Error       string  `json:"error,omitempty"`
	HelpURL     string  `json:"help_url,omitempty"`
}

// Breakdown is the per-phase timing of one completed pipeline.
type Breakdown struct {
	TotalMs float64       `json:"total_ms"`
	Phases  []PhaseTiming `json:"phases"`
}

// PhaseTiming is one row of a Breakdown.
type PhaseTiming struct {
	Label      string  `json:"label"`
	DurationMs float64 `json:"duration_ms"`
	Percent    float64 `json:"percent"`
}

// Text renders n as the one-line message shown to the user.
func (n Notification) Text() string {
	if n.Translated {
		return fmt.Sprintf("Translated and copied to clipboard (%.0f ms).", n.TotalTimeMs)
	}
	return n.Error
}
