package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/latextocalc/latextocalc/pkg/router"
)

// ErrAllEndpointsFailed is returned (wrapped in *Error) when the primary and
// every fallback candidate failed.
var ErrAllEndpointsFailed = errors.New("all translation endpoints failed")

// AttemptError describes why a single candidate attempt failed.
type AttemptError struct {
	Candidate  router.Candidate
	StatusCode int  // non-zero when the server answered with a non-2xx status
	Timeout    bool // the per-attempt deadline expired
	Err        error
}

func (e *AttemptError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: timed out", e.Candidate)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Candidate, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Candidate, e.Err)
	}
}

func (e *AttemptError) Unwrap() error { return e.Err }

// Error is a total dispatch failure.
type Error struct {
	Attempts []*AttemptError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("%v after %d attempts: %s", ErrAllEndpointsFailed, len(e.Attempts), strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return ErrAllEndpointsFailed }
