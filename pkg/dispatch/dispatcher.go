// Package dispatch sends a translation request to the primary endpoint and,
// when that fails, races every remaining candidate until one succeeds.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/router"
	"github.com/latextocalc/latextocalc/pkg/timing"
)

// DefaultTimeout bounds each individual attempt.
const DefaultTimeout = 5 * time.Second

// Marker receives phase timestamps for the winning attempt.
type Marker interface {
	MarkAt(id string, p timing.Point, at time.Time) bool
}

// Options configures a Dispatcher.
type Options struct {
	Path    string        // request path, defaults to /translate
	Timeout time.Duration // per-attempt timeout, defaults to DefaultTimeout
	Origin  string        // optional Origin header
	Client  *resty.Client // defaults to a fresh resty client
	Logger  *slog.Logger
	Timing  Marker
}

// Result is a successful translation.
type Result struct {
	Text      string
	Candidate router.Candidate
	Attempts  int
}

// Dispatcher runs the endpoint-trial algorithm. Safe for concurrent use.
type Dispatcher struct {
	primary   router.Candidate
	fallbacks []router.Candidate
	path      string
	timeout   time.Duration
	origin    string
	client    *resty.Client
	logger    *slog.Logger
	timing    Marker
	now       func() time.Time
}

// New creates a Dispatcher over the candidates resolved by r.
func New(r *router.Router, opts Options) (*Dispatcher, error) {
	primary, fallbacks, err := r.Split()
	if err != nil {
		return nil, fmt.Errorf("resolve endpoints: %w", err)
	}
	if opts.Path == "" {
		opts.Path = "/translate"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Client == nil {
		opts.Client = NewClient(opts.Logger)
	}
	return &Dispatcher{
		primary:   primary,
		fallbacks: fallbacks,
		path:      opts.Path,
		timeout:   opts.Timeout,
		origin:    opts.Origin,
		client:    opts.Client,
		logger:    opts.Logger,
		timing:    opts.Timing,
		now:       time.Now,
	}, nil
}

// NewClient returns a resty client that logs through logger and never retries.
func NewClient(logger *slog.Logger) *resty.Client {
	return resty.New().
		SetRetryCount(0).
		SetLogger(restyLogger{logger})
}

// Primary returns the first-choice candidate.
func (d *Dispatcher) Primary() router.Candidate { return d.primary }

// Candidates returns the primary followed by the fallbacks.
func (d *Dispatcher) Candidates() []router.Candidate {
	return append([]router.Candidate{d.primary}, d.fallbacks...)
}

// Translate converts expression using the translation service.
//
// The primary candidate is tried alone. If it fails for any reason, every
// fallback is attempted concurrently and the first success wins; the others
// are cancelled. When all attempts fail the error is an *Error wrapping
// ErrAllEndpointsFailed. When ctx ends first, ctx.Err() is returned instead.
func (d *Dispatcher) Translate(ctx context.Context, expression string, settings models.Settings, requestID string) (Result, error) {
	d.mark(requestID, timing.JSONSerializeStart, d.now())
	body, err := EncodeBody(expression, settings)
	d.mark(requestID, timing.JSONSerializeEnd, d.now())
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	d.mark(requestID, timing.NetworkStart, d.now())
	res, err := d.attempt(ctx, d.primary, body, requestID)
	if err == nil {
		d.finish(requestID, res)
		return Result{Text: res.text, Candidate: d.primary, Attempts: 1}, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	failures := []*AttemptError{asAttemptError(d.primary, err)}
	if len(d.fallbacks) == 0 {
		return Result{}, &Error{Attempts: failures}
	}

	d.logger.Info("primary endpoint failed, trying fallbacks",
		"request_id", requestID, "primary", d.primary.String(), "fallbacks", len(d.fallbacks), "error", err)

	res, raceFailures, err := d.race(ctx, d.fallbacks, body, requestID)
	if err != nil {
		return Result{}, err
	}
	if raceFailures == nil {
		d.finish(requestID, res)
		return Result{Text: res.text, Candidate: res.candidate, Attempts: 1 + len(d.fallbacks)}, nil
	}
	return Result{}, &Error{Attempts: append(failures, raceFailures...)}
}

// Warmup sends a single throwaway request to the primary endpoint so that the
// connection is established before the first real translation.
func (d *Dispatcher) Warmup(ctx context.Context, expression string, settings models.Settings) error {
	body, err := EncodeBody(expression, settings)
	if err != nil {
		return fmt.Errorf("encode warmup: %w", err)
	}
	_, err = d.attempt(ctx, d.primary, body, "warmup")
	return err
}

// EncodeBody builds the wire body: the expression plus every setting spread
// flat at the top level.
func EncodeBody(expression string, settings models.Settings) ([]byte, error) {
	payload := make(map[string]any, len(settings)+1)
	for k, v := range settings {
		payload[k] = v
	}
	payload["expression"] = expression
	return json.Marshal(payload)
}

type attemptResult struct {
	text       string
	candidate  router.Candidate
	networkEnd time.Time
	parseStart time.Time
	parseEnd   time.Time
}

type raceOutcome struct {
	res attemptResult
	err error
	c   router.Candidate
}

// race starts one attempt per candidate and returns the first success.
// Failures is nil on success. A non-nil error means ctx ended.
func (d *Dispatcher) race(ctx context.Context, candidates []router.Candidate, body []byte, requestID string) (attemptResult, []*AttemptError, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel() // abandons the losers

	results := make(chan raceOutcome, len(candidates))
	for _, c := range candidates {
		go func(c router.Candidate) {
			res, err := d.attempt(raceCtx, c, body, requestID)
			results <- raceOutcome{res: res, err: err, c: c}
		}(c)
	}

	failures := make([]*AttemptError, 0, len(candidates))
	for range candidates {
		select {
		case out := <-results:
			if out.err == nil {
				return out.res, nil, nil
			}
			failures = append(failures, asAttemptError(out.c, out.err))
		case <-ctx.Done():
			return attemptResult{}, nil, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return attemptResult{}, nil, ctx.Err()
	}
	return attemptResult{}, failures, nil
}

// attempt performs one POST against c bounded by the per-attempt timeout.
func (d *Dispatcher) attempt(ctx context.Context, c router.Candidate, body []byte, requestID string) (attemptResult, error) {
	actx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := d.now()
	req := d.client.R().
		SetContext(actx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if d.origin != "" {
		req.SetHeader("Origin", d.origin)
	}

	resp, err := req.Post(c.URL(d.path))
	networkEnd := d.now()
	elapsed := networkEnd.Sub(start).Milliseconds()
	if err != nil {
		ae := &AttemptError{Candidate: c, Err: err}
		switch {
		case ctx.Err() != nil:
			d.logger.Debug("attempt aborted", "request_id", requestID, "endpoint", c.String(), "elapsed_ms", elapsed)
		case errors.Is(actx.Err(), context.DeadlineExceeded):
			ae.Timeout = true
			d.logger.Debug("attempt timed out", "request_id", requestID, "endpoint", c.String(), "elapsed_ms", elapsed)
		default:
			d.logger.Debug("attempt failed", "request_id", requestID, "endpoint", c.String(), "elapsed_ms", elapsed, "error", err)
		}
		return attemptResult{}, ae
	}
	if !resp.IsSuccess() {
		d.logger.Debug("attempt rejected", "request_id", requestID, "endpoint", c.String(),
			"elapsed_ms", elapsed, "status", resp.StatusCode())
		return attemptResult{}, &AttemptError{
			Candidate:  c,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status: %s", resp.Status()),
		}
	}

	parseStart := d.now()
	var tr models.TranslateResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		d.logger.Debug("attempt returned malformed body", "request_id", requestID, "endpoint", c.String(), "error", err)
		return attemptResult{}, &AttemptError{Candidate: c, Err: fmt.Errorf("decode response: %w", err)}
	}
	if tr.Result == nil {
		d.logger.Debug("attempt returned no result", "request_id", requestID, "endpoint", c.String())
		return attemptResult{}, &AttemptError{Candidate: c, Err: errors.New("response has no result field")}
	}
	parseEnd := d.now()

	d.logger.Debug("attempt succeeded", "request_id", requestID, "endpoint", c.String(), "elapsed_ms", elapsed)
	return attemptResult{
		text:       *tr.Result,
		candidate:  c,
		networkEnd: networkEnd,
		parseStart: parseStart,
		parseEnd:   parseEnd,
	}, nil
}

func (d *Dispatcher) finish(requestID string, res attemptResult) {
	d.mark(requestID, timing.NetworkEnd, res.networkEnd)
	d.mark(requestID, timing.ParseStart, res.parseStart)
	d.mark(requestID, timing.ParseEnd, res.parseEnd)
}

func (d *Dispatcher) mark(requestID string, p timing.Point, at time.Time) {
	if d.timing != nil {
		d.timing.MarkAt(requestID, p, at)
	}
}

func asAttemptError(c router.Candidate, err error) *AttemptError {
	var ae *AttemptError
	if errors.As(err, &ae) {
		return ae
	}
	return &AttemptError{Candidate: c, Err: err}
}

// restyLogger routes resty's internal messages into slog.
type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error(fmt.Sprintf(format, v...)) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn(fmt.Sprintf(format, v...)) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug(fmt.Sprintf(format, v...)) }
