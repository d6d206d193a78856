package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ehopa/internal/platform/logger"
)

// Positioner is the platform geolocation capability.
type Positioner interface {
	Position(ctx context.Context, opts Options) (Sample, error)
}

// PositionerFunc adapts a function to Positioner.
type PositionerFunc func(ctx context.Context, opts Options) (Sample, error)

func (f PositionerFunc) Position(ctx context.Context, opts Options) (Sample, error) {
	return f(ctx, opts)
}

// requester is implemented by positioners that open a request synchronously
// and answer it later, so that a fix delivered before the acquiring goroutine
// runs is not lost.
type requester interface {
	Request() Positioner
}

// canceler is implemented by positioners that keep a request open until it
// is answered.
type canceler interface {
	Cancel()
}

// OutcomeRecorder counts settled attempts by status.
type OutcomeRecorder interface {
	IncLocationOutcome(status string)
}

// Acquirer runs single-shot fixes through a Positioner and tracks the result
// as IDLE -> ACQUIRING -> {ACQUIRED | PERMISSION_DENIED | SIGNAL_UNAVAILABLE |
// TIMED_OUT}. A new attempt may start from any state; only the latest
// attempt's result is applied.
type Acquirer struct {
	positioner Positioner
	timeout    time.Duration
	logger     *slog.Logger
	metrics    OutcomeRecorder
	onSettle   func(Snapshot)

	mu      sync.Mutex
	status  Status
	sample  *Sample
	message string
	attempt uint64
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithTimeout bounds each attempt. Defaults to 15s.
func WithTimeout(d time.Duration) Option {
	return func(a *Acquirer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Acquirer) {
		a.logger = l
	}
}

func WithMetrics(m OutcomeRecorder) Option {
	return func(a *Acquirer) {
		a.metrics = m
	}
}

// WithOnSettle registers a callback run after an attempt settles. It runs
// outside the acquirer's lock.
func WithOnSettle(fn func(Snapshot)) Option {
	return func(a *Acquirer) {
		a.onSettle = fn
	}
}

// NewAcquirer returns an idle acquirer.
func NewAcquirer(p Positioner, opts ...Option) *Acquirer {
	a := &Acquirer{
		positioner: p,
		timeout:    15 * time.Second,
		logger:     logger.Discard(),
		status:     StatusIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire runs one attempt and blocks until it settles.
func (a *Acquirer) Acquire(ctx context.Context) Snapshot {
	p, attempt := a.begin()
	return a.run(ctx, p, attempt)
}

// Start begins an attempt in the background and returns immediately. The
// attempt is detached from ctx cancellation but still bounded by the
// acquirer's timeout. The returned channel receives the settled snapshot.
func (a *Acquirer) Start(ctx context.Context) <-chan Snapshot {
	p, attempt := a.begin()
	done := make(chan Snapshot, 1)
	go func() {
		done <- a.run(context.WithoutCancel(ctx), p, attempt)
	}()
	return done
}

// Snapshot returns the current state.
func (a *Acquirer) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Sample returns the last good fix, if any.
func (a *Acquirer) Sample() (Sample, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sample == nil {
		return Sample{}, false
	}
	return *a.sample, true
}

// Reset discards the sample and returns to IDLE. An open device request is
// withdrawn and any in-flight attempt is ignored when it settles.
func (a *Acquirer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempt++
	a.status = StatusIdle
	a.sample = nil
	a.message = ""
	if c, ok := a.positioner.(canceler); ok {
		c.Cancel()
	}
}

func (a *Acquirer) begin() (Positioner, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempt++
	a.status = StatusAcquiring
	a.message = ""

	p := a.positioner
	if r, ok := p.(requester); ok {
		p = r.Request()
	}
	return p, a.attempt
}

func (a *Acquirer) run(ctx context.Context, p Positioner, attempt uint64) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	sample, err := p.Position(ctx, Options{
		HighAccuracy: true,
		Timeout:      a.timeout,
		MaximumAge:   0,
	})
	if errors.Is(err, errSuperseded) {
		return a.Snapshot()
	}

	a.mu.Lock()
	if attempt != a.attempt {
		snap := a.snapshotLocked()
		a.mu.Unlock()
		a.logger.DebugContext(ctx, "discarding stale location result", "attempt", attempt)
		return snap
	}
	if err != nil {
		a.status = statusFor(err)
		a.message = a.status.Guidance()
	} else {
		a.status = StatusAcquired
		a.sample = &sample
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.IncLocationOutcome(string(snap.Status))
	}
	if err != nil {
		a.logger.WarnContext(ctx, "location acquisition failed",
			"status", snap.Status,
			"error", err,
		)
	} else {
		a.logger.InfoContext(ctx, "location acquired", "coordinates", sample.String())
	}
	if a.onSettle != nil {
		a.onSettle(snap)
	}
	return snap
}

func (a *Acquirer) snapshotLocked() Snapshot {
	snap := Snapshot{Status: a.status, Message: a.message, Attempt: a.attempt}
	if a.sample != nil {
		s := *a.sample
		snap.Sample = &s
	}
	return snap
}

func statusFor(err error) Status {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return StatusPermissionDenied
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return StatusTimedOut
	default:
		return StatusSignalUnavailable
	}
}
