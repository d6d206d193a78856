package location

import (
	"context"
	"errors"
	"sync"
)

type delivery struct {
	sample Sample
	err    error
}

// Bridge is a Positioner fed by the device: the UI shell sees that a fix is
// pending, asks the platform for one, and posts the fix or error code back.
type Bridge struct {
	mu      sync.Mutex
	current *bridgeRequest
}

type bridgeRequest struct {
	bridge *Bridge
	ch     chan delivery
}

// NewBridge returns a bridge with no pending request.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Request opens a new request, superseding any request still waiting, and
// returns a Positioner bound to it.
func (b *Bridge) Request() Positioner {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		select {
		case b.current.ch <- delivery{err: errSuperseded}:
		default:
		}
	}
	b.current = &bridgeRequest{bridge: b, ch: make(chan delivery, 1)}
	return b.current
}

// Pending reports whether a fix is awaited.
func (b *Bridge) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current != nil
}

// Position opens a request and waits for the device to answer it.
func (b *Bridge) Position(ctx context.Context, opts Options) (Sample, error) {
	return b.Request().Position(ctx, opts)
}

// Deliver answers the pending request with a fix.
func (b *Bridge) Deliver(s Sample) error {
	return b.settle(delivery{sample: s})
}

// DeliverError answers the pending request with a platform error code.
func (b *Bridge) DeliverError(code int) error {
	return b.settle(delivery{err: ErrorForCode(code)})
}

func (b *Bridge) settle(d delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return ErrNoPendingRequest
	}
	b.current.ch <- d
	b.current = nil
	return nil
}

// Cancel drops the pending request, if any. Its waiter returns without a
// result and a later Deliver reports ErrNoPendingRequest.
func (b *Bridge) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return
	}
	select {
	case b.current.ch <- delivery{err: errSuperseded}:
	default:
	}
	b.current = nil
}

func (b *Bridge) abandon(r *bridgeRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == r {
		b.current = nil
	}
}

func (r *bridgeRequest) Position(ctx context.Context, _ Options) (Sample, error) {
	select {
	case d := <-r.ch:
		return d.sample, d.err
	case <-ctx.Done():
		r.bridge.abandon(r)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Sample{}, ErrTimeout
		}
		return Sample{}, ctx.Err()
	}
}

// Static always answers with the same fix or error.
type Static struct {
	Sample Sample
	Err    error
}

func (s Static) Position(ctx context.Context, _ Options) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	return s.Sample, s.Err
}
