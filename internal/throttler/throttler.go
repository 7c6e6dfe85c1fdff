// Package throttler implements a token-bucket rate limiter gating a
// downstream handler, grounded on the bucket semantics of
// rate-limiter/gateway/ratelimiter/token_bucket.go but reworked from a
// Redis-backed external gate into an in-process gate driven by the
// engine's own clock.Clock, since the throttler sits inside a single
// cooperative run loop rather than behind a shared HTTP gateway.
package throttler

import (
	"sync"

	"github.com/rishav/algo-engine/internal/clock"
)

// Output is the downstream handler. Its errors propagate out of Send
// for synchronous delivery, or are routed to an error sink for deferred
// (queued) delivery.
type Output[T any] func(item T)

// ErrorSink receives errors raised by Output during deferred delivery.
type ErrorSink func(err error)

// Config configures a Throttler.
type Config struct {
	Name       string
	Limit      int
	IntervalNs int64
	Clock      clock.Clock
}

// Throttler is a token-bucket rate limiter with an unbounded FIFO queue
// for items that arrive once the bucket is empty.
type Throttler[T any] struct {
	mu         sync.Mutex
	name       string
	limit      int
	intervalNs int64
	clk        clock.Clock
	output     Output[T]
	errSink    ErrorSink

	tokens      int
	queue       []T
	isActive    bool
	isThrottling bool
}

func New[T any](cfg Config, output Output[T], errSink ErrorSink) *Throttler[T] {
	if errSink == nil {
		errSink = func(error) {}
	}
	return &Throttler[T]{
		name:       cfg.Name,
		limit:      cfg.Limit,
		intervalNs: cfg.IntervalNs,
		clk:        cfg.Clock,
		output:     output,
		errSink:    errSink,
		tokens:     cfg.Limit,
	}
}

// Send delivers item immediately if a token is available, otherwise
// queues it and arms a single refresh timer. Delivery is strict FIFO
// across immediate and deferred sends: an item can only be sent
// immediately when the queue is already empty.
func (t *Throttler[T]) Send(item T) {
	t.mu.Lock()
	if len(t.queue) == 0 && t.tokens > 0 {
		t.tokens--
		t.isActive = true
		t.mu.Unlock()
		t.output(item)
		return
	}

	t.queue = append(t.queue, item)
	armTimer := !t.isThrottling
	if armTimer {
		t.isThrottling = true
	}
	t.mu.Unlock()

	if armTimer {
		t.clk.SetTimeAlert(t.name+":refresh", t.clk.TimestampNs()+t.intervalNs, t.onRefresh)
	}
}

func (t *Throttler[T]) onRefresh(string, int64) {
	t.mu.Lock()
	t.tokens = t.limit

	var toSend []T
	for len(t.queue) > 0 && t.tokens > 0 {
		toSend = append(toSend, t.queue[0])
		t.queue = t.queue[1:]
		t.tokens--
	}

	stillPending := len(t.queue) > 0
	t.isThrottling = stillPending
	nextAt := t.clk.TimestampNs() + t.intervalNs
	t.mu.Unlock()

	for _, item := range toSend {
		t.deliver(item)
	}

	if stillPending {
		t.clk.SetTimeAlert(t.name+":refresh", nextAt, t.onRefresh)
	}
}

func (t *Throttler[T]) deliver(item T) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				t.errSink(err)
				return
			}
			panic(r)
		}
	}()
	t.output(item)
}

func (t *Throttler[T]) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isActive
}

func (t *Throttler[T]) IsThrottling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isThrottling
}

func (t *Throttler[T]) QSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}
