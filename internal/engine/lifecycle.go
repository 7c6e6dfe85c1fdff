// Package engine provides the start/stop/reset/dispose state machine
// that DataEngine holds (ExecutionEngine has no lifecycle of its own),
// per the lifecycle contract: reset and dispose are permitted only when
// stopped (a no-op while running), and start after dispose always
// fails. No teacher example ships an engine lifecycle of this shape, so
// this is new, grounded on the matching engine's simple "own the hot
// path single-threaded" philosophy applied to engine-level state
// instead of order state.
package engine

import (
	"sync"

	"github.com/rishav/algo-engine/internal/apperrors"
)

type State int

const (
	StateStopped State = iota
	StateRunning
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateDisposed:
		return "DISPOSED"
	default:
		return "STOPPED"
	}
}

// Lifecycle is an embeddable start/stop/reset/dispose state machine.
type Lifecycle struct {
	mu    sync.Mutex
	state State
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start transitions STOPPED -> RUNNING. Starting an already-running
// engine is a no-op; starting a disposed one fails.
func (l *Lifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateDisposed {
		return apperrors.New(apperrors.KindLifecycle, "cannot start a disposed engine")
	}
	l.state = StateRunning
	return nil
}

// Stop transitions RUNNING -> STOPPED. Stopping a stopped engine is a
// no-op.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateRunning {
		l.state = StateStopped
	}
}

// Reset reports whether the caller should clear its internal state: true
// only when the engine is stopped. Resetting a running engine is a
// silent no-op per the lifecycle contract.
func (l *Lifecycle) Reset() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == StateStopped
}

// Dispose reports whether the caller should release its resources and
// reports true only when the engine is stopped, in which case the
// engine also transitions to DISPOSED. A running engine's Dispose call
// is a silent no-op.
func (l *Lifecycle) Dispose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateStopped {
		return false
	}
	l.state = StateDisposed
	return true
}
