package clock

import (
	"container/heap"
	"sync"
)

// TestClock advances only via AdvanceTime. It never consults the host
// clock, which is what makes backtests deterministic.
type TestClock struct {
	mu      sync.Mutex
	nowNs   int64
	byName  map[string]*alert
	pending alertHeap
	seq     int64
}

func NewTestClock() *TestClock {
	return &TestClock{byName: make(map[string]*alert)}
}

func (c *TestClock) TimestampNs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowNs
}

// SetTime forcibly sets the clock without firing alerts. Used to seed
// a backtest's starting timestamp.
func (c *TestClock) SetTime(nowNs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowNs = nowNs
}

func (c *TestClock) SetTimeAlert(name string, atNs int64, handler AlertHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	a := &alert{name: name, triggerNs: atNs, handler: handler, seq: c.seq}
	c.schedule(a)
}

func (c *TestClock) SetTimer(name string, intervalNs int64, startNs, stopNs int64, handler AlertHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	a := &alert{name: name, triggerNs: startNs, intervalNs: intervalNs, stopNs: stopNs, handler: handler, seq: c.seq}
	c.schedule(a)
}

func (c *TestClock) CancelTimer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.byName[name]; ok {
		a.cancelled = true
		delete(c.byName, name)
	}
}

func (c *TestClock) TimerNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	return names
}

// schedule replaces any existing alert under the same name (re-arming)
// and pushes onto the heap. Caller holds c.mu.
func (c *TestClock) schedule(a *alert) {
	if old, ok := c.byName[a.name]; ok {
		old.cancelled = true
	}
	c.byName[a.name] = a
	heap.Push(&c.pending, a)
}

// AdvanceTime moves the clock to toNs and returns every alert that
// fired, in non-decreasing trigger_ns order (ties broken by insertion
// order). Interval timers re-arm at trigger+interval as long as the
// next trigger is <= stopNs (or stopNs == 0, meaning unbounded); a
// re-armed trigger that is still <= toNs fires within the same call, so
// a single AdvanceTime call can fire an interval timer more than once.
// Each handler runs with the clock reading its alert's trigger time and
// without the clock's lock held, so it may read the clock or schedule
// further alerts.
func (c *TestClock) AdvanceTime(toNs int64) []FiredAlert {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fired []FiredAlert
	for c.pending.Len() > 0 {
		top := c.pending[0]
		if top.triggerNs > toNs {
			break
		}
		heap.Pop(&c.pending)
		if top.cancelled {
			continue
		}
		// A re-armed alert under this name may have been superseded.
		if current, ok := c.byName[top.name]; !ok || current != top {
			continue
		}
		fired = append(fired, FiredAlert{Name: top.name, TriggerNs: top.triggerNs})
		rearm := false
		if top.intervalNs > 0 {
			next := top.triggerNs + top.intervalNs
			if top.stopNs == 0 || next <= top.stopNs {
				rearmed := &alert{
					name: top.name, triggerNs: next, intervalNs: top.intervalNs,
					stopNs: top.stopNs, handler: top.handler, seq: top.seq,
				}
				c.byName[top.name] = rearmed
				heap.Push(&c.pending, rearmed)
				rearm = true
			}
		}
		if !rearm {
			delete(c.byName, top.name)
		}
		if top.handler != nil {
			c.nowNs = top.triggerNs
			c.mu.Unlock()
			top.handler(top.name, top.triggerNs)
			c.mu.Lock()
		}
	}
	c.nowNs = toNs
	return fired
}
