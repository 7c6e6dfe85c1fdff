package clock

import (
	"sync"
	"time"
)

// LiveClock is backed by the host monotonic clock. Timers are dispatched
// by a background goroutine per alert/timer with best-effort precision.
type LiveClock struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	tickers map[string]*time.Ticker
	stopCh  map[string]chan struct{}
}

func NewLiveClock() *LiveClock {
	return &LiveClock{
		timers:  make(map[string]*time.Timer),
		tickers: make(map[string]*time.Ticker),
		stopCh:  make(map[string]chan struct{}),
	}
}

func (c *LiveClock) TimestampNs() int64 {
	return time.Now().UnixNano()
}

func (c *LiveClock) SetTimeAlert(name string, atNs int64, handler AlertHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked(name)

	d := time.Duration(atNs - c.TimestampNs())
	if d < 0 {
		d = 0
	}
	c.timers[name] = time.AfterFunc(d, func() {
		if handler != nil {
			handler(name, atNs)
		}
		c.mu.Lock()
		delete(c.timers, name)
		c.mu.Unlock()
	})
}

func (c *LiveClock) SetTimer(name string, intervalNs int64, startNs, stopNs int64, handler AlertHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked(name)

	stop := make(chan struct{})
	c.stopCh[name] = stop

	delay := time.Duration(startNs - c.TimestampNs())
	if delay < 0 {
		delay = 0
	}
	interval := time.Duration(intervalNs)

	go func() {
		first := time.NewTimer(delay)
		defer first.Stop()
		select {
		case <-stop:
			return
		case t := <-first.C:
			if handler != nil {
				handler(name, t.UnixNano())
			}
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C:
				if stopNs != 0 && t.UnixNano() > stopNs {
					return
				}
				if handler != nil {
					handler(name, t.UnixNano())
				}
			}
		}
	}()
}

func (c *LiveClock) CancelTimer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked(name)
}

func (c *LiveClock) cancelLocked(name string) {
	if t, ok := c.timers[name]; ok {
		t.Stop()
		delete(c.timers, name)
	}
	if stop, ok := c.stopCh[name]; ok {
		close(stop)
		delete(c.stopCh, name)
	}
}

func (c *LiveClock) TimerNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.timers)+len(c.stopCh))
	for n := range c.timers {
		names = append(names, n)
	}
	for n := range c.stopCh {
		names = append(names, n)
	}
	return names
}
