// Package clock provides a uniform time source for the engines.
//
// No library in the reference pack owns a clock/scheduler abstraction,
// so this is built fresh in the teacher's idiom (a small struct guarded
// by a mutex, mirroring risk.Checker's locking style) on top of the
// standard library: container/heap for the ordered alert queue and
// time.Timer for the live variant. No ecosystem scheduling package in
// the pack fits this concern better than stdlib.
package clock

// AlertHandler is invoked when a scheduled alert fires.
type AlertHandler func(name string, triggerNs int64)

// Clock is the common interface both TestClock and LiveClock satisfy.
type Clock interface {
	TimestampNs() int64
	SetTimeAlert(name string, atNs int64, handler AlertHandler)
	SetTimer(name string, intervalNs int64, startNs, stopNs int64, handler AlertHandler)
	CancelTimer(name string)
	TimerNames() []string
}

// alert is one entry in the scheduling heap.
type alert struct {
	name      string
	triggerNs int64
	intervalNs int64 // 0 for one-shot alerts
	stopNs     int64 // 0 means no stop bound
	handler    AlertHandler
	seq        int64 // insertion order, breaks ties
	cancelled  bool
}

// alertHeap orders alerts by triggerNs, ties broken by insertion order.
type alertHeap []*alert

func (h alertHeap) Len() int { return len(h) }
func (h alertHeap) Less(i, j int) bool {
	if h[i].triggerNs != h[j].triggerNs {
		return h[i].triggerNs < h[j].triggerNs
	}
	return h[i].seq < h[j].seq
}
func (h alertHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *alertHeap) Push(x any)   { *h = append(*h, x.(*alert)) }
func (h *alertHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// FiredAlert describes one alert that fired during advance_time.
type FiredAlert struct {
	Name      string
	TriggerNs int64
}
