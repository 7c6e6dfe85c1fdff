// Package metrics exposes Prometheus counters/histograms for the
// engine run loops: orders processed, fills, command-to-event latency,
// and run-loop queue depth.
//
// Grounded on perp-dex's metrics.Collector: same singleton-collector
// shape (prometheus.NewCounterVec/NewHistogramVec registered once),
// scoped down from that repo's full exchange metric surface to what
// this engine's DataEngine/ExecutionEngine/MatchingEngine actually
// produce.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the engines report against.
type Collector struct {
	OrdersSubmitted  *prometheus.CounterVec
	OrdersFilled     *prometheus.CounterVec
	OrdersRejected   *prometheus.CounterVec
	FillLatency      *prometheus.HistogramVec
	RunLoopQueueDepth *prometheus.GaugeVec
	BookIntegrityEvents *prometheus.CounterVec
}

var (
	collector     *Collector
	collectorOnce sync.Once
)

// New builds the collector and registers it against registry on its
// first call only; every later call returns that same collector and
// registers nothing, whatever registry it is given (the teacher's
// singleton pattern).
func New(registry *prometheus.Registry) *Collector {
	collectorOnce.Do(func() {
		c := &Collector{
			OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "algo_engine_orders_submitted_total",
				Help: "Orders submitted to the execution engine, by instrument.",
			}, []string{"instrument"}),
			OrdersFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "algo_engine_orders_filled_total",
				Help: "Fill events emitted, by instrument and liquidity side.",
			}, []string{"instrument", "liquidity"}),
			OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "algo_engine_orders_rejected_total",
				Help: "Orders rejected, invalid, or denied, by reason kind.",
			}, []string{"kind"}),
			FillLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "algo_engine_fill_latency_seconds",
				Help:    "Time from order submission to first fill.",
				Buckets: prometheus.DefBuckets,
			}, []string{"instrument"}),
			RunLoopQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "algo_engine_run_loop_queue_depth",
				Help: "Pending items in an engine's inbound run-loop queue.",
			}, []string{"engine"}),
			BookIntegrityEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "algo_engine_book_integrity_events_total",
				Help: "Crossed-book integrity violations detected, by instrument.",
			}, []string{"instrument"}),
		}
		registry.MustRegister(c.OrdersSubmitted, c.OrdersFilled, c.OrdersRejected, c.FillLatency, c.RunLoopQueueDepth, c.BookIntegrityEvents)
		collector = c
	})
	return collector
}

// Handler returns the HTTP handler to mount at /metrics.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
