// Package dataengine implements the DataEngine: a single-threaded
// cooperative consumer that tracks subscriptions, caches recent
// ticks/bars, fans data out to subscribers, and answers one-shot data
// requests correlated by request ID.
//
// The run-loop and completion-future shape is new (no teacher example
// has an inbound-queue cooperative engine), built directly on a
// buffered channel plus a single consumer goroutine - the simplest
// construct that gives per-engine FIFO dispatch order without locking
// the hot path, matching the "single-threaded core, no locks" argument
// order-matching-engine's matching.Engine doc comment makes for the
// same reason. Publisher fan-out (subscriber maps, non-blocking sends
// that drop on a full channel) is grounded on marketdata.Publisher.
package dataengine

import (
	"github.com/google/uuid"

	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/rishav/algo-engine/internal/engine"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/metrics"
	"github.com/rishav/algo-engine/internal/model"
)

// ClientID identifies a subscriber: a live adapter or the backtest feed.
type ClientID string

const defaultChanBuffer = 256

type DataEngine struct {
	lifecycle engine.Lifecycle

	cache *cache

	quoteSubs map[model.InstrumentID]map[ClientID]chan model.QuoteTick
	tradeSubs map[model.InstrumentID]map[ClientID]chan model.TradeTick
	barSubs   map[model.BarType]map[ClientID]chan model.Bar
	instrumentSubs map[model.InstrumentID]map[ClientID]bool

	lastQuoteTs map[model.InstrumentID]int64
	lastTradeTs map[model.InstrumentID]int64
	droppedOutOfOrder int

	bars *barAggregator

	pending map[uuid.UUID]message.Request

	inbox   chan func()
	metrics *metrics.Collector // nil unless SetMetrics is called
}

// SetMetrics attaches a Collector; runLoop then reports its queue depth
// after every dispatched item. Left unset, the engine runs unreported.
func (d *DataEngine) SetMetrics(c *metrics.Collector) {
	d.metrics = c
}

func NewDataEngine() *DataEngine {
	return &DataEngine{
		cache:          newCache(),
		quoteSubs:      make(map[model.InstrumentID]map[ClientID]chan model.QuoteTick),
		tradeSubs:      make(map[model.InstrumentID]map[ClientID]chan model.TradeTick),
		barSubs:        make(map[model.BarType]map[ClientID]chan model.Bar),
		instrumentSubs: make(map[model.InstrumentID]map[ClientID]bool),
		lastQuoteTs:    make(map[model.InstrumentID]int64),
		lastTradeTs:    make(map[model.InstrumentID]int64),
		bars:           newBarAggregator(),
		pending:        make(map[uuid.UUID]message.Request),
	}
}

func (d *DataEngine) Start() error {
	if err := d.lifecycle.Start(); err != nil {
		return err
	}
	d.inbox = make(chan func(), 4096)
	go d.runLoop()
	return nil
}

func (d *DataEngine) runLoop() {
	for fn := range d.inbox {
		fn()
		if d.metrics != nil {
			d.metrics.RunLoopQueueDepth.WithLabelValues("dataengine").Set(float64(len(d.inbox)))
		}
	}
}

// Stop drains no further sends and closes the run loop goroutine. Any
// already-enqueued work finishes first.
func (d *DataEngine) Stop() {
	d.lifecycle.Stop()
	close(d.inbox)
}

func (d *DataEngine) Reset() {
	if !d.lifecycle.Reset() {
		return
	}
	d.cache = newCache()
	d.lastQuoteTs = make(map[model.InstrumentID]int64)
	d.lastTradeTs = make(map[model.InstrumentID]int64)
	d.droppedOutOfOrder = 0
	d.bars = newBarAggregator()
}

func (d *DataEngine) Dispose() {
	if !d.lifecycle.Dispose() {
		return
	}
}

// Send enqueues fn on the run loop; fn executes on the single consumer
// goroutine in FIFO order relative to every other Send call.
func (d *DataEngine) Send(fn func()) {
	d.inbox <- fn
}

// Drain returns a channel that closes once every Send call issued
// before Drain was called has finished executing - the completion
// future the spec calls for so tests can await quiescence.
func (d *DataEngine) Drain() <-chan struct{} {
	done := make(chan struct{})
	d.Send(func() { close(done) })
	return done
}

// SubscribeInstrument registers interest in an instrument's static
// definition updates. Idempotent: duplicate subscription is a no-op.
func (d *DataEngine) SubscribeInstrument(client ClientID, inst model.InstrumentID) {
	subs, ok := d.instrumentSubs[inst]
	if !ok {
		subs = make(map[ClientID]bool)
		d.instrumentSubs[inst] = subs
	}
	subs[client] = true
}

func (d *DataEngine) UnsubscribeInstrument(client ClientID, inst model.InstrumentID) {
	delete(d.instrumentSubs[inst], client)
}

// SubscribeQuoteTicks returns the channel client will receive quote
// ticks for inst on. Re-subscribing the same (client, inst) pair
// returns the existing channel rather than creating a second one.
func (d *DataEngine) SubscribeQuoteTicks(client ClientID, inst model.InstrumentID) <-chan model.QuoteTick {
	subs, ok := d.quoteSubs[inst]
	if !ok {
		subs = make(map[ClientID]chan model.QuoteTick)
		d.quoteSubs[inst] = subs
	}
	ch, ok := subs[client]
	if !ok {
		ch = make(chan model.QuoteTick, defaultChanBuffer)
		subs[client] = ch
	}
	return ch
}

func (d *DataEngine) UnsubscribeQuoteTicks(client ClientID, inst model.InstrumentID) {
	if ch, ok := d.quoteSubs[inst][client]; ok {
		delete(d.quoteSubs[inst], client)
		close(ch)
	}
}

func (d *DataEngine) SubscribeTradeTicks(client ClientID, inst model.InstrumentID) <-chan model.TradeTick {
	subs, ok := d.tradeSubs[inst]
	if !ok {
		subs = make(map[ClientID]chan model.TradeTick)
		d.tradeSubs[inst] = subs
	}
	ch, ok := subs[client]
	if !ok {
		ch = make(chan model.TradeTick, defaultChanBuffer)
		subs[client] = ch
	}
	return ch
}

func (d *DataEngine) UnsubscribeTradeTicks(client ClientID, inst model.InstrumentID) {
	if ch, ok := d.tradeSubs[inst][client]; ok {
		delete(d.tradeSubs[inst], client)
		close(ch)
	}
}

func (d *DataEngine) SubscribeBars(client ClientID, bt model.BarType) <-chan model.Bar {
	subs, ok := d.barSubs[bt]
	if !ok {
		subs = make(map[ClientID]chan model.Bar)
		d.barSubs[bt] = subs
	}
	ch, ok := subs[client]
	if !ok {
		ch = make(chan model.Bar, defaultChanBuffer)
		subs[client] = ch
	}
	return ch
}

func (d *DataEngine) UnsubscribeBars(client ClientID, bt model.BarType) {
	if ch, ok := d.barSubs[bt][client]; ok {
		delete(d.barSubs[bt], client)
		close(ch)
	}
}

// DeliverQuoteTick enqueues a quote tick for caching and fan-out.
// Out-of-order ticks (timestamp before the last delivered tick for the
// instrument) are dropped to preserve the per-stream monotonic
// ordering invariant; DroppedOutOfOrder reports how many.
func (d *DataEngine) DeliverQuoteTick(t model.QuoteTick) {
	d.Send(func() {
		if t.TimestampNs < d.lastQuoteTs[t.Instrument] {
			d.droppedOutOfOrder++
			return
		}
		d.lastQuoteTs[t.Instrument] = t.TimestampNs
		d.cache.pushQuote(t)
		for _, ch := range d.quoteSubs[t.Instrument] {
			select {
			case ch <- t:
			default:
			}
		}
	})
}

func (d *DataEngine) DeliverTradeTick(t model.TradeTick) {
	d.Send(func() {
		if t.TimestampNs < d.lastTradeTs[t.Instrument] {
			d.droppedOutOfOrder++
			return
		}
		d.lastTradeTs[t.Instrument] = t.TimestampNs
		d.cache.pushTrade(t)
		for _, ch := range d.tradeSubs[t.Instrument] {
			select {
			case ch <- t:
			default:
			}
		}
		for _, bar := range d.bars.onTrade(t, d.subscribedBarTypes()) {
			d.cache.pushBar(bar)
			for _, ch := range d.barSubs[bar.Type] {
				select {
				case ch <- bar:
				default:
				}
			}
		}
	})
}

func (d *DataEngine) DeliverBar(b model.Bar) {
	d.Send(func() {
		d.cache.pushBar(b)
		for _, ch := range d.barSubs[b.Type] {
			select {
			case ch <- b:
			default:
			}
		}
	})
}

func (d *DataEngine) DroppedOutOfOrder() int {
	return d.droppedOutOfOrder
}

func (d *DataEngine) RecentQuotes(inst model.InstrumentID, n int) []model.QuoteTick {
	return d.cache.recentQuotes(inst, n)
}

func (d *DataEngine) RecentTrades(inst model.InstrumentID, n int) []model.TradeTick {
	return d.cache.recentTrades(inst, n)
}

func (d *DataEngine) RecentBars(bt model.BarType, n int) []model.Bar {
	return d.cache.recentBars(bt, n)
}

// Request enqueues req and guarantees exactly one Response delivered to
// req.Callback, correlated by RequestID: either the requested payload or
// a RequestTimedOut/SerializationError. RequestTimedOut delivery on
// expiry is the caller's responsibility (via a Clock timer alert,
// per spec.md's timeout design); Request itself always answers
// immediately from the cache. Bar requests are answered with a nil
// Payload; cached bars are read through RecentBars.
func (d *DataEngine) Request(req message.Request) {
	d.Send(func() {
		d.pending[req.RequestID] = req
		resp := d.answer(req)
		delete(d.pending, req.RequestID)
		if req.Callback != nil {
			req.Callback(resp)
		}
	})
}

func (d *DataEngine) answer(req message.Request) message.Response {
	switch req.DataType.Class {
	case message.DataClassQuoteTick, message.DataClassTradeTick, message.DataClassBar:
		return message.Response{
			Message:       message.NewMessage(message.KindResponse, req.TimestampNs),
			CorrelationID: req.RequestID,
			DataType:      req.DataType,
			Payload:       d.payloadFor(req.DataType),
		}
	default:
		return message.Response{
			Message:       message.NewMessage(message.KindResponse, req.TimestampNs),
			CorrelationID: req.RequestID,
			DataType:      req.DataType,
			Err:           apperrors.New(apperrors.KindSerialization, "unknown data type "+string(req.DataType.Class)),
		}
	}
}

func (d *DataEngine) payloadFor(dt message.DataType) any {
	instID := model.InstrumentID{Symbol: dt.Metadata["Symbol"], Venue: dt.Metadata["Venue"]}
	switch dt.Class {
	case message.DataClassQuoteTick:
		return d.cache.recentQuotes(instID, ringRequestLimit(dt))
	case message.DataClassTradeTick:
		return d.cache.recentTrades(instID, ringRequestLimit(dt))
	default:
		return nil
	}
}

func ringRequestLimit(dt message.DataType) int {
	if dt.Metadata["Limit"] == "" {
		return defaultRingCapacity
	}
	n := 0
	for _, r := range dt.Metadata["Limit"] {
		if r < '0' || r > '9' {
			return defaultRingCapacity
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return defaultRingCapacity
	}
	return n
}
