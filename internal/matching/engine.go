// Package matching implements the order matching engine.
//
// The matching engine is the heart of the exchange. It processes
// incoming orders and matches them against resting orders in the order
// book using price-time priority (FIFO at each price level).
//
// Architecture: Single-Threaded Core
//
// Why single-threaded? Determinism (same input sequence always produces
// the same output), no locks in the hot path, and replayability from an
// event log. Matching logic is CPU-bound, not I/O-bound, so parallelism
// doesn't help - it only adds coordination overhead. Adapted from
// order-matching-engine's Engine, which owns one int64-cents OrderBook
// per symbol; here the engine owns one decimal OrderBook per instrument
// and generates the spec's OrderAccepted -> OrderFilled* -> terminal
// event sequence instead of a plain ExecutionResult.
package matching

import (
	"fmt"
	"sync/atomic"

	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/rishav/algo-engine/internal/clock"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/metrics"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/rishav/algo-engine/internal/orderbook"
)

// Engine is the single-threaded matching engine for one simulated
// venue. Process/Submit methods must only be called from a single
// goroutine; external synchronization is the caller's responsibility
// (the ExecutionEngine's run loop).
type Engine struct {
	clk       clock.Clock
	registry  *model.InstrumentRegistry
	fillModel *FillModel

	books        map[model.InstrumentID]*orderbook.OrderBook
	lastTradePx  map[model.InstrumentID]model.Price
	pendingStops map[model.InstrumentID][]*model.Order

	tradeSeq uint64
	venueSeq uint64

	metrics *metrics.Collector // nil unless SetMetrics is called
}

// SetMetrics attaches a Collector so book-integrity checks report
// against it. Left unset, the engine runs unreported.
func (e *Engine) SetMetrics(c *metrics.Collector) {
	e.metrics = c
}

func NewEngine(clk clock.Clock, registry *model.InstrumentRegistry, fillModel *FillModel) *Engine {
	return &Engine{
		clk:          clk,
		registry:     registry,
		fillModel:    fillModel,
		books:        make(map[model.InstrumentID]*orderbook.OrderBook),
		lastTradePx:  make(map[model.InstrumentID]model.Price),
		pendingStops: make(map[model.InstrumentID][]*model.Order),
	}
}

// AddInstrument opens a fresh two-sided book for inst, sized at the
// registry's configured precisions.
func (e *Engine) AddInstrument(id model.InstrumentID) error {
	inst, ok := e.registry.Get(id)
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "instrument not registered: "+id.String())
	}
	if _, exists := e.books[id]; !exists {
		e.books[id] = orderbook.NewOrderBook(id, inst.PricePrecision, inst.SizePrecision)
	}
	return nil
}

func (e *Engine) Book(id model.InstrumentID) *orderbook.OrderBook {
	return e.books[id]
}

func (e *Engine) nextTradeID() model.TradeID {
	n := atomic.AddUint64(&e.tradeSeq, 1)
	return model.TradeID(fmt.Sprintf("T-%d", n))
}

func (e *Engine) nextVenueOrderID() model.VenueOrderID {
	n := atomic.AddUint64(&e.venueSeq, 1)
	return model.VenueOrderID(fmt.Sprintf("V-%d", n))
}

// SubmitOrder validates, accepts, and (for non-stop orders) attempts to
// match order immediately, returning every event generated as a
// consequence - including fill events for resting maker orders touched
// along the way.
func (e *Engine) SubmitOrder(order *model.Order) []message.Event {
	now := e.clk.TimestampNs()
	_ = order.Transition(model.OrderStatusSubmitted, now)

	book, ok := e.books[order.Instrument]
	if !ok {
		_ = order.Transition(model.OrderStatusInvalid, now)
		return []message.Event{message.NewOrderInvalidEvent(now, order.ClientOrderID, "unknown instrument "+order.Instrument.String())}
	}

	if order.Type.HasTrigger() {
		_ = order.Transition(model.OrderStatusAccepted, now)
		order.VenueOrderID = e.nextVenueOrderID()
		e.pendingStops[order.Instrument] = append(e.pendingStops[order.Instrument], order)
		return []message.Event{message.NewOrderAcceptedEvent(now, order.ClientOrderID, order.VenueOrderID)}
	}

	if order.TIF == model.TIFFOK {
		isMarket := order.Type == model.OrderTypeMarket
		raw := book.OppositeLadder(order.Side).SimulateOrderFills(order.Side, order.Price, isMarket, order.LeavesQty())
		if sumFillQty(raw).LessThan(order.LeavesQty()) {
			_ = order.Transition(model.OrderStatusRejected, now)
			return []message.Event{message.NewOrderRejectedEvent(now, order.ClientOrderID, "insufficient liquidity for fill-or-kill")}
		}
	}

	_ = order.Transition(model.OrderStatusAccepted, now)
	order.VenueOrderID = e.nextVenueOrderID()
	events := []message.Event{message.NewOrderAcceptedEvent(now, order.ClientOrderID, order.VenueOrderID)}
	return append(events, e.matchAndSettle(order, book, now)...)
}

// CancelOrder removes a resting order from its book (or the pending
// stop set) and emits OrderCancelled.
func (e *Engine) CancelOrder(order *model.Order, reason string) []message.Event {
	now := e.clk.TimestampNs()
	book := e.books[order.Instrument]
	if book != nil {
		_ = book.LadderFor(order.Side).Delete(order)
	}
	e.dropPendingStop(order)
	_ = order.Transition(model.OrderStatusCancelled, now)
	return []message.Event{message.NewOrderCancelledEvent(now, order.ClientOrderID, reason)}
}

// ExpireOrder removes a resting order whose TIF deadline elapsed.
func (e *Engine) ExpireOrder(order *model.Order) []message.Event {
	now := e.clk.TimestampNs()
	book := e.books[order.Instrument]
	if book != nil {
		_ = book.LadderFor(order.Side).Delete(order)
	}
	e.dropPendingStop(order)
	_ = order.Transition(model.OrderStatusExpired, now)
	return []message.Event{message.NewOrderExpiredEvent(now, order.ClientOrderID)}
}

func (e *Engine) dropPendingStop(order *model.Order) {
	pending := e.pendingStops[order.Instrument]
	for i, o := range pending {
		if o.ClientOrderID == order.ClientOrderID {
			e.pendingStops[order.Instrument] = append(pending[:i], pending[i+1:]...)
			return
		}
	}
}

// OnTrade updates the last trade price for inst and triggers any
// pending stop orders the new price crosses.
func (e *Engine) OnTrade(inst model.InstrumentID, tradePx model.Price) []message.Event {
	now := e.clk.TimestampNs()
	e.lastTradePx[inst] = tradePx

	pending := e.pendingStops[inst]
	if len(pending) == 0 {
		return nil
	}

	var events []message.Event
	remaining := pending[:0]
	book := e.books[inst]
	for _, stopOrder := range pending {
		if !stopTriggered(stopOrder, tradePx) || !e.fillModel.TriggersAtStop() {
			remaining = append(remaining, stopOrder)
			continue
		}
		events = append(events, e.matchAndSettle(stopOrder, book, now)...)
	}
	e.pendingStops[inst] = remaining
	return events
}

// stopTriggered reports whether tradePx has crossed order's trigger:
// a buy-stop triggers on a rise through the trigger, a sell-stop on a
// fall through it.
func stopTriggered(order *model.Order, tradePx model.Price) bool {
	trigger := order.Trigger.Price()
	if order.Side == model.SideBuy {
		return tradePx.GreaterOrEqual(trigger)
	}
	return tradePx.LessOrEqual(trigger)
}

// matchAndSettle walks order against the opposite ladder, applies the
// fill model, settles quantities on both sides, and resolves the
// remainder per TIF. For each fill it returns the taker's OrderFilled
// followed by the touched maker's OrderFilled, then any event for the
// taker's unfilled remainder, so the simulated counterparty (this
// strategy's own resting liquidity, per the backtest model) also sees
// its fills.
func (e *Engine) matchAndSettle(order *model.Order, book *orderbook.OrderBook, now int64) []message.Event {
	isMarket := order.Type == model.OrderTypeMarket || order.Type == model.OrderTypeStopMarket
	ladder := book.OppositeLadder(order.Side)

	walkPrice, isMarket := e.applySlippage(order, ladder, isMarket)

	if order.TIF == model.TIFFOK {
		raw := ladder.SimulateOrderFills(order.Side, walkPrice, isMarket, order.LeavesQty())
		if sumFillQty(raw).LessThan(order.LeavesQty()) {
			_ = order.Transition(model.OrderStatusRejected, now)
			return []message.Event{message.NewOrderRejectedEvent(now, order.ClientOrderID, "insufficient liquidity for fill-or-kill")}
		}
	}

	fills := e.acceptFills(ladder.SimulateOrderFills(order.Side, walkPrice, isMarket, order.LeavesQty()), order)

	var events []message.Event
	for _, f := range fills {
		events = append(events, e.settleFill(order, f, ladder, now)...)
	}

	if order.LeavesQty().IsZero() {
		return events
	}

	switch {
	case isMarket:
		_ = order.Transition(model.OrderStatusCancelled, now)
		events = append(events, message.NewOrderCancelledEvent(now, order.ClientOrderID, "insufficient liquidity"))
	case order.TIF == model.TIFIOC || order.TIF == model.TIFFOK:
		_ = order.Transition(model.OrderStatusCancelled, now)
		events = append(events, message.NewOrderCancelledEvent(now, order.ClientOrderID, "cancelled remainder (IOC)"))
	default:
		restingSide := book.LadderFor(order.Side)
		_ = restingSide.Add(order)
		events = append(events, e.checkIntegrity(book, now)...)
	}

	return events
}

// checkIntegrity reports a book's crossed/locked-book integrity event,
// if any, and records it against BookIntegrityEvents. Only reachable
// after a resting order is added to a book, since settling fills
// against existing liquidity can't itself create a new cross.
func (e *Engine) checkIntegrity(book *orderbook.OrderBook, now int64) []message.Event {
	evt := book.CheckIntegrity(now)
	if evt == nil {
		return nil
	}
	if e.metrics != nil {
		e.metrics.BookIntegrityEvents.WithLabelValues(book.Instrument.String()).Inc()
	}
	return []message.Event{*evt}
}

// applySlippage models prob_slippage: a market-style order that slips
// caps its walk at one tick worse than the current touch instead of
// sweeping unconditionally, simulating adverse execution.
func (e *Engine) applySlippage(order *model.Order, ladder *orderbook.Ladder, isMarket bool) (model.Price, bool) {
	if !isMarket || !e.fillModel.Slips() {
		return order.Price, isMarket
	}
	top := ladder.Top()
	if top == nil {
		return order.Price, isMarket
	}
	inst, ok := e.registry.Get(order.Instrument)
	if !ok {
		return order.Price, isMarket
	}
	tick := inst.TickSize.Decimal()
	var capped model.Price
	if order.Side == model.SideBuy {
		capped = model.NewPrice(top.Price.Decimal().Add(tick), top.Price.Precision())
	} else {
		capped = model.NewPrice(top.Price.Decimal().Sub(tick), top.Price.Precision())
	}
	return capped, false
}

// acceptFills applies prob_fill_at_limit: a passive (LIMIT/STOP_LIMIT)
// taker's touches are each subject to the fill-at-limit draw, in ladder
// order; the first rejected touch stops the walk there so price-time
// priority among accepted fills is preserved. Market-style aggression
// always executes on touch.
func (e *Engine) acceptFills(raw []orderbook.Fill, order *model.Order) []orderbook.Fill {
	if order.Type == model.OrderTypeMarket || order.Type == model.OrderTypeStopMarket {
		return raw
	}
	accepted := make([]orderbook.Fill, 0, len(raw))
	for _, f := range raw {
		if !e.fillModel.FillsAtLimit() {
			break
		}
		accepted = append(accepted, f)
	}
	return accepted
}

// settleFill applies one fill to both the taker and the resting maker,
// updating ladder state and producing one OrderFilled event for each
// side; a fully filled maker is removed from the ladder and its
// OrderFilled (leaves 0) is its terminal event.
func (e *Engine) settleFill(taker *model.Order, f orderbook.Fill, ladder *orderbook.Ladder, now int64) []message.Event {
	maker := f.RestingOrder
	tradeID := e.nextTradeID()

	taker.FilledQty = taker.FilledQty.Add(f.Qty)
	if taker.LeavesQty().IsZero() {
		_ = taker.Transition(model.OrderStatusFilled, now)
	} else {
		_ = taker.Transition(model.OrderStatusPartiallyFilled, now)
	}

	maker.FilledQty = maker.FilledQty.Add(f.Qty)
	makerFilled := maker.LeavesQty().IsZero()
	if makerFilled {
		_ = maker.Transition(model.OrderStatusFilled, now)
		_ = ladder.Delete(maker)
	} else {
		_ = maker.Transition(model.OrderStatusPartiallyFilled, now)
		_ = ladder.Update(maker)
	}

	e.lastTradePx[taker.Instrument] = f.Price

	events := []message.Event{
		message.NewOrderFilledEvent(now, message.OrderFilledEvent{
			ClientOrderID: taker.ClientOrderID,
			VenueOrderID:  taker.VenueOrderID,
			TradeID:       tradeID,
			LastPx:        f.Price,
			LastQty:       f.Qty,
			CumulativeQty: taker.FilledQty,
			LeavesQty:     taker.LeavesQty(),
			Liquidity:     model.LiquidityTaker,
		}),
		message.NewOrderFilledEvent(now, message.OrderFilledEvent{
			ClientOrderID: maker.ClientOrderID,
			VenueOrderID:  maker.VenueOrderID,
			TradeID:       tradeID,
			LastPx:        f.Price,
			LastQty:       f.Qty,
			CumulativeQty: maker.FilledQty,
			LeavesQty:     maker.LeavesQty(),
			Liquidity:     model.LiquidityMaker,
		}),
	}
	return events
}

func sumFillQty(fills []orderbook.Fill) model.Quantity {
	if len(fills) == 0 {
		return model.Quantity{}
	}
	total := fills[0].Qty
	for _, f := range fills[1:] {
		total = total.Add(f.Qty)
	}
	return total
}
