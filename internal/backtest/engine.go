// Package backtest implements the BacktestEngine orchestrator: it
// drives a TestClock through a merged, time-sorted tick stream,
// delivers ticks to strategies, collects the commands they emit,
// routes them through the ExecutionEngine (which steps the matching
// engine as a side effect of accepting orders), and folds the
// resulting events back to the strategies and into closing reports.
//
// Grounded on order-matching-engine's Engine for the "drive everything
// from one synchronous loop, no goroutines in the hot path" discipline;
// the merged-feed replay loop itself has no direct teacher analogue and
// is new, built to the spec's §4.8 orchestration steps.
package backtest

import (
	"sort"

	"github.com/rishav/algo-engine/internal/clock"
	"github.com/rishav/algo-engine/internal/dataengine"
	"github.com/rishav/algo-engine/internal/execution"
	"github.com/rishav/algo-engine/internal/matching"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
)

// FeedItem is one entry in the merged historical tick stream. Exactly
// one of Quote, Trade, Bar is set.
type FeedItem struct {
	TimestampNs int64
	Quote       *model.QuoteTick
	Trade       *model.TradeTick
	Bar         *model.Bar
}

// Strategy is a backtest participant: it observes ticks and events and
// answers with zero or more commands to submit.
type Strategy interface {
	OnStart(ctx *Context)
	OnQuoteTick(ctx *Context, tick model.QuoteTick)
	OnTradeTick(ctx *Context, tick model.TradeTick)
	OnBar(ctx *Context, bar model.Bar)
	OnEvent(ctx *Context, evt message.Event)
	OnStop(ctx *Context)
}

// Context is the handle a Strategy uses to act during a callback:
// submit/cancel orders and read the venue clock. Commands submitted
// through it are buffered and flushed by the engine after every feed
// item, per the spec's "flush commands produced by strategies" step.
type Context struct {
	clk     clock.Clock
	pending []message.Command
}

func (c *Context) Now() int64 { return c.clk.TimestampNs() }

func (c *Context) SubmitOrder(order *model.Order) {
	c.pending = append(c.pending, message.NewSubmitOrderCommand(c.Now(), order))
}

func (c *Context) SubmitBracketOrder(entry, stopLoss, takeProfit *model.Order) {
	c.pending = append(c.pending, message.NewSubmitBracketOrderCommand(c.Now(), entry, stopLoss, takeProfit))
}

func (c *Context) CancelOrder(id model.ClientOrderID) {
	c.pending = append(c.pending, message.NewCancelOrderCommand(c.Now(), id))
}

// Report summarizes one completed backtest run.
type Report struct {
	FillCount   int
	Events      []message.Event
	Accounts    map[model.AccountID]*execution.Account
}

// Engine orchestrates one backtest run: it sorts the feed by timestamp,
// then replays it tick by tick against the matching engine via the
// execution engine, dispatching strategy callbacks at each step. It does
// not freeze the instrument registry and does not pre-cache the feed.
type Engine struct {
	clk            *clock.TestClock
	dataEngine     *dataengine.DataEngine
	execEngine     *execution.ExecutionEngine
	matchingEngine *matching.Engine
	accounts       *execution.AccountStore
	strategies     []Strategy
}

func NewEngine(clk *clock.TestClock, dataEngine *dataengine.DataEngine, execEngine *execution.ExecutionEngine, matchingEngine *matching.Engine, accounts *execution.AccountStore) *Engine {
	return &Engine{clk: clk, dataEngine: dataEngine, execEngine: execEngine, matchingEngine: matchingEngine, accounts: accounts}
}

func (e *Engine) AddStrategy(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// Run replays feed to completion and returns the closing report.
// Determinism: given an identical feed, an identical fill-model seed,
// and strategies with no non-deterministic inputs of their own, the
// emitted event sequence is identical across runs, because every step
// below is driven solely by feed order and the TestClock.
func (e *Engine) Run(feed []FeedItem) Report {
	sort.SliceStable(feed, func(i, j int) bool { return feed[i].TimestampNs < feed[j].TimestampNs })

	ctx := &Context{clk: e.clk}
	for _, s := range e.strategies {
		s.OnStart(ctx)
	}
	e.flush(ctx)

	var report Report
	for _, item := range feed {
		// AdvanceTime fires every elapsed alert's handler itself; the
		// returned slice is informational only.
		_ = e.clk.AdvanceTime(item.TimestampNs)

		switch {
		case item.Quote != nil:
			e.dataEngine.DeliverQuoteTick(*item.Quote)
			for _, s := range e.strategies {
				s.OnQuoteTick(ctx, *item.Quote)
			}
		case item.Trade != nil:
			e.dataEngine.DeliverTradeTick(*item.Trade)
			for _, s := range e.strategies {
				s.OnTradeTick(ctx, *item.Trade)
			}
		case item.Bar != nil:
			e.dataEngine.DeliverBar(*item.Bar)
			for _, s := range e.strategies {
				s.OnBar(ctx, *item.Bar)
			}
		}

		events := e.flush(ctx)
		report.Events = append(report.Events, events...)
		for _, evt := range events {
			if evt.Type == message.EventOrderFilled {
				report.FillCount++
				// The matching engine updates its own last-trade price on
				// every fill but does not self-trigger pending stops (to
				// keep settleFill free of re-entrancy into order
				// submission); the orchestrator closes that loop here.
				if order, ok := e.execEngine.OrderByClientID(evt.OrderFilled.ClientOrderID); ok {
					e.matchingEngine.OnTrade(order.Instrument, evt.OrderFilled.LastPx)
				}
			}
			for _, s := range e.strategies {
				s.OnEvent(ctx, evt)
			}
			events2 := e.flush(ctx)
			report.Events = append(report.Events, events2...)
		}
	}

	for _, s := range e.strategies {
		s.OnStop(ctx)
	}
	report.Events = append(report.Events, e.flush(ctx)...)

	report.Accounts = e.accounts.Snapshot()
	return report
}

// flush submits every command ctx accumulated since the last flush and
// returns the events produced, in submission order.
func (e *Engine) flush(ctx *Context) []message.Event {
	if len(ctx.pending) == 0 {
		return nil
	}
	cmds := ctx.pending
	ctx.pending = nil

	var events []message.Event
	for _, cmd := range cmds {
		events = append(events, e.execEngine.Process(cmd)...)
	}
	return events
}
