package backtest_test

import (
	"testing"

	"github.com/rishav/algo-engine/internal/backtest"
	"github.com/rishav/algo-engine/internal/clock"
	"github.com/rishav/algo-engine/internal/dataengine"
	"github.com/rishav/algo-engine/internal/execution"
	"github.com/rishav/algo-engine/internal/matching"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/stretchr/testify/require"
)

var testInst = model.InstrumentID{Symbol: "AUD/USD", Venue: "SIM"}

// buyOnceStrategy submits a single market buy the first time it
// observes a quote tick, then does nothing else.
type buyOnceStrategy struct {
	submitted bool
	filled    bool
}

func (s *buyOnceStrategy) OnStart(ctx *backtest.Context) {}

func (s *buyOnceStrategy) OnQuoteTick(ctx *backtest.Context, tick model.QuoteTick) {
	if s.submitted {
		return
	}
	s.submitted = true
	qty, _ := model.ParseQuantity("5", 0)
	order, _ := model.NewOrder(model.OrderParams{
		ClientOrderID: "STRAT-BUY-1", AccountID: "ACC-1", Instrument: testInst,
		Side: model.SideBuy, Type: model.OrderTypeMarket, Quantity: qty, TIF: model.TIFIOC,
	})
	ctx.SubmitOrder(order)
}

func (s *buyOnceStrategy) OnTradeTick(ctx *backtest.Context, tick model.TradeTick) {}
func (s *buyOnceStrategy) OnBar(ctx *backtest.Context, bar model.Bar)              {}

func (s *buyOnceStrategy) OnEvent(ctx *backtest.Context, evt message.Event) {
	if evt.Type == message.EventOrderFilled && evt.OrderFilled.ClientOrderID == "STRAT-BUY-1" {
		s.filled = true
	}
}

func (s *buyOnceStrategy) OnStop(ctx *backtest.Context) {}

func TestBacktestFillsStrategyMarketOrder(t *testing.T) {
	registry := model.NewInstrumentRegistry()
	tick, err := model.ParsePrice("0.00001", 5)
	require.NoError(t, err)
	require.NoError(t, registry.Register(model.Instrument{
		ID: testInst, QuoteCurrency: "USD", PricePrecision: 5, SizePrecision: 0, TickSize: tick,
	}))

	clk := clock.NewTestClock()
	fillModel := matching.NewFillModel(matching.FillModelConfig{ProbFillAtLimit: 1, ProbFillAtStop: 1, ProbSlippage: 0, Seed: 1})
	matchingEngine := matching.NewEngine(clk, registry, fillModel)
	require.NoError(t, matchingEngine.AddInstrument(testInst))

	maker, err := model.NewOrder(model.OrderParams{
		ClientOrderID: "MAKER-1", AccountID: "ACC-MAKER", Instrument: testInst,
		Side: model.SideSell, Type: model.OrderTypeLimit, Quantity: mustQty(t, "10"), Price: mustPrice(t, "1.00000"), TIF: model.TIFGTC,
	})
	require.NoError(t, err)
	matchingEngine.SubmitOrder(maker)

	accounts := execution.NewAccountStore()
	risk := execution.NewRiskChecker(execution.DefaultRiskConfig())
	execEngine := execution.NewExecutionEngine(matchingEngine, risk, accounts)

	dataEng := dataengine.NewDataEngine()
	require.NoError(t, dataEng.Start())
	defer dataEng.Stop()

	bt := backtest.NewEngine(clk, dataEng, execEngine, matchingEngine, accounts)
	strat := &buyOnceStrategy{}
	bt.AddStrategy(strat)

	feed := []backtest.FeedItem{
		{TimestampNs: 100, Quote: &model.QuoteTick{Instrument: testInst, BidPrice: mustPrice(t, "0.99990"), AskPrice: mustPrice(t, "1.00000"), TimestampNs: 100}},
	}

	report := bt.Run(feed)
	require.True(t, strat.filled)
	require.Greater(t, report.FillCount, 0)

	pos, ok := accounts.Get("ACC-1").Position(testInst)
	require.True(t, ok)
	require.Equal(t, "5", pos.Quantity.String())
}

func mustQty(t *testing.T, s string) model.Quantity {
	t.Helper()
	q, err := model.ParseQuantity(s, 0)
	require.NoError(t, err)
	return q
}

func mustPrice(t *testing.T, s string) model.Price {
	t.Helper()
	p, err := model.ParsePrice(s, 5)
	require.NoError(t, err)
	return p
}
