package matching_test

import (
	"testing"

	"github.com/rishav/algo-engine/internal/clock"
	"github.com/rishav/algo-engine/internal/matching"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/stretchr/testify/require"
)

var testInst = model.InstrumentID{Symbol: "AUD/USD", Venue: "SIM"}

func setupEngine(t *testing.T, cfg matching.FillModelConfig) (*matching.Engine, *clock.TestClock) {
	t.Helper()
	registry := model.NewInstrumentRegistry()
	tick, err := model.ParsePrice("0.00001", 5)
	require.NoError(t, err)
	require.NoError(t, registry.Register(model.Instrument{
		ID: testInst, QuoteCurrency: "USD", PricePrecision: 5, SizePrecision: 0, TickSize: tick,
	}))

	clk := clock.NewTestClock()
	eng := matching.NewEngine(clk, registry, matching.NewFillModel(cfg))
	require.NoError(t, eng.AddInstrument(testInst))
	return eng, clk
}

func deterministicFills() matching.FillModelConfig {
	return matching.FillModelConfig{ProbFillAtLimit: 1, ProbFillAtStop: 1, ProbSlippage: 0, Seed: 1}
}

func newOrder(t *testing.T, id string, side model.Side, typ model.OrderType, qty, price string, tif model.TimeInForce) *model.Order {
	t.Helper()
	q, err := model.ParseQuantity(qty, 0)
	require.NoError(t, err)
	var p model.Price
	if price != "" {
		p, err = model.ParsePrice(price, 5)
		require.NoError(t, err)
	}
	order, err := model.NewOrder(model.OrderParams{
		ClientOrderID: model.ClientOrderID(id),
		AccountID:     "ACC-1",
		Instrument:    testInst,
		Side:          side,
		Type:          typ,
		Quantity:      q,
		Price:         p,
		TIF:           tif,
	})
	require.NoError(t, err)
	return order
}

func eventTypes(events []message.Event) []message.EventType {
	out := make([]message.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestRestingLimitThenCrossingTaker(t *testing.T) {
	eng, _ := setupEngine(t, deterministicFills())

	maker := newOrder(t, "MAKER-1", model.SideSell, model.OrderTypeLimit, "10", "1.00000", model.TIFGTC)
	makerEvents := eng.SubmitOrder(maker)
	require.Equal(t, []message.EventType{message.EventOrderAccepted}, eventTypes(makerEvents))
	require.Equal(t, model.OrderStatusAccepted, maker.Status)

	taker := newOrder(t, "TAKER-1", model.SideBuy, model.OrderTypeLimit, "4", "1.00000", model.TIFGTC)
	takerEvents := eng.SubmitOrder(taker)

	require.Equal(t, []message.EventType{message.EventOrderAccepted, message.EventOrderFilled, message.EventOrderFilled}, eventTypes(takerEvents))
	require.Equal(t, model.OrderStatusFilled, taker.Status)
	require.Equal(t, model.OrderStatusPartiallyFilled, maker.Status)
	require.Equal(t, "6", maker.LeavesQty().String())

	fill := takerEvents[1].OrderFilled
	require.Equal(t, model.LiquidityTaker, fill.Liquidity)
	require.Equal(t, "1.00000", fill.LastPx.String())
	require.Equal(t, "4", fill.LastQty.String())
}

func TestIOCCancelsUnfilledRemainder(t *testing.T) {
	eng, _ := setupEngine(t, deterministicFills())

	maker := newOrder(t, "MAKER-2", model.SideSell, model.OrderTypeLimit, "5", "1.00000", model.TIFGTC)
	eng.SubmitOrder(maker)

	taker := newOrder(t, "TAKER-2", model.SideBuy, model.OrderTypeLimit, "10", "1.00000", model.TIFIOC)
	events := eng.SubmitOrder(taker)

	require.Equal(t, model.OrderStatusCancelled, taker.Status)
	require.Equal(t, message.EventOrderCancelled, events[len(events)-1].Type)
	require.Equal(t, "5", taker.LeavesQty().String())
}

func TestFOKRejectsWithoutPartialFill(t *testing.T) {
	eng, _ := setupEngine(t, deterministicFills())

	maker := newOrder(t, "MAKER-3", model.SideSell, model.OrderTypeLimit, "3", "1.00000", model.TIFGTC)
	eng.SubmitOrder(maker)

	taker := newOrder(t, "TAKER-3", model.SideBuy, model.OrderTypeLimit, "10", "1.00000", model.TIFFOK)
	events := eng.SubmitOrder(taker)

	require.Equal(t, model.OrderStatusRejected, taker.Status)
	require.Equal(t, []message.EventType{message.EventOrderRejected}, eventTypes(events))
	require.True(t, taker.LeavesQty().Equal(taker.Quantity))
	require.Equal(t, model.OrderStatusAccepted, maker.Status)
}

func TestMarketOrderWalksAndCancelsShortfall(t *testing.T) {
	eng, _ := setupEngine(t, deterministicFills())

	maker := newOrder(t, "MAKER-4", model.SideSell, model.OrderTypeLimit, "2", "1.00000", model.TIFGTC)
	eng.SubmitOrder(maker)

	taker := newOrder(t, "TAKER-4", model.SideBuy, model.OrderTypeMarket, "5", "", model.TIFIOC)
	events := eng.SubmitOrder(taker)

	require.Equal(t, model.OrderStatusCancelled, taker.Status)
	require.Equal(t, "2", taker.FilledQty.String())
	require.Equal(t, message.EventOrderCancelled, events[len(events)-1].Type)
}

func TestStopOrderTriggersOnTrade(t *testing.T) {
	eng, _ := setupEngine(t, deterministicFills())

	maker := newOrder(t, "MAKER-5", model.SideSell, model.OrderTypeLimit, "5", "1.00100", model.TIFGTC)
	eng.SubmitOrder(maker)

	trigger, err := model.ParsePrice("1.00050", 5)
	require.NoError(t, err)
	stop, err := model.NewOrder(model.OrderParams{
		ClientOrderID: "STOP-1", AccountID: "ACC-1", Instrument: testInst,
		Side: model.SideBuy, Type: model.OrderTypeStopMarket, Quantity: mustQty(t, "5"),
		Trigger: model.TriggerAt(trigger), TIF: model.TIFGTC,
	})
	require.NoError(t, err)

	stopEvents := eng.SubmitOrder(stop)
	require.Equal(t, []message.EventType{message.EventOrderAccepted}, eventTypes(stopEvents))

	lastPx, err := model.ParsePrice("1.00050", 5)
	require.NoError(t, err)
	fired := eng.OnTrade(testInst, lastPx)
	require.NotEmpty(t, fired)
	require.Equal(t, model.OrderStatusFilled, stop.Status)
}

func mustQty(t *testing.T, s string) model.Quantity {
	t.Helper()
	q, err := model.ParseQuantity(s, 0)
	require.NoError(t, err)
	return q
}
