package execution_test

import (
	"testing"

	"github.com/rishav/algo-engine/internal/clock"
	"github.com/rishav/algo-engine/internal/execution"
	"github.com/rishav/algo-engine/internal/matching"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/stretchr/testify/require"
)

var testInst = model.InstrumentID{Symbol: "AUD/USD", Venue: "SIM"}

func setupExecution(t *testing.T, risk execution.RiskConfig) (*execution.ExecutionEngine, *execution.AccountStore) {
	t.Helper()
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

	accounts := execution.NewAccountStore()
	riskChecker := execution.NewRiskChecker(risk)
	return execution.NewExecutionEngine(matchingEngine, riskChecker, accounts), accounts
}

func limitOrderFor(t *testing.T, id string, accountID model.AccountID, side model.Side, qty, price string) *model.Order {
	t.Helper()
	q, err := model.ParseQuantity(qty, 0)
	require.NoError(t, err)
	p, err := model.ParsePrice(price, 5)
	require.NoError(t, err)
	order, err := model.NewOrder(model.OrderParams{
		ClientOrderID: model.ClientOrderID(id), AccountID: accountID, Instrument: testInst,
		Side: side, Type: model.OrderTypeLimit, Quantity: q, Price: p, TIF: model.TIFGTC,
	})
	require.NoError(t, err)
	return order
}

func limitOrder(t *testing.T, id string, side model.Side, qty, price string) *model.Order {
	return limitOrderFor(t, id, "ACC-1", side, qty, price)
}

func marketOrderFor(t *testing.T, id string, accountID model.AccountID, side model.Side, qty string) *model.Order {
	t.Helper()
	q, err := model.ParseQuantity(qty, 0)
	require.NoError(t, err)
	order, err := model.NewOrder(model.OrderParams{
		ClientOrderID: model.ClientOrderID(id), AccountID: accountID, Instrument: testInst,
		Side: side, Type: model.OrderTypeMarket, Quantity: q, TIF: model.TIFIOC,
	})
	require.NoError(t, err)
	return order
}

func marketOrder(t *testing.T, id string, side model.Side, qty string) *model.Order {
	return marketOrderFor(t, id, "ACC-1", side, qty)
}

func eventTypes(events []message.Event) []message.EventType {
	out := make([]message.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestSubmitOrderRestsAndAccepts(t *testing.T) {
	exec, _ := setupExecution(t, execution.DefaultRiskConfig())

	order := limitOrder(t, "ORD-1", model.SideBuy, "10", "1.00000")
	events := exec.Process(message.NewSubmitOrderCommand(1, order))

	require.Equal(t, []message.EventType{message.EventOrderAccepted}, eventTypes(events))
	stored, ok := exec.OrderByClientID("ORD-1")
	require.True(t, ok)
	require.Equal(t, model.OrderStatusAccepted, stored.Status)
}

func TestDuplicateCommandIsIgnored(t *testing.T) {
	exec, _ := setupExecution(t, execution.DefaultRiskConfig())

	order := limitOrder(t, "ORD-2", model.SideBuy, "10", "1.00000")
	cmd := message.NewSubmitOrderCommand(1, order)

	first := exec.Process(cmd)
	require.NotEmpty(t, first)

	second := exec.Process(cmd)
	require.Empty(t, second)
}

func TestRiskDeniedOrderSize(t *testing.T) {
	cfg := execution.DefaultRiskConfig()
	cfg.MaxOrderSize, _ = model.ParseQuantity("5", 0)
	exec, _ := setupExecution(t, cfg)

	order := limitOrder(t, "ORD-3", model.SideBuy, "10", "1.00000")
	events := exec.Process(message.NewSubmitOrderCommand(1, order))

	require.Equal(t, []message.EventType{message.EventOrderDenied}, eventTypes(events))
	require.Equal(t, model.OrderStatusDenied, order.Status)
}

func TestFillUpdatesAccountPositionAndBalance(t *testing.T) {
	exec, accounts := setupExecution(t, execution.DefaultRiskConfig())

	maker := limitOrderFor(t, "MAKER-1", "ACC-MAKER", model.SideSell, "10", "1.00000")
	exec.Process(message.NewSubmitOrderCommand(1, maker))

	taker := marketOrderFor(t, "TAKER-1", "ACC-1", model.SideBuy, "4")
	events := exec.Process(message.NewSubmitOrderCommand(2, taker))
	require.Contains(t, eventTypes(events), message.EventOrderFilled)

	acc := accounts.Get("ACC-1")
	pos, ok := acc.Position(testInst)
	require.True(t, ok)
	require.Equal(t, model.SideBuy, pos.Side)
	require.Equal(t, "4", pos.Quantity.String())

	bal := acc.Balance("USD")
	require.True(t, bal.Total.Equal(bal.Free.Add(bal.Locked)))
}

func TestBracketOrderReleasesChildrenOnEntryFillThenOCO(t *testing.T) {
	exec, _ := setupExecution(t, execution.DefaultRiskConfig())

	maker := limitOrder(t, "MAKER-2", model.SideSell, "10", "1.00000")
	exec.Process(message.NewSubmitOrderCommand(1, maker))

	entry := marketOrder(t, "ENTRY-1", model.SideBuy, "5")
	stopLoss := limitOrder(t, "SL-1", model.SideSell, "5", "0.99000")
	takeProfit := limitOrder(t, "TP-1", model.SideSell, "5", "1.01000")

	events := exec.Process(message.NewSubmitBracketOrderCommand(2, entry, stopLoss, takeProfit))
	require.Equal(t, model.OrderStatusFilled, entry.Status)

	slOrder, ok := exec.OrderByClientID("SL-1")
	require.True(t, ok)
	require.Equal(t, model.OrderStatusAccepted, slOrder.Status)
	tpOrder, ok := exec.OrderByClientID("TP-1")
	require.True(t, ok)
	require.Equal(t, model.OrderStatusAccepted, tpOrder.Status)
	require.Contains(t, eventTypes(events), message.EventOrderAccepted)

	cancelEvents := exec.Process(message.NewCancelOrderCommand(3, "SL-1"))
	require.Contains(t, eventTypes(cancelEvents), message.EventOrderCancelled)

	slOrder, _ = exec.OrderByClientID("SL-1")
	tpOrder, _ = exec.OrderByClientID("TP-1")
	require.Equal(t, model.OrderStatusCancelled, slOrder.Status)
	require.Equal(t, model.OrderStatusCancelled, tpOrder.Status)
}
