package wsadapter_test

import (
	"testing"

	"github.com/rishav/algo-engine/internal/model"
	"github.com/stretchr/testify/require"
)

func testInstrument() model.InstrumentID {
	return model.InstrumentID{Symbol: "GBP/USD", Venue: "SIM"}
}

func mustLimitOrder(t *testing.T) *model.Order {
	t.Helper()
	qty, err := model.ParseQuantity("100", 0)
	require.NoError(t, err)
	price, err := model.ParsePrice("1.2500", 4)
	require.NoError(t, err)
	order, err := model.NewOrder(model.OrderParams{
		ClientOrderID: "ADAPTER-1", AccountID: "ACC-1", Instrument: testInstrument(),
		Side: model.SideBuy, Type: model.OrderTypeLimit, Quantity: qty, Price: price, TIF: model.TIFGTC,
	})
	require.NoError(t, err)
	return order
}
