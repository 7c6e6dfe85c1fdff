package orderbook_test

import (
	"fmt"
	"testing"

	"github.com/rishav/algo-engine/internal/model"
	"github.com/rishav/algo-engine/internal/orderbook"
	"github.com/stretchr/testify/require"
)

var nextID int

func restingOrder(t *testing.T, side model.Side, price string, qty string) *model.Order {
	t.Helper()
	nextID++
	p, err := model.ParsePrice(price, 0)
	require.NoError(t, err)
	q, err := model.ParseQuantity(qty, 0)
	require.NoError(t, err)
	order, err := model.NewOrder(model.OrderParams{
		ClientOrderID: model.ClientOrderID(fmt.Sprintf("O-%d", nextID)),
		AccountID:     "ACC-1",
		Instrument:    model.InstrumentID{Symbol: "TEST", Venue: "SIM"},
		Side:          side,
		Type:          model.OrderTypeLimit,
		Quantity:      q,
		Price:         p,
		TIF:           model.TIFGTC,
	})
	require.NoError(t, err)
	return order
}

func TestLadderInsertAndAggregate(t *testing.T) {
	l := orderbook.NewLadder(false, 0, 0)
	specs := []struct {
		price, qty string
	}{
		{"100", "10"}, {"100", "1"}, {"105", "20"}, {"100", "10"}, {"101", "5"}, {"101", "5"},
	}
	for _, s := range specs {
		require.NoError(t, l.Add(restingOrder(t, model.SideBuy, s.price, s.qty)))
	}

	levels := l.Levels()
	require.Len(t, levels, 3)
	require.Equal(t, "100", levels[0].Price.String())
	require.Equal(t, "21", levels[0].TotalQty.String())
	require.Equal(t, "101", levels[1].Price.String())
	require.Equal(t, "10", levels[1].TotalQty.String())
	require.Equal(t, "105", levels[2].Price.String())
	require.Equal(t, "20", levels[2].TotalQty.String())
}

func buildAskLadder(t *testing.T, levels [][2]string) *orderbook.Ladder {
	l := orderbook.NewLadder(false, 0, 0)
	for _, lv := range levels {
		require.NoError(t, l.Add(restingOrder(t, model.SideSell, lv[0], lv[1])))
	}
	return l
}

func TestWalkFillsMultiLevel(t *testing.T) {
	l := buildAskLadder(t, [][2]string{{"15", "10"}, {"16", "20"}, {"17", "30"}})

	price, _ := model.ParsePrice("20", 0)
	qty, _ := model.ParseQuantity("20", 0)
	fills := l.SimulateOrderFills(model.SideBuy, price, false, qty)
	require.Len(t, fills, 2)
	require.Equal(t, "15", fills[0].Price.String())
	require.Equal(t, "10", fills[0].Qty.String())
	require.Equal(t, "16", fills[1].Price.String())
	require.Equal(t, "10", fills[1].Qty.String())

	price2, _ := model.ParsePrice("100", 0)
	qty2, _ := model.ParseQuantity("1000", 0)
	fills2 := l.SimulateOrderFills(model.SideBuy, price2, false, qty2)
	require.Len(t, fills2, 3)
	require.Equal(t, "30", fills2[2].Qty.String())
}

func TestWalkFillsTimePriority(t *testing.T) {
	l := orderbook.NewLadder(false, 1, 0)
	require.NoError(t, l.Add(restingOrder(t, model.SideSell, "15", "1")))
	require.NoError(t, l.Add(restingOrder(t, model.SideSell, "16", "2")))
	require.NoError(t, l.Add(restingOrder(t, model.SideSell, "16", "3")))
	require.NoError(t, l.Add(restingOrder(t, model.SideSell, "20", "10")))

	price, _ := model.ParsePrice("16.5", 1)
	qty, _ := model.ParseQuantity("4", 0)
	fills := l.SimulateOrderFills(model.SideBuy, price, false, qty)

	require.Len(t, fills, 3)
	require.Equal(t, "15.0", fills[0].Price.String())
	require.Equal(t, "1", fills[0].Qty.String())
	require.Equal(t, "16.0", fills[1].Price.String())
	require.Equal(t, "2", fills[1].Qty.String())
	require.Equal(t, "16.0", fills[2].Price.String())
	require.Equal(t, "1", fills[2].Qty.String())
}

func TestCrossedBookRaisesIntegrityEvent(t *testing.T) {
	ob := orderbook.NewOrderBook(model.InstrumentID{Symbol: "TEST", Venue: "SIM"}, 0, 0)
	require.NoError(t, ob.Bids.Add(restingOrder(t, model.SideBuy, "101", "5")))
	require.NoError(t, ob.Asks.Add(restingOrder(t, model.SideSell, "100", "5")))

	evt := ob.CheckIntegrity(42)
	require.NotNil(t, evt)
	require.Equal(t, "101", evt.BookIntegrity.BestBid.String())
	require.Equal(t, "100", evt.BookIntegrity.BestAsk.String())
}

func TestSoundBookHasNoIntegrityEvent(t *testing.T) {
	ob := orderbook.NewOrderBook(model.InstrumentID{Symbol: "TEST", Venue: "SIM"}, 0, 0)
	require.NoError(t, ob.Bids.Add(restingOrder(t, model.SideBuy, "99", "5")))
	require.NoError(t, ob.Asks.Add(restingOrder(t, model.SideSell, "100", "5")))

	require.Nil(t, ob.CheckIntegrity(42))
}

func TestDeleteDropsEmptyLevel(t *testing.T) {
	l := orderbook.NewLadder(false, 0, 0)
	order := restingOrder(t, model.SideSell, "100", "10")
	require.NoError(t, l.Add(order))
	require.NoError(t, l.Delete(order))
	require.Nil(t, l.Top())
}
