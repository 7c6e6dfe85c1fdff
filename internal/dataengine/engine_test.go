package dataengine_test

import (
	"testing"
	"time"

	"github.com/rishav/algo-engine/internal/dataengine"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/stretchr/testify/require"
)

var testInst = model.InstrumentID{Symbol: "AUD/USD", Venue: "SIM"}

func quote(ts int64, bid, ask string) model.QuoteTick {
	bp, _ := model.ParsePrice(bid, 5)
	ap, _ := model.ParsePrice(ask, 5)
	sz, _ := model.ParseQuantity("1", 0)
	return model.QuoteTick{Instrument: testInst, BidPrice: bp, AskPrice: ap, BidSize: sz, AskSize: sz, TimestampNs: ts}
}

func TestSubscribeAndDeliverFanOut(t *testing.T) {
	d := dataengine.NewDataEngine()
	require.NoError(t, d.Start())
	defer d.Stop()

	ch := d.SubscribeQuoteTicks("STRAT-1", testInst)
	d.DeliverQuoteTick(quote(100, "1.00000", "1.00010"))
	<-d.Drain()

	select {
	case tick := <-ch:
		require.Equal(t, int64(100), tick.TimestampNs)
	case <-time.After(time.Second):
		t.Fatal("expected a delivered tick")
	}

	require.Len(t, d.RecentQuotes(testInst, 10), 1)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	d := dataengine.NewDataEngine()
	require.NoError(t, d.Start())
	defer d.Stop()

	ch1 := d.SubscribeQuoteTicks("STRAT-1", testInst)
	ch2 := d.SubscribeQuoteTicks("STRAT-1", testInst)
	require.Equal(t, ch1, ch2)
}

func TestOutOfOrderTickIsDropped(t *testing.T) {
	d := dataengine.NewDataEngine()
	require.NoError(t, d.Start())
	defer d.Stop()

	d.DeliverQuoteTick(quote(200, "1.00000", "1.00010"))
	d.DeliverQuoteTick(quote(100, "0.99000", "0.99010"))
	<-d.Drain()

	require.Equal(t, 1, d.DroppedOutOfOrder())
	require.Len(t, d.RecentQuotes(testInst, 10), 1)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	d := dataengine.NewDataEngine()
	require.NoError(t, d.Start())
	defer d.Stop()

	ch := d.SubscribeQuoteTicks("STRAT-1", testInst)
	d.UnsubscribeQuoteTicks("STRAT-1", testInst)

	_, open := <-ch
	require.False(t, open)
}

func trade(ts int64, px string) model.TradeTick {
	p, _ := model.ParsePrice(px, 5)
	sz, _ := model.ParseQuantity("10", 0)
	return model.TradeTick{Instrument: testInst, Price: p, Size: sz, AggressorSide: model.SideBuy, TimestampNs: ts}
}

func TestTradeTicksAggregateIntoBars(t *testing.T) {
	d := dataengine.NewDataEngine()
	require.NoError(t, d.Start())
	defer d.Stop()

	bt := model.BarType{Instrument: testInst, Spec: model.BarSpec{Step: 1, Unit: "SECOND", Aggregation: "LAST"}}
	ch := d.SubscribeBars("STRAT-1", bt)

	const second = int64(time.Second)
	d.DeliverTradeTick(trade(0, "1.00000"))
	d.DeliverTradeTick(trade(second/2, "1.00050"))
	d.DeliverTradeTick(trade(3*second/4, "0.99900"))
	// Crossing into the next second's bucket closes the first bar.
	d.DeliverTradeTick(trade(second, "1.00100"))
	<-d.Drain()

	select {
	case bar := <-ch:
		require.True(t, bar.Open.Equal(mustPrice("1.00000")))
		require.True(t, bar.High.Equal(mustPrice("1.00050")))
		require.True(t, bar.Low.Equal(mustPrice("0.99900")))
		require.True(t, bar.Close.Equal(mustPrice("0.99900")))
		require.True(t, bar.Volume.Equal(mustQty("30")))
	case <-time.After(time.Second):
		t.Fatal("expected the first bucket's bar to close")
	}

	require.Len(t, d.RecentBars(bt, 10), 1)
}

func mustPrice(s string) model.Price {
	p, _ := model.ParsePrice(s, 5)
	return p
}

func mustQty(s string) model.Quantity {
	q, _ := model.ParseQuantity(s, 0)
	return q
}
