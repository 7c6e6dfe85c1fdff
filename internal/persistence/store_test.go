package persistence_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rishav/algo-engine/internal/execution"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/rishav/algo-engine/internal/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *persistence.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return persistence.New(client)
}

var testInst = model.InstrumentID{Symbol: "EUR/USD", Venue: "SIM"}

func order(t *testing.T, id string, lastEventNs int64) *model.Order {
	t.Helper()
	qty, err := model.ParseQuantity("10", 0)
	require.NoError(t, err)
	price, err := model.ParsePrice("1.1000", 4)
	require.NoError(t, err)
	o, err := model.NewOrder(model.OrderParams{
		ClientOrderID: model.ClientOrderID(id), AccountID: "ACC-1", Instrument: testInst,
		Side: model.SideBuy, Type: model.OrderTypeLimit, Quantity: qty, Price: price,
		TIF: model.TIFGTC, TimestampNs: lastEventNs,
	})
	require.NoError(t, err)
	o.LastEventNs = lastEventNs
	return o
}

func TestRecoverOrdersReplaysInAscendingTimestampOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PersistOrder(ctx, order(t, "C", 300)))
	require.NoError(t, store.PersistOrder(ctx, order(t, "A", 100)))
	require.NoError(t, store.PersistOrder(ctx, order(t, "B", 200)))

	recovered, err := store.RecoverOrders(ctx)
	require.NoError(t, err)
	require.Len(t, recovered, 3)
	require.Equal(t, model.ClientOrderID("A"), recovered[0].ClientOrderID)
	require.Equal(t, model.ClientOrderID("B"), recovered[1].ClientOrderID)
	require.Equal(t, model.ClientOrderID("C"), recovered[2].ClientOrderID)
}

func TestForgetOrderRemovesItFromRecovery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PersistOrder(ctx, order(t, "A", 100)))
	require.NoError(t, store.PersistOrder(ctx, order(t, "B", 200)))
	require.NoError(t, store.ForgetOrder(ctx, "A"))

	recovered, err := store.RecoverOrders(ctx)
	require.NoError(t, err)
	require.Len(t, recovered, 1)
	require.Equal(t, model.ClientOrderID("B"), recovered[0].ClientOrderID)
}

func TestRecoverPositionsRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pos := execution.Position{
		Instrument:  testInst,
		Side:        model.SideBuy,
		Quantity:    model.NewQuantity(decimal.RequireFromString("5"), 0),
		AvgPx:       model.NewPrice(decimal.RequireFromString("1.1050"), 4),
		RealizedPnL: decimal.RequireFromString("12.50"),
	}
	require.NoError(t, store.PersistPosition(ctx, "ACC-1", pos, 500))

	recovered, err := store.RecoverPositions(ctx)
	require.NoError(t, err)
	require.Len(t, recovered, 1)
	require.Equal(t, model.AccountID("ACC-1"), recovered[0].AccountID)
	require.Equal(t, "5", recovered[0].Position.Quantity.String())
	require.Equal(t, "12.5", recovered[0].Position.RealizedPnL.String())
}

func TestGetReturnsNotFoundForMissingRecord(t *testing.T) {
	store := newTestStore(t)
	_, ok, err := store.Get(context.Background(), persistence.KindOrder, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}
