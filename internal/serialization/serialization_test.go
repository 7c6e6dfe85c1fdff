package serialization_test

import (
	"testing"

	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/rishav/algo-engine/internal/serialization"
	"github.com/stretchr/testify/require"
)

func limitOrder(t *testing.T) *model.Order {
	t.Helper()
	qty, err := model.ParseQuantity("100000", 0)
	require.NoError(t, err)
	price, err := model.ParsePrice("1.00000", 5)
	require.NoError(t, err)
	order, err := model.NewOrder(model.OrderParams{
		ClientOrderID: "O-123456",
		AccountID:     "S-001",
		Instrument:    model.InstrumentID{Symbol: "AUD/USD", Venue: "SIM"},
		Side:          model.SideBuy,
		Type:          model.OrderTypeLimit,
		Quantity:      qty,
		Price:         price,
		TIF:           model.TIFGTD,
		Expiry:        model.ExpireAt(0),
	})
	require.NoError(t, err)
	return order
}

func TestOrderRoundTrip(t *testing.T) {
	order := limitOrder(t)
	encoded := serialization.EncodeOrder(order)
	decoded, err := serialization.DecodeOrder(encoded)
	require.NoError(t, err)
	require.Equal(t, order, decoded)
}

func TestOrderRoundTripPlainLimitHasNoTrigger(t *testing.T) {
	order := limitOrder(t)
	order.TIF = model.TIFGTC
	order.Expiry = model.NoExpiry()

	decoded, err := serialization.DecodeOrder(serialization.EncodeOrder(order))
	require.NoError(t, err)
	require.False(t, decoded.Trigger.IsSet())
	require.False(t, decoded.Expiry.IsSet())
}

func TestDecodeUnknownDiscriminatorFails(t *testing.T) {
	r, err := serialization.Decode(serialization.EncodeOrder(limitOrder(t)))
	require.NoError(t, err)
	_ = r
	garbage := append([]byte{0, 3}, []byte("FOO")...)
	garbage = append(garbage, 0, 0) // zero fields
	_, err = serialization.DecodeOrder(garbage)
	require.Error(t, err)
}

func TestCommandRoundTrip(t *testing.T) {
	cmd := message.NewSubmitOrderCommand(42, limitOrder(t))
	decoded, err := serialization.DecodeCommand(serialization.EncodeCommand(cmd))
	require.NoError(t, err)
	require.Equal(t, cmd.ID, decoded.ID)
	require.Equal(t, cmd.TimestampNs, decoded.TimestampNs)
	require.Equal(t, cmd.Type, decoded.Type)
	require.Equal(t, cmd.SubmitOrder.Order, decoded.SubmitOrder.Order)
}

func TestEventRoundTrip(t *testing.T) {
	evt := message.NewOrderAcceptedEvent(7, "O-1", "V-1")
	decoded, err := serialization.DecodeEvent(serialization.EncodeEvent(evt))
	require.NoError(t, err)
	require.Equal(t, evt, decoded)
}

func TestCamelSnakeRoundTrip(t *testing.T) {
	require.Equal(t, "ALL_UPPER_SNAKE", serialization.CamelToSnake(serialization.SnakeToCamel("ALL_UPPER_SNAKE")))
	require.Equal(t, "CamelCaseString", serialization.SnakeToCamel(serialization.CamelToSnake("CamelCaseString")))
	require.Equal(t, "CAMEL_CASE", serialization.CamelToSnake("camelCase"))
	require.Equal(t, "CAMEL_CASE", serialization.CamelToSnake("CamelCase"))
	require.Equal(t, "SnakeCase", serialization.SnakeToCamel("snake_case"))
	require.Equal(t, "SnakeCase", serialization.SnakeToCamel("SNAKE_CASE"))
}
