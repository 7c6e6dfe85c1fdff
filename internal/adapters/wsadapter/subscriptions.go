package wsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
	"github.com/rishav/algo-engine/internal/serialization"
)

// subscribe sends a SUBSCRIBE frame and idempotently records the
// subscription so a reconnect can replay it.
func (c *Client) subscribe(key string) error {
	c.mu.Lock()
	if c.subscribed[key] {
		c.mu.Unlock()
		return nil
	}
	c.subscribed[key] = true
	c.mu.Unlock()
	return c.send(envelope{Kind: frameKindSubscribe, Payload: []byte(key)})
}

func (c *Client) unsubscribe(key string) error {
	c.mu.Lock()
	delete(c.subscribed, key)
	c.mu.Unlock()
	return c.send(envelope{Kind: "UNSUBSCRIBE", Payload: []byte(key)})
}

func (c *Client) SubscribeInstrument(inst model.InstrumentID) error {
	return c.subscribe(subscriptionKey("INSTRUMENT", inst))
}

func (c *Client) UnsubscribeInstrument(inst model.InstrumentID) error {
	return c.unsubscribe(subscriptionKey("INSTRUMENT", inst))
}

func (c *Client) SubscribeQuoteTicks(inst model.InstrumentID) error {
	return c.subscribe(subscriptionKey("QUOTE", inst))
}

func (c *Client) UnsubscribeQuoteTicks(inst model.InstrumentID) error {
	return c.unsubscribe(subscriptionKey("QUOTE", inst))
}

func (c *Client) SubscribeTradeTicks(inst model.InstrumentID) error {
	return c.subscribe(subscriptionKey("TRADE", inst))
}

func (c *Client) UnsubscribeTradeTicks(inst model.InstrumentID) error {
	return c.unsubscribe(subscriptionKey("TRADE", inst))
}

func (c *Client) SubscribeBars(bt model.BarType) error {
	return c.subscribe(fmt.Sprintf("BAR:%s", bt.String()))
}

func (c *Client) UnsubscribeBars(bt model.BarType) error {
	return c.unsubscribe(fmt.Sprintf("BAR:%s", bt.String()))
}

// RequestInstruments sends an instrument-list request tagged with a
// fresh request id and returns that id. The read loop forwards only
// QUOTE, TRADE and BAR frames to the data callback, so a venue's reply
// to this request is not delivered to it.
func (c *Client) RequestInstruments(ctx context.Context) (string, error) {
	requestID := uuid.New().String()
	payload, _ := json.Marshal(map[string]string{"request_id": requestID})
	if err := c.send(envelope{Kind: "REQUEST_INSTRUMENTS", Payload: payload}); err != nil {
		return "", err
	}
	return requestID, nil
}

// SubmitOrder, SubmitBracketOrder, UpdateOrder, and CancelOrder encode
// the matching message.Command with internal/serialization and send it
// as a COMMAND frame; the resulting OrderAccepted/Rejected/... event
// arrives asynchronously via OnEvent.

func (c *Client) SubmitOrder(order *model.Order) error {
	cmd := message.NewSubmitOrderCommand(0, order)
	return c.sendCommand(cmd)
}

func (c *Client) SubmitBracketOrder(entry, stopLoss, takeProfit *model.Order) error {
	cmd := message.NewSubmitBracketOrderCommand(0, entry, stopLoss, takeProfit)
	return c.sendCommand(cmd)
}

func (c *Client) UpdateOrder(id model.ClientOrderID, newQuantity model.Quantity, newPrice model.Price) error {
	cmd := message.NewUpdateOrderCommand(0, id, &newPrice, &newQuantity)
	return c.sendCommand(cmd)
}

func (c *Client) CancelOrder(id model.ClientOrderID) error {
	cmd := message.NewCancelOrderCommand(0, id)
	return c.sendCommand(cmd)
}

func (c *Client) sendCommand(cmd message.Command) error {
	return c.send(envelope{Kind: frameKindCommand, Payload: serialization.EncodeCommand(cmd)})
}
