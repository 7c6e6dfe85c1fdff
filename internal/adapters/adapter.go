// Package adapters defines the capability contracts a live venue
// connection must satisfy to feed DataEngine and ExecutionEngine: a
// DataClient pushes ticks/bars/instruments into the engine and answers
// data requests; an ExecutionClient submits and manages orders and
// reports back fill/lifecycle events. internal/adapters/wsadapter is a
// concrete (if thin) example transport over gorilla/websocket.
package adapters

import (
	"context"

	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
)

// DataCallback is how a DataClient pushes a tick, bar, or instrument
// definition into the engine. The payload's concrete type is up to the
// implementation: wsadapter.Client passes the raw, undecoded payload
// bytes of each QUOTE, TRADE or BAR frame. Implementations must
// not block on it for long; the engine enqueues and returns quickly.
type DataCallback func(any)

// DataClient is the capability contract for a live market data
// connection. subscribe_* is idempotent: subscribing twice to the same
// instrument/stream is a no-op, mirroring DataEngine's own contract.
type DataClient interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	SubscribeInstrument(inst model.InstrumentID) error
	UnsubscribeInstrument(inst model.InstrumentID) error
	SubscribeQuoteTicks(inst model.InstrumentID) error
	UnsubscribeQuoteTicks(inst model.InstrumentID) error
	SubscribeTradeTicks(inst model.InstrumentID) error
	UnsubscribeTradeTicks(inst model.InstrumentID) error
	SubscribeBars(bt model.BarType) error
	UnsubscribeBars(bt model.BarType) error

	// RequestInstruments asks the venue for its instrument list; the
	// response (possibly empty) arrives via the push callback exactly
	// once per call, correlated by the returned request id.
	RequestInstruments(ctx context.Context) (requestID string, err error)

	// OnData registers the push callback. Only one callback is held;
	// registering again replaces it.
	OnData(cb DataCallback)
}

// ExecutionClient is the capability contract for a live order routing
// connection. Every call is fire-and-forget from the caller's
// perspective: the resulting OrderAccepted/Rejected/Cancelled/Filled
// event arrives later via OnEvent, tagged with AccountID and the
// originating ClientOrderID.
type ExecutionClient interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	SubmitOrder(order *model.Order) error
	SubmitBracketOrder(entry, stopLoss, takeProfit *model.Order) error
	UpdateOrder(id model.ClientOrderID, newQuantity model.Quantity, newPrice model.Price) error
	CancelOrder(id model.ClientOrderID) error

	OnEvent(cb EventCallback)
}

// EventCallback delivers an execution event as it arrives over the
// wire, already decoded into the engine's message.Event type.
type EventCallback func(message.Event)
