package message

import "github.com/rishav/algo-engine/internal/model"

// EventType discriminates the Event payload, named to match the wire
// discriminators in spec.md §6 (upper-snake-case).
type EventType string

const (
	EventOrderAccepted   EventType = "ORDER_ACCEPTED"
	EventOrderRejected   EventType = "ORDER_REJECTED"
	EventOrderInvalid    EventType = "ORDER_INVALID"
	EventOrderDenied     EventType = "ORDER_DENIED"
	EventOrderFilled     EventType = "ORDER_FILLED"
	EventOrderCancelled  EventType = "ORDER_CANCELLED"
	EventOrderExpired    EventType = "ORDER_EXPIRED"
	EventBookIntegrity   EventType = "BOOK_INTEGRITY"
	EventRequestTimedOut EventType = "REQUEST_TIMED_OUT"
)

type Event struct {
	Message
	Type EventType

	OrderAccepted   *OrderAcceptedEvent
	OrderRejected   *OrderRejectedEvent
	OrderInvalid    *OrderInvalidEvent
	OrderDenied     *OrderDeniedEvent
	OrderFilled     *OrderFilledEvent
	OrderCancelled  *OrderCancelledEvent
	OrderExpired    *OrderExpiredEvent
	BookIntegrity   *BookIntegrityEvent
	RequestTimedOut *RequestTimedOutEvent
}

type OrderAcceptedEvent struct {
	ClientOrderID model.ClientOrderID
	VenueOrderID  model.VenueOrderID
}

type OrderRejectedEvent struct {
	ClientOrderID model.ClientOrderID
	Reason        string
}

type OrderInvalidEvent struct {
	ClientOrderID model.ClientOrderID
	Reason        string
}

type OrderDeniedEvent struct {
	ClientOrderID model.ClientOrderID
	Reason        string
}

type OrderFilledEvent struct {
	ClientOrderID  model.ClientOrderID
	VenueOrderID   model.VenueOrderID
	TradeID        model.TradeID
	LastPx         model.Price
	LastQty        model.Quantity
	CumulativeQty  model.Quantity
	LeavesQty      model.Quantity
	Liquidity      model.LiquiditySide
}

type OrderCancelledEvent struct {
	ClientOrderID model.ClientOrderID
	Reason        string
}

type OrderExpiredEvent struct {
	ClientOrderID model.ClientOrderID
}

type BookIntegrityEvent struct {
	Instrument model.InstrumentID
	BestBid    model.Price
	BestAsk    model.Price
	Reason     string
}

type RequestTimedOutEvent struct {
	RequestID string
}

func newEvent(timestampNs int64, t EventType) Event {
	return Event{Message: NewMessage(KindEvent, timestampNs), Type: t}
}

func NewOrderAcceptedEvent(ts int64, clientID model.ClientOrderID, venueID model.VenueOrderID) Event {
	e := newEvent(ts, EventOrderAccepted)
	e.OrderAccepted = &OrderAcceptedEvent{ClientOrderID: clientID, VenueOrderID: venueID}
	return e
}

func NewOrderRejectedEvent(ts int64, clientID model.ClientOrderID, reason string) Event {
	e := newEvent(ts, EventOrderRejected)
	e.OrderRejected = &OrderRejectedEvent{ClientOrderID: clientID, Reason: reason}
	return e
}

func NewOrderInvalidEvent(ts int64, clientID model.ClientOrderID, reason string) Event {
	e := newEvent(ts, EventOrderInvalid)
	e.OrderInvalid = &OrderInvalidEvent{ClientOrderID: clientID, Reason: reason}
	return e
}

func NewOrderDeniedEvent(ts int64, clientID model.ClientOrderID, reason string) Event {
	e := newEvent(ts, EventOrderDenied)
	e.OrderDenied = &OrderDeniedEvent{ClientOrderID: clientID, Reason: reason}
	return e
}

func NewOrderFilledEvent(ts int64, f OrderFilledEvent) Event {
	e := newEvent(ts, EventOrderFilled)
	e.OrderFilled = &f
	return e
}

func NewOrderCancelledEvent(ts int64, clientID model.ClientOrderID, reason string) Event {
	e := newEvent(ts, EventOrderCancelled)
	e.OrderCancelled = &OrderCancelledEvent{ClientOrderID: clientID, Reason: reason}
	return e
}

func NewOrderExpiredEvent(ts int64, clientID model.ClientOrderID) Event {
	e := newEvent(ts, EventOrderExpired)
	e.OrderExpired = &OrderExpiredEvent{ClientOrderID: clientID}
	return e
}

func NewBookIntegrityEvent(ts int64, inst model.InstrumentID, bid, ask model.Price, reason string) Event {
	e := newEvent(ts, EventBookIntegrity)
	e.BookIntegrity = &BookIntegrityEvent{Instrument: inst, BestBid: bid, BestAsk: ask, Reason: reason}
	return e
}

func NewRequestTimedOutEvent(ts int64, requestID string) Event {
	e := newEvent(ts, EventRequestTimedOut)
	e.RequestTimedOut = &RequestTimedOutEvent{RequestID: requestID}
	return e
}
