package serialization

import (
	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
)

const discEvent = "EVENT"

func EncodeEvent(e message.Event) []byte {
	r := NewRecord(discEvent)
	r.PutString("id", e.ID.String())
	r.PutInt64("timestamp_ns", e.TimestampNs)
	r.PutString("event_type", string(e.Type))

	switch e.Type {
	case message.EventOrderAccepted:
		r.PutString("client_order_id", string(e.OrderAccepted.ClientOrderID))
		r.PutString("venue_order_id", string(e.OrderAccepted.VenueOrderID))
	case message.EventOrderRejected:
		r.PutString("client_order_id", string(e.OrderRejected.ClientOrderID))
		r.PutString("reason", e.OrderRejected.Reason)
	case message.EventOrderInvalid:
		r.PutString("client_order_id", string(e.OrderInvalid.ClientOrderID))
		r.PutString("reason", e.OrderInvalid.Reason)
	case message.EventOrderDenied:
		r.PutString("client_order_id", string(e.OrderDenied.ClientOrderID))
		r.PutString("reason", e.OrderDenied.Reason)
	case message.EventOrderFilled:
		f := e.OrderFilled
		r.PutString("client_order_id", string(f.ClientOrderID))
		r.PutString("venue_order_id", string(f.VenueOrderID))
		r.PutString("trade_id", string(f.TradeID))
		r.PutString("last_px", f.LastPx.String())
		r.PutString("last_qty", f.LastQty.String())
		r.PutString("cumulative_qty", f.CumulativeQty.String())
		r.PutString("leaves_qty", f.LeavesQty.String())
		r.PutString("liquidity_side", f.Liquidity.String())
	case message.EventOrderCancelled:
		r.PutString("client_order_id", string(e.OrderCancelled.ClientOrderID))
		r.PutString("reason", e.OrderCancelled.Reason)
	case message.EventOrderExpired:
		r.PutString("client_order_id", string(e.OrderExpired.ClientOrderID))
	case message.EventBookIntegrity:
		b := e.BookIntegrity
		r.PutString("symbol", b.Instrument.Symbol)
		r.PutString("venue", b.Instrument.Venue)
		r.PutString("best_bid", b.BestBid.String())
		r.PutString("best_ask", b.BestAsk.String())
		r.PutString("reason", b.Reason)
	case message.EventRequestTimedOut:
		r.PutString("request_id", e.RequestTimedOut.RequestID)
	}
	return r.Encode()
}

func DecodeEvent(data []byte) (message.Event, error) {
	r, err := Decode(data)
	if err != nil {
		return message.Event{}, err
	}
	if r.Discriminator != discEvent {
		return message.Event{}, apperrors.New(apperrors.KindSerialization, "unknown discriminator "+r.Discriminator)
	}

	id, _ := r.GetString("id")
	ts, _ := r.GetInt64("timestamp_ns")
	typeStr, _ := r.GetString("event_type")
	uid, err := parseUUID(id)
	if err != nil {
		return message.Event{}, err
	}
	e := message.Event{
		Message: message.Message{Kind: message.KindEvent, ID: uid, TimestampNs: ts},
		Type:    message.EventType(typeStr),
	}

	getStr := func(key string) string { v, _ := r.GetString(key); return v }

	switch e.Type {
	case message.EventOrderAccepted:
		e.OrderAccepted = &message.OrderAcceptedEvent{
			ClientOrderID: model.ClientOrderID(getStr("client_order_id")),
			VenueOrderID:  model.VenueOrderID(getStr("venue_order_id")),
		}
	case message.EventOrderRejected:
		e.OrderRejected = &message.OrderRejectedEvent{
			ClientOrderID: model.ClientOrderID(getStr("client_order_id")),
			Reason:        getStr("reason"),
		}
	case message.EventOrderInvalid:
		e.OrderInvalid = &message.OrderInvalidEvent{
			ClientOrderID: model.ClientOrderID(getStr("client_order_id")),
			Reason:        getStr("reason"),
		}
	case message.EventOrderDenied:
		e.OrderDenied = &message.OrderDeniedEvent{
			ClientOrderID: model.ClientOrderID(getStr("client_order_id")),
			Reason:        getStr("reason"),
		}
	case message.EventOrderFilled:
		lastPx, err := model.ParsePrice(getStr("last_px"), 8)
		if err != nil {
			return message.Event{}, err
		}
		lastQty, err := model.ParseQuantity(getStr("last_qty"), 8)
		if err != nil {
			return message.Event{}, err
		}
		cumQty, err := model.ParseQuantity(getStr("cumulative_qty"), 8)
		if err != nil {
			return message.Event{}, err
		}
		leavesQty, err := model.ParseQuantity(getStr("leaves_qty"), 8)
		if err != nil {
			return message.Event{}, err
		}
		liquidity := model.LiquidityMaker
		if getStr("liquidity_side") == "TAKER" {
			liquidity = model.LiquidityTaker
		}
		e.OrderFilled = &message.OrderFilledEvent{
			ClientOrderID: model.ClientOrderID(getStr("client_order_id")),
			VenueOrderID:  model.VenueOrderID(getStr("venue_order_id")),
			TradeID:       model.TradeID(getStr("trade_id")),
			LastPx:        lastPx,
			LastQty:       lastQty,
			CumulativeQty: cumQty,
			LeavesQty:     leavesQty,
			Liquidity:     liquidity,
		}
	case message.EventOrderCancelled:
		e.OrderCancelled = &message.OrderCancelledEvent{
			ClientOrderID: model.ClientOrderID(getStr("client_order_id")),
			Reason:        getStr("reason"),
		}
	case message.EventOrderExpired:
		e.OrderExpired = &message.OrderExpiredEvent{ClientOrderID: model.ClientOrderID(getStr("client_order_id"))}
	case message.EventBookIntegrity:
		bestBid, err := model.ParsePrice(getStr("best_bid"), 8)
		if err != nil {
			return message.Event{}, err
		}
		bestAsk, err := model.ParsePrice(getStr("best_ask"), 8)
		if err != nil {
			return message.Event{}, err
		}
		e.BookIntegrity = &message.BookIntegrityEvent{
			Instrument: model.InstrumentID{Symbol: getStr("symbol"), Venue: getStr("venue")},
			BestBid:    bestBid,
			BestAsk:    bestAsk,
			Reason:     getStr("reason"),
		}
	case message.EventRequestTimedOut:
		e.RequestTimedOut = &message.RequestTimedOutEvent{RequestID: getStr("request_id")}
	default:
		return message.Event{}, apperrors.New(apperrors.KindSerialization, "unknown event type "+typeStr)
	}
	return e, nil
}
