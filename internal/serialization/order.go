package serialization

import (
	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/rishav/algo-engine/internal/model"
)

const discOrder = "ORDER"

// EncodeOrder produces the self-describing binary form of an order.
// null/absent fields (expire_time without GTD, trigger on a plain
// limit) are encoded explicitly via Record's null marker.
func EncodeOrder(o *model.Order) []byte {
	r := NewRecord(discOrder)
	r.PutString("client_order_id", string(o.ClientOrderID))
	r.PutString("venue_order_id", string(o.VenueOrderID))
	r.PutString("account_id", string(o.AccountID))
	r.PutString("symbol", o.Instrument.Symbol)
	r.PutString("venue", o.Instrument.Venue)
	r.PutString("side", o.Side.String())
	r.PutString("type", o.Type.String())
	r.PutString("quantity", o.Quantity.String())
	r.PutInt64("quantity_precision", int64(o.Quantity.Precision()))

	if o.Type.HasPrice() {
		r.PutString("price", o.Price.String())
		r.PutInt64("price_precision", int64(o.Price.Precision()))
	} else {
		r.PutNull("price")
	}

	if o.Trigger.IsSet() {
		r.PutString("trigger_price", o.Trigger.Price().String())
		r.PutInt64("trigger_precision", int64(o.Trigger.Price().Precision()))
	} else {
		r.PutNull("trigger_price")
	}

	r.PutString("time_in_force", o.TIF.String())
	if o.Expiry.IsSet() {
		r.PutInt64("expire_time_ns", o.Expiry.AtNs())
	} else {
		r.PutNull("expire_time_ns")
	}

	r.PutString("status", o.Status.String())
	r.PutString("filled_quantity", o.FilledQty.String())
	r.PutInt64("init_timestamp_ns", o.InitTimestampNs)
	r.PutInt64("last_event_ns", o.LastEventNs)

	return r.Encode()
}

// DecodeOrder reverses EncodeOrder. Unknown discriminators produce a
// SerializationError.
func DecodeOrder(data []byte) (*model.Order, error) {
	r, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if r.Discriminator != discOrder {
		return nil, apperrors.New(apperrors.KindSerialization, "unknown discriminator "+r.Discriminator)
	}

	clientID, _ := r.GetString("client_order_id")
	venueID, _ := r.GetString("venue_order_id")
	accountID, _ := r.GetString("account_id")
	symbol, _ := r.GetString("symbol")
	venue, _ := r.GetString("venue")

	sideStr, _ := r.GetString("side")
	side, err := decodeSide(sideStr)
	if err != nil {
		return nil, err
	}
	typeStr, _ := r.GetString("type")
	otype, err := decodeOrderType(typeStr)
	if err != nil {
		return nil, err
	}

	qtyPrecision, _ := r.GetInt64("quantity_precision")
	qtyStr, _ := r.GetString("quantity")
	qty, err := model.ParseQuantity(qtyStr, uint8(qtyPrecision))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindSerialization, "bad quantity", err)
	}

	var price model.Price
	if !r.IsNull("price") {
		pricePrecision, _ := r.GetInt64("price_precision")
		priceStr, _ := r.GetString("price")
		price, err = model.ParsePrice(priceStr, uint8(pricePrecision))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindSerialization, "bad price", err)
		}
	}

	trigger := model.NoTrigger()
	if !r.IsNull("trigger_price") {
		triggerStr, _ := r.GetString("trigger_price")
		triggerPrecision, _ := r.GetInt64("trigger_precision")
		triggerPrice, err := model.ParsePrice(triggerStr, uint8(triggerPrecision))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindSerialization, "bad trigger", err)
		}
		trigger = model.TriggerAt(triggerPrice)
	}

	tifStr, _ := r.GetString("time_in_force")
	tif, err := decodeTIF(tifStr)
	if err != nil {
		return nil, err
	}

	expiry := model.NoExpiry()
	if !r.IsNull("expire_time_ns") {
		at, _ := r.GetInt64("expire_time_ns")
		expiry = model.ExpireAt(at)
	}

	statusStr, _ := r.GetString("status")
	status, err := decodeOrderStatus(statusStr)
	if err != nil {
		return nil, err
	}

	filledStr, _ := r.GetString("filled_quantity")
	filled, err := model.ParseQuantity(filledStr, uint8(qtyPrecision))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindSerialization, "bad filled quantity", err)
	}

	initTs, _ := r.GetInt64("init_timestamp_ns")
	lastEvent, _ := r.GetInt64("last_event_ns")

	return &model.Order{
		ClientOrderID:   model.ClientOrderID(clientID),
		VenueOrderID:    model.VenueOrderID(venueID),
		AccountID:       model.AccountID(accountID),
		Instrument:      model.InstrumentID{Symbol: symbol, Venue: venue},
		Side:            side,
		Type:            otype,
		Quantity:        qty,
		Price:           price,
		Trigger:         trigger,
		TIF:             tif,
		Expiry:          expiry,
		Status:          status,
		FilledQty:       filled,
		InitTimestampNs: initTs,
		LastEventNs:     lastEvent,
	}, nil
}

func decodeSide(s string) (model.Side, error) {
	switch s {
	case "BUY":
		return model.SideBuy, nil
	case "SELL":
		return model.SideSell, nil
	default:
		return 0, apperrors.New(apperrors.KindSerialization, "unknown side "+s)
	}
}

func decodeOrderType(s string) (model.OrderType, error) {
	switch s {
	case "MARKET":
		return model.OrderTypeMarket, nil
	case "LIMIT":
		return model.OrderTypeLimit, nil
	case "STOP_MARKET":
		return model.OrderTypeStopMarket, nil
	case "STOP_LIMIT":
		return model.OrderTypeStopLimit, nil
	default:
		return 0, apperrors.New(apperrors.KindSerialization, "unknown order type "+s)
	}
}

func decodeTIF(s string) (model.TimeInForce, error) {
	switch s {
	case "DAY":
		return model.TIFDay, nil
	case "GTC":
		return model.TIFGTC, nil
	case "GTD":
		return model.TIFGTD, nil
	case "FOK":
		return model.TIFFOK, nil
	case "IOC":
		return model.TIFIOC, nil
	default:
		return 0, apperrors.New(apperrors.KindSerialization, "unknown time in force "+s)
	}
}

func decodeOrderStatus(s string) (model.OrderStatus, error) {
	switch s {
	case "INITIALIZED":
		return model.OrderStatusInitialized, nil
	case "SUBMITTED":
		return model.OrderStatusSubmitted, nil
	case "ACCEPTED":
		return model.OrderStatusAccepted, nil
	case "REJECTED":
		return model.OrderStatusRejected, nil
	case "INVALID":
		return model.OrderStatusInvalid, nil
	case "DENIED":
		return model.OrderStatusDenied, nil
	case "PARTIALLY_FILLED":
		return model.OrderStatusPartiallyFilled, nil
	case "FILLED":
		return model.OrderStatusFilled, nil
	case "CANCELLED":
		return model.OrderStatusCancelled, nil
	case "EXPIRED":
		return model.OrderStatusExpired, nil
	default:
		return 0, apperrors.New(apperrors.KindSerialization, "unknown order status "+s)
	}
}
