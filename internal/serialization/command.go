package serialization

import (
	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/model"
)

const discCommand = "COMMAND"

func EncodeCommand(c message.Command) []byte {
	r := NewRecord(discCommand)
	r.PutString("id", c.ID.String())
	r.PutInt64("timestamp_ns", c.TimestampNs)
	r.PutString("command_type", string(c.Type))

	switch c.Type {
	case message.CommandSubmitOrder:
		r.PutRecord("order", decodeableOrderRecord(c.SubmitOrder.Order))
	case message.CommandSubmitBracketOrder:
		r.PutRecord("entry", decodeableOrderRecord(c.SubmitBracketOrder.Entry))
		r.PutRecord("stop_loss", decodeableOrderRecord(c.SubmitBracketOrder.StopLoss))
		r.PutRecord("take_profit", decodeableOrderRecord(c.SubmitBracketOrder.TakeProfit))
	case message.CommandCancelOrder:
		r.PutString("client_order_id", string(c.CancelOrder.ClientOrderID))
	case message.CommandUpdateOrder:
		r.PutString("client_order_id", string(c.UpdateOrder.ClientOrderID))
		if c.UpdateOrder.NewPrice != nil {
			r.PutString("new_price", c.UpdateOrder.NewPrice.String())
		} else {
			r.PutNull("new_price")
		}
		if c.UpdateOrder.NewQuantity != nil {
			r.PutString("new_quantity", c.UpdateOrder.NewQuantity.String())
		} else {
			r.PutNull("new_quantity")
		}
	}
	return r.Encode()
}

func DecodeCommand(data []byte) (message.Command, error) {
	r, err := Decode(data)
	if err != nil {
		return message.Command{}, err
	}
	if r.Discriminator != discCommand {
		return message.Command{}, apperrors.New(apperrors.KindSerialization, "unknown discriminator "+r.Discriminator)
	}

	id, _ := r.GetString("id")
	ts, _ := r.GetInt64("timestamp_ns")
	typeStr, _ := r.GetString("command_type")

	uid, err := parseUUID(id)
	if err != nil {
		return message.Command{}, err
	}
	c := message.Command{
		Message: message.Message{Kind: message.KindCommand, ID: uid, TimestampNs: ts},
		Type:    message.CommandType(typeStr),
	}

	switch c.Type {
	case message.CommandSubmitOrder:
		orderRec, ok := r.GetRecord("order")
		if !ok {
			return message.Command{}, apperrors.New(apperrors.KindSerialization, "missing order field")
		}
		order, err := orderFromRecord(orderRec)
		if err != nil {
			return message.Command{}, err
		}
		c.SubmitOrder = &message.SubmitOrderPayload{Order: order}
	case message.CommandSubmitBracketOrder:
		entryRec, _ := r.GetRecord("entry")
		slRec, _ := r.GetRecord("stop_loss")
		tpRec, _ := r.GetRecord("take_profit")
		entry, err := orderFromRecord(entryRec)
		if err != nil {
			return message.Command{}, err
		}
		sl, err := orderFromRecord(slRec)
		if err != nil {
			return message.Command{}, err
		}
		tp, err := orderFromRecord(tpRec)
		if err != nil {
			return message.Command{}, err
		}
		c.SubmitBracketOrder = &message.SubmitBracketOrderPayload{Entry: entry, StopLoss: sl, TakeProfit: tp}
	case message.CommandCancelOrder:
		clientID, _ := r.GetString("client_order_id")
		c.CancelOrder = &message.CancelOrderPayload{ClientOrderID: model.ClientOrderID(clientID)}
	case message.CommandUpdateOrder:
		clientID, _ := r.GetString("client_order_id")
		payload := &message.UpdateOrderPayload{ClientOrderID: model.ClientOrderID(clientID)}
		if !r.IsNull("new_price") {
			ps, _ := r.GetString("new_price")
			p, err := model.ParsePrice(ps, 8)
			if err != nil {
				return message.Command{}, err
			}
			payload.NewPrice = &p
		}
		if !r.IsNull("new_quantity") {
			qs, _ := r.GetString("new_quantity")
			q, err := model.ParseQuantity(qs, 8)
			if err != nil {
				return message.Command{}, err
			}
			payload.NewQuantity = &q
		}
		c.UpdateOrder = payload
	default:
		return message.Command{}, apperrors.New(apperrors.KindSerialization, "unknown command type "+typeStr)
	}
	return c, nil
}

// decodeableOrderRecord builds the nested Record for an order without
// going through Encode()/Decode() bytes, so it can be embedded directly
// inside a Command/Event record.
func decodeableOrderRecord(o *model.Order) *Record {
	if o == nil {
		return nil
	}
	rec, _ := Decode(EncodeOrder(o))
	return rec
}

func orderFromRecord(r *Record) (*model.Order, error) {
	if r == nil {
		return nil, nil
	}
	return DecodeOrder(r.Encode())
}
