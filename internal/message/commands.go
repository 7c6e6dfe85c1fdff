package message

import "github.com/rishav/algo-engine/internal/model"

// Command is the tagged-sum of inbound instructions ExecutionEngine
// accepts. Exactly one of the embedded payload fields is meaningful,
// selected by Type.
type CommandType string

const (
	CommandSubmitOrder        CommandType = "SUBMIT_ORDER"
	CommandSubmitBracketOrder CommandType = "SUBMIT_BRACKET_ORDER"
	CommandUpdateOrder        CommandType = "UPDATE_ORDER"
	CommandCancelOrder        CommandType = "CANCEL_ORDER"
)

type Command struct {
	Message
	Type CommandType

	SubmitOrder        *SubmitOrderPayload
	SubmitBracketOrder *SubmitBracketOrderPayload
	UpdateOrder        *UpdateOrderPayload
	CancelOrder        *CancelOrderPayload
}

type SubmitOrderPayload struct {
	Order *model.Order
}

type SubmitBracketOrderPayload struct {
	Entry      *model.Order
	StopLoss   *model.Order
	TakeProfit *model.Order
}

type UpdateOrderPayload struct {
	ClientOrderID model.ClientOrderID
	NewPrice      *model.Price
	NewQuantity   *model.Quantity
}

type CancelOrderPayload struct {
	ClientOrderID model.ClientOrderID
}

func NewSubmitOrderCommand(timestampNs int64, order *model.Order) Command {
	return Command{
		Message: NewMessage(KindCommand, timestampNs),
		Type:    CommandSubmitOrder,
		SubmitOrder: &SubmitOrderPayload{Order: order},
	}
}

func NewSubmitBracketOrderCommand(timestampNs int64, entry, stopLoss, takeProfit *model.Order) Command {
	return Command{
		Message: NewMessage(KindCommand, timestampNs),
		Type:    CommandSubmitBracketOrder,
		SubmitBracketOrder: &SubmitBracketOrderPayload{Entry: entry, StopLoss: stopLoss, TakeProfit: takeProfit},
	}
}

func NewCancelOrderCommand(timestampNs int64, id model.ClientOrderID) Command {
	return Command{
		Message: NewMessage(KindCommand, timestampNs),
		Type:    CommandCancelOrder,
		CancelOrder: &CancelOrderPayload{ClientOrderID: id},
	}
}

func NewUpdateOrderCommand(timestampNs int64, id model.ClientOrderID, price *model.Price, qty *model.Quantity) Command {
	return Command{
		Message: NewMessage(KindCommand, timestampNs),
		Type:    CommandUpdateOrder,
		UpdateOrder: &UpdateOrderPayload{ClientOrderID: id, NewPrice: price, NewQuantity: qty},
	}
}
