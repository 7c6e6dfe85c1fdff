package model

import (
	"fmt"

	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ExpiryPolicy models the optional expire_time field as a sum type: it
// is present iff the order's TimeInForce is GTD.
type ExpiryPolicy struct {
	set       bool
	expireAtNs int64
}

func NoExpiry() ExpiryPolicy { return ExpiryPolicy{} }

func ExpireAt(atNs int64) ExpiryPolicy { return ExpiryPolicy{set: true, expireAtNs: atNs} }

func (e ExpiryPolicy) IsSet() bool    { return e.set }
func (e ExpiryPolicy) AtNs() int64    { return e.expireAtNs }

// Trigger models the optional stop trigger price, present iff the order
// type is STOP_MARKET or STOP_LIMIT.
type Trigger struct {
	set   bool
	price Price
}

func NoTrigger() Trigger { return Trigger{} }

func TriggerAt(p Price) Trigger { return Trigger{set: true, price: p} }

func (t Trigger) IsSet() bool  { return t.set }
func (t Trigger) Price() Price { return t.price }

// OrderParams is the immutable construction request for an Order.
type OrderParams struct {
	ClientOrderID ClientOrderID
	AccountID     AccountID
	Instrument    InstrumentID
	Side          Side
	Type          OrderType
	Quantity      Quantity
	Price         Price // required iff Type.HasPrice()
	Trigger       Trigger
	TIF           TimeInForce
	Expiry        ExpiryPolicy
	TimestampNs   int64
}

// Order is identified by ClientOrderID and, after acceptance, by a
// VenueOrderID. It carries its own lifecycle state and fill progress.
type Order struct {
	ClientOrderID ClientOrderID
	VenueOrderID  VenueOrderID // empty until accepted
	AccountID     AccountID
	Instrument    InstrumentID
	Side          Side
	Type          OrderType
	Quantity      Quantity
	Price         Price
	Trigger       Trigger
	TIF           TimeInForce
	Expiry        ExpiryPolicy
	Status        OrderStatus
	FilledQty     Quantity
	AvgFillPrice  Price
	InitTimestampNs int64
	LastEventNs     int64
}

// NewOrder validates params against the spec invariants and returns an
// Order in state INITIALIZED.
//
// Invariants: quantity > 0; expire_time present iff tif == GTD; trigger
// present iff type in {STOP_MARKET, STOP_LIMIT}; a non-zero price is
// required when type is in {LIMIT, STOP_LIMIT} (a price given on other
// types is not rejected).
func NewOrder(p OrderParams) (*Order, error) {
	if !p.Quantity.IsPositive() {
		return nil, apperrors.New(apperrors.KindValidation, "quantity must be > 0")
	}
	if p.TIF == TIFGTD && !p.Expiry.IsSet() {
		return nil, apperrors.New(apperrors.KindValidation, "GTD order requires expire_time")
	}
	if p.TIF != TIFGTD && p.Expiry.IsSet() {
		return nil, apperrors.New(apperrors.KindValidation, "expire_time only valid for GTD")
	}
	if p.Type.HasTrigger() != p.Trigger.IsSet() {
		return nil, apperrors.New(apperrors.KindValidation, "trigger required iff order type is a stop type")
	}
	if p.Type.HasPrice() && p.Price.Decimal().IsZero() {
		return nil, apperrors.New(apperrors.KindValidation, "limit-style order requires a price")
	}
	return &Order{
		ClientOrderID:   p.ClientOrderID,
		AccountID:       p.AccountID,
		Instrument:      p.Instrument,
		Side:            p.Side,
		Type:            p.Type,
		Quantity:        p.Quantity,
		Price:           p.Price,
		Trigger:         p.Trigger,
		TIF:             p.TIF,
		Expiry:          p.Expiry,
		Status:          OrderStatusInitialized,
		FilledQty:       NewQuantity(decimal.New(0, 0), p.Quantity.Precision()),
		InitTimestampNs: p.TimestampNs,
	}, nil
}

func (o *Order) LeavesQty() Quantity {
	return o.Quantity.Sub(o.FilledQty)
}

func (o *Order) IsFilled() bool {
	return !o.FilledQty.Decimal().LessThan(o.Quantity.Decimal())
}

func (o *Order) IsActive() bool {
	return o.Status == OrderStatusAccepted || o.Status == OrderStatusPartiallyFilled
}

// legalTransitions enumerates the state machine from spec.md §3.
var legalTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusInitialized: {OrderStatusSubmitted: true},
	OrderStatusSubmitted: {
		OrderStatusAccepted: true,
		OrderStatusRejected: true,
		OrderStatusInvalid:  true,
		OrderStatusDenied:   true,
	},
	OrderStatusAccepted: {
		OrderStatusPartiallyFilled: true,
		OrderStatusFilled:          true,
		OrderStatusCancelled:       true,
		OrderStatusExpired:         true,
	},
	OrderStatusPartiallyFilled: {
		OrderStatusPartiallyFilled: true,
		OrderStatusFilled:          true,
		OrderStatusCancelled:       true,
		OrderStatusExpired:         true,
	},
}

// Transition moves the order to `to`, rejecting illegal transitions per
// the lifecycle state machine. Illegal transitions are returned as a
// LifecycleError and leave the order state unchanged.
func (o *Order) Transition(to OrderStatus, eventNs int64) error {
	if o.Status.IsTerminal() {
		return apperrors.New(apperrors.KindLifecycle, fmt.Sprintf("order %s already terminal at %s", o.ClientOrderID, o.Status))
	}
	allowed, ok := legalTransitions[o.Status]
	if !ok || !allowed[to] {
		return apperrors.New(apperrors.KindLifecycle, fmt.Sprintf("illegal transition %s -> %s for order %s", o.Status, to, o.ClientOrderID))
	}
	o.Status = to
	o.LastEventNs = eventNs
	return nil
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{%s %s %s %s@%s status=%s filled=%s}",
		o.ClientOrderID, o.Side, o.Type, o.Quantity, o.Price, o.Status, o.FilledQty)
}
