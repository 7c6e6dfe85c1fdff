// Package execution is the ExecutionEngine: it receives commands
// (SubmitOrder, SubmitBracketOrder, UpdateOrder, CancelOrder), runs
// pre-trade risk checks, routes accepted orders to the matching engine,
// keeps the authoritative order/account state, and links bracket
// (entry + stop-loss + take-profit / OCO) orders together.
//
// Grounded on order-matching-engine's Engine dispatch loop for the
// single-goroutine command routing shape, and on risk.Checker +
// settlement.ClearingHouse for the risk and account pieces it wires in
// (see risk.go, account.go).
package execution

import (
	"sync"
	"time"

	"github.com/rishav/algo-engine/internal/matching"
	"github.com/rishav/algo-engine/internal/message"
	"github.com/rishav/algo-engine/internal/metrics"
	"github.com/rishav/algo-engine/internal/model"
)

// OrderRecord is the engine's authoritative record for one client
// order: the order itself plus bracket linkage, if any.
type OrderRecord struct {
	Order   *model.Order
	Bracket *BracketGroup // nil for a standalone order
	Role    BracketRole
}

// BracketRole identifies an order's position within a bracket group.
type BracketRole int

const (
	BracketRoleNone BracketRole = iota
	BracketRoleEntry
	BracketRoleStopLoss
	BracketRoleTakeProfit
)

// BracketGroup links an entry order to its stop-loss and take-profit
// children. Once the entry fills, both children become live; once
// either child reaches a terminal state, the other is cancelled (OCO).
type BracketGroup struct {
	EntryID      model.ClientOrderID
	StopLossID   model.ClientOrderID
	TakeProfitID model.ClientOrderID
	EntryFilled  bool
}

// ExecutionEngine is the single-goroutine command processor for one
// simulated venue. Commands must be submitted serially (the backtest
// engine's run loop, or a single adapter goroutine); it holds no
// internal locking for the order/bracket maps because nothing else
// calls into it concurrently.
type ExecutionEngine struct {
	mu sync.Mutex // guards processedCmds only; order state is single-threaded

	matchingEngine *matching.Engine
	risk           *RiskChecker
	accounts       *AccountStore
	metrics        *metrics.Collector // nil unless SetMetrics is called

	orders       map[model.ClientOrderID]*OrderRecord
	venueToClient map[model.VenueOrderID]model.ClientOrderID
	processedCmds map[string]bool
}

func NewExecutionEngine(matchingEngine *matching.Engine, risk *RiskChecker, accounts *AccountStore) *ExecutionEngine {
	return &ExecutionEngine{
		matchingEngine: matchingEngine,
		risk:           risk,
		accounts:       accounts,
		orders:         make(map[model.ClientOrderID]*OrderRecord),
		venueToClient:  make(map[model.VenueOrderID]model.ClientOrderID),
		processedCmds:  make(map[string]bool),
	}
}

// SetMetrics attaches a Collector so Process/applyAccounting report
// against it. Left unset, the engine runs without reporting metrics -
// useful for tests and for the backtest driver, which has no /metrics
// endpoint to serve.
func (e *ExecutionEngine) SetMetrics(c *metrics.Collector) {
	e.metrics = c
}

// Process dispatches a single command and returns the events it
// produced. Re-submitting a command whose ID has already been
// processed is a no-op: the dedup makes retried commands (e.g. after an
// adapter reconnect replays its outbound queue) safe.
func (e *ExecutionEngine) Process(cmd message.Command) []message.Event {
	id := cmd.ID.String()
	e.mu.Lock()
	if e.processedCmds[id] {
		e.mu.Unlock()
		return nil
	}
	e.processedCmds[id] = true
	e.mu.Unlock()

	switch cmd.Type {
	case message.CommandSubmitOrder:
		return e.submitOrder(cmd.SubmitOrder.Order, BracketRoleNone, nil)
	case message.CommandSubmitBracketOrder:
		return e.submitBracket(cmd.SubmitBracketOrder)
	case message.CommandUpdateOrder:
		return e.updateOrder(cmd.UpdateOrder)
	case message.CommandCancelOrder:
		return e.cancelOrder(cmd.CancelOrder.ClientOrderID)
	default:
		return nil
	}
}

// submitOrder runs pre-trade validation and risk checks, then hands the
// order to the matching engine. role/group are set for bracket children
// so applyBracketEffects can apply OCO semantics; both are nil/None for a
// standalone order.
func (e *ExecutionEngine) submitOrder(order *model.Order, role BracketRole, group *BracketGroup) []message.Event {
	rec := &OrderRecord{Order: order, Role: role, Bracket: group}
	e.orders[order.ClientOrderID] = rec

	now := order.InitTimestampNs
	if decision := e.risk.Check(order); decision.Rejected {
		_ = order.Transition(model.OrderStatusSubmitted, now)
		kind := model.OrderStatusInvalid
		evt := message.NewOrderInvalidEvent(now, order.ClientOrderID, decision.Reason)
		if decision.Denied {
			kind = model.OrderStatusDenied
			evt = message.NewOrderDeniedEvent(now, order.ClientOrderID, decision.Reason)
		}
		_ = order.Transition(kind, now)
		if e.metrics != nil {
			e.metrics.OrdersRejected.WithLabelValues(kind.String()).Inc()
		}
		return []message.Event{evt}
	}

	if e.metrics != nil {
		e.metrics.OrdersSubmitted.WithLabelValues(order.Instrument.String()).Inc()
	}

	events := e.matchingEngine.SubmitOrder(order)
	for _, evt := range events {
		e.applyAccounting(evt)
		if evt.OrderAccepted != nil {
			e.venueToClient[evt.OrderAccepted.VenueOrderID] = order.ClientOrderID
		}
	}
	events = append(events, e.applyBracketEffects(order, events)...)
	return events
}

// submitBracket registers the entry, stop-loss, and take-profit orders
// as a linked group and submits only the entry: the children are held
// back (not sent to the matching engine) until the entry fills, per
// bracket semantics.
func (e *ExecutionEngine) submitBracket(p *message.SubmitBracketOrderPayload) []message.Event {
	group := &BracketGroup{EntryID: p.Entry.ClientOrderID, StopLossID: p.StopLoss.ClientOrderID, TakeProfitID: p.TakeProfit.ClientOrderID}

	e.orders[p.StopLoss.ClientOrderID] = &OrderRecord{Order: p.StopLoss, Role: BracketRoleStopLoss, Bracket: group}
	e.orders[p.TakeProfit.ClientOrderID] = &OrderRecord{Order: p.TakeProfit, Role: BracketRoleTakeProfit, Bracket: group}

	return e.submitOrder(p.Entry, BracketRoleEntry, group)
}

// applyBracketEffects releases a bracket's stop-loss/take-profit
// children once the entry order fills, and cancels the sibling once
// one child reaches a terminal state (OCO).
func (e *ExecutionEngine) applyBracketEffects(order *model.Order, events []message.Event) []message.Event {
	rec, ok := e.orders[order.ClientOrderID]
	if !ok || rec.Bracket == nil {
		return nil
	}
	group := rec.Bracket

	var extra []message.Event
	switch rec.Role {
	case BracketRoleEntry:
		if order.Status == model.OrderStatusFilled && !group.EntryFilled {
			group.EntryFilled = true
			stopLoss := e.orders[group.StopLossID].Order
			takeProfit := e.orders[group.TakeProfitID].Order
			extra = append(extra, e.submitOrder(stopLoss, BracketRoleStopLoss, group)...)
			extra = append(extra, e.submitOrder(takeProfit, BracketRoleTakeProfit, group)...)
		}
	case BracketRoleStopLoss, BracketRoleTakeProfit:
		if order.Status.IsTerminal() {
			sibling := group.TakeProfitID
			if rec.Role == BracketRoleTakeProfit {
				sibling = group.StopLossID
			}
			if siblingRec, ok := e.orders[sibling]; ok && siblingRec.Order.IsActive() {
				extra = append(extra, e.cancelOrder(sibling)...)
			}
		}
	}
	return extra
}

func (e *ExecutionEngine) cancelOrder(id model.ClientOrderID) []message.Event {
	rec, ok := e.orders[id]
	if !ok {
		return []message.Event{message.NewOrderRejectedEvent(0, id, "unknown order")}
	}
	if !rec.Order.IsActive() {
		return nil
	}
	events := e.matchingEngine.CancelOrder(rec.Order, "cancel requested")
	for _, evt := range events {
		e.applyAccounting(evt)
	}
	events = append(events, e.applyBracketEffects(rec.Order, events)...)
	return events
}

func (e *ExecutionEngine) updateOrder(p *message.UpdateOrderPayload) []message.Event {
	rec, ok := e.orders[p.ClientOrderID]
	if !ok {
		return []message.Event{message.NewOrderRejectedEvent(0, p.ClientOrderID, "unknown order")}
	}
	// Cancel-replace: the matching engine has no in-place amend path
	// (per-instrument price-time priority would otherwise need to be
	// reconciled mid-level), so an update cancels the resting order and
	// the caller is expected to resubmit with the new terms.
	return e.cancelOrder(rec.Order.ClientOrderID)
}

// applyAccounting updates account balances/positions for a fill event.
// Non-fill events carry no accounting effect.
func (e *ExecutionEngine) applyAccounting(evt message.Event) {
	if evt.Type != message.EventOrderFilled {
		return
	}
	f := evt.OrderFilled
	rec, ok := e.orders[f.ClientOrderID]
	if !ok {
		return
	}
	order := rec.Order
	acc := e.accounts.Get(order.AccountID)
	acc.ApplyFill(order.Instrument, "USD", order.Side, f.LastPx, f.LastQty)
	e.risk.UpdatePosition(order.AccountID, order.Instrument, order.Side, f.LastQty)
	e.risk.SetReferencePrice(order.Instrument, f.LastPx)

	if e.metrics != nil {
		e.metrics.OrdersFilled.WithLabelValues(order.Instrument.String(), f.Liquidity.String()).Inc()
		if f.CumulativeQty.Equal(f.LastQty) {
			latencySec := float64(evt.TimestampNs-order.InitTimestampNs) / float64(time.Second)
			e.metrics.FillLatency.WithLabelValues(order.Instrument.String()).Observe(latencySec)
		}
	}
}

// OrderByClientID looks up an order's current state.
func (e *ExecutionEngine) OrderByClientID(id model.ClientOrderID) (*model.Order, bool) {
	rec, ok := e.orders[id]
	if !ok {
		return nil, false
	}
	return rec.Order, true
}

// OrderByVenueID resolves a venue-assigned order ID back to the client
// order that produced it.
func (e *ExecutionEngine) OrderByVenueID(id model.VenueOrderID) (*model.Order, bool) {
	clientID, ok := e.venueToClient[id]
	if !ok {
		return nil, false
	}
	return e.OrderByClientID(clientID)
}
