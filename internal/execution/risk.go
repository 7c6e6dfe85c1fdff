// Package execution owns order and position state for every account
// trading against a venue, routes commands to the matching engine (or a
// live adapter), and enforces pre-trade risk limits.
//
// risk.go is grounded on order-matching-engine's risk.Checker: the same
// check set (order size, order value, price band, position limit), but
// evaluated on decimal model types and returning the spec's
// OrderInvalid/OrderDenied distinction instead of a single CheckResult.
package execution

import (
	"fmt"
	"sync"

	"github.com/rishav/algo-engine/internal/model"
	"github.com/shopspring/decimal"
)

// RiskConfig bounds what a single order or account may do before it
// reaches the matching engine.
type RiskConfig struct {
	MaxOrderSize     model.Quantity
	MaxOrderValue    decimal.Decimal
	MaxPositionSize  model.Quantity
	PriceBandPercent decimal.Decimal // e.g. 0.10 = 10% from reference price
}

func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxOrderSize:     model.NewQuantity(decimal.NewFromInt(1_000_000), 0),
		MaxOrderValue:    decimal.NewFromInt(10_000_000),
		MaxPositionSize:  model.NewQuantity(decimal.NewFromInt(10_000_000), 0),
		PriceBandPercent: decimal.NewFromFloat(0.10),
	}
}

// RiskDecision is OrderInvalid (failed local validation, a value-object
// level defect) or OrderDenied (blocked by a risk rule) per the spec's
// error taxonomy; Checker.Check returns which kind of rejection
// applies, if any.
type RiskDecision struct {
	Rejected bool
	Denied   bool // true => OrderDenied; false (with Rejected) => OrderInvalid
	Reason   string
}

// RiskChecker runs pre-trade checks against an order, accounting for
// each account's tracked positions and the venue's last trade prices.
type RiskChecker struct {
	mu              sync.RWMutex
	cfg             RiskConfig
	positions       map[model.AccountID]map[model.InstrumentID]model.Quantity
	referencePrices map[model.InstrumentID]model.Price
}

func NewRiskChecker(cfg RiskConfig) *RiskChecker {
	return &RiskChecker{
		cfg:             cfg,
		positions:       make(map[model.AccountID]map[model.InstrumentID]model.Quantity),
		referencePrices: make(map[model.InstrumentID]model.Price),
	}
}

// Check validates order against the configured limits. A non-positive
// Quantity, or a zero price on a LIMIT/STOP_LIMIT order, fails
// construction already (model.NewOrder), so
// Check only has to apply venue-level policy.
func (c *RiskChecker) Check(order *model.Order) RiskDecision {
	if order.Quantity.GreaterThan(c.cfg.MaxOrderSize) {
		return RiskDecision{Rejected: true, Denied: true, Reason: fmt.Sprintf("order size %s exceeds max %s", order.Quantity, c.cfg.MaxOrderSize)}
	}

	if order.Type.HasPrice() {
		orderValue := order.Price.Mul(order.Quantity)
		if orderValue.GreaterThan(c.cfg.MaxOrderValue) {
			return RiskDecision{Rejected: true, Denied: true, Reason: fmt.Sprintf("order value %s exceeds max %s", orderValue, c.cfg.MaxOrderValue)}
		}
		if !c.checkPriceBand(order.Instrument, order.Price) {
			return RiskDecision{Rejected: true, Denied: true, Reason: fmt.Sprintf("price %s outside band around reference", order.Price)}
		}
	}

	if !c.checkPositionLimit(order) {
		return RiskDecision{Rejected: true, Denied: true, Reason: "order would exceed position limit"}
	}

	return RiskDecision{}
}

func (c *RiskChecker) checkPriceBand(inst model.InstrumentID, price model.Price) bool {
	c.mu.RLock()
	ref, ok := c.referencePrices[inst]
	c.mu.RUnlock()
	if !ok || ref.IsZero() {
		return true
	}

	band := ref.Decimal().Mul(c.cfg.PriceBandPercent)
	low := ref.Decimal().Sub(band)
	high := ref.Decimal().Add(band)
	v := price.Decimal()
	return v.GreaterThanOrEqual(low) && v.LessThanOrEqual(high)
}

func (c *RiskChecker) checkPositionLimit(order *model.Order) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	current := c.positions[order.AccountID][order.Instrument]
	projected := current.Decimal()
	if order.Side == model.SideBuy {
		projected = projected.Add(order.Quantity.Decimal())
	} else {
		projected = projected.Sub(order.Quantity.Decimal())
	}
	if projected.IsNegative() {
		projected = projected.Neg()
	}
	return !model.NewQuantity(projected, order.Quantity.Precision()).GreaterThan(c.cfg.MaxPositionSize)
}

// UpdatePosition records a fill's effect on an account's tracked
// position, used by the next order's position-limit check.
func (c *RiskChecker) UpdatePosition(accountID model.AccountID, inst model.InstrumentID, side model.Side, qty model.Quantity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.positions[accountID] == nil {
		c.positions[accountID] = make(map[model.InstrumentID]model.Quantity)
	}
	current := c.positions[accountID][inst]
	if side == model.SideBuy {
		c.positions[accountID][inst] = current.Add(qty)
	} else {
		c.positions[accountID][inst] = model.NewQuantity(current.Decimal().Sub(qty.Decimal()), qty.Precision())
	}
}

// SetReferencePrice records the last trade price used for price-band
// checks.
func (c *RiskChecker) SetReferencePrice(inst model.InstrumentID, price model.Price) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.referencePrices[inst] = price
}
