// Package model defines the immutable value types and identifiers shared
// by every engine component: Price, Quantity, Money, Instrument, and the
// typed order/command identifiers.
//
// Fixed-Point Arithmetic: every value here wraps shopspring/decimal
// rather than float64. The spec requires each value normalized to a
// declared precision with truncating rounding on overflow — float64
// cannot make that guarantee, decimal.Decimal can.
package model

import (
	"fmt"

	"github.com/rishav/algo-engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Price is a fixed-precision decimal normalized to an instrument's
// price precision.
type Price struct {
	value     decimal.Decimal
	precision uint8
}

// NewPrice normalizes v to precision decimal places, truncating excess.
func NewPrice(v decimal.Decimal, precision uint8) Price {
	return Price{value: v.Truncate(int32(precision)), precision: precision}
}

// ParsePrice parses a decimal string at the given precision.
func ParsePrice(s string, precision uint8) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, apperrors.Wrap(apperrors.KindValidation, "invalid price "+s, err)
	}
	return NewPrice(d, precision), nil
}

func (p Price) Decimal() decimal.Decimal { return p.value }
func (p Price) Precision() uint8         { return p.precision }
func (p Price) String() string           { return p.value.StringFixed(int32(p.precision)) }
func (p Price) IsZero() bool             { return p.value.IsZero() }

func (p Price) Equal(o Price) bool      { return p.value.Equal(o.value) }
func (p Price) LessThan(o Price) bool   { return p.value.LessThan(o.value) }
func (p Price) GreaterThan(o Price) bool { return p.value.GreaterThan(o.value) }
func (p Price) GreaterOrEqual(o Price) bool { return p.value.GreaterThanOrEqual(o.value) }
func (p Price) LessOrEqual(o Price) bool    { return p.value.LessThanOrEqual(o.value) }

// Mul returns a Quantity-weighted exposure at this price's precision.
func (p Price) Mul(q Quantity) decimal.Decimal {
	return p.value.Mul(q.value)
}

// Quantity is a fixed-precision decimal normalized to an instrument's
// size precision. Invariant: constructed quantities are non-negative;
// callers that need "quantity > 0" (orders) enforce it explicitly.
type Quantity struct {
	value     decimal.Decimal
	precision uint8
}

func NewQuantity(v decimal.Decimal, precision uint8) Quantity {
	return Quantity{value: v.Truncate(int32(precision)), precision: precision}
}

func ParseQuantity(s string, precision uint8) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, apperrors.Wrap(apperrors.KindValidation, "invalid quantity "+s, err)
	}
	return NewQuantity(d, precision), nil
}

func (q Quantity) Decimal() decimal.Decimal { return q.value }
func (q Quantity) Precision() uint8         { return q.precision }
func (q Quantity) String() string           { return q.value.StringFixed(int32(q.precision)) }
func (q Quantity) IsZero() bool             { return q.value.IsZero() }
func (q Quantity) IsPositive() bool         { return q.value.IsPositive() }

func (q Quantity) Add(o Quantity) Quantity {
	return NewQuantity(q.value.Add(o.value), q.precision)
}

func (q Quantity) Sub(o Quantity) Quantity {
	return NewQuantity(q.value.Sub(o.value), q.precision)
}

func (q Quantity) Min(o Quantity) Quantity {
	if q.value.LessThan(o.value) {
		return q
	}
	return o
}

func (q Quantity) GreaterThan(o Quantity) bool { return q.value.GreaterThan(o.value) }
func (q Quantity) LessThan(o Quantity) bool    { return q.value.LessThan(o.value) }
func (q Quantity) Equal(o Quantity) bool       { return q.value.Equal(o.value) }

// Money is a currency-tagged decimal normalized to two decimal places
// unless the currency overrides precision (e.g. crypto quote currencies).
type Money struct {
	value    decimal.Decimal
	currency string
}

func NewMoney(v decimal.Decimal, currency string, precision uint8) Money {
	return Money{value: v.Truncate(int32(precision)), currency: currency}
}

func (m Money) Currency() string { return m.currency }
func (m Money) Decimal() decimal.Decimal { return m.value }
func (m Money) String() string { return fmt.Sprintf("%s %s", m.value.String(), m.currency) }

func (m Money) Add(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, apperrors.New(apperrors.KindValidation, "currency mismatch: "+m.currency+" vs "+o.currency)
	}
	return Money{value: m.value.Add(o.value), currency: m.currency}, nil
}
