package model

import "fmt"

// QuoteTick is a top-of-book observation: best bid/ask price and size.
type QuoteTick struct {
	Instrument InstrumentID
	BidPrice   Price
	AskPrice   Price
	BidSize    Quantity
	AskSize    Quantity
	TimestampNs int64
}

// TradeTick is a single execution observed on the venue (not
// necessarily this engine's own matching engine, in live mode).
type TradeTick struct {
	Instrument  InstrumentID
	Price       Price
	Size        Quantity
	AggressorSide Side
	TimestampNs int64
}

// BarSpec identifies an aggregation: step count, unit (e.g. MINUTE), and
// aggregation method (e.g. LAST for trade-driven bars).
type BarSpec struct {
	Step       int
	Unit       string // "SECOND", "MINUTE", "HOUR", "DAY"
	Aggregation string // "LAST", "MID", "BID", "ASK"
}

func (s BarSpec) String() string {
	return fmt.Sprintf("%d-%s-%s", s.Step, s.Unit, s.Aggregation)
}

// BarType pairs an instrument with the aggregation that produces its
// bars.
type BarType struct {
	Instrument InstrumentID
	Spec       BarSpec
}

func (t BarType) String() string {
	return fmt.Sprintf("%s-%s", t.Instrument, t.Spec)
}

// Bar is a single OHLCV aggregation over BarType's window, closing at
// TimestampNs.
type Bar struct {
	Type        BarType
	Open        Price
	High        Price
	Low         Price
	Close       Price
	Volume      Quantity
	TimestampNs int64
}
