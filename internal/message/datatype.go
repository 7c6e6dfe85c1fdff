package message

import "github.com/google/uuid"

// DataClass names what kind of market data a DataType refers to.
type DataClass string

const (
	DataClassInstrument  DataClass = "INSTRUMENT"
	DataClassQuoteTick   DataClass = "QUOTE_TICK"
	DataClassTradeTick   DataClass = "TRADE_TICK"
	DataClassBar         DataClass = "BAR"
	DataClassOrderBook   DataClass = "ORDER_BOOK_DELTA"
)

// DataType tags what a subscription or request is for, e.g. a TradeTick
// for a given instrument with optional time-window/limit metadata.
type DataType struct {
	Class    DataClass
	Metadata map[string]string
}

func NewDataType(class DataClass, metadata map[string]string) DataType {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return DataType{Class: class, Metadata: metadata}
}

func (d DataType) Key() string {
	return string(d.Class) + "|" + d.Metadata["InstrumentId"]
}

// Request is a one-shot data request correlated by RequestID.
type Request struct {
	Message
	RequestID uuid.UUID
	DataType  DataType
	Callback  func(Response)
}

// Response carries the answer to exactly one Request, correlated by ID.
type Response struct {
	Message
	CorrelationID uuid.UUID
	DataType      DataType
	Payload       any
	Err           error
}
