// Package message defines the typed envelope shared by every command,
// event, request, and response flowing through the engines.
package message

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/google/uuid"
)

// Kind discriminates the envelope's payload category.
type Kind int

const (
	KindString Kind = iota
	KindCommand
	KindDocument
	KindEvent
	KindRequest
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "STRING"
	case KindCommand:
		return "COMMAND"
	case KindDocument:
		return "DOCUMENT"
	case KindEvent:
		return "EVENT"
	case KindRequest:
		return "REQUEST"
	case KindResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// Message is the common envelope. Equality is structural: two messages
// are equal iff Kind, ID, and Timestamp all match.
type Message struct {
	Kind        Kind
	ID          uuid.UUID
	TimestampNs int64
}

// NewMessage creates a fresh envelope with a random ID.
func NewMessage(kind Kind, timestampNs int64) Message {
	return Message{Kind: kind, ID: uuid.New(), TimestampNs: timestampNs}
}

func (m Message) Equal(o Message) bool {
	return m.Kind == o.Kind && m.ID == o.ID && m.TimestampNs == o.TimestampNs
}

// Document carries an arbitrary application payload (e.g. a config blob
// or report), identified and timestamped like any other message.
type Document struct {
	Message
	Payload map[string]string
}

func NewDocument(timestampNs int64, payload map[string]string) Document {
	return Document{Message: NewMessage(KindDocument, timestampNs), Payload: payload}
}

// Hash returns a stable integer hash of a Document, equal for equal
// documents regardless of map iteration order.
func (d Document) Hash() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%d", d.Kind, d.ID, d.TimestampNs)

	keys := make([]string, 0, len(d.Payload))
	for k := range d.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "|%s=%s", k, d.Payload[k])
	}
	return h.Sum64()
}
