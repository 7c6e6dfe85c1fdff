package message_test

import (
	"testing"

	"github.com/rishav/algo-engine/internal/message"
	"github.com/stretchr/testify/require"
)

func TestMessageEquality(t *testing.T) {
	m1 := message.NewMessage(message.KindCommand, 0)
	m2 := message.Message{Kind: message.KindCommand, ID: m1.ID, TimestampNs: 0}
	require.True(t, m1.Equal(m2))

	m3 := message.Message{Kind: message.KindEvent, ID: m1.ID, TimestampNs: 0}
	require.False(t, m1.Equal(m3))

	m4 := message.NewMessage(message.KindCommand, 0)
	require.False(t, m1.Equal(m4))
}

func TestDocumentHashEqualForEqualInputs(t *testing.T) {
	payload := map[string]string{"a": "1", "b": "2"}
	d1 := message.NewDocument(5, payload)
	d2 := message.Document{Message: d1.Message, Payload: map[string]string{"b": "2", "a": "1"}}

	require.Equal(t, d1.Hash(), d2.Hash())
	require.IsType(t, uint64(0), d1.Hash())
}
