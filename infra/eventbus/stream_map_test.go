package eventbus

import (
	"testing"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaming(t *testing.T) {
	et := account.EventTransactionRecorded
	assert.Equal(t, "app:events:ledger:transaction:recorded", streamNameFor("app:", et))
	assert.Equal(t, "app:dlq:ledger:transaction:recorded", dlqStreamName("app:", et))
	assert.Equal(t, "group:ledger:transaction:recorded", groupNameFor("", et))
	assert.Equal(t, "ledger.events.ledger.transaction.recorded", topicNameFor("", et))
	assert.Equal(t, "bank.ledger.transaction.recorded", topicNameFor(" bank ", et))
	assert.Equal(t, "ledger.events.dlq.ledger.transaction.recorded", dlqTopicNameFor("", et))
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, parseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, parseBrokers(""))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	in := recorded(42)
	raw, err := encodeEnvelope(in)
	require.NoError(t, err)

	out, err := decodeEnvelope(raw, DefaultDecoders())
	require.NoError(t, err)
	got, ok := out.(*account.TransactionRecorded)
	require.True(t, ok)
	assert.Equal(t, int64(42), got.AccountID)
	assert.True(t, got.Amount.Equal(in.Amount))

	_, err = decodeEnvelope([]byte(`{"type":"nope","payload":{}}`), DefaultDecoders())
	assert.ErrorContains(t, err, "unknown event type")
	_, err = decodeEnvelope([]byte(`not json`), DefaultDecoders())
	assert.Error(t, err)
}
