package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/eventbus"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decoders maps an event type to a constructor of its zero value, used to
// decode envelopes read back from a broker.
type Decoders map[string]func() eventbus.Event

// DefaultDecoders knows every event the ledger emits.
func DefaultDecoders() Decoders {
	return Decoders{
		account.EventTransactionRecorded: func() eventbus.Event { return &account.TransactionRecorded{} },
	}
}

// partitionKeyer is implemented by events that must stay ordered per key.
type partitionKeyer interface {
	PartitionKey() string
}

func encodeEnvelope(event eventbus.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}
	envBytes, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return nil, fmt.Errorf("envelope marshal failed: %w", err)
	}
	return envBytes, nil
}

func decodeEnvelope(raw []byte, decoders Decoders) (eventbus.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	constructor, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload of %q: %w", env.Type, err)
	}
	return evt, nil
}
