package eventbus

import "context"

// Event is anything with a stable type name.
type Event interface {
	Type() string
}

// HandlerFunc reacts to one delivered event.
type HandlerFunc func(ctx context.Context, e Event) error

// Publisher emits events to a bus. Emit returns once the bus has accepted
// the event; delivery to handlers may happen later.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Subscriber registers handlers for an event type.
type Subscriber interface {
	Register(eventType string, handler HandlerFunc)
}

// Bus both publishes and delivers events.
type Bus interface {
	Publisher
	Subscriber
}
