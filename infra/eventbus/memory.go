package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/ledger/pkg/eventbus"
)

// DefaultPublishedHistory is how many recent events a MemoryEventBus keeps
// for Published.
const DefaultPublishedHistory = 256

// MemoryEventBus delivers events synchronously to in-process handlers.
type MemoryEventBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []eventbus.Event
	history   int
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryEventBus{
		handlers:  make(map[string][]eventbus.HandlerFunc),
		logger:    logger.With("bus", "memory"),
		published: make([]eventbus.Event, 0),
		history:   DefaultPublishedHistory,
	}
}

// SetPublishedHistory changes how many recent events are kept; n <= 0
// disables recording.
func (b *MemoryEventBus) SetPublishedHistory(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = max(n, 0)
	if over := len(b.published) - b.history; over > 0 {
		b.published = append(b.published[:0], b.published[over:]...)
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit records the event, dropping the oldest one once the history is full,
// and runs every handler registered for its type.
// Handler errors and panics are logged, never returned to the emitter.
func (b *MemoryEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	b.mu.Lock()
	if b.history > 0 {
		if len(b.published) >= b.history {
			n := copy(b.published, b.published[len(b.published)-b.history+1:])
			b.published = b.published[:n]
		}
		b.published = append(b.published, event)
	}
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[event.Type()]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("panic recovered in event handler", "type", event.Type(), "panic", r)
				}
			}()
			if err := handler(ctx, event); err != nil {
				b.logger.Error("failed to process event", "type", event.Type(), "error", err)
			}
		}()
	}
	return nil
}

// ClearPublished clears the list of published events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = make([]eventbus.Event, 0)
}

// Published returns a copy of the recorded events, oldest first.
func (b *MemoryEventBus) Published() []eventbus.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]eventbus.Event(nil), b.published...)
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
