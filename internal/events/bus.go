package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/supplierhq/suppliers-backend/pkg/enums"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
)

// EntityDeleted is the payload for enums.EventEntityDeleted.
type EntityDeleted struct {
	Kind enums.EntityKind `json:"kind"`
	ID   uuid.UUID        `json:"id"`
}

// OrderStatusChanged is the payload for enums.EventOrderStatusChanged.
type OrderStatusChanged struct {
	OrderID   uuid.UUID         `json:"order_id"`
	OldStatus enums.OrderStatus `json:"old_status"`
	NewStatus enums.OrderStatus `json:"new_status"`
}

// Handler reacts to one emitted event. Payload type depends on the event.
type Handler func(ctx context.Context, payload any) error

// Emitter is the sending half of the bus, for modules that only publish.
type Emitter interface {
	Emit(ctx context.Context, event enums.EventType, payload any) error
}

// Bus is an explicit dispatch table: handlers run in registration order, so
// reading the wiring code tells you exactly what reacts to an event and in
// which sequence. Registration happens during startup; Emit is safe for
// concurrent use afterwards.
type Bus struct {
	mu       sync.RWMutex
	handlers map[enums.EventType][]Handler
	logg     *logger.Logger
}

// NewBus returns an empty dispatch table.
func NewBus(logg *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[enums.EventType][]Handler),
		logg:     logg,
	}
}

// Register appends a handler to the event's dispatch list.
func (b *Bus) Register(event enums.EventType, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Emit runs every handler registered for the event, in order. A failing
// handler does not stop the ones after it; errors are aggregated so the
// caller can decide whether to retry the whole event.
func (b *Bus) Emit(ctx context.Context, event enums.EventType, payload any) error {
	b.mu.RLock()
	handlers := b.handlers[event]
	b.mu.RUnlock()

	var errs error
	for i, handler := range handlers {
		if err := handler(ctx, payload); err != nil {
			if b.logg != nil {
				logCtx := b.logg.WithFields(ctx, map[string]any{
					"event":         string(event),
					"handler_index": i,
				})
				b.logg.Error(logCtx, "event handler failed", err)
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
