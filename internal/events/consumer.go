package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/pkg/enums"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
)

const idempotencyTTL = 24 * time.Hour

// Envelope is the wire format the host publishes on the event topics.
type Envelope struct {
	EventID string          `json:"event_id"`
	Data    json.RawMessage `json:"data"`
}

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Consumer reads host lifecycle messages and routes them through the
// dispatch table. Each message carries its event type as an attribute and
// an Envelope as its body.
type Consumer struct {
	name         string
	bus          *Bus
	subscription *pubsub.Subscriber
	store        idempotencyStore
	logg         *logger.Logger
}

// NewConsumer builds a consumer for one subscription.
func NewConsumer(name string, bus *Bus, subscription *pubsub.Subscriber, store idempotencyStore, logg *logger.Logger) (*Consumer, error) {
	if name == "" {
		return nil, fmt.Errorf("consumer name required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("subscription required")
	}
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		name:         name,
		bus:          bus,
		subscription: subscription,
		store:        store,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.EventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	payloadParser, known := payloadParsers[eventType]
	if !known {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope Envelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	idempotencyKey := fmt.Sprintf("events:%s:%s", c.name, eventID)
	fresh, err := c.store.SetNX(ctx, idempotencyKey, "1", idempotencyTTL)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	payload, err := payloadParser(envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.store.Del(ctx, idempotencyKey)
		return processResult{ack: true}
	}

	if err := c.bus.Emit(ctx, eventType, payload); err != nil {
		c.logg.Error(logCtx, "event handling failed", err)
		_ = c.store.Del(ctx, idempotencyKey)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

var payloadParsers = map[enums.EventType]func(json.RawMessage) (any, error){
	enums.EventOrderStatusChanged: func(data json.RawMessage) (any, error) {
		var payload OrderStatusChanged
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.OrderID == uuid.Nil {
			return nil, fmt.Errorf("order id missing")
		}
		return payload, nil
	},
	enums.EventEntityDeleted: func(data json.RawMessage) (any, error) {
		var payload EntityDeleted
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if !payload.Kind.IsValid() {
			return nil, fmt.Errorf("invalid entity kind %q", payload.Kind)
		}
		if payload.ID == uuid.Nil {
			return nil, fmt.Errorf("entity id missing")
		}
		return payload, nil
	},
}
