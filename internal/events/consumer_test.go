package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/pkg/enums"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
)

type fakeStore struct {
	keys     map[string]bool
	setErr   error
	deleted  []string
	setCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]bool{}}
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.setCalls++
	if f.setErr != nil {
		return false, f.setErr
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func testConsumerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "consumer-test", Output: io.Discard})
}

func newTestConsumer(bus *Bus, store *fakeStore) *Consumer {
	return &Consumer{
		name:  "orders",
		bus:   bus,
		store: store,
		logg:  testConsumerLogger(),
	}
}

func orderStatusMessage(t *testing.T, eventID string, payload OrderStatusChanged) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body, err := json.Marshal(Envelope{EventID: eventID, Data: data})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       body,
		Attributes: map[string]string{"event_type": string(enums.EventOrderStatusChanged)},
	}
}

func TestProcessRoutesKnownEvent(t *testing.T) {
	bus := NewBus(testConsumerLogger())
	var received OrderStatusChanged
	bus.Register(enums.EventOrderStatusChanged, func(ctx context.Context, payload any) error {
		received = payload.(OrderStatusChanged)
		return nil
	})

	store := newFakeStore()
	consumer := newTestConsumer(bus, store)

	orderID := uuid.New()
	msg := orderStatusMessage(t, uuid.NewString(), OrderStatusChanged{
		OrderID:   orderID,
		OldStatus: enums.OrderStatusPending,
		NewStatus: enums.OrderStatusProcessing,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if received.OrderID != orderID {
		t.Fatalf("handler did not receive the payload")
	}
}

func TestProcessAcksUnknownEventType(t *testing.T) {
	bus := NewBus(testConsumerLogger())
	store := newFakeStore()
	consumer := newTestConsumer(bus, store)

	msg := &pubsub.Message{
		ID:         "msg-1",
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": "something.else"},
	}

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected unknown event to be acked, got %+v", result)
	}
	if store.setCalls != 0 {
		t.Fatalf("unknown events should not touch the idempotency store")
	}
}

func TestProcessAcksMalformedEnvelope(t *testing.T) {
	bus := NewBus(testConsumerLogger())
	consumer := newTestConsumer(bus, newFakeStore())

	msg := &pubsub.Message{
		ID:         "msg-1",
		Data:       []byte(`{not json`),
		Attributes: map[string]string{"event_type": string(enums.EventOrderStatusChanged)},
	}

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected malformed envelope to be acked, got %+v", result)
	}
}

func TestProcessSkipsDuplicateEvent(t *testing.T) {
	bus := NewBus(testConsumerLogger())
	calls := 0
	bus.Register(enums.EventOrderStatusChanged, func(ctx context.Context, payload any) error {
		calls++
		return nil
	})

	store := newFakeStore()
	consumer := newTestConsumer(bus, store)

	msg := orderStatusMessage(t, uuid.NewString(), OrderStatusChanged{
		OrderID:   uuid.New(),
		NewStatus: enums.OrderStatusProcessing,
	})

	first := consumer.process(context.Background(), msg)
	second := consumer.process(context.Background(), msg)
	if !first.ack || !second.ack {
		t.Fatalf("expected both deliveries to ack")
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestProcessNacksOnStoreFailure(t *testing.T) {
	bus := NewBus(testConsumerLogger())
	store := newFakeStore()
	store.setErr = errors.New("redis down")
	consumer := newTestConsumer(bus, store)

	msg := orderStatusMessage(t, uuid.NewString(), OrderStatusChanged{
		OrderID:   uuid.New(),
		NewStatus: enums.OrderStatusProcessing,
	})

	result := consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack on idempotency store failure, got %+v", result)
	}
}

func TestProcessNacksAndReleasesKeyOnHandlerFailure(t *testing.T) {
	bus := NewBus(testConsumerLogger())
	bus.Register(enums.EventOrderStatusChanged, func(ctx context.Context, payload any) error {
		return fmt.Errorf("downstream unavailable")
	})

	store := newFakeStore()
	consumer := newTestConsumer(bus, store)

	msg := orderStatusMessage(t, uuid.NewString(), OrderStatusChanged{
		OrderID:   uuid.New(),
		NewStatus: enums.OrderStatusProcessing,
	})

	result := consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack on handler failure, got %+v", result)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected idempotency key release for redelivery, deleted %v", store.deleted)
	}
}

func TestProcessAcksInvalidPayload(t *testing.T) {
	bus := NewBus(testConsumerLogger())
	calls := 0
	bus.Register(enums.EventOrderStatusChanged, func(ctx context.Context, payload any) error {
		calls++
		return nil
	})

	store := newFakeStore()
	consumer := newTestConsumer(bus, store)

	// Missing order id fails payload validation.
	msg := orderStatusMessage(t, uuid.NewString(), OrderStatusChanged{
		NewStatus: enums.OrderStatusProcessing,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected invalid payload to be acked, got %+v", result)
	}
	if calls != 0 {
		t.Fatalf("handler should not run for invalid payload")
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected idempotency key cleanup, deleted %v", store.deleted)
	}
}
