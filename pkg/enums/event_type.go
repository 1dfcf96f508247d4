package enums

// EventType identifies the host lifecycle events the workers consume.
type EventType string

const (
	EventOrderStatusChanged EventType = "order.status_changed"
	EventEntityDeleted      EventType = "entity.deleted"
)
