package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/internal/dispatch"
	"github.com/supplierhq/suppliers-backend/pkg/enums"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
)

type relationshipCleaner interface {
	RemoveAllForProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	RemoveAllForSupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
}

// NewEntityDeletedHandler cascades product and supplier deletions into the
// relationship table.
func NewEntityDeletedHandler(cleaner relationshipCleaner, logg *logger.Logger) Handler {
	return func(ctx context.Context, payload any) error {
		deleted, ok := payload.(EntityDeleted)
		if !ok {
			return fmt.Errorf("entity.deleted: unexpected payload type %T", payload)
		}

		var removed int64
		var err error
		switch deleted.Kind {
		case enums.EntityKindProduct:
			removed, err = cleaner.RemoveAllForProduct(ctx, deleted.ID)
		case enums.EntityKindSupplier:
			removed, err = cleaner.RemoveAllForSupplier(ctx, deleted.ID)
		default:
			return fmt.Errorf("entity.deleted: unknown entity kind %q", deleted.Kind)
		}
		if err != nil {
			return err
		}

		if logg != nil && removed > 0 {
			logCtx := logg.WithFields(ctx, map[string]any{
				"entity_kind":           string(deleted.Kind),
				"entity_id":             deleted.ID.String(),
				"relationships_removed": removed,
			})
			logg.Info(logCtx, "relationship cascade cleanup finished")
		}
		return nil
	}
}

// NewOrderStatusHandler triggers the supplier dispatch when an order
// reaches the configured trigger status. Every other transition is ignored.
func NewOrderStatusHandler(dispatcher dispatch.Service, trigger enums.OrderStatus, logg *logger.Logger) Handler {
	return func(ctx context.Context, payload any) error {
		changed, ok := payload.(OrderStatusChanged)
		if !ok {
			return fmt.Errorf("order.status_changed: unexpected payload type %T", payload)
		}
		if changed.NewStatus != trigger {
			if logg != nil {
				logg.Info(logg.WithField(ctx, "order_status", string(changed.NewStatus)),
					"order status does not match trigger, skipping dispatch")
			}
			return nil
		}
		_, err := dispatcher.Dispatch(ctx, changed.OrderID)
		return err
	}
}
