package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/pkg/enums"
)

// Order is the host order header this service reads when dispatching
// supplier notifications.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber int64             `gorm:"column:order_number;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PlacedAt    time.Time         `gorm:"column:placed_at;not null"`
	Items       []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
