package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/pkg/enums"
)

// EmailLog is one append-only audit row per supplier notification attempt.
// Supplier name and email are snapshots taken at send time; the supplier
// entity may change or disappear afterwards.
type EmailLog struct {
	ID             int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	SupplierID     uuid.UUID         `gorm:"column:supplier_id;type:uuid;not null;index"`
	SupplierName   string            `gorm:"column:supplier_name;not null"`
	SupplierEmail  string            `gorm:"column:supplier_email;not null"`
	RecipientEmail string            `gorm:"column:recipient_email;not null"`
	Subject        string            `gorm:"column:subject;not null"`
	Status         enums.EmailStatus `gorm:"column:status;type:text;not null;default:'sent';index"`
	ItemsCount     int               `gorm:"column:items_count;not null;default:0"`
	SentAt         time.Time         `gorm:"column:sent_at;not null;index"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the historical table name.
func (EmailLog) TableName() string { return "email_history" }
