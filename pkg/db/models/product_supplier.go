package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductSupplier is one product↔supplier association row. At most one row
// per product carries the primary flag; the pair itself is unique.
type ProductSupplier struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_product_suppliers_pair"`
	SupplierID uuid.UUID `gorm:"column:supplier_id;type:uuid;not null;uniqueIndex:uq_product_suppliers_pair"`
	IsPrimary  bool      `gorm:"column:is_primary;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the historical table name.
func (ProductSupplier) TableName() string { return "product_suppliers" }
