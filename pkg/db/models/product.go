package models

import (
	"time"

	"github.com/google/uuid"
)

// Product mirrors the host catalog entry. Variants reference their parent
// product; supplier assignments always attach to the parent.
type Product struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	Name      string     `gorm:"column:name;not null"`
	SKU       string     `gorm:"column:sku;not null;default:''"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
