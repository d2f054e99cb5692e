package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a sellable variation of a product. Every variant belongs
// to exactly one product.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Title     string    `gorm:"column:title;not null"`
	SKU       *string   `gorm:"column:sku"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
