package models

import "github.com/google/uuid"

// PricingGroupProduct is the group<->product membership row. The composite
// primary key keeps a product from joining the same group twice.
type PricingGroupProduct struct {
	PricingGroupID string    `gorm:"column:pricing_group_id;primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
}

// TableName pins the join table shared with PricingGroup's many2many relation.
func (PricingGroupProduct) TableName() string {
	return "pricing_group_products"
}
