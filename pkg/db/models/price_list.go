package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/pricing-backend/pkg/enums"
)

// PriceList groups override/sale prices. IncludesTax, when set, takes
// precedence over region and currency tax flags for its money amounts.
type PriceList struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Type        enums.PriceListType `gorm:"column:type;not null;default:'default'"`
	IncludesTax *bool               `gorm:"column:includes_tax"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// PriceListCustomer restricts a price list to specific customers. A list with
// no rows here applies to every customer.
type PriceListCustomer struct {
	PriceListID uuid.UUID `gorm:"column:price_list_id;type:uuid;primaryKey"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;primaryKey"`
}

// TableName keeps the join table name explicit.
func (PriceListCustomer) TableName() string {
	return "price_list_customers"
}
