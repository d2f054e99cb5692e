package models

import (
	"time"

	"github.com/google/uuid"
)

// MoneyAmount is one tiered price record for a variant: an amount in minor
// currency units scoped by currency, optional region, optional quantity band,
// and optional price list.
type MoneyAmount struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID    uuid.UUID  `gorm:"column:variant_id;type:uuid;not null;index"`
	CurrencyCode string     `gorm:"column:currency_code;not null"`
	RegionID     *uuid.UUID `gorm:"column:region_id;type:uuid"`
	Amount       int        `gorm:"column:amount;not null"`
	MinQuantity  *int       `gorm:"column:min_quantity"`
	MaxQuantity  *int       `gorm:"column:max_quantity"`
	PriceListID  *uuid.UUID `gorm:"column:price_list_id;type:uuid"`
	PriceList    *PriceList `gorm:"foreignKey:PriceListID"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
